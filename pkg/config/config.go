package config

import (
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Stripe   StripeConfig
	Email    EmailConfig
	R2       R2Config
}

type ServerConfig struct {
	Port        string
	FrontendURL string
}

type DatabaseConfig struct {
	URL string
}

type JWTConfig struct {
	Secret string
}

type StripeConfig struct {
	SecretKey      string
	WebhookSecret  string
	MonthlyPriceID string
	YearlyPriceID  string
}

type EmailConfig struct {
	ResendAPIKey string
	AdminEmail   string
}

type R2Config struct {
	AccessKey  string
	SecretKey  string
	AccountID  string
	BucketName string
	CDNBaseURL string
}

func Load() *Config {
	godotenv.Load() // .env dosyasını yükle

	return &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "3000"),
			FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3001"),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "coursehub-dev-secret"),
		},
		Stripe: StripeConfig{
			SecretKey:      getEnv("STRIPE_SECRET_KEY", ""),
			WebhookSecret:  getEnv("STRIPE_WEBHOOK_SECRET", ""),
			MonthlyPriceID: getEnv("STRIPE_MONTHLY_PRICE_ID", ""),
			YearlyPriceID:  getEnv("STRIPE_YEARLY_PRICE_ID", ""),
		},
		Email: EmailConfig{
			ResendAPIKey: getEnv("RESEND_API_KEY", ""),
			AdminEmail:   getEnv("ADMIN_EMAIL", ""),
		},
		R2: R2Config{
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
			CDNBaseURL: getEnv("R2_CDN_BASE_URL", "https://cdn.coursehub.app"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
