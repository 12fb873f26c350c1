package main

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/stripe/stripe-go/v74"

	"coursehub_backend/internal/controller"
	"coursehub_backend/internal/middleware"
	"coursehub_backend/internal/model"
	"coursehub_backend/internal/store"
	"coursehub_backend/internal/webhook"
	"coursehub_backend/pkg/config"
	"coursehub_backend/pkg/cron"
	"coursehub_backend/pkg/database"
	"coursehub_backend/pkg/email"
	"coursehub_backend/pkg/seed"
	"coursehub_backend/pkg/utils/jwt"
)

func setupRoutes(app *fiber.App, webhookHandler *webhook.Handler) {
	api := app.Group("/api")

	// Auth Routes
	auth := api.Group("/auth")
	auth.Post("/register", controller.Register)
	auth.Post("/login", controller.Login)

	// Public catalog
	api.Get("/courses", controller.ListCourses)
	api.Get("/courses/:slug", controller.GetCourseBySlug)
	api.Post("/courses/:id/view", controller.RecordCourseView)

	// Protected Routes
	protected := api.Group("/", middleware.AuthMiddleware())
	protected.Get("/me", controller.GetMe)

	// Gated course content
	protected.Get("/courses/:id/content", middleware.CheckCourseAccess(), controller.GetCourseContent)

	// Course image upload
	protected.Post("/courses/:id/image", controller.UploadCourseImage)

	// Dashboard routes
	dashboard := api.Group("/dashboard", middleware.AuthMiddleware())
	dashboard.Get("/stats", controller.GetDashboardStats)

	// Checkout routes — rate limited, Stripe Checkout misuse is costly
	checkout := api.Group("/checkout")
	checkoutLimiter := limiter.New(limiter.Config{
		Max:               3,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
	})
	checkout.Post("/course", checkoutLimiter, middleware.AuthMiddleware(), controller.CreateCourseCheckoutSession)
	checkout.Post("/subscription", checkoutLimiter, middleware.AuthMiddleware(), controller.CreateSubscriptionCheckoutSession)

	// Stripe checkout süreç sonuçları
	checkout.Get("/success", controller.HandleCheckoutSuccess)
	checkout.Get("/cancelled", controller.HandleCheckoutCancel)

	// Subscription routes
	subscriptions := api.Group("/subscriptions", middleware.AuthMiddleware())
	subscriptions.Get("/my", controller.GetMySubscription)
	subscriptions.Post("/cancel", controller.CancelSubscription)

	// Stripe webhook
	api.Post("/webhook", webhookHandler.Handle)
}

func main() {
	cfg := config.Load()

	jwt.Init(cfg.JWT.Secret)
	stripe.Key = cfg.Stripe.SecretKey

	if cfg.Email.ResendAPIKey != "" {
		if err := email.InitEmailService(cfg.Email.ResendAPIKey); err != nil {
			log.Fatal("Could not initialize email service:", err)
		}
	} else {
		log.Println("No Resend API key configured, emails disabled")
	}

	if cfg.Database.URL == "" {
		log.Fatal("DATABASE_URL is not set in .env")
	}

	database.InitDB(cfg.Database.URL)
	err := database.MigrateDatabase(
		&model.User{},
		&model.Course{},
		&model.Purchase{},
		&model.Subscription{},
		&model.WebhookEvent{},
		&model.CourseView{},
		&model.CourseStats{},
	)
	if err != nil {
		log.Printf("Migration warning: %v", err)
	}

	seed.SeedCourses(database.GetDB())

	st := store.New(database.GetDB())
	controller.InitCheckoutController(cfg)
	controller.InitSubscriptionController(st)
	middleware.InitAccessMiddleware(st)
	webhookHandler := webhook.NewHandler(st, cfg.Stripe.WebhookSecret, email.GlobalEmailService)

	cron.InitSubscriptionExpiryCron()
	cron.InitCourseStatsCron(cfg.Email.AdminEmail)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New())

	setupRoutes(app, webhookHandler)

	log.Printf("Server is running on port %s", cfg.Server.Port)
	log.Fatal(app.Listen(":" + cfg.Server.Port))
}
