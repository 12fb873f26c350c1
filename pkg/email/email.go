// pkg/email/email.go
package email

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"log"
	"net/http"
	"time"
)

type EmailService struct {
	apiKey    string
	from      string
	templates *template.Template
}

type EmailData struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Html    string `json:"html"`
}

// Template data structures
type WelcomeEmailData struct {
	Name string
}

type PurchaseConfirmationData struct {
	Name        string
	CourseTitle string
	Amount      float64
	PurchasedAt time.Time
}

type SubscriptionEmailData struct {
	Name      string
	PlanType  string
	PeriodEnd time.Time
}

type SubscriptionCancelledData struct {
	Name     string
	PlanType string
	EndsAt   time.Time
}

type SubscriptionExpiryWarningData struct {
	Name       string
	PlanType   string
	DaysLeft   int
	ExpiryDate time.Time
}

type WeeklyStatsData struct {
	TotalCourses   int64
	TotalViews     int64
	UniqueViews    int64
	TopCourse      string
	TopCourseViews int64
	Purchases      int64
	Revenue        float64
	StartDate      time.Time
}

func NewEmailService(apiKey string) (*EmailService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("resend API key is required")
	}

	templates, err := loadTemplates()
	if err != nil {
		return nil, fmt.Errorf("error loading email templates: %v", err)
	}

	return &EmailService{
		apiKey:    apiKey,
		from:      "CourseHub <noreply@coursehub.app>",
		templates: templates,
	}, nil
}

func (s *EmailService) sendTemplateEmail(to, subject, templateName string, data interface{}) error {
	var body bytes.Buffer
	if err := s.templates.ExecuteTemplate(&body, templateName, data); err != nil {
		return fmt.Errorf("template execution error: %v", err)
	}

	emailData := EmailData{
		From:    s.from,
		To:      to,
		Subject: subject,
		Html:    body.String(),
	}

	jsonData, err := json.Marshal(emailData)
	if err != nil {
		return fmt.Errorf("error marshaling email data: %v", err)
	}

	req, err := http.NewRequest("POST", "https://api.resend.com/emails", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("error creating request: %v", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("error sending email: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response body: %v", err)
	}

	log.Printf("Resend API response: Status: %d, Body: %s", resp.StatusCode, string(respBody))

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("resend API error: %s", string(respBody))
	}

	return nil
}

// Email sending methods
func (s *EmailService) SendWelcomeEmail(email, name string) error {
	data := WelcomeEmailData{
		Name: name,
	}
	return s.sendTemplateEmail(email, "Welcome to CourseHub! 🎉", "welcome.html", data)
}

func (s *EmailService) SendPurchaseConfirmationEmail(email, name, courseTitle string, amountCents int64, purchasedAt time.Time) error {
	data := PurchaseConfirmationData{
		Name:        name,
		CourseTitle: courseTitle,
		Amount:      float64(amountCents) / 100,
		PurchasedAt: purchasedAt,
	}
	return s.sendTemplateEmail(email, "Your Course Purchase 🎓", "purchase_confirmation.html", data)
}

func (s *EmailService) SendSubscriptionStartedEmail(email, name, planType string, periodEnd time.Time) error {
	data := SubscriptionEmailData{
		Name:      name,
		PlanType:  planType,
		PeriodEnd: periodEnd,
	}
	return s.sendTemplateEmail(email, "Welcome to CourseHub Premium! 🎉", "subscription_started.html", data)
}

func (s *EmailService) SendSubscriptionCancelledEmail(email, name, planType string, endsAt time.Time) error {
	data := SubscriptionCancelledData{
		Name:     name,
		PlanType: planType,
		EndsAt:   endsAt,
	}
	return s.sendTemplateEmail(email, "Your Subscription Has Been Cancelled", "subscription_cancelled.html", data)
}

func (s *EmailService) SendSubscriptionExpiryWarning(email, name, planType string, expiryDate time.Time, daysLeft int) error {
	data := SubscriptionExpiryWarningData{
		Name:       name,
		PlanType:   planType,
		DaysLeft:   daysLeft,
		ExpiryDate: expiryDate,
	}
	return s.sendTemplateEmail(
		email,
		fmt.Sprintf("Your Subscription Expires in %d Days ⚠️", daysLeft),
		"subscription_expiry_warning.html",
		data,
	)
}

func (s *EmailService) SendWeeklyStatsEmail(
	email string,
	totalCourses, totalViews, uniqueViews int64,
	topCourse string, topCourseViews int64,
	purchases, revenueCents int64,
	startDate time.Time,
) error {
	data := WeeklyStatsData{
		TotalCourses:   totalCourses,
		TotalViews:     totalViews,
		UniqueViews:    uniqueViews,
		TopCourse:      topCourse,
		TopCourseViews: topCourseViews,
		Purchases:      purchases,
		Revenue:        float64(revenueCents) / 100,
		StartDate:      startDate,
	}
	return s.sendTemplateEmail(email, "Your Weekly Course Statistics 📊", "weekly_stats.html", data)
}
