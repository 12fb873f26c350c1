package webhook

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/webhook"

	"coursehub_backend/internal/model"
	"coursehub_backend/internal/store"
	"coursehub_backend/pkg/email"
)

// Store is the slice of the data layer the reconciliation core mutates.
type Store interface {
	GetUserByStripeCustomerID(stripeCustomerID string) (*model.User, error)
	GetCourseByID(courseID uint) (*model.Course, error)
	RecordPurchase(userID, courseID uint, amount int64, stripePurchaseID string) error
	UpsertSubscription(p store.UpsertSubscriptionParams) error
	RemoveSubscription(stripeSubscriptionID string) error
	LogWebhookEvent(stripeEventID, eventType string, processErr error) error
}

// Handler owns the Stripe webhook endpoint: it verifies the delivery,
// routes it to one event handler and maps the outcome to an HTTP status.
type Handler struct {
	store  Store
	secret string
	email  *email.EmailService
}

// NewHandler builds the webhook endpoint. emailService may be nil;
// notifications are best-effort and never fail an event.
func NewHandler(store Store, webhookSecret string, emailService *email.EmailService) *Handler {
	return &Handler{store: store, secret: webhookSecret, email: emailService}
}

// Handle is the single trust boundary for payment events. Verification
// failures stop here with a 400 and no handler runs. Handler failures also
// answer 400 so Stripe redelivers; the mutators are idempotent, so a
// redelivery of a half-applied event converges instead of duplicating.
func (h *Handler) Handle(c *fiber.Ctx) error {
	event, err := webhook.ConstructEvent(c.Body(), c.Get("Stripe-Signature"), h.secret)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Webhook signature verification failed.")
	}

	processErr := h.process(event)

	if err := h.store.LogWebhookEvent(event.ID, string(event.Type), processErr); err != nil {
		log.Printf("Could not record webhook event %s: %v", event.ID, err)
	}

	if processErr != nil {
		log.Printf("Error processing %s event %s: %v", event.Type, event.ID, processErr)
		return c.Status(fiber.StatusBadRequest).SendString("Error processing webhook")
	}

	return c.SendStatus(fiber.StatusOK)
}

// process dispatches a verified event to exactly one handler. Event types
// this system does not care about are acknowledged without side effects so
// Stripe stops redelivering them.
func (h *Handler) process(event stripe.Event) error {
	switch event.Type {
	case "checkout.session.completed":
		return h.handleCheckoutSessionCompleted(event)
	case "customer.subscription.created", "customer.subscription.updated":
		return h.handleSubscriptionUpserted(event)
	case "customer.subscription.deleted":
		return h.handleSubscriptionDeleted(event)
	default:
		return nil
	}
}

func (h *Handler) handleCheckoutSessionCompleted(event stripe.Event) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return fmt.Errorf("could not parse checkout session: %w", err)
	}

	courseIDRaw := session.Metadata["courseId"]
	if courseIDRaw == "" || session.Customer == nil || session.Customer.ID == "" {
		return fmt.Errorf("%w: course id or customer id", ErrMissingField)
	}

	courseID, err := strconv.ParseUint(courseIDRaw, 10, 32)
	if err != nil {
		return fmt.Errorf("%w: invalid course id %q", ErrMissingField, courseIDRaw)
	}

	user, err := h.store.GetUserByStripeCustomerID(session.Customer.ID)
	if err != nil {
		return fmt.Errorf("could not look up user: %w", err)
	}
	if user == nil {
		return fmt.Errorf("%w: stripe customer %s", ErrUserNotFound, session.Customer.ID)
	}

	if err := h.store.RecordPurchase(user.ID, uint(courseID), session.AmountTotal, session.ID); err != nil {
		return err
	}

	if h.email != nil {
		courseTitle := ""
		if course, err := h.store.GetCourseByID(uint(courseID)); err == nil && course != nil {
			courseTitle = course.Title
		}
		if err := h.email.SendPurchaseConfirmationEmail(user.Email, user.Name, courseTitle, session.AmountTotal, time.Now()); err != nil {
			log.Printf("Could not send purchase confirmation email: %v", err)
		}
	}

	return nil
}

func (h *Handler) handleSubscriptionUpserted(event stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return fmt.Errorf("could not parse subscription: %w", err)
	}

	// Only an active subscription with an invoice attached is billable;
	// anything else is acknowledged and skipped.
	if sub.Status != stripe.SubscriptionStatusActive || sub.LatestInvoice == nil {
		log.Printf("Skipping subscription %s - status: %s", sub.ID, sub.Status)
		return nil
	}

	if sub.Customer == nil || sub.Customer.ID == "" {
		return fmt.Errorf("%w: customer id", ErrMissingField)
	}

	user, err := h.store.GetUserByStripeCustomerID(sub.Customer.ID)
	if err != nil {
		return fmt.Errorf("could not look up user: %w", err)
	}
	if user == nil {
		return fmt.Errorf("%w: stripe customer %s", ErrUserNotFound, sub.Customer.ID)
	}

	if sub.Items == nil || len(sub.Items.Data) == 0 || sub.Items.Data[0].Plan == nil {
		return fmt.Errorf("%w: subscription items", ErrMissingField)
	}

	planType := model.PlanMonth
	periodDays := int64(30)
	if sub.Items.Data[0].Plan.Interval == stripe.PlanIntervalYear {
		planType = model.PlanYear
		periodDays = 365
	}

	// TODO: read current_period_end from the subscription payload instead
	// of deriving it from the start date.
	periodStart := sub.StartDate
	periodEnd := sub.StartDate + periodDays*24*60*60

	err = h.store.UpsertSubscription(store.UpsertSubscriptionParams{
		UserID:               user.ID,
		StripeSubscriptionID: sub.ID,
		Status:               string(sub.Status),
		PlanType:             planType,
		CurrentPeriodStart:   &periodStart,
		CurrentPeriodEnd:     &periodEnd,
		CancelAtPeriodEnd:    sub.CancelAtPeriodEnd,
	})
	if err != nil {
		return err
	}

	if h.email != nil && event.Type == "customer.subscription.created" {
		if err := h.email.SendSubscriptionStartedEmail(user.Email, user.Name, string(planType), time.Unix(periodEnd, 0)); err != nil {
			log.Printf("Could not send subscription started email: %v", err)
		}
	}

	return nil
}

func (h *Handler) handleSubscriptionDeleted(event stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return fmt.Errorf("could not parse subscription: %w", err)
	}

	if err := h.store.RemoveSubscription(sub.ID); err != nil {
		return fmt.Errorf("could not remove subscription %s: %w", sub.ID, err)
	}

	return nil
}
