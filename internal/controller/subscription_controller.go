package controller

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/subscription"

	"coursehub_backend/internal/store"
	"coursehub_backend/pkg/email"
	"coursehub_backend/pkg/utils/jwt"
)

var subscriptionStore *store.Store

func InitSubscriptionController(s *store.Store) {
	subscriptionStore = s
}

// GetMySubscription returns the caller's current subscription.
func GetMySubscription(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)

	sub, err := subscriptionStore.GetUserSubscription(claims.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not fetch subscription",
		})
	}

	if sub == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No active subscription found",
		})
	}

	return c.JSON(sub)
}

// CancelSubscription flags the Stripe subscription to end at the period
// boundary. The local row is not touched here; the resulting
// customer.subscription.updated/deleted events reconcile it.
func CancelSubscription(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)

	sub, err := subscriptionStore.GetUserSubscription(claims.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not fetch subscription",
		})
	}

	if sub == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No active subscription found",
		})
	}

	_, err = subscription.Update(sub.StripeSubscriptionID, &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(true),
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not cancel Stripe subscription",
		})
	}

	if email.GlobalEmailService != nil && sub.CurrentPeriodEnd != nil {
		err := email.GlobalEmailService.SendSubscriptionCancelledEmail(
			claims.Email,
			claims.Name,
			string(sub.PlanType),
			time.Unix(*sub.CurrentPeriodEnd, 0),
		)
		if err != nil {
			log.Printf("Could not send subscription cancellation email: %v", err)
		}
	}

	return c.JSON(fiber.Map{
		"message": "Subscription will be cancelled at the end of the current period",
	})
}
