package controller

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/checkout/session"

	"coursehub_backend/internal/model"
	"coursehub_backend/pkg/config"
	"coursehub_backend/pkg/database"
	"coursehub_backend/pkg/utils/jwt"
)

var checkoutCfg *config.Config

func InitCheckoutController(cfg *config.Config) {
	checkoutCfg = cfg
}

type CourseCheckoutInput struct {
	CourseID uint `json:"course_id" validate:"required"`
}

type SubscriptionCheckoutInput struct {
	Plan string `json:"plan" validate:"required,oneof=month year"`
}

// CreateCourseCheckoutSession starts a one-time Stripe Checkout for a
// single course. The course id travels in the session metadata and comes
// back on the checkout.session.completed event.
func CreateCourseCheckoutSession(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)

	input := new(CourseCheckoutInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}

	var course model.Course
	if err := database.GetDB().First(&course, input.CourseID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Course not found",
		})
	}

	var user model.User
	if err := database.GetDB().First(&user, claims.UserID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	params := &stripe.CheckoutSessionParams{
		Customer: stripe.String(user.StripeCustomerID),
		Mode:     stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String("usd"),
					UnitAmount: stripe.Int64(int64(course.Price * 100)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(course.Title),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(checkoutCfg.Server.FrontendURL + "/checkout/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(checkoutCfg.Server.FrontendURL + "/checkout/cancelled"),
	}
	params.AddMetadata("courseId", strconv.FormatUint(uint64(course.ID), 10))

	checkoutSession, err := session.New(params)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not create checkout session",
		})
	}

	return c.JSON(fiber.Map{
		"checkout_url": checkoutSession.URL,
	})
}

// CreateSubscriptionCheckoutSession starts a recurring Checkout on the
// configured monthly or yearly price.
func CreateSubscriptionCheckoutSession(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)

	input := new(SubscriptionCheckoutInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}

	var priceID string
	switch model.PlanType(input.Plan) {
	case model.PlanMonth:
		priceID = checkoutCfg.Stripe.MonthlyPriceID
	case model.PlanYear:
		priceID = checkoutCfg.Stripe.YearlyPriceID
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Plan must be 'month' or 'year'",
		})
	}

	var user model.User
	if err := database.GetDB().First(&user, claims.UserID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	params := &stripe.CheckoutSessionParams{
		Customer: stripe.String(user.StripeCustomerID),
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(checkoutCfg.Server.FrontendURL + "/checkout/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(checkoutCfg.Server.FrontendURL + "/checkout/cancelled"),
	}

	checkoutSession, err := session.New(params)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not create checkout session",
		})
	}

	return c.JSON(fiber.Map{
		"checkout_url": checkoutSession.URL,
	})
}

// HandleCheckoutSuccess is the browser redirect target after payment. The
// actual state change arrives over the webhook, this only acknowledges.
func HandleCheckoutSuccess(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "Payment received. Your purchase will appear shortly.",
	})
}

// HandleCheckoutCancel ödemeden vazgeçildi
func HandleCheckoutCancel(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "Checkout cancelled",
	})
}
