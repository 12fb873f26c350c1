package model

import "gorm.io/gorm"

type PlanType string

const (
	PlanMonth PlanType = "month"
	PlanYear  PlanType = "year"
)

// Subscription mirrors the provider's state for one Stripe subscription.
// Exactly one row ever exists per StripeSubscriptionID; updates patch the
// row in place, cancellation deletes it and clears the owner's reference.
type Subscription struct {
	gorm.Model
	UserID               uint     `json:"user_id" gorm:"index;not null"`
	PlanType             PlanType `json:"plan_type" gorm:"not null"`
	CurrentPeriodStart   *int64   `json:"current_period_start"`
	CurrentPeriodEnd     *int64   `json:"current_period_end"`
	StripeSubscriptionID string   `json:"stripe_subscription_id" gorm:"uniqueIndex;not null"`
	Status               string   `json:"status" gorm:"not null"`
	CancelAtPeriodEnd    bool     `json:"cancel_at_period_end" gorm:"default:false"`

	// İlişkiler
	User User `json:"-" gorm:"foreignKey:UserID"`
}
