package model

import "gorm.io/gorm"

type User struct {
	gorm.Model
	Email    string `json:"email" gorm:"uniqueIndex;not null"`
	Password string `json:"-" gorm:"not null"`
	Name     string `json:"name" gorm:"not null"`

	// Stripe customer is created at registration so it always exists
	// before any checkout event arrives.
	StripeCustomerID string `json:"stripe_customer_id" gorm:"uniqueIndex;not null"`

	// Non-owning reference to the user's active subscription. Cleared when
	// the subscription row is removed, never cascades.
	CurrentSubscriptionID *uint `json:"current_subscription_id" gorm:"index"`

	// İlişkiler
	Purchases           []Purchase    `json:"-"`
	CurrentSubscription *Subscription `json:"-" gorm:"foreignKey:CurrentSubscriptionID"`
}

func (u *User) GetPublicProfile() map[string]interface{} {
	return map[string]interface{}{
		"id":    u.ID,
		"email": u.Email,
		"name":  u.Name,
	}
}
