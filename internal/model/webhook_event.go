package model

import "gorm.io/gorm"

// WebhookEvent is an audit row per webhook delivery. Redeliveries update
// the existing row for their event id instead of stacking duplicates.
type WebhookEvent struct {
	gorm.Model
	StripeEventID string `json:"stripe_event_id" gorm:"uniqueIndex;not null"`
	Type          string `json:"type" gorm:"index;not null"`
	Processed     bool   `json:"processed" gorm:"default:false"`
	Error         string `json:"error" gorm:"type:text"`
}
