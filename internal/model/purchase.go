package model

import "gorm.io/gorm"

// Purchase records a one-time course sale. Rows are written exactly once
// per successful checkout and never mutated afterwards. The unique index on
// StripePurchaseID makes redelivered checkout events a no-op insert.
type Purchase struct {
	gorm.Model
	UserID           uint   `json:"user_id" gorm:"index:idx_user_course;not null"`
	CourseID         uint   `json:"course_id" gorm:"index:idx_user_course;not null"`
	Amount           int64  `json:"amount" gorm:"not null"` // cents
	PurchaseDate     int64  `json:"purchase_date" gorm:"not null"`
	StripePurchaseID string `json:"stripe_purchase_id" gorm:"uniqueIndex;not null"`

	// İlişkiler
	User   User   `json:"-" gorm:"foreignKey:UserID"`
	Course Course `json:"-" gorm:"foreignKey:CourseID"`
}
