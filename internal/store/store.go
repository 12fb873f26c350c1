package store

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"coursehub_backend/internal/model"
)

var ErrSubscriptionNotFound = errors.New("subscription not found")

// Store wraps the database handle used by the payment reconciliation core.
// It is constructed once in main and injected into the webhook handler, so
// nothing in the core reaches for a package-level connection.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// GetUserByStripeCustomerID returns nil without an error when no user
// matches — absence is a lookup result here, not a failure.
func (s *Store) GetUserByStripeCustomerID(stripeCustomerID string) (*model.User, error) {
	var user model.User
	err := s.db.Where("stripe_customer_id = ?", stripeCustomerID).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (s *Store) GetCourseByID(courseID uint) (*model.Course, error) {
	var course model.Course
	err := s.db.First(&course, courseID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &course, nil
}

// RecordPurchase inserts a purchase row keyed by the Stripe checkout id.
// A redelivered checkout event hits the unique index and becomes a no-op.
func (s *Store) RecordPurchase(userID, courseID uint, amount int64, stripePurchaseID string) error {
	purchase := model.Purchase{
		UserID:           userID,
		CourseID:         courseID,
		Amount:           amount,
		PurchaseDate:     time.Now().Unix(),
		StripePurchaseID: stripePurchaseID,
	}

	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "stripe_purchase_id"}},
		DoNothing: true,
	}).Create(&purchase).Error
}

type UpsertSubscriptionParams struct {
	UserID               uint
	StripeSubscriptionID string
	Status               string
	PlanType             model.PlanType
	CurrentPeriodStart   *int64
	CurrentPeriodEnd     *int64
	CancelAtPeriodEnd    bool
}

// UpsertSubscription patches the row matching the Stripe subscription id in
// place, or creates it and links it as the user's current subscription. The
// lookup and the write run in one transaction so two concurrent upserts for
// the same id cannot both create a row.
func (s *Store) UpsertSubscription(p UpsertSubscriptionParams) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var existing model.Subscription
		err := tx.Where("stripe_subscription_id = ?", p.StripeSubscriptionID).First(&existing).Error

		if err == nil {
			return tx.Model(&existing).Updates(map[string]interface{}{
				"status":               p.Status,
				"plan_type":            p.PlanType,
				"current_period_start": p.CurrentPeriodStart,
				"current_period_end":   p.CurrentPeriodEnd,
				"cancel_at_period_end": p.CancelAtPeriodEnd,
			}).Error
		}

		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		sub := model.Subscription{
			UserID:               p.UserID,
			PlanType:             p.PlanType,
			CurrentPeriodStart:   p.CurrentPeriodStart,
			CurrentPeriodEnd:     p.CurrentPeriodEnd,
			StripeSubscriptionID: p.StripeSubscriptionID,
			Status:               p.Status,
			CancelAtPeriodEnd:    p.CancelAtPeriodEnd,
		}
		if err := tx.Create(&sub).Error; err != nil {
			return err
		}

		return tx.Model(&model.User{}).
			Where("id = ?", p.UserID).
			Update("current_subscription_id", sub.ID).Error
	})
}

// RemoveSubscription deletes the row matching the Stripe subscription id
// and clears any user's back-reference to it in the same transaction.
func (s *Store) RemoveSubscription(stripeSubscriptionID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var sub model.Subscription
		if err := tx.Where("stripe_subscription_id = ?", stripeSubscriptionID).First(&sub).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSubscriptionNotFound
			}
			return err
		}

		if err := tx.Model(&model.User{}).
			Where("current_subscription_id = ?", sub.ID).
			Update("current_subscription_id", nil).Error; err != nil {
			return err
		}

		return tx.Unscoped().Delete(&sub).Error
	})
}

// GetUserSubscription returns the user's current subscription, or nil when
// the user does not exist, holds no reference, or the referenced row is
// gone. It never signals an error for a missing link.
func (s *Store) GetUserSubscription(userID uint) (*model.Subscription, error) {
	var user model.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	if user.CurrentSubscriptionID == nil {
		return nil, nil
	}

	var sub model.Subscription
	if err := s.db.First(&sub, *user.CurrentSubscriptionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &sub, nil
}

// HasCourseAccess reports whether the user bought the course outright or
// holds an active subscription.
func (s *Store) HasCourseAccess(userID, courseID uint) (bool, error) {
	var count int64
	err := s.db.Model(&model.Purchase{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	if count > 0 {
		return true, nil
	}

	sub, err := s.GetUserSubscription(userID)
	if err != nil {
		return false, err
	}
	return sub != nil && sub.Status == "active", nil
}

// LogWebhookEvent records the outcome of one webhook delivery. Redelivered
// events update their existing audit row.
func (s *Store) LogWebhookEvent(stripeEventID, eventType string, processErr error) error {
	event := model.WebhookEvent{
		StripeEventID: stripeEventID,
		Type:          eventType,
		Processed:     processErr == nil,
	}
	if processErr != nil {
		event.Error = processErr.Error()
	}

	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "stripe_event_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"processed", "error", "updated_at"}),
	}).Create(&event).Error
}
