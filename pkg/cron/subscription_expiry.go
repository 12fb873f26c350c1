package cron

import (
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"coursehub_backend/internal/model"
	"coursehub_backend/pkg/database"
	"coursehub_backend/pkg/email"
)

func InitSubscriptionExpiryCron() {
	c := cron.New()

	_, err := c.AddFunc("0 9 * * *", func() {
		expireLapsedSubscriptions()
		warnExpiringSubscriptions()
	})

	if err != nil {
		log.Printf("Could not initialize subscription expiry cron: %v", err)
		return
	}

	c.Start()
}

// expireLapsedSubscriptions marks rows past their period end that were
// flagged to cancel. The webhook remains the source of truth; this sweep
// only covers deliveries that never arrived.
func expireLapsedSubscriptions() {
	now := time.Now().Unix()

	var lapsed []model.Subscription
	err := database.GetDB().
		Where("cancel_at_period_end = ? AND current_period_end IS NOT NULL AND current_period_end < ? AND status = ?",
			true, now, "active").
		Find(&lapsed).Error
	if err != nil {
		log.Printf("Error fetching lapsed subscriptions: %v", err)
		return
	}

	for _, sub := range lapsed {
		err := database.GetDB().Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&model.Subscription{}).
				Where("id = ?", sub.ID).
				Update("status", "expired").Error; err != nil {
				return err
			}
			return tx.Model(&model.User{}).
				Where("current_subscription_id = ?", sub.ID).
				Update("current_subscription_id", nil).Error
		})
		if err != nil {
			log.Printf("Error expiring subscription %s: %v", sub.StripeSubscriptionID, err)
			continue
		}
		log.Printf("Marked subscription %s as expired", sub.StripeSubscriptionID)
	}
}

func warnExpiringSubscriptions() {
	if email.GlobalEmailService == nil {
		return
	}

	warningDays := []int{7, 3}

	for _, days := range warningDays {
		dayStart := time.Now().AddDate(0, 0, days).Truncate(24 * time.Hour)
		dayEnd := dayStart.Add(24 * time.Hour)

		var subs []model.Subscription
		err := database.GetDB().
			Where("cancel_at_period_end = ? AND status = ? AND current_period_end >= ? AND current_period_end < ?",
				true, "active", dayStart.Unix(), dayEnd.Unix()).
			Preload("User").
			Find(&subs).Error
		if err != nil {
			log.Printf("Error fetching expiring subscriptions: %v", err)
			continue
		}

		log.Printf("Found %d subscriptions expiring in %d days", len(subs), days)

		for _, sub := range subs {
			if sub.CurrentPeriodEnd == nil {
				continue
			}
			err := email.GlobalEmailService.SendSubscriptionExpiryWarning(
				sub.User.Email,
				sub.User.Name,
				string(sub.PlanType),
				time.Unix(*sub.CurrentPeriodEnd, 0),
				days,
			)
			if err != nil {
				log.Printf("Error sending expiry warning to %s: %v", sub.User.Email, err)
			}
		}
	}
}
