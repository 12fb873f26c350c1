package model

import (
	"time"

	"gorm.io/gorm"
)

// CourseView tekil görüntülenme kaydı
type CourseView struct {
	gorm.Model
	CourseID  uint      `json:"course_id" gorm:"index"`
	UserID    *uint     `json:"user_id" gorm:"index"`
	IP        string    `json:"ip" gorm:"index"`
	UserAgent string    `json:"user_agent"`
	ViewedAt  time.Time `json:"viewed_at" gorm:"index"`
	IsUnique  bool      `json:"is_unique" gorm:"default:true"`

	// İlişkiler
	Course Course `json:"-" gorm:"foreignKey:CourseID"`
	User   *User  `json:"-" gorm:"foreignKey:UserID"`
}

// CourseStats genel istatistikler
type CourseStats struct {
	gorm.Model
	CourseID    uint      `json:"course_id" gorm:"uniqueIndex"`
	TotalViews  int64     `json:"total_views"`
	UniqueViews int64     `json:"unique_views"`
	LastUpdated time.Time `json:"last_updated"`

	// İlişkiler
	Course Course `json:"-" gorm:"foreignKey:CourseID"`
}

// BeforeCreate marks repeat views from the same IP within 24h as non-unique.
func (cv *CourseView) BeforeCreate(tx *gorm.DB) error {
	var count int64
	tx.Model(&CourseView{}).
		Where("course_id = ? AND ip = ? AND viewed_at > ?",
			cv.CourseID,
			cv.IP,
			time.Now().Add(-24*time.Hour)).
		Count(&count)

	if count > 0 {
		cv.IsUnique = false
	}

	return nil
}

// AfterCreate keeps the aggregated counters in step with the view log.
func (cv *CourseView) AfterCreate(tx *gorm.DB) error {
	var stats CourseStats
	tx.FirstOrCreate(&stats, CourseStats{CourseID: cv.CourseID})

	updates := map[string]interface{}{
		"total_views":  gorm.Expr("total_views + ?", 1),
		"last_updated": time.Now(),
	}

	if cv.IsUnique {
		updates["unique_views"] = gorm.Expr("unique_views + ?", 1)
	}

	return tx.Model(&stats).Updates(updates).Error
}
