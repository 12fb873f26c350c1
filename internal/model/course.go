package model

import (
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Course struct {
	gorm.Model
	Title       string         `json:"title" gorm:"not null"`
	Slug        string         `json:"slug" gorm:"uniqueIndex;not null"`
	Description string         `json:"description" gorm:"type:text"`
	ImageURL    string         `json:"image_url"`
	Content     string         `json:"-" gorm:"type:text"` // gated behind purchase/subscription
	Price       float64        `json:"price" gorm:"not null;check:price >= 0"`
	Tags        datatypes.JSON `json:"tags"`

	// İlişkiler
	Purchases []Purchase `json:"-"`
}

// BeforeCreate derives a URL-safe slug from the title when none is set.
func (c *Course) BeforeCreate(tx *gorm.DB) error {
	if c.Slug == "" {
		slug := strings.ToLower(strings.ReplaceAll(c.Title, " ", "-"))
		slug = strings.Map(func(r rune) rune {
			if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
				return r
			}
			return -1
		}, slug)

		var count int64
		tx.Model(&Course{}).Where("slug = ?", slug).Count(&count)
		if count > 0 {
			slug = slug + "-" + c.CreatedAt.Format("20060102")
		}

		c.Slug = slug
	}
	return nil
}
