package seed

import (
	"log"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"coursehub_backend/internal/model"
)

func SeedCourses(db *gorm.DB) {
	courses := []model.Course{
		{
			Title:       "Go for Backend Engineers",
			Slug:        "go-for-backend-engineers",
			Description: "Build production HTTP services in Go",
			Price:       49.99,
			Tags:        datatypes.JSON([]byte(`["go", "backend"]`)),
		},
		{
			Title:       "PostgreSQL Deep Dive",
			Slug:        "postgresql-deep-dive",
			Description: "Indexes, transactions and query planning",
			Price:       39.99,
			Tags:        datatypes.JSON([]byte(`["databases", "sql"]`)),
		},
		{
			Title:       "Stripe Payments in Practice",
			Slug:        "stripe-payments-in-practice",
			Description: "Checkout, subscriptions and webhooks done right",
			Price:       59.99,
			Tags:        datatypes.JSON([]byte(`["payments", "stripe"]`)),
		},
	}

	for _, course := range courses {
		result := db.FirstOrCreate(&course, model.Course{Slug: course.Slug})
		if result.Error != nil {
			log.Printf("Error creating course %s: %v", course.Title, result.Error)
		}
	}

	log.Println("Courses seeded successfully!")
}
