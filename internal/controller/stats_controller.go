package controller

import (
	"github.com/gofiber/fiber/v2"

	"coursehub_backend/internal/model"
	"coursehub_backend/pkg/database"
)

// GetDashboardStats aggregates catalog and sales numbers for the admin
// dashboard.
func GetDashboardStats(c *fiber.Ctx) error {
	db := database.GetDB()

	var courseCount int64
	db.Model(&model.Course{}).Count(&courseCount)

	var purchaseCount int64
	db.Model(&model.Purchase{}).Count(&purchaseCount)

	var revenue int64
	db.Model(&model.Purchase{}).Select("COALESCE(SUM(amount), 0)").Scan(&revenue)

	var activeSubscriptions int64
	db.Model(&model.Subscription{}).Where("status = ?", "active").Count(&activeSubscriptions)

	var totalViews int64
	db.Model(&model.CourseStats{}).Select("COALESCE(SUM(total_views), 0)").Scan(&totalViews)

	type topCourse struct {
		CourseID uint   `json:"course_id"`
		Title    string `json:"title"`
		Views    int64  `json:"views"`
	}
	var top topCourse
	db.Model(&model.CourseStats{}).
		Select("course_stats.course_id, courses.title, course_stats.total_views as views").
		Joins("JOIN courses ON courses.id = course_stats.course_id").
		Order("course_stats.total_views DESC").
		Limit(1).
		Scan(&top)

	return c.JSON(fiber.Map{
		"courses":              courseCount,
		"purchases":            purchaseCount,
		"revenue_cents":        revenue,
		"active_subscriptions": activeSubscriptions,
		"total_views":          totalViews,
		"top_course":           top,
	})
}
