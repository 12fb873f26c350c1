// pkg/cron/course_stats.go
package cron

import (
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"coursehub_backend/internal/model"
	"coursehub_backend/pkg/database"
	"coursehub_backend/pkg/email"
)

func InitCourseStatsCron(adminEmail string) {
	if adminEmail == "" {
		log.Println("No admin email configured, skipping course stats cron")
		return
	}

	c := cron.New()

	// Her hafta Pazar günü saat 20:00'de
	_, err := c.AddFunc("0 20 * * 0", func() {
		sendWeeklyCourseStats(adminEmail)
	})

	if err != nil {
		log.Printf("Could not initialize course stats cron: %v", err)
		return
	}

	c.Start()
}

func sendWeeklyCourseStats(adminEmail string) {
	if email.GlobalEmailService == nil {
		return
	}

	startDate := time.Now().AddDate(0, 0, -7)
	db := database.GetDB()

	var totalCourses int64
	db.Model(&model.Course{}).Count(&totalCourses)

	var totalViews, uniqueViews int64
	db.Model(&model.CourseView{}).Where("viewed_at >= ?", startDate).Count(&totalViews)
	db.Model(&model.CourseView{}).Where("viewed_at >= ? AND is_unique = ?", startDate, true).Count(&uniqueViews)

	type topCourseRow struct {
		Title string
		Views int64
	}
	var top topCourseRow
	db.Model(&model.CourseView{}).
		Select("courses.title, COUNT(course_views.id) as views").
		Joins("JOIN courses ON courses.id = course_views.course_id").
		Where("course_views.viewed_at >= ?", startDate).
		Group("courses.id, courses.title").
		Order("views DESC").
		Limit(1).
		Scan(&top)

	var purchases int64
	db.Model(&model.Purchase{}).Where("purchase_date >= ?", startDate.Unix()).Count(&purchases)

	var revenue int64
	db.Model(&model.Purchase{}).
		Where("purchase_date >= ?", startDate.Unix()).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&revenue)

	err := email.GlobalEmailService.SendWeeklyStatsEmail(
		adminEmail,
		totalCourses,
		totalViews,
		uniqueViews,
		top.Title,
		top.Views,
		purchases,
		revenue,
		startDate,
	)
	if err != nil {
		log.Printf("Error sending weekly course stats: %v", err)
	}
}
