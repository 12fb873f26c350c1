package controller

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"coursehub_backend/internal/model"
	"coursehub_backend/pkg/database"
)

// ListCourses returns the public catalog.
func ListCourses(c *fiber.Ctx) error {
	var courses []model.Course
	if err := database.GetDB().Order("created_at DESC").Find(&courses).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not fetch courses",
		})
	}

	return c.JSON(courses)
}

func GetCourseBySlug(c *fiber.Ctx) error {
	var course model.Course
	if err := database.GetDB().Where("slug = ?", c.Params("slug")).First(&course).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Course not found",
		})
	}

	return c.JSON(course)
}

// GetCourseContent serves the gated course body. Access is enforced by the
// CheckCourseAccess middleware in front of this handler.
func GetCourseContent(c *fiber.Ctx) error {
	var course model.Course
	if err := database.GetDB().First(&course, c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Course not found",
		})
	}

	return c.JSON(fiber.Map{
		"id":      course.ID,
		"title":   course.Title,
		"content": course.Content,
	})
}

// RecordCourseView tekil görüntülenme kaydı oluşturur
func RecordCourseView(c *fiber.Ctx) error {
	courseID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid course ID",
		})
	}

	var course model.Course
	if err := database.GetDB().First(&course, courseID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Course not found",
		})
	}

	view := model.CourseView{
		CourseID:  uint(courseID),
		IP:        c.IP(),
		UserAgent: c.Get("User-Agent"),
		ViewedAt:  time.Now(),
	}

	if err := database.GetDB().Create(&view).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not record view",
		})
	}

	return c.SendStatus(fiber.StatusCreated)
}
