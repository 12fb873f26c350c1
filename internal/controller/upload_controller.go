package controller

import (
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"coursehub_backend/internal/model"
	"coursehub_backend/pkg/database"
	"coursehub_backend/pkg/utils/cloudflare"
	"coursehub_backend/pkg/utils/image"
	"coursehub_backend/pkg/utils/validation"
)

// UploadCourseImage validates, re-encodes and stores a cover image on R2,
// then points the course at the resulting CDN URL.
func UploadCourseImage(c *fiber.Ctx) error {
	courseIDStr := c.Params("id")
	courseID, err := strconv.ParseUint(courseIDStr, 10, 32)
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

	file, err := c.FormFile("image")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No file uploaded",
		})
	}

	if err := validation.ValidateImage(file); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	processed, contentType, err := image.ProcessImage(file)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Could not process image",
		})
	}

	result, err := cloudflare.UploadImage(cloudflare.UploadImageConfig{
		Body:        processed,
		ContentType: contentType,
		CourseSlug:  course.Slug,
		Filename:    file.Filename,
	})
	if err != nil {
		log.Printf("Could not upload course image: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not upload image",
		})
	}

	oldURL := course.ImageURL
	if err := database.GetDB().Model(&course).Update("image_url", result.URL).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not save image URL",
		})
	}

	if oldURL != "" {
		if err := cloudflare.DeleteImage(oldURL); err != nil {
			log.Printf("Could not delete previous image: %v", err)
		}
	}

	return c.JSON(fiber.Map{
		"message":   "Image uploaded successfully",
		"image_url": result.URL,
	})
}
