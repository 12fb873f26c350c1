package middleware

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"coursehub_backend/internal/store"
	"coursehub_backend/pkg/utils/jwt"
)

var accessStore *store.Store

func InitAccessMiddleware(s *store.Store) {
	accessStore = s
}

// CheckCourseAccess lets a request through when the user bought the course
// or holds an active subscription.
func CheckCourseAccess() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := c.Locals("user").(*jwt.Claims)

		courseID, err := strconv.ParseUint(c.Params("id"), 10, 32)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid course ID",
			})
		}

		ok, err := accessStore.HasCourseAccess(claims.UserID, uint(courseID))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Could not check course access",
			})
		}

		if !ok {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Purchase this course or subscribe to access its content",
			})
		}

		return c.Next()
	}
}
