package middleware

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"lms/backend/config"
	"lms/backend/models"
	"lms/backend/utils"
)

func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := utils.ExtractUserIDFromToken(c, cfg)
		if err != nil {
			return utils.Unauthorized(c, "Unauthorized")
		}
		c.Locals("userID", userID)
		return c.Next()
	}
}

// RequireRole loads the authenticated user and rejects the request unless
// their role is in the allowed set.
func RequireRole(db *gorm.DB, cfg *config.Config, roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := utils.ExtractUserIDFromToken(c, cfg)
		if err != nil {
			return utils.Unauthorized(c, "Unauthorized")
		}

		var user models.User
		if err := db.First(&user, userID).Error; err != nil {
			return utils.Unauthorized(c, "Unauthorized")
		}

		for _, role := range roles {
			if user.Role == role {
				c.Locals("userID", userID)
				return c.Next()
			}
		}
		return utils.Forbidden(c, "Insufficient permissions")
	}
}

func AdminMiddleware(db *gorm.DB, cfg *config.Config) fiber.Handler {
	return RequireRole(db, cfg, models.RoleAdmin)
}

// StaffMiddleware admits professors and admins (course management).
func StaffMiddleware(db *gorm.DB, cfg *config.Config) fiber.Handler {
	return RequireRole(db, cfg, models.RoleProfessor, models.RoleAdmin)
}
