package controllers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"lms/backend/config"
	"lms/backend/models"
	"lms/backend/utils"
)

type UsersController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewUsersController(db *gorm.DB, cfg *config.Config) *UsersController {
	return &UsersController{DB: db, Cfg: cfg}
}

func (uc *UsersController) GetProfile(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, uc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var user models.User
	if err := uc.DB.Preload("StudentData").Preload("ProfessorData").First(&user, userID).Error; err != nil {
		return utils.NotFound(c, "User not found")
	}

	profile := fiber.Map{
		"id":    user.ID,
		"name":  user.Name,
		"email": user.Email,
		"role":  user.Role,
	}
	switch user.Role {
	case models.RoleStudent:
		if user.StudentData != nil {
			profile["student_data"] = fiber.Map{
				"group":           user.StudentData.Group,
				"enrollment_year": user.StudentData.EnrollmentYear,
			}
		}
	case models.RoleProfessor:
		if user.ProfessorData != nil {
			profile["professor_data"] = fiber.Map{
				"department": user.ProfessorData.Department,
				"title":      user.ProfessorData.Title,
			}
		}
	}

	return c.JSON(profile)
}

func (uc *UsersController) UpdateProfile(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, uc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	type ProfileInput struct {
		Name           string `json:"name" validate:"omitempty,min=1"`
		Group          string `json:"group"`
		EnrollmentYear int    `json:"enrollment_year"`
		Department     string `json:"department"`
		Title          string `json:"title"`
	}

	var input ProfileInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if fields := utils.ValidateStruct(input); fields != nil {
		return utils.ValidationError(c, fields)
	}

	var user models.User
	if err := uc.DB.First(&user, userID).Error; err != nil {
		return utils.NotFound(c, "User not found")
	}

	if input.Name != "" {
		user.Name = input.Name
	}
	if err := uc.DB.Save(&user).Error; err != nil {
		return utils.InternalServerError(c, "Could not update profile")
	}

	// Role payloads are updated on their own row.
	switch user.Role {
	case models.RoleStudent:
		uc.DB.Model(&models.StudentData{}).Where("user_id = ?", userID).
			Updates(map[string]interface{}{"group": input.Group, "enrollment_year": input.EnrollmentYear})
	case models.RoleProfessor:
		uc.DB.Model(&models.ProfessorData{}).Where("user_id = ?", userID).
			Updates(map[string]interface{}{"department": input.Department, "title": input.Title})
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"id": user.ID, "name": user.Name})
}
