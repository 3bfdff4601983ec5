package controllers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"lms/backend/models"
	"lms/backend/services"
	"lms/backend/utils"
)

// serviceError maps the service error taxonomy onto HTTP statuses.
func serviceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return utils.NotFound(c, err.Error())
	case errors.Is(err, services.ErrNotEnrolled):
		return utils.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrInvalidOrder):
		return utils.UnprocessableEntity(c, err.Error())
	default:
		return utils.InternalServerError(c, "Could not query database")
	}
}

// canViewCourseContent reports whether the user may read the course's
// content. Published courses are open to every authenticated user; draft
// courses only to staff and to users still holding an enrollment.
func canViewCourseContent(db *gorm.DB, progress *services.ProgressService, userID uint, course *models.Course) (bool, error) {
	if course.Status == models.CoursePublished {
		return true, nil
	}
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		return false, err
	}
	if user.IsAdmin() || user.IsProfessor() {
		return true, nil
	}
	return progress.IsEnrolled(userID, course.ID)
}

func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.Atoi(c.Params(name))
	if err != nil || id < 1 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid "+name)
	}
	return uint(id), nil
}
