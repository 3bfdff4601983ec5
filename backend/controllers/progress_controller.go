package controllers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"lms/backend/config"
	"lms/backend/services"
	"lms/backend/utils"
)

type ProgressController struct {
	DB       *gorm.DB
	Cfg      *config.Config
	Progress *services.ProgressService
}

func NewProgressController(db *gorm.DB, cfg *config.Config) *ProgressController {
	return &ProgressController{
		DB:       db,
		Cfg:      cfg,
		Progress: services.NewProgressService(db),
	}
}

// GetCourseProgress godoc
// @Summary Get course progress
// @Description Returns the user's progress snapshot for one course
// @Tags progress
// @Produce json
// @Success 200 {object} services.CourseProgress
// @Failure 403 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /progress/courses/{id} [get]
func (pc *ProgressController) GetCourseProgress(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, pc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}
	courseID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}

	progress, err := pc.Progress.CourseProgress(userID, courseID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(progress)
}

// GetSummary godoc
// @Summary Get progress summary
// @Description Returns the user's progress across the whole catalog
// @Tags progress
// @Produce json
// @Success 200 {object} services.ProgressSummary
// @Security ApiKeyAuth
// @Router /progress/summary [get]
func (pc *ProgressController) GetSummary(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, pc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	summary, err := pc.Progress.UserProgressSummary(userID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(summary)
}

// ToggleLessonCompletion flips a lesson's completion state and reports any
// achievements the toggle unlocked.
func (pc *ProgressController) ToggleLessonCompletion(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, pc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}
	lessonID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}

	completed, unlocked, err := pc.Progress.ToggleLessonCompletion(userID, lessonID)
	if err != nil {
		return serviceError(c, err)
	}

	unlockedIDs := make([]uint, 0, len(unlocked))
	for _, a := range unlocked {
		unlockedIDs = append(unlockedIDs, a.ID)
	}
	return c.JSON(fiber.Map{
		"completed":       completed,
		"newly_unlocked":  unlockedIDs,
		"unlocked_detail": unlocked,
	})
}

// ResetProgress (admin) wipes a user's completions in one course. Grants
// stay, by design.
func (pc *ProgressController) ResetProgress(c *fiber.Ctx) error {
	type resetInput struct {
		UserID   uint `json:"user_id" validate:"required"`
		CourseID uint `json:"course_id" validate:"required"`
	}
	var input resetInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if fields := utils.ValidateStruct(input); fields != nil {
		return utils.ValidationError(c, fields)
	}

	if err := pc.Progress.ResetProgress(input.UserID, input.CourseID); err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"reset": true})
}
