package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"lms/backend/config"
	"lms/backend/models"
	"lms/backend/services"
	"lms/backend/utils"
)

type LessonsController struct {
	DB         *gorm.DB
	Cfg        *config.Config
	Ordering   *services.OrderingService
	Navigation *services.NavigationService
	Progress   *services.ProgressService
}

func NewLessonsController(db *gorm.DB, cfg *config.Config) *LessonsController {
	return &LessonsController{
		DB:         db,
		Cfg:        cfg,
		Ordering:   services.NewOrderingService(db),
		Navigation: services.NewNavigationService(db),
		Progress:   services.NewProgressService(db),
	}
}

// GetNavigation returns the previous and next lessons, crossing module
// boundaries when the lesson sits at a module edge. Draft course content is
// only served to staff and still-enrolled users.
func (lc *LessonsController) GetNavigation(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, lc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}
	lessonID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}

	_, _, course, err := lc.Navigation.Hierarchy.LessonWithOwners(lessonID)
	if err != nil {
		return serviceError(c, err)
	}
	allowed, err := canViewCourseContent(lc.DB, lc.Progress, userID, course)
	if err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}
	if !allowed {
		return utils.Forbidden(c, "Course is not published")
	}

	previous, next, err := lc.Navigation.LessonNavigation(lessonID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{
		"previous": previous,
		"next":     next,
	})
}

type lessonInput struct {
	Title         string `json:"title" validate:"required"`
	Content       string `json:"content"`
	VideoURL      string `json:"video_url" validate:"omitempty,url"`
	SequenceOrder int    `json:"sequence_order" validate:"omitempty,min=1"`
}

func (lc *LessonsController) CreateLesson(c *fiber.Ctx) error {
	moduleID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}

	var input lessonInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if fields := utils.ValidateStruct(input); fields != nil {
		return utils.ValidationError(c, fields)
	}

	var module models.Module
	if err := lc.DB.First(&module, moduleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Module not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	lesson := models.Lesson{
		ModuleID:      moduleID,
		Title:         input.Title,
		Content:       input.Content,
		VideoURL:      input.VideoURL,
		SequenceOrder: input.SequenceOrder,
	}
	if err := lc.Ordering.InsertLesson(&lesson); err != nil {
		return serviceError(c, err)
	}
	return utils.Created(c, lesson)
}

func (lc *LessonsController) UpdateLesson(c *fiber.Ctx) error {
	lessonID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}

	var input lessonInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if fields := utils.ValidateStruct(input); fields != nil {
		return utils.ValidationError(c, fields)
	}

	var lesson models.Lesson
	if err := lc.DB.First(&lesson, lessonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Lesson not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	lesson.Title = input.Title
	lesson.Content = input.Content
	lesson.VideoURL = input.VideoURL
	if err := lc.DB.Save(&lesson).Error; err != nil {
		return utils.InternalServerError(c, "Could not update lesson")
	}

	if input.SequenceOrder > 0 && input.SequenceOrder != lesson.SequenceOrder {
		if err := lc.Ordering.ReorderLesson(lesson.ID, input.SequenceOrder); err != nil {
			return serviceError(c, err)
		}
		lesson.SequenceOrder = input.SequenceOrder
	}
	return utils.Success(c, fiber.StatusOK, lesson)
}

func (lc *LessonsController) DeleteLesson(c *fiber.Ctx) error {
	lessonID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}
	if err := lc.Ordering.DeleteLesson(lessonID); err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"deleted": true})
}

// ReorderLessons applies a batch reorder across all lessons of a module.
func (lc *LessonsController) ReorderLessons(c *fiber.Ctx) error {
	moduleID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}

	type reorderInput struct {
		Lessons []struct {
			ID            uint `json:"id" validate:"required"`
			SequenceOrder int  `json:"sequence_order" validate:"required,min=1"`
		} `json:"lessons" validate:"required,min=1,dive"`
	}
	var input reorderInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if fields := utils.ValidateStruct(input); fields != nil {
		return utils.ValidationError(c, fields)
	}

	updates := make([]services.OrderUpdate, 0, len(input.Lessons))
	for _, l := range input.Lessons {
		updates = append(updates, services.OrderUpdate{ID: l.ID, NewOrder: l.SequenceOrder})
	}
	if err := lc.Ordering.ReorderLessons(moduleID, updates); err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"reordered": true})
}
