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

type ModulesController struct {
	DB         *gorm.DB
	Cfg        *config.Config
	Ordering   *services.OrderingService
	Navigation *services.NavigationService
	Progress   *services.ProgressService
}

func NewModulesController(db *gorm.DB, cfg *config.Config) *ModulesController {
	return &ModulesController{
		DB:         db,
		Cfg:        cfg,
		Ordering:   services.NewOrderingService(db),
		Navigation: services.NewNavigationService(db),
		Progress:   services.NewProgressService(db),
	}
}

// GetNavigation returns the previous and next modules within the course;
// either side is null at a course edge. Draft course content is only served
// to staff and still-enrolled users.
func (mc *ModulesController) GetNavigation(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, mc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}
	moduleID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}

	_, course, err := mc.Navigation.Hierarchy.ModuleWithCourse(moduleID)
	if err != nil {
		return serviceError(c, err)
	}
	allowed, err := canViewCourseContent(mc.DB, mc.Progress, userID, course)
	if err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}
	if !allowed {
		return utils.Forbidden(c, "Course is not published")
	}

	previous, next, err := mc.Navigation.ModuleNavigation(moduleID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{
		"previous": previous,
		"next":     next,
	})
}

type moduleInput struct {
	Name          string `json:"name" validate:"required"`
	SequenceOrder int    `json:"sequence_order" validate:"omitempty,min=1"`
}

// CreateModule inserts a module into the course, honoring the requested
// order by shifting the tail; without one it appends.
func (mc *ModulesController) CreateModule(c *fiber.Ctx) error {
	courseID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}

	var input moduleInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if fields := utils.ValidateStruct(input); fields != nil {
		return utils.ValidationError(c, fields)
	}

	var course models.Course
	if err := mc.DB.First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Course not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	module := models.Module{
		CourseID:      courseID,
		Name:          input.Name,
		SequenceOrder: input.SequenceOrder,
	}
	if err := mc.Ordering.InsertModule(&module); err != nil {
		return serviceError(c, err)
	}
	return utils.Created(c, module)
}

func (mc *ModulesController) UpdateModule(c *fiber.Ctx) error {
	moduleID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}

	var input moduleInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if fields := utils.ValidateStruct(input); fields != nil {
		return utils.ValidationError(c, fields)
	}

	var module models.Module
	if err := mc.DB.First(&module, moduleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Module not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	module.Name = input.Name
	if err := mc.DB.Save(&module).Error; err != nil {
		return utils.InternalServerError(c, "Could not update module")
	}

	// An order change goes through the shifting reorder, never a raw write.
	if input.SequenceOrder > 0 && input.SequenceOrder != module.SequenceOrder {
		if err := mc.Ordering.ReorderModule(module.ID, input.SequenceOrder); err != nil {
			return serviceError(c, err)
		}
		module.SequenceOrder = input.SequenceOrder
	}
	return utils.Success(c, fiber.StatusOK, module)
}

func (mc *ModulesController) DeleteModule(c *fiber.Ctx) error {
	moduleID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}
	if err := mc.Ordering.DeleteModule(moduleID); err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"deleted": true})
}

// ReorderModules applies a batch reorder across all modules of a course.
func (mc *ModulesController) ReorderModules(c *fiber.Ctx) error {
	courseID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}

	type reorderInput struct {
		Modules []struct {
			ID            uint `json:"id" validate:"required"`
			SequenceOrder int  `json:"sequence_order" validate:"required,min=1"`
		} `json:"modules" validate:"required,min=1,dive"`
	}
	var input reorderInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if fields := utils.ValidateStruct(input); fields != nil {
		return utils.ValidationError(c, fields)
	}

	updates := make([]services.OrderUpdate, 0, len(input.Modules))
	for _, m := range input.Modules {
		updates = append(updates, services.OrderUpdate{ID: m.ID, NewOrder: m.SequenceOrder})
	}
	if err := mc.Ordering.ReorderModules(courseID, updates); err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"reordered": true})
}
