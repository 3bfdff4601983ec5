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

type CoursesController struct {
	DB        *gorm.DB
	Cfg       *config.Config
	Hierarchy *services.HierarchyService
	Progress  *services.ProgressService
}

func NewCoursesController(db *gorm.DB, cfg *config.Config) *CoursesController {
	return &CoursesController{
		DB:        db,
		Cfg:       cfg,
		Hierarchy: services.NewHierarchyService(db),
		Progress:  services.NewProgressService(db),
	}
}

// ListCourses returns the published catalog, optionally filtered by
// category or a title search. Admins may pass status=draft|published to see
// unpublished courses.
func (cc *CoursesController) ListCourses(c *fiber.Ctx) error {
	query := cc.DB.Model(&models.Course{}).Preload("Category")

	status := models.CoursePublished
	if requested := c.Query("status"); requested != "" && cc.isAdmin(c) {
		status = models.CourseStatus(requested)
	}
	query = query.Where("status = ?", status)

	if categoryID := c.QueryInt("category_id"); categoryID > 0 {
		query = query.Where("category_id = ?", categoryID)
	}
	if search := c.Query("search"); search != "" {
		query = query.Where("title LIKE ?", "%"+search+"%")
	}

	var courses []models.Course
	if err := query.Order("title ASC").Find(&courses).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}
	return c.JSON(fiber.Map{"courses": courses})
}

func (cc *CoursesController) isAdmin(c *fiber.Ctx) bool {
	userID, err := utils.ExtractUserIDFromToken(c, cc.Cfg)
	if err != nil {
		return false
	}
	var user models.User
	if err := cc.DB.First(&user, userID).Error; err != nil {
		return false
	}
	return user.IsAdmin()
}

// GetEnrolledCourses lists the user's enrollments with progress snapshots.
func (cc *CoursesController) GetEnrolledCourses(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, cc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var courses []models.Course
	err = cc.DB.
		Joins("JOIN enrollments ON enrollments.course_id = courses.id").
		Where("enrollments.user_id = ?", userID).
		Order("courses.title ASC").
		Find(&courses).Error
	if err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	result := make([]fiber.Map, 0, len(courses))
	for _, course := range courses {
		progress, err := cc.Progress.CourseProgress(userID, course.ID)
		if err != nil {
			return serviceError(c, err)
		}
		result = append(result, fiber.Map{
			"id":                  course.ID,
			"title":               course.Title,
			"description":         course.Description,
			"total_lessons":       progress.TotalLessons,
			"completed_lessons":   progress.CompletedLessons,
			"progress_percentage": progress.ProgressPercentage,
		})
	}
	return c.JSON(fiber.Map{"courses": result})
}

// GetCourseDetails returns the full content tree. Enrolled users also get
// the per-module progress breakdown. Drafts are only visible to staff and
// still-enrolled users.
func (cc *CoursesController) GetCourseDetails(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, cc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}
	courseID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}

	course, err := cc.Hierarchy.CourseContent(courseID)
	if err != nil {
		return serviceError(c, err)
	}

	allowed, err := canViewCourseContent(cc.DB, cc.Progress, userID, course)
	if err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}
	if !allowed {
		return utils.Forbidden(c, "Course is not published")
	}

	enrolled, err := cc.Progress.IsEnrolled(userID, courseID)
	if err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	response := fiber.Map{
		"course":   course,
		"enrolled": enrolled,
	}
	if enrolled {
		modules, overall, err := cc.Progress.CourseProgressBreakdown(userID, courseID)
		if err != nil {
			return serviceError(c, err)
		}
		response["modules"] = modules
		response["progress"] = overall
	}
	return c.JSON(response)
}

func (cc *CoursesController) Enroll(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, cc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}
	courseID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}

	var course models.Course
	if err := cc.DB.First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Course not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}
	if course.Status != models.CoursePublished {
		return utils.Forbidden(c, "Course is not published")
	}

	enrolled, err := cc.Progress.IsEnrolled(userID, courseID)
	if err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}
	if enrolled {
		return utils.Success(c, fiber.StatusOK, fiber.Map{"enrolled": true})
	}

	enrollment := models.Enrollment{UserID: userID, CourseID: courseID}
	if err := cc.DB.Create(&enrollment).Error; err != nil {
		return utils.InternalServerError(c, "Could not enroll")
	}
	return utils.Created(c, fiber.Map{"enrolled": true})
}

func (cc *CoursesController) Unenroll(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, cc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}
	courseID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}

	err = cc.DB.Where("user_id = ? AND course_id = ?", userID, courseID).
		Delete(&models.Enrollment{}).Error
	if err != nil {
		return utils.InternalServerError(c, "Could not unenroll")
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"enrolled": false})
}

type courseInput struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	CategoryID  *uint  `json:"category_id"`
	Status      string `json:"status" validate:"omitempty,oneof=draft published"`
}

func (cc *CoursesController) CreateCourse(c *fiber.Ctx) error {
	var input courseInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if fields := utils.ValidateStruct(input); fields != nil {
		return utils.ValidationError(c, fields)
	}

	course := models.Course{
		Title:       input.Title,
		Description: input.Description,
		CategoryID:  input.CategoryID,
		Status:      models.CourseDraft,
	}
	if input.Status != "" {
		course.Status = models.CourseStatus(input.Status)
	}
	if err := cc.DB.Create(&course).Error; err != nil {
		return utils.InternalServerError(c, "Could not create course")
	}
	return utils.Created(c, course)
}

func (cc *CoursesController) UpdateCourse(c *fiber.Ctx) error {
	courseID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}

	var input courseInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if fields := utils.ValidateStruct(input); fields != nil {
		return utils.ValidationError(c, fields)
	}

	var course models.Course
	if err := cc.DB.First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Course not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	course.Title = input.Title
	course.Description = input.Description
	course.CategoryID = input.CategoryID
	if input.Status != "" {
		course.Status = models.CourseStatus(input.Status)
	}
	if err := cc.DB.Save(&course).Error; err != nil {
		return utils.InternalServerError(c, "Could not update course")
	}
	return utils.Success(c, fiber.StatusOK, course)
}

func (cc *CoursesController) DeleteCourse(c *fiber.Ctx) error {
	courseID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}

	var course models.Course
	if err := cc.DB.First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Course not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}
	if err := cc.DB.Delete(&course).Error; err != nil {
		return utils.InternalServerError(c, "Could not delete course")
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"deleted": true})
}

func (cc *CoursesController) ListCategories(c *fiber.Ctx) error {
	var categories []models.Category
	if err := cc.DB.Order("name ASC").Find(&categories).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}
	return c.JSON(fiber.Map{"categories": categories})
}

func (cc *CoursesController) CreateCategory(c *fiber.Ctx) error {
	type categoryInput struct {
		Name string `json:"name" validate:"required"`
	}
	var input categoryInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if fields := utils.ValidateStruct(input); fields != nil {
		return utils.ValidationError(c, fields)
	}

	category := models.Category{Name: input.Name}
	if err := cc.DB.Create(&category).Error; err != nil {
		return utils.BadRequest(c, "Could not create category")
	}
	return utils.Created(c, category)
}
