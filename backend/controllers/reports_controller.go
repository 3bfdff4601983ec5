package controllers

import (
	"math"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"lms/backend/config"
	"lms/backend/models"
	"lms/backend/services"
	"lms/backend/utils"
)

// ReportsController serves the admin progress reports: per-student
// aggregates and per-course completion statistics.
type ReportsController struct {
	DB        *gorm.DB
	Cfg       *config.Config
	Hierarchy *services.HierarchyService
	Progress  *services.ProgressService
}

func NewReportsController(db *gorm.DB, cfg *config.Config) *ReportsController {
	return &ReportsController{
		DB:        db,
		Cfg:       cfg,
		Hierarchy: services.NewHierarchyService(db),
		Progress:  services.NewProgressService(db),
	}
}

// GetUsersReport lists every student with enrollment, completion and
// achievement counts, plus their average progress across enrolled courses.
func (rc *ReportsController) GetUsersReport(c *fiber.Ctx) error {
	query := rc.DB.Model(&models.User{}).Where("role = ?", models.RoleStudent)
	if search := c.Query("search"); search != "" {
		query = query.Where("name LIKE ? OR email LIKE ?", "%"+search+"%", "%"+search+"%")
	}

	var users []models.User
	if err := query.Order("name ASC").Find(&users).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	result := make([]fiber.Map, 0, len(users))
	for _, user := range users {
		var enrolledCount int64
		if err := rc.DB.Model(&models.Enrollment{}).Where("user_id = ?", user.ID).Count(&enrolledCount).Error; err != nil {
			return utils.InternalServerError(c, "Could not query database")
		}
		completedCount, err := rc.Progress.CountCompleted(user.ID)
		if err != nil {
			return utils.InternalServerError(c, "Could not query database")
		}
		var achievementCount int64
		if err := rc.DB.Model(&models.UserAchievement{}).Where("user_id = ?", user.ID).Count(&achievementCount).Error; err != nil {
			return utils.InternalServerError(c, "Could not query database")
		}

		avgProgress, err := rc.averageEnrolledProgress(user.ID)
		if err != nil {
			return serviceError(c, err)
		}

		result = append(result, fiber.Map{
			"user_id":           user.ID,
			"name":              user.Name,
			"email":             user.Email,
			"enrolled_courses":  enrolledCount,
			"completed_lessons": completedCount,
			"achievements":      achievementCount,
			"average_progress":  avgProgress,
		})
	}
	return c.JSON(fiber.Map{"users": result})
}

// GetCoursesReport lists every course with enrollment count, lesson count,
// completion-record count and the average completion across enrolled users.
func (rc *ReportsController) GetCoursesReport(c *fiber.Ctx) error {
	var courses []models.Course
	if err := rc.DB.Order("title ASC").Find(&courses).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	result := make([]fiber.Map, 0, len(courses))
	for _, course := range courses {
		lessonIDs, err := rc.Hierarchy.CourseLessonIDs(course.ID)
		if err != nil {
			return serviceError(c, err)
		}

		var enrolledIDs []uint
		err = rc.DB.Model(&models.Enrollment{}).
			Where("course_id = ?", course.ID).
			Pluck("user_id", &enrolledIDs).Error
		if err != nil {
			return utils.InternalServerError(c, "Could not query database")
		}

		var completionCount int64
		if len(lessonIDs) > 0 {
			err = rc.DB.Model(&models.LessonCompletion{}).
				Where("lesson_id IN ?", lessonIDs).
				Count(&completionCount).Error
			if err != nil {
				return utils.InternalServerError(c, "Could not query database")
			}
		}

		// Average completion over enrolled users.
		totalPct := 0.0
		for _, uid := range enrolledIDs {
			completed, err := rc.Progress.CompletedLessonIDs(uid, lessonIDs)
			if err != nil {
				return utils.InternalServerError(c, "Could not query database")
			}
			if len(lessonIDs) > 0 {
				totalPct += float64(len(completed)) / float64(len(lessonIDs)) * 100
			}
		}
		avgCompletion := 0
		if len(enrolledIDs) > 0 {
			avgCompletion = int(math.Round(totalPct / float64(len(enrolledIDs))))
		}

		result = append(result, fiber.Map{
			"course_id":          course.ID,
			"title":              course.Title,
			"status":             course.Status,
			"enrolled_users":     len(enrolledIDs),
			"lesson_count":       len(lessonIDs),
			"completion_count":   completionCount,
			"average_completion": avgCompletion,
		})
	}
	return c.JSON(fiber.Map{"courses": result})
}

// averageEnrolledProgress averages the user's course percentages across
// enrolled courses, 0 with no enrollments.
func (rc *ReportsController) averageEnrolledProgress(userID uint) (int, error) {
	var courseIDs []uint
	err := rc.DB.Model(&models.Enrollment{}).
		Where("user_id = ?", userID).
		Pluck("course_id", &courseIDs).Error
	if err != nil {
		return 0, err
	}
	if len(courseIDs) == 0 {
		return 0, nil
	}

	total := 0.0
	for _, courseID := range courseIDs {
		lessonIDs, err := rc.Hierarchy.CourseLessonIDs(courseID)
		if err != nil {
			return 0, err
		}
		completed, err := rc.Progress.CompletedLessonIDs(userID, lessonIDs)
		if err != nil {
			return 0, err
		}
		if len(lessonIDs) > 0 {
			total += float64(len(completed)) / float64(len(lessonIDs)) * 100
		}
	}
	return int(math.Round(total / float64(len(courseIDs)))), nil
}
