package services

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lms/backend/models"
)

// ProgressService is the completion ledger plus the progress calculator.
// Completion toggles feed the achievement engine synchronously; grants are
// never revoked by toggling back off or by a reset.
type ProgressService struct {
	DB           *gorm.DB
	Hierarchy    *HierarchyService
	Achievements *AchievementEngine
}

func NewProgressService(db *gorm.DB) *ProgressService {
	return &ProgressService{
		DB:           db,
		Hierarchy:    NewHierarchyService(db),
		Achievements: NewAchievementEngine(db),
	}
}

// CourseProgress is the per-course progress snapshot.
type CourseProgress struct {
	TotalLessons       int            `json:"total_lessons"`
	CompletedLessons   int            `json:"completed_lessons"`
	ProgressPercentage int            `json:"progress_percentage"`
	LastAccessedLesson *models.Lesson `json:"last_accessed_lesson"`
}

// LessonStatus is a lesson annotated with the user's completion state.
type LessonStatus struct {
	models.Lesson
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// ModuleProgress is a module annotated with completion counts.
type ModuleProgress struct {
	Module             models.Module  `json:"module"`
	LessonCount        int            `json:"lesson_count"`
	CompletedCount     int            `json:"completed_count"`
	ProgressPercentage int            `json:"progress_percentage"`
	Lessons            []LessonStatus `json:"lessons"`
}

// CourseSummary is one row of the catalog-wide progress summary.
type CourseSummary struct {
	CourseID           uint   `json:"course_id"`
	CourseTitle        string `json:"course_title"`
	TotalLessons       int    `json:"total_lessons"`
	CompletedLessons   int    `json:"completed_lessons"`
	ProgressPercentage int    `json:"progress_percentage"`
}

// ProgressSummary is the whole-catalog view for one user. OverallProgress
// divides the user's completions by every lesson in the system, while
// CourseSummaries only lists courses with at least one completion; the
// mismatch is long-standing observed behavior that clients depend on.
type ProgressSummary struct {
	OverallProgress       int             `json:"overall_progress"`
	TotalCompletedLessons int             `json:"total_completed_lessons"`
	CourseSummaries       []CourseSummary `json:"course_summaries"`
}

// IsComplete reports whether the user has completed the lesson.
func (ps *ProgressService) IsComplete(userID, lessonID uint) (bool, error) {
	var count int64
	err := ps.DB.Model(&models.LessonCompletion{}).
		Where("user_id = ? AND lesson_id = ?", userID, lessonID).
		Count(&count).Error
	return count > 0, err
}

// SetComplete records a completion. Calling it twice leaves exactly one
// record.
func (ps *ProgressService) SetComplete(userID, lessonID uint, at time.Time) error {
	return setComplete(ps.DB, userID, lessonID, at)
}

func setComplete(tx *gorm.DB, userID, lessonID uint, at time.Time) error {
	record := models.LessonCompletion{
		UserID:      userID,
		LessonID:    lessonID,
		CompletedAt: at,
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "lesson_id"}},
		DoNothing: true,
	}).Create(&record).Error
}

// SetIncomplete removes the completion record if present; no-op otherwise.
func (ps *ProgressService) SetIncomplete(userID, lessonID uint) error {
	return ps.DB.
		Where("user_id = ? AND lesson_id = ?", userID, lessonID).
		Delete(&models.LessonCompletion{}).Error
}

// CompletedLessonIDs filters lessonIDs down to the ones the user completed.
func (ps *ProgressService) CompletedLessonIDs(userID uint, lessonIDs []uint) ([]uint, error) {
	if len(lessonIDs) == 0 {
		return nil, nil
	}
	var ids []uint
	err := ps.DB.Model(&models.LessonCompletion{}).
		Where("user_id = ? AND lesson_id IN ?", userID, lessonIDs).
		Pluck("lesson_id", &ids).Error
	return ids, err
}

// CountCompleted returns the user's all-time completed-lesson total.
func (ps *ProgressService) CountCompleted(userID uint) (int64, error) {
	var count int64
	err := ps.DB.Model(&models.LessonCompletion{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

// ToggleLessonCompletion flips the completion state of a lesson for an
// enrolled user. Toggling on evaluates achievements in the same
// transaction and returns whatever was newly unlocked; toggling off leaves
// all grants in place.
func (ps *ProgressService) ToggleLessonCompletion(userID, lessonID uint) (bool, []models.Achievement, error) {
	lesson, module, course, err := ps.Hierarchy.LessonWithOwners(lessonID)
	if err != nil {
		return false, nil, err
	}
	if err := ps.requireEnrollment(userID, course.ID); err != nil {
		return false, nil, err
	}

	completed, err := ps.IsComplete(userID, lessonID)
	if err != nil {
		return false, nil, err
	}

	if completed {
		if err := ps.SetIncomplete(userID, lessonID); err != nil {
			return false, nil, err
		}
		return false, nil, nil
	}

	var unlocked []models.Achievement
	err = ps.DB.Transaction(func(tx *gorm.DB) error {
		if err := setComplete(tx, userID, lessonID, time.Now()); err != nil {
			return err
		}
		unlocked, err = ps.Achievements.EvaluateCompletion(tx, userID, lesson, module, course)
		return err
	})
	if err != nil {
		return false, nil, err
	}
	return true, unlocked, nil
}

// CourseProgress aggregates the ledger against the full lesson set of a
// course. A course with zero lessons reports 0 percent, not an error.
func (ps *ProgressService) CourseProgress(userID, courseID uint) (*CourseProgress, error) {
	if err := ps.requireEnrollment(userID, courseID); err != nil {
		return nil, err
	}

	lessonIDs, err := ps.Hierarchy.CourseLessonIDs(courseID)
	if err != nil {
		return nil, err
	}
	completedIDs, err := ps.CompletedLessonIDs(userID, lessonIDs)
	if err != nil {
		return nil, err
	}

	progress := &CourseProgress{
		TotalLessons:       len(lessonIDs),
		CompletedLessons:   len(completedIDs),
		ProgressPercentage: percentage(len(completedIDs), len(lessonIDs)),
	}

	if len(lessonIDs) > 0 {
		var last models.LessonCompletion
		err := ps.DB.
			Where("user_id = ? AND lesson_id IN ?", userID, lessonIDs).
			Order("updated_at DESC").
			First(&last).Error
		if err == nil {
			var lesson models.Lesson
			if err := ps.DB.First(&lesson, last.LessonID).Error; err == nil {
				progress.LastAccessedLesson = &lesson
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	return progress, nil
}

// CourseProgressBreakdown returns per-module counts and per-lesson
// completion flags for an enrolled user.
func (ps *ProgressService) CourseProgressBreakdown(userID, courseID uint) ([]ModuleProgress, *CourseProgress, error) {
	if err := ps.requireEnrollment(userID, courseID); err != nil {
		return nil, nil, err
	}

	course, err := ps.Hierarchy.CourseContent(courseID)
	if err != nil {
		return nil, nil, err
	}

	var completions []models.LessonCompletion
	if err := ps.DB.Where("user_id = ?", userID).Find(&completions).Error; err != nil {
		return nil, nil, err
	}
	completedAt := make(map[uint]time.Time, len(completions))
	for _, c := range completions {
		completedAt[c.LessonID] = c.CompletedAt
	}

	var (
		modules        []ModuleProgress
		totalLessons   int
		totalCompleted int
	)
	for _, module := range course.Modules {
		mp := ModuleProgress{
			Module:      module,
			LessonCount: len(module.Lessons),
			Lessons:     make([]LessonStatus, 0, len(module.Lessons)),
		}
		mp.Module.Lessons = nil
		for _, lesson := range module.Lessons {
			status := LessonStatus{Lesson: lesson}
			if at, ok := completedAt[lesson.ID]; ok {
				status.Completed = true
				at := at
				status.CompletedAt = &at
				mp.CompletedCount++
			}
			mp.Lessons = append(mp.Lessons, status)
		}
		mp.ProgressPercentage = percentage(mp.CompletedCount, mp.LessonCount)
		totalLessons += mp.LessonCount
		totalCompleted += mp.CompletedCount
		modules = append(modules, mp)
	}

	overall := &CourseProgress{
		TotalLessons:       totalLessons,
		CompletedLessons:   totalCompleted,
		ProgressPercentage: percentage(totalCompleted, totalLessons),
	}
	return modules, overall, nil
}

// UserProgressSummary iterates every course in the catalog and keeps the
// ones the user has touched.
func (ps *ProgressService) UserProgressSummary(userID uint) (*ProgressSummary, error) {
	if err := ps.requireUser(userID); err != nil {
		return nil, err
	}

	var courses []models.Course
	if err := ps.DB.Find(&courses).Error; err != nil {
		return nil, err
	}

	summaries := make([]CourseSummary, 0)
	for _, course := range courses {
		lessonIDs, err := ps.Hierarchy.CourseLessonIDs(course.ID)
		if err != nil {
			return nil, err
		}
		completedIDs, err := ps.CompletedLessonIDs(userID, lessonIDs)
		if err != nil {
			return nil, err
		}
		if len(completedIDs) == 0 {
			continue
		}
		summaries = append(summaries, CourseSummary{
			CourseID:           course.ID,
			CourseTitle:        course.Title,
			TotalLessons:       len(lessonIDs),
			CompletedLessons:   len(completedIDs),
			ProgressPercentage: percentage(len(completedIDs), len(lessonIDs)),
		})
	}

	totalCompleted, err := ps.CountCompleted(userID)
	if err != nil {
		return nil, err
	}
	var totalLessons int64
	if err := ps.DB.Model(&models.Lesson{}).Count(&totalLessons).Error; err != nil {
		return nil, err
	}

	return &ProgressSummary{
		OverallProgress:       percentage(int(totalCompleted), int(totalLessons)),
		TotalCompletedLessons: int(totalCompleted),
		CourseSummaries:       summaries,
	}, nil
}

// ResetProgress deletes the user's completion records scoped to one
// course. Achievements already granted stay granted.
func (ps *ProgressService) ResetProgress(userID, courseID uint) error {
	if err := ps.requireUser(userID); err != nil {
		return err
	}
	lessonIDs, err := ps.Hierarchy.CourseLessonIDs(courseID)
	if err != nil {
		return err
	}
	if len(lessonIDs) == 0 {
		return nil
	}
	return ps.DB.
		Where("user_id = ? AND lesson_id IN ?", userID, lessonIDs).
		Delete(&models.LessonCompletion{}).Error
}

// IsEnrolled reports whether the user holds an enrollment for the course.
func (ps *ProgressService) IsEnrolled(userID, courseID uint) (bool, error) {
	var count int64
	err := ps.DB.Model(&models.Enrollment{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Count(&count).Error
	return count > 0, err
}

func (ps *ProgressService) requireEnrollment(userID, courseID uint) error {
	enrolled, err := ps.IsEnrolled(userID, courseID)
	if err != nil {
		return err
	}
	if !enrolled {
		return fmt.Errorf("user %d, course %d: %w", userID, courseID, ErrNotEnrolled)
	}
	return nil
}

func (ps *ProgressService) requireUser(userID uint) error {
	var count int64
	if err := ps.DB.Model(&models.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	return nil
}

// percentage rounds half up and never divides by zero.
func percentage(completed, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}
