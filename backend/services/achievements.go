package services

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lms/backend/models"
)

// milestoneCounts are the all-time completed-lesson totals that unlock a
// lesson_count achievement. Checked with equality, not >=, so a milestone
// crossed while the achievement row did not exist yet stays locked.
var milestoneCounts = []int{5, 10, 25, 50, 100}

// AchievementEngine evaluates unlock rules after a lesson is marked
// complete. A missing achievement row is a normal nothing-to-unlock
// outcome, never an error.
type AchievementEngine struct {
	DB *gorm.DB
}

func NewAchievementEngine(db *gorm.DB) *AchievementEngine {
	return &AchievementEngine{DB: db}
}

// EvaluateCompletion runs the unlock rules in fixed order against the
// already-updated completion ledger and returns the achievements granted by
// this call. tx must be the transaction that recorded the completion.
func (ae *AchievementEngine) EvaluateCompletion(tx *gorm.DB, userID uint, lesson *models.Lesson, module *models.Module, course *models.Course) ([]models.Achievement, error) {
	var unlocked []models.Achievement

	// 1. Course completion.
	courseLessonIDs, err := lessonIDsForCourse(tx, course.ID)
	if err != nil {
		return nil, err
	}
	courseCompleted, err := completedCountIn(tx, userID, courseLessonIDs)
	if err != nil {
		return nil, err
	}
	if len(courseLessonIDs) > 0 && courseCompleted >= int64(len(courseLessonIDs)) {
		granted, err := ae.grantMatching(tx, userID,
			tx.Where("type = ? AND course_id = ?", models.AchievementCourseCompletion, course.ID))
		if err != nil {
			return nil, err
		}
		unlocked = append(unlocked, granted...)
	}

	// 2. Module completion.
	moduleLessonIDs, err := lessonIDsForModule(tx, module.ID)
	if err != nil {
		return nil, err
	}
	moduleCompleted, err := completedCountIn(tx, userID, moduleLessonIDs)
	if err != nil {
		return nil, err
	}
	if len(moduleLessonIDs) > 0 && moduleCompleted >= int64(len(moduleLessonIDs)) {
		granted, err := ae.grantMatching(tx, userID,
			tx.Where("type = ? AND module_id = ?", models.AchievementModuleCompletion, module.ID))
		if err != nil {
			return nil, err
		}
		unlocked = append(unlocked, granted...)
	}

	// 3 and 4 share the user's all-time total.
	var allTime int64
	if err := tx.Model(&models.LessonCompletion{}).Where("user_id = ?", userID).Count(&allTime).Error; err != nil {
		return nil, err
	}

	// 3. First lesson ever.
	if allTime == 1 {
		granted, err := ae.grantMatching(tx, userID,
			tx.Where("type = ? AND course_id IS NULL", models.AchievementFirstLesson))
		if err != nil {
			return nil, err
		}
		unlocked = append(unlocked, granted...)
	}

	// 4. Lesson-count milestones.
	for _, count := range milestoneCounts {
		if allTime != int64(count) {
			continue
		}
		granted, err := ae.grantMatching(tx, userID,
			tx.Where("type = ? AND condition_value = ?", models.AchievementLessonCount, count))
		if err != nil {
			return nil, err
		}
		unlocked = append(unlocked, granted...)
	}

	return unlocked, nil
}

// grantMatching finds the first achievement matching cond and grants it to
// the user. The insert ignores conflicts on the (user, achievement) pair so
// re-evaluation never duplicates a grant.
func (ae *AchievementEngine) grantMatching(tx *gorm.DB, userID uint, cond *gorm.DB) ([]models.Achievement, error) {
	var achievement models.Achievement
	if err := cond.First(&achievement).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // nothing to unlock
		}
		return nil, err
	}

	grant := models.UserAchievement{
		UserID:        userID,
		AchievementID: achievement.ID,
		AwardedAt:     time.Now(),
	}
	res := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "achievement_id"}},
		DoNothing: true,
	}).Create(&grant)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil // already held
	}
	return []models.Achievement{achievement}, nil
}

func lessonIDsForCourse(tx *gorm.DB, courseID uint) ([]uint, error) {
	var ids []uint
	err := tx.Model(&models.Lesson{}).
		Joins("JOIN modules ON modules.id = lessons.module_id").
		Where("modules.course_id = ? AND modules.deleted_at IS NULL", courseID).
		Pluck("lessons.id", &ids).Error
	return ids, err
}

func lessonIDsForModule(tx *gorm.DB, moduleID uint) ([]uint, error) {
	var ids []uint
	err := tx.Model(&models.Lesson{}).Where("module_id = ?", moduleID).Pluck("id", &ids).Error
	return ids, err
}

func completedCountIn(tx *gorm.DB, userID uint, lessonIDs []uint) (int64, error) {
	if len(lessonIDs) == 0 {
		return 0, nil
	}
	var count int64
	err := tx.Model(&models.LessonCompletion{}).
		Where("user_id = ? AND lesson_id IN ?", userID, lessonIDs).
		Count(&count).Error
	return count, err
}
