package models

import (
	"time"

	"gorm.io/gorm"
)

type AchievementType string

const (
	AchievementCourseCompletion AchievementType = "course_completion"
	AchievementModuleCompletion AchievementType = "module_completion"
	AchievementFirstLesson      AchievementType = "first_lesson"
	AchievementLessonCount      AchievementType = "lesson_count"
)

type Achievement struct {
	gorm.Model
	Name        string `gorm:"not null"`
	Description string
	Type        AchievementType `gorm:"index;not null"`
	CourseID    *uint           `gorm:"index"`
	ModuleID    *uint           `gorm:"index"`
	// ConditionValue is only read for lesson_count achievements.
	ConditionValue int
	Points         int
}

// UserAchievement grants are monotonic: toggling a lesson back to
// incomplete never deletes a row here. At most one row per pair; the unique
// index plus insert-or-ignore keeps that true under concurrent toggles.
type UserAchievement struct {
	ID            uint `gorm:"primarykey"`
	UserID        uint `gorm:"uniqueIndex:idx_grant_pair;not null"`
	AchievementID uint `gorm:"uniqueIndex:idx_grant_pair;not null"`
	AwardedAt     time.Time
	CreatedAt     time.Time
}
