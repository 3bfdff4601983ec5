package models

import "time"

// LessonCompletion existence means the lesson is complete for the user.
// The unique pair index backs the insert-or-ignore idempotence of the
// completion toggle. No soft delete: toggling off must free the pair for a
// later re-insert.
type LessonCompletion struct {
	ID          uint `gorm:"primarykey"`
	UserID      uint `gorm:"uniqueIndex:idx_completion_pair;not null"`
	LessonID    uint `gorm:"uniqueIndex:idx_completion_pair;not null"`
	CompletedAt time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
