package models

import (
	"time"

	"gorm.io/gorm"
)

type CourseStatus string

const (
	CourseDraft     CourseStatus = "draft"
	CoursePublished CourseStatus = "published"
)

type Category struct {
	gorm.Model
	Name string `gorm:"unique;not null"`
}

type Course struct {
	gorm.Model
	Title       string `gorm:"not null"`
	Description string
	CategoryID  *uint
	Category    *Category
	Status      CourseStatus `gorm:"default:draft"`
	Modules     []Module
}

// Module groups lessons inside a course. SequenceOrder values within one
// course are always exactly 1..N (see services/ordering.go).
type Module struct {
	gorm.Model
	CourseID      uint   `gorm:"index;not null"`
	Name          string `gorm:"not null"`
	SequenceOrder int    `gorm:"index"`
	Lessons       []Lesson
}

// Lesson is the unit of completion tracking. SequenceOrder follows the same
// density rule within its module.
type Lesson struct {
	gorm.Model
	ModuleID      uint   `gorm:"index;not null"`
	Title         string `gorm:"not null"`
	Content       string
	VideoURL      string
	SequenceOrder int `gorm:"index"`
}

// Enrollment gates every progress operation: no row, no access. No soft
// delete so a user can unenroll and re-enroll.
type Enrollment struct {
	ID        uint `gorm:"primarykey"`
	UserID    uint `gorm:"uniqueIndex:idx_enrollment_pair;not null"`
	CourseID  uint `gorm:"uniqueIndex:idx_enrollment_pair;not null"`
	CreatedAt time.Time
}
