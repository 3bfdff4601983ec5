package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"lms/backend/models"
)

// HierarchyService is the read-only view of the course -> module -> lesson
// tree. It never mutates order.
type HierarchyService struct {
	DB *gorm.DB
}

func NewHierarchyService(db *gorm.DB) *HierarchyService {
	return &HierarchyService{DB: db}
}

// CourseContent loads a course with its modules and lessons in sequence
// order. A course with zero modules (or a module with zero lessons) is
// returned with empty slices.
func (hs *HierarchyService) CourseContent(courseID uint) (*models.Course, error) {
	var course models.Course
	err := hs.DB.
		Preload("Modules", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence_order ASC")
		}).
		Preload("Modules.Lessons", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence_order ASC")
		}).
		First(&course, courseID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("course %d: %w", courseID, ErrNotFound)
		}
		return nil, err
	}
	return &course, nil
}

// ModuleWithCourse loads a module together with its owning course.
func (hs *HierarchyService) ModuleWithCourse(moduleID uint) (*models.Module, *models.Course, error) {
	var module models.Module
	err := hs.DB.
		Preload("Lessons", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence_order ASC")
		}).
		First(&module, moduleID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("module %d: %w", moduleID, ErrNotFound)
		}
		return nil, nil, err
	}

	var course models.Course
	if err := hs.DB.First(&course, module.CourseID).Error; err != nil {
		return nil, nil, err
	}
	return &module, &course, nil
}

// LessonWithOwners resolves the full ancestor chain of a lesson.
func (hs *HierarchyService) LessonWithOwners(lessonID uint) (*models.Lesson, *models.Module, *models.Course, error) {
	var lesson models.Lesson
	if err := hs.DB.First(&lesson, lessonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil, fmt.Errorf("lesson %d: %w", lessonID, ErrNotFound)
		}
		return nil, nil, nil, err
	}

	var module models.Module
	if err := hs.DB.First(&module, lesson.ModuleID).Error; err != nil {
		return nil, nil, nil, err
	}
	var course models.Course
	if err := hs.DB.First(&course, module.CourseID).Error; err != nil {
		return nil, nil, nil, err
	}
	return &lesson, &module, &course, nil
}

// CourseLessonIDs returns the ids of every lesson in the course.
func (hs *HierarchyService) CourseLessonIDs(courseID uint) ([]uint, error) {
	if err := hs.courseExists(courseID); err != nil {
		return nil, err
	}
	var ids []uint
	err := hs.DB.Model(&models.Lesson{}).
		Joins("JOIN modules ON modules.id = lessons.module_id").
		Where("modules.course_id = ? AND modules.deleted_at IS NULL", courseID).
		Pluck("lessons.id", &ids).Error
	return ids, err
}

// ModuleLessonIDs returns the ids of every lesson in the module.
func (hs *HierarchyService) ModuleLessonIDs(moduleID uint) ([]uint, error) {
	var ids []uint
	err := hs.DB.Model(&models.Lesson{}).
		Where("module_id = ?", moduleID).
		Pluck("id", &ids).Error
	return ids, err
}

func (hs *HierarchyService) courseExists(courseID uint) error {
	var count int64
	if err := hs.DB.Model(&models.Course{}).Where("id = ?", courseID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("course %d: %w", courseID, ErrNotFound)
	}
	return nil
}
