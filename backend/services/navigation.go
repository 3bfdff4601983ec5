package services

import (
	"errors"

	"gorm.io/gorm"

	"lms/backend/models"
)

// NavigationService resolves previous/next siblings by sequence order,
// crossing module boundaries for lessons. A missing neighbor is nil, not an
// error.
type NavigationService struct {
	DB        *gorm.DB
	Hierarchy *HierarchyService
}

func NewNavigationService(db *gorm.DB) *NavigationService {
	return &NavigationService{DB: db, Hierarchy: NewHierarchyService(db)}
}

// LessonNavigation returns the lessons before and after the given one. At a
// module edge it falls back to the last lesson of the previous module or
// the first lesson of the next module; at a course edge the side is nil.
func (ns *NavigationService) LessonNavigation(lessonID uint) (*models.Lesson, *models.Lesson, error) {
	lesson, module, _, err := ns.Hierarchy.LessonWithOwners(lessonID)
	if err != nil {
		return nil, nil, err
	}

	previous, err := ns.firstLesson(
		ns.DB.Where("module_id = ? AND sequence_order < ?", module.ID, lesson.SequenceOrder).
			Order("sequence_order DESC"))
	if err != nil {
		return nil, nil, err
	}
	if previous == nil {
		prevModule, err := ns.siblingModule(module, false)
		if err != nil {
			return nil, nil, err
		}
		if prevModule != nil {
			previous, err = ns.firstLesson(
				ns.DB.Where("module_id = ?", prevModule.ID).Order("sequence_order DESC"))
			if err != nil {
				return nil, nil, err
			}
		}
	}

	next, err := ns.firstLesson(
		ns.DB.Where("module_id = ? AND sequence_order > ?", module.ID, lesson.SequenceOrder).
			Order("sequence_order ASC"))
	if err != nil {
		return nil, nil, err
	}
	if next == nil {
		nextModule, err := ns.siblingModule(module, true)
		if err != nil {
			return nil, nil, err
		}
		if nextModule != nil {
			next, err = ns.firstLesson(
				ns.DB.Where("module_id = ?", nextModule.ID).Order("sequence_order ASC"))
			if err != nil {
				return nil, nil, err
			}
		}
	}

	return previous, next, nil
}

// ModuleNavigation returns the modules before and after the given one
// within its course. No cross-course fallback.
func (ns *NavigationService) ModuleNavigation(moduleID uint) (*models.Module, *models.Module, error) {
	module, _, err := ns.Hierarchy.ModuleWithCourse(moduleID)
	if err != nil {
		return nil, nil, err
	}
	previous, err := ns.siblingModule(module, false)
	if err != nil {
		return nil, nil, err
	}
	next, err := ns.siblingModule(module, true)
	if err != nil {
		return nil, nil, err
	}
	return previous, next, nil
}

func (ns *NavigationService) siblingModule(module *models.Module, forward bool) (*models.Module, error) {
	query := ns.DB.Where("course_id = ?", module.CourseID)
	if forward {
		query = query.Where("sequence_order > ?", module.SequenceOrder).Order("sequence_order ASC")
	} else {
		query = query.Where("sequence_order < ?", module.SequenceOrder).Order("sequence_order DESC")
	}

	var sibling models.Module
	if err := query.First(&sibling).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sibling, nil
}

func (ns *NavigationService) firstLesson(query *gorm.DB) (*models.Lesson, error) {
	var lesson models.Lesson
	if err := query.First(&lesson).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &lesson, nil
}
