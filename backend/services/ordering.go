package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"lms/backend/models"
)

// OrderingService maintains the density invariant on sibling sequence
// orders: within a course the module orders are exactly 1..N, and the same
// holds for lessons within a module. Every mutation runs in a transaction
// so a failure can never leave a duplicate or a gap.
type OrderingService struct {
	DB *gorm.DB
}

func NewOrderingService(db *gorm.DB) *OrderingService {
	return &OrderingService{DB: db}
}

// OrderUpdate is one entry of a batch reorder request.
type OrderUpdate struct {
	ID       uint
	NewOrder int
}

// InsertModule creates a module at the requested order, shifting the tail
// of the sibling set up by one. A zero or out-of-range order appends.
func (os *OrderingService) InsertModule(module *models.Module) error {
	return os.DB.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Module{}).Where("course_id = ?", module.CourseID).Count(&count).Error; err != nil {
			return err
		}
		n := int(count)

		if module.SequenceOrder < 1 || module.SequenceOrder > n {
			module.SequenceOrder = n + 1
		} else {
			err := tx.Model(&models.Module{}).
				Where("course_id = ? AND sequence_order >= ?", module.CourseID, module.SequenceOrder).
				Update("sequence_order", gorm.Expr("sequence_order + 1")).Error
			if err != nil {
				return err
			}
		}
		return tx.Create(module).Error
	})
}

// DeleteModule removes a module with its lessons and closes the gap in the
// sibling orders.
func (os *OrderingService) DeleteModule(moduleID uint) error {
	return os.DB.Transaction(func(tx *gorm.DB) error {
		var module models.Module
		if err := tx.First(&module, moduleID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("module %d: %w", moduleID, ErrNotFound)
			}
			return err
		}

		if err := tx.Where("module_id = ?", moduleID).Delete(&models.Lesson{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&module).Error; err != nil {
			return err
		}
		return tx.Model(&models.Module{}).
			Where("course_id = ? AND sequence_order > ?", module.CourseID, module.SequenceOrder).
			Update("sequence_order", gorm.Expr("sequence_order - 1")).Error
	})
}

// ReorderModule moves one module to newOrder, shifting only the siblings
// between its old and new position.
func (os *OrderingService) ReorderModule(moduleID uint, newOrder int) error {
	return os.DB.Transaction(func(tx *gorm.DB) error {
		var module models.Module
		if err := tx.First(&module, moduleID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("module %d: %w", moduleID, ErrNotFound)
			}
			return err
		}
		return shift(tx, &models.Module{}, "course_id", module.CourseID, module.ID, module.SequenceOrder, newOrder)
	})
}

// ReorderModules applies a batch reorder for every module of a course. The
// requested orders must form a permutation of 1..N over the full sibling
// set, otherwise nothing is committed.
func (os *OrderingService) ReorderModules(courseID uint, updates []OrderUpdate) error {
	return os.DB.Transaction(func(tx *gorm.DB) error {
		var courseCount int64
		if err := tx.Model(&models.Course{}).Where("id = ?", courseID).Count(&courseCount).Error; err != nil {
			return err
		}
		if courseCount == 0 {
			return fmt.Errorf("course %d: %w", courseID, ErrNotFound)
		}

		var ids []uint
		if err := tx.Model(&models.Module{}).Where("course_id = ?", courseID).Pluck("id", &ids).Error; err != nil {
			return err
		}
		if err := validatePermutation(ids, updates); err != nil {
			return err
		}
		for _, u := range updates {
			err := tx.Model(&models.Module{}).Where("id = ?", u.ID).
				Update("sequence_order", u.NewOrder).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// InsertLesson mirrors InsertModule for lessons within a module.
func (os *OrderingService) InsertLesson(lesson *models.Lesson) error {
	return os.DB.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Lesson{}).Where("module_id = ?", lesson.ModuleID).Count(&count).Error; err != nil {
			return err
		}
		n := int(count)

		if lesson.SequenceOrder < 1 || lesson.SequenceOrder > n {
			lesson.SequenceOrder = n + 1
		} else {
			err := tx.Model(&models.Lesson{}).
				Where("module_id = ? AND sequence_order >= ?", lesson.ModuleID, lesson.SequenceOrder).
				Update("sequence_order", gorm.Expr("sequence_order + 1")).Error
			if err != nil {
				return err
			}
		}
		return tx.Create(lesson).Error
	})
}

// DeleteLesson removes a lesson and closes the gap.
func (os *OrderingService) DeleteLesson(lessonID uint) error {
	return os.DB.Transaction(func(tx *gorm.DB) error {
		var lesson models.Lesson
		if err := tx.First(&lesson, lessonID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("lesson %d: %w", lessonID, ErrNotFound)
			}
			return err
		}
		if err := tx.Delete(&lesson).Error; err != nil {
			return err
		}
		return tx.Model(&models.Lesson{}).
			Where("module_id = ? AND sequence_order > ?", lesson.ModuleID, lesson.SequenceOrder).
			Update("sequence_order", gorm.Expr("sequence_order - 1")).Error
	})
}

// ReorderLesson moves one lesson to newOrder within its module.
func (os *OrderingService) ReorderLesson(lessonID uint, newOrder int) error {
	return os.DB.Transaction(func(tx *gorm.DB) error {
		var lesson models.Lesson
		if err := tx.First(&lesson, lessonID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("lesson %d: %w", lessonID, ErrNotFound)
			}
			return err
		}
		return shift(tx, &models.Lesson{}, "module_id", lesson.ModuleID, lesson.ID, lesson.SequenceOrder, newOrder)
	})
}

// ReorderLessons applies a batch reorder for every lesson of a module.
func (os *OrderingService) ReorderLessons(moduleID uint, updates []OrderUpdate) error {
	return os.DB.Transaction(func(tx *gorm.DB) error {
		var moduleCount int64
		if err := tx.Model(&models.Module{}).Where("id = ?", moduleID).Count(&moduleCount).Error; err != nil {
			return err
		}
		if moduleCount == 0 {
			return fmt.Errorf("module %d: %w", moduleID, ErrNotFound)
		}

		var ids []uint
		if err := tx.Model(&models.Lesson{}).Where("module_id = ?", moduleID).Pluck("id", &ids).Error; err != nil {
			return err
		}
		if err := validatePermutation(ids, updates); err != nil {
			return err
		}
		for _, u := range updates {
			err := tx.Model(&models.Lesson{}).Where("id = ?", u.ID).
				Update("sequence_order", u.NewOrder).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// shift moves item id from oldOrder to newOrder within the sibling set
// selected by scopeCol = scopeID, decrementing or incrementing only the
// range between the two positions.
func shift(tx *gorm.DB, model interface{}, scopeCol string, scopeID, id uint, oldOrder, newOrder int) error {
	var count int64
	if err := tx.Model(model).Where(scopeCol+" = ?", scopeID).Count(&count).Error; err != nil {
		return err
	}
	if newOrder < 1 || newOrder > int(count) {
		return fmt.Errorf("order %d out of range 1..%d: %w", newOrder, count, ErrInvalidOrder)
	}
	if newOrder == oldOrder {
		return nil
	}

	if newOrder > oldOrder {
		err := tx.Model(model).
			Where(scopeCol+" = ? AND sequence_order > ? AND sequence_order <= ?", scopeID, oldOrder, newOrder).
			Update("sequence_order", gorm.Expr("sequence_order - 1")).Error
		if err != nil {
			return err
		}
	} else {
		err := tx.Model(model).
			Where(scopeCol+" = ? AND sequence_order >= ? AND sequence_order < ?", scopeID, newOrder, oldOrder).
			Update("sequence_order", gorm.Expr("sequence_order + 1")).Error
		if err != nil {
			return err
		}
	}
	return tx.Model(model).Where("id = ?", id).Update("sequence_order", newOrder).Error
}

// validatePermutation checks that updates address every sibling exactly
// once and that the target orders are exactly {1..N}.
func validatePermutation(siblingIDs []uint, updates []OrderUpdate) error {
	if len(updates) != len(siblingIDs) {
		return fmt.Errorf("%d updates for %d siblings: %w", len(updates), len(siblingIDs), ErrInvalidOrder)
	}

	known := make(map[uint]bool, len(siblingIDs))
	for _, id := range siblingIDs {
		known[id] = true
	}

	seenIDs := make(map[uint]bool, len(updates))
	seenOrders := make(map[int]bool, len(updates))
	for _, u := range updates {
		if !known[u.ID] {
			return fmt.Errorf("item %d is not a sibling: %w", u.ID, ErrNotFound)
		}
		if seenIDs[u.ID] {
			return fmt.Errorf("item %d listed twice: %w", u.ID, ErrInvalidOrder)
		}
		seenIDs[u.ID] = true
		if u.NewOrder < 1 || u.NewOrder > len(siblingIDs) {
			return fmt.Errorf("order %d out of range 1..%d: %w", u.NewOrder, len(siblingIDs), ErrInvalidOrder)
		}
		if seenOrders[u.NewOrder] {
			return fmt.Errorf("order %d assigned twice: %w", u.NewOrder, ErrInvalidOrder)
		}
		seenOrders[u.NewOrder] = true
	}
	return nil
}
