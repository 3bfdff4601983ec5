package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"lms/backend/models"
)

// assertDense verifies the sibling orders are exactly 1..N.
func assertDense(t *testing.T, db *gorm.DB, model interface{}, scopeCol string, scopeID uint) {
	t.Helper()
	var orders []int
	require.NoError(t, db.Model(model).
		Where(scopeCol+" = ?", scopeID).
		Order("sequence_order ASC").
		Pluck("sequence_order", &orders).Error)
	for i, order := range orders {
		assert.Equal(t, i+1, order, "order set %v is not dense", orders)
	}
}

func lessonOrderByTitle(t *testing.T, db *gorm.DB, moduleID uint) map[string]int {
	t.Helper()
	var lessons []models.Lesson
	require.NoError(t, db.Where("module_id = ?", moduleID).Find(&lessons).Error)
	result := make(map[string]int, len(lessons))
	for _, lesson := range lessons {
		result[lesson.Title] = lesson.SequenceOrder
	}
	return result
}

func seedModuleWithLessons(t *testing.T, db *gorm.DB, count int) *models.Module {
	t.Helper()
	course := &models.Course{Title: "Ordering", Status: models.CoursePublished}
	require.NoError(t, db.Create(course).Error)
	module := &models.Module{CourseID: course.ID, Name: "M1", SequenceOrder: 1}
	require.NoError(t, db.Create(module).Error)
	for i := 1; i <= count; i++ {
		require.NoError(t, db.Create(&models.Lesson{
			ModuleID:      module.ID,
			Title:         fmt.Sprintf("L%d", i),
			SequenceOrder: i,
		}).Error)
	}
	return module
}

func TestInsertLessonAppends(t *testing.T) {
	db := setupTestDB(t)
	os := NewOrderingService(db)
	module := seedModuleWithLessons(t, db, 2)

	lesson := &models.Lesson{ModuleID: module.ID, Title: "L3"}
	require.NoError(t, os.InsertLesson(lesson))
	assert.Equal(t, 3, lesson.SequenceOrder)
	assertDense(t, db, &models.Lesson{}, "module_id", module.ID)
}

func TestInsertLessonShiftsTail(t *testing.T) {
	db := setupTestDB(t)
	os := NewOrderingService(db)
	module := seedModuleWithLessons(t, db, 3)

	lesson := &models.Lesson{ModuleID: module.ID, Title: "Lnew", SequenceOrder: 2}
	require.NoError(t, os.InsertLesson(lesson))

	orders := lessonOrderByTitle(t, db, module.ID)
	assert.Equal(t, 1, orders["L1"])
	assert.Equal(t, 2, orders["Lnew"])
	assert.Equal(t, 3, orders["L2"])
	assert.Equal(t, 4, orders["L3"])
	assertDense(t, db, &models.Lesson{}, "module_id", module.ID)
}

func TestDeleteLessonCompacts(t *testing.T) {
	db := setupTestDB(t)
	os := NewOrderingService(db)
	module := seedModuleWithLessons(t, db, 4)

	var victim models.Lesson
	require.NoError(t, db.Where("module_id = ? AND sequence_order = 2", module.ID).First(&victim).Error)
	require.NoError(t, os.DeleteLesson(victim.ID))

	orders := lessonOrderByTitle(t, db, module.ID)
	assert.Equal(t, 1, orders["L1"])
	assert.Equal(t, 2, orders["L3"])
	assert.Equal(t, 3, orders["L4"])
	assertDense(t, db, &models.Lesson{}, "module_id", module.ID)
}

func TestReorderLessonTowardFront(t *testing.T) {
	db := setupTestDB(t)
	os := NewOrderingService(db)
	module := seedModuleWithLessons(t, db, 5)

	// Moving order 4 to order 1 shifts lessons at 1..3 up to 2..4.
	var moved models.Lesson
	require.NoError(t, db.Where("module_id = ? AND sequence_order = 4", module.ID).First(&moved).Error)
	require.NoError(t, os.ReorderLesson(moved.ID, 1))

	orders := lessonOrderByTitle(t, db, module.ID)
	assert.Equal(t, 1, orders["L4"])
	assert.Equal(t, 2, orders["L1"])
	assert.Equal(t, 3, orders["L2"])
	assert.Equal(t, 4, orders["L3"])
	assert.Equal(t, 5, orders["L5"])
	assertDense(t, db, &models.Lesson{}, "module_id", module.ID)
}

func TestReorderLessonTowardBack(t *testing.T) {
	db := setupTestDB(t)
	os := NewOrderingService(db)
	module := seedModuleWithLessons(t, db, 4)

	var moved models.Lesson
	require.NoError(t, db.Where("module_id = ? AND sequence_order = 1", module.ID).First(&moved).Error)
	require.NoError(t, os.ReorderLesson(moved.ID, 3))

	orders := lessonOrderByTitle(t, db, module.ID)
	assert.Equal(t, 1, orders["L2"])
	assert.Equal(t, 2, orders["L3"])
	assert.Equal(t, 3, orders["L1"])
	assert.Equal(t, 4, orders["L4"])
	assertDense(t, db, &models.Lesson{}, "module_id", module.ID)
}

func TestReorderLessonOutOfRange(t *testing.T) {
	db := setupTestDB(t)
	os := NewOrderingService(db)
	module := seedModuleWithLessons(t, db, 3)

	var moved models.Lesson
	require.NoError(t, db.Where("module_id = ? AND sequence_order = 1", module.ID).First(&moved).Error)

	assert.ErrorIs(t, os.ReorderLesson(moved.ID, 0), ErrInvalidOrder)
	assert.ErrorIs(t, os.ReorderLesson(moved.ID, 4), ErrInvalidOrder)
	assertDense(t, db, &models.Lesson{}, "module_id", module.ID)
}

func TestReorderLessonsBatch(t *testing.T) {
	db := setupTestDB(t)
	os := NewOrderingService(db)
	module := seedModuleWithLessons(t, db, 3)

	var lessons []models.Lesson
	require.NoError(t, db.Where("module_id = ?", module.ID).Order("sequence_order ASC").Find(&lessons).Error)

	// Reverse the module.
	err := os.ReorderLessons(module.ID, []OrderUpdate{
		{ID: lessons[0].ID, NewOrder: 3},
		{ID: lessons[1].ID, NewOrder: 2},
		{ID: lessons[2].ID, NewOrder: 1},
	})
	require.NoError(t, err)

	orders := lessonOrderByTitle(t, db, module.ID)
	assert.Equal(t, 3, orders["L1"])
	assert.Equal(t, 2, orders["L2"])
	assert.Equal(t, 1, orders["L3"])
	assertDense(t, db, &models.Lesson{}, "module_id", module.ID)
}

func TestReorderLessonsBatchRejectsDuplicates(t *testing.T) {
	db := setupTestDB(t)
	os := NewOrderingService(db)
	module := seedModuleWithLessons(t, db, 3)

	var lessons []models.Lesson
	require.NoError(t, db.Where("module_id = ?", module.ID).Order("sequence_order ASC").Find(&lessons).Error)

	err := os.ReorderLessons(module.ID, []OrderUpdate{
		{ID: lessons[0].ID, NewOrder: 1},
		{ID: lessons[1].ID, NewOrder: 1},
		{ID: lessons[2].ID, NewOrder: 3},
	})
	assert.ErrorIs(t, err, ErrInvalidOrder)

	// Nothing committed.
	orders := lessonOrderByTitle(t, db, module.ID)
	assert.Equal(t, 1, orders["L1"])
	assert.Equal(t, 2, orders["L2"])
	assert.Equal(t, 3, orders["L3"])
}

func TestReorderLessonsBatchRejectsPartialSet(t *testing.T) {
	db := setupTestDB(t)
	os := NewOrderingService(db)
	module := seedModuleWithLessons(t, db, 3)

	var lessons []models.Lesson
	require.NoError(t, db.Where("module_id = ?", module.ID).Order("sequence_order ASC").Find(&lessons).Error)

	err := os.ReorderLessons(module.ID, []OrderUpdate{
		{ID: lessons[0].ID, NewOrder: 1},
	})
	assert.ErrorIs(t, err, ErrInvalidOrder)
}

func TestReorderLessonsUnknownModule(t *testing.T) {
	db := setupTestDB(t)
	os := NewOrderingService(db)

	err := os.ReorderLessons(9999, []OrderUpdate{{ID: 1, NewOrder: 1}})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReorderModulesUnknownCourse(t *testing.T) {
	db := setupTestDB(t)
	os := NewOrderingService(db)

	err := os.ReorderModules(9999, []OrderUpdate{{ID: 1, NewOrder: 1}})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestModuleOrderingLifecycle(t *testing.T) {
	db := setupTestDB(t)
	os := NewOrderingService(db)

	course := &models.Course{Title: "Modules", Status: models.CoursePublished}
	require.NoError(t, db.Create(course).Error)

	// Append three, insert one in the middle, delete one, reorder one.
	for i := 1; i <= 3; i++ {
		module := &models.Module{CourseID: course.ID, Name: fmt.Sprintf("M%d", i)}
		require.NoError(t, os.InsertModule(module))
		assert.Equal(t, i, module.SequenceOrder)
	}

	inserted := &models.Module{CourseID: course.ID, Name: "M1.5", SequenceOrder: 2}
	require.NoError(t, os.InsertModule(inserted))
	assertDense(t, db, &models.Module{}, "course_id", course.ID)

	var m3 models.Module
	require.NoError(t, db.Where("course_id = ? AND name = ?", course.ID, "M3").First(&m3).Error)
	require.NoError(t, os.DeleteModule(m3.ID))
	assertDense(t, db, &models.Module{}, "course_id", course.ID)

	var m1 models.Module
	require.NoError(t, db.Where("course_id = ? AND name = ?", course.ID, "M1").First(&m1).Error)
	require.NoError(t, os.ReorderModule(m1.ID, 3))
	assertDense(t, db, &models.Module{}, "course_id", course.ID)

	var count int64
	require.NoError(t, db.Model(&models.Module{}).Where("course_id = ?", course.ID).Count(&count).Error)
	assert.Equal(t, int64(3), count)
}

func TestDeleteModuleRemovesLessons(t *testing.T) {
	db := setupTestDB(t)
	os := NewOrderingService(db)
	module := seedModuleWithLessons(t, db, 3)

	require.NoError(t, os.DeleteModule(module.ID))

	var count int64
	require.NoError(t, db.Model(&models.Lesson{}).Where("module_id = ?", module.ID).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestDeleteUnknownModule(t *testing.T) {
	db := setupTestDB(t)
	os := NewOrderingService(db)
	assert.ErrorIs(t, os.DeleteModule(9999), ErrNotFound)
}
