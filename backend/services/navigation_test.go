package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lms/backend/models"
)

func TestLessonNavigationWithinModule(t *testing.T) {
	db := setupTestDB(t)
	ns := NewNavigationService(db)

	course := createCourse(t, db, "Nav", 3)
	lessons := courseLessons(t, db, course.ID)

	previous, next, err := ns.LessonNavigation(lessons[1].ID)
	require.NoError(t, err)
	require.NotNil(t, previous)
	require.NotNil(t, next)
	assert.Equal(t, lessons[0].ID, previous.ID)
	assert.Equal(t, lessons[2].ID, next.ID)
}

func TestLessonNavigationSymmetry(t *testing.T) {
	db := setupTestDB(t)
	ns := NewNavigationService(db)

	course := createCourse(t, db, "Sym", 2, 2)
	lessons := courseLessons(t, db, course.ID)

	// For each adjacent pair, next of A is B and previous of B is A.
	for i := 0; i < len(lessons)-1; i++ {
		_, next, err := ns.LessonNavigation(lessons[i].ID)
		require.NoError(t, err)
		require.NotNil(t, next)
		assert.Equal(t, lessons[i+1].ID, next.ID)

		previous, _, err := ns.LessonNavigation(lessons[i+1].ID)
		require.NoError(t, err)
		require.NotNil(t, previous)
		assert.Equal(t, lessons[i].ID, previous.ID)
	}
}

func TestLessonNavigationCrossesModules(t *testing.T) {
	db := setupTestDB(t)
	ns := NewNavigationService(db)

	course := createCourse(t, db, "Cross", 2, 2)
	lessons := courseLessons(t, db, course.ID)

	// Last lesson of module 1: next falls into module 2.
	previous, next, err := ns.LessonNavigation(lessons[1].ID)
	require.NoError(t, err)
	require.NotNil(t, previous)
	require.NotNil(t, next)
	assert.Equal(t, lessons[0].ID, previous.ID)
	assert.Equal(t, lessons[2].ID, next.ID)

	// First lesson of module 2: previous is the last lesson of module 1.
	previous, next, err = ns.LessonNavigation(lessons[2].ID)
	require.NoError(t, err)
	require.NotNil(t, previous)
	require.NotNil(t, next)
	assert.Equal(t, lessons[1].ID, previous.ID)
	assert.Equal(t, lessons[3].ID, next.ID)
}

func TestLessonNavigationCourseEdges(t *testing.T) {
	db := setupTestDB(t)
	ns := NewNavigationService(db)

	course := createCourse(t, db, "Edges", 2, 2)
	lessons := courseLessons(t, db, course.ID)

	previous, _, err := ns.LessonNavigation(lessons[0].ID)
	require.NoError(t, err)
	assert.Nil(t, previous)

	_, next, err := ns.LessonNavigation(lessons[len(lessons)-1].ID)
	require.NoError(t, err)
	assert.Nil(t, next)
}

func TestLessonNavigationSkipsEmptyNeighborLessonless(t *testing.T) {
	db := setupTestDB(t)
	ns := NewNavigationService(db)

	// Module 2 has no lessons; the next of module 1's last lesson is nil
	// because the fallback only looks one module over.
	course := createCourse(t, db, "Holey", 1, 0)
	lessons := courseLessons(t, db, course.ID)

	_, next, err := ns.LessonNavigation(lessons[0].ID)
	require.NoError(t, err)
	assert.Nil(t, next)
}

func TestLessonNavigationUnknownLesson(t *testing.T) {
	db := setupTestDB(t)
	ns := NewNavigationService(db)

	_, _, err := ns.LessonNavigation(9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestModuleNavigation(t *testing.T) {
	db := setupTestDB(t)
	ns := NewNavigationService(db)

	course := createCourse(t, db, "Mods", 1, 1, 1)
	var modules []models.Module
	require.NoError(t, db.Where("course_id = ?", course.ID).Order("sequence_order ASC").Find(&modules).Error)

	previous, next, err := ns.ModuleNavigation(modules[1].ID)
	require.NoError(t, err)
	require.NotNil(t, previous)
	require.NotNil(t, next)
	assert.Equal(t, modules[0].ID, previous.ID)
	assert.Equal(t, modules[2].ID, next.ID)

	previous, _, err = ns.ModuleNavigation(modules[0].ID)
	require.NoError(t, err)
	assert.Nil(t, previous)

	_, next, err = ns.ModuleNavigation(modules[2].ID)
	require.NoError(t, err)
	assert.Nil(t, next)
}

func TestModuleNavigationNoCrossCourse(t *testing.T) {
	db := setupTestDB(t)
	ns := NewNavigationService(db)

	courseA := createCourse(t, db, "First", 1)
	createCourse(t, db, "Second", 1)

	var moduleA models.Module
	require.NoError(t, db.Where("course_id = ?", courseA.ID).First(&moduleA).Error)

	previous, next, err := ns.ModuleNavigation(moduleA.ID)
	require.NoError(t, err)
	assert.Nil(t, previous)
	assert.Nil(t, next)
}
