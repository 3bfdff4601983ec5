package services

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"lms/backend/models"
	"lms/backend/utils"
)

var testDBCounter int64

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	n := atomic.AddInt64(&testDBCounter, 1)
	dsn := fmt.Sprintf("file:servicetest%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, utils.Migrate(db))
	return db
}

func createUser(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()
	user := &models.User{
		Name:         name,
		Email:        name + "@example.com",
		PasswordHash: "x",
		Role:         models.RoleStudent,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// createCourse builds a published course with the given lesson counts per
// module, orders starting at 1.
func createCourse(t *testing.T, db *gorm.DB, title string, lessonsPerModule ...int) *models.Course {
	t.Helper()
	course := &models.Course{Title: title, Status: models.CoursePublished}
	require.NoError(t, db.Create(course).Error)

	for m, lessonCount := range lessonsPerModule {
		module := &models.Module{
			CourseID:      course.ID,
			Name:          fmt.Sprintf("%s module %d", title, m+1),
			SequenceOrder: m + 1,
		}
		require.NoError(t, db.Create(module).Error)
		for l := 0; l < lessonCount; l++ {
			lesson := &models.Lesson{
				ModuleID:      module.ID,
				Title:         fmt.Sprintf("%s lesson %d.%d", title, m+1, l+1),
				SequenceOrder: l + 1,
			}
			require.NoError(t, db.Create(lesson).Error)
		}
	}
	return course
}

func enroll(t *testing.T, db *gorm.DB, userID, courseID uint) {
	t.Helper()
	require.NoError(t, db.Create(&models.Enrollment{UserID: userID, CourseID: courseID}).Error)
}

func courseLessons(t *testing.T, db *gorm.DB, courseID uint) []models.Lesson {
	t.Helper()
	var lessons []models.Lesson
	err := db.
		Joins("JOIN modules ON modules.id = lessons.module_id").
		Where("modules.course_id = ?", courseID).
		Order("modules.sequence_order ASC, lessons.sequence_order ASC").
		Find(&lessons).Error
	require.NoError(t, err)
	return lessons
}

func grantCount(t *testing.T, db *gorm.DB, userID uint) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&models.UserAchievement{}).Where("user_id = ?", userID).Count(&count).Error)
	return count
}
