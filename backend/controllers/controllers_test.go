package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"lms/backend/config"
	"lms/backend/models"
	"lms/backend/routes"
	"lms/backend/utils"
)

var testDBCounter int64

func setupTestApp(t *testing.T) (*fiber.App, *gorm.DB, *config.Config) {
	t.Helper()
	n := atomic.AddInt64(&testDBCounter, 1)
	dsn := fmt.Sprintf("file:controllertest%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, utils.Migrate(db))

	cfg := &config.Config{JWTSecret: "test-secret", Env: "development"}
	app := fiber.New()
	routes.SetupRoutes(app, db, cfg)
	return app, db, cfg
}

// createUserWithToken seeds a user directly and returns a valid token.
func createUserWithToken(t *testing.T, db *gorm.DB, cfg *config.Config, name string, role models.Role) (*models.User, string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{
		Name:         name,
		Email:        name + "@example.com",
		PasswordHash: string(hash),
		Role:         role,
	}
	require.NoError(t, db.Create(user).Error)

	token, err := utils.GenerateJWTToken(user.ID, cfg)
	require.NoError(t, err)
	return user, token
}

func jsonRequest(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	return resp.StatusCode, result
}

// seedCourse creates a published course with one module and the given
// lesson count, returning the course, module and lessons.
func seedCourse(t *testing.T, db *gorm.DB, lessonCount int) (*models.Course, *models.Module, []models.Lesson) {
	t.Helper()
	course := &models.Course{Title: "Seeded", Status: models.CoursePublished}
	require.NoError(t, db.Create(course).Error)
	module := &models.Module{CourseID: course.ID, Name: "M1", SequenceOrder: 1}
	require.NoError(t, db.Create(module).Error)

	lessons := make([]models.Lesson, 0, lessonCount)
	for i := 1; i <= lessonCount; i++ {
		lesson := models.Lesson{
			ModuleID:      module.ID,
			Title:         fmt.Sprintf("L%d", i),
			SequenceOrder: i,
		}
		require.NoError(t, db.Create(&lesson).Error)
		lessons = append(lessons, lesson)
	}
	return course, module, lessons
}
