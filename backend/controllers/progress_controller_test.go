package controllers_test

import (
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lms/backend/models"
)

func TestToggleLessonCompletionEndpoint(t *testing.T) {
	app, db, cfg := setupTestApp(t)
	_, token := createUserWithToken(t, db, cfg, "alice", models.RoleStudent)
	course, _, lessons := seedCourse(t, db, 2)

	courseID := course.ID
	require.NoError(t, db.Create(&models.Achievement{
		Name:     "Course Done",
		Type:     models.AchievementCourseCompletion,
		CourseID: &courseID,
		Points:   100,
	}).Error)

	// Not enrolled yet.
	status, _ := jsonRequest(t, app, "POST",
		fmt.Sprintf("/api/progress/lessons/%d/toggle", lessons[0].ID), token, nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = jsonRequest(t, app, "POST",
		fmt.Sprintf("/api/courses/%d/enroll", course.ID), token, nil)
	require.Equal(t, fiber.StatusCreated, status)

	status, result := jsonRequest(t, app, "POST",
		fmt.Sprintf("/api/progress/lessons/%d/toggle", lessons[0].ID), token, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, result["completed"])
	assert.Empty(t, result["newly_unlocked"])

	// Completing the last lesson unlocks the course achievement.
	status, result = jsonRequest(t, app, "POST",
		fmt.Sprintf("/api/progress/lessons/%d/toggle", lessons[1].ID), token, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, result["completed"])
	assert.Len(t, result["newly_unlocked"], 1)

	// Progress endpoint agrees.
	status, result = jsonRequest(t, app, "GET",
		fmt.Sprintf("/api/progress/courses/%d", course.ID), token, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(2), result["total_lessons"])
	assert.Equal(t, float64(2), result["completed_lessons"])
	assert.Equal(t, float64(100), result["progress_percentage"])
}

func TestProgressSummaryEndpoint(t *testing.T) {
	app, db, cfg := setupTestApp(t)
	_, token := createUserWithToken(t, db, cfg, "bob", models.RoleStudent)
	course, _, lessons := seedCourse(t, db, 4)

	status, _ := jsonRequest(t, app, "POST",
		fmt.Sprintf("/api/courses/%d/enroll", course.ID), token, nil)
	require.Equal(t, fiber.StatusCreated, status)

	status, _ = jsonRequest(t, app, "POST",
		fmt.Sprintf("/api/progress/lessons/%d/toggle", lessons[0].ID), token, nil)
	require.Equal(t, fiber.StatusOK, status)

	status, result := jsonRequest(t, app, "GET", "/api/progress/summary", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(1), result["total_completed_lessons"])
	assert.Equal(t, float64(25), result["overall_progress"])
	summaries := result["course_summaries"].([]interface{})
	require.Len(t, summaries, 1)
}

func TestResetProgressRequiresAdmin(t *testing.T) {
	app, db, cfg := setupTestApp(t)
	student, studentToken := createUserWithToken(t, db, cfg, "carol", models.RoleStudent)
	_, adminToken := createUserWithToken(t, db, cfg, "root", models.RoleAdmin)
	course, _, lessons := seedCourse(t, db, 1)

	require.NoError(t, db.Create(&models.Enrollment{UserID: student.ID, CourseID: course.ID}).Error)
	status, _ := jsonRequest(t, app, "POST",
		fmt.Sprintf("/api/progress/lessons/%d/toggle", lessons[0].ID), studentToken, nil)
	require.Equal(t, fiber.StatusOK, status)

	body := map[string]interface{}{"user_id": student.ID, "course_id": course.ID}

	status, _ = jsonRequest(t, app, "POST", "/api/admin/progress/reset", studentToken, body)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = jsonRequest(t, app, "POST", "/api/admin/progress/reset", adminToken, body)
	require.Equal(t, fiber.StatusOK, status)

	var count int64
	require.NoError(t, db.Model(&models.LessonCompletion{}).Where("user_id = ?", student.ID).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestNavigationHidesDraftCourses(t *testing.T) {
	app, db, cfg := setupTestApp(t)
	_, outsiderToken := createUserWithToken(t, db, cfg, "olivia", models.RoleStudent)
	enrolled, enrolledToken := createUserWithToken(t, db, cfg, "pam", models.RoleStudent)
	_, profToken := createUserWithToken(t, db, cfg, "quinn", models.RoleProfessor)

	course, module, lessons := seedCourse(t, db, 2)
	require.NoError(t, db.Create(&models.Enrollment{UserID: enrolled.ID, CourseID: course.ID}).Error)
	require.NoError(t, db.Model(&models.Course{}).
		Where("id = ?", course.ID).
		Update("status", models.CourseDraft).Error)

	lessonPath := fmt.Sprintf("/api/lessons/%d/navigation", lessons[0].ID)
	modulePath := fmt.Sprintf("/api/modules/%d/navigation", module.ID)

	status, _ := jsonRequest(t, app, "GET", lessonPath, outsiderToken, nil)
	assert.Equal(t, fiber.StatusForbidden, status)
	status, _ = jsonRequest(t, app, "GET", modulePath, outsiderToken, nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	// Users enrolled before the course was unpublished keep access.
	status, _ = jsonRequest(t, app, "GET", lessonPath, enrolledToken, nil)
	assert.Equal(t, fiber.StatusOK, status)
	status, _ = jsonRequest(t, app, "GET", modulePath, enrolledToken, nil)
	assert.Equal(t, fiber.StatusOK, status)

	// Staff can preview drafts.
	status, _ = jsonRequest(t, app, "GET", lessonPath, profToken, nil)
	assert.Equal(t, fiber.StatusOK, status)
	status, _ = jsonRequest(t, app, "GET", modulePath, profToken, nil)
	assert.Equal(t, fiber.StatusOK, status)
}

func TestLessonNavigationEndpoint(t *testing.T) {
	app, db, cfg := setupTestApp(t)
	_, token := createUserWithToken(t, db, cfg, "dave", models.RoleStudent)
	_, _, lessons := seedCourse(t, db, 2)

	status, result := jsonRequest(t, app, "GET",
		fmt.Sprintf("/api/lessons/%d/navigation", lessons[1].ID), token, nil)
	require.Equal(t, fiber.StatusOK, status)
	require.NotNil(t, result["previous"])
	assert.Nil(t, result["next"])

	previous := result["previous"].(map[string]interface{})
	assert.Equal(t, float64(lessons[0].ID), previous["ID"])
}
