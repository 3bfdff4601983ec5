package controllers_test

import (
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	app, _, _ := setupTestApp(t)

	status, result := jsonRequest(t, app, "POST", "/api/auth/register", "", map[string]interface{}{
		"name":     "Alice",
		"email":    "alice@example.com",
		"password": "password123",
	})
	require.Equal(t, fiber.StatusOK, status)
	assert.NotEmpty(t, result["token"])
	user := result["user"].(map[string]interface{})
	assert.Equal(t, "student", user["role"])

	status, result = jsonRequest(t, app, "POST", "/api/auth/login", "", map[string]interface{}{
		"email":    "alice@example.com",
		"password": "password123",
	})
	require.Equal(t, fiber.StatusOK, status)
	assert.NotEmpty(t, result["token"])
}

func TestRegisterValidation(t *testing.T) {
	app, _, _ := setupTestApp(t)

	status, _ := jsonRequest(t, app, "POST", "/api/auth/register", "", map[string]interface{}{
		"name":     "Bob",
		"email":    "not-an-email",
		"password": "short",
	})
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
}

func TestRegisterRejectsAdminRole(t *testing.T) {
	app, _, _ := setupTestApp(t)

	status, _ := jsonRequest(t, app, "POST", "/api/auth/register", "", map[string]interface{}{
		"name":     "Mallory",
		"email":    "mallory@example.com",
		"password": "password123",
		"role":     "admin",
	})
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
}

func TestLoginInvalidCredentials(t *testing.T) {
	app, db, cfg := setupTestApp(t)
	createUserWithToken(t, db, cfg, "carol", "student")

	status, _ := jsonRequest(t, app, "POST", "/api/auth/login", "", map[string]interface{}{
		"email":    "carol@example.com",
		"password": "wrong-password",
	})
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestProfileRequiresToken(t *testing.T) {
	app, _, _ := setupTestApp(t)

	status, _ := jsonRequest(t, app, "GET", "/api/user/profile", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
}
