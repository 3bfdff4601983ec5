package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"lms/backend/config"
	"lms/backend/controllers"
	"lms/backend/middleware"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	// Auth routes
	authController := controllers.NewAuthController(db, cfg)
	app.Post("/api/auth/register", authController.Register)
	app.Post("/api/auth/login", authController.Login)

	// Middleware
	authMiddleware := middleware.AuthMiddleware(cfg)
	adminMiddleware := middleware.AdminMiddleware(db, cfg)
	staffMiddleware := middleware.StaffMiddleware(db, cfg)

	// User routes
	usersController := controllers.NewUsersController(db, cfg)
	app.Get("/api/user/profile", authMiddleware, usersController.GetProfile)
	app.Put("/api/user/profile", authMiddleware, usersController.UpdateProfile)

	// Courses routes
	coursesController := controllers.NewCoursesController(db, cfg)
	courses := app.Group("/api/courses", authMiddleware)
	courses.Get("/", coursesController.ListCourses)
	courses.Get("/enrolled", coursesController.GetEnrolledCourses)
	courses.Get("/:id", coursesController.GetCourseDetails)
	courses.Post("/:id/enroll", coursesController.Enroll)
	courses.Delete("/:id/enroll", coursesController.Unenroll)

	app.Get("/api/categories", authMiddleware, coursesController.ListCategories)

	// Progress routes
	progressController := controllers.NewProgressController(db, cfg)
	progress := app.Group("/api/progress", authMiddleware)
	progress.Get("/courses/:id", progressController.GetCourseProgress)
	progress.Get("/summary", progressController.GetSummary)
	progress.Post("/lessons/:id/toggle", progressController.ToggleLessonCompletion)

	// Navigation routes
	modulesController := controllers.NewModulesController(db, cfg)
	lessonsController := controllers.NewLessonsController(db, cfg)
	app.Get("/api/modules/:id/navigation", authMiddleware, modulesController.GetNavigation)
	app.Get("/api/lessons/:id/navigation", authMiddleware, lessonsController.GetNavigation)

	// Achievements routes
	achievementsController := controllers.NewAchievementsController(db, cfg)
	achievements := app.Group("/api/achievements", authMiddleware)
	achievements.Get("/", achievementsController.ListAchievements)
	achievements.Get("/mine", achievementsController.GetMine)
	achievements.Get("/leaderboard", achievementsController.GetLeaderboard)

	// Admin catalog management (professors may manage content too)
	adminCourses := app.Group("/api/admin/courses", authMiddleware, staffMiddleware)
	adminCourses.Post("/", coursesController.CreateCourse)
	adminCourses.Put("/:id", coursesController.UpdateCourse)
	adminCourses.Delete("/:id", coursesController.DeleteCourse)
	adminCourses.Post("/:id/modules", modulesController.CreateModule)
	adminCourses.Put("/:id/modules/reorder", modulesController.ReorderModules)

	adminModules := app.Group("/api/admin/modules", authMiddleware, staffMiddleware)
	adminModules.Put("/:id", modulesController.UpdateModule)
	adminModules.Delete("/:id", modulesController.DeleteModule)
	adminModules.Post("/:id/lessons", lessonsController.CreateLesson)
	adminModules.Put("/:id/lessons/reorder", lessonsController.ReorderLessons)

	adminLessons := app.Group("/api/admin/lessons", authMiddleware, staffMiddleware)
	adminLessons.Put("/:id", lessonsController.UpdateLesson)
	adminLessons.Delete("/:id", lessonsController.DeleteLesson)

	// Admin-only surface
	app.Post("/api/admin/categories", authMiddleware, adminMiddleware, coursesController.CreateCategory)

	adminAchievements := app.Group("/api/admin/achievements", authMiddleware, adminMiddleware)
	adminAchievements.Post("/", achievementsController.CreateAchievement)
	adminAchievements.Put("/:id", achievementsController.UpdateAchievement)
	adminAchievements.Delete("/:id", achievementsController.DeleteAchievement)
	adminAchievements.Post("/:id/award", achievementsController.AwardToUser)
	adminAchievements.Delete("/:id/award", achievementsController.RemoveFromUser)

	app.Post("/api/admin/progress/reset", authMiddleware, adminMiddleware, progressController.ResetProgress)

	reportsController := controllers.NewReportsController(db, cfg)
	adminReports := app.Group("/api/admin/reports", authMiddleware, adminMiddleware)
	adminReports.Get("/users", reportsController.GetUsersReport)
	adminReports.Get("/courses", reportsController.GetCoursesReport)
}
