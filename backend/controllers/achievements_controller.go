package controllers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lms/backend/config"
	"lms/backend/models"
	"lms/backend/utils"
)

type AchievementsController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewAchievementsController(db *gorm.DB, cfg *config.Config) *AchievementsController {
	return &AchievementsController{DB: db, Cfg: cfg}
}

// ListAchievements returns the whole catalog with an unlocked flag for the
// requesting user.
func (ac *AchievementsController) ListAchievements(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, ac.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var achievements []models.Achievement
	if err := ac.DB.Order("id ASC").Find(&achievements).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	var grantedIDs []uint
	err = ac.DB.Model(&models.UserAchievement{}).
		Where("user_id = ?", userID).
		Pluck("achievement_id", &grantedIDs).Error
	if err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}
	granted := make(map[uint]bool, len(grantedIDs))
	for _, id := range grantedIDs {
		granted[id] = true
	}

	result := make([]fiber.Map, 0, len(achievements))
	for _, a := range achievements {
		result = append(result, fiber.Map{
			"id":          a.ID,
			"name":        a.Name,
			"description": a.Description,
			"type":        a.Type,
			"points":      a.Points,
			"unlocked":    granted[a.ID],
		})
	}
	return c.JSON(fiber.Map{"achievements": result})
}

// GetMine lists the user's grants, most recent first.
func (ac *AchievementsController) GetMine(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, ac.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var grants []models.UserAchievement
	err = ac.DB.Where("user_id = ?", userID).
		Order("awarded_at DESC").
		Find(&grants).Error
	if err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	result := make([]fiber.Map, 0, len(grants))
	for _, grant := range grants {
		var achievement models.Achievement
		if err := ac.DB.First(&achievement, grant.AchievementID).Error; err != nil {
			continue
		}
		result = append(result, fiber.Map{
			"id":          achievement.ID,
			"name":        achievement.Name,
			"description": achievement.Description,
			"type":        achievement.Type,
			"points":      achievement.Points,
			"awarded_at":  grant.AwardedAt,
		})
	}
	return c.JSON(fiber.Map{"achievements": result})
}

// GetLeaderboard ranks users by total achievement points.
func (ac *AchievementsController) GetLeaderboard(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 10)
	if limit < 1 || limit > 100 {
		limit = 10
	}

	type leaderboardRow struct {
		UserID      uint   `json:"user_id"`
		Name        string `json:"name"`
		TotalPoints int    `json:"total_points"`
	}
	var rows []leaderboardRow
	err := ac.DB.Model(&models.UserAchievement{}).
		Select("user_achievements.user_id, users.name, SUM(achievements.points) AS total_points").
		Joins("JOIN achievements ON achievements.id = user_achievements.achievement_id").
		Joins("JOIN users ON users.id = user_achievements.user_id").
		Group("user_achievements.user_id, users.name").
		Order("total_points DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}
	return c.JSON(fiber.Map{"leaderboard": rows})
}

type achievementInput struct {
	Name           string `json:"name" validate:"required"`
	Description    string `json:"description"`
	Type           string `json:"type" validate:"required,oneof=course_completion module_completion first_lesson lesson_count"`
	CourseID       *uint  `json:"course_id"`
	ModuleID       *uint  `json:"module_id"`
	ConditionValue int    `json:"condition_value" validate:"omitempty,min=1"`
	Points         int    `json:"points" validate:"min=0"`
}

func (ac *AchievementsController) CreateAchievement(c *fiber.Ctx) error {
	var input achievementInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if fields := utils.ValidateStruct(input); fields != nil {
		return utils.ValidationError(c, fields)
	}

	achievement := models.Achievement{
		Name:           input.Name,
		Description:    input.Description,
		Type:           models.AchievementType(input.Type),
		CourseID:       input.CourseID,
		ModuleID:       input.ModuleID,
		ConditionValue: input.ConditionValue,
		Points:         input.Points,
	}
	if err := ac.DB.Create(&achievement).Error; err != nil {
		return utils.InternalServerError(c, "Could not create achievement")
	}
	return utils.Created(c, achievement)
}

func (ac *AchievementsController) UpdateAchievement(c *fiber.Ctx) error {
	achievementID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}

	var input achievementInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if fields := utils.ValidateStruct(input); fields != nil {
		return utils.ValidationError(c, fields)
	}

	var achievement models.Achievement
	if err := ac.DB.First(&achievement, achievementID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Achievement not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	achievement.Name = input.Name
	achievement.Description = input.Description
	achievement.Type = models.AchievementType(input.Type)
	achievement.CourseID = input.CourseID
	achievement.ModuleID = input.ModuleID
	achievement.ConditionValue = input.ConditionValue
	achievement.Points = input.Points
	if err := ac.DB.Save(&achievement).Error; err != nil {
		return utils.InternalServerError(c, "Could not update achievement")
	}
	return utils.Success(c, fiber.StatusOK, achievement)
}

func (ac *AchievementsController) DeleteAchievement(c *fiber.Ctx) error {
	achievementID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}

	var achievement models.Achievement
	if err := ac.DB.First(&achievement, achievementID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Achievement not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}
	if err := ac.DB.Delete(&achievement).Error; err != nil {
		return utils.InternalServerError(c, "Could not delete achievement")
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"deleted": true})
}

// AwardToUser manually grants an achievement. Idempotent like the engine's
// own grants.
func (ac *AchievementsController) AwardToUser(c *fiber.Ctx) error {
	achievementID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}

	type awardInput struct {
		UserID uint `json:"user_id" validate:"required"`
	}
	var input awardInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if fields := utils.ValidateStruct(input); fields != nil {
		return utils.ValidationError(c, fields)
	}

	var achievement models.Achievement
	if err := ac.DB.First(&achievement, achievementID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Achievement not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}
	var user models.User
	if err := ac.DB.First(&user, input.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "User not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	grant := models.UserAchievement{
		UserID:        input.UserID,
		AchievementID: achievementID,
		AwardedAt:     time.Now(),
	}
	err = ac.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "achievement_id"}},
		DoNothing: true,
	}).Create(&grant).Error
	if err != nil {
		return utils.InternalServerError(c, "Could not award achievement")
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"awarded": true})
}

// RemoveFromUser is the admin escape hatch and the only path that deletes
// a grant.
func (ac *AchievementsController) RemoveFromUser(c *fiber.Ctx) error {
	achievementID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}

	type removeInput struct {
		UserID uint `json:"user_id" validate:"required"`
	}
	var input removeInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if fields := utils.ValidateStruct(input); fields != nil {
		return utils.ValidationError(c, fields)
	}

	err = ac.DB.Where("user_id = ? AND achievement_id = ?", input.UserID, achievementID).
		Delete(&models.UserAchievement{}).Error
	if err != nil {
		return utils.InternalServerError(c, "Could not remove achievement")
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"removed": true})
}
