package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"freelyforms-backend/internal/database"
	"freelyforms-backend/internal/models"
	"freelyforms-backend/pkg/logger"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrUserNotFound = errors.New("user not found")

const userCacheTTL = time.Hour

func userCacheKey(userID string) string {
	return fmt.Sprintf("user:%s", userID)
}

// FindUserByID loads a user, consulting the Redis cache first.
func FindUserByID(userID string) (models.User, error) {
	cacheKey := userCacheKey(userID)
	if database.RedisClient != nil {
		val, err := database.RedisClient.Get(database.Ctx, cacheKey).Result()
		if err == nil {
			var user models.User
			if err := json.Unmarshal([]byte(val), &user); err == nil {
				return user, nil
			}
		}
	}

	return LoadUserByID(userID)
}

// LoadUserByID reads a user straight from the database and refreshes the
// cached copy. Role checks use it so a demotion takes effect at once.
func LoadUserByID(userID string) (models.User, error) {
	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return user, ErrUserNotFound
		}
		return user, err
	}

	if database.RedisClient != nil {
		if data, err := json.Marshal(user); err == nil {
			if err := database.RedisClient.Set(database.Ctx, userCacheKey(userID), data, userCacheTTL).Err(); err != nil {
				logger.Log.Warn("Failed to cache user", zap.String("user_id", userID), zap.Error(err))
			}
		}
	}

	return user, nil
}
