package services

import (
	"errors"
	"freelyforms-backend/internal/database"
	"freelyforms-backend/internal/models"
	"freelyforms-backend/internal/utils"
	"freelyforms-backend/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var ErrUserAlreadyExists = errors.New("user with this username already exists")
var ErrInvalidCredentials = errors.New("invalid credentials")

// RegisterUser creates an account. The very first account becomes an admin.
func RegisterUser(username, password string) (*models.User, error) {
	var existingUser models.User
	result := database.DB.Where("username = ?", username).First(&existingUser)
	if result.Error == nil {
		return nil, ErrUserAlreadyExists
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, result.Error
	}

	var userCount int64
	if err := database.DB.Model(&models.User{}).Count(&userCount).Error; err != nil {
		return nil, err
	}

	role := models.RoleUser
	if userCount == 0 {
		role = models.RoleAdmin
	}

	return createUser(username, password, role)
}

// EnsureAdmin creates the configured admin account unless it already exists.
func EnsureAdmin(username, password string) error {
	if username == "" || password == "" {
		logger.Log.Info("Admin seeding skipped, credentials not configured")
		return nil
	}

	var admin models.User
	err := database.DB.Where("username = ?", username).First(&admin).Error
	if err == nil {
		logger.Log.Info("Admin user already exists", zap.String("username", username))
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if _, err := createUser(username, password, models.RoleAdmin); err != nil {
		return err
	}
	logger.Log.Info("Admin user created", zap.String("username", username))
	return nil
}

func createUser(username, password, role string) (*models.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username: username,
		Password: string(hashedPassword),
		Role:     role,
	}
	if err := database.DB.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func LoginUser(username, password string) (string, *models.User, error) {
	var user models.User
	if err := database.DB.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := utils.GenerateToken(user.ID, user.Roles())
	if err != nil {
		return "", nil, err
	}

	return token, &user, nil
}
