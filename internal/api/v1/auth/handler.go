package auth

import (
	"errors"
	"freelyforms-backend/config"
	"freelyforms-backend/internal/api/v1/user"
	"freelyforms-backend/internal/services"
	"freelyforms-backend/internal/utils"
	"freelyforms-backend/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type RegisterInput struct {
	Username string `json:"username" binding:"required,max=255"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}

// Register godoc
// @Summary Register a new user
// @Description Register a new user with a username and password
// @Tags auth
// @Accept  json
// @Produce  json
// @Param   input     body   RegisterInput  true  "Register Input"
// @Success 201 {object} utils.Response{data=user.UserResponse}
// @Failure 400 {object} utils.Response
// @Failure 409 {object} utils.Response
// @Failure 500 {object} utils.Response
// @Router /auth/register [post]
func Register(c *gin.Context) {
	var input RegisterInput
	if !utils.BindAndValidate(c, &input) {
		return
	}

	u, err := services.RegisterUser(input.Username, input.Password)
	if err != nil {
		if errors.Is(err, services.ErrUserAlreadyExists) {
			c.JSON(http.StatusConflict, utils.NewErrorResponse(http.StatusConflict, err.Error()))
			return
		}
		logger.Log.Error("Failed to register user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to register user due to an internal error"))
		return
	}

	token, err := utils.GenerateToken(u.ID, u.Roles())
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Could not generate token"))
		return
	}

	c.JSON(http.StatusCreated, utils.NewCreatedResponse("User registered successfully", user.NewUserResponse(*u, token)))
}

type LoginInput struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login godoc
// @Summary Log in a user
// @Description Log in a user with a username and password
// @Tags auth
// @Accept  json
// @Produce  json
// @Param   input     body   LoginInput  true  "Login Input"
// @Success 200 {object} utils.Response{data=user.UserResponse}
// @Failure 400 {object} utils.Response
// @Failure 401 {object} utils.Response
// @Router /auth/login [post]
func Login(c *gin.Context) {
	var input LoginInput
	if !utils.BindAndValidate(c, &input) {
		return
	}

	token, u, err := services.LoginUser(input.Username, input.Password)
	if err != nil {
		if !errors.Is(err, services.ErrInvalidCredentials) {
			logger.Log.Error("Login failed", zap.Error(err))
		}
		c.JSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, "Invalid username or password"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Logged in successfully", user.NewUserResponse(*u, token)))
}

// Logout godoc
// @Summary Log out a user
// @Description Invalidate the user's current token
// @Tags auth
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} utils.Response
// @Failure 401 {object} utils.Response
// @Failure 500 {object} utils.Response
// @Router /auth/logout [post]
func Logout(c *gin.Context) {
	tokenString, err := utils.ExtractToken(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, err.Error()))
		return
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to load configuration"))
		return
	}

	// Without a readable expiry, keep it revoked for the longest token life
	remaining := cfg.TokenTTL
	if claims, err := utils.ValidateToken(tokenString); err == nil {
		if until, ok := utils.ClaimExpiry(claims); ok {
			remaining = until
		}
	}

	if err := services.AddToDenylist(tokenString, remaining); err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to denylist token"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Logged out successfully", nil))
}
