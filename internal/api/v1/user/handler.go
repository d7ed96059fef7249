package user

import (
	"freelyforms-backend/internal/models"
	"freelyforms-backend/internal/utils"
	"net/http"

	"github.com/gin-gonic/gin"
)

// CurrentUser godoc
// @Summary Get current user
// @Description Get the authenticated user's account and a refreshed token
// @Tags user
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} utils.Response{data=user.UserResponse}
// @Failure 401 {object} utils.Response
// @Failure 500 {object} utils.Response
// @Router /auth/user [get]
func CurrentUser(c *gin.Context) {
	value, exists := c.Get("user")
	if !exists {
		c.JSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, "Unauthorized"))
		return
	}
	u := value.(models.User)

	token, err := utils.GenerateToken(u.ID, u.Roles())
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Could not generate token"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("User information retrieved successfully", NewUserResponse(u, token)))
}

// NewUserResponse projects an account for the client. The password hash
// never leaves the server.
func NewUserResponse(u models.User, token string) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		Token:     token,
	}
}
