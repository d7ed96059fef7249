package middleware

import (
	"freelyforms-backend/internal/models"
	"freelyforms-backend/internal/services"
	"freelyforms-backend/internal/utils"
	"freelyforms-backend/pkg/logger"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminAuthMiddleware validates that the user has admin privileges.
func AdminAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := utils.ExtractToken(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, err.Error()))
			c.Abort()
			return
		}

		// The role is read from the database, never from the user cache
		user, claims, failure := authenticate(tokenString, http.StatusForbidden, services.LoadUserByID)
		if failure != nil {
			failure.abort(c)
			return
		}

		// Both the token and the stored account must carry the admin role
		if !slices.Contains(utils.ClaimRoles(claims), models.RoleAdmin) || user.Role != models.RoleAdmin {
			logger.Log.Warn("Unauthorized admin access attempt",
				zap.String("user_id", user.ID),
				zap.String("path", c.Request.URL.Path),
			)
			c.JSON(http.StatusForbidden, utils.NewErrorResponse(http.StatusForbidden, "Forbidden: Admins only"))
			c.Abort()
			return
		}

		c.Set("user", user)
		c.Next()
	}
}
