package user

import (
	"freelyforms-backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(router *gin.RouterGroup) {
	auth := router.Group("/auth")
	auth.GET("/user", middleware.AuthMiddleware(), CurrentUser)
}
