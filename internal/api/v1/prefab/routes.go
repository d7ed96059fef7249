package prefab

import (
	"freelyforms-backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(router *gin.RouterGroup) {
	prefabs := router.Group("/prefabs")
	prefabs.GET("", middleware.AuthMiddleware(), ListPrefabs)
	prefabs.POST("", middleware.AuthMiddleware(), CreatePrefab)
	prefabs.GET("/:id", middleware.OptionalAuthMiddleware(), GetPrefab)
	prefabs.PATCH("/:id", middleware.AuthMiddleware(), UpdatePrefab)
	prefabs.PATCH("/:id/activation", middleware.AuthMiddleware(), SetActivation)
	prefabs.DELETE("/:id", middleware.AuthMiddleware(), DeletePrefab)
	prefabs.POST("/:id/answers", middleware.OptionalAuthMiddleware(), SubmitAnswer)
	prefabs.GET("/:id/export", middleware.AdminAuthMiddleware(), ExportAnswers)
}
