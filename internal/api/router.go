package api

import (
	"freelyforms-backend/config"
	"freelyforms-backend/internal/api/v1/auth"
	"freelyforms-backend/internal/api/v1/prefab"
	userRoutes "freelyforms-backend/internal/api/v1/user"
	"freelyforms-backend/internal/middleware"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter wires middleware and the v1 routes. Connections are opened by
// the caller beforehand.
func NewRouter(cfg *config.Config) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.Logger())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	v1 := router.Group("/api/v1")
	{
		auth.RegisterRoutes(v1)
		userRoutes.RegisterRoutes(v1)
		prefab.RegisterRoutes(v1)
	}

	return router
}
