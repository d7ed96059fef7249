package main

import (
	"freelyforms-backend/config"
	"freelyforms-backend/internal/api"
	"freelyforms-backend/internal/database"
	"freelyforms-backend/internal/models"
	"freelyforms-backend/internal/services"
	"freelyforms-backend/pkg/logger"
	"log"

	"go.uber.org/zap"
)

// @title freelyforms-backend API
// @version 1.0
// @description Form templates ("prefabs"), answers and spreadsheet exports.

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := logger.InitLogger(&logger.Config{
		Level:      cfg.LogLevel,
		Filename:   cfg.LogFilename,
		MaxSize:    cfg.LogMaxSize,
		MaxBackups: cfg.LogMaxBackups,
		MaxAge:     cfg.LogMaxAge,
		Compress:   cfg.LogCompress,
	}); err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	if _, err := database.Connect(cfg.DSN()); err != nil {
		logger.Log.Fatal("Failed to connect database", zap.Error(err))
	}
	if err := database.ConnectRedis(cfg); err != nil {
		logger.Log.Fatal("Failed to connect redis", zap.Error(err))
	}

	if err := database.DB.AutoMigrate(&models.User{}, &models.Prefab{}, &models.Answer{}); err != nil {
		logger.Log.Fatal("Failed to migrate database", zap.Error(err))
	}

	if err := services.EnsureAdmin(cfg.AdminUsername, cfg.AdminPassword); err != nil {
		logger.Log.Fatal("Failed to seed admin user", zap.Error(err))
	}

	services.PrefabCacheTTL = cfg.PrefabCacheTTL
	if cfg.ArchiveEnabled() {
		services.Archiver = services.NewOSSArchiver(cfg)
		logger.Log.Info("Export archiving enabled", zap.String("bucket", cfg.OSSBucketName))
	}

	router := api.NewRouter(cfg)
	logger.Log.Info("Server starting", zap.String("port", cfg.Port))
	if err := router.Run(":" + cfg.Port); err != nil {
		logger.Log.Fatal("Server stopped", zap.Error(err))
	}
}
