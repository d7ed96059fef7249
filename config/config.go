package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string

	RedisAddr     string
	RedisPort     string
	RedisPassword string

	JWTSecret   string
	TokenTTL    time.Duration
	CORSOrigins []string

	// Seeded on start unless the account already exists
	AdminUsername string
	AdminPassword string

	PrefabCacheTTL time.Duration

	// Export archive (Aliyun OSS), disabled when OSSBucketName is empty
	OSSEndpoint        string
	OSSRegion          string
	OSSBucketName      string
	OSSAccessKeyID     string
	OSSAccessKeySecret string
	OSSRoleArn         string

	// Log configuration
	LogLevel      string
	LogFilename   string
	LogMaxSize    int
	LogMaxBackups int
	LogMaxAge     int
	LogCompress   bool
}

func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

func (c *Config) RedisFullAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisAddr, c.RedisPort)
}

// ArchiveEnabled reports whether generated exports are uploaded to OSS.
func (c *Config) ArchiveEnabled() bool {
	return c.OSSBucketName != ""
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		// Ignore error if .env file is not found
		if !os.IsNotExist(err) {
			return nil, err
		}
	}

	return &Config{
		Port: getEnv("PORT", "8080"),

		DBHost:     os.Getenv("DB_HOST"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBPort:     getEnv("DB_PORT", "5432"),

		RedisAddr:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		JWTSecret:   os.Getenv("JWT_SECRET"),
		TokenTTL:    getEnvAsDuration("TOKEN_TTL", 72*time.Hour),
		CORSOrigins: getEnvAsList("CORS_ORIGINS", []string{"http://localhost:3000", "http://localhost:8080"}),

		AdminUsername: getEnv("ADMIN_USERNAME", "admin@freelyforms.local"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),

		PrefabCacheTTL: getEnvAsDuration("PREFAB_CACHE_TTL", 10*time.Minute),

		OSSEndpoint:        os.Getenv("OSS_ENDPOINT"),
		OSSRegion:          os.Getenv("OSS_REGION"),
		OSSBucketName:      os.Getenv("OSS_BUCKET_NAME"),
		OSSAccessKeyID:     os.Getenv("OSS_ACCESS_KEY_ID"),
		OSSAccessKeySecret: os.Getenv("OSS_ACCESS_KEY_SECRET"),
		OSSRoleArn:         os.Getenv("OSS_ROLE_ARN"),

		LogLevel:      getEnv("LOG_LEVEL", "INFO"),
		LogFilename:   getEnv("LOG_FILENAME", "logs/app.log"),
		LogMaxSize:    getEnvAsInt("LOG_MAX_SIZE", 100),
		LogMaxBackups: getEnvAsInt("LOG_MAX_BACKUPS", 3),
		LogMaxAge:     getEnvAsInt("LOG_MAX_AGE", 28),
		LogCompress:   getEnvAsBool("LOG_COMPRESS", true),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := strconv.Atoi(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := strconv.ParseBool(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := time.ParseDuration(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
