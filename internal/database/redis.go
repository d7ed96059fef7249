package database

import (
	"context"
	"freelyforms-backend/config"

	"github.com/go-redis/redis/v8"
)

var (
	RedisClient *redis.Client
	Ctx         = context.Background()
)

// ConnectRedis creates RedisClient and checks the server answers.
func ConnectRedis(cfg *config.Config) error {
	RedisClient = redis.NewClient(&redis.Options{
		Addr:     cfg.RedisFullAddr(),
		Password: cfg.RedisPassword,
		DB:       0, // use default DB
	})

	return RedisClient.Ping(Ctx).Err()
}
