package services

import (
	"errors"
	"freelyforms-backend/internal/database"
	"time"

	"github.com/go-redis/redis/v8"
)

const denylistPrefix = "denylist:"

// AddToDenylist revokes a token until it would have expired anyway.
func AddToDenylist(tokenString string, expiration time.Duration) error {
	if expiration <= 0 {
		return nil
	}
	key := denylistPrefix + tokenString
	return database.RedisClient.Set(database.Ctx, key, 1, expiration).Err()
}

func IsDenylisted(tokenString string) (bool, error) {
	key := denylistPrefix + tokenString
	val, err := database.RedisClient.Get(database.Ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	return val != "", nil
}
