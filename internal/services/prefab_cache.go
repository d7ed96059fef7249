package services

import (
	"encoding/json"
	"errors"
	"freelyforms-backend/internal/database"
	"freelyforms-backend/internal/models"
	"freelyforms-backend/internal/repository"
	"freelyforms-backend/internal/schema"
	"freelyforms-backend/pkg/logger"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// PrefabCacheTTL bounds how long a cached prefab may be served. Zero
// disables the cache.
var PrefabCacheTTL = 10 * time.Minute

// PrefabTombstoneTTL is how long a write keeps readers from caching the
// prefab it changed. It must outlast a database read.
var PrefabTombstoneTTL = 5 * time.Second

const (
	prefabCachePrefix = "prefab:"
	prefabTombstone   = "-"
)

// cachedPrefab returns the cached prefab for id. A miss or any cache failure
// yields (nil, false); the caller falls back to the database.
func cachedPrefab(id string) (*schema.Prefab, bool) {
	if database.RedisClient == nil || PrefabCacheTTL <= 0 {
		return nil, false
	}
	val, err := database.RedisClient.Get(database.Ctx, prefabCachePrefix+id).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Log.Warn("Prefab cache read failed", zap.String("prefab_id", id), zap.Error(err))
		}
		return nil, false
	}
	if string(val) == prefabTombstone {
		return nil, false
	}

	var rec models.Prefab
	if err := json.Unmarshal(val, &rec); err != nil {
		logger.Log.Warn("Discarding undecodable cached prefab", zap.String("prefab_id", id), zap.Error(err))
		discardCachedPrefab(id)
		return nil, false
	}
	p, err := repository.FromRecord(rec)
	if err != nil {
		logger.Log.Warn("Discarding invalid cached prefab", zap.String("prefab_id", id), zap.Error(err))
		discardCachedPrefab(id)
		return nil, false
	}
	return p, true
}

// cachePrefab stores p unless the key is taken. A tombstone left by a
// concurrent write keeps a reader that loaded p before that write from
// caching it.
func cachePrefab(p *schema.Prefab) {
	if database.RedisClient == nil || PrefabCacheTTL <= 0 {
		return
	}
	rec, err := repository.ToRecord(p)
	if err != nil {
		return
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return
	}
	if err := database.RedisClient.SetNX(database.Ctx, prefabCachePrefix+p.ID, data, PrefabCacheTTL).Err(); err != nil {
		logger.Log.Warn("Prefab cache write failed", zap.String("prefab_id", p.ID), zap.Error(err))
	}
}

// invalidatePrefab replaces the cached prefab with a short-lived tombstone
// after a write commits.
func invalidatePrefab(id string) {
	if database.RedisClient == nil {
		return
	}
	if err := database.RedisClient.Set(database.Ctx, prefabCachePrefix+id, prefabTombstone, PrefabTombstoneTTL).Err(); err != nil {
		logger.Log.Warn("Prefab cache invalidation failed", zap.String("prefab_id", id), zap.Error(err))
	}
}

func discardCachedPrefab(id string) {
	if database.RedisClient == nil {
		return
	}
	if err := database.RedisClient.Del(database.Ctx, prefabCachePrefix+id).Err(); err != nil {
		logger.Log.Warn("Prefab cache invalidation failed", zap.String("prefab_id", id), zap.Error(err))
	}
}
