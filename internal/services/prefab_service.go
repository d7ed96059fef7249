package services

import (
	"context"
	"fmt"
	"freelyforms-backend/internal/database"
	"freelyforms-backend/internal/repository"
	"freelyforms-backend/internal/schema"
	"freelyforms-backend/pkg/logger"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// now is the clock used to stamp prefabs and answers.
var now = time.Now

func prefabStore() repository.PrefabStore {
	return repository.NewPrefabStore(database.DB)
}

func answerStore() repository.AnswerStore {
	return repository.NewAnswerStore(database.DB)
}

// ListPrefabs returns the prefabs owned by caller, newest first.
func ListPrefabs(ctx context.Context, caller schema.Caller) ([]*schema.Prefab, error) {
	if caller.IsAnonymous() {
		return nil, &schema.AuthorizationError{Action: "list prefabs"}
	}
	prefabs, err := prefabStore().FindByOwner(ctx, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("list prefabs of %s: %w", caller.ID, err)
	}
	return prefabs, nil
}

// GetPrefab loads a prefab through the Redis read-through cache.
func GetPrefab(ctx context.Context, id string) (*schema.Prefab, error) {
	if p, ok := cachedPrefab(id); ok {
		return p, nil
	}
	p, err := prefabStore().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	cachePrefab(p)
	return p, nil
}

// GetPrefabView projects a prefab for caller. Anonymous callers may read it.
func GetPrefabView(ctx context.Context, caller schema.Caller, id string, withHidden bool) (schema.DetailedView, error) {
	p, err := GetPrefab(ctx, id)
	if err != nil {
		return schema.DetailedView{}, err
	}
	answered, err := IsAlreadyAnswered(ctx, caller, p.ID)
	if err != nil {
		return schema.DetailedView{}, err
	}
	return schema.NewDetailedView(p, caller, withHidden, answered), nil
}

// CreatePrefab validates and stores a new prefab. Nothing is written when
// the input is rejected.
func CreatePrefab(ctx context.Context, caller schema.Caller, in schema.PrefabInput) (*schema.Prefab, error) {
	p, err := schema.Create(caller, in, now())
	if err != nil {
		return nil, err
	}
	if _, err := prefabStore().Save(ctx, p); err != nil {
		return nil, fmt.Errorf("save prefab %s: %w", p.ID, err)
	}
	logger.Log.Info("Prefab created",
		zap.String("prefab_id", p.ID),
		zap.String("owner_id", p.OwnerID),
		zap.Int("fields", len(p.Fields())),
	)
	return p, nil
}

// UpdatePrefab replaces the content of a prefab owned by caller.
func UpdatePrefab(ctx context.Context, caller schema.Caller, id string, in schema.PrefabInput) (*schema.Prefab, error) {
	existing, err := ownedPrefab(ctx, prefabStore(), caller, id, "update prefab")
	if err != nil {
		return nil, err
	}
	p, err := schema.Update(existing, in, now())
	if err != nil {
		return nil, err
	}
	return savePrefab(ctx, p)
}

// SetPrefabActive toggles whether a prefab accepts answers.
func SetPrefabActive(ctx context.Context, caller schema.Caller, id string, active bool) (*schema.Prefab, error) {
	existing, err := ownedPrefab(ctx, prefabStore(), caller, id, "change activation of prefab")
	if err != nil {
		return nil, err
	}
	return savePrefab(ctx, schema.SetActive(existing, active, now()))
}

// DeletePrefab removes a prefab together with its answers and returns the
// deleted prefab. Both deletes commit or neither does.
func DeletePrefab(ctx context.Context, caller schema.Caller, id string) (*schema.Prefab, error) {
	var deleted *schema.Prefab
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		prefabs := repository.NewPrefabStore(tx)
		p, err := ownedPrefab(ctx, prefabs, caller, id, "delete prefab")
		if err != nil {
			return err
		}
		if err := repository.NewAnswerStore(tx).DeleteByPrefab(ctx, id); err != nil {
			return fmt.Errorf("delete answers of prefab %s: %w", id, err)
		}
		if err := prefabs.DeleteByID(ctx, id); err != nil {
			return err
		}
		deleted = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	invalidatePrefab(id)
	logger.Log.Info("Prefab deleted", zap.String("prefab_id", id), zap.String("caller_id", caller.ID))
	return deleted, nil
}

// ownedPrefab loads a prefab from store, bypassing the cache, and checks
// that caller owns it.
func ownedPrefab(ctx context.Context, store repository.PrefabStore, caller schema.Caller, id, action string) (*schema.Prefab, error) {
	p, err := store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsOwnedBy(caller) {
		logger.Log.Warn("Prefab access denied",
			zap.String("prefab_id", id),
			zap.String("caller_id", caller.ID),
			zap.String("action", action),
		)
		return nil, &schema.AuthorizationError{CallerID: caller.ID, Action: action + " " + id}
	}
	return p, nil
}

func savePrefab(ctx context.Context, p *schema.Prefab) (*schema.Prefab, error) {
	if _, err := prefabStore().Save(ctx, p); err != nil {
		return nil, fmt.Errorf("save prefab %s: %w", p.ID, err)
	}
	invalidatePrefab(p.ID)
	return p, nil
}
