package services

import (
	"errors"
	"freelyforms-backend/internal/database"
	"freelyforms-backend/internal/models"
	"freelyforms-backend/internal/schema"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestCreateAndGetPrefab(t *testing.T) {
	setupTestDB(t)
	mr := setupTestRedis(t)
	tickingClock(t)

	p := createSurvey(t)
	assert.Equal(t, owner.ID, p.OwnerID)
	assert.True(t, p.IsActive)

	got, err := GetPrefab(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Name, got.Name)
	assert.Len(t, got.Fields(), 4)
	assert.True(t, mr.Exists(prefabCachePrefix+p.ID), "read populates the cache")

	// Served from the cache once the row is gone
	require.NoError(t, database.DB.Delete(&models.Prefab{}, "id = ?", p.ID).Error)
	cached, err := GetPrefab(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, cached.ID)
}

func TestGetPrefabWithoutRedis(t *testing.T) {
	setupTestDB(t)
	database.RedisClient = nil

	p := createSurvey(t)
	got, err := GetPrefab(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
}

func TestGetPrefabDiscardsCorruptCache(t *testing.T) {
	setupTestDB(t)
	mr := setupTestRedis(t)

	p := createSurvey(t)
	require.NoError(t, mr.Set(prefabCachePrefix+p.ID, "{not json"))

	got, err := GetPrefab(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
}

func TestGetPrefabNotFound(t *testing.T) {
	setupTestDB(t)
	setupTestRedis(t)

	_, err := GetPrefab(ctx, "missing")
	var nf *schema.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestCreatePrefabRejectedWritesNothing(t *testing.T) {
	setupTestDB(t)
	setupTestRedis(t)

	bad := surveyInput()
	bad.Groups[0].Fields[1].ValidationRules = []schema.RuleInput{{Kind: "PATTERN", Params: []byte(`{"value":"x"}`)}}
	_, err := CreatePrefab(ctx, owner, bad)
	var sve *schema.SchemaValidationError
	require.ErrorAs(t, err, &sve)
	var ire *schema.IncompatibleRuleError
	assert.ErrorAs(t, err, &ire)

	_, err = CreatePrefab(ctx, schema.Caller{}, surveyInput())
	var ae *schema.AuthorizationError
	assert.ErrorAs(t, err, &ae)

	var count int64
	database.DB.Model(&models.Prefab{}).Count(&count)
	assert.Zero(t, count)
}

func TestListPrefabs(t *testing.T) {
	setupTestDB(t)
	setupTestRedis(t)
	tickingClock(t)

	first := createSurvey(t)
	second := createSurvey(t)
	_, err := CreatePrefab(ctx, stranger, surveyInput())
	require.NoError(t, err)

	list, err := ListPrefabs(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)

	_, err = ListPrefabs(ctx, schema.Caller{})
	var ae *schema.AuthorizationError
	assert.ErrorAs(t, err, &ae)
}

func TestUpdatePrefab(t *testing.T) {
	setupTestDB(t)
	mr := setupTestRedis(t)
	tickingClock(t)

	p := createSurvey(t)
	_, err := GetPrefab(ctx, p.ID)
	require.NoError(t, err)

	in := surveyInput()
	in.Name = "Renamed"
	updated, err := UpdatePrefab(ctx, owner, p.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.True(t, updated.UpdatedAt.After(p.UpdatedAt))
	assert.True(t, updated.CreatedAt.Equal(p.CreatedAt))
	assertTombstoned(t, mr, p.ID)

	got, err := GetPrefab(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
}

func assertTombstoned(t *testing.T, mr *miniredis.Miniredis, id string) {
	t.Helper()
	val, err := mr.Get(prefabCachePrefix + id)
	require.NoError(t, err)
	assert.Equal(t, prefabTombstone, val, "write leaves a tombstone")
	assert.Greater(t, mr.TTL(prefabCachePrefix+id), time.Duration(0))
}

func TestStaleReadIsNotCachedOverWrite(t *testing.T) {
	setupTestDB(t)
	mr := setupTestRedis(t)
	tickingClock(t)

	p := createSurvey(t)
	// A reader loads the row, then a write commits before it caches.
	stale, err := prefabStore().FindByID(ctx, p.ID)
	require.NoError(t, err)

	in := surveyInput()
	in.Name = "Renamed"
	_, err = UpdatePrefab(ctx, owner, p.ID, in)
	require.NoError(t, err)
	cachePrefab(stale)

	got, err := GetPrefab(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)

	// Same for a delete
	stale, err = prefabStore().FindByID(ctx, p.ID)
	require.NoError(t, err)
	_, err = DeletePrefab(ctx, owner, p.ID)
	require.NoError(t, err)
	cachePrefab(stale)

	_, err = GetPrefab(ctx, p.ID)
	var nf *schema.NotFoundError
	assert.ErrorAs(t, err, &nf)

	// The tombstone expires on its own
	mr.FastForward(PrefabTombstoneTTL + time.Second)
	assert.False(t, mr.Exists(prefabCachePrefix+p.ID))
}

func TestOwnerOnlyOperations(t *testing.T) {
	setupTestDB(t)
	setupTestRedis(t)

	p := createSurvey(t)

	tests := []struct {
		name string
		run  func(caller schema.Caller) error
	}{
		{"update", func(c schema.Caller) error {
			_, err := UpdatePrefab(ctx, c, p.ID, surveyInput())
			return err
		}},
		{"activation", func(c schema.Caller) error {
			_, err := SetPrefabActive(ctx, c, p.ID, false)
			return err
		}},
		{"delete", func(c schema.Caller) error {
			_, err := DeletePrefab(ctx, c, p.ID)
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ae *schema.AuthorizationError
			assert.ErrorAs(t, tt.run(stranger), &ae)
			assert.Equal(t, stranger.ID, ae.CallerID)
			assert.ErrorAs(t, tt.run(schema.Caller{}), &ae)
			assert.ErrorAs(t, tt.run(admin), &ae, "admins do not own other prefabs")
		})
	}

	got, err := GetPrefab(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive)
}

func TestSetPrefabActive(t *testing.T) {
	setupTestDB(t)
	setupTestRedis(t)
	tickingClock(t)

	p := createSurvey(t)
	off, err := SetPrefabActive(ctx, owner, p.ID, false)
	require.NoError(t, err)
	assert.False(t, off.IsActive)

	got, err := GetPrefab(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.Len(t, got.Fields(), 4)

	_, err = SetPrefabActive(ctx, owner, "missing", true)
	var nf *schema.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestDeletePrefab(t *testing.T) {
	setupTestDB(t)
	mr := setupTestRedis(t)
	tickingClock(t)

	p := createSurvey(t)
	_, err := SubmitAnswer(ctx, stranger, p.ID, map[string]interface{}{"name": "Ada"})
	require.NoError(t, err)
	_, err = GetPrefab(ctx, p.ID)
	require.NoError(t, err)

	deleted, err := DeletePrefab(ctx, owner, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, deleted.ID)
	assert.Equal(t, p.Name, deleted.Name)
	assert.Len(t, deleted.Fields(), 4)
	assertTombstoned(t, mr, p.ID)

	_, err = GetPrefab(ctx, p.ID)
	var nf *schema.NotFoundError
	assert.ErrorAs(t, err, &nf)

	var answers int64
	database.DB.Model(&models.Answer{}).Where("prefab_id = ?", p.ID).Count(&answers)
	assert.Zero(t, answers)

	_, err = DeletePrefab(ctx, owner, p.ID)
	assert.ErrorAs(t, err, &nf)
}

func TestDeletePrefabRollsBackOnFailure(t *testing.T) {
	setupTestDB(t)
	mr := setupTestRedis(t)
	tickingClock(t)

	p := createSurvey(t)
	_, err := SubmitAnswer(ctx, stranger, p.ID, map[string]interface{}{"name": "Ada"})
	require.NoError(t, err)
	_, err = GetPrefab(ctx, p.ID)
	require.NoError(t, err)

	failPrefabDelete := errors.New("prefab table locked")
	require.NoError(t, database.DB.Callback().Delete().Before("gorm:delete").Register("test:fail_prefab_delete", func(db *gorm.DB) {
		if db.Statement.Table == "prefabs" {
			_ = db.AddError(failPrefabDelete)
		}
	}))

	_, err = DeletePrefab(ctx, owner, p.ID)
	require.ErrorIs(t, err, failPrefabDelete)

	var answers int64
	database.DB.Model(&models.Answer{}).Where("prefab_id = ?", p.ID).Count(&answers)
	assert.Equal(t, int64(1), answers, "answer delete rolled back")
	cached, err := mr.Get(prefabCachePrefix + p.ID)
	require.NoError(t, err)
	assert.NotEqual(t, prefabTombstone, cached, "cache kept when nothing was deleted")

	_, err = prefabStore().FindByID(ctx, p.ID)
	assert.NoError(t, err)
}

func TestGetPrefabView(t *testing.T) {
	setupTestDB(t)
	setupTestRedis(t)
	tickingClock(t)

	p := createSurvey(t)
	_, err := SubmitAnswer(ctx, stranger, p.ID, map[string]interface{}{"name": "Ada"})
	require.NoError(t, err)

	view, err := GetPrefabView(ctx, stranger, p.ID, false)
	require.NoError(t, err)
	assert.True(t, view.IsAlreadyAnswered)
	require.Len(t, view.Groups, 2)
	assert.Len(t, view.Groups[1].Fields, 1, "hidden team field filtered out")

	view, err = GetPrefabView(ctx, owner, p.ID, true)
	require.NoError(t, err)
	assert.False(t, view.IsAlreadyAnswered)
	assert.Len(t, view.Groups[1].Fields, 2)

	view, err = GetPrefabView(ctx, schema.Caller{}, p.ID, false)
	require.NoError(t, err)
	assert.False(t, view.IsAlreadyAnswered)
	assert.Equal(t, p.CreatedAt.Format(time.RFC3339), view.CreatedAt.Format(time.RFC3339))
}
