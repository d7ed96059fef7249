package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"freelyforms-backend/internal/models"
	"freelyforms-backend/internal/schema"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PrefabStore persists prefabs. FindByID and DeleteByID return
// *schema.NotFoundError for unknown ids.
type PrefabStore interface {
	FindByID(ctx context.Context, id string) (*schema.Prefab, error)
	FindByOwner(ctx context.Context, ownerID string) ([]*schema.Prefab, error)
	Save(ctx context.Context, p *schema.Prefab) (*schema.Prefab, error)
	DeleteByID(ctx context.Context, id string) error
}

type GormPrefabStore struct {
	db *gorm.DB
}

func NewPrefabStore(db *gorm.DB) *GormPrefabStore {
	return &GormPrefabStore{db: db}
}

// Columns rewritten when an existing prefab is saved. owner_id and
// created_at are never part of an update.
var mutablePrefabColumns = []string{"name", "description", "tags", "is_active", "field_groups", "updated_at"}

func (s *GormPrefabStore) FindByID(ctx context.Context, id string) (*schema.Prefab, error) {
	var rec models.Prefab
	if err := s.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &schema.NotFoundError{ID: id}
		}
		return nil, err
	}
	return FromRecord(rec)
}

func (s *GormPrefabStore) FindByOwner(ctx context.Context, ownerID string) ([]*schema.Prefab, error) {
	var recs []models.Prefab
	if err := s.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("created_at desc").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]*schema.Prefab, 0, len(recs))
	for _, rec := range recs {
		p, err := FromRecord(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Save inserts p or overwrites the mutable columns of an existing row. Two
// concurrent saves of the same id resolve last-write-wins.
func (s *GormPrefabStore) Save(ctx context.Context, p *schema.Prefab) (*schema.Prefab, error) {
	rec, err := ToRecord(p)
	if err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(mutablePrefabColumns),
	}).Create(&rec).Error
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *GormPrefabStore) DeleteByID(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Delete(&models.Prefab{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return &schema.NotFoundError{ID: id}
	}
	return nil
}

// ToRecord converts a prefab to its table row.
func ToRecord(p *schema.Prefab) (models.Prefab, error) {
	snap := p.Snapshot()
	groups, err := json.Marshal(snap.Groups)
	if err != nil {
		return models.Prefab{}, fmt.Errorf("encode groups of prefab %s: %w", p.ID, err)
	}
	tags := snap.Tags
	if tags == nil {
		tags = []string{}
	}
	return models.Prefab{
		ID:          snap.ID,
		Name:        snap.Name,
		Description: snap.Description,
		Tags:        datatypes.JSONSlice[string](tags),
		IsActive:    snap.IsActive,
		Groups:      datatypes.JSON(groups),
		OwnerID:     snap.OwnerID,
		CreatedAt:   snap.CreatedAt,
		UpdatedAt:   snap.UpdatedAt,
	}, nil
}

// FromRecord rebuilds a prefab from its table row.
func FromRecord(rec models.Prefab) (*schema.Prefab, error) {
	var groups []schema.GroupInput
	if len(rec.Groups) > 0 {
		if err := json.Unmarshal(rec.Groups, &groups); err != nil {
			return nil, fmt.Errorf("decode groups of prefab %s: %w", rec.ID, err)
		}
	}
	p, err := schema.Restore(schema.Snapshot{
		ID:          rec.ID,
		Name:        rec.Name,
		Description: rec.Description,
		Tags:        []string(rec.Tags),
		IsActive:    rec.IsActive,
		Groups:      groups,
		CreatedAt:   rec.CreatedAt.UTC(),
		UpdatedAt:   rec.UpdatedAt.UTC(),
		OwnerID:     rec.OwnerID,
	})
	if err != nil {
		return nil, fmt.Errorf("restore prefab %s: %w", rec.ID, err)
	}
	return p, nil
}
