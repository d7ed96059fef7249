package repository

import (
	"context"
	"freelyforms-backend/internal/models"
	"freelyforms-backend/internal/schema"
	"iter"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AnswerStore records submissions and answers the "already answered" lookup.
type AnswerStore interface {
	HasAnswered(ctx context.Context, prefabID, callerID string) (bool, error)
	ListAnswers(ctx context.Context, prefabID string) ([]schema.AnswerRecord, error)
	ScanAnswers(ctx context.Context, prefabID string) iter.Seq2[schema.AnswerRecord, error]
	Create(ctx context.Context, rec schema.AnswerRecord) (schema.AnswerRecord, error)
	DeleteByPrefab(ctx context.Context, prefabID string) error
}

type GormAnswerStore struct {
	db *gorm.DB
}

func NewAnswerStore(db *gorm.DB) *GormAnswerStore {
	return &GormAnswerStore{db: db}
}

// HasAnswered is always false for the anonymous caller.
func (s *GormAnswerStore) HasAnswered(ctx context.Context, prefabID, callerID string) (bool, error) {
	if callerID == "" {
		return false, nil
	}
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Answer{}).
		Where("prefab_id = ? AND user_id = ?", prefabID, callerID).
		Limit(1).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *GormAnswerStore) ListAnswers(ctx context.Context, prefabID string) ([]schema.AnswerRecord, error) {
	var recs []models.Answer
	if err := s.answers(ctx, prefabID).Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]schema.AnswerRecord, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toAnswerRecord(rec))
	}
	return out, nil
}

// ScanAnswers streams the answers of a prefab in submission order from a
// database cursor. The sequence can be ranged over once; a failure is
// yielded as the final element.
func (s *GormAnswerStore) ScanAnswers(ctx context.Context, prefabID string) iter.Seq2[schema.AnswerRecord, error] {
	return func(yield func(schema.AnswerRecord, error) bool) {
		db := s.answers(ctx, prefabID)
		rows, err := db.Rows()
		if err != nil {
			yield(schema.AnswerRecord{}, err)
			return
		}
		defer rows.Close()

		for rows.Next() {
			var rec models.Answer
			if err := db.ScanRows(rows, &rec); err != nil {
				yield(schema.AnswerRecord{}, err)
				return
			}
			if !yield(toAnswerRecord(rec), nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(schema.AnswerRecord{}, err)
		}
	}
}

func (s *GormAnswerStore) Create(ctx context.Context, rec schema.AnswerRecord) (schema.AnswerRecord, error) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	values := rec.Values
	if values == nil {
		values = map[string]interface{}{}
	}
	row := models.Answer{
		ID:        rec.ID,
		PrefabID:  rec.PrefabID,
		UserID:    rec.UserID,
		Values:    datatypes.JSONMap(values),
		CreatedAt: rec.CreatedAt,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return schema.AnswerRecord{}, err
	}
	return rec, nil
}

func (s *GormAnswerStore) DeleteByPrefab(ctx context.Context, prefabID string) error {
	return s.db.WithContext(ctx).Where("prefab_id = ?", prefabID).Delete(&models.Answer{}).Error
}

func (s *GormAnswerStore) answers(ctx context.Context, prefabID string) *gorm.DB {
	return s.db.WithContext(ctx).Model(&models.Answer{}).
		Where("prefab_id = ?", prefabID).
		Order("created_at asc, id asc")
}

func toAnswerRecord(rec models.Answer) schema.AnswerRecord {
	return schema.AnswerRecord{
		ID:        rec.ID,
		PrefabID:  rec.PrefabID,
		UserID:    rec.UserID,
		Values:    map[string]interface{}(rec.Values),
		CreatedAt: rec.CreatedAt.UTC(),
	}
}
