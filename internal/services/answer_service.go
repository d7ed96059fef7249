package services

import (
	"context"
	"fmt"
	"freelyforms-backend/internal/schema"
	"freelyforms-backend/pkg/logger"

	"go.uber.org/zap"
)

// IsAlreadyAnswered reports whether caller has submitted answers to the
// prefab. Anonymous callers never have.
func IsAlreadyAnswered(ctx context.Context, caller schema.Caller, prefabID string) (bool, error) {
	if caller.IsAnonymous() {
		return false, nil
	}
	answered, err := answerStore().HasAnswered(ctx, prefabID, caller.ID)
	if err != nil {
		return false, fmt.Errorf("lookup answers of %s to %s: %w", caller.ID, prefabID, err)
	}
	return answered, nil
}

// SubmitAnswer validates values against the prefab and stores them. An
// inactive prefab yields schema.ErrPrefabInactive; invalid values yield a
// *schema.AnswerValidationError listing every violation.
func SubmitAnswer(ctx context.Context, caller schema.Caller, prefabID string, values map[string]interface{}) (schema.AnswerRecord, error) {
	p, err := GetPrefab(ctx, prefabID)
	if err != nil {
		return schema.AnswerRecord{}, err
	}
	if err := p.ValidateAnswers(values); err != nil {
		return schema.AnswerRecord{}, err
	}

	rec, err := answerStore().Create(ctx, schema.AnswerRecord{
		PrefabID:  p.ID,
		UserID:    caller.ID,
		Values:    values,
		CreatedAt: now().UTC(),
	})
	if err != nil {
		return schema.AnswerRecord{}, fmt.Errorf("store answer to %s: %w", p.ID, err)
	}
	logger.Log.Info("Answer submitted",
		zap.String("prefab_id", p.ID),
		zap.String("answer_id", rec.ID),
		zap.Bool("anonymous", caller.IsAnonymous()),
	)
	return rec, nil
}
