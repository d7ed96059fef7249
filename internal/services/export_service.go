package services

import (
	"context"
	"fmt"
	"freelyforms-backend/internal/schema"
	"freelyforms-backend/pkg/logger"

	"go.uber.org/zap"
)

// AnswerExport is a serialized workbook waiting to be written out.
type AnswerExport struct {
	PrefabID string
	Rows     int
	data     []byte
}

// Filename is the attachment name offered to the client.
func (e *AnswerExport) Filename() string {
	return fmt.Sprintf("answers-%s.xlsx", e.PrefabID)
}

// Bytes is the serialized xlsx workbook.
func (e *AnswerExport) Bytes() []byte {
	return e.data
}

// ExportAnswers renders every answer of a prefab into a spreadsheet, one
// column per field and one row per answer in submission order. Only admins
// may export.
func ExportAnswers(ctx context.Context, caller schema.Caller, prefabID string) (*AnswerExport, error) {
	if !caller.HasRole(schema.RoleAdmin) {
		return nil, &schema.AuthorizationError{CallerID: caller.ID, Action: "export answers of " + prefabID}
	}
	p, err := GetPrefab(ctx, prefabID)
	if err != nil {
		return nil, err
	}

	var scanErr error
	rows := 0
	answers := func(yield func(schema.AnswerRecord) bool) {
		for rec, err := range answerStore().ScanAnswers(ctx, p.ID) {
			if err != nil {
				scanErr = err
				return
			}
			rows++
			if !yield(rec) {
				return
			}
		}
	}

	f, err := writeWorkbook(schema.ToTable(p, answers))
	if err != nil {
		return nil, &schema.ExportIOError{PrefabID: p.ID, Err: err}
	}
	defer f.Close()
	if scanErr != nil {
		return nil, fmt.Errorf("read answers of %s: %w", p.ID, scanErr)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, &schema.ExportIOError{PrefabID: p.ID, Err: err}
	}

	export := &AnswerExport{PrefabID: p.ID, Rows: rows, data: buf.Bytes()}
	archiveExport(ctx, export)

	logger.Log.Info("Answers exported",
		zap.String("prefab_id", p.ID),
		zap.String("caller_id", caller.ID),
		zap.Int("rows", rows),
	)
	return export, nil
}

func archiveExport(ctx context.Context, export *AnswerExport) {
	if Archiver == nil {
		return
	}
	url, err := Archiver.Archive(ctx, export.PrefabID, export.data)
	if err != nil {
		logger.Log.Error("Failed to archive export", zap.String("prefab_id", export.PrefabID), zap.Error(err))
		return
	}
	logger.Log.Info("Export archived", zap.String("prefab_id", export.PrefabID), zap.String("url", url))
}
