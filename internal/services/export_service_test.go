package services

import (
	"bytes"
	"context"
	"errors"
	"freelyforms-backend/internal/database"
	"freelyforms-backend/internal/schema"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

type recordingArchiver struct {
	prefabID string
	data     []byte
	err      error
}

func (a *recordingArchiver) Archive(_ context.Context, prefabID string, data []byte) (string, error) {
	a.prefabID = prefabID
	a.data = data
	return "https://bucket.example.com/" + prefabID, a.err
}

func openWorkbook(t *testing.T, export *AnswerExport) *excelize.File {
	f, err := excelize.OpenReader(bytes.NewReader(export.Bytes()))
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func cell(t *testing.T, f *excelize.File, axis string) string {
	v, err := f.GetCellValue(answersSheet, axis)
	require.NoError(t, err)
	return v
}

func TestExportAnswers(t *testing.T) {
	setupTestDB(t)
	setupTestRedis(t)
	tickingClock(t)

	p := createSurvey(t)
	_, err := SubmitAnswer(ctx, stranger, p.ID, map[string]interface{}{
		"name":  "Ada",
		"age":   float64(36.5),
		"team":  "a",
		"langs": []interface{}{"go", "sql"},
	})
	require.NoError(t, err)
	_, err = SubmitAnswer(ctx, schema.Caller{}, p.ID, map[string]interface{}{"name": "Bob"})
	require.NoError(t, err)

	export, err := ExportAnswers(ctx, admin, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "answers-"+p.ID+".xlsx", export.Filename())
	assert.Equal(t, 2, export.Rows)

	f := openWorkbook(t, export)

	// Header carries every field, hidden ones included, label or id
	assert.Equal(t, "Name", cell(t, f, "A1"))
	assert.Equal(t, "Age", cell(t, f, "B1"))
	assert.Equal(t, "Team", cell(t, f, "C1"))
	assert.Equal(t, "langs", cell(t, f, "D1"))

	assert.Equal(t, "Ada", cell(t, f, "A2"))
	assert.Equal(t, "36.5", cell(t, f, "B2"))
	assert.Equal(t, "Alpha", cell(t, f, "C2"))
	assert.Equal(t, "Go; SQL", cell(t, f, "D2"))

	assert.Equal(t, "Bob", cell(t, f, "A3"))
	assert.Equal(t, "", cell(t, f, "B3"))
	assert.Equal(t, "", cell(t, f, "A4"))
}

func TestExportAnswersEmpty(t *testing.T) {
	setupTestDB(t)
	setupTestRedis(t)

	p := createSurvey(t)
	export, err := ExportAnswers(ctx, admin, p.ID)
	require.NoError(t, err)
	assert.Zero(t, export.Rows)

	f := openWorkbook(t, export)
	assert.Equal(t, "Name", cell(t, f, "A1"))
	assert.Equal(t, "", cell(t, f, "A2"))
}

func TestExportAnswersRequiresAdmin(t *testing.T) {
	setupTestDB(t)
	setupTestRedis(t)

	p := createSurvey(t)
	for _, caller := range []schema.Caller{owner, stranger, {}} {
		_, err := ExportAnswers(ctx, caller, p.ID)
		var ae *schema.AuthorizationError
		assert.ErrorAs(t, err, &ae)
	}

	_, err := ExportAnswers(ctx, admin, "missing")
	var nf *schema.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestExportAnswersArchives(t *testing.T) {
	setupTestDB(t)
	setupTestRedis(t)

	archiver := &recordingArchiver{}
	Archiver = archiver
	defer func() { Archiver = nil }()

	p := createSurvey(t)
	export, err := ExportAnswers(ctx, admin, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, archiver.prefabID)
	assert.Equal(t, export.Bytes(), archiver.data)

	// A failing archive does not fail the export
	archiver.err = errors.New("bucket unavailable")
	_, err = ExportAnswers(ctx, admin, p.ID)
	assert.NoError(t, err)
}

func TestExportAnswersSerializationFailure(t *testing.T) {
	setupTestDB(t)
	setupTestRedis(t)

	archiver := &recordingArchiver{}
	Archiver = archiver
	diskFull := errors.New("disk full")
	writeWorkbook = func(schema.Table) (*excelize.File, error) { return nil, diskFull }
	defer func() {
		Archiver = nil
		writeWorkbook = streamWorkbook
	}()

	p := createSurvey(t)
	_, err := ExportAnswers(ctx, admin, p.ID)
	var eio *schema.ExportIOError
	require.ErrorAs(t, err, &eio)
	assert.Equal(t, p.ID, eio.PrefabID)
	assert.ErrorIs(t, err, diskFull)
	assert.Empty(t, archiver.prefabID, "nothing archived")
}

func TestExportAnswersScanFailure(t *testing.T) {
	setupTestDB(t)
	setupTestRedis(t)

	p := createSurvey(t)
	_, err := SubmitAnswer(ctx, stranger, p.ID, map[string]interface{}{"name": "Ada"})
	require.NoError(t, err)

	cursorLost := errors.New("cursor lost")
	require.NoError(t, database.DB.Callback().Row().Before("gorm:row").Register("test:fail_answer_rows", func(db *gorm.DB) {
		if db.Statement.Table == "answers" {
			_ = db.AddError(cursorLost)
		}
	}))

	export, err := ExportAnswers(ctx, admin, p.ID)
	require.ErrorIs(t, err, cursorLost)
	assert.Nil(t, export)
	var eio *schema.ExportIOError
	assert.False(t, errors.As(err, &eio), "read failures are not writer failures")
}
