package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"llm_tutor_backend/internal/config"
	"llm_tutor_backend/internal/model"
	"llm_tutor_backend/internal/repository"
	"llm_tutor_backend/internal/util"
	"llm_tutor_backend/pkg/clock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newExportService(db *gorm.DB, storage *StorageService) *ExportService {
	return NewExportService(
		repository.NewMetricsRepository(db),
		repository.NewSkillRepository(db),
		repository.NewSnapshotRepository(db),
		repository.NewEventRepository(db),
		newAchievementService(db),
		storage,
	)
}

func TestExportStructuredDocument(t *testing.T) {
	db := newTestDB(t)
	clk := &clock.Fixed{Current: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
	progress := newProgressService(db, clk)
	require.NoError(t, db.Create(&model.AchievementDefinition{
		Code: "first_exercise", Name: "首次练习",
		Category: model.CategoryExercisesCompleted, Threshold: 1, Points: 5,
	}).Error)

	_, err := progress.RecordExerciseCompletion(CompletionRequest{UserID: 1, Topic: "algebra", Grade: 80, TimeSpentSeconds: 300})
	require.NoError(t, err)

	svc := newExportService(db, nil)
	payload, err := svc.Export(1, ExportStructured)
	require.NoError(t, err)

	assert.Equal(t, "application/json", payload.ContentType)
	assert.Equal(t, "progress_1.json", payload.Filename)

	// 顶层键是对外契约
	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(payload.Data, &doc))
	for _, key := range []string{"metrics", "achievements", "skills", "history"} {
		assert.Contains(t, doc, key)
	}

	var parsed structuredExport
	require.NoError(t, json.Unmarshal(payload.Data, &parsed))
	assert.Equal(t, 1, parsed.Metrics.TotalExercisesCompleted)
	require.Len(t, parsed.Skills, 1)
	assert.Equal(t, "algebra", parsed.Skills[0].Topic)
	require.Len(t, parsed.History, 1)
	require.NotNil(t, parsed.Achievements)
	assert.Equal(t, 1, parsed.Achievements.UnlockedCount)
}

func TestExportTabularRows(t *testing.T) {
	db := newTestDB(t)
	svc := newExportService(db, nil)

	seedEvent(t, db, 1, "2026-03-09", "algebra", 72.5, 300, 1)
	seedEvent(t, db, 1, "2026-03-10", "geometry", 80, 600, 0)
	seedEvent(t, db, 2, "2026-03-10", "algebra", 10, 10, 5) // 其他用户不导出

	payload, err := svc.Export(1, ExportTabular)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", payload.ContentType)

	records, err := csv.NewReader(bytes.NewReader(payload.Data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	// 列顺序是对外契约
	assert.Equal(t, []string{"day", "topic", "grade", "time_spent", "hints"}, records[0])
	assert.Equal(t, []string{"2026-03-09", "algebra", "72.5", "300", "1"}, records[1])
	assert.Equal(t, []string{"2026-03-10", "geometry", "80", "600", "0"}, records[2])
}

func TestExportEmptyUser(t *testing.T) {
	db := newTestDB(t)
	svc := newExportService(db, nil)

	payload, err := svc.Export(9, ExportTabular)
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(payload.Data)).ReadAll()
	require.NoError(t, err)
	// 只有表头
	require.Len(t, records, 1)
}

func TestExportUnsupportedFormat(t *testing.T) {
	db := newTestDB(t)
	svc := newExportService(db, nil)

	_, err := svc.Export(1, ExportFormat("yaml"))
	assert.ErrorIs(t, err, util.ErrUnsupportedExportFormat)
}

func TestArchiveUploadsToStorage(t *testing.T) {
	db := newTestDB(t)
	dir := t.TempDir()
	storage := &StorageService{Provider: &LocalStorageProvider{Config: &config.StorageConfig{LocalPath: dir}}}
	svc := newExportService(db, storage)

	seedEvent(t, db, 1, "2026-03-10", "algebra", 80, 300, 0)

	url, err := svc.Archive(context.Background(), 1, ExportTabular)
	require.NoError(t, err)
	assert.Contains(t, url, "/uploads/exports/1/")
	assert.Contains(t, url, "progress_1.csv")

	var stored string
	require.NoError(t, filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			stored = path
		}
		return nil
	}))
	require.NotEmpty(t, stored)

	data, err := os.ReadFile(stored)
	require.NoError(t, err)
	assert.Contains(t, string(data), "day,topic,grade,time_spent,hints")
}
