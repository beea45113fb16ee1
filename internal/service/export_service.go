package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"llm_tutor_backend/internal/model"
	"llm_tutor_backend/internal/repository"
	"llm_tutor_backend/internal/util"

	"gorm.io/gorm"
)

type ExportFormat string

const (
	ExportStructured ExportFormat = "structured"
	ExportTabular    ExportFormat = "tabular"
)

type ExportService struct {
	MetricsRepo        *repository.MetricsRepository
	SkillRepo          *repository.SkillRepository
	SnapshotRepo       *repository.SnapshotRepository
	EventRepo          *repository.EventRepository
	AchievementService *AchievementService
	Storage            *StorageService
}

func NewExportService(
	metricsRepo *repository.MetricsRepository,
	skillRepo *repository.SkillRepository,
	snapshotRepo *repository.SnapshotRepository,
	eventRepo *repository.EventRepository,
	achievementService *AchievementService,
	storage *StorageService,
) *ExportService {
	return &ExportService{
		MetricsRepo:        metricsRepo,
		SkillRepo:          skillRepo,
		SnapshotRepo:       snapshotRepo,
		EventRepo:          eventRepo,
		AchievementService: achievementService,
		Storage:            storage,
	}
}

type ExportPayload struct {
	Data        []byte
	ContentType string
	Filename    string
}

// structuredExport 结构化导出的文档结构。
// 顶层键 metrics/achievements/skills/history 是对外兼容契约，不能改名。
type structuredExport struct {
	Metrics      MetricsView              `json:"metrics"`
	Achievements *UserAchievements        `json:"achievements"`
	Skills       []model.TopicSkill       `json:"skills"`
	History      []model.ProgressSnapshot `json:"history"`
}

// Export 导出用户进度。structured 为完整嵌套 JSON 文档；
// tabular 为每条练习事件一行的 CSV（列序 day,topic,grade,time_spent,hints，
// 同样是兼容契约）。两种格式都是纯读投影。
func (s *ExportService) Export(userID uint, format ExportFormat) (*ExportPayload, error) {
	switch format {
	case ExportStructured:
		return s.exportStructured(userID)
	case ExportTabular:
		return s.exportTabular(userID)
	default:
		return nil, fmt.Errorf("%w: %q", util.ErrUnsupportedExportFormat, format)
	}
}

func (s *ExportService) exportStructured(userID uint) (*ExportPayload, error) {
	doc := structuredExport{}

	metrics, err := s.MetricsRepo.FindByUserID(userID)
	if err != nil && err != gorm.ErrRecordNotFound {
		return nil, err
	}
	if metrics != nil {
		doc.Metrics = MetricsView{
			CurrentStreak:           metrics.CurrentStreak,
			LongestStreak:           metrics.LongestStreak,
			LastActivityDay:         metrics.LastActivityDay,
			TotalExercisesCompleted: metrics.TotalExercisesCompleted,
		}
	}

	doc.Achievements, err = s.AchievementService.GetUserAchievements(userID)
	if err != nil {
		return nil, err
	}

	doc.Skills, err = s.SkillRepo.FindByUserID(userID)
	if err != nil {
		return nil, err
	}

	doc.History, err = s.SnapshotRepo.FindAllByUser(userID)
	if err != nil {
		return nil, err
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}

	return &ExportPayload{
		Data:        data,
		ContentType: "application/json",
		Filename:    fmt.Sprintf("progress_%d.json", userID),
	}, nil
}

func (s *ExportService) exportTabular(userID uint) (*ExportPayload, error) {
	events, err := s.EventRepo.FindAllByUser(userID)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	// 列顺序是对外契约
	if err := writer.Write([]string{"day", "topic", "grade", "time_spent", "hints"}); err != nil {
		return nil, err
	}
	for _, e := range events {
		record := []string{
			e.OccurredOn.Format("2006-01-02"),
			e.Topic,
			strconv.FormatFloat(e.Grade, 'f', -1, 64),
			strconv.Itoa(e.TimeSpentSeconds),
			strconv.Itoa(e.HintsUsed),
		}
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}

	return &ExportPayload{
		Data:        buf.Bytes(),
		ContentType: "text/csv",
		Filename:    fmt.Sprintf("progress_%d.csv", userID),
	}, nil
}

// Archive 渲染导出内容并交给存储层投递，返回可下载地址
func (s *ExportService) Archive(ctx context.Context, userID uint, format ExportFormat) (string, error) {
	payload, err := s.Export(userID, format)
	if err != nil {
		return "", err
	}

	objectName := fmt.Sprintf("exports/%d/%s_%s_%s",
		userID, time.Now().UTC().Format("20060102"), model.GenerateUUID(), payload.Filename)

	url, err := s.Storage.Upload(ctx, objectName, bytes.NewReader(payload.Data), int64(len(payload.Data)), payload.ContentType)
	if err != nil {
		return "", fmt.Errorf("archive export: %w", err)
	}
	return url, nil
}
