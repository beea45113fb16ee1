package service

import (
	"fmt"
	"os"
	"testing"
	"time"

	"llm_tutor_backend/internal/model"
	"llm_tutor_backend/internal/repository"
	"llm_tutor_backend/pkg/clock"
	"llm_tutor_backend/pkg/logger"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	os.Exit(m.Run())
}

var testDBSeq int

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	testDBSeq++
	dsn := fmt.Sprintf("file:progress_test_%d?mode=memory&cache=shared", testDBSeq)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	// sqlite 不支持并发写事务，单连接让并发用例在连接池上排队
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&model.UserMetrics{},
		&model.ExerciseEvent{},
		&model.TopicSkill{},
		&model.AchievementDefinition{},
		&model.UserAchievement{},
		&model.ProgressSnapshot{},
	))
	return db
}

func newProgressService(db *gorm.DB, clk clock.Clock) *ProgressService {
	achievementService := NewAchievementService(
		repository.NewAchievementRepository(db),
		repository.NewSkillRepository(db),
	)
	return NewProgressService(
		repository.NewMetricsRepository(db),
		repository.NewEventRepository(db),
		repository.NewSkillRepository(db),
		repository.NewSnapshotRepository(db),
		achievementService,
		clk,
		db,
		nil,
		0,
	)
}

func day(value string) time.Time {
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return clock.Day(parsed)
}
