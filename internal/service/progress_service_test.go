package service

import (
	"testing"
	"time"

	"llm_tutor_backend/internal/model"
	"llm_tutor_backend/internal/util"
	"llm_tutor_backend/pkg/clock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestRecordExerciseCompletionFullFlow(t *testing.T) {
	db := newTestDB(t)
	clk := &clock.Fixed{Current: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
	svc := newProgressService(db, clk)
	require.NoError(t, db.Create(&model.AchievementDefinition{
		Code: "first_exercise", Name: "首次练习",
		Category: model.CategoryExercisesCompleted, Threshold: 1, Points: 5,
	}).Error)

	result, err := svc.RecordExerciseCompletion(CompletionRequest{
		UserID:           1,
		Topic:            "algebra",
		Grade:            80,
		TimeSpentSeconds: 300,
		HintsUsed:        1,
	})
	require.NoError(t, err)

	assert.Equal(t, StreakStarted, result.Streak.Status)
	assert.Equal(t, 1, result.Streak.CurrentStreak)
	assert.Equal(t, 1, result.TotalExercisesCompleted)
	assert.Equal(t, model.SkillBeginner, result.Skill.Level)
	require.Len(t, result.NewAchievements, 1)
	assert.Equal(t, "first_exercise", result.NewAchievements[0].Code)

	// 事务提交后各实体都应落库
	metrics, err := svc.MetricsRepo.FindByUserID(1)
	require.NoError(t, err)
	assert.Equal(t, 1, metrics.TotalExercisesCompleted)
	require.NotNil(t, metrics.LastActivityDay)
	assert.Equal(t, day("2026-03-10"), *metrics.LastActivityDay)

	events, err := svc.EventRepo.FindByUserAndDay(1, day("2026-03-10"))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "algebra", events[0].Topic)

	snapshots, err := svc.SnapshotRepo.FindAllByUser(1)
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	assert.Equal(t, 1, snapshots[0].ExercisesCompleted)
	assert.Equal(t, 300, snapshots[0].TimeSpentSeconds)
	assert.Equal(t, 1, snapshots[0].HintsUsed)
	assert.Equal(t, 1, snapshots[0].AchievementsUnlocked)
	assert.Equal(t, 1, snapshots[0].CurrentStreak)
	assert.InDelta(t, 80, snapshots[0].AverageGrade(), 1e-9)
}

func TestRecordExerciseCompletionSameDayAccumulates(t *testing.T) {
	db := newTestDB(t)
	clk := &clock.Fixed{Current: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
	svc := newProgressService(db, clk)

	_, err := svc.RecordExerciseCompletion(CompletionRequest{UserID: 1, Topic: "algebra", Grade: 80, TimeSpentSeconds: 300})
	require.NoError(t, err)

	result, err := svc.RecordExerciseCompletion(CompletionRequest{UserID: 1, Topic: "algebra", Grade: 60, TimeSpentSeconds: 200, HintsUsed: 2})
	require.NoError(t, err)

	// 同一天的第二次练习不改变连续天数
	assert.Equal(t, StreakMaintained, result.Streak.Status)
	assert.Equal(t, 1, result.Streak.CurrentStreak)
	assert.Equal(t, 2, result.TotalExercisesCompleted)

	snapshots, err := svc.SnapshotRepo.FindAllByUser(1)
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	assert.Equal(t, 2, snapshots[0].ExercisesCompleted)
	assert.Equal(t, 500, snapshots[0].TimeSpentSeconds)
	assert.Equal(t, 2, snapshots[0].HintsUsed)
	assert.InDelta(t, 70, snapshots[0].AverageGrade(), 1e-9)
}

func TestRecordExerciseCompletionStreakAcrossDays(t *testing.T) {
	db := newTestDB(t)
	clk := &clock.Fixed{Current: time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC)}
	svc := newProgressService(db, clk)

	_, err := svc.RecordExerciseCompletion(CompletionRequest{UserID: 1, Topic: "algebra", Grade: 70})
	require.NoError(t, err)

	clk.Advance(24 * time.Hour)
	result, err := svc.RecordExerciseCompletion(CompletionRequest{UserID: 1, Topic: "algebra", Grade: 70})
	require.NoError(t, err)
	assert.Equal(t, StreakExtended, result.Streak.Status)
	assert.Equal(t, 2, result.Streak.CurrentStreak)

	// 中断三天后回归，连续数归一但最长纪录保留
	clk.Advance(72 * time.Hour)
	result, err = svc.RecordExerciseCompletion(CompletionRequest{UserID: 1, Topic: "algebra", Grade: 70})
	require.NoError(t, err)
	assert.Equal(t, StreakBroken, result.Streak.Status)
	assert.Equal(t, 1, result.Streak.CurrentStreak)
	assert.Equal(t, 2, result.Streak.LongestStreak)
}

func TestRecordExerciseCompletionRejectsOutOfOrder(t *testing.T) {
	db := newTestDB(t)
	clk := &clock.Fixed{Current: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
	svc := newProgressService(db, clk)

	_, err := svc.RecordExerciseCompletion(CompletionRequest{UserID: 1, Topic: "algebra", Grade: 70})
	require.NoError(t, err)

	earlier := day("2026-03-09")
	_, err = svc.RecordExerciseCompletion(CompletionRequest{
		UserID:     1,
		Topic:      "algebra",
		Grade:      90,
		OccurredOn: &earlier,
	})
	assert.ErrorIs(t, err, util.ErrOutOfOrderEvent)

	// 被拒事件不留下任何痕迹
	metrics, err := svc.MetricsRepo.FindByUserID(1)
	require.NoError(t, err)
	assert.Equal(t, 1, metrics.TotalExercisesCompleted)

	events, err := svc.EventRepo.FindAllByUser(1)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestRecordExerciseCompletionRejectsClosedSnapshot(t *testing.T) {
	db := newTestDB(t)
	clk := &clock.Fixed{Current: time.Date(2026, 3, 11, 8, 0, 0, 0, time.UTC)}
	svc := newProgressService(db, clk)

	// 从未活动的用户补报昨天的事件：打卡校验放行，但昨天的快照已关账
	yesterday := day("2026-03-10")
	_, err := svc.RecordExerciseCompletion(CompletionRequest{
		UserID:     1,
		Topic:      "algebra",
		Grade:      70,
		OccurredOn: &yesterday,
	})
	assert.ErrorIs(t, err, util.ErrSnapshotImmutable)

	// 整个事务回滚，全有或全无
	_, err = svc.MetricsRepo.FindByUserID(1)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	events, err := svc.EventRepo.FindAllByUser(1)
	require.NoError(t, err)
	assert.Empty(t, events)

	snapshots, err := svc.SnapshotRepo.FindAllByUser(1)
	require.NoError(t, err)
	assert.Empty(t, snapshots)
}

func TestRecordExerciseCompletionSerializesPerUser(t *testing.T) {
	db := newTestDB(t)
	clk := &clock.Fixed{Current: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
	svc := newProgressService(db, clk)

	done := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() {
			_, err := svc.RecordExerciseCompletion(CompletionRequest{UserID: 1, Topic: "algebra", Grade: 70, TimeSpentSeconds: 60})
			done <- err
		}()
	}
	for i := 0; i < 8; i++ {
		require.NoError(t, <-done)
	}

	metrics, err := svc.MetricsRepo.FindByUserID(1)
	require.NoError(t, err)
	assert.Equal(t, 8, metrics.TotalExercisesCompleted)
	assert.Equal(t, 1, metrics.CurrentStreak)

	snapshots, err := svc.SnapshotRepo.FindAllByUser(1)
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	assert.Equal(t, 8, snapshots[0].ExercisesCompleted)
	assert.Equal(t, 480, snapshots[0].TimeSpentSeconds)
}

func TestGetUserProgressOverview(t *testing.T) {
	db := newTestDB(t)
	clk := &clock.Fixed{Current: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
	svc := newProgressService(db, clk)
	require.NoError(t, db.Create(&model.AchievementDefinition{
		Code: "first_exercise", Name: "首次练习",
		Category: model.CategoryExercisesCompleted, Threshold: 1, Points: 5,
	}).Error)

	_, err := svc.RecordExerciseCompletion(CompletionRequest{UserID: 1, Topic: "algebra", Grade: 80, TimeSpentSeconds: 300})
	require.NoError(t, err)
	_, err = svc.RecordExerciseCompletion(CompletionRequest{UserID: 1, Topic: "geometry", Grade: 60, TimeSpentSeconds: 200})
	require.NoError(t, err)

	overview, err := svc.GetUserProgress(1)
	require.NoError(t, err)

	assert.Equal(t, 1, overview.Metrics.CurrentStreak)
	assert.Equal(t, 2, overview.Metrics.TotalExercisesCompleted)
	assert.Len(t, overview.Skills, 2)
	require.NotNil(t, overview.Achievements)
	assert.Equal(t, 1, overview.Achievements.UnlockedCount)
	assert.Equal(t, 5, overview.Achievements.TotalPoints)
}

func TestGetUserProgressEmptyUser(t *testing.T) {
	db := newTestDB(t)
	svc := newProgressService(db, &clock.Fixed{Current: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)})

	overview, err := svc.GetUserProgress(42)
	require.NoError(t, err)

	assert.Equal(t, 0, overview.Metrics.CurrentStreak)
	assert.Nil(t, overview.Metrics.LastActivityDay)
	assert.Empty(t, overview.Skills)
	require.NotNil(t, overview.Achievements)
	assert.Equal(t, 0, overview.Achievements.UnlockedCount)
}
