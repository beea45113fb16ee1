package service

import (
	"time"

	"llm_tutor_backend/internal/model"
	"llm_tutor_backend/internal/util"

	"gorm.io/gorm"
)

// snapshotDelta 一次活动对当日快照的增量
type snapshotDelta struct {
	Exercises            int
	TimeSpentSeconds     int
	HintsUsed            int
	GradeSum             float64
	AchievementsUnlocked int
}

// applySnapshotDelta 把增量并入 (用户, 日期) 的快照，必要时懒创建。
// 当天的快照可以反复累加；日界线过后历史快照只读，写入直接拒绝。
// 累计字段每次都镜像最新的 UserMetrics。
func (s *ProgressService) applySnapshotDelta(tx *gorm.DB, userID uint, day time.Time, delta snapshotDelta, metrics *model.UserMetrics) (*model.ProgressSnapshot, error) {
	if day.Before(s.Clock.Today()) {
		return nil, util.ErrSnapshotImmutable
	}

	snapshot, err := s.SnapshotRepo.LockByUserAndDay(tx, userID, day)
	if err != nil {
		return nil, err
	}
	if snapshot == nil {
		snapshot = &model.ProgressSnapshot{UserID: userID, Day: day}
		if err := s.SnapshotRepo.Create(tx, snapshot); err != nil {
			return nil, err
		}
	}

	snapshot.ExercisesCompleted += delta.Exercises
	snapshot.TimeSpentSeconds += delta.TimeSpentSeconds
	snapshot.HintsUsed += delta.HintsUsed
	snapshot.GradeSum += delta.GradeSum
	snapshot.AchievementsUnlocked += delta.AchievementsUnlocked

	snapshot.CurrentStreak = metrics.CurrentStreak
	snapshot.LongestStreak = metrics.LongestStreak
	snapshot.TotalExercisesCompleted = metrics.TotalExercisesCompleted

	if err := s.SnapshotRepo.Save(tx, snapshot); err != nil {
		return nil, err
	}
	return snapshot, nil
}
