package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"llm_tutor_backend/internal/model"
	"llm_tutor_backend/internal/repository"
	"llm_tutor_backend/pkg/clock"
	"llm_tutor_backend/pkg/logger"
	"llm_tutor_backend/pkg/monitoring"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ProgressService struct {
	MetricsRepo        *repository.MetricsRepository
	EventRepo          *repository.EventRepository
	SkillRepo          *repository.SkillRepository
	SnapshotRepo       *repository.SnapshotRepository
	AchievementService *AchievementService
	Clock              clock.Clock
	DB                 *gorm.DB
	Redis              *redis.Client
	CacheTTL           time.Duration
}

func NewProgressService(
	metricsRepo *repository.MetricsRepository,
	eventRepo *repository.EventRepository,
	skillRepo *repository.SkillRepository,
	snapshotRepo *repository.SnapshotRepository,
	achievementService *AchievementService,
	clk clock.Clock,
	db *gorm.DB,
	rdb *redis.Client,
	cacheTTL time.Duration,
) *ProgressService {
	return &ProgressService{
		MetricsRepo:        metricsRepo,
		EventRepo:          eventRepo,
		SkillRepo:          skillRepo,
		SnapshotRepo:       snapshotRepo,
		AchievementService: achievementService,
		Clock:              clk,
		DB:                 db,
		Redis:              rdb,
		CacheTTL:           cacheTTL,
	}
}

type CompletionRequest struct {
	UserID           uint
	Topic            string
	Grade            float64
	TimeSpentSeconds int
	HintsUsed        int
	// OccurredOn 事件归属日，为空时取时钟的“今天”
	OccurredOn *time.Time
}

type CompletionResult struct {
	Streak                  StreakResult            `json:"streak"`
	Skill                   SkillUpdate             `json:"skill"`
	TotalExercisesCompleted int                     `json:"totalExercisesCompleted"`
	NewAchievements         []AchievementEvaluation `json:"newAchievements"`
}

// RecordExerciseCompletion 处理一次练习完成事件：
// 连续打卡 → 主题技能 → 成就评估 → 当日快照，整链在一个事务内完成，
// 用户指标行先加锁，保证同一用户的并发事件串行生效（全有或全无）。
func (s *ProgressService) RecordExerciseCompletion(req CompletionRequest) (*CompletionResult, error) {
	day := s.Clock.Today()
	if req.OccurredOn != nil {
		day = clock.Day(*req.OccurredOn)
	}
	now := s.Clock.Now()

	var result CompletionResult
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		metrics, err := s.MetricsRepo.LockForUpdate(tx, req.UserID)
		if err != nil {
			return err
		}

		streak, err := advanceStreak(metrics, day)
		if err != nil {
			monitoring.OutOfOrderEvents.Inc()
			logger.Log.Warn("rejected out-of-order exercise event",
				zap.Uint("userId", req.UserID),
				zap.Time("activityDay", day),
				zap.Timep("lastActivityDay", metrics.LastActivityDay))
			return err
		}
		result.Streak = *streak

		metrics.TotalExercisesCompleted++
		result.TotalExercisesCompleted = metrics.TotalExercisesCompleted
		if err := s.MetricsRepo.Save(tx, metrics); err != nil {
			return err
		}

		event := &model.ExerciseEvent{
			UserID:           req.UserID,
			Topic:            req.Topic,
			Grade:            req.Grade,
			TimeSpentSeconds: req.TimeSpentSeconds,
			HintsUsed:        req.HintsUsed,
			OccurredOn:       day,
		}
		if err := s.EventRepo.Create(tx, event); err != nil {
			return err
		}

		skill, err := s.SkillRepo.LockByUserAndTopic(tx, req.UserID, req.Topic)
		if err != nil {
			return err
		}
		result.Skill = applyExerciseToSkill(skill, req.Grade, req.TimeSpentSeconds, now)
		if err := s.SkillRepo.Save(tx, skill); err != nil {
			return err
		}

		evaluations, err := s.AchievementService.Evaluate(tx, req.UserID, metrics, now)
		if err != nil {
			return err
		}
		newlyUnlocked := 0
		for _, e := range evaluations {
			if e.NewlyUnlocked {
				newlyUnlocked++
				result.NewAchievements = append(result.NewAchievements, e)
			}
		}

		delta := snapshotDelta{
			Exercises:            1,
			TimeSpentSeconds:     req.TimeSpentSeconds,
			HintsUsed:            req.HintsUsed,
			GradeSum:             req.Grade,
			AchievementsUnlocked: newlyUnlocked,
		}
		if _, err := s.applySnapshotDelta(tx, req.UserID, day, delta, metrics); err != nil {
			return err
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateOverview(req.UserID)
	monitoring.ExerciseEventsProcessed.Inc()
	logger.Log.Info("exercise completion recorded",
		zap.Uint("userId", req.UserID),
		zap.String("topic", req.Topic),
		zap.String("streakStatus", string(result.Streak.Status)),
		zap.Int("currentStreak", result.Streak.CurrentStreak),
		zap.Int("newAchievements", len(result.NewAchievements)))

	return &result, nil
}

type MetricsView struct {
	CurrentStreak           int        `json:"currentStreak"`
	LongestStreak           int        `json:"longestStreak"`
	LastActivityDay         *time.Time `json:"lastActivityDay"`
	TotalExercisesCompleted int        `json:"totalExercisesCompleted"`
}

type UserProgress struct {
	Metrics      MetricsView        `json:"metrics"`
	Skills       []model.TopicSkill `json:"skills"`
	Achievements *UserAchievements  `json:"achievements"`
}

// GetUserProgress 用户进度总览（只读投影，短 TTL 缓存，写路径负责失效）
func (s *ProgressService) GetUserProgress(userID uint) (*UserProgress, error) {
	if cached := s.cachedOverview(userID); cached != nil {
		return cached, nil
	}

	overview := &UserProgress{}

	metrics, err := s.MetricsRepo.FindByUserID(userID)
	if err != nil && err != gorm.ErrRecordNotFound {
		return nil, err
	}
	if metrics != nil {
		overview.Metrics = MetricsView{
			CurrentStreak:           metrics.CurrentStreak,
			LongestStreak:           metrics.LongestStreak,
			LastActivityDay:         metrics.LastActivityDay,
			TotalExercisesCompleted: metrics.TotalExercisesCompleted,
		}
	}

	skills, err := s.SkillRepo.FindByUserID(userID)
	if err != nil {
		return nil, err
	}
	overview.Skills = skills

	achievements, err := s.AchievementService.GetUserAchievements(userID)
	if err != nil {
		return nil, err
	}
	overview.Achievements = achievements

	s.cacheOverview(userID, overview)
	return overview, nil
}

func overviewCacheKey(userID uint) string {
	return fmt.Sprintf("progress:overview:%d", userID)
}

func (s *ProgressService) cachedOverview(userID uint) *UserProgress {
	if s.Redis == nil {
		return nil
	}
	data, err := s.Redis.Get(context.Background(), overviewCacheKey(userID)).Bytes()
	if err != nil {
		return nil
	}
	var overview UserProgress
	if err := json.Unmarshal(data, &overview); err != nil {
		return nil
	}
	return &overview
}

func (s *ProgressService) cacheOverview(userID uint, overview *UserProgress) {
	if s.Redis == nil {
		return
	}
	data, err := json.Marshal(overview)
	if err != nil {
		return
	}
	if err := s.Redis.Set(context.Background(), overviewCacheKey(userID), data, s.CacheTTL).Err(); err != nil {
		logger.Log.Warn("failed to cache progress overview", zap.Error(err))
	}
}

func (s *ProgressService) invalidateOverview(userID uint) {
	if s.Redis == nil {
		return
	}
	if err := s.Redis.Del(context.Background(), overviewCacheKey(userID)).Err(); err != nil {
		logger.Log.Warn("failed to invalidate progress overview cache", zap.Error(err))
	}
}
