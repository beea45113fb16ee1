package service

import (
	"fmt"
	"math"
	"time"

	"llm_tutor_backend/internal/model"
	"llm_tutor_backend/internal/repository"
	"llm_tutor_backend/internal/util"
	"llm_tutor_backend/pkg/logger"
	"llm_tutor_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type AchievementService struct {
	AchievementRepo *repository.AchievementRepository
	SkillRepo       *repository.SkillRepository
}

func NewAchievementService(
	achievementRepo *repository.AchievementRepository,
	skillRepo *repository.SkillRepository,
) *AchievementService {
	return &AchievementService{
		AchievementRepo: achievementRepo,
		SkillRepo:       skillRepo,
	}
}

type AchievementEvaluation struct {
	AchievementID   uint    `json:"achievementId"`
	Code            string  `json:"code"`
	Name            string  `json:"name"`
	Points          int     `json:"points"`
	Unlocked        bool    `json:"unlocked"`
	NewlyUnlocked   bool    `json:"newlyUnlocked"`
	ProgressPercent float64 `json:"progressPercent"`
}

// metricResolver 把成就类别映射到当前指标值。
// 封闭的查表派发：新增类别必须在这里登记，否则按未知类别跳过。
type metricResolver func(tx *gorm.DB, s *AchievementService, userID uint, metrics *model.UserMetrics, def *model.AchievementDefinition) (float64, error)

var categoryResolvers = map[model.AchievementCategory]metricResolver{
	model.CategoryStreakLength: func(tx *gorm.DB, s *AchievementService, userID uint, metrics *model.UserMetrics, def *model.AchievementDefinition) (float64, error) {
		return float64(metrics.CurrentStreak), nil
	},
	model.CategoryLongestStreak: func(tx *gorm.DB, s *AchievementService, userID uint, metrics *model.UserMetrics, def *model.AchievementDefinition) (float64, error) {
		return float64(metrics.LongestStreak), nil
	},
	model.CategoryExercisesCompleted: func(tx *gorm.DB, s *AchievementService, userID uint, metrics *model.UserMetrics, def *model.AchievementDefinition) (float64, error) {
		return float64(metrics.TotalExercisesCompleted), nil
	},
	model.CategorySkillLevelReached: func(tx *gorm.DB, s *AchievementService, userID uint, metrics *model.UserMetrics, def *model.AchievementDefinition) (float64, error) {
		count, err := s.SkillRepo.CountAtOrAbove(tx, userID, def.TargetLevel)
		return float64(count), err
	},
	model.CategoryTopicsStarted: func(tx *gorm.DB, s *AchievementService, userID uint, metrics *model.UserMetrics, def *model.AchievementDefinition) (float64, error) {
		count, err := s.SkillRepo.CountByUser(tx, userID)
		return float64(count), err
	},
	model.CategoryTimeSpent: func(tx *gorm.DB, s *AchievementService, userID uint, metrics *model.UserMetrics, def *model.AchievementDefinition) (float64, error) {
		total, err := s.SkillRepo.SumTimeSpent(tx, userID)
		return float64(total), err
	},
}

// Evaluate 对照成就目录评估用户的全部成就，更新进度并返回评估结果。
// 解锁只发生一次：UnlockedAt 已写入的成就无论指标如何增长都不再变化。
// 未知类别的条目记录告警后跳过，不影响同批其它成就。
func (s *AchievementService) Evaluate(tx *gorm.DB, userID uint, metrics *model.UserMetrics, now time.Time) ([]AchievementEvaluation, error) {
	definitions, err := s.AchievementRepo.FindAllDefinitions(tx)
	if err != nil {
		return nil, err
	}

	results := make([]AchievementEvaluation, 0, len(definitions))
	for i := range definitions {
		def := &definitions[i]

		resolver, ok := categoryResolvers[def.Category]
		if !ok {
			logger.Log.Warn("skipping achievement with unknown category",
				zap.String("code", def.Code),
				zap.String("category", string(def.Category)),
				zap.Error(util.ErrUnknownAchievementCategory))
			continue
		}

		value, err := resolver(tx, s, userID, metrics, def)
		if err != nil {
			return nil, fmt.Errorf("resolve %s metric: %w", def.Category, err)
		}

		progress, err := s.AchievementRepo.LockProgress(tx, userID, def.ID)
		if err != nil {
			return nil, err
		}

		progress.ProgressValue = value

		evaluation := AchievementEvaluation{
			AchievementID:   def.ID,
			Code:            def.Code,
			Name:            def.Name,
			Points:          def.Points,
			Unlocked:        progress.UnlockedAt != nil,
			ProgressPercent: progressPercent(value, def.Threshold),
		}

		if progress.UnlockedAt == nil && value >= def.Threshold {
			unlockedAt := now
			progress.UnlockedAt = &unlockedAt
			evaluation.Unlocked = true
			evaluation.NewlyUnlocked = true
			monitoring.AchievementsUnlocked.Inc()
			logger.Log.Info("achievement unlocked",
				zap.Uint("userId", userID),
				zap.String("code", def.Code))
		}

		if err := s.AchievementRepo.SaveProgress(tx, progress); err != nil {
			return nil, err
		}

		results = append(results, evaluation)
	}

	return results, nil
}

func progressPercent(value, threshold float64) float64 {
	if threshold <= 0 {
		return 100
	}
	return math.Min(100, 100*value/threshold)
}

type AchievementView struct {
	Code            string                    `json:"code"`
	Name            string                    `json:"name"`
	Description     string                    `json:"description"`
	Category        model.AchievementCategory `json:"category"`
	Icon            string                    `json:"icon"`
	Points          int                       `json:"points"`
	Unlocked        bool                      `json:"unlocked"`
	UnlockedAt      *time.Time                `json:"unlockedAt,omitempty"`
	ProgressPercent float64                   `json:"progressPercent"`
}

type UserAchievements struct {
	TotalPoints   int               `json:"totalPoints"`
	UnlockedCount int               `json:"unlockedCount"`
	Achievements  []AchievementView `json:"achievements"`
}

// GetUserAchievements 成就目录与用户解锁状态的合并视图（只读）
func (s *AchievementService) GetUserAchievements(userID uint) (*UserAchievements, error) {
	definitions, err := s.AchievementRepo.FindAllDefinitions(nil)
	if err != nil {
		return nil, err
	}

	progress, err := s.AchievementRepo.FindByUserID(userID)
	if err != nil {
		return nil, err
	}

	progressByID := make(map[uint]*model.UserAchievement, len(progress))
	for i := range progress {
		progressByID[progress[i].AchievementID] = &progress[i]
	}

	overview := &UserAchievements{Achievements: make([]AchievementView, 0, len(definitions))}
	for i := range definitions {
		def := &definitions[i]
		view := AchievementView{
			Code:        def.Code,
			Name:        def.Name,
			Description: def.Description,
			Category:    def.Category,
			Icon:        def.Icon,
			Points:      def.Points,
		}

		if p, ok := progressByID[def.ID]; ok {
			view.ProgressPercent = progressPercent(p.ProgressValue, def.Threshold)
			if p.UnlockedAt != nil {
				view.Unlocked = true
				view.UnlockedAt = p.UnlockedAt
				overview.TotalPoints += def.Points
				overview.UnlockedCount++
			}
		}

		overview.Achievements = append(overview.Achievements, view)
	}

	return overview, nil
}
