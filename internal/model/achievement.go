package model

import "time"

// AchievementCategory 成就类别，决定评估器从哪个指标取当前值
type AchievementCategory string

const (
	CategoryStreakLength       AchievementCategory = "streak_length"
	CategoryLongestStreak      AchievementCategory = "longest_streak"
	CategoryExercisesCompleted AchievementCategory = "exercises_completed"
	CategorySkillLevelReached  AchievementCategory = "skill_level_reached"
	CategoryTopicsStarted      AchievementCategory = "topics_started"
	CategoryTimeSpent          AchievementCategory = "time_spent"
)

// AchievementDefinition 成就目录（运行时只读，服务启动时播种）
// swagger:model AchievementDefinition
type AchievementDefinition struct {
	BaseModel
	Code        string              `gorm:"size:100;uniqueIndex;not null" json:"code"`
	Name        string              `gorm:"size:100;not null" json:"name"`
	Description string              `gorm:"size:255" json:"description"`
	Category    AchievementCategory `gorm:"size:50;not null;index" json:"category"`
	Threshold   float64             `gorm:"not null" json:"threshold"`
	// SkillLevelReached 类成就的目标等级，其它类别为空
	TargetLevel SkillLevel `gorm:"size:20" json:"targetLevel,omitempty"`
	Points      int        `gorm:"default:0" json:"points"`
	Icon        string     `gorm:"size:255" json:"icon"`
}

func (AchievementDefinition) TableName() string {
	return "achievement_definitions"
}

// UserAchievement 用户×成就 的进度与解锁状态（懒创建）
// 不变式：UnlockedAt 一旦写入不再变更（解锁幂等）
// swagger:model UserAchievement
type UserAchievement struct {
	BaseModel
	UserID        uint       `gorm:"uniqueIndex:idx_user_achievement;type:bigint unsigned;not null" json:"userId"`
	AchievementID uint       `gorm:"uniqueIndex:idx_user_achievement;type:bigint unsigned;not null" json:"achievementId"`
	UnlockedAt    *time.Time `json:"unlockedAt"`
	ProgressValue float64    `gorm:"default:0" json:"progressValue"`

	Definition *AchievementDefinition `gorm:"foreignKey:AchievementID" json:"-"`
}

func (UserAchievement) TableName() string {
	return "user_achievements"
}
