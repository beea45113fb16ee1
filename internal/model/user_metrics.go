package model

import "time"

// UserMetrics 用户累计学习指标（每个用户一行，仅由进度引擎写入）
// 不变式：LongestStreak >= CurrentStreak；LastActivityDay 单调不减
// swagger:model UserMetrics
type UserMetrics struct {
	BaseModel
	UserID                  uint       `gorm:"uniqueIndex;type:bigint unsigned;not null" json:"userId"`
	CurrentStreak           int        `gorm:"default:0" json:"currentStreak"`
	LongestStreak           int        `gorm:"default:0" json:"longestStreak"`
	LastActivityDay         *time.Time `json:"lastActivityDay"` // 日期（UTC 零点），nil 表示从未活动
	TotalExercisesCompleted int        `gorm:"default:0" json:"totalExercisesCompleted"`
}

func (UserMetrics) TableName() string {
	return "user_metrics"
}
