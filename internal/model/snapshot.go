package model

import "time"

// ProgressSnapshot 每个 用户×日期 一条的每日进度快照
// 当天可反复累加，日界线过后成为只读历史记录
// swagger:model ProgressSnapshot
type ProgressSnapshot struct {
	BaseModel
	UserID uint      `gorm:"uniqueIndex:idx_user_day;type:bigint unsigned;not null" json:"userId"`
	Day    time.Time `gorm:"uniqueIndex:idx_user_day;not null" json:"day"` // UTC 零点

	// 当日增量
	ExercisesCompleted   int     `gorm:"default:0" json:"exercisesCompleted"`
	TimeSpentSeconds     int     `gorm:"default:0" json:"timeSpentSeconds"`
	HintsUsed            int     `gorm:"default:0" json:"hintsUsed"`
	AchievementsUnlocked int     `gorm:"default:0" json:"achievementsUnlocked"`
	GradeSum             float64 `gorm:"default:0" json:"-"` // 当日成绩总和，用于平均分

	// 截至当日的累计值（镜像自 UserMetrics）
	CurrentStreak           int `gorm:"default:0" json:"currentStreak"`
	LongestStreak           int `gorm:"default:0" json:"longestStreak"`
	TotalExercisesCompleted int `gorm:"default:0" json:"totalExercisesCompleted"`
}

func (ProgressSnapshot) TableName() string {
	return "progress_snapshots"
}

// AverageGrade 当日平均分，没有练习时为 0
func (s *ProgressSnapshot) AverageGrade() float64 {
	if s.ExercisesCompleted == 0 {
		return 0
	}
	return s.GradeSum / float64(s.ExercisesCompleted)
}
