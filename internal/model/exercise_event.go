package model

import "time"

// ExerciseEvent 单次练习完成事件（逐条保留，统计与导出的原始数据）
// swagger:model ExerciseEvent
type ExerciseEvent struct {
	BaseModel
	UserID           uint      `gorm:"index:idx_event_user_day;type:bigint unsigned;not null" json:"userId"`
	Topic            string    `gorm:"size:100;not null;index" json:"topic"`
	Grade            float64   `gorm:"not null" json:"grade"` // 0-100
	TimeSpentSeconds int       `gorm:"default:0" json:"timeSpentSeconds"`
	HintsUsed        int       `gorm:"default:0" json:"hintsUsed"`
	OccurredOn       time.Time `gorm:"not null;index:idx_event_user_day" json:"occurredOn"` // 事件归属日（UTC 零点）
}

func (ExerciseEvent) TableName() string {
	return "exercise_events"
}
