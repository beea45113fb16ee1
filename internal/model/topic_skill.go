package model

import "time"

type SkillLevel string

const (
	SkillBeginner     SkillLevel = "beginner"
	SkillIntermediate SkillLevel = "intermediate"
	SkillAdvanced     SkillLevel = "advanced"
	SkillExpert       SkillLevel = "expert"
)

var skillLevelRank = map[SkillLevel]int{
	SkillBeginner:     0,
	SkillIntermediate: 1,
	SkillAdvanced:     2,
	SkillExpert:       3,
}

// Rank 返回等级的序号，Beginner=0 ... Expert=3，未知等级返回 -1
func (l SkillLevel) Rank() int {
	if r, ok := skillLevelRank[l]; ok {
		return r
	}
	return -1
}

// TopicSkill 用户在某个主题上的技能状态（每个 用户×主题 一行）
// Level 始终由 (ExercisesInTopic, AverageGrade) 重新计算得出，不允许手工设置
// swagger:model TopicSkill
type TopicSkill struct {
	BaseModel
	UserID           uint        `gorm:"uniqueIndex:idx_user_topic;type:bigint unsigned;not null" json:"userId"`
	Topic            string      `gorm:"size:100;uniqueIndex:idx_user_topic;not null" json:"topic"`
	Level            SkillLevel  `gorm:"size:20;default:'beginner'" json:"level"`
	ExercisesInTopic int         `gorm:"default:0" json:"exercisesInTopic"`
	AverageGrade     float64     `gorm:"default:0" json:"averageGrade"`
	TimeSpentSeconds int         `gorm:"default:0" json:"timeSpentSeconds"`
	PreviousLevel    *SkillLevel `gorm:"size:20" json:"previousLevel"`
	LevelUpdatedAt   *time.Time  `json:"levelUpdatedAt"`
}

func (TopicSkill) TableName() string {
	return "topic_skills"
}
