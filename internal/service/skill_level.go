package service

import (
	"time"

	"llm_tutor_backend/internal/model"
)

type SkillUpdate struct {
	Topic         string            `json:"topic"`
	Level         model.SkillLevel  `json:"level"`
	Changed       bool              `json:"changed"`
	PreviousLevel *model.SkillLevel `json:"previousLevel,omitempty"`
}

// LevelFor 由 (主题内练习数, 平均分) 决定技能等级。
// 练习数划定可达的档位，平均分为每次晋级把关：
//   Beginner [0,10)；Intermediate [10,30) 且均分>=60；
//   Advanced [30,50) 且均分>=70；Expert >=50 且均分>=80。
// 练习数达标但均分不足时停留在均分满足的最高档，因此均分下滑会降级。
func LevelFor(exercisesInTopic int, averageGrade float64) model.SkillLevel {
	level := model.SkillBeginner
	if exercisesInTopic >= 10 && averageGrade >= 60 {
		level = model.SkillIntermediate
	}
	if exercisesInTopic >= 30 && averageGrade >= 70 {
		level = model.SkillAdvanced
	}
	if exercisesInTopic >= 50 && averageGrade >= 80 {
		level = model.SkillExpert
	}
	return level
}

// applyExerciseToSkill 把一次练习并入主题技能并重算等级。
// 等级变化时记录上一等级与变更时间（只保留最近一次）。
func applyExerciseToSkill(skill *model.TopicSkill, grade float64, timeSpentSeconds int, now time.Time) SkillUpdate {
	n := skill.ExercisesInTopic
	skill.AverageGrade = (skill.AverageGrade*float64(n) + grade) / float64(n+1)
	skill.ExercisesInTopic = n + 1
	skill.TimeSpentSeconds += timeSpentSeconds

	newLevel := LevelFor(skill.ExercisesInTopic, skill.AverageGrade)
	update := SkillUpdate{Topic: skill.Topic, Level: newLevel}

	if newLevel != skill.Level {
		previous := skill.Level
		update.Changed = true
		update.PreviousLevel = &previous

		skill.PreviousLevel = &previous
		changedAt := now
		skill.LevelUpdatedAt = &changedAt
		skill.Level = newLevel
	}

	return update
}
