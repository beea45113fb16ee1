package service

import (
	"testing"
	"time"

	"llm_tutor_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFor(t *testing.T) {
	tests := []struct {
		name      string
		exercises int
		average   float64
		want      model.SkillLevel
	}{
		{"no exercises", 0, 0, model.SkillBeginner},
		{"high grades but too few exercises", 9, 100, model.SkillBeginner},
		{"enough exercises but average below gate", 10, 59.9, model.SkillBeginner},
		{"intermediate lower bound", 10, 60, model.SkillIntermediate},
		{"intermediate upper range", 29, 95, model.SkillIntermediate},
		{"advanced lower bound", 30, 70, model.SkillAdvanced},
		{"advanced count with intermediate grades", 35, 65, model.SkillIntermediate},
		{"expert lower bound", 50, 80, model.SkillExpert},
		{"expert count gated to advanced", 120, 79.9, model.SkillAdvanced},
		{"expert count gated to beginner", 50, 59, model.SkillBeginner},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LevelFor(tt.exercises, tt.average))
			// 纯函数：同样的输入必须得到同样的结果
			assert.Equal(t, tt.want, LevelFor(tt.exercises, tt.average))
		})
	}
}

func TestApplyExerciseToSkillFirstExercise(t *testing.T) {
	skill := &model.TopicSkill{UserID: 1, Topic: "algebra", Level: model.SkillBeginner}
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	update := applyExerciseToSkill(skill, 80, 300, now)

	assert.Equal(t, 1, skill.ExercisesInTopic)
	assert.InDelta(t, 80, skill.AverageGrade, 1e-9)
	assert.Equal(t, 300, skill.TimeSpentSeconds)
	assert.Equal(t, model.SkillBeginner, skill.Level)
	assert.False(t, update.Changed)
	assert.Nil(t, skill.LevelUpdatedAt)
}

func TestApplyExerciseToSkillPromotion(t *testing.T) {
	skill := &model.TopicSkill{
		UserID:           1,
		Topic:            "algebra",
		Level:            model.SkillBeginner,
		ExercisesInTopic: 9,
		AverageGrade:     58,
	}
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	update := applyExerciseToSkill(skill, 80, 120, now)

	// (58*9 + 80) / 10 = 60.2，第十次练习把均分抬过晋级线
	assert.Equal(t, 10, skill.ExercisesInTopic)
	assert.InDelta(t, 60.2, skill.AverageGrade, 1e-9)
	assert.Equal(t, model.SkillIntermediate, skill.Level)

	assert.True(t, update.Changed)
	require.NotNil(t, update.PreviousLevel)
	assert.Equal(t, model.SkillBeginner, *update.PreviousLevel)
	require.NotNil(t, skill.PreviousLevel)
	assert.Equal(t, model.SkillBeginner, *skill.PreviousLevel)
	require.NotNil(t, skill.LevelUpdatedAt)
	assert.Equal(t, now, *skill.LevelUpdatedAt)
}

func TestApplyExerciseToSkillDemotion(t *testing.T) {
	skill := &model.TopicSkill{
		UserID:           1,
		Topic:            "geometry",
		Level:            model.SkillAdvanced,
		ExercisesInTopic: 30,
		AverageGrade:     70,
	}
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	update := applyExerciseToSkill(skill, 0, 60, now)

	// 70*30/31 ≈ 67.74，跌破 Advanced 的均分门槛
	assert.Equal(t, model.SkillIntermediate, skill.Level)
	assert.True(t, update.Changed)
	require.NotNil(t, update.PreviousLevel)
	assert.Equal(t, model.SkillAdvanced, *update.PreviousLevel)
}

func TestApplyExerciseToSkillNoChangeKeepsHistory(t *testing.T) {
	previous := model.SkillBeginner
	changedAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	skill := &model.TopicSkill{
		UserID:           1,
		Topic:            "algebra",
		Level:            model.SkillIntermediate,
		ExercisesInTopic: 12,
		AverageGrade:     75,
		PreviousLevel:    &previous,
		LevelUpdatedAt:   &changedAt,
	}

	update := applyExerciseToSkill(skill, 75, 60, time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))

	assert.False(t, update.Changed)
	assert.Equal(t, model.SkillIntermediate, skill.Level)
	// 等级没变时不覆盖上一次变更的记录
	assert.Equal(t, changedAt, *skill.LevelUpdatedAt)
	assert.Equal(t, model.SkillBeginner, *skill.PreviousLevel)
}
