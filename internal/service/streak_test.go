package service

import (
	"testing"

	"llm_tutor_backend/internal/model"
	"llm_tutor_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdvanceStreakFirstActivity(t *testing.T) {
	metrics := &model.UserMetrics{UserID: 1}

	result, err := advanceStreak(metrics, day("2026-03-10"))
	require.NoError(t, err)

	assert.Equal(t, StreakStarted, result.Status)
	assert.Equal(t, 1, result.CurrentStreak)
	assert.Equal(t, 1, result.LongestStreak)
	require.NotNil(t, metrics.LastActivityDay)
	assert.Equal(t, day("2026-03-10"), *metrics.LastActivityDay)
}

func TestAdvanceStreakConsecutiveDayExtends(t *testing.T) {
	last := day("2026-03-10")
	metrics := &model.UserMetrics{UserID: 1, CurrentStreak: 5, LongestStreak: 5, LastActivityDay: &last}

	result, err := advanceStreak(metrics, day("2026-03-11"))
	require.NoError(t, err)

	assert.Equal(t, StreakExtended, result.Status)
	assert.Equal(t, 6, result.CurrentStreak)
	assert.Equal(t, 6, result.LongestStreak)
}

func TestAdvanceStreakSameDayMaintains(t *testing.T) {
	last := day("2026-03-10")
	metrics := &model.UserMetrics{UserID: 1, CurrentStreak: 5, LongestStreak: 8, LastActivityDay: &last}

	result, err := advanceStreak(metrics, day("2026-03-10"))
	require.NoError(t, err)

	assert.Equal(t, StreakMaintained, result.Status)
	assert.Equal(t, 5, result.CurrentStreak)
	assert.Equal(t, 8, result.LongestStreak)
}

func TestAdvanceStreakGapResetsKeepingLongest(t *testing.T) {
	last := day("2026-03-10")
	metrics := &model.UserMetrics{UserID: 1, CurrentStreak: 6, LongestStreak: 6, LastActivityDay: &last}

	result, err := advanceStreak(metrics, day("2026-03-14"))
	require.NoError(t, err)

	assert.Equal(t, StreakBroken, result.Status)
	assert.Equal(t, 1, result.CurrentStreak)
	assert.Equal(t, 6, result.LongestStreak)
	assert.Equal(t, day("2026-03-14"), *metrics.LastActivityDay)
}

func TestAdvanceStreakRejectsOutOfOrderActivity(t *testing.T) {
	last := day("2026-03-10")
	metrics := &model.UserMetrics{UserID: 1, CurrentStreak: 3, LongestStreak: 3, LastActivityDay: &last}

	result, err := advanceStreak(metrics, day("2026-03-09"))
	assert.ErrorIs(t, err, util.ErrOutOfOrderEvent)
	assert.Nil(t, result)

	// 指标不能被失败的事件污染
	assert.Equal(t, 3, metrics.CurrentStreak)
	assert.Equal(t, 3, metrics.LongestStreak)
	assert.Equal(t, day("2026-03-10"), *metrics.LastActivityDay)
}

func TestAdvanceStreakLongestNeverBelowCurrent(t *testing.T) {
	metrics := &model.UserMetrics{UserID: 1}
	days := []string{
		"2026-03-01", "2026-03-02", "2026-03-03", // 连续三天
		"2026-03-07",               // 中断重来
		"2026-03-08", "2026-03-08", // 同天重复
		"2026-03-09", "2026-03-10", "2026-03-11",
	}

	for _, d := range days {
		result, err := advanceStreak(metrics, day(d))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, result.LongestStreak, result.CurrentStreak, "after %s", d)
		assert.Equal(t, metrics.LongestStreak, result.LongestStreak)
	}

	assert.Equal(t, 5, metrics.CurrentStreak)
	assert.Equal(t, 5, metrics.LongestStreak)
}
