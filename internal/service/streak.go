package service

import (
	"time"

	"llm_tutor_backend/internal/model"
	"llm_tutor_backend/internal/util"
	"llm_tutor_backend/pkg/clock"
)

type StreakStatus string

const (
	StreakStarted    StreakStatus = "started"
	StreakMaintained StreakStatus = "maintained"
	StreakExtended   StreakStatus = "extended"
	StreakBroken     StreakStatus = "broken"
)

type StreakResult struct {
	Status        StreakStatus `json:"status"`
	CurrentStreak int          `json:"currentStreak"`
	LongestStreak int          `json:"longestStreak"`
}

// advanceStreak 将一次活动套用到用户指标上并返回连续打卡的变化。
// 活动日早于已记录的最后活动日视为乱序事件，直接拒绝，指标不动。
func advanceStreak(metrics *model.UserMetrics, activityDay time.Time) (*StreakResult, error) {
	day := clock.Day(activityDay)

	var status StreakStatus
	if metrics.LastActivityDay == nil {
		status = StreakStarted
		metrics.CurrentStreak = 1
	} else {
		delta := clock.DaysBetween(*metrics.LastActivityDay, day)
		switch {
		case delta < 0:
			return nil, util.ErrOutOfOrderEvent
		case delta == 0:
			// 同一天重复活动不改变连续天数
			status = StreakMaintained
		case delta == 1:
			status = StreakExtended
			metrics.CurrentStreak++
		default:
			// 中断后由本次活动立即开启新的连续记录
			status = StreakBroken
			metrics.CurrentStreak = 1
		}
	}

	if metrics.CurrentStreak > metrics.LongestStreak {
		metrics.LongestStreak = metrics.CurrentStreak
	}
	metrics.LastActivityDay = &day

	return &StreakResult{
		Status:        status,
		CurrentStreak: metrics.CurrentStreak,
		LongestStreak: metrics.LongestStreak,
	}, nil
}
