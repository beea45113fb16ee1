package service

import (
	"fmt"
	"time"

	"llm_tutor_backend/internal/model"
	"llm_tutor_backend/internal/repository"
	"llm_tutor_backend/internal/util"
	"llm_tutor_backend/pkg/clock"
)

type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
	PeriodAll     Period = "all"
)

type StatisticsService struct {
	EventRepo    *repository.EventRepository
	SnapshotRepo *repository.SnapshotRepository
	Clock        clock.Clock
	// MaxSpanDays 历史查询允许的最大跨度（天）
	MaxSpanDays int
	// TrendDays 趋势序列的天数窗口
	TrendDays int
}

func NewStatisticsService(
	eventRepo *repository.EventRepository,
	snapshotRepo *repository.SnapshotRepository,
	clk clock.Clock,
	maxSpanDays, trendDays int,
) *StatisticsService {
	if maxSpanDays <= 0 {
		maxSpanDays = 366
	}
	if trendDays <= 0 {
		trendDays = 7
	}
	return &StatisticsService{
		EventRepo:    eventRepo,
		SnapshotRepo: snapshotRepo,
		Clock:        clk,
		MaxSpanDays:  maxSpanDays,
		TrendDays:    trendDays,
	}
}

type TrendPoint struct {
	Day          string  `json:"day"`
	AverageGrade float64 `json:"averageGrade"`
}

type Statistics struct {
	Period                Period         `json:"period"`
	ExercisesCompleted    int            `json:"exercisesCompleted"`
	AverageGrade          float64        `json:"averageGrade"`
	AverageTimeSpent      float64        `json:"averageTimeSpent"` // 每次练习的平均秒数
	TotalHints            int            `json:"totalHints"`
	ExerciseCountsByTopic map[string]int `json:"exerciseCountsByTopic"`
	Trend                 []TrendPoint   `json:"trend"`
}

// GetStatistics 按周期汇总统计。当天取原始事件，更长周期基于每日快照；
// 趋势为最近 TrendDays 个有快照日期的日均分序列，最旧在前，不足不报错。
func (s *StatisticsService) GetStatistics(userID uint, period Period) (*Statistics, error) {
	today := s.Clock.Today()
	stats := &Statistics{Period: period, ExerciseCountsByTopic: map[string]int{}}

	switch period {
	case PeriodDaily:
		events, err := s.EventRepo.FindByUserAndDay(userID, today)
		if err != nil {
			return nil, err
		}
		var gradeSum float64
		var timeSum int
		for _, e := range events {
			gradeSum += e.Grade
			timeSum += e.TimeSpentSeconds
			stats.TotalHints += e.HintsUsed
			stats.ExerciseCountsByTopic[e.Topic]++
		}
		stats.ExercisesCompleted = len(events)
		if len(events) > 0 {
			stats.AverageGrade = gradeSum / float64(len(events))
			stats.AverageTimeSpent = float64(timeSum) / float64(len(events))
		}

	case PeriodWeekly, PeriodMonthly, PeriodAll:
		var snapshots []model.ProgressSnapshot
		var from time.Time
		var err error
		switch period {
		case PeriodWeekly:
			from = today.AddDate(0, 0, -6)
		case PeriodMonthly:
			from = today.AddDate(0, 0, -29)
		}
		if period == PeriodAll {
			snapshots, err = s.SnapshotRepo.FindAllByUser(userID)
		} else {
			snapshots, err = s.SnapshotRepo.FindByUserSince(userID, from)
		}
		if err != nil {
			return nil, err
		}

		var gradeSum float64
		var timeSum int
		for _, snap := range snapshots {
			stats.ExercisesCompleted += snap.ExercisesCompleted
			gradeSum += snap.GradeSum
			timeSum += snap.TimeSpentSeconds
			stats.TotalHints += snap.HintsUsed
		}
		if stats.ExercisesCompleted > 0 {
			stats.AverageGrade = gradeSum / float64(stats.ExercisesCompleted)
			stats.AverageTimeSpent = float64(timeSum) / float64(stats.ExercisesCompleted)
		}

		// 快照不按主题拆分，主题分布回到事件历史
		if err := s.countTopics(userID, period, from, stats.ExerciseCountsByTopic); err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("unsupported statistics period %q", period)
	}

	trend, err := s.gradeTrend(userID)
	if err != nil {
		return nil, err
	}
	stats.Trend = trend

	return stats, nil
}

func (s *StatisticsService) countTopics(userID uint, period Period, from time.Time, counts map[string]int) error {
	var events []model.ExerciseEvent
	var err error
	if period == PeriodAll {
		events, err = s.EventRepo.FindAllByUser(userID)
	} else {
		events, err = s.EventRepo.FindByUserSince(userID, from)
	}
	if err != nil {
		return err
	}
	for _, e := range events {
		counts[e.Topic]++
	}
	return nil
}

func (s *StatisticsService) gradeTrend(userID uint) ([]TrendPoint, error) {
	snapshots, err := s.SnapshotRepo.FindRecent(userID, s.TrendDays)
	if err != nil {
		return nil, err
	}
	trend := make([]TrendPoint, 0, len(snapshots))
	for _, snap := range snapshots {
		trend = append(trend, TrendPoint{
			Day:          snap.Day.Format("2006-01-02"),
			AverageGrade: snap.AverageGrade(),
		})
	}
	return trend, nil
}

type HistoryQuery struct {
	// Days 最近 N 天（含今天），与 StartDate/EndDate 二选一
	Days      int
	StartDate *time.Time
	EndDate   *time.Time
}

// GetHistory 按日升序返回区间内的快照，边界含端点。
// 区间倒置或超出 MaxSpanDays 时返回 InvalidRange；空区间返回空序列而非错误。
func (s *StatisticsService) GetHistory(userID uint, query HistoryQuery) ([]model.ProgressSnapshot, error) {
	today := s.Clock.Today()

	var from, to time.Time
	switch {
	case query.StartDate != nil || query.EndDate != nil:
		if query.StartDate == nil || query.EndDate == nil {
			return nil, fmt.Errorf("%w: both start and end dates are required", util.ErrInvalidRange)
		}
		from = clock.Day(*query.StartDate)
		to = clock.Day(*query.EndDate)
		if from.After(to) {
			return nil, fmt.Errorf("%w: start %s after end %s",
				util.ErrInvalidRange, from.Format("2006-01-02"), to.Format("2006-01-02"))
		}
		if span := clock.DaysBetween(from, to) + 1; span > s.MaxSpanDays {
			return nil, fmt.Errorf("%w: span of %d days exceeds maximum of %d",
				util.ErrInvalidRange, span, s.MaxSpanDays)
		}
	default:
		days := query.Days
		if days <= 0 {
			days = 30
		}
		if days > s.MaxSpanDays {
			return nil, fmt.Errorf("%w: %d days exceeds maximum of %d",
				util.ErrInvalidRange, days, s.MaxSpanDays)
		}
		to = today
		from = today.AddDate(0, 0, -(days - 1))
	}

	snapshots, err := s.SnapshotRepo.FindByUserBetween(userID, from, to)
	if err != nil {
		return nil, err
	}
	return snapshots, nil
}
