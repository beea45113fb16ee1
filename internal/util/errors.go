package util

import "errors"

var (
	// ErrOutOfOrderEvent 活动日期早于已记录的最后活动日，事件被拒绝（上游时钟或重放问题）
	ErrOutOfOrderEvent = errors.New("activity day precedes last recorded activity day")
	// ErrSnapshotImmutable 试图写入已过日界线的历史快照
	ErrSnapshotImmutable = errors.New("snapshot for a closed day is immutable")
	// ErrInvalidRange 历史查询区间倒置或超出最大跨度
	ErrInvalidRange = errors.New("invalid history range")
	// ErrUnknownAchievementCategory 成就目录引用了评估器无法解析的指标类别
	ErrUnknownAchievementCategory = errors.New("unknown achievement category")
	// ErrUnsupportedExportFormat 不支持的导出格式
	ErrUnsupportedExportFormat = errors.New("unsupported export format")
)
