package clock

import "time"

// Clock 提供当前参考日。引擎内所有“今天”的判断都来自这里，
// 日界线统一按 UTC 自然日处理（不做按用户时区切分）。
type Clock interface {
	Now() time.Time
	Today() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

func (systemClock) Today() time.Time {
	return Day(time.Now())
}

// System 系统时钟
func System() Clock {
	return systemClock{}
}

// Day 将任意时间归一化到所属 UTC 自然日的零点
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween 返回 to - from 的整天数，from、to 需为 Day 归一化后的值
func DaysBetween(from, to time.Time) int {
	return int(Day(to).Sub(Day(from)).Hours() / 24)
}

// Fixed 固定时钟，测试用
type Fixed struct {
	Current time.Time
}

func (f *Fixed) Now() time.Time {
	return f.Current.UTC()
}

func (f *Fixed) Today() time.Time {
	return Day(f.Current)
}

// Advance 前移固定时钟
func (f *Fixed) Advance(d time.Duration) {
	f.Current = f.Current.Add(d)
}
