package model

import (
	"fmt"
	"time"
)

// DayFormat 日期键格式
const DayFormat = "2006-01-02"

// Day 一天的时长
const Day = 24 * time.Hour

// DayKey 返回 t 所在日历日的日期键
func DayKey(t time.Time) string { return t.Format(DayFormat) }

// StartOfDay 返回 t 所在日历日的 UTC 零点
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay 解析日期键，同时接受 RFC3339 时间
func ParseDay(s string) (time.Time, error) {
	if t, err := time.Parse(DayFormat, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("无效的日期 %q: %w", s, err)
	}
	return t, nil
}

// HoldDays 持仓天数，向下取整
func HoldDays(buy, sell time.Time) int {
	return int(sell.Sub(buy) / Day)
}
