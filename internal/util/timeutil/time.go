// Package timeutil 提供交易日与时间戳换算的工具函数。
// 主要用于将 bar 时间戳映射到期权链的交易日键。
package timeutil

import (
	"time"
)

// DateLayout 交易日键格式
const DateLayout = time.DateOnly

// DateKey 将时间戳换算为指定时区下的交易日键
// 参数 t: 时间戳
// 参数 loc: 时区，nil 视为 UTC
// 返回: 形如 2023-01-03 的字符串
func DateKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DateLayout)
}

// ParseDate 解析交易日字符串
// 参数 s: 形如 2023-01-03 的日期
// 参数 loc: 时区，nil 视为 UTC
// 返回: 该时区当日零点
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation(DateLayout, s, loc)
}

// StartOfDay 返回时间戳在指定时区的当日零点
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// DaysBetween 计算两个日期之间的自然日数（按日历日，不足一天不计）
// 参数 from: 起始日期
// 参数 to: 结束日期
// 返回: to - from 的天数，to 早于 from 时为负
func DaysBetween(from, to time.Time) int {
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()
	a := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	b := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

// MsToTime 将毫秒时间戳转换为 UTC time.Time
// 参数 ms: 毫秒时间戳
// 返回: time.Time 对象
func MsToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// TimeToMs 将 time.Time 转换为毫秒时间戳
func TimeToMs(t time.Time) int64 {
	return t.UnixMilli()
}
