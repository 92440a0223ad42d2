// Package model 定义回测器中使用的核心数据结构。
package model

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	// ErrEmptySeries K 线序列为空
	ErrEmptySeries = errors.New("K 线序列为空")
	// ErrUnsortedSeries K 线时间戳未严格递增（含重复）
	ErrUnsortedSeries = errors.New("K 线时间戳未严格递增")
	// ErrInvalidBar K 线字段非法
	ErrInvalidBar = errors.New("K 线数据非法")
)

// Bar 单根 K 线
type Bar struct {
	// Timestamp bar 时间戳
	Timestamp time.Time
	// Open 开盘价
	Open float64
	// High 最高价
	High float64
	// Low 最低价
	Low float64
	// Close 收盘价
	Close float64
	// Volume 成交量
	Volume int64
}

// BarSeries 按时间升序排列的 K 线序列
// 构造完成后视为只读，可被多个执行策略并发读取。
type BarSeries struct {
	// Symbol 标的代码
	Symbol string
	// Bars K 线列表
	Bars []Bar
}

// Len 返回 bar 数量
func (s BarSeries) Len() int {
	return len(s.Bars)
}

// Closes 返回收盘价切片（新分配）
func (s BarSeries) Closes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Close
	}
	return out
}

// Opens 返回开盘价切片（新分配）
func (s BarSeries) Opens() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Open
	}
	return out
}

// Validate 校验序列：非空、时间戳严格递增、收盘价为有限正数
// 返回: 首个违规项的描述性错误（可用 errors.Is 匹配哨兵错误）
func (s BarSeries) Validate() error {
	if len(s.Bars) == 0 {
		return ErrEmptySeries
	}
	for i, b := range s.Bars {
		if math.IsNaN(b.Close) || math.IsInf(b.Close, 0) || b.Close <= 0 {
			return fmt.Errorf("bar[%d] 收盘价 %v: %w", i, b.Close, ErrInvalidBar)
		}
		if math.IsNaN(b.Open) || math.IsInf(b.Open, 0) || b.Open < 0 {
			return fmt.Errorf("bar[%d] 开盘价 %v: %w", i, b.Open, ErrInvalidBar)
		}
		if i > 0 && !b.Timestamp.After(s.Bars[i-1].Timestamp) {
			return fmt.Errorf("bar[%d] %s 不晚于 bar[%d] %s: %w",
				i, b.Timestamp.Format(time.RFC3339), i-1, s.Bars[i-1].Timestamp.Format(time.RFC3339), ErrUnsortedSeries)
		}
	}
	return nil
}
