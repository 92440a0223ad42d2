// Package simtest 提供模拟器测试用的固定数据：脚本化信号源、固定期权链与序列构造。
package simtest

import (
	"fmt"
	"time"

	"options-overlay-backtester/internal/core/model"
	"options-overlay-backtester/internal/util/timeutil"
)

// Day0 序列首个 bar 的时间戳（美东收盘，UTC 表示）
var Day0 = time.Date(2022, 1, 3, 21, 0, 0, 0, time.UTC)

// Series 由收盘价构造日线序列，开盘价等于前收盘
func Series(closes []float64) model.BarSeries {
	bars := make([]model.Bar, len(closes))
	for i, c := range closes {
		open := c
		if i > 0 {
			open = closes[i-1]
		}
		bars[i] = model.Bar{Timestamp: Day0.AddDate(0, 0, i), Open: open, High: c, Low: c, Close: c, Volume: 1000}
	}
	return model.BarSeries{Symbol: "TSLA", Bars: bars}
}

// Flat 构造 n 根收盘价恒定的序列
func Flat(n int, price float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = price
	}
	return out
}

// Scripted 按索引脚本化的信号源
// Strict 为真时，预热期前的查询直接 panic。
type Scripted struct {
	WarmupIndex int
	Enter       map[int]bool
	Exit        map[int]bool
	Strict      bool
}

// Warmup 实现 signal.Source
func (s *Scripted) Warmup() int { return s.WarmupIndex }

// ShouldEnter 实现 signal.Source
func (s *Scripted) ShouldEnter(i int) bool {
	s.check(i)
	return s.Enter[i]
}

// ShouldExit 实现 signal.Source
func (s *Scripted) ShouldExit(i int) bool {
	s.check(i)
	return s.Exit[i]
}

func (s *Scripted) check(i int) {
	if s.Strict && i < s.WarmupIndex {
		panic(fmt.Sprintf("simtest: 索引 %d 早于预热期 %d", i, s.WarmupIndex))
	}
}

// Chains 固定期权链：除 Missing 中的交易日外每天返回同一条链
type Chains struct {
	Chain   model.OptionChain
	Missing map[string]bool
}

// ChainFor 实现 model.ChainProvider
func (c Chains) ChainFor(ts time.Time) (model.OptionChain, bool) {
	if c.Missing[timeutil.DateKey(ts, time.UTC)] {
		return model.OptionChain{}, false
	}
	ch := c.Chain
	ch.Date = ts
	return ch, true
}

// MissingAt 将若干 bar 索引对应的交易日标记为缺失
func MissingAt(idx ...int) map[string]bool {
	out := make(map[string]bool, len(idx))
	for _, i := range idx {
		out[timeutil.DateKey(Day0.AddDate(0, 0, i), time.UTC)] = true
	}
	return out
}

// Call 标准测试合约：delta 0.30、theta 0.01、DTE 35 的看涨期权
func Call() model.OptionContract {
	return model.OptionContract{
		Underlying: "TSLA",
		Type:       model.OptionCall,
		Strike:     200,
		Expiration: Day0.AddDate(0, 2, 0),
		Delta:      0.30,
		DTE:        35,
		Theta:      0.01,
	}
}

// CallChain 仅包含 Call() 的期权链
func CallChain() model.OptionChain {
	return model.OptionChain{Underlying: "TSLA", Contracts: []model.OptionContract{Call()}}
}
