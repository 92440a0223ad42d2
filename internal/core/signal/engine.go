// Package signal 实现入场/出场信号源。
package signal

import (
	"fmt"
	"math"

	"options-overlay-backtester/internal/config"
	"options-overlay-backtester/internal/core/indicator"
	"options-overlay-backtester/internal/core/model"
)

// Source 信号源
// ShouldEnter/ShouldExit 只允许在 i >= Warmup() 时调用，否则视为调用方错误。
// 实现必须是只读的，允许多个执行策略并发查询。
type Source interface {
	// Warmup 最早可查询的 bar 索引
	Warmup() int
	// ShouldEnter i 处是否入场
	ShouldEnter(i int) bool
	// ShouldExit i 处是否出场
	ShouldExit(i int) bool
}

// Engine 波动率优化信号引擎
// 构造时一次性算出整条序列的决策，之后只读。
//
// 每个 bar（从预热期开始）：
//   - 开盘相对前收盘跳空超过 gap_pct：进入 gap_cooldown_bars 个 bar 的观望期，并清空入场计数
//   - 出场条件 RSI > exit_rsi 或快线 < 慢线：SELL
//   - 入场条件 快线 > 慢线 且 RSI < entry_rsi 连续成立 confirm_bars 个 bar：BUY
//   - 其余：HOLD
type Engine struct {
	// cfg 信号配置
	cfg config.SignalConfig
	// warmup 最早可查询索引：慢线 SMA 与 RSI 均已定义
	warmup int
	// decisions 按 bar 索引的决策
	decisions []model.Decision
}

var _ Source = (*Engine)(nil)

// NewEngine 创建信号引擎并计算全部决策
// 参数 series: K 线序列（需已通过校验）
// 参数 cfg: 信号配置
func NewEngine(series model.BarSeries, cfg config.SignalConfig) *Engine {
	e := &Engine{
		cfg:       cfg,
		warmup:    max(cfg.SlowPeriod, cfg.RSIPeriod),
		decisions: make([]model.Decision, series.Len()),
	}
	e.compute(series)
	return e
}

func (e *Engine) compute(series model.BarSeries) {
	n := series.Len()
	if n <= e.warmup {
		return
	}

	closes := series.Closes()
	opens := series.Opens()
	regime := indicator.NewRegime(closes, e.cfg.FastPeriod, e.cfg.SlowPeriod)
	rsi := indicator.RSI(closes, e.cfg.RSIPeriod)

	cooldown := 0
	streak := 0
	for i := e.warmup; i < n; i++ {
		if isGap(opens[i], closes[i-1], e.cfg.GapPct) {
			cooldown = e.cfg.GapCooldownBars
		}
		if cooldown > 0 {
			cooldown--
			streak = 0
			continue
		}

		fast, slow := regime.Fast(i), regime.Slow(i)
		exit := rsi[i] > e.cfg.ExitRSI || fast < slow
		entry := fast > slow && rsi[i] < e.cfg.EntryRSI

		if entry {
			streak++
		} else {
			streak = 0
		}

		switch {
		case exit:
			e.decisions[i] = model.DecisionSell
		case streak >= e.cfg.ConfirmBars:
			e.decisions[i] = model.DecisionBuy
		}
	}
}

// isGap 开盘相对前收盘的变动比例是否超过阈值
func isGap(open, prevClose, pct float64) bool {
	if prevClose <= 0 {
		return false
	}
	return math.Abs(open-prevClose)/prevClose > pct
}

// Warmup 最早可查询的 bar 索引
func (e *Engine) Warmup() int {
	return e.warmup
}

// Decision 返回 i 处的决策
// 注意：i 早于预热期时 panic
func (e *Engine) Decision(i int) model.Decision {
	if i < e.warmup {
		panic(fmt.Sprintf("signal: 索引 %d 早于预热期 %d", i, e.warmup))
	}
	return e.decisions[i]
}

// ShouldEnter i 处是否入场
func (e *Engine) ShouldEnter(i int) bool {
	return e.Decision(i).IsEntry()
}

// ShouldExit i 处是否出场
func (e *Engine) ShouldExit(i int) bool {
	return e.Decision(i).IsExit()
}

// Decisions 返回全部决策的拷贝
func (e *Engine) Decisions() []model.Decision {
	out := make([]model.Decision, len(e.decisions))
	copy(out, e.decisions)
	return out
}
