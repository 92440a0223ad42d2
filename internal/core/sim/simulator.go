// Package sim 实现单仓位期权叠加策略的逐 bar 状态转移。
//
// Step 是纯函数：输入当前状态与 bar 索引，返回新状态与本 bar 的转移结果。
// 所有执行策略（顺序循环、事件队列、流水线）都只是驱动 Step 的外壳，
// 因此只要按相同顺序喂入相同索引，结果必然一致。
package sim

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"options-overlay-backtester/internal/config"
	"options-overlay-backtester/internal/core/indicator"
	"options-overlay-backtester/internal/core/model"
	"options-overlay-backtester/internal/core/selector"
	"options-overlay-backtester/internal/core/signal"
	"options-overlay-backtester/internal/util/timeutil"
)

// State 模拟器状态
// 值类型，由单个执行策略独占。
type State struct {
	// Holding 是否持仓
	Holding bool
	// Position 当前持仓（Holding 为 false 时无意义）
	Position model.Position
}

// Transition 单个 bar 的转移结果
// 同一 bar 可能先平仓再开仓（Reason 非空且 Opened 为 true）。
type Transition struct {
	// Index bar 索引
	Index int
	// Skipped 当日缺少期权链，本 bar 未做任何评估
	Skipped bool
	// Reason 平仓原因；为空表示本 bar 未平仓
	Reason model.ExitReason
	// Trade 平仓记录（Reason 非空时有效）
	Trade model.ClosedTrade
	// Opened 本 bar 是否开仓
	Opened bool
}

// Closed 本 bar 是否平仓
func (t Transition) Closed() bool {
	return t.Reason != ""
}

// Simulator 仓位模拟器
// 构造后只读，可被多个执行策略并发使用；状态由调用方以值传递。
type Simulator struct {
	series   model.BarSeries
	closes   []float64
	chains   model.ChainProvider
	signals  signal.Source
	selector selector.Selector
	regime   indicator.Regime
	cfg      config.StrategyConfig
	loc      *time.Location
	logger   *zap.Logger
}

// New 创建模拟器
// 参数 series: K 线序列
// 参数 chains: 期权链查询
// 参数 signals: 信号源，其预热期不得晚于 cfg.WarmupBars
// 参数 sel: 选约器
// 参数 cfg: 仓位规则
// 参数 logger: 日志，nil 时不输出
// 返回: 输入非法时返回错误，不产生任何部分结果
func New(series model.BarSeries, chains model.ChainProvider, signals signal.Source, sel selector.Selector, cfg config.StrategyConfig, logger *zap.Logger) (*Simulator, error) {
	if err := series.Validate(); err != nil {
		return nil, fmt.Errorf("K 线校验失败: %w", err)
	}
	if chains == nil || signals == nil || sel == nil {
		return nil, fmt.Errorf("期权链、信号源与选约器均不能为空")
	}
	if cfg.WarmupBars < 1 {
		return nil, fmt.Errorf("预热期 %d 必须至少为 1", cfg.WarmupBars)
	}
	if cfg.WarmupBars < signals.Warmup() {
		return nil, fmt.Errorf("预热期 %d 早于信号源预热期 %d", cfg.WarmupBars, signals.Warmup())
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	closes := series.Closes()
	return &Simulator{
		series:   series,
		closes:   closes,
		chains:   chains,
		signals:  signals,
		selector: sel,
		regime:   indicator.NewRegime(closes, cfg.RegimeFast, cfg.RegimeSlow),
		cfg:      cfg,
		loc:      time.UTC,
		logger:   logger,
	}, nil
}

// WithLogger 返回使用指定日志的浅拷贝
func (s *Simulator) WithLogger(logger *zap.Logger) *Simulator {
	if logger == nil {
		logger = zap.NewNop()
	}
	cp := *s
	cp.logger = logger
	return &cp
}

// WithLocation 返回按指定时区输出日志日期的浅拷贝
func (s *Simulator) WithLocation(loc *time.Location) *Simulator {
	if loc == nil {
		loc = time.UTC
	}
	cp := *s
	cp.loc = loc
	return &cp
}

// Logger 返回当前日志
func (s *Simulator) Logger() *zap.Logger {
	return s.logger
}

// Start 首个参与模拟的 bar 索引
func (s *Simulator) Start() int {
	return s.cfg.WarmupBars
}

// End bar 总数（不含）
func (s *Simulator) End() int {
	return s.series.Len()
}

// Symbol 标的代码
func (s *Simulator) Symbol() string {
	return s.series.Symbol
}

// Step 推进一个 bar
//
// 顺序：
//  1. 当日无期权链：跳过，状态不变
//  2. 持仓时更新盈亏 pnl += delta × (close[i] - close[i-1]) - theta
//  3. 盈亏低于修复阈值：趋势向上记为展期，否则硬止损；未触发时检查出场信号
//  4. 空仓（含本 bar 刚平仓）且入场信号成立：选约开仓
func (s *Simulator) Step(st State, i int) (State, Transition) {
	tr := Transition{Index: i}
	bar := s.series.Bars[i]

	chain, ok := s.chains.ChainFor(bar.Timestamp)
	if !ok {
		s.logger.Warn("缺少期权链，跳过该 bar",
			zap.Int("index", i),
			zap.String("date", timeutil.DateKey(bar.Timestamp, s.loc)))
		tr.Skipped = true
		return st, tr
	}

	if st.Holding {
		pos := st.Position
		pos.PnL += pos.Contract.Delta*(s.closes[i]-s.closes[i-1]) - pos.Contract.Theta

		switch {
		case pos.PnL < s.cfg.RepairThreshold:
			reason := model.ExitHardStop
			if s.regime.Bullish(i) {
				reason = model.ExitRoll
			}
			tr.Reason, tr.Trade = reason, s.close(pos, i, reason)
			st = State{}
		case s.signals.ShouldExit(i):
			tr.Reason, tr.Trade = model.ExitSignal, s.close(pos, i, model.ExitSignal)
			st = State{}
		default:
			st.Position = pos
		}
	}

	if !st.Holding && s.signals.ShouldEnter(i) {
		if c, ok := s.selector.Select(chain, s.closes[i]); ok {
			st = State{
				Holding: true,
				Position: model.Position{
					Contract:        c,
					OpenedAt:        i,
					OpenedTime:      bar.Timestamp,
					EntryUnderlying: s.closes[i],
				},
			}
			tr.Opened = true
			s.logger.Info("开仓",
				zap.String("date", timeutil.DateKey(bar.Timestamp, s.loc)),
				zap.String("type", string(c.Type)),
				zap.Float64("strike", c.Strike),
				zap.Float64("delta", c.Delta),
				zap.Int("dte", c.DTE))
		} else {
			s.logger.Debug("入场信号成立但无可选合约",
				zap.String("date", timeutil.DateKey(bar.Timestamp, s.loc)))
		}
	}

	return st, tr
}

// Finish 序列结束：仍持仓时按当前盈亏在最后一个 bar 强制平仓
func (s *Simulator) Finish(st State) (State, Transition) {
	last := s.series.Len() - 1
	tr := Transition{Index: last}
	if !st.Holding {
		return st, tr
	}
	tr.Reason = model.ExitEndOfSeries
	tr.Trade = s.close(st.Position, last, model.ExitEndOfSeries)
	return State{}, tr
}

func (s *Simulator) close(pos model.Position, i int, reason model.ExitReason) model.ClosedTrade {
	ts := s.series.Bars[i].Timestamp
	trade := pos.Close(i, ts, reason)
	s.logger.Info("平仓",
		zap.String("date", timeutil.DateKey(ts, s.loc)),
		zap.Float64("strike", pos.Contract.Strike),
		zap.String("reason", string(reason)),
		zap.Float64("pnl", trade.PnL))
	return trade
}
