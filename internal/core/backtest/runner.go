// Package backtest 提供驱动仓位模拟器的执行策略与一致性校验。
//
// 三种执行策略都按 bar 索引升序调用同一个 sim.Step，
// 各自持有独立的状态与汇总，因此可以并行运行并互相校验。
package backtest

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"options-overlay-backtester/internal/config"
	"options-overlay-backtester/internal/core/model"
	"options-overlay-backtester/internal/core/sim"
)

// Strategy 执行策略
type Strategy interface {
	// Name 策略名称
	Name() string
	// Run 完整运行一次回测
	Run(s *sim.Simulator) Report
}

// Report 单次运行结果
type Report struct {
	// Strategy 执行策略名称
	Strategy string `json:"strategy"`
	// Result 汇总
	Result model.BacktestResult `json:"result"`
	// Trades 按平仓顺序排列的交易
	Trades []model.ClosedTrade `json:"-"`
	// Opened 开仓次数
	Opened int `json:"opened"`
	// Skipped 缺少期权链而跳过的 bar 数
	Skipped int `json:"skipped"`
	// Evaluated 参与评估的 bar 数
	Evaluated int `json:"evaluated"`
}

// recorder 汇总转移结果
// 每次运行独占一个实例。
type recorder struct {
	rep Report
}

func newRecorder(name string) *recorder {
	return &recorder{rep: Report{Strategy: name}}
}

func (r *recorder) skip() {
	r.rep.Skipped++
}

func (r *recorder) evaluate() {
	r.rep.Evaluated++
}

func (r *recorder) open() {
	r.rep.Opened++
}

func (r *recorder) close(t model.ClosedTrade) {
	r.rep.Result.Record(t)
	r.rep.Trades = append(r.rep.Trades, t)
}

// apply 按 Transition 的字段顺序记录：先平仓后开仓
func (r *recorder) apply(tr sim.Transition) {
	if tr.Skipped {
		r.skip()
		return
	}
	r.evaluate()
	if tr.Closed() {
		r.close(tr.Trade)
	}
	if tr.Opened {
		r.open()
	}
}

// finish 记录序列结束时的强制平仓
func (r *recorder) finish(tr sim.Transition) {
	if tr.Closed() {
		r.close(tr.Trade)
	}
}

func (r *recorder) report() Report {
	return r.rep
}

// tagged 为本次运行的日志加上策略名
func tagged(s *sim.Simulator, name string) *sim.Simulator {
	return s.WithLogger(s.Logger().With(zap.String("strategy", name)))
}

var registry = map[string]func() Strategy{
	config.StrategySequential: func() Strategy { return Sequential{} },
	config.StrategyEventQueue: func() Strategy { return EventQueue{} },
	config.StrategyPipeline:   func() Strategy { return Pipeline{} },
}

// ByName 按名称创建执行策略
func ByName(name string) (Strategy, error) {
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("未知的执行策略 '%s'", name)
	}
	return f(), nil
}

// Names 返回全部可用的执行策略名称（升序）
func Names() []string {
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// FromConfig 按配置顺序创建执行策略
func FromConfig(cfg config.BacktestConfig) ([]Strategy, error) {
	out := make([]Strategy, 0, len(cfg.Strategies))
	for _, name := range cfg.Strategies {
		st, err := ByName(name)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}
