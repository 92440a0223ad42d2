package backtest

import (
	"options-overlay-backtester/internal/config"
	"options-overlay-backtester/internal/core/sim"
)

// Sequential 顺序循环执行策略
type Sequential struct{}

// Name 实现 Strategy
func (Sequential) Name() string { return config.StrategySequential }

// Run 实现 Strategy
func (q Sequential) Run(s *sim.Simulator) Report {
	s = tagged(s, q.Name())
	rec := newRecorder(q.Name())

	var st sim.State
	for i := s.Start(); i < s.End(); i++ {
		var tr sim.Transition
		st, tr = s.Step(st, i)
		rec.apply(tr)
	}
	_, tr := s.Finish(st)
	rec.finish(tr)

	return rec.report()
}
