package backtest

import (
	"options-overlay-backtester/internal/config"
	"options-overlay-backtester/internal/core/sim"
)

const pipelineBuffer = 64

// Pipeline 流水线执行策略
// 索引生成 -> 单 goroutine 推进状态 -> 汇总，三个阶段通过 channel 串联。
// 状态只存在于推进阶段的 goroutine 内，汇总只存在于调用方 goroutine 内。
type Pipeline struct{}

// Name 实现 Strategy
func (Pipeline) Name() string { return config.StrategyPipeline }

// Run 实现 Strategy
func (p Pipeline) Run(s *sim.Simulator) Report {
	s = tagged(s, p.Name())

	indices := generate(s.Start(), s.End())
	transitions := advance(s, indices)
	return fold(p.Name(), transitions)
}

// outcome 流水线中传递的转移结果
type outcome struct {
	tr     sim.Transition
	finish bool
}

func generate(from, to int) <-chan int {
	out := make(chan int, pipelineBuffer)
	go func() {
		defer close(out)
		for i := from; i < to; i++ {
			out <- i
		}
	}()
	return out
}

func advance(s *sim.Simulator, in <-chan int) <-chan outcome {
	out := make(chan outcome, pipelineBuffer)
	go func() {
		defer close(out)
		var st sim.State
		for i := range in {
			var tr sim.Transition
			st, tr = s.Step(st, i)
			out <- outcome{tr: tr}
		}
		_, tr := s.Finish(st)
		out <- outcome{tr: tr, finish: true}
	}()
	return out
}

func fold(name string, in <-chan outcome) Report {
	rec := newRecorder(name)
	for o := range in {
		if o.finish {
			rec.finish(o.tr)
			continue
		}
		rec.apply(o.tr)
	}
	return rec.report()
}
