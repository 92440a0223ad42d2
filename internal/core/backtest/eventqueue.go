package backtest

import (
	"options-overlay-backtester/internal/config"
	"options-overlay-backtester/internal/core/model"
	"options-overlay-backtester/internal/core/sim"
)

type eventKind int

const (
	// evBar 推进一个 bar
	evBar eventKind = iota
	// evClose 记录平仓（出场、展期、硬止损、序列结束）
	evClose
	// evOpen 记录开仓
	evOpen
	// evSkip 记录缺链跳过
	evSkip
	// evFinish 序列结束
	evFinish
)

type event struct {
	kind  eventKind
	index int
	trade model.ClosedTrade
}

// EventQueue 事件队列执行策略
// 每个 bar 事件经 Step 处理后派生平仓/开仓事件，追加到同一 FIFO 队列中，
// 因此派生事件总在下一个 bar 事件之前被消费。
type EventQueue struct{}

// Name 实现 Strategy
func (EventQueue) Name() string { return config.StrategyEventQueue }

// Run 实现 Strategy
func (q EventQueue) Run(s *sim.Simulator) Report {
	s = tagged(s, q.Name())
	rec := newRecorder(q.Name())

	queue := make([]event, 0, 8)
	if s.Start() < s.End() {
		queue = append(queue, event{kind: evBar, index: s.Start()})
	} else {
		queue = append(queue, event{kind: evFinish})
	}

	var st sim.State
	for len(queue) > 0 {
		ev := queue[0]
		queue = queue[1:]

		switch ev.kind {
		case evBar:
			var tr sim.Transition
			st, tr = s.Step(st, ev.index)
			if tr.Skipped {
				queue = append(queue, event{kind: evSkip, index: ev.index})
			} else {
				rec.evaluate()
				if tr.Closed() {
					queue = append(queue, event{kind: evClose, index: ev.index, trade: tr.Trade})
				}
				if tr.Opened {
					queue = append(queue, event{kind: evOpen, index: ev.index})
				}
			}
			if next := ev.index + 1; next < s.End() {
				queue = append(queue, event{kind: evBar, index: next})
			} else {
				queue = append(queue, event{kind: evFinish})
			}
		case evFinish:
			var tr sim.Transition
			st, tr = s.Finish(st)
			if tr.Closed() {
				queue = append(queue, event{kind: evClose, index: tr.Index, trade: tr.Trade})
			}
		case evClose:
			rec.close(ev.trade)
		case evOpen:
			rec.open()
		case evSkip:
			rec.skip()
		}
	}

	return rec.report()
}
