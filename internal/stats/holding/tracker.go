// Package holding 统计已平仓交易的持仓时长（bar 数）分布。
// 按平仓原因分别维护滚动窗口，另有一个覆盖全部原因的汇总窗口。
package holding

import (
	"sort"
	"sync"

	"options-overlay-backtester/internal/core/model"
)

// HoldingStats 持仓时长统计快照（滚动窗口）
// 单位：bar。
type HoldingStats struct {
	// Reason 平仓原因；汇总统计为空
	Reason string `json:"reason,omitempty"`
	// Count 样本总数（累计）
	Count int64 `json:"count"`
	// P50Bars 持仓 bar 数 P50
	P50Bars int64 `json:"p50_bars"`
	// P90Bars 持仓 bar 数 P90
	P90Bars int64 `json:"p90_bars"`
	// P99Bars 持仓 bar 数 P99
	P99Bars int64 `json:"p99_bars"`
	// MaxBars 窗口内最长持仓
	MaxBars int64 `json:"max_bars"`
}

type rollingWindow struct {
	size  int
	buf   []int64
	pos   int
	count int64
	full  bool

	mu sync.Mutex
}

func newRollingWindow(size int) *rollingWindow {
	return &rollingWindow{size: size, buf: make([]int64, 0, size)}
}

func (w *rollingWindow) add(v int64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.count++
	if w.size <= 0 {
		return
	}

	if !w.full {
		w.buf = append(w.buf, v)
		if len(w.buf) == w.size {
			w.full = true
			w.pos = 0
		}
		return
	}

	w.buf[w.pos] = v
	w.pos++
	if w.pos >= w.size {
		w.pos = 0
	}
}

// snapshotQuantiles 返回累计样本数与各分位数（最近秩，下取整）
func (w *rollingWindow) snapshotQuantiles(qs ...float64) (count int64, values []int64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	count = w.count
	if len(w.buf) == 0 {
		return count, make([]int64, len(qs))
	}

	tmp := make([]int64, len(w.buf))
	copy(tmp, w.buf)
	sort.Slice(tmp, func(i, j int) bool { return tmp[i] < tmp[j] })

	values = make([]int64, len(qs))
	n := len(tmp)
	for i, q := range qs {
		switch {
		case q <= 0:
			values[i] = tmp[0]
		case q >= 1:
			values[i] = tmp[n-1]
		default:
			values[i] = tmp[int(float64(n-1)*q)]
		}
	}
	return count, values
}

// Tracker 持仓时长追踪器
// 并发安全：每个窗口独立加锁。
type Tracker struct {
	windowSize int
	all        *rollingWindow

	mu       sync.Mutex
	byReason map[model.ExitReason]*rollingWindow
}

// NewTracker 创建持仓时长追踪器
// 参数 windowSize: 滚动窗口大小（建议 1000），用于 P50/P90/P99。
func NewTracker(windowSize int) *Tracker {
	return &Tracker{
		windowSize: windowSize,
		all:        newRollingWindow(windowSize),
		byReason:   make(map[model.ExitReason]*rollingWindow, 4),
	}
}

// Add 记录一笔已平仓交易
func (t *Tracker) Add(tr model.ClosedTrade) {
	held := int64(tr.BarsHeld())
	if held < 0 {
		return
	}
	t.all.add(held)
	t.window(tr.Reason).add(held)
}

func (t *Tracker) window(r model.ExitReason) *rollingWindow {
	t.mu.Lock()
	defer t.mu.Unlock()
	w, ok := t.byReason[r]
	if !ok {
		w = newRollingWindow(t.windowSize)
		t.byReason[r] = w
	}
	return w
}

// Stats 返回全部原因的汇总统计
func (t *Tracker) Stats() HoldingStats {
	return snapshot("", t.all)
}

// StatsByReason 返回各平仓原因的统计，按原因名升序
func (t *Tracker) StatsByReason() []HoldingStats {
	t.mu.Lock()
	reasons := make([]model.ExitReason, 0, len(t.byReason))
	for r := range t.byReason {
		reasons = append(reasons, r)
	}
	t.mu.Unlock()
	sort.Slice(reasons, func(i, j int) bool { return reasons[i] < reasons[j] })

	out := make([]HoldingStats, 0, len(reasons))
	for _, r := range reasons {
		out = append(out, snapshot(string(r), t.window(r)))
	}
	return out
}

func snapshot(reason string, w *rollingWindow) HoldingStats {
	count, qs := w.snapshotQuantiles(0.50, 0.90, 0.99, 1)
	return HoldingStats{
		Reason:  reason,
		Count:   count,
		P50Bars: qs[0],
		P90Bars: qs[1],
		P99Bars: qs[2],
		MaxBars: qs[3],
	}
}
