// Package ev 实现已平仓交易的期望值（EV）统计。
// EV = p × R - (1 - p) × L
// p_required = L / (R + L)
// 回测不计手续费与滑点，故公式中不含费用项。
package ev

import (
	"options-overlay-backtester/internal/core/model"
)

type tradeSample struct {
	win    bool
	pnl    float64
	reason model.ExitReason
}

// EVStats EV 统计信息（滚动窗口）
type EVStats struct {
	// Count 样本数
	Count int64 `json:"count"`
	// WinCount 盈利样本数（盈亏>0）
	WinCount int64 `json:"win_count"`
	// LossCount 亏损样本数（盈亏<=0）
	LossCount int64 `json:"loss_count"`
	// RepairCount 修复类平仓（展期、硬止损）样本数
	RepairCount int64 `json:"repair_count"`

	// WinRate 胜率 p
	WinRate float64 `json:"win_rate"`
	// AvgProfit 平均盈利 R
	AvgProfit float64 `json:"avg_profit"`
	// AvgLoss 平均亏损 L（绝对值）
	AvgLoss float64 `json:"avg_loss"`

	// EV 期望值
	EV float64 `json:"ev"`
	// PRequired 盈亏平衡胜率 p_required
	PRequired float64 `json:"p_required"`
}

// Calculator EV 计算器（滚动窗口）
// 非并发安全：每次回测运行独占一个实例。
type Calculator struct {
	// windowSize 滚动窗口大小
	windowSize int
	// buf 环形缓冲区
	buf []tradeSample
	// pos 写入位置
	pos int
	// full 是否已填满
	full bool

	// 维护滚动统计（O(1) 更新）
	count       int64
	winCount    int64
	lossCount   int64
	repairCount int64
	sumWin      float64
	sumLoss     float64
}

// NewCalculator 创建 EV 计算器
// 参数 windowSize: 滚动窗口大小（建议 1000）
func NewCalculator(windowSize int) *Calculator {
	if windowSize <= 0 {
		windowSize = 1000
	}
	return &Calculator{
		windowSize: windowSize,
		buf:        make([]tradeSample, windowSize),
	}
}

// Add 添加一笔已平仓交易到滚动统计
func (c *Calculator) Add(t model.ClosedTrade) {
	s := tradeSample{
		win:    t.PnL > 0,
		pnl:    t.PnL,
		reason: t.Reason,
	}

	// 若环已满，移除旧样本对统计的贡献
	if c.full {
		c.remove(c.buf[c.pos])
	}

	c.buf[c.pos] = s
	c.pos++
	if c.pos >= c.windowSize {
		c.pos = 0
		c.full = true
	}

	c.count++
	if s.win {
		c.winCount++
		c.sumWin += s.pnl
	} else {
		c.lossCount++
		c.sumLoss += -s.pnl
	}
	if s.reason.IsRepair() {
		c.repairCount++
	}
}

func (c *Calculator) remove(old tradeSample) {
	c.count--
	if old.win {
		c.winCount--
		c.sumWin -= old.pnl
	} else {
		c.lossCount--
		c.sumLoss -= -old.pnl
	}
	if old.reason.IsRepair() {
		c.repairCount--
	}
}

// Snapshot 获取当前 EV 统计快照
func (c *Calculator) Snapshot() *model.EVSnapshot {
	stats := c.Stats()
	return &model.EVSnapshot{
		WinRate:   stats.WinRate,
		AvgProfit: stats.AvgProfit,
		AvgLoss:   stats.AvgLoss,
		EV:        stats.EV,
		PRequired: stats.PRequired,
	}
}

// Stats 返回滚动窗口统计
func (c *Calculator) Stats() EVStats {
	out := EVStats{
		Count:       c.count,
		WinCount:    c.winCount,
		LossCount:   c.lossCount,
		RepairCount: c.repairCount,
	}
	if c.count <= 0 {
		return out
	}

	out.WinRate = float64(c.winCount) / float64(c.count)
	if c.winCount > 0 {
		out.AvgProfit = c.sumWin / float64(c.winCount)
	}
	if c.lossCount > 0 {
		out.AvgLoss = c.sumLoss / float64(c.lossCount)
	}

	p := out.WinRate
	R := out.AvgProfit
	L := out.AvgLoss
	out.EV = p*R - (1-p)*L

	den := R + L
	if den > 0 {
		out.PRequired = L / den
	} else {
		out.PRequired = 1
	}

	return out
}
