package model

import (
	"time"
)

// ExitReason 平仓原因
type ExitReason string

const (
	// ExitSignal 出场信号触发的正常平仓
	ExitSignal ExitReason = "exit"
	// ExitRoll 修复阈值触发且趋势向上，平仓展期
	ExitRoll ExitReason = "roll"
	// ExitHardStop 修复阈值触发且趋势不向上，硬止损
	ExitHardStop ExitReason = "hard_stop"
	// ExitEndOfSeries 序列结束时强制平仓
	ExitEndOfSeries ExitReason = "end_of_series"
)

// IsRepair 是否为修复类平仓（展期或硬止损）
func (r ExitReason) IsRepair() bool {
	return r == ExitRoll || r == ExitHardStop
}

// Position 持仓
// 作为值由单个执行策略独占，不在 goroutine 间共享。
type Position struct {
	// Contract 持有的合约
	Contract OptionContract
	// PnL 累计盈亏
	// 每个持仓 bar 更新: delta × (close[i] - close[i-1]) - theta
	PnL float64
	// OpenedAt 开仓 bar 索引
	OpenedAt int
	// OpenedTime 开仓 bar 时间戳
	OpenedTime time.Time
	// EntryUnderlying 开仓时标的收盘价
	EntryUnderlying float64
}

// Close 生成平仓记录
// 参数 idx: 平仓 bar 索引
// 参数 ts: 平仓 bar 时间戳
// 参数 reason: 平仓原因
func (p Position) Close(idx int, ts time.Time, reason ExitReason) ClosedTrade {
	return ClosedTrade{
		Contract:        p.Contract,
		OpenedAt:        p.OpenedAt,
		ClosedAt:        idx,
		OpenedTime:      p.OpenedTime,
		ClosedTime:      ts,
		EntryUnderlying: p.EntryUnderlying,
		PnL:             p.PnL,
		Reason:          reason,
	}
}

// ClosedTrade 已平仓交易
type ClosedTrade struct {
	// Contract 持有的合约
	Contract OptionContract
	// OpenedAt 开仓 bar 索引
	OpenedAt int
	// ClosedAt 平仓 bar 索引
	ClosedAt int
	// OpenedTime 开仓时间
	OpenedTime time.Time
	// ClosedTime 平仓时间
	ClosedTime time.Time
	// EntryUnderlying 开仓时标的价格
	EntryUnderlying float64
	// PnL 最终盈亏
	PnL float64
	// Reason 平仓原因
	Reason ExitReason
}

// BarsHeld 持仓 bar 数
func (t ClosedTrade) BarsHeld() int {
	return t.ClosedAt - t.OpenedAt
}

// IsWin 判断是否盈利
func (t ClosedTrade) IsWin() bool {
	return t.PnL > 0
}

// TradeRecord 逐笔成交输出结构
// 用于 JSONL 文件输出
type TradeRecord struct {
	// RunID 运行标识
	RunID string `json:"run_id"`
	// Strategy 执行策略名称
	Strategy string `json:"strategy"`
	// Underlying 标的代码
	Underlying string `json:"underlying"`
	// OptionType CALL/PUT
	OptionType string `json:"option_type"`
	// Strike 行权价
	Strike float64 `json:"strike"`
	// Expiration 到期日（YYYY-MM-DD）
	Expiration string `json:"expiration"`
	// Delta 开仓时 delta
	Delta float64 `json:"delta"`
	// Theta 开仓时 theta
	Theta float64 `json:"theta"`
	// DTE 开仓时剩余天数
	DTE int `json:"dte"`
	// OpenedAt 开仓 bar 索引
	OpenedAt int `json:"opened_at"`
	// ClosedAt 平仓 bar 索引
	ClosedAt int `json:"closed_at"`
	// TOpen 开仓时间
	TOpen time.Time `json:"t_open"`
	// TClose 平仓时间
	TClose time.Time `json:"t_close"`
	// EntryUnderlying 开仓时标的价格
	EntryUnderlying float64 `json:"entry_underlying"`
	// PnL 最终盈亏
	PnL float64 `json:"pnl"`
	// ExitReason 平仓原因
	ExitReason string `json:"exit_reason"`
	// EVSnapshot EV 快照（可选）
	EVSnapshot *EVSnapshot `json:"ev_snapshot,omitempty"`
}

// EVSnapshot EV 统计快照
type EVSnapshot struct {
	// WinRate 胜率
	WinRate float64 `json:"win_rate"`
	// AvgProfit 平均盈利
	AvgProfit float64 `json:"avg_profit"`
	// AvgLoss 平均亏损（绝对值）
	AvgLoss float64 `json:"avg_loss"`
	// EV 期望值
	EV float64 `json:"ev"`
	// PRequired 盈亏平衡胜率
	PRequired float64 `json:"p_required"`
}

// ToTradeRecord 将 ClosedTrade 转换为 TradeRecord 输出格式
func (t ClosedTrade) ToTradeRecord(runID, strategy string, evSnapshot *EVSnapshot) *TradeRecord {
	var exp string
	if !t.Contract.Expiration.IsZero() {
		exp = t.Contract.Expiration.Format(time.DateOnly)
	}
	return &TradeRecord{
		RunID:           runID,
		Strategy:        strategy,
		Underlying:      t.Contract.Underlying,
		OptionType:      string(t.Contract.Type),
		Strike:          t.Contract.Strike,
		Expiration:      exp,
		Delta:           t.Contract.Delta,
		Theta:           t.Contract.Theta,
		DTE:             t.Contract.DTE,
		OpenedAt:        t.OpenedAt,
		ClosedAt:        t.ClosedAt,
		TOpen:           t.OpenedTime,
		TClose:          t.ClosedTime,
		EntryUnderlying: t.EntryUnderlying,
		PnL:             t.PnL,
		ExitReason:      string(t.Reason),
		EVSnapshot:      evSnapshot,
	}
}
