package model

import (
	"fmt"
	"math"
)

// DefaultTolerance 结果比较的默认容差
const DefaultTolerance = 1e-4

// BacktestResult 回测汇总
type BacktestResult struct {
	// TotalNetProfit 全部已平仓交易的盈亏之和
	TotalNetProfit float64 `json:"total_net_profit"`
	// MaxDrawdown 最差单笔亏损（<= 0，无亏损时为 0）
	MaxDrawdown float64 `json:"max_drawdown"`
	// TradeCount 已平仓交易数
	TradeCount int `json:"trade_count"`
}

// Record 记录一笔平仓
// TotalNetProfit 累加，TradeCount 加一，亏损时 MaxDrawdown 取更小值。
func (r *BacktestResult) Record(t ClosedTrade) {
	r.TotalNetProfit += t.PnL
	r.TradeCount++
	if t.PnL < 0 {
		r.MaxDrawdown = math.Min(r.MaxDrawdown, t.PnL)
	}
}

// Equal 在容差内比较两个结果；交易数必须完全相等
// 参数 tol: 净利润与最大回撤的绝对容差
func (r BacktestResult) Equal(o BacktestResult, tol float64) bool {
	return r.TradeCount == o.TradeCount &&
		math.Abs(r.TotalNetProfit-o.TotalNetProfit) <= tol &&
		math.Abs(r.MaxDrawdown-o.MaxDrawdown) <= tol
}

// String 返回单行摘要
func (r BacktestResult) String() string {
	return fmt.Sprintf("net_profit=%.4f max_drawdown=%.4f trades=%d", r.TotalNetProfit, r.MaxDrawdown, r.TradeCount)
}
