// Package selector 从当日期权链中挑选开仓合约。
package selector

import (
	"fmt"
	"math"

	"options-overlay-backtester/internal/config"
	"options-overlay-backtester/internal/core/model"
)

// Selector 合约选择器
// 实现必须是只读的，允许多个执行策略并发调用。
type Selector interface {
	// Select 返回选中的合约；无候选时返回 false
	// 参数 chain: 当日期权链
	// 参数 underlying: 当前标的收盘价
	Select(chain model.OptionChain, underlying float64) (model.OptionContract, bool)
}

// DeltaTarget 按目标 delta 选约
// 候选：类型匹配且 DTE ∈ [MinDTE, MaxDTE]；取 |delta - target| 最小者，相同时取链中先出现的。
type DeltaTarget struct {
	// Type 期权类型
	Type model.OptionType
	// MinDTE 最小剩余天数（含）
	MinDTE int
	// MaxDTE 最大剩余天数（含）
	MaxDTE int
	// Target 目标 delta
	Target float64
}

var _ Selector = DeltaTarget{}

// NewDeltaTarget 由配置创建选择器
func NewDeltaTarget(cfg config.SelectionConfig) (DeltaTarget, error) {
	typ, err := model.ParseOptionType(cfg.OptionType)
	if err != nil {
		return DeltaTarget{}, fmt.Errorf("创建选约器失败: %w", err)
	}
	return DeltaTarget{
		Type:   typ,
		MinDTE: cfg.MinDTE,
		MaxDTE: cfg.MaxDTE,
		Target: cfg.TargetDelta,
	}, nil
}

// DefaultCall 30-45 DTE、delta 0.30 的看涨选择器
func DefaultCall() DeltaTarget {
	return DeltaTarget{Type: model.OptionCall, MinDTE: 30, MaxDTE: 45, Target: 0.30}
}

// DefaultPut 30-45 DTE、delta -0.30 的看跌选择器
func DefaultPut() DeltaTarget {
	return DeltaTarget{Type: model.OptionPut, MinDTE: 30, MaxDTE: 45, Target: -0.30}
}

// Select 实现 Selector
func (s DeltaTarget) Select(chain model.OptionChain, _ float64) (model.OptionContract, bool) {
	best := -1
	bestDist := math.Inf(1)
	for i, c := range chain.Contracts {
		if c.Type != s.Type || c.DTE < s.MinDTE || c.DTE > s.MaxDTE {
			continue
		}
		// 严格小于：距离相同时保留先出现的合约
		if d := math.Abs(c.Delta - s.Target); d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return model.OptionContract{}, false
	}
	return chain.Contracts[best], true
}
