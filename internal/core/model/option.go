package model

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// ErrInvalidContract 期权合约字段非法
var ErrInvalidContract = errors.New("期权合约数据非法")

// OptionType 期权类型
type OptionType string

const (
	// OptionCall 看涨
	OptionCall OptionType = "CALL"
	// OptionPut 看跌
	OptionPut OptionType = "PUT"
)

// ParseOptionType 解析期权类型（大小写不敏感，支持 C/P 简写）
func ParseOptionType(s string) (OptionType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CALL", "C":
		return OptionCall, nil
	case "PUT", "P":
		return OptionPut, nil
	default:
		return "", fmt.Errorf("未知的期权类型 '%s': %w", s, ErrInvalidContract)
	}
}

// OptionContract 期权合约快照
// delta/theta 为当日希腊值，回测中视为持仓期间不变。
type OptionContract struct {
	// Underlying 标的代码
	Underlying string
	// Type CALL 或 PUT
	Type OptionType
	// Strike 行权价
	Strike float64
	// Expiration 到期日
	Expiration time.Time
	// Delta 对标的价格的一阶敏感度，[-1, 1]
	Delta float64
	// DTE 距到期天数
	DTE int
	// Theta 每 bar 时间价值衰减（正数表示损耗）
	Theta float64
	// Price 权利金（仅用于展示）
	Price float64
}

// Validate 校验合约字段
func (c OptionContract) Validate() error {
	if c.Type != OptionCall && c.Type != OptionPut {
		return fmt.Errorf("期权类型 '%s': %w", c.Type, ErrInvalidContract)
	}
	if math.IsNaN(c.Delta) || c.Delta < -1 || c.Delta > 1 {
		return fmt.Errorf("delta %v 超出 [-1, 1]: %w", c.Delta, ErrInvalidContract)
	}
	if c.DTE < 0 {
		return fmt.Errorf("DTE %d 为负: %w", c.DTE, ErrInvalidContract)
	}
	if math.IsNaN(c.Theta) || math.IsInf(c.Theta, 0) {
		return fmt.Errorf("theta %v 非有限值: %w", c.Theta, ErrInvalidContract)
	}
	return nil
}

// OptionChain 某交易日的全部可选合约
type OptionChain struct {
	// Underlying 标的代码
	Underlying string
	// Date 交易日
	Date time.Time
	// Contracts 合约列表，顺序即选约时的遍历顺序
	Contracts []OptionContract
}

// Validate 校验链内全部合约
func (ch OptionChain) Validate() error {
	for i, c := range ch.Contracts {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("%s 合约[%d]: %w", ch.Date.Format(time.DateOnly), i, err)
		}
	}
	return nil
}

// ChainProvider 按 bar 时间戳查询当日期权链
// 实现必须是只读的，允许多个执行策略并发查询。
type ChainProvider interface {
	// ChainFor 返回时间戳所在交易日的期权链；无数据时返回 false
	ChainFor(ts time.Time) (OptionChain, bool)
}
