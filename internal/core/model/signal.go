package model

// Decision 单 bar 交易决策
type Decision int8

const (
	// DecisionHold 观望
	DecisionHold Decision = iota
	// DecisionBuy 入场
	DecisionBuy
	// DecisionSell 出场
	DecisionSell
)

// String 返回决策名称
func (d Decision) String() string {
	switch d {
	case DecisionBuy:
		return "BUY"
	case DecisionSell:
		return "SELL"
	default:
		return "HOLD"
	}
}

// IsEntry 是否为入场决策
func (d Decision) IsEntry() bool {
	return d == DecisionBuy
}

// IsExit 是否为出场决策
func (d Decision) IsExit() bool {
	return d == DecisionSell
}
