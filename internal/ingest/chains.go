package ingest

import (
	"encoding/json"
	"fmt"
	"time"

	"options-overlay-backtester/internal/core/model"
	"options-overlay-backtester/internal/core/store"
	"options-overlay-backtester/internal/util/timeutil"
)

// chainFileJSON 期权链文件
type chainFileJSON struct {
	Chains []chainJSON `json:"chains"`
}

type chainJSON struct {
	Date       string         `json:"date"`
	Underlying string         `json:"underlying"`
	Contracts  []contractJSON `json:"contracts"`
}

type contractJSON struct {
	Type       string  `json:"type"`
	Strike     float64 `json:"strike"`
	Expiration string  `json:"expiration"`
	Delta      float64 `json:"delta"`
	// DTE 缺省时按 expiration - date 计算
	DTE   *int    `json:"dte"`
	Theta float64 `json:"theta"`
	Price float64 `json:"price"`
}

// ParseChains 解析期权链 JSON
// 输入形如 {"chains":[{"date":"2023-01-03","underlying":"TSLA","contracts":[{"type":"CALL","strike":200,...}]}]}
// 同一交易日出现多次时合约按出现顺序合并。
// 参数 data: 文件内容
// 参数 loc: 交易日时区
func ParseChains(data []byte, loc *time.Location) (*store.Store, error) {
	var file chainFileJSON
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("解析期权链 JSON 失败: %w", err)
	}

	st := store.New(loc)
	for i, c := range file.Chains {
		day, err := timeutil.ParseDate(c.Date, loc)
		if err != nil {
			return nil, fmt.Errorf("chains[%d].date: %w", i, err)
		}
		chain := model.OptionChain{Underlying: c.Underlying, Date: day, Contracts: make([]model.OptionContract, 0, len(c.Contracts))}
		for j, raw := range c.Contracts {
			oc, err := raw.toContract(c.Underlying, day, loc)
			if err != nil {
				return nil, fmt.Errorf("chains[%d].contracts[%d]: %w", i, j, err)
			}
			chain.Contracts = append(chain.Contracts, oc)
		}
		st.Merge(chain)
	}
	if err := st.Validate(); err != nil {
		return nil, fmt.Errorf("期权链校验失败: %w", err)
	}
	return st, nil
}

func (c contractJSON) toContract(underlying string, day time.Time, loc *time.Location) (model.OptionContract, error) {
	typ, err := model.ParseOptionType(c.Type)
	if err != nil {
		return model.OptionContract{}, err
	}
	oc := model.OptionContract{
		Underlying: underlying,
		Type:       typ,
		Strike:     c.Strike,
		Delta:      c.Delta,
		Theta:      c.Theta,
		Price:      c.Price,
	}
	if c.Expiration != "" {
		exp, err := timeutil.ParseDate(c.Expiration, loc)
		if err != nil {
			return model.OptionContract{}, fmt.Errorf("expiration: %w", err)
		}
		oc.Expiration = exp
	}
	switch {
	case c.DTE != nil:
		oc.DTE = *c.DTE
	case !oc.Expiration.IsZero():
		oc.DTE = timeutil.DaysBetween(day, oc.Expiration)
	default:
		return model.OptionContract{}, fmt.Errorf("dte 与 expiration 不能同时缺省")
	}
	return oc, nil
}
