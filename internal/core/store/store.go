// Package store 维护按交易日索引的期权链。
// 使用单写者模式：加载阶段写入，回测阶段只读。
package store

import (
	"slices"
	"sort"
	"time"

	"options-overlay-backtester/internal/core/model"
	"options-overlay-backtester/internal/util/timeutil"
)

// Store 期权链缓存（单写者）
// 注意：Put/Merge 只应在加载阶段由单 goroutine 调用；之后可被多个执行策略并发读取。
type Store struct {
	// loc 交易日换算时区
	loc *time.Location
	// chains key: 交易日（YYYY-MM-DD）
	chains map[string]model.OptionChain
}

var _ model.ChainProvider = (*Store)(nil)

// New 创建新的期权链缓存
// 参数 loc: 交易日换算时区，nil 视为 UTC
func New(loc *time.Location) *Store {
	if loc == nil {
		loc = time.UTC
	}
	return &Store{
		loc:    loc,
		chains: make(map[string]model.OptionChain),
	}
}

// Put 写入（覆盖）某交易日的期权链
// 合约切片会被拷贝，调用方此后修改原切片不影响缓存。
func (s *Store) Put(chain model.OptionChain) {
	chain.Contracts = slices.Clone(chain.Contracts)
	s.chains[timeutil.DateKey(chain.Date, s.loc)] = chain
}

// Merge 将合约追加到某交易日的期权链，保持输入顺序
func (s *Store) Merge(chain model.OptionChain) {
	key := timeutil.DateKey(chain.Date, s.loc)
	cur, ok := s.chains[key]
	if !ok {
		s.Put(chain)
		return
	}
	cur.Contracts = append(cur.Contracts, chain.Contracts...)
	s.chains[key] = cur
}

// ChainFor 返回时间戳所在交易日的期权链
// 返回的链应视为只读。
func (s *Store) ChainFor(ts time.Time) (model.OptionChain, bool) {
	ch, ok := s.chains[timeutil.DateKey(ts, s.loc)]
	return ch, ok
}

// Len 返回交易日数量
func (s *Store) Len() int {
	return len(s.chains)
}

// Dates 返回按升序排列的交易日键
func (s *Store) Dates() []string {
	out := make([]string, 0, len(s.chains))
	for k := range s.chains {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Validate 校验全部期权链
func (s *Store) Validate() error {
	for _, k := range s.Dates() {
		if err := s.chains[k].Validate(); err != nil {
			return err
		}
	}
	return nil
}
