// Package store 期权链缓存测试
package store

import (
	"errors"
	"testing"
	"time"

	"options-overlay-backtester/internal/core/model"
)

func TestStore_ChainForMatchesTradingDay(t *testing.T) {
	s := New(nil)
	day := time.Date(2023, 1, 3, 0, 0, 0, 0, time.UTC)
	s.Put(model.OptionChain{Underlying: "TSLA", Date: day, Contracts: []model.OptionContract{{Type: model.OptionCall, Delta: 0.3, DTE: 35}}})

	ch, ok := s.ChainFor(time.Date(2023, 1, 3, 21, 0, 0, 0, time.UTC))
	if !ok || len(ch.Contracts) != 1 {
		t.Fatalf("同日收盘时间戳应命中: ok=%v ch=%+v", ok, ch)
	}
	if _, ok := s.ChainFor(day.AddDate(0, 0, 1)); ok {
		t.Fatalf("次日不应命中")
	}
}

func TestStore_MergeKeepsOrder(t *testing.T) {
	s := New(nil)
	day := time.Date(2023, 1, 3, 0, 0, 0, 0, time.UTC)
	s.Merge(model.OptionChain{Date: day, Contracts: []model.OptionContract{{Strike: 1}}})
	s.Merge(model.OptionChain{Date: day, Contracts: []model.OptionContract{{Strike: 2}, {Strike: 3}}})
	s.Merge(model.OptionChain{Date: day.AddDate(0, 0, 1), Contracts: []model.OptionContract{{Strike: 4}}})

	ch, _ := s.ChainFor(day)
	if len(ch.Contracts) != 3 || ch.Contracts[0].Strike != 1 || ch.Contracts[2].Strike != 3 {
		t.Fatalf("Contracts=%+v", ch.Contracts)
	}
	if s.Len() != 2 {
		t.Fatalf("Len=%d, want 2", s.Len())
	}
	dates := s.Dates()
	if dates[0] != "2023-01-03" || dates[1] != "2023-01-04" {
		t.Fatalf("Dates=%v", dates)
	}
}

func TestStore_OwnsContracts(t *testing.T) {
	s := New(nil)
	day := time.Date(2023, 1, 3, 0, 0, 0, 0, time.UTC)

	backing := make([]model.OptionContract, 1, 4)
	backing[0] = model.OptionContract{Strike: 1}
	s.Put(model.OptionChain{Date: day, Contracts: backing})
	s.Merge(model.OptionChain{Date: day, Contracts: []model.OptionContract{{Strike: 2}}})

	if got := backing[:2][1].Strike; got != 0 {
		t.Fatalf("Merge 写入了调用方底层数组: Strike=%v", got)
	}
	backing[0].Strike = 99
	ch, _ := s.ChainFor(day)
	if len(ch.Contracts) != 2 || ch.Contracts[0].Strike != 1 || ch.Contracts[1].Strike != 2 {
		t.Fatalf("Contracts=%+v", ch.Contracts)
	}
}

func TestStore_Validate(t *testing.T) {
	s := New(nil)
	s.Put(model.OptionChain{Date: time.Date(2023, 1, 3, 0, 0, 0, 0, time.UTC), Contracts: []model.OptionContract{{Type: model.OptionCall, Delta: 2}}})
	if err := s.Validate(); !errors.Is(err, model.ErrInvalidContract) {
		t.Fatalf("err=%v, want ErrInvalidContract", err)
	}
}
