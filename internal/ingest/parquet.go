package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"

	"options-overlay-backtester/internal/core/model"
	"options-overlay-backtester/internal/core/store"
	"options-overlay-backtester/internal/util/timeutil"
)

// BarRecord K 线 Parquet 行结构
type BarRecord struct {
	Symbol    string  `parquet:"symbol"`
	Timestamp int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Open      float64 `parquet:"open"`
	High      float64 `parquet:"high"`
	Low       float64 `parquet:"low"`
	Close     float64 `parquet:"close"`
	Volume    int64   `parquet:"volume"`
}

// ContractRecord 期权链 Parquet 行结构（每行一个合约，按 date 分组）
type ContractRecord struct {
	Date       int64   `parquet:"date,timestamp(millisecond)"` // 交易日零点 Unix ms
	Underlying string  `parquet:"underlying"`
	Type       string  `parquet:"type"`
	Strike     float64 `parquet:"strike"`
	Expiration int64   `parquet:"expiration,timestamp(millisecond)"` // Unix ms
	Delta      float64 `parquet:"delta"`
	DTE        int32   `parquet:"dte"`
	Theta      float64 `parquet:"theta"`
	Price      float64 `parquet:"price"`
}

// LoadBarsParquet 从 Parquet 文件加载 K 线（保持文件行序）
// 参数 path: 文件路径
// 参数 symbol: 标的代码，为空时取首行 symbol 列
func LoadBarsParquet(path, symbol string) (model.BarSeries, error) {
	rows, err := parquet.ReadFile[BarRecord](path)
	if err != nil {
		return model.BarSeries{}, fmt.Errorf("读取 K 线 Parquet 失败: %w", err)
	}
	series := model.BarSeries{Symbol: symbol, Bars: make([]model.Bar, len(rows))}
	if series.Symbol == "" && len(rows) > 0 {
		series.Symbol = rows[0].Symbol
	}
	for i, r := range rows {
		series.Bars[i] = model.Bar{
			Timestamp: timeutil.MsToTime(r.Timestamp),
			Open:      r.Open,
			High:      r.High,
			Low:       r.Low,
			Close:     r.Close,
			Volume:    r.Volume,
		}
	}
	return series, nil
}

// WriteBarsParquet 将 K 线写入 Parquet 文件
func WriteBarsParquet(path string, series model.BarSeries) error {
	records := make([]BarRecord, len(series.Bars))
	for i, b := range series.Bars {
		records[i] = BarRecord{
			Symbol:    series.Symbol,
			Timestamp: timeutil.TimeToMs(b.Timestamp),
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    b.Volume,
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}
	return parquet.WriteFile(path, records)
}

// LoadChainsParquet 从 Parquet 文件加载期权链
// 同一交易日的行按文件顺序合并为一条链。
// 参数 loc: 交易日时区
func LoadChainsParquet(path string, loc *time.Location) (*store.Store, error) {
	rows, err := parquet.ReadFile[ContractRecord](path)
	if err != nil {
		return nil, fmt.Errorf("读取期权链 Parquet 失败: %w", err)
	}
	st := store.New(loc)
	for i, r := range rows {
		typ, err := model.ParseOptionType(r.Type)
		if err != nil {
			return nil, fmt.Errorf("第 %d 行: %w", i, err)
		}
		day := timeutil.StartOfDay(timeutil.MsToTime(r.Date), loc)
		oc := model.OptionContract{
			Underlying: r.Underlying,
			Type:       typ,
			Strike:     r.Strike,
			Delta:      r.Delta,
			DTE:        int(r.DTE),
			Theta:      r.Theta,
			Price:      r.Price,
		}
		if r.Expiration != 0 {
			oc.Expiration = timeutil.StartOfDay(timeutil.MsToTime(r.Expiration), loc)
		}
		st.Merge(model.OptionChain{Underlying: r.Underlying, Date: day, Contracts: []model.OptionContract{oc}})
	}
	if err := st.Validate(); err != nil {
		return nil, fmt.Errorf("期权链校验失败: %w", err)
	}
	return st, nil
}

// WriteChainsParquet 将期权链按交易日顺序写入 Parquet 文件
func WriteChainsParquet(path string, chains []model.OptionChain) error {
	var records []ContractRecord
	for _, ch := range chains {
		for _, c := range ch.Contracts {
			rec := ContractRecord{
				Date:       timeutil.TimeToMs(ch.Date),
				Underlying: c.Underlying,
				Type:       string(c.Type),
				Strike:     c.Strike,
				Delta:      c.Delta,
				DTE:        int32(c.DTE),
				Theta:      c.Theta,
				Price:      c.Price,
			}
			if !c.Expiration.IsZero() {
				rec.Expiration = timeutil.TimeToMs(c.Expiration)
			}
			records = append(records, rec)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}
	return parquet.WriteFile(path, records)
}
