// Package ingest 负责把 K 线与期权链文件加载为模型数据。
// 支持记录数组 JSON、聚合接口风格 JSON（流式解码）与 Parquet 三种来源，
// 同一份数据经任一路径加载的结果必须逐 bar 一致。
package ingest

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"options-overlay-backtester/internal/core/model"
	"options-overlay-backtester/internal/util/fastparse"
	"options-overlay-backtester/internal/util/timeutil"
)

// barJSON 记录数组格式的单条 K 线
type barJSON struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    int64     `json:"volume"`
}

// ParseBars 解析记录数组格式
// 输入形如 [{"timestamp":"2023-01-03T21:00:00Z","open":..,"high":..,"low":..,"close":..,"volume":..}]
// 参数 data: 文件内容
// 参数 symbol: 标的代码
func ParseBars(data []byte, symbol string) (model.BarSeries, error) {
	var rows []barJSON
	if err := json.Unmarshal(data, &rows); err != nil {
		return model.BarSeries{}, fmt.Errorf("解析 K 线 JSON 失败: %w", err)
	}
	series := model.BarSeries{Symbol: symbol, Bars: make([]model.Bar, len(rows))}
	for i, r := range rows {
		series.Bars[i] = model.Bar{
			Timestamp: r.Timestamp.UTC(),
			Open:      r.Open,
			High:      r.High,
			Low:       r.Low,
			Close:     r.Close,
			Volume:    r.Volume,
		}
	}
	return series, nil
}

// ParseAggregates 流式解析聚合接口格式
// 输入形如 {"ticker":"TSLA","results":[{"t":毫秒,"o":..,"h":..,"l":..,"c":..,"v":..}],...}
// 除 results 与 ticker 外的字段均跳过；逐 token 解码，不整体反序列化。
// 参数 r: 数据流
// 参数 symbol: 标的代码，为空时取 ticker 字段
func ParseAggregates(r io.Reader, symbol string) (model.BarSeries, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	series := model.BarSeries{Symbol: symbol}
	if err := expectDelim(dec, '{'); err != nil {
		return model.BarSeries{}, fmt.Errorf("解析聚合数据失败: %w", err)
	}
	for dec.More() {
		key, err := readKey(dec)
		if err != nil {
			return model.BarSeries{}, fmt.Errorf("解析聚合数据失败: %w", err)
		}
		switch key {
		case "results":
			bars, err := readAggregates(dec)
			if err != nil {
				return model.BarSeries{}, fmt.Errorf("解析 results 失败: %w", err)
			}
			series.Bars = append(series.Bars, bars...)
		case "ticker":
			tok, err := dec.Token()
			if err != nil {
				return model.BarSeries{}, fmt.Errorf("解析 ticker 失败: %w", err)
			}
			if s, ok := tok.(string); ok && series.Symbol == "" {
				series.Symbol = s
			} else if err := skipFrom(dec, tok); err != nil {
				return model.BarSeries{}, fmt.Errorf("解析 ticker 失败: %w", err)
			}
		default:
			if err := skipValue(dec); err != nil {
				return model.BarSeries{}, fmt.Errorf("跳过字段 %s 失败: %w", key, err)
			}
		}
	}
	if err := expectDelim(dec, '}'); err != nil {
		return model.BarSeries{}, fmt.Errorf("解析聚合数据失败: %w", err)
	}
	return series, nil
}

func readAggregates(dec *json.Decoder) ([]model.Bar, error) {
	if err := expectDelim(dec, '['); err != nil {
		return nil, err
	}
	var bars []model.Bar
	for dec.More() {
		b, err := readAggregate(dec)
		if err != nil {
			return nil, fmt.Errorf("results[%d]: %w", len(bars), err)
		}
		bars = append(bars, b)
	}
	if err := expectDelim(dec, ']'); err != nil {
		return nil, err
	}
	return bars, nil
}

func readAggregate(dec *json.Decoder) (model.Bar, error) {
	var b model.Bar
	if err := expectDelim(dec, '{'); err != nil {
		return b, err
	}
	for dec.More() {
		key, err := readKey(dec)
		if err != nil {
			return b, err
		}
		tok, err := dec.Token()
		if err != nil {
			return b, err
		}
		switch key {
		case "t":
			ms, err := fastparse.Int(tok)
			if err != nil {
				return b, fmt.Errorf("t: %w", err)
			}
			b.Timestamp = timeutil.MsToTime(ms)
		case "o":
			b.Open, err = fastparse.Float(tok)
		case "h":
			b.High, err = fastparse.Float(tok)
		case "l":
			b.Low, err = fastparse.Float(tok)
		case "c":
			b.Close, err = fastparse.Float(tok)
		case "v":
			b.Volume, err = fastparse.Int(tok)
		default:
			err = skipFrom(dec, tok)
		}
		if err != nil {
			return b, fmt.Errorf("%s: %w", key, err)
		}
	}
	return b, expectDelim(dec, '}')
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("期望 '%s'，实际为 %v", want, tok)
	}
	return nil
}

func readKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("期望字段名，实际为 %v", tok)
	}
	return key, nil
}

// skipValue 跳过下一个完整的 JSON 值
func skipValue(dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	return skipFrom(dec, tok)
}

// skipFrom 已读出 tok 后跳过其余部分（tok 为 '{' 或 '[' 时消费到匹配的结束符）
func skipFrom(dec *json.Decoder, tok json.Token) error {
	d, ok := tok.(json.Delim)
	if !ok || (d != '{' && d != '[') {
		return nil
	}
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		if d, ok := tok.(json.Delim); ok {
			switch d {
			case '{', '[':
				depth++
			case '}', ']':
				depth--
			}
		}
	}
	return nil
}
