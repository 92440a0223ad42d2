// Package ingest 数据加载测试
package ingest

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"options-overlay-backtester/internal/config"
	"options-overlay-backtester/internal/core/model"
)

const recordsJSON = `[
  {"timestamp":"2023-01-03T21:00:00Z","open":118.47,"high":118.80,"low":104.64,"close":108.10,"volume":231402800},
  {"timestamp":"2023-01-04T21:00:00Z","open":109.11,"high":114.59,"low":107.52,"close":113.64,"volume":180389000},
  {"timestamp":"2023-01-05T21:00:00Z","open":110.51,"high":111.75,"low":107.16,"close":110.34,"volume":157986300}
]`

const aggregatesJSON = `{
  "ticker":"TSLA",
  "queryCount":3,
  "adjusted":true,
  "meta":{"source":["sip",{"nested":[1,2]}]},
  "results":[
    {"v":231402800,"vw":110.1,"o":118.47,"c":108.10,"h":118.80,"l":104.64,"t":1672779600000,"n":1},
    {"v":1.80389e+08,"o":109.11,"c":113.64,"h":114.59,"l":107.52,"t":1672866000000,"extra":{"a":[1]}},
    {"v":157986300,"o":110.51,"c":110.34,"h":111.75,"l":107.16,"t":1672952400000}
  ],
  "status":"OK"
}`

func assertSameBars(t *testing.T, name string, a, b model.BarSeries) {
	t.Helper()
	if a.Len() != b.Len() {
		t.Fatalf("%s: Len=%d vs %d", name, a.Len(), b.Len())
	}
	for i := range a.Bars {
		x, y := a.Bars[i], b.Bars[i]
		if !x.Timestamp.Equal(y.Timestamp) || x.Open != y.Open || x.High != y.High || x.Low != y.Low || x.Close != y.Close || x.Volume != y.Volume {
			t.Fatalf("%s: bar[%d] %+v vs %+v", name, i, x, y)
		}
	}
}

func TestLoaders_Agree(t *testing.T) {
	records, err := ParseBars([]byte(recordsJSON), "TSLA")
	if err != nil {
		t.Fatalf("ParseBars err=%v", err)
	}
	aggs, err := ParseAggregates(strings.NewReader(aggregatesJSON), "")
	if err != nil {
		t.Fatalf("ParseAggregates err=%v", err)
	}
	if aggs.Symbol != "TSLA" {
		t.Fatalf("Symbol=%q, want TSLA", aggs.Symbol)
	}
	assertSameBars(t, "records vs aggregates", records, aggs)

	path := filepath.Join(t.TempDir(), "bars.parquet")
	if err := WriteBarsParquet(path, records); err != nil {
		t.Fatalf("WriteBarsParquet err=%v", err)
	}
	pq, err := LoadBarsParquet(path, "")
	if err != nil {
		t.Fatalf("LoadBarsParquet err=%v", err)
	}
	if pq.Symbol != "TSLA" {
		t.Fatalf("Symbol=%q, want TSLA", pq.Symbol)
	}
	assertSameBars(t, "records vs parquet", records, pq)
}

func TestParseAggregates_Malformed(t *testing.T) {
	cases := []string{
		`[]`,
		`{"results":{"t":1}}`,
		`{"results":[{"t":"abc","c":1}]}`,
		`{"results":[{"c":true}]}`,
		`{"results":[`,
	}
	for _, in := range cases {
		if _, err := ParseAggregates(strings.NewReader(in), "X"); err == nil {
			t.Fatalf("输入 %s 应返回错误", in)
		}
	}
}

func TestParseBars_Malformed(t *testing.T) {
	if _, err := ParseBars([]byte(`[{"timestamp":"yesterday"}]`), "X"); err == nil {
		t.Fatalf("非法时间戳应返回错误")
	}
}

const chainsJSON = `{"chains":[
  {"date":"2023-01-03","underlying":"TSLA","contracts":[
    {"type":"CALL","strike":120,"expiration":"2023-02-17","delta":0.31,"theta":0.012,"price":6.2},
    {"type":"put","strike":100,"expiration":"2023-02-17","delta":-0.28,"dte":45,"theta":0.011,"price":4.9}
  ]},
  {"date":"2023-01-04","underlying":"TSLA","contracts":[
    {"type":"C","strike":125,"expiration":"2023-02-10","delta":0.29,"theta":0.013}
  ]},
  {"date":"2023-01-03","underlying":"TSLA","contracts":[
    {"type":"CALL","strike":130,"dte":33,"delta":0.22,"theta":0.01}
  ]}
]}`

func TestParseChains(t *testing.T) {
	st, err := ParseChains([]byte(chainsJSON), time.UTC)
	if err != nil {
		t.Fatalf("ParseChains err=%v", err)
	}
	if st.Len() != 2 {
		t.Fatalf("Len=%d, want 2", st.Len())
	}
	ch, ok := st.ChainFor(time.Date(2023, 1, 3, 21, 0, 0, 0, time.UTC))
	if !ok || len(ch.Contracts) != 3 {
		t.Fatalf("2023-01-03 ok=%v contracts=%d, want 3（重复日期合并）", ok, len(ch.Contracts))
	}
	if ch.Contracts[0].DTE != 45 {
		t.Fatalf("缺省 DTE 应由到期日推算: %d", ch.Contracts[0].DTE)
	}
	if ch.Contracts[1].Type != model.OptionPut || ch.Contracts[2].Strike != 130 {
		t.Fatalf("contracts=%+v", ch.Contracts)
	}
	next, _ := st.ChainFor(time.Date(2023, 1, 4, 21, 0, 0, 0, time.UTC))
	if next.Contracts[0].DTE != 37 {
		t.Fatalf("DTE=%d, want 37", next.Contracts[0].DTE)
	}
}

func TestParseChains_Invalid(t *testing.T) {
	cases := map[string]string{
		"日期":     `{"chains":[{"date":"03/01/2023","contracts":[]}]}`,
		"类型":     `{"chains":[{"date":"2023-01-03","contracts":[{"type":"X","dte":30}]}]}`,
		"缺 DTE":  `{"chains":[{"date":"2023-01-03","contracts":[{"type":"CALL","delta":0.3}]}]}`,
		"delta":  `{"chains":[{"date":"2023-01-03","contracts":[{"type":"CALL","delta":1.3,"dte":30}]}]}`,
		"JSON 语法": `{"chains":`,
	}
	for name, in := range cases {
		if _, err := ParseChains([]byte(in), time.UTC); err == nil {
			t.Fatalf("%s: 应返回错误", name)
		}
	}
}

func TestChainsParquet_RoundTrip(t *testing.T) {
	st, err := ParseChains([]byte(chainsJSON), time.UTC)
	if err != nil {
		t.Fatalf("ParseChains err=%v", err)
	}
	var chains []model.OptionChain
	for _, d := range st.Dates() {
		day, _ := time.Parse(time.DateOnly, d)
		ch, _ := st.ChainFor(day)
		chains = append(chains, ch)
	}

	path := filepath.Join(t.TempDir(), "chains.parquet")
	if err := WriteChainsParquet(path, chains); err != nil {
		t.Fatalf("WriteChainsParquet err=%v", err)
	}
	back, err := LoadChainsParquet(path, time.UTC)
	if err != nil {
		t.Fatalf("LoadChainsParquet err=%v", err)
	}
	for _, ch := range chains {
		got, ok := back.ChainFor(ch.Date)
		if !ok || len(got.Contracts) != len(ch.Contracts) {
			t.Fatalf("%s: ok=%v len=%d", ch.Date, ok, len(got.Contracts))
		}
		for i := range ch.Contracts {
			a, b := ch.Contracts[i], got.Contracts[i]
			if a.Type != b.Type || a.Strike != b.Strike || a.Delta != b.Delta || a.DTE != b.DTE || a.Theta != b.Theta || !a.Expiration.Equal(b.Expiration) {
				t.Fatalf("contract[%d] %+v vs %+v", i, a, b)
			}
		}
	}
}

func TestLoad_FromConfig(t *testing.T) {
	dir := t.TempDir()
	bars := filepath.Join(dir, "bars.json")
	chains := filepath.Join(dir, "chains.json")
	if err := os.WriteFile(bars, []byte(aggregatesJSON), 0o644); err != nil {
		t.Fatalf("写文件失败: %v", err)
	}
	if err := os.WriteFile(chains, []byte(chainsJSON), 0o644); err != nil {
		t.Fatalf("写文件失败: %v", err)
	}

	cfg := config.Default().Data
	cfg.BarsPath, cfg.BarsFormat = bars, config.FormatAggregates
	cfg.ChainsPath = chains

	series, st, err := Load(cfg)
	if err != nil {
		t.Fatalf("Load err=%v", err)
	}
	if series.Len() != 3 || st.Len() != 2 {
		t.Fatalf("Len=%d chains=%d", series.Len(), st.Len())
	}
}

func TestLoad_RejectsUnsortedBars(t *testing.T) {
	dir := t.TempDir()
	bars := filepath.Join(dir, "bars.json")
	unsorted := `[
  {"timestamp":"2023-01-04T21:00:00Z","open":1,"high":1,"low":1,"close":1,"volume":1},
  {"timestamp":"2023-01-03T21:00:00Z","open":1,"high":1,"low":1,"close":1,"volume":1}
]`
	if err := os.WriteFile(bars, []byte(unsorted), 0o644); err != nil {
		t.Fatalf("写文件失败: %v", err)
	}
	cfg := config.Default().Data
	cfg.BarsPath = bars
	cfg.ChainsPath = filepath.Join(dir, "missing.json")

	if _, _, err := Load(cfg); !errors.Is(err, model.ErrUnsortedSeries) {
		t.Fatalf("err=%v, want ErrUnsortedSeries", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	cfg := config.Default().Data
	cfg.BarsPath = filepath.Join(t.TempDir(), "nope.json")
	if _, _, err := Load(cfg); err == nil {
		t.Fatalf("缺失文件应返回错误")
	}
}
