package ingest

import (
	"fmt"
	"os"

	"options-overlay-backtester/internal/config"
	"options-overlay-backtester/internal/core/model"
	"options-overlay-backtester/internal/core/store"
)

// LoadBars 按配置格式加载并校验 K 线
func LoadBars(cfg config.DataConfig) (model.BarSeries, error) {
	var (
		series model.BarSeries
		err    error
	)
	switch cfg.BarsFormat {
	case config.FormatJSON:
		var data []byte
		if data, err = os.ReadFile(cfg.BarsPath); err != nil {
			return model.BarSeries{}, fmt.Errorf("读取 K 线文件失败: %w", err)
		}
		series, err = ParseBars(data, cfg.Symbol)
	case config.FormatAggregates:
		var f *os.File
		if f, err = os.Open(cfg.BarsPath); err != nil {
			return model.BarSeries{}, fmt.Errorf("打开 K 线文件失败: %w", err)
		}
		defer f.Close()
		series, err = ParseAggregates(f, cfg.Symbol)
	case config.FormatParquet:
		series, err = LoadBarsParquet(cfg.BarsPath, cfg.Symbol)
	default:
		return model.BarSeries{}, fmt.Errorf("不支持的 K 线格式 '%s'", cfg.BarsFormat)
	}
	if err != nil {
		return model.BarSeries{}, err
	}
	if err := series.Validate(); err != nil {
		return model.BarSeries{}, fmt.Errorf("K 线校验失败: %w", err)
	}
	return series, nil
}

// LoadChains 按配置格式加载期权链
func LoadChains(cfg config.DataConfig) (*store.Store, error) {
	loc := cfg.Location()
	switch cfg.ChainsFormat {
	case config.FormatJSON:
		data, err := os.ReadFile(cfg.ChainsPath)
		if err != nil {
			return nil, fmt.Errorf("读取期权链文件失败: %w", err)
		}
		return ParseChains(data, loc)
	case config.FormatParquet:
		return LoadChainsParquet(cfg.ChainsPath, loc)
	default:
		return nil, fmt.Errorf("不支持的期权链格式 '%s'", cfg.ChainsFormat)
	}
}

// Load 加载 K 线与期权链；任一失败则整体失败
func Load(cfg config.DataConfig) (model.BarSeries, *store.Store, error) {
	series, err := LoadBars(cfg)
	if err != nil {
		return model.BarSeries{}, nil, err
	}
	chains, err := LoadChains(cfg)
	if err != nil {
		return model.BarSeries{}, nil, err
	}
	return series, chains, nil
}
