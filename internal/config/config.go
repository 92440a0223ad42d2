// Package config 负责加载和验证 YAML 配置文件。
// 提供回测所需的所有配置项，包括数据源、仓位规则、选约参数、信号参数和输出设置。
package config

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// 数据格式
const (
	// FormatJSON 记录数组 JSON
	FormatJSON = "json"
	// FormatAggregates 聚合接口风格 JSON（{"results":[...]}）
	FormatAggregates = "aggregates"
	// FormatParquet Parquet 文件
	FormatParquet = "parquet"
)

// 执行策略名称
const (
	StrategySequential = "sequential"
	StrategyEventQueue = "event_queue"
	StrategyPipeline   = "pipeline"
)

// Config 应用配置根结构
// 包含所有子模块的配置项
type Config struct {
	// App 应用基础配置
	App AppConfig `yaml:"app"`
	// Data 行情与期权链数据源
	Data DataConfig `yaml:"data"`
	// Strategy 仓位规则（预热、修复阈值、趋势过滤）
	Strategy StrategyConfig `yaml:"strategy"`
	// Selection 合约选择参数
	Selection SelectionConfig `yaml:"selection"`
	// Signal 信号引擎参数
	Signal SignalConfig `yaml:"signal"`
	// Backtest 执行策略与一致性校验
	Backtest BacktestConfig `yaml:"backtest"`
	// Output 输出配置
	Output OutputConfig `yaml:"output"`
}

// AppConfig 应用基础配置
type AppConfig struct {
	// Name 应用名称，用于日志标识
	Name string `yaml:"name"`
	// LogLevel 日志级别: debug, info, warn, error
	LogLevel string `yaml:"log_level"`
}

// DataConfig 数据源配置
type DataConfig struct {
	// Symbol 标的代码，如 TSLA
	Symbol string `yaml:"symbol"`
	// BarsPath K 线文件路径
	BarsPath string `yaml:"bars_path"`
	// BarsFormat K 线格式: json, aggregates, parquet
	BarsFormat string `yaml:"bars_format"`
	// ChainsPath 期权链文件路径
	ChainsPath string `yaml:"chains_path"`
	// ChainsFormat 期权链格式: json, parquet
	ChainsFormat string `yaml:"chains_format"`
	// Timezone K 线时间戳换算为交易日时使用的时区
	Timezone string `yaml:"timezone"`
}

// Location 返回配置的时区（已通过 Validate 校验）
func (d DataConfig) Location() *time.Location {
	loc, err := time.LoadLocation(d.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// StrategyConfig 仓位规则配置
type StrategyConfig struct {
	// WarmupBars 首个参与模拟的 bar 索引
	WarmupBars int `yaml:"warmup_bars"`
	// RepairThreshold 修复阈值，累计盈亏低于该值触发展期或硬止损
	RepairThreshold float64 `yaml:"repair_threshold"`
	// RegimeFast 趋势过滤快线 SMA 周期
	RegimeFast int `yaml:"regime_fast"`
	// RegimeSlow 趋势过滤慢线 SMA 周期
	RegimeSlow int `yaml:"regime_slow"`
}

// SelectionConfig 合约选择配置
type SelectionConfig struct {
	// OptionType 期权类型: call 或 put
	OptionType string `yaml:"option_type"`
	// MinDTE 最小剩余天数（含）
	MinDTE int `yaml:"min_dte"`
	// MaxDTE 最大剩余天数（含）
	MaxDTE int `yaml:"max_dte"`
	// TargetDelta 目标 delta
	TargetDelta float64 `yaml:"target_delta"`
}

// SignalConfig 信号引擎配置
type SignalConfig struct {
	// FastPeriod 快线 SMA 周期
	FastPeriod int `yaml:"fast_period"`
	// SlowPeriod 慢线 SMA 周期，同时决定信号引擎的预热长度
	SlowPeriod int `yaml:"slow_period"`
	// RSIPeriod RSI 周期（Wilder 平滑）
	RSIPeriod int `yaml:"rsi_period"`
	// EntryRSI 入场 RSI 上限（严格小于）
	EntryRSI float64 `yaml:"entry_rsi"`
	// ExitRSI 出场 RSI 下限（严格大于）
	ExitRSI float64 `yaml:"exit_rsi"`
	// GapPct 跳空阈值（开盘相对前收盘的比例）
	GapPct float64 `yaml:"gap_pct"`
	// GapCooldownBars 跳空后强制观望的 bar 数（含跳空 bar）
	// 0 或缺省取默认值 5；冷却不可关闭。
	GapCooldownBars int `yaml:"gap_cooldown_bars"`
	// ConfirmBars 入场条件需连续成立的 bar 数
	ConfirmBars int `yaml:"confirm_bars"`
}

// BacktestConfig 执行策略配置
type BacktestConfig struct {
	// Strategies 要运行的执行策略；第一个作为一致性校验基准
	Strategies []string `yaml:"strategies"`
	// ParityTolerance 结果比较容差（净利润与最大回撤）
	ParityTolerance float64 `yaml:"parity_tolerance"`
}

// OutputConfig 输出配置
type OutputConfig struct {
	// Dir 输出目录
	Dir string `yaml:"dir"`
	// TradesEnabled 是否输出逐笔成交文件
	TradesEnabled bool `yaml:"trades_enabled"`
	// SummaryEnabled 是否输出运行汇总文件
	SummaryEnabled bool `yaml:"summary_enabled"`
	// BufferSize 异步写入缓冲区大小
	BufferSize int `yaml:"buffer_size"`
	// StatsWindow 成交统计滚动窗口大小
	StatsWindow int `yaml:"stats_window"`
}

// Load 从文件加载配置并验证
// 参数 path: 配置文件路径
// 返回: 解析后的配置对象，若失败则返回错误
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("配置验证失败: %w", err)
	}

	return &cfg, nil
}

// Default 返回全部取默认值的配置（数据路径为空）
func Default() *Config {
	var cfg Config
	cfg.setDefaults()
	return &cfg
}

// setDefaults 设置配置默认值
func (c *Config) setDefaults() {
	if c.App.Name == "" {
		c.App.Name = "options-overlay-backtester"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}

	if c.Data.BarsFormat == "" {
		c.Data.BarsFormat = FormatJSON
	}
	if c.Data.ChainsFormat == "" {
		c.Data.ChainsFormat = FormatJSON
	}
	if c.Data.Timezone == "" {
		c.Data.Timezone = "UTC"
	}

	if c.Strategy.WarmupBars == 0 {
		c.Strategy.WarmupBars = 200
	}
	if c.Strategy.RepairThreshold == 0 {
		c.Strategy.RepairThreshold = -0.20
	}
	if c.Strategy.RegimeFast == 0 {
		c.Strategy.RegimeFast = 50
	}
	if c.Strategy.RegimeSlow == 0 {
		c.Strategy.RegimeSlow = 200
	}

	if c.Selection.OptionType == "" {
		c.Selection.OptionType = "call"
	}
	if c.Selection.MinDTE == 0 {
		c.Selection.MinDTE = 30
	}
	if c.Selection.MaxDTE == 0 {
		c.Selection.MaxDTE = 45
	}
	if c.Selection.TargetDelta == 0 {
		// put 的目标 delta 取负
		if strings.EqualFold(c.Selection.OptionType, "put") {
			c.Selection.TargetDelta = -0.30
		} else {
			c.Selection.TargetDelta = 0.30
		}
	}

	if c.Signal.FastPeriod == 0 {
		c.Signal.FastPeriod = 50
	}
	if c.Signal.SlowPeriod == 0 {
		c.Signal.SlowPeriod = 200
	}
	if c.Signal.RSIPeriod == 0 {
		c.Signal.RSIPeriod = 14
	}
	if c.Signal.EntryRSI == 0 {
		c.Signal.EntryRSI = 40
	}
	if c.Signal.ExitRSI == 0 {
		c.Signal.ExitRSI = 70
	}
	if c.Signal.GapPct == 0 {
		c.Signal.GapPct = 0.02
	}
	if c.Signal.GapCooldownBars == 0 {
		c.Signal.GapCooldownBars = 5
	}
	if c.Signal.ConfirmBars == 0 {
		c.Signal.ConfirmBars = 2
	}

	if len(c.Backtest.Strategies) == 0 {
		c.Backtest.Strategies = []string{StrategySequential, StrategyEventQueue, StrategyPipeline}
	}
	if c.Backtest.ParityTolerance == 0 {
		c.Backtest.ParityTolerance = 1e-4
	}

	if c.Output.Dir == "" {
		c.Output.Dir = "./output"
	}
	if c.Output.BufferSize == 0 {
		c.Output.BufferSize = 1000
	}
	if c.Output.StatsWindow == 0 {
		c.Output.StatsWindow = 1000
	}
}

// Validate 验证配置合法性
// 检查所有必填项和数值范围
// 返回: 若配置无效则返回描述性错误
func (c *Config) Validate() error {
	var errs []string

	// 数据源
	if c.Data.BarsPath == "" {
		errs = append(errs, "data.bars_path: K 线文件路径不能为空")
	}
	if c.Data.ChainsPath == "" {
		errs = append(errs, "data.chains_path: 期权链文件路径不能为空")
	}
	switch c.Data.BarsFormat {
	case FormatJSON, FormatAggregates, FormatParquet:
	default:
		errs = append(errs, fmt.Sprintf("data.bars_format: 无效的格式 '%s'，有效值: json, aggregates, parquet", c.Data.BarsFormat))
	}
	switch c.Data.ChainsFormat {
	case FormatJSON, FormatParquet:
	default:
		errs = append(errs, fmt.Sprintf("data.chains_format: 无效的格式 '%s'，有效值: json, parquet", c.Data.ChainsFormat))
	}
	if _, err := time.LoadLocation(c.Data.Timezone); err != nil {
		errs = append(errs, fmt.Sprintf("data.timezone: 无法加载时区 '%s': %v", c.Data.Timezone, err))
	}

	// 仓位规则：预热期必须覆盖慢线 SMA 的定义区间
	if c.Strategy.RegimeFast <= 0 || c.Strategy.RegimeSlow <= 0 {
		errs = append(errs, "strategy.regime_fast/regime_slow: SMA 周期必须为正数")
	} else if c.Strategy.RegimeFast >= c.Strategy.RegimeSlow {
		errs = append(errs, "strategy.regime_fast: 快线周期必须小于慢线周期")
	}
	if c.Strategy.WarmupBars < c.Strategy.RegimeSlow {
		errs = append(errs, fmt.Sprintf("strategy.warmup_bars: 预热期 %d 不能小于趋势慢线周期 %d", c.Strategy.WarmupBars, c.Strategy.RegimeSlow))
	}
	if c.Strategy.WarmupBars < c.Signal.SlowPeriod {
		errs = append(errs, fmt.Sprintf("strategy.warmup_bars: 预热期 %d 不能小于信号慢线周期 %d", c.Strategy.WarmupBars, c.Signal.SlowPeriod))
	}
	if c.Strategy.WarmupBars < c.Signal.RSIPeriod {
		errs = append(errs, fmt.Sprintf("strategy.warmup_bars: 预热期 %d 不能小于 RSI 周期 %d", c.Strategy.WarmupBars, c.Signal.RSIPeriod))
	}
	if !(c.Strategy.RepairThreshold < 0) {
		errs = append(errs, "strategy.repair_threshold: 修复阈值必须为负数")
	}

	// 选约
	switch strings.ToLower(c.Selection.OptionType) {
	case "call", "put":
	default:
		errs = append(errs, fmt.Sprintf("selection.option_type: 无效的期权类型 '%s'，有效值: call, put", c.Selection.OptionType))
	}
	if c.Selection.MinDTE < 0 {
		errs = append(errs, "selection.min_dte: 最小剩余天数不能为负数")
	}
	if c.Selection.MinDTE > c.Selection.MaxDTE {
		errs = append(errs, "selection.min_dte: 最小剩余天数不能大于最大剩余天数")
	}
	if math.IsNaN(c.Selection.TargetDelta) || c.Selection.TargetDelta < -1 || c.Selection.TargetDelta > 1 {
		errs = append(errs, "selection.target_delta: 目标 delta 必须在 -1 到 1 之间")
	}

	// 信号
	if c.Signal.FastPeriod <= 0 || c.Signal.SlowPeriod <= 0 || c.Signal.FastPeriod >= c.Signal.SlowPeriod {
		errs = append(errs, "signal.fast_period/slow_period: 周期必须为正且快线小于慢线")
	}
	if c.Signal.RSIPeriod <= 0 {
		errs = append(errs, "signal.rsi_period: RSI 周期必须为正数")
	}
	if c.Signal.EntryRSI <= 0 || c.Signal.ExitRSI > 100 || c.Signal.EntryRSI >= c.Signal.ExitRSI {
		errs = append(errs, "signal.entry_rsi/exit_rsi: 需满足 0 < entry_rsi < exit_rsi <= 100")
	}
	if c.Signal.GapPct <= 0 {
		errs = append(errs, "signal.gap_pct: 跳空阈值必须为正数")
	}
	if c.Signal.GapCooldownBars < 1 {
		errs = append(errs, "signal.gap_cooldown_bars: 冷却 bar 数必须为正数（0 取默认值）")
	}
	if c.Signal.ConfirmBars <= 0 {
		errs = append(errs, "signal.confirm_bars: 确认 bar 数必须为正数")
	}

	// 执行策略
	valid := map[string]bool{StrategySequential: true, StrategyEventQueue: true, StrategyPipeline: true}
	seen := make(map[string]bool, len(c.Backtest.Strategies))
	for i, name := range c.Backtest.Strategies {
		if !valid[name] {
			errs = append(errs, fmt.Sprintf("backtest.strategies[%d]: 未知的执行策略 '%s'", i, name))
		}
		if seen[name] {
			errs = append(errs, fmt.Sprintf("backtest.strategies[%d]: 执行策略 '%s' 重复", i, name))
		}
		seen[name] = true
	}
	if len(c.Backtest.Strategies) == 0 {
		errs = append(errs, "backtest.strategies: 至少需要一个执行策略")
	}
	if c.Backtest.ParityTolerance < 0 {
		errs = append(errs, "backtest.parity_tolerance: 容差不能为负数")
	}

	if c.Output.BufferSize < 0 {
		errs = append(errs, "output.buffer_size: 缓冲区大小不能为负数")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.App.LogLevel)] {
		errs = append(errs, fmt.Sprintf("app.log_level: 无效的日志级别 '%s'，有效值: debug, info, warn, error", c.App.LogLevel))
	}

	if len(errs) > 0 {
		return fmt.Errorf("配置验证错误:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}
