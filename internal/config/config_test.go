// Package config 配置模块测试
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// **Feature: options-overlay-backtester, Property 1: Config Validation Correctness**

// TestConfigValidation_Warmup 测试预热期约束
// 属性: 预热期小于任一慢线周期应验证失败
func TestConfigValidation_Warmup(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("预热期小于趋势慢线应验证失败", prop.ForAll(
		func(warmup int) bool {
			cfg := createValidConfig()
			cfg.Strategy.WarmupBars = warmup
			return cfg.Validate() != nil
		},
		gen.IntRange(-100, 199),
	))

	properties.Property("预热期不小于慢线应通过验证", prop.ForAll(
		func(warmup int) bool {
			cfg := createValidConfig()
			cfg.Strategy.WarmupBars = warmup
			return cfg.Validate() == nil
		},
		gen.IntRange(200, 5000),
	))

	properties.Property("信号慢线长于预热期应验证失败", prop.ForAll(
		func(slow int) bool {
			cfg := createValidConfig()
			cfg.Signal.SlowPeriod = slow
			return cfg.Validate() != nil
		},
		gen.IntRange(201, 1000),
	))

	properties.Property("RSI 周期长于预热期应验证失败", prop.ForAll(
		func(period int) bool {
			cfg := createValidConfig()
			cfg.Signal.RSIPeriod = period
			return cfg.Validate() != nil
		},
		gen.IntRange(201, 1000),
	))

	properties.TestingRun(t)
}

func TestConfigValidation_RSIPeriodWithinWarmup(t *testing.T) {
	cfg := createValidConfig()
	cfg.Signal.RSIPeriod = 250
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "RSI 周期") {
		t.Fatalf("err=%v, want RSI 周期错误", err)
	}

	cfg.Strategy.WarmupBars = 250
	if err := cfg.Validate(); err != nil {
		t.Fatalf("预热期覆盖 RSI 周期后应通过: %v", err)
	}
}

func TestConfigValidation_GapCooldown(t *testing.T) {
	cfg := createValidConfig()
	cfg.Signal.GapCooldownBars = -1
	if err := cfg.Validate(); err == nil {
		t.Fatalf("负冷却应验证失败")
	}
	cfg.Signal.GapCooldownBars = 1
	if err := cfg.Validate(); err != nil {
		t.Fatalf("冷却 1 应通过: %v", err)
	}
}

// TestConfigValidation_Selection 测试选约参数验证
func TestConfigValidation_Selection(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("目标 delta 超出 [-1, 1] 应验证失败", prop.ForAll(
		func(delta float64) bool {
			cfg := createValidConfig()
			cfg.Selection.TargetDelta = delta
			return cfg.Validate() != nil
		},
		gen.OneGenOf(
			gen.Float64Range(-1000, -1.0001),
			gen.Float64Range(1.0001, 1000),
		),
	))

	properties.Property("DTE 区间颠倒应验证失败", prop.ForAll(
		func(minDTE, width int) bool {
			cfg := createValidConfig()
			cfg.Selection.MinDTE = minDTE
			cfg.Selection.MaxDTE = minDTE - width
			return cfg.Validate() != nil
		},
		gen.IntRange(0, 365),
		gen.IntRange(1, 30),
	))

	properties.Property("有效 DTE 区间与 delta 应通过验证", prop.ForAll(
		func(minDTE, width int, delta float64) bool {
			cfg := createValidConfig()
			cfg.Selection.MinDTE = minDTE
			cfg.Selection.MaxDTE = minDTE + width
			cfg.Selection.TargetDelta = delta
			return cfg.Validate() == nil
		},
		gen.IntRange(0, 365),
		gen.IntRange(0, 60),
		gen.Float64Range(-1, 1),
	))

	properties.TestingRun(t)
}

// TestConfigValidation_RepairThreshold 测试修复阈值必须为负
func TestConfigValidation_RepairThreshold(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("非负修复阈值应验证失败", prop.ForAll(
		func(th float64) bool {
			cfg := createValidConfig()
			cfg.Strategy.RepairThreshold = th
			return cfg.Validate() != nil
		},
		gen.Float64Range(0, 100),
	))

	properties.TestingRun(t)
}

func TestConfigValidation_UnknownStrategy(t *testing.T) {
	cfg := createValidConfig()
	cfg.Backtest.Strategies = []string{StrategySequential, "actor", StrategySequential}
	err := cfg.Validate()
	if err == nil {
		t.Fatalf("未知/重复的执行策略应验证失败")
	}
	if !strings.Contains(err.Error(), "actor") || !strings.Contains(err.Error(), "重复") {
		t.Fatalf("错误信息缺少细节: %v", err)
	}
}

func TestConfigValidation_Formats(t *testing.T) {
	cfg := createValidConfig()
	cfg.Data.BarsFormat = "csv"
	cfg.Data.ChainsFormat = FormatAggregates
	cfg.Data.Timezone = "Mars/Olympus"
	err := cfg.Validate()
	if err == nil {
		t.Fatalf("无效格式应验证失败")
	}
	for _, field := range []string{"data.bars_format", "data.chains_format", "data.timezone"} {
		if !strings.Contains(err.Error(), field) {
			t.Fatalf("错误信息缺少 %s: %v", field, err)
		}
	}
}

func TestDefault_MatchesDocumentedValues(t *testing.T) {
	cfg := Default()
	if cfg.Strategy.WarmupBars != 200 {
		t.Fatalf("WarmupBars=%d, want 200", cfg.Strategy.WarmupBars)
	}
	if cfg.Strategy.RepairThreshold != -0.20 {
		t.Fatalf("RepairThreshold=%v, want -0.20", cfg.Strategy.RepairThreshold)
	}
	if cfg.Selection.MinDTE != 30 || cfg.Selection.MaxDTE != 45 || cfg.Selection.TargetDelta != 0.30 {
		t.Fatalf("Selection=%+v, want call 30-45 delta 0.30", cfg.Selection)
	}
	if cfg.Signal.RSIPeriod != 14 || cfg.Signal.ConfirmBars != 2 || cfg.Signal.GapCooldownBars != 5 {
		t.Fatalf("Signal=%+v", cfg.Signal)
	}
	if len(cfg.Backtest.Strategies) != 3 {
		t.Fatalf("Strategies=%v, want 3", cfg.Backtest.Strategies)
	}
}

func TestDefault_PutTargetDelta(t *testing.T) {
	cfg := &Config{Selection: SelectionConfig{OptionType: "put"}}
	cfg.setDefaults()
	if cfg.Selection.TargetDelta != -0.30 {
		t.Fatalf("TargetDelta=%v, want -0.30", cfg.Selection.TargetDelta)
	}
}

// createValidConfig 创建一个有效的配置用于测试
func createValidConfig() *Config {
	cfg := Default()
	cfg.Data.Symbol = "TSLA"
	cfg.Data.BarsPath = "./data/tsla.json"
	cfg.Data.ChainsPath = "./data/chains.json"
	return cfg
}

// TestLoad_ValidFile 测试从有效文件加载配置
func TestLoad_ValidFile(t *testing.T) {
	content := `
app:
  name: test-backtester
  log_level: debug

data:
  symbol: TSLA
  bars_path: ./data/tsla_bars.json
  bars_format: aggregates
  chains_path: ./data/tsla_chains.parquet
  chains_format: parquet
  timezone: America/New_York

strategy:
  warmup_bars: 250

selection:
  option_type: put

signal:
  gap_cooldown_bars: 0

backtest:
  strategies: [pipeline, sequential]
`
	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(tmpFile, []byte(content), 0644); err != nil {
		t.Fatalf("创建临时文件失败: %v", err)
	}

	cfg, err := Load(tmpFile)
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}

	if cfg.App.Name != "test-backtester" {
		t.Errorf("App.Name = %s, want test-backtester", cfg.App.Name)
	}
	if cfg.Data.BarsFormat != FormatAggregates {
		t.Errorf("Data.BarsFormat = %s, want aggregates", cfg.Data.BarsFormat)
	}
	if cfg.Strategy.WarmupBars != 250 {
		t.Errorf("Strategy.WarmupBars = %d, want 250", cfg.Strategy.WarmupBars)
	}
	if cfg.Strategy.RepairThreshold != -0.20 {
		t.Errorf("Strategy.RepairThreshold = %v, want -0.20", cfg.Strategy.RepairThreshold)
	}
	if cfg.Selection.TargetDelta != -0.30 {
		t.Errorf("Selection.TargetDelta = %v, want -0.30", cfg.Selection.TargetDelta)
	}
	if len(cfg.Backtest.Strategies) != 2 || cfg.Backtest.Strategies[0] != StrategyPipeline {
		t.Errorf("Backtest.Strategies = %v", cfg.Backtest.Strategies)
	}
	if cfg.Signal.GapCooldownBars != 5 {
		t.Errorf("Signal.GapCooldownBars = %d, want 5（0 取默认值）", cfg.Signal.GapCooldownBars)
	}
	if cfg.Data.Location().String() != "America/New_York" {
		t.Errorf("Location = %s", cfg.Data.Location())
	}
}

// TestLoad_InvalidFile 测试加载无效文件
func TestLoad_InvalidFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("加载不存在的文件应返回错误")
	}
}

// TestLoad_InvalidYAML 测试加载无效 YAML
func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "invalid.yaml")
	if err := os.WriteFile(tmpFile, []byte("invalid: yaml: content:"), 0644); err != nil {
		t.Fatalf("创建临时文件失败: %v", err)
	}

	_, err := Load(tmpFile)
	if err == nil {
		t.Error("加载无效 YAML 应返回错误")
	}
}

// TestLoad_MissingPaths 测试缺少数据路径
func TestLoad_MissingPaths(t *testing.T) {
	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(tmpFile, []byte("app:\n  name: x\n"), 0644); err != nil {
		t.Fatalf("创建临时文件失败: %v", err)
	}

	_, err := Load(tmpFile)
	if err == nil || !strings.Contains(err.Error(), "data.bars_path") {
		t.Fatalf("err=%v, want data.bars_path 错误", err)
	}
}
