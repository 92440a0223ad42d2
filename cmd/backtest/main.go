// Package main 是期权叠加策略回测器的入口点。
// 加载 K 线与期权链，用配置的全部执行策略并行回放同一模拟器，
// 校验结果一致后输出逐笔成交与运行汇总。
//
// 仅用于研究：不连接任何经纪商，不下单。
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	ossignal "os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"options-overlay-backtester/internal/config"
	"options-overlay-backtester/internal/core/backtest"
	"options-overlay-backtester/internal/core/model"
	"options-overlay-backtester/internal/core/selector"
	sigengine "options-overlay-backtester/internal/core/signal"
	"options-overlay-backtester/internal/core/sim"
	"options-overlay-backtester/internal/ingest"
	"options-overlay-backtester/internal/output/jsonl"
	"options-overlay-backtester/internal/stats/ev"
	"options-overlay-backtester/internal/stats/holding"
)

const (
	tradesFile  = "trades.jsonl"
	summaryFile = "summary.jsonl"
)

// runSummary 单个执行策略的运行汇总
type runSummary struct {
	// RunID 运行标识
	RunID string `json:"run_id"`
	// Symbol 标的代码
	Symbol string `json:"symbol"`
	// Strategy 执行策略
	Strategy string `json:"strategy"`
	// Baseline 是否为一致性校验基准
	Baseline bool `json:"baseline"`
	// Result 回测汇总
	Result model.BacktestResult `json:"result"`
	// Opened 开仓次数
	Opened int `json:"opened"`
	// Skipped 缺链跳过的 bar 数
	Skipped int `json:"skipped"`
	// Evaluated 参与评估的 bar 数
	Evaluated int `json:"evaluated"`

	// EV 成交 EV 统计
	EV ev.EVStats `json:"ev"`
	// Holding 持仓时长统计
	Holding holding.HoldingStats `json:"holding"`
	// HoldingByReason 按平仓原因的持仓时长统计
	HoldingByReason []holding.HoldingStats `json:"holding_by_reason,omitempty"`
}

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config.yaml", "配置文件路径")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	runID := uuid.NewString()
	logger := newLogger(cfg.App.LogLevel).With(
		zap.String("app", cfg.App.Name),
		zap.String("run_id", runID),
	)
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 捕获 SIGINT/SIGTERM，取消尚未开始的执行策略
	sigCh := make(chan os.Signal, 2)
	ossignal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("收到退出信号，停止回测")
		cancel()
	}()

	if err := run(ctx, cfg, runID, logger); err != nil {
		var div *backtest.DivergenceError
		if errors.As(err, &div) {
			logger.Error("执行策略结果不一致，回测结果不可信",
				zap.String("baseline", div.Baseline),
				zap.String("other", div.Other))
		} else {
			logger.Error("回测失败", zap.Error(err))
		}
		logger.Sync()
		os.Exit(1)
	}
}

// run 完成一次回测
// 参数 runID: 写入输出记录的运行标识
// 返回: 加载、运行或输出失败时返回错误；结果不一致时返回 *backtest.DivergenceError（输出仍会写出）
func run(ctx context.Context, cfg *config.Config, runID string, logger *zap.Logger) error {
	series, chains, err := ingest.Load(cfg.Data)
	if err != nil {
		return fmt.Errorf("加载数据失败: %w", err)
	}
	logger.Info("数据加载完成",
		zap.String("symbol", series.Symbol),
		zap.Int("bars", series.Len()),
		zap.Int("chain_days", chains.Len()))

	engine := sigengine.NewEngine(series, cfg.Signal)
	sel, err := selector.NewDeltaTarget(cfg.Selection)
	if err != nil {
		return fmt.Errorf("创建选约器失败: %w", err)
	}
	s, err := sim.New(series, chains, engine, sel, cfg.Strategy, logger)
	if err != nil {
		return fmt.Errorf("创建模拟器失败: %w", err)
	}
	s = s.WithLocation(cfg.Data.Location())

	strategies, err := backtest.FromConfig(cfg.Backtest)
	if err != nil {
		return err
	}

	reports, verr := backtest.Verify(ctx, s, cfg.Backtest.ParityTolerance, strategies...)
	if verr != nil && reports == nil {
		return verr
	}

	summaries := summarize(reports, runID, series.Symbol, cfg.Output.StatsWindow)
	for _, sum := range summaries {
		logger.Info("执行策略完成",
			zap.String("strategy", sum.Strategy),
			zap.Float64("total_net_profit", sum.Result.TotalNetProfit),
			zap.Float64("max_drawdown", sum.Result.MaxDrawdown),
			zap.Int("trade_count", sum.Result.TradeCount),
			zap.Int("opened", sum.Opened),
			zap.Int("skipped", sum.Skipped),
			zap.Float64("win_rate", sum.EV.WinRate),
			zap.Float64("ev", sum.EV.EV),
			zap.Int64("p50_bars", sum.Holding.P50Bars))
	}

	if err := writeOutputs(cfg.Output, runID, reports[0], summaries); err != nil {
		return err
	}
	return verr
}

// summarize 为每个报告计算 EV 与持仓时长统计
func summarize(reports []backtest.Report, runID, symbol string, window int) []runSummary {
	out := make([]runSummary, 0, len(reports))
	for i, r := range reports {
		calc := ev.NewCalculator(window)
		tracker := holding.NewTracker(window)
		for _, t := range r.Trades {
			calc.Add(t)
			tracker.Add(t)
		}
		out = append(out, runSummary{
			RunID:           runID,
			Symbol:          symbol,
			Strategy:        r.Strategy,
			Baseline:        i == 0,
			Result:          r.Result,
			Opened:          r.Opened,
			Skipped:         r.Skipped,
			Evaluated:       r.Evaluated,
			EV:              calc.Stats(),
			Holding:         tracker.Stats(),
			HoldingByReason: tracker.StatsByReason(),
		})
	}
	return out
}

// writeOutputs 写出基准策略的逐笔成交与全部策略的汇总
// 每笔成交附带截至该笔（含）的滚动 EV 快照。
func writeOutputs(cfg config.OutputConfig, runID string, base backtest.Report, summaries []runSummary) error {
	var errs []error

	if cfg.TradesEnabled {
		w, err := jsonl.NewWriter(filepath.Join(cfg.Dir, tradesFile), cfg.BufferSize)
		if err != nil {
			return fmt.Errorf("创建成交输出失败: %w", err)
		}
		calc := ev.NewCalculator(cfg.StatsWindow)
		for _, t := range base.Trades {
			calc.Add(t)
			if err := w.Write(t.ToTradeRecord(runID, base.Strategy, calc.Snapshot())); err != nil {
				errs = append(errs, err)
				break
			}
		}
		if err := w.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if cfg.SummaryEnabled {
		w, err := jsonl.NewWriter(filepath.Join(cfg.Dir, summaryFile), cfg.BufferSize)
		if err != nil {
			return errors.Join(append(errs, fmt.Errorf("创建汇总输出失败: %w", err))...)
		}
		for _, sum := range summaries {
			if err := w.Write(sum); err != nil {
				errs = append(errs, err)
				break
			}
		}
		if err := w.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("写出结果失败: %w", errors.Join(errs...))
	}
	return nil
}

func newLogger(level string) *zap.Logger {
	lvl := zapcore.InfoLevel
	if err := lvl.Set(level); err != nil {
		lvl = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
