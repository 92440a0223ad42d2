package backtest

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"options-overlay-backtester/internal/core/model"
	"options-overlay-backtester/internal/core/sim"
)

// DivergenceError 执行策略结果不一致
type DivergenceError struct {
	// Baseline 基准策略名称
	Baseline string
	// Other 不一致的策略名称
	Other string
	// Want 基准结果
	Want model.BacktestResult
	// Got 不一致的结果
	Got model.BacktestResult
	// Tolerance 比较容差
	Tolerance float64
}

// Error 实现 error
func (e *DivergenceError) Error() string {
	return fmt.Sprintf("执行策略结果不一致: %s {%s} vs %s {%s}（容差 %g）", e.Baseline, e.Want, e.Other, e.Got, e.Tolerance)
}

// Verify 并行运行全部执行策略，并以第一个策略为基准校验结果
// 每个策略独立持有状态与汇总；模拟器只读共享。
// 参数 tol: 净利润与最大回撤的容差，交易数必须完全相等
// 返回: 按输入顺序排列的报告；不一致时同时返回 *DivergenceError
func Verify(ctx context.Context, s *sim.Simulator, tol float64, strategies ...Strategy) ([]Report, error) {
	if len(strategies) == 0 {
		return nil, fmt.Errorf("至少需要一个执行策略")
	}

	reports := make([]Report, len(strategies))
	g, gctx := errgroup.WithContext(ctx)
	for i, st := range strategies {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			reports[i] = st.Run(s)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("运行执行策略失败: %w", err)
	}

	base := reports[0]
	for _, r := range reports[1:] {
		if !base.Result.Equal(r.Result, tol) {
			err := &DivergenceError{
				Baseline:  base.Strategy,
				Other:     r.Strategy,
				Want:      base.Result,
				Got:       r.Result,
				Tolerance: tol,
			}
			s.Logger().Error("执行策略结果不一致", zap.Error(err))
			return reports, err
		}
	}

	s.Logger().Info("执行策略结果一致",
		zap.Int("strategies", len(reports)),
		zap.String("result", base.Result.String()))
	return reports, nil
}
