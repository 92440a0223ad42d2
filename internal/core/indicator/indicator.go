// Package indicator 计算 SMA 与 Wilder RSI 序列。
// 所有序列与输入等长，未定义的位置为 NaN。
package indicator

import "math"

// SMA 简单移动平均
// 参数 values: 输入序列
// 参数 n: 窗口长度
// 返回: out[i] 为 values[i-n+1..i] 的均值，i < n-1 时为 NaN
func SMA(values []float64, n int) []float64 {
	out := nanSlice(len(values))
	if n <= 0 {
		return out
	}
	for i := n - 1; i < len(values); i++ {
		// 每个窗口独立求和，避免滑动累加带来的误差漂移
		sum := 0.0
		for j := i - n + 1; j <= i; j++ {
			sum += values[j]
		}
		out[i] = sum / float64(n)
	}
	return out
}

// RSI 相对强弱指数（Wilder 平滑）
// 前 n 个价格变化的简单均值作为初值，之后 avg = (prev*(n-1) + cur) / n。
// 平均亏损为 0 时 RSI 记为 100。
// 返回: out[i] 在 i >= n 时有定义
func RSI(values []float64, n int) []float64 {
	out := nanSlice(len(values))
	if n <= 0 || len(values) <= n {
		return out
	}

	var avgGain, avgLoss float64
	for i := 1; i <= n; i++ {
		gain, loss := change(values[i-1], values[i])
		avgGain += gain
		avgLoss += loss
	}
	avgGain /= float64(n)
	avgLoss /= float64(n)
	out[n] = rsiValue(avgGain, avgLoss)

	for i := n + 1; i < len(values); i++ {
		gain, loss := change(values[i-1], values[i])
		avgGain = (avgGain*float64(n-1) + gain) / float64(n)
		avgLoss = (avgLoss*float64(n-1) + loss) / float64(n)
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out
}

// Regime 趋势过滤：SMA 快线与慢线
type Regime struct {
	fast []float64
	slow []float64
}

// NewRegime 基于收盘价计算快慢线
func NewRegime(closes []float64, fastPeriod, slowPeriod int) Regime {
	return Regime{
		fast: SMA(closes, fastPeriod),
		slow: SMA(closes, slowPeriod),
	}
}

// Bullish 判断 i 处快线是否严格高于慢线；任一未定义时返回 false
func (r Regime) Bullish(i int) bool {
	if i < 0 || i >= len(r.fast) || i >= len(r.slow) {
		return false
	}
	return r.fast[i] > r.slow[i]
}

// Fast 返回 i 处快线值
func (r Regime) Fast(i int) float64 { return r.fast[i] }

// Slow 返回 i 处慢线值
func (r Regime) Slow(i int) float64 { return r.slow[i] }

func change(prev, cur float64) (gain, loss float64) {
	d := cur - prev
	if d > 0 {
		return d, 0
	}
	return 0, -d
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
