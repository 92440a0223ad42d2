// Package fastparse 提供数值字段的解析函数。
// 主要用于流式解码聚合行情时，把 json.Number 转为 float64/int64。
package fastparse

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// ParseFloat 解析浮点数字符串
// 参数 s: 待解析的字符串，如 "12345.67"
// 返回: 解析后的浮点数和可能的错误
func ParseFloat(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}

// ParseInt 解析整数字符串；若为浮点写法（如 "1.5e+06"）则截断为整数
// 参数 s: 待解析的字符串
// 返回: 解析后的整数和可能的错误
func ParseInt(s string) (int64, error) {
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f > math.MaxInt64 || f < math.MinInt64 {
		return 0, fmt.Errorf("整数越界: %s", s)
	}
	return int64(f), nil
}

// Float 将 JSON token 解析为浮点数
// 参数 tok: json.Decoder.Token 返回的值（UseNumber 模式下为 json.Number）
func Float(tok any) (float64, error) {
	switch v := tok.(type) {
	case json.Number:
		return ParseFloat(string(v))
	case float64:
		return v, nil
	case string:
		return ParseFloat(v)
	default:
		return 0, fmt.Errorf("期望数值，实际为 %T", tok)
	}
}

// Int 将 JSON token 解析为整数
func Int(tok any) (int64, error) {
	switch v := tok.(type) {
	case json.Number:
		return ParseInt(string(v))
	case float64:
		return int64(v), nil
	case string:
		return ParseInt(v)
	default:
		return 0, fmt.Errorf("期望整数，实际为 %T", tok)
	}
}
