// Package fastparse 数值解析测试
package fastparse

import (
	"encoding/json"
	"testing"
)

func TestParseInt_AcceptsFloatNotation(t *testing.T) {
	cases := map[string]int64{
		"1672704000000": 1672704000000,
		"1.5e+06":       1500000,
		"42.9":          42,
	}
	for in, want := range cases {
		got, err := ParseInt(in)
		if err != nil || got != want {
			t.Fatalf("ParseInt(%q)=%d, %v, want %d", in, got, err, want)
		}
	}
	if _, err := ParseInt("abc"); err == nil {
		t.Fatalf("非法输入应返回错误")
	}
	if _, err := ParseInt("1e30"); err == nil {
		t.Fatalf("越界应返回错误")
	}
}

func TestFloatAndInt_Tokens(t *testing.T) {
	if v, err := Float(json.Number("101.25")); err != nil || v != 101.25 {
		t.Fatalf("Float=%v, %v", v, err)
	}
	if v, err := Int(json.Number("7")); err != nil || v != 7 {
		t.Fatalf("Int=%v, %v", v, err)
	}
	if _, err := Float(true); err == nil {
		t.Fatalf("布尔值应返回错误")
	}
	if _, err := Int(nil); err == nil {
		t.Fatalf("nil 应返回错误")
	}
}
