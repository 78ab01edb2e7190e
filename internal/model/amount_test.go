package model

import (
	"encoding/json"
	"testing"
)

func TestAmountUnmarshal(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{`100`, 100},
		{`12.5`, 12.5},
		{`"88"`, 88},
		{`"12.5"`, 12.5},
		{`" 7 "`, 7},
		{`""`, 0},
		{`"abc"`, 0},
		{`null`, 0},
		{`true`, 0},
		{`[1]`, 0},
	}

	for _, c := range cases {
		var a Amount
		if err := json.Unmarshal([]byte(c.in), &a); err != nil {
			t.Fatalf("Unmarshal(%s) returned error: %v", c.in, err)
		}
		if a.Float64() != c.want {
			t.Errorf("Unmarshal(%s) = %v, want %v", c.in, a.Float64(), c.want)
		}
	}
}

func TestAmountInStruct(t *testing.T) {
	var req struct {
		BaseCost  Amount `json:"baseCost"`
		BasePrice Amount `json:"basePrice"`
	}
	// 缺失和乱传都按 0 处理
	if err := json.Unmarshal([]byte(`{"basePrice":"oops"}`), &req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.BaseCost != 0 || req.BasePrice != 0 {
		t.Errorf("got baseCost=%v basePrice=%v, want 0 0", req.BaseCost, req.BasePrice)
	}
}
