package model

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Amount 宽松解析的金额字段
// 前端传数字或数字字符串都接受，解析不了按 0 处理
type Amount float64

func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "" || s == "null" {
		*a = 0
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*a = Amount(f)
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(str), 64); err == nil {
			*a = Amount(f)
			return nil
		}
	}

	*a = 0
	return nil
}

func (a Amount) Float64() float64 {
	return float64(a)
}
