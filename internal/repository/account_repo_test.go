package repository

import (
	"testing"
)

// 搜索词必须按字面匹配，通配符全部转义
func TestEscapeLike(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"abc", "abc"},
		{"a_c", `a\_c`},
		{"100%", `100\%`},
		{"%", `\%`},
		{`a\c`, `a\\c`},
		{`_%\`, `\_\%\\`},
		{"NO.000001", "NO.000001"},
	}

	for _, c := range cases {
		if got := escapeLike(c.in); got != c.want {
			t.Errorf("escapeLike(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
