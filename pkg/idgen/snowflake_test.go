package idgen

import (
	"strings"
	"testing"
)

func TestNextIDUnique(t *testing.T) {
	seen := make(map[int64]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		id := NextID()
		if _, ok := seen[id]; ok {
			t.Fatalf("duplicate id: %d", id)
		}
		seen[id] = struct{}{}
	}
}

func TestNextIDMonotonic(t *testing.T) {
	prev := NextID()
	for i := 0; i < 1000; i++ {
		id := NextID()
		if id <= prev {
			t.Fatalf("id not increasing: %d after %d", id, prev)
		}
		prev = id
	}
}

func TestGenerateAccountID(t *testing.T) {
	id := GenerateAccountID()
	if !strings.HasPrefix(id, "ACC") {
		t.Errorf("account id %q missing ACC prefix", id)
	}
	// ACC + 14位时间 + _ + 8位序号
	if len(id) != len("ACC20240115143052_12345678") {
		t.Errorf("account id %q has unexpected length %d", id, len(id))
	}

	a, b := GenerateAccountID(), GenerateAccountID()
	if a == b {
		t.Errorf("consecutive account ids collide: %q", a)
	}
}
