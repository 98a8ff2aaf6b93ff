package utils

import (
	"regexp"
	"testing"
)

var orderCodeRe = regexp.MustCompile(`^HW-[0-9A-F]{8}$`)

func TestNewOrderCode(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		code, err := NewOrderCode()
		if err != nil {
			t.Fatalf("NewOrderCode: %v", err)
		}
		if !orderCodeRe.MatchString(code) {
			t.Fatalf("code %q does not match %s", code, orderCodeRe)
		}
		seen[code] = struct{}{}
	}
	// 100 draws from a 32-bit space colliding would point at a broken
	// random source.
	if len(seen) != 100 {
		t.Fatalf("expected 100 distinct codes, got %d", len(seen))
	}
}
