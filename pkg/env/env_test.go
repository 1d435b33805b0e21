package env

import (
	"testing"
	"time"
)

func TestGetFallsBackWhenBlank(t *testing.T) {
	t.Setenv("PAWPANTRY_TEST_VALUE", "   ")
	if got := Get("PAWPANTRY_TEST_VALUE", "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
	t.Setenv("PAWPANTRY_TEST_VALUE", "set")
	if got := Get("PAWPANTRY_TEST_VALUE", "fallback"); got != "set" {
		t.Fatalf("expected set value, got %q", got)
	}
}

func TestDuration(t *testing.T) {
	t.Setenv("PAWPANTRY_TEST_DURATION", "15s")
	if got := Duration("PAWPANTRY_TEST_DURATION", time.Second); got != 15*time.Second {
		t.Fatalf("expected 15s, got %v", got)
	}
	t.Setenv("PAWPANTRY_TEST_DURATION", "soon")
	if got := Duration("PAWPANTRY_TEST_DURATION", time.Second); got != time.Second {
		t.Fatalf("expected fallback for invalid duration, got %v", got)
	}
}
