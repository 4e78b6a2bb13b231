package config

import (
	"testing"
	"time"
)

func TestLoadRateLimitConfigDefaults(t *testing.T) {
	cfg := LoadRateLimitConfig()
	if !cfg.Enabled || cfg.Capacity != 60 || cfg.RefillTokens != 1 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.RefillInterval != time.Second || cfg.TTL != 10*time.Minute {
		t.Fatalf("unexpected timing defaults: %+v", cfg)
	}
	if cfg.KeyStrategy != "ip_user_route" || cfg.Prefix != "rl" {
		t.Fatalf("unexpected key defaults: %+v", cfg)
	}
}

func TestLoadRateLimitConfigShorthand(t *testing.T) {
	t.Setenv("RATE_LIMIT_BURST", "120")
	t.Setenv("RATE_LIMIT_REFILL_EVERY", "250ms")
	cfg := LoadRateLimitConfig()
	if cfg.Capacity != 120 {
		t.Fatalf("Capacity = %d, want 120", cfg.Capacity)
	}
	if cfg.RefillTokens != 1 || cfg.RefillInterval != 250*time.Millisecond {
		t.Fatalf("refill = %d per %v, want 1 per 250ms", cfg.RefillTokens, cfg.RefillInterval)
	}
}

func TestLoadRateLimitConfigClamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_TOKENS", "-2")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")
	cfg := LoadRateLimitConfig()
	if cfg.Capacity != 1 || cfg.RefillTokens != 1 {
		t.Fatalf("clamps missed: %+v", cfg)
	}
	if cfg.TTL != 10*time.Second {
		t.Fatalf("TTL = %v, want five refill intervals", cfg.TTL)
	}
}

func TestEnvBool(t *testing.T) {
	cases := []struct {
		raw  string
		def  bool
		want bool
	}{
		{"", true, true},
		{"1", false, true},
		{"off", true, false},
		{"maybe", false, false},
	}
	for _, tc := range cases {
		t.Setenv("RL_TEST_BOOL", tc.raw)
		if got := envBool("RL_TEST_BOOL", tc.def); got != tc.want {
			t.Errorf("envBool(%q, %v) = %v, want %v", tc.raw, tc.def, got, tc.want)
		}
	}
}
