package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":5000" {
		t.Errorf("HTTPAddr = %q, want :5000", cfg.HTTPAddr)
	}
	if cfg.KafkaTopic != "drone/telemetry" {
		t.Errorf("KafkaTopic = %q, want drone/telemetry", cfg.KafkaTopic)
	}
	if cfg.RequirePilotID {
		t.Error("RequirePilotID should default to false")
	}
	if got := cfg.SweepInterval(); got != 10*time.Second {
		t.Errorf("SweepInterval = %v, want 10s", got)
	}
	if got := cfg.StaleAfter(); got != 10*time.Second {
		t.Errorf("StaleAfter = %v, want 10s", got)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":8080")
	t.Setenv("TELEMETRY_KAFKA_TOPIC", "test/topic")
	t.Setenv("REQUIRE_PILOT_ID", "true")
	t.Setenv("SWEEP_PERIOD", "2s")
	t.Setenv("STALE_THRESHOLD", "5s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
	if cfg.KafkaTopic != "test/topic" {
		t.Errorf("KafkaTopic = %q, want test/topic", cfg.KafkaTopic)
	}
	if !cfg.RequirePilotID {
		t.Error("RequirePilotID should be true")
	}
	if got := cfg.SweepInterval(); got != 2*time.Second {
		t.Errorf("SweepInterval = %v, want 2s", got)
	}
	if got := cfg.StaleAfter(); got != 5*time.Second {
		t.Errorf("StaleAfter = %v, want 5s", got)
	}
}

func TestLoad_InvalidDurations(t *testing.T) {
	testCases := []struct {
		name  string
		key   string
		value string
	}{
		{"sweep not a duration", "SWEEP_PERIOD", "banana"},
		{"sweep negative", "SWEEP_PERIOD", "-3s"},
		{"sweep zero", "SWEEP_PERIOD", "0s"},
		{"threshold not a duration", "STALE_THRESHOLD", "soon"},
		{"threshold negative", "STALE_THRESHOLD", "-1s"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			if _, err := Load(); err == nil {
				t.Errorf("Load with %s=%q should return error", tc.key, tc.value)
			}
		})
	}
}

func TestKafkaBrokersList(t *testing.T) {
	testCases := []struct {
		name    string
		brokers string
		want    []string
	}{
		{"empty", "", nil},
		{"single", "localhost:9092", []string{"localhost:9092"}},
		{"multiple with spaces", "a:9092, b:9092 ,c:9092", []string{"a:9092", "b:9092", "c:9092"}},
		{"trailing comma", "a:9092,", []string{"a:9092"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{KafkaBrokers: tc.brokers}
			got := cfg.KafkaBrokersList()
			if len(got) != len(tc.want) {
				t.Fatalf("KafkaBrokersList = %v, want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("broker[%d] = %q, want %q", i, got[i], tc.want[i])
				}
			}
		})
	}
}
