package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.ParamsDBPath == "" || cfg.HistoryDBPath == "" {
		t.Fatalf("db paths must default: %+v", cfg)
	}
	if cfg.TickSeconds != 1.0 {
		t.Fatalf("tick default %.1f, want 1.0", cfg.TickSeconds)
	}
	if cfg.MQTTEnabled {
		t.Fatal("MQTT must default off")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PARAMS_DB_PATH", "/tmp/p.db")
	t.Setenv("TICK_SECONDS", "2.5")
	t.Setenv("MQTT_ENABLED", "true")
	t.Setenv("MAX_PARALLEL", "8")

	cfg := Load()
	if cfg.ParamsDBPath != "/tmp/p.db" {
		t.Fatalf("path override lost: %s", cfg.ParamsDBPath)
	}
	if cfg.TickSeconds != 2.5 {
		t.Fatalf("float override lost: %.1f", cfg.TickSeconds)
	}
	if !cfg.MQTTEnabled {
		t.Fatal("bool override lost")
	}
	if cfg.MaxParallel != 8 {
		t.Fatalf("int override lost: %d", cfg.MaxParallel)
	}
}

func TestLoadBadValuesFallBack(t *testing.T) {
	t.Setenv("TICK_SECONDS", "not-a-number")
	t.Setenv("MQTT_ENABLED", "maybe")

	cfg := Load()
	if cfg.TickSeconds != 1.0 {
		t.Fatalf("bad float must fall back to default, got %.1f", cfg.TickSeconds)
	}
	if cfg.MQTTEnabled {
		t.Fatal("bad bool must fall back to default")
	}
}
