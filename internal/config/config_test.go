package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ALLOWED_ORIGIN", "")
	t.Setenv("DATA_DIR", "")
	t.Setenv("SHEETS_TIMEOUT_SECONDS", "")

	cfg := Load()

	if cfg.Port != "8080" {
		t.Fatalf("default port = %q", cfg.Port)
	}
	if cfg.AllowedOrigin != "http://127.0.0.1:3000" {
		t.Fatalf("default origin = %q", cfg.AllowedOrigin)
	}
	if cfg.DataDir != "data" {
		t.Fatalf("default data dir = %q", cfg.DataDir)
	}
	if cfg.SheetsTimeoutSecond != 10 {
		t.Fatalf("default sheets timeout = %d", cfg.SheetsTimeoutSecond)
	}
	if cfg.Address() != ":8080" {
		t.Fatalf("address = %q", cfg.Address())
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("SHEETS_ENDPOINT", "  https://script.example/exec  ")
	t.Setenv("SHEETS_TIMEOUT_SECONDS", "3")
	t.Setenv("REDIS_DB", "2")

	cfg := Load()

	if cfg.Port != "9999" {
		t.Fatalf("port = %q", cfg.Port)
	}
	if cfg.SheetsEndpoint != "https://script.example/exec" {
		t.Fatalf("endpoint should be trimmed, got %q", cfg.SheetsEndpoint)
	}
	if cfg.SheetsTimeoutSecond != 3 {
		t.Fatalf("sheets timeout = %d", cfg.SheetsTimeoutSecond)
	}
	if cfg.RedisDB != 2 {
		t.Fatalf("redis db = %d", cfg.RedisDB)
	}
}

func TestLoadRejectsBadTimeout(t *testing.T) {
	t.Setenv("SHEETS_TIMEOUT_SECONDS", "zero")

	if cfg := Load(); cfg.SheetsTimeoutSecond != 10 {
		t.Fatalf("bad timeout should fall back to 10, got %d", cfg.SheetsTimeoutSecond)
	}

	t.Setenv("SHEETS_TIMEOUT_SECONDS", "0")
	if cfg := Load(); cfg.SheetsTimeoutSecond != 10 {
		t.Fatalf("zero timeout should fall back to 10, got %d", cfg.SheetsTimeoutSecond)
	}
}
