package main

import (
	"context"
	"log/slog"
	"testing"
)

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("SE_TEST_STR", "value")
	t.Setenv("SE_TEST_INT", "42")
	t.Setenv("SE_TEST_BAD_INT", "forty")
	t.Setenv("SE_TEST_BOOL", "yes")

	if got := getEnv("SE_TEST_STR", "default"); got != "value" {
		t.Errorf("getEnv = %q", got)
	}
	if got := getEnv("SE_TEST_UNSET", "default"); got != "default" {
		t.Errorf("getEnv default = %q", got)
	}
	if got := getEnvInt("SE_TEST_INT", 1); got != 42 {
		t.Errorf("getEnvInt = %d", got)
	}
	if got := getEnvInt("SE_TEST_BAD_INT", 7); got != 7 {
		t.Errorf("getEnvInt fallback = %d", got)
	}
	if !getEnvBool("SE_TEST_BOOL", false) {
		t.Error("expected yes to be true")
	}
	if getEnvBool("SE_TEST_UNSET", false) {
		t.Error("expected default false")
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" eng, deu ,,fra ")
	if len(got) != 3 || got[0] != "eng" || got[1] != "deu" || got[2] != "fra" {
		t.Errorf("splitList = %v", got)
	}
}

func TestNewLogger(t *testing.T) {
	ctx := context.Background()
	if !newLogger("json", "debug").Enabled(ctx, slog.LevelDebug) {
		t.Error("expected debug level to be enabled")
	}
	logger := newLogger("text", "warn")
	if logger.Enabled(ctx, slog.LevelInfo) {
		t.Error("expected info to be disabled at warn level")
	}
	if !newLogger("text", "bogus").Enabled(ctx, slog.LevelInfo) {
		t.Error("expected unknown level to default to info")
	}
}

func TestSetupCache_Memory(t *testing.T) {
	t.Setenv("REDIS_URL", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SQLITE_PATH", "")

	b, err := setupCache(context.Background(), 0)
	if err != nil {
		t.Fatalf("setupCache: %v", err)
	}
	defer b.close()
	if b.name != "memory" || b.store != nil || b.lock != nil {
		t.Errorf("expected memory-only backend, got %+v", b)
	}
}

func TestSetupCache_SQLite(t *testing.T) {
	t.Setenv("REDIS_URL", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SQLITE_PATH", t.TempDir()+"/cache.db")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	b, err := setupCache(ctx, 0)
	if err != nil {
		t.Fatalf("setupCache: %v", err)
	}
	defer b.close()
	if b.name != "sqlite" || b.store == nil {
		t.Errorf("expected sqlite backend, got %q", b.name)
	}
	if _, ok := b.checks["sqlite"]; !ok {
		t.Error("expected a sqlite readiness check")
	}
}

func TestSetupSources(t *testing.T) {
	t.Setenv("S3_ENABLED", "false")
	t.Setenv("ALLOW_LOCAL_FILES", "")

	if got := len(setupSources(context.Background(), "api")); got != 1 {
		t.Errorf("expected only the http source for the api, got %d", got)
	}
	if got := len(setupSources(context.Background(), "extract")); got != 2 {
		t.Errorf("expected file and http sources for the cli, got %d", got)
	}
}

func TestRunExtract_NoArgs(t *testing.T) {
	if code := runExtract(context.Background(), nil, nil); code != 2 {
		t.Errorf("expected usage exit code 2, got %d", code)
	}
}
