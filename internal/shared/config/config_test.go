package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, key := range []string{"ENV", "OBJECT_STORE", "PLATFORM_MODE", "RETENTION_WINDOW", "HANDOFF_TIMEOUT", "PLATFORM_STUB_SUCCESS_RATE"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Env != "dev" {
		t.Fatalf("expected env dev, got %s", cfg.Env)
	}
	if cfg.ObjectStoreType != "local" {
		t.Fatalf("expected local store, got %s", cfg.ObjectStoreType)
	}
	if cfg.PlatformMode != "stub" {
		t.Fatalf("expected stub platform, got %s", cfg.PlatformMode)
	}
	if cfg.RetentionWindow != 7*24*time.Hour {
		t.Fatalf("expected 7 day retention, got %s", cfg.RetentionWindow)
	}
	if cfg.HandoffTimeout != 30*time.Second {
		t.Fatalf("expected 30s handoff timeout, got %s", cfg.HandoffTimeout)
	}
	if cfg.PlatformStubSuccessRate != 0.9 {
		t.Fatalf("expected 0.9 stub success rate, got %v", cfg.PlatformStubSuccessRate)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ENV", "prod")
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("OBJECT_STORE", "MinIO")
	t.Setenv("RETENTION_WINDOW", "48h")
	t.Setenv("HANDOFF_RETRY_ATTEMPTS", "5")
	t.Setenv("SWEEP_BATCH_LIMIT", "not-a-number")

	cfg := Load()

	if cfg.Env != "production" {
		t.Fatalf("expected production, got %s", cfg.Env)
	}
	if cfg.ObjectStoreType != "minio" {
		t.Fatalf("expected minio, got %s", cfg.ObjectStoreType)
	}
	if cfg.RetentionWindow != 48*time.Hour {
		t.Fatalf("expected 48h retention, got %s", cfg.RetentionWindow)
	}
	if cfg.HandoffRetryAttempts != 5 {
		t.Fatalf("expected 5 attempts, got %d", cfg.HandoffRetryAttempts)
	}
	if cfg.SweepBatchLimit != 500 {
		t.Fatalf("expected invalid int to fall back to 500, got %d", cfg.SweepBatchLimit)
	}
	if cfg.IsDevLike() {
		t.Fatalf("production must not be dev-like")
	}
}

func TestLoadReadsDotenvFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("PLATFORM_BASE_URL", "")
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("PLATFORM_BASE_URL=https://platform.example\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	// godotenv does not override variables that are already set, so clear it.
	os.Unsetenv("PLATFORM_BASE_URL")

	cfg := Load()

	if cfg.PlatformBaseURL != "https://platform.example" {
		t.Fatalf("expected value from .env, got %q", cfg.PlatformBaseURL)
	}
}
