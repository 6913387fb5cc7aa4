package bootstrap

import (
	"path/filepath"
	"testing"
)

func TestResolveModelPath_Direct(t *testing.T) {
	cfg := &Config{ModelPath: "/models/model-small-en"}
	path, err := cfg.ResolveModelPath()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != "/models/model-small-en" {
		t.Errorf("unexpected path: %q", path)
	}
}

func TestResolveModelPath_DirAndName(t *testing.T) {
	cfg := &Config{ModelsDir: "/models", ModelName: "model-small-en"}
	path, err := cfg.ResolveModelPath()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != filepath.Join("/models", "model-small-en") {
		t.Errorf("unexpected path: %q", path)
	}
}

func TestResolveModelPath_DirectWins(t *testing.T) {
	cfg := &Config{ModelPath: "/opt/model", ModelsDir: "/models", ModelName: "other"}
	path, _ := cfg.ResolveModelPath()
	if path != "/opt/model" {
		t.Errorf("expected STT_MODEL_PATH to win, got %q", path)
	}
}

func TestResolveModelPath_Unconfigured(t *testing.T) {
	cases := []*Config{
		{},
		{ModelsDir: "/models"},
		{ModelName: "model-small-en"},
	}
	for _, cfg := range cases {
		if _, err := cfg.ResolveModelPath(); err == nil {
			t.Errorf("expected error for %+v", cfg)
		}
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("SERVER_ADDR", "")
	t.Setenv("STT_DEFAULT_SAMPLE_RATE", "")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("DATABASE_DSN", "")

	cfg := LoadConfig()
	if cfg.ServerAddr != ":8080" {
		t.Errorf("expected :8080, got %q", cfg.ServerAddr)
	}
	if cfg.DefaultSampleRate != 16000 {
		t.Errorf("expected 16000, got %d", cfg.DefaultSampleRate)
	}
	if cfg.RedisAddr != "" || cfg.DatabaseDSN != "" {
		t.Error("redis and database must default to disabled")
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_ADDR", ":9090")
	t.Setenv("STT_DEFAULT_SAMPLE_RATE", "8000")
	t.Setenv("STT_MODEL_PATH", "/opt/models/en")

	cfg := LoadConfig()
	if cfg.ServerAddr != ":9090" {
		t.Errorf("expected :9090, got %q", cfg.ServerAddr)
	}
	if cfg.DefaultSampleRate != 8000 {
		t.Errorf("expected 8000, got %d", cfg.DefaultSampleRate)
	}
	if cfg.ModelPath != "/opt/models/en" {
		t.Errorf("unexpected model path %q", cfg.ModelPath)
	}
}
