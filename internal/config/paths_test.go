package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolvePath(t *testing.T) {
	t.Run("explicit path wins", func(t *testing.T) {
		t.Setenv(EnvConfig, "/from/env.yaml")
		if got := ResolvePath("/explicit.yaml"); got != "/explicit.yaml" {
			t.Errorf("ResolvePath() = %q", got)
		}
	})

	t.Run("falls back to HORIZON_CONFIG", func(t *testing.T) {
		t.Setenv(EnvConfig, "/from/env.yaml")
		if got := ResolvePath(""); got != "/from/env.yaml" {
			t.Errorf("ResolvePath() = %q", got)
		}
	})

	t.Run("empty means defaults", func(t *testing.T) {
		t.Setenv(EnvConfig, "")
		if got := ResolvePath(""); got != "" {
			t.Errorf("ResolvePath() = %q, want empty", got)
		}
	})
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "horizon.yaml")

	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault() error = %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() of written default error = %v", err)
	}
	if cfg.Planner != Default().Planner || cfg.Driver != Default().Driver {
		t.Errorf("written default differs: %+v", cfg)
	}
	if err := WriteDefault(path); err == nil {
		t.Error("expected error when file exists")
	}
}

func TestWriteDefault_KeepsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "horizon.yaml")
	if err := os.WriteFile(path, []byte("name: mine\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := WriteDefault(path); err == nil {
		t.Fatal("expected error when file exists")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "name: mine\n" {
		t.Errorf("existing file rewritten: %q", data)
	}
}
