package fsops

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRealFS_Exists(t *testing.T) {
	fs := NewRealFS()
	tmpDir := t.TempDir()

	existing := filepath.Join(tmpDir, "exists.yaml")
	if err := os.WriteFile(existing, []byte("name: x\n"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
		want bool
	}{
		{"existing file", existing, true},
		{"directory", tmpDir, true},
		{"missing file", filepath.Join(tmpDir, "missing.yaml"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := fs.Exists(tt.path)
			if err != nil {
				t.Fatalf("Exists() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Exists(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestRealFS_AtomicWrite(t *testing.T) {
	fs := NewRealFS()
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "runs", "demo.json")

	t.Run("creates parent directories", func(t *testing.T) {
		if err := fs.AtomicWrite(path, []byte(`{"ticks":1}`), 0644); err != nil {
			t.Fatalf("AtomicWrite failed: %v", err)
		}
		data, err := fs.ReadFile(path)
		if err != nil {
			t.Fatalf("ReadFile failed: %v", err)
		}
		if string(data) != `{"ticks":1}` {
			t.Errorf("content = %q", data)
		}
	})

	t.Run("replaces existing file", func(t *testing.T) {
		if err := fs.AtomicWrite(path, []byte(`{"ticks":2}`), 0600); err != nil {
			t.Fatalf("AtomicWrite failed: %v", err)
		}
		data, err := fs.ReadFile(path)
		if err != nil {
			t.Fatalf("ReadFile failed: %v", err)
		}
		if string(data) != `{"ticks":2}` {
			t.Errorf("content = %q", data)
		}
		info, err := os.Stat(path)
		if err != nil {
			t.Fatal(err)
		}
		if info.Mode().Perm() != 0600 {
			t.Errorf("mode = %v, want 0600", info.Mode().Perm())
		}
	})

	t.Run("leaves no temp files", func(t *testing.T) {
		entries, err := os.ReadDir(filepath.Dir(path))
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 1 {
			t.Errorf("expected only the target file, got %d entries", len(entries))
		}
	})
}

func TestRealFS_ReadFile_Missing(t *testing.T) {
	fs := NewRealFS()
	_, err := fs.ReadFile(filepath.Join(t.TempDir(), "missing"))
	if !os.IsNotExist(err) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}
