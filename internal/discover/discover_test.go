package discover

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/codeatlas/codeatlas/internal/errs"
	"github.com/codeatlas/codeatlas/internal/lang"
)

func write(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func relPaths(files []FileInfo) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.RelPath
	}
	return out
}

func TestDiscoverBasics(t *testing.T) {
	root := t.TempDir()
	write(t, root, "main.go", "package main\n")
	write(t, root, "lib/util.py", "x = 1\n")
	write(t, root, "README.md", "docs\n")
	write(t, root, "node_modules/dep/index.js", "x\n")
	write(t, root, ".codeatlas/atlas.db", "binary\n")

	files, warnings, err := Discover(context.Background(), root, Options{})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %+v", warnings)
	}

	got := relPaths(files)
	if len(got) != 2 {
		t.Fatalf("files = %v, want [lib/util.py main.go]", got)
	}
	for _, f := range files {
		switch f.RelPath {
		case "main.go":
			if f.Language != lang.Go {
				t.Errorf("main.go language = %s", f.Language)
			}
		case "lib/util.py":
			if f.Language != lang.Python {
				t.Errorf("util.py language = %s", f.Language)
			}
		default:
			t.Errorf("unexpected file %s", f.RelPath)
		}
	}
}

func TestDiscoverExcludeGlobs(t *testing.T) {
	root := t.TempDir()
	write(t, root, "src/app.ts", "x\n")
	write(t, root, "src/app.test.ts", "x\n")
	write(t, root, "gen/schema.ts", "x\n")

	files, _, err := Discover(context.Background(), root, Options{
		Exclude: []string{"*.test.ts", "gen/"},
	})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	got := relPaths(files)
	if len(got) != 1 || got[0] != "src/app.ts" {
		t.Errorf("files = %v, want [src/app.ts]", got)
	}
}

func TestDiscoverIncludeGlobs(t *testing.T) {
	root := t.TempDir()
	write(t, root, "src/a.go", "x\n")
	write(t, root, "tools/b.go", "x\n")

	files, _, err := Discover(context.Background(), root, Options{
		Include: []string{"src/"},
	})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	got := relPaths(files)
	if len(got) != 1 || got[0] != "src/a.go" {
		t.Errorf("files = %v, want [src/a.go]", got)
	}
}

func TestDiscoverMaxFileSize(t *testing.T) {
	root := t.TempDir()
	write(t, root, "small.go", "package a\n")
	write(t, root, "large.go", "package a\n"+strings.Repeat("// pad\n", 100))

	files, warnings, err := Discover(context.Background(), root, Options{MaxFileSize: 50})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(files) != 1 || files[0].RelPath != "small.go" {
		t.Errorf("files = %v", relPaths(files))
	}
	if len(warnings) != 1 || warnings[0].Kind != errs.OversizedFile || warnings[0].Path != "large.go" {
		t.Errorf("warnings = %+v", warnings)
	}
}

func TestDiscoverUnsupportedLanguageWarning(t *testing.T) {
	root := t.TempDir()
	write(t, root, "src/a.go", "x\n")
	write(t, root, "src/legacy.pas", "x\n")

	files, warnings, err := Discover(context.Background(), root, Options{
		Include: []string{"src/"},
	})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(files) != 1 || files[0].RelPath != "src/a.go" {
		t.Errorf("files = %v", relPaths(files))
	}
	if len(warnings) != 1 || warnings[0].Kind != errs.LanguageUnsupported {
		t.Errorf("warnings = %+v", warnings)
	}
}

func TestDiscoverLanguageFilter(t *testing.T) {
	root := t.TempDir()
	write(t, root, "a.go", "x\n")
	write(t, root, "b.py", "x\n")

	files, _, err := Discover(context.Background(), root, Options{
		Languages: []lang.Language{lang.Python},
	})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(files) != 1 || files[0].RelPath != "b.py" {
		t.Errorf("files = %v", relPaths(files))
	}
}

func TestDiscoverCancelled(t *testing.T) {
	root := t.TempDir()
	write(t, root, "a.go", "x\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := Discover(ctx, root, Options{}); err == nil {
		t.Error("expected cancellation error")
	}
}
