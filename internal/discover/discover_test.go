package discover

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/cockroachdb/errors"
)

func TestDiscoverSourceFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	writeFile(t, dir, "main.ts", "interface A {}")
	writeFile(t, dir, "lib/util.tsx", "export type P = {}")
	writeFile(t, dir, "lib/old.js", "class Old {}")
	writeFile(t, dir, "lib/view.jsx", "class View {}")
	// Unsupported files are ignored
	writeFile(t, dir, "readme.md", "hello")
	writeFile(t, dir, "main.py", "pass")
	// Hidden file should be ignored
	writeFile(t, dir, ".hidden.ts", "secret")

	entries, err := Files(dir, Options{})
	if err != nil {
		t.Fatalf("Files: %v", err)
	}

	got := make(map[string]string, len(entries))
	var order []string
	for _, e := range entries {
		got[e.Path] = e.Language
		order = append(order, e.Path)
	}

	want := map[string]string{
		"main.ts":                        "typescript",
		filepath.Join("lib", "util.tsx"): "tsx",
		filepath.Join("lib", "old.js"):   "tsx",
		filepath.Join("lib", "view.jsx"): "tsx",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("entries = %v, want %v", got, want)
	}

	// Should be sorted
	wantOrder := []string{
		filepath.Join("lib", "old.js"),
		filepath.Join("lib", "util.tsx"),
		filepath.Join("lib", "view.jsx"),
		"main.ts",
	}
	if !reflect.DeepEqual(order, wantOrder) {
		t.Errorf("order = %v, want %v", order, wantOrder)
	}
}

func TestDiscoverSkipDirs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	writeFile(t, dir, "main.ts", "")
	writeFile(t, dir, ".git/hooks/x.ts", "")
	writeFile(t, dir, ".hidden/secret.ts", "")

	entries, err := Files(dir, Options{})
	if err != nil {
		t.Fatalf("Files: %v", err)
	}

	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Path != "main.ts" {
		t.Errorf("expected main.ts, got %q", entries[0].Path)
	}
}

func TestDiscoverNodeModules(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "main.ts", "")
	writeFile(t, dir, "node_modules/pkg/index.d.ts", "")
	writeFile(t, dir, "packages/a/node_modules/dep/x.ts", "")

	tests := []struct {
		name string
		opts Options
		want int
	}{
		{"included by default", Options{}, 3},
		{"excluded", Options{ExcludeNodeModules: true}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			entries, err := Files(dir, tt.opts)
			if err != nil {
				t.Fatalf("Files: %v", err)
			}
			if len(entries) != tt.want {
				t.Errorf("got %d entries, want %d: %v", len(entries), tt.want, entries)
			}
		})
	}
}

func TestDiscoverGitignore(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, ".gitignore", "generated/\n*.gen.ts\n")
	writeFile(t, dir, "main.ts", "")
	writeFile(t, dir, "types.gen.ts", "")
	writeFile(t, dir, "generated/api.ts", "")

	entries, err := Files(dir, Options{RespectGitignore: true})
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(entries) != 1 || entries[0].Path != "main.ts" {
		t.Errorf("with gitignore: got %v, want [main.ts]", entries)
	}

	entries, err = Files(dir, Options{})
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("without gitignore: got %d entries, want 3", len(entries))
	}
}

func TestDiscoverSymlinksSkipped(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "real.ts", "")

	// Create symlink
	err := os.Symlink(filepath.Join(dir, "real.ts"), filepath.Join(dir, "link.ts"))
	if err != nil {
		t.Skip("symlinks not supported")
	}

	entries, err := Files(dir, Options{})
	if err != nil {
		t.Fatalf("Files: %v", err)
	}

	if len(entries) != 1 {
		t.Fatalf("expected 1 entry (no symlink), got %d", len(entries))
	}
	if entries[0].Path != "real.ts" {
		t.Errorf("expected real.ts, got %q", entries[0].Path)
	}
}

func TestInputDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "a.ts", "")
	writeFile(t, dir, "sub/b.tsx", "")

	target, err := Input(dir, Options{})
	if err != nil {
		t.Fatalf("Input: %v", err)
	}
	want := []string{filepath.Join(dir, "a.ts"), filepath.Join(dir, "sub", "b.tsx")}
	if got := target.Paths(); !reflect.DeepEqual(got, want) {
		t.Errorf("Paths() = %v, want %v", got, want)
	}
}

func TestInputSingleFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "only.jsx", "")

	target, err := Input(filepath.Join(dir, "only.jsx"), Options{})
	if err != nil {
		t.Fatalf("Input: %v", err)
	}
	if target.Root != dir {
		t.Errorf("Root = %q, want %q", target.Root, dir)
	}
	if len(target.Files) != 1 || target.Files[0].Path != "only.jsx" || target.Files[0].Language != "tsx" {
		t.Errorf("Files = %v", target.Files)
	}
}

func TestInputErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "notes.txt", "")

	tests := []struct {
		name string
		path string
	}{
		{"missing", filepath.Join(dir, "nope")},
		{"unsupported extension", filepath.Join(dir, "notes.txt")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Input(tt.path, Options{})
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrInput) {
				t.Errorf("error %v does not match ErrInput", err)
			}
			if len(errors.GetAllHints(err)) == 0 {
				t.Errorf("error %v carries no hint", err)
			}
		})
	}
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDirs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "src/a.ts", "")
	writeFile(t, dir, "src/deep/b.ts", "")
	writeFile(t, dir, ".git/HEAD", "")
	writeFile(t, dir, "node_modules/x/index.ts", "")

	got, err := Dirs(dir, Options{ExcludeNodeModules: true})
	if err != nil {
		t.Fatalf("Dirs: %v", err)
	}
	want := []string{dir, filepath.Join(dir, "src"), filepath.Join(dir, "src", "deep")}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Dirs = %v, want %v", got, want)
	}

	if !SkipDir("node_modules", Options{ExcludeNodeModules: true}) || SkipDir("node_modules", Options{}) {
		t.Error("SkipDir(node_modules) does not follow ExcludeNodeModules")
	}
	if !SkipDir(".cache", Options{}) {
		t.Error("hidden directories should be skipped")
	}
}
