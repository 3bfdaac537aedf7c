// Package discover finds TypeScript and JavaScript source files to index.
package discover

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	ignore "github.com/sabhiram/go-gitignore"

	"github.com/phobologic/typelens/internal/lang"
)

// ErrInput is matched by errors about a path that cannot be used as input.
var ErrInput = errors.New("invalid input")

// FileEntry represents a discovered source file.
type FileEntry struct {
	Path     string // Relative to the walk root
	Language string
}

// Options controls which files a walk keeps.
type Options struct {
	ExcludeNodeModules bool
	// RespectGitignore drops files ignored by git (or by the root
	// .gitignore when the root is not a git checkout).
	RespectGitignore bool
}

// Target is a resolved input: a directory walk or a single file.
type Target struct {
	Root  string // absolute directory the entries are relative to
	Files []FileEntry
}

// Paths returns the absolute path of every entry.
func (t *Target) Paths() []string {
	paths := make([]string, len(t.Files))
	for i, f := range t.Files {
		paths[i] = filepath.Join(t.Root, f.Path)
	}
	return paths
}

var vcsDirs = map[string]struct{}{
	".git": {},
	".hg":  {},
	".svn": {},
}

// Input resolves a command line input. A directory is walked with Files.
// A single file must have a supported extension. Any failure matches
// ErrInput.
func Input(path string, opts Options) (*Target, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "resolving %s", path), ErrInput)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, errors.WithHint(
			errors.Mark(errors.Wrapf(err, "input %s", path), ErrInput),
			"The input you specified is not available.",
		)
	}

	if info.IsDir() {
		files, err := Files(abs, opts)
		if err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "walking %s", path), ErrInput)
		}
		return &Target{Root: abs, Files: files}, nil
	}

	langName := lang.ForExtension(filepath.Ext(abs))
	if langName == "" {
		return nil, errors.WithHint(
			errors.Wrapf(ErrInput, "%s: unsupported file type", path),
			"Supported extensions are .ts, .tsx, .js and .jsx.",
		)
	}
	return &Target{
		Root:  filepath.Dir(abs),
		Files: []FileEntry{{Path: filepath.Base(abs), Language: langName}},
	}, nil
}

// Files discovers parseable source files under root.
func Files(root string, opts Options) ([]FileEntry, error) {
	var (
		gitFiles map[string]struct{}
		gi       *ignore.GitIgnore
	)
	if opts.RespectGitignore {
		gitFiles = gitLsFiles(root)
		if gitFiles == nil {
			gi = loadGitignore(root)
		}
	}

	var results []FileEntry

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // skip errors
		}

		name := d.Name()

		if d.IsDir() {
			if path == root {
				return nil
			}
			if skipDir(name, opts) {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(name, ".") {
			return nil
		}

		// Skip symlinks
		if d.Type()&os.ModeSymlink != 0 {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}

		if gitFiles != nil {
			if _, ok := gitFiles[filepath.ToSlash(rel)]; !ok {
				return nil
			}
		} else if gi != nil && gi.MatchesPath(rel) {
			return nil
		}

		langName := lang.ForExtension(filepath.Ext(name))
		if langName == "" {
			return nil
		}

		results = append(results, FileEntry{Path: rel, Language: langName})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Path < results[j].Path
	})

	return results, nil
}

// Dirs returns root and every directory below it that a walk with the same
// options would descend into.
func Dirs(root string, opts Options) ([]string, error) {
	var dirs []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != root && skipDir(d.Name(), opts) {
			return filepath.SkipDir
		}
		dirs = append(dirs, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dirs, nil
}

// SkipDir reports whether a directory with this base name is left out of
// walks.
func SkipDir(name string, opts Options) bool {
	return skipDir(name, opts)
}

func skipDir(name string, opts Options) bool {
	if _, skip := vcsDirs[name]; skip || strings.HasPrefix(name, ".") {
		return true
	}
	return opts.ExcludeNodeModules && name == "node_modules"
}

func gitLsFiles(root string) map[string]struct{} {
	gitDir := filepath.Join(root, ".git")
	info, err := os.Stat(gitDir)
	if err != nil || !info.IsDir() {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	out, err := cmd.Output()
	if err != nil {
		return nil
	}

	files := make(map[string]struct{})
	for _, line := range strings.Split(strings.TrimRight(string(out), "\n"), "\n") {
		if line != "" {
			files[line] = struct{}{}
		}
	}
	return files
}

func loadGitignore(root string) *ignore.GitIgnore {
	path := filepath.Join(root, ".gitignore")
	gi, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		return nil
	}
	return gi
}
