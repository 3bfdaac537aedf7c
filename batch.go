package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/phobologic/typelens/internal/discover"
	"github.com/phobologic/typelens/internal/index"
	"github.com/phobologic/typelens/internal/render"
	"github.com/phobologic/typelens/internal/toon"
)

const (
	formatText = "text"
	formatTOON = "toon"
)

// noInformation is printed instead of an empty dump.
const noInformation = "No information available."

type batchFlags struct {
	format    string
	cachePath string
}

func newBatchCmd(a *app) *cobra.Command {
	var flags batchFlags
	cmd := &cobra.Command{
		Use:     "run <input> [output]",
		Aliases: []string{"manually"},
		Short:   "Index a file or directory and print every structure found",
		Long: `Index a single source file or every .ts, .tsx, .js and .jsx file below a
directory, then print the structures found. Files that cannot be read or
parsed are reported and skipped.

When output is given the dump is written there instead of stdout.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := ""
			if len(args) == 2 {
				out = args[1]
			}
			return a.runBatch(cmd.Context(), args[0], out, flags)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.format, "format", formatText, "output format: text or toon")
	f.StringVar(&flags.cachePath, "cache", "", "reuse the dump in this file while no source file is newer")
	f.BoolP("exclude-node-modules", "e", false, "skip node_modules directories")
	f.Bool("respect-gitignore", true, "skip files ignored by git")
	f.IntP("jobs", "j", 0, "parallel workers (0 uses every CPU)")
	f.Int("max-depth", 0, "type nesting depth before falling back to Other")
	f.Int64("max-file-size", 0, "skip files larger than this many bytes (0 disables the limit)")
	f.Bool("allow-syntax-errors", false, "index the parsable part of files with syntax errors")
	return cmd
}

func (a *app) runBatch(ctx context.Context, input, outPath string, flags batchFlags) error {
	if flags.format != formatText && flags.format != formatTOON {
		return errors.WithHint(
			errors.Newf("unknown format %q", flags.format),
			"Use --format text or --format toon.",
		)
	}

	start := time.Now()
	target, err := discover.Input(input, a.discoverOptions())
	if err != nil {
		return err
	}
	a.log.Debugw("discovered files", "root", target.Root, "files", len(target.Files))

	key := a.cacheKey(flags.format, target)
	if flags.cachePath != "" && cacheIsFresh(flags.cachePath, target.Root, target.Files) {
		if dump, ok := readCache(flags.cachePath, key); ok {
			a.log.Debugw("using cache", "path", flags.cachePath)
			return a.emit(start, dump, outPath)
		}
	}

	files := a.filterBySize(target.Root, target.Files)

	b := &index.Builder{
		Jobs:              a.cfg.Jobs,
		MaxDepth:          a.cfg.MaxDepth,
		AllowSyntaxErrors: a.cfg.AllowSyntaxErrors,
		Logger:            a.log,
	}
	idx, report := b.Build(ctx, (&discover.Target{Root: target.Root, Files: files}).Paths())
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "indexing interrupted")
	}
	a.log.Infow("indexed",
		"files", report.Files,
		"structures", idx.Len(),
		"failures", len(report.Errors),
	)

	dump := dumpIndex(idx, target.Root, flags.format)

	if flags.cachePath != "" {
		if err := writeCache(flags.cachePath, key, dump); err != nil {
			a.log.Warnw("cannot write cache", "path", flags.cachePath, "error", err)
		}
	}
	return a.emit(start, dump, outPath)
}

func (a *app) discoverOptions() discover.Options {
	return discover.Options{
		ExcludeNodeModules: a.cfg.ExcludeNodeModules,
		RespectGitignore:   a.cfg.RespectGitignore,
	}
}

func dumpIndex(idx *index.Index, root, format string) string {
	stmts := idx.Statements()
	if len(stmts) == 0 {
		return noInformation
	}
	if format == formatTOON {
		return toon.Encode(root, stmts)
	}
	return render.Statements(stmts)
}

// emit prints the timing line followed by the dump, or writes the dump to
// outPath when one is given.
func (a *app) emit(start time.Time, dump, outPath string) error {
	_, _ = fmt.Fprintf(a.stdout, "Finished in %s\n", time.Since(start).Round(time.Microsecond))
	if outPath == "" {
		_, _ = fmt.Fprintln(a.stdout, dump)
		return nil
	}
	if err := os.WriteFile(outPath, []byte(dump+"\n"), 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", outPath)
	}
	a.log.Infow("wrote output", "path", outPath)
	return nil
}

// filterBySize drops files over the configured limit. Files that cannot be
// stat'ed are kept so the build reports them.
func (a *app) filterBySize(root string, files []discover.FileEntry) []discover.FileEntry {
	limit := a.cfg.MaxFileSize
	if limit <= 0 {
		return files
	}
	var kept []discover.FileEntry
	for _, f := range files {
		fi, err := os.Stat(filepath.Join(root, f.Path))
		if err != nil {
			kept = append(kept, f)
			continue
		}
		if fi.Size() > limit {
			a.log.Warnw("skipping", "path", f.Path, "size", fi.Size(), "limit", limit)
			continue
		}
		kept = append(kept, f)
	}
	return kept
}

// cacheIsFresh reports whether the cache file is newer than every file.
func cacheIsFresh(cachePath, root string, files []discover.FileEntry) bool {
	cacheInfo, err := os.Stat(cachePath)
	if err != nil {
		return false
	}
	cacheMtime := cacheInfo.ModTime()

	for _, f := range files {
		fi, err := os.Stat(filepath.Join(root, f.Path))
		if err != nil {
			return false
		}
		if !fi.ModTime().Before(cacheMtime) {
			return false
		}
	}
	return true
}

const cacheHeader = "# typelens cache "

// cacheKey fingerprints everything that shapes a dump besides file
// contents: the output format, the settings and the exact file set. A file
// added or deleted since the cache was written changes the key.
func (a *app) cacheKey(format string, target *discover.Target) string {
	h := xxhash.New()
	_, _ = fmt.Fprintf(h, "format=%s\nroot=%s\nmax_depth=%d\nmax_file_size=%d\n",
		format, target.Root, a.cfg.MaxDepth, a.cfg.MaxFileSize)
	_, _ = fmt.Fprintf(h, "exclude_node_modules=%t\nrespect_gitignore=%t\nallow_syntax_errors=%t\n",
		a.cfg.ExcludeNodeModules, a.cfg.RespectGitignore, a.cfg.AllowSyntaxErrors)
	for _, f := range target.Files {
		_, _ = io.WriteString(h, f.Path)
		_, _ = h.Write([]byte{0})
	}
	return format + " " + strconv.FormatUint(h.Sum64(), 16)
}

func writeCache(path, key, dump string) error {
	var buf bytes.Buffer
	buf.WriteString(cacheHeader + key + "\n")
	buf.WriteString(dump)
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// readCache returns the cached dump if it was written under key.
func readCache(path, key string) (string, bool) {
	f, err := os.Open(path)
	if err != nil {
		return "", false
	}
	defer f.Close()

	r := bufio.NewReader(f)
	header, err := r.ReadString('\n')
	if err != nil || strings.TrimSuffix(header, "\n") != cacheHeader+key {
		return "", false
	}
	rest, err := io.ReadAll(r)
	if err != nil {
		return "", false
	}
	return string(rest), true
}
