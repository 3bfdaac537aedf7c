package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/phobologic/typelens/internal/discover"
	"github.com/phobologic/typelens/internal/watch"
)

func newWatchCmd(a *app) *cobra.Command {
	var flags batchFlags
	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Re-index a directory and print it again whenever a source file changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.runWatch(ctx, args[0], flags)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.format, "format", formatText, "output format: text or toon")
	f.BoolP("exclude-node-modules", "e", false, "skip node_modules directories")
	f.Bool("respect-gitignore", true, "skip files ignored by git")
	f.IntP("jobs", "j", 0, "parallel workers (0 uses every CPU)")
	f.Int("max-depth", 0, "type nesting depth before falling back to Other")
	f.Int64("max-file-size", 0, "skip files larger than this many bytes (0 disables the limit)")
	f.Bool("allow-syntax-errors", false, "index the parsable part of files with syntax errors")
	f.Duration("debounce", 0, "quiet period after a change before re-indexing")
	return cmd
}

func (a *app) runWatch(ctx context.Context, dir string, flags batchFlags) error {
	// Input validates the directory and reports problems with hints.
	target, err := discover.Input(dir, a.discoverOptions())
	if err != nil {
		return err
	}
	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		return errors.WithHint(
			errors.Mark(errors.Newf("%s: not a directory", dir), discover.ErrInput),
			"Use run to index a single file.",
		)
	}

	w := &watch.Watcher{
		Root:     target.Root,
		Options:  a.discoverOptions(),
		Debounce: a.cfg.Watch.Debounce,
		Logger:   a.log,
		Rebuild: func(ctx context.Context) error {
			return a.runBatch(ctx, target.Root, "", flags)
		},
	}
	return w.Run(ctx)
}
