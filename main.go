// typelens extracts the shape of TypeScript classes, interfaces and type
// aliases and prints it as text, either in batch or as an editor hover.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/phobologic/typelens/internal/config"
	"github.com/phobologic/typelens/internal/hover"
	"github.com/phobologic/typelens/internal/logging"
)

var version = "dev"

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		for _, hint := range errors.GetAllHints(err) {
			fmt.Fprintf(os.Stderr, "hint: %s\n", hint)
		}
		os.Exit(1)
	}
}

// app carries what every subcommand needs once flags are parsed.
type app struct {
	stdout, stderr io.Writer

	cfgFile string
	v       *viper.Viper
	cfg     *config.Config
	log     *zap.SugaredLogger
}

// flagKeys maps command line flags onto configuration keys. Only flags
// defined on the running command are bound.
var flagKeys = map[string]string{
	"jobs":                 "jobs",
	"max-depth":            "max_depth",
	"max-file-size":        "max_file_size",
	"exclude-node-modules": "exclude_node_modules",
	"respect-gitignore":    "respect_gitignore",
	"allow-syntax-errors":  "allow_syntax_errors",
	"log-level":            "log.level",
	"log-json":             "log.json",
	"debounce":             "watch.debounce",
	"cache-size":           "hover.cache_size",
}

func run(args []string, stdout, stderr io.Writer) error {
	root := newRootCmd(&app{stdout: stdout, stderr: stderr})
	root.SetArgs(args)
	return root.Execute()
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "typelens",
		Short: "Describe the shape of TypeScript classes, interfaces and type aliases",
		Long: `typelens reads TypeScript and JavaScript sources and prints the fields,
union members and intersection members of every top-level class, interface
and type alias.

Without a subcommand it serves hover descriptions to an editor over stdio.`,
		Args:              cobra.NoArgs,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serveHover()
		},
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default is the nearest "+config.FileName+")")
	pf.String("log-level", "", "log level: debug, info, warn or error")
	pf.Bool("log-json", false, "log as JSON")

	root.AddCommand(
		newBatchCmd(a),
		newLSPCmd(a),
		newWatchCmd(a),
		newInitCmd(a),
		newVersionCmd(a),
	)
	return root
}

// setup loads configuration, applies flag overrides and builds the logger.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	v, err := config.New(a.cfgFile)
	if err != nil {
		return err
	}
	for flagName, key := range flagKeys {
		if f := cmd.Flags().Lookup(flagName); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return errors.Wrapf(err, "binding --%s", flagName)
			}
		}
	}
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	log, err := logging.New(logging.Options{Level: cfg.Log.Level, JSON: cfg.Log.JSON}, a.stderr)
	if err != nil {
		return err
	}

	a.v, a.cfg, a.log = v, cfg, log
	log.Debugw("configuration loaded", "file", v.ConfigFileUsed())
	return nil
}

func (a *app) serveHover() error {
	h, err := hover.NewHandler(hover.Options{
		CacheSize:         a.cfg.Hover.CacheSize,
		MaxDepth:          a.cfg.MaxDepth,
		AllowSyntaxErrors: a.cfg.AllowSyntaxErrors,
		Version:           version,
	}, a.log)
	if err != nil {
		return err
	}
	defer func() { _ = a.log.Sync() }()
	return h.RunStdio()
}

func newLSPCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lsp",
		Short: "Serve hover descriptions over stdio (the default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serveHover()
		},
	}
	cmd.Flags().Int("cache-size", 0, "open documents kept in memory")
	cmd.Flags().Int("max-depth", 0, "type nesting depth before falling back to Other")
	cmd.Flags().Bool("allow-syntax-errors", false, "describe the parsable part of files with syntax errors")
	return cmd
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _ = fmt.Fprintf(a.stdout, "typelens %s\n", version)
			return nil
		},
	}
}
