// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the prompt-extract CLI.
//
// prompt-extract copies the "# Prompt" section of every markdown note under
// a source root into a mirrored tree of _prompt.md files, skipping notes
// that have not changed since the last run.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/pdiddy/prompt-extract/internal/config"
	"github.com/pdiddy/prompt-extract/internal/state"
)

// version is set at build time via ldflags.
var version = "dev"

// app carries what every subcommand needs once settings are resolved.
type app struct {
	out    io.Writer
	errOut io.Writer
	fs     afero.Fs

	settings *config.Settings
	logger   *slog.Logger
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "prompt-extract",
		Short: "Extract prompt sections from markdown notes into a prompt library",
		Long: `prompt-extract scans a tree of markdown notes, copies the text between the
"# Prompt" and "# Output" headings of each note into a parallel tree of
<name>_prompt.md files, and remembers a fingerprint of every note it
extracted so unchanged notes are skipped on the next run.

Source and output roots are stored in the state file alongside the
fingerprints. Set them once with "paths set" or pass them per run.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfgFile, _ := cmd.Flags().GetString("config")
			s, err := config.Load(cmd.Flags(), cfgFile)
			if err != nil {
				return err
			}
			if err := config.Validate(s); err != nil {
				return err
			}
			logger, err := config.NewLogger(a.errOut, s.Log)
			if err != nil {
				return err
			}
			a.settings = s
			a.logger = logger
			config.LogWithLogger(s, logger)
			return nil
		},
	}
	rootCmd.SetOut(a.out)
	rootCmd.SetErr(a.errOut)
	rootCmd.SetVersionTemplate("prompt-extract {{.Version}}\n")

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./prompt-extract.yaml or ~/.config/prompt-extract/prompt-extract.yaml)")
	pf.String("state", "", "state file path (default config.json)")
	pf.String("state-backend", "", "state backend: json or sqlite")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("log-format", "", "log format: text or json")

	rootCmd.AddCommand(newExtractCmd(a))
	rootCmd.AddCommand(newPathsCmd(a))
	rootCmd.AddCommand(newStateCmd(a))
	rootCmd.AddCommand(newVersionCmd(a))
	return rootCmd
}

// openStore loads the configured state backend. The returned func releases
// backend resources and must always be called.
func (a *app) openStore(ctx context.Context) (*state.Store, func(), error) {
	backend, err := state.NewBackend(a.settings.State.Backend, a.fs, a.settings.State.Path)
	if err != nil {
		return nil, func() {}, err
	}
	closeFn := func() {}
	if c, ok := backend.(io.Closer); ok {
		closeFn = func() {
			if err := c.Close(); err != nil {
				a.logger.Warn("closing state backend", "error", err)
			}
		}
	}

	store, err := state.Open(ctx, backend)
	if err != nil {
		closeFn()
		return nil, func() {}, err
	}
	a.logger.Debug("state loaded", "path", a.settings.State.Path, "backend", a.settings.State.Backend)
	return store, closeFn, nil
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	a := &app{out: stdout, errOut: stderr, fs: afero.NewOsFs()}
	rootCmd := newRootCmd(a)
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := execute(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
