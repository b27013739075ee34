// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/prompt-extract/internal/pipeline"
	"github.com/pdiddy/prompt-extract/pkg/types"
)

func newPathsCmd(a *app) *cobra.Command {
	pathsCmd := &cobra.Command{
		Use:   "paths",
		Short: "Show, set, or reset the stored source and output roots",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the stored roots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			printRoots(a, store.Roots())
			return nil
		},
	}

	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Store the source and/or output root",
		Long: `Set validates that each given directory exists and stores it in the state
file. A root that is not given keeps its stored value.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			source, _ := cmd.Flags().GetString("source")
			output, _ := cmd.Flags().GetString("output")
			if source == "" && output == "" {
				return fmt.Errorf("provide --source, --output, or both")
			}

			store, closeStore, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			roots := store.Roots()
			if source != "" {
				roots.Source = absPath(source)
			}
			if output != "" {
				roots.Output = absPath(output)
			}

			if source != "" {
				if err := pipeline.ValidateRoot(a.fs, "source root", roots.Source); err != nil {
					return err
				}
			}
			if output != "" {
				if err := pipeline.ValidateRoot(a.fs, "output root", roots.Output); err != nil {
					return err
				}
			}

			store.SetRoots(roots)
			if err := store.SaveRoots(cmd.Context()); err != nil {
				return err
			}
			printRoots(a, roots)
			return nil
		},
	}
	setCmd.Flags().String("source", "", "markdown source root")
	setCmd.Flags().String("output", "", "prompt output root")

	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Clear both stored roots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			store.ResetRoots()
			if err := store.SaveRoots(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Paths have been reset. Set new ones with \"paths set\".")
			return nil
		},
	}

	pathsCmd.AddCommand(showCmd, setCmd, resetCmd)
	return pathsCmd
}

func printRoots(a *app, r types.Roots) {
	fmt.Fprintf(a.out, "source: %s\n", orUnset(r.Source))
	fmt.Fprintf(a.out, "output: %s\n", orUnset(r.Output))
}

func orUnset(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}

func absPath(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	return abs
}
