// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/prompt-extract/internal/state"
)

func newStateCmd(a *app) *cobra.Command {
	stateCmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect or export the processed-file state",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Summarize the stored state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			doc := state.BuildExport(store.Snapshot())
			pending := 0
			for _, f := range doc.Files {
				if f.Pending {
					pending++
				}
			}

			fmt.Fprintf(a.out, "state:   %s (%s)\n", a.settings.State.Path, a.settings.State.Backend)
			printRoots(a, doc.Roots)
			fmt.Fprintf(a.out, "files:   %d recorded, %d pending reprocessing\n", len(doc.Files), pending)
			return nil
		},
	}

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export the stored state as YAML or JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			out, _ := cmd.Flags().GetString("out")

			store, closeStore, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			if out == "" {
				return state.Export(a.out, store.Snapshot(), state.ExportFormat(format))
			}

			f, err := a.fs.OpenFile(out, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
			if err != nil {
				return fmt.Errorf("creating %s: %w", out, err)
			}
			if err := state.Export(f, store.Snapshot(), state.ExportFormat(format)); err != nil {
				f.Close()
				_ = a.fs.Remove(out)
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Exported to %s\n", out)
			return nil
		},
	}
	exportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	exportCmd.Flags().String("out", "", "write to this file instead of stdout")

	stateCmd.AddCommand(showCmd, exportCmd)
	return stateCmd
}

