// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/toolscout/internal/config"
	"github.com/pdiddy/toolscout/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List, show and export completed research runs",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openHistory(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		runs, err := store.List(cmd.Context(), listOptions(cmd))
		if err != nil {
			return err
		}
		writeRunTable(cmd.OutOrStdout(), runs)
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return eris.Wrapf(err, "invalid run id %q", args[0])
		}
		store, err := openHistory(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		run, err := store.Get(cmd.Context(), id)
		if err != nil {
			return err
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(run)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Run %s at %s (%s)\n\n",
			run.ID, run.CreatedAt.Local().Format(time.DateTime), run.Duration.Round(time.Second))
		renderRecord(cmd.OutOrStdout(), run.Record)
		return nil
	},
}

var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export runs as YAML or JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openHistory(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		runs, err := store.List(cmd.Context(), listOptions(cmd))
		if err != nil {
			return err
		}

		format, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")
		if output == "" {
			return history.Export(cmd.OutOrStdout(), runs, format)
		}

		f, err := os.Create(output)
		if err != nil {
			return eris.Wrapf(err, "creating %s", output)
		}
		if err := history.Export(f, runs, format); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return eris.Wrapf(err, "closing %s", output)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "exported %d runs to %s\n", len(runs), output)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{historyListCmd, historyExportCmd} {
		c.Flags().String("query", "", "only runs whose query contains this text")
		c.Flags().Int("limit", 20, "maximum number of runs")
	}
	historyShowCmd.Flags().Bool("json", false, "print the run as JSON")
	historyExportCmd.Flags().String("format", history.FormatYAML, "export format: yaml or json")
	historyExportCmd.Flags().StringP("output", "o", "", "write to this file instead of stdout")

	historyCmd.AddCommand(historyListCmd, historyShowCmd, historyExportCmd)
	rootCmd.AddCommand(historyCmd)
}

func openHistory(cmd *cobra.Command) (history.Store, error) {
	cfg, err := config.Read(viper.GetViper(), loadedSecrets)
	if err != nil {
		return nil, err
	}
	return history.Open(cmd.Context(), cfg.History)
}

func listOptions(cmd *cobra.Command) history.ListOptions {
	query, _ := cmd.Flags().GetString("query")
	limit, _ := cmd.Flags().GetInt("limit")
	return history.ListOptions{Query: query, Limit: limit}
}

func writeRunTable(w io.Writer, runs []history.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}
	fmt.Fprintf(w, "%-36s  %-19s  %-9s  %s\n", "ID", "Created", "Profiles", "Query")
	for _, r := range runs {
		fmt.Fprintf(w, "%-36s  %-19s  %-9d  %s\n",
			r.ID, r.CreatedAt.Local().Format(time.DateTime), len(r.Record.Companies), r.Record.Query)
	}
}
