// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/toolscout/internal/config"
	"github.com/pdiddy/toolscout/internal/history"
	"github.com/pdiddy/toolscout/internal/metrics"
	"github.com/pdiddy/toolscout/pkg/types"
)

const prompt = "Enter a developer tools query (exit to quit): "

var researchCmd = &cobra.Command{
	Use:   "research [query...]",
	Short: "Research developer tools for a query",
	Long: `Research runs the full pipeline: it extracts candidate tools for the
query, researches up to four of them and prints a recommendation.

With a query argument it runs once. Without one it starts an interactive
loop that reads one query per line until "exit" or "quit".`,
	RunE: runResearch,
}

func init() {
	researchCmd.Flags().Bool("json", false, "print results as JSON")
	researchCmd.Flags().Bool("no-history", false, "do not record completed runs")
	researchCmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")
	_ = viper.BindPFlag("metrics_addr", researchCmd.Flags().Lookup("metrics-addr"))

	rootCmd.AddCommand(researchCmd)
}

func runResearch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(viper.GetViper(), loadedSecrets)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	p, err := newPipeline(ctx, cfg, logger)
	if err != nil {
		return err
	}

	asJSON, _ := cmd.Flags().GetBool("json")
	noHistory, _ := cmd.Flags().GetBool("no-history")
	if noHistory {
		cfg.History.Backend = types.HistoryNone
	}
	store, err := history.Open(ctx, cfg.History)
	if err != nil {
		logger.Warn("run history unavailable", zap.Error(err))
		store = history.Discard{}
	}
	defer store.Close()

	if cfg.MetricsAddr != "" {
		srv := metrics.Start(cfg.MetricsAddr, logger)
		defer srv.Stop(context.Background())
	}

	r := &researcher{
		pipeline: p,
		store:    store,
		out:      cmd.OutOrStdout(),
		asJSON:   asJSON,
	}

	if len(args) > 0 {
		return r.runOnce(ctx, strings.Join(args, " "))
	}
	return r.loop(ctx, cmd.InOrStdin())
}

// runner executes one pipeline run.
type runner interface {
	Run(ctx context.Context, query string) (types.ResultRecord, error)
}

type researcher struct {
	pipeline runner
	store    history.Store
	out      io.Writer
	asJSON   bool
}

// runOnce runs one query. Ctrl-C cancels the run in progress.
func (r *researcher) runOnce(ctx context.Context, query string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	started := time.Now()
	rec, err := r.pipeline.Run(ctx, query)
	if err != nil {
		return err
	}

	run := history.NewRun(rec, started)
	if err := r.store.Save(ctx, run); err != nil {
		logger.Warn("saving run", zap.String("id", run.ID.String()), zap.Error(err))
	}

	if r.asJSON {
		enc := json.NewEncoder(r.out)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	}
	renderRecord(r.out, rec)
	return nil
}

// loop reads queries from in until exit, quit or end of input. A failed
// run is reported and the loop continues.
func (r *researcher) loop(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(r.out, prompt)
		if !scanner.Scan() {
			fmt.Fprintln(r.out)
			return scanner.Err()
		}

		query := strings.TrimSpace(scanner.Text())
		if isExit(query) {
			return nil
		}
		if query == "" {
			continue
		}

		if err := r.runOnce(ctx, query); err != nil {
			fmt.Fprintf(r.out, "Error: %v\n", err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func isExit(s string) bool {
	switch strings.ToLower(s) {
	case "exit", "quit":
		return true
	}
	return false
}
