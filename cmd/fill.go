package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gosuri/uiprogress"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"db-recorder/internal/engine"
	"db-recorder/internal/query"
)

var (
	count       int
	seed        int64
	metricsAddr string
	types       []string
)

type fillResult struct {
	TypeName string
	Target   int
	Actual   int64
	Tables   []string
}

var fillCmd = &cobra.Command{
	Use:   "fill",
	Short: "Write fake records of every declared type through the pipeline",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := LoadCatalog()
		if err != nil {
			return err
		}
		cfg, err := RecorderConfig(cat)
		if err != nil {
			return err
		}
		rec, err := engine.New(cfg)
		if err != nil {
			return err
		}

		// Fetch count from Viper (Flag > Config > Default)
		targetCount := viper.GetInt("settings.default_count")

		ctx := cmd.Context()
		if err := rec.Start(ctx); err != nil {
			return err
		}
		stopped := false
		defer func() {
			if !stopped {
				rec.Stop(context.Background())
			}
		}()

		if metricsAddr != "" {
			srv := &http.Server{Addr: metricsAddr, Handler: engine.NewMetrics(rec, "dbrecorder").Handler()}
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					slog.Error("metrics server failed", "addr", metricsAddr, "error", err)
				}
			}()
			defer srv.Close()
			slog.Info("serving metrics", "addr", metricsAddr)
		}

		targets := rec.Registry().Types()
		if len(types) > 0 {
			targets = targets[:0]
			for _, name := range types {
				rt, ok := rec.TableType(strings.ToLower(name))
				if !ok {
					return fmt.Errorf("unknown record type %q", name)
				}
				targets = append(targets, rt)
			}
		}

		gen := engine.NewGenerator(seed)
		start := time.Now()

		// Setup Progress Bar
		total := 0
		for _, rt := range targets {
			if !rt.IsAbstract() {
				total += targetCount
			}
		}
		uiprogress.Start()
		bar := uiprogress.AddBar(max(total, 1)).AppendCompleted().PrependElapsed()
		bar.PrependFunc(func(b *uiprogress.Bar) string {
			return "Recording: "
		})

		// Rejected records are already counted as lost.
		for _, rt := range targets {
			if rt.IsAbstract() {
				continue
			}
			for i := 0; i < targetCount; i++ {
				if err := rec.Execute(gen.Row(rt)); err != nil {
					slog.Debug("record rejected", "type", rt.Name(), "error", err)
				}
			}
		}

		// Wait until every record has been tallied.
		for {
			settled := int(rec.DoneCount() + rec.LostCount())
			bar.Set(min(settled, total))
			if settled >= total {
				break
			}
			select {
			case <-ctx.Done():
				uiprogress.Stop()
				return ctx.Err()
			case <-time.After(50 * time.Millisecond):
			}
		}
		uiprogress.Stop()

		var results []fillResult
		now := time.Now().UnixMilli()
		for _, rt := range targets {
			if rt.IsAbstract() {
				continue
			}
			tables, err := rec.RelativeTables(ctx, rt, start.UnixMilli(), now)
			if err != nil {
				return err
			}
			var actual int64
			for _, t := range tables {
				n, err := rec.QueryCount(ctx, query.New().Select("count(*)").Tables(Dialect.QuoteIdent(t)))
				if err != nil {
					return err
				}
				actual += n
			}
			results = append(results, fillResult{TypeName: rt.Name(), Target: targetCount, Actual: actual, Tables: tables})
		}

		stopped = true
		if err := rec.Stop(ctx); err != nil {
			return err
		}

		// Final Report
		fmt.Println("\nSummary Report:")
		for i, r := range results {
			icon := "✓"
			if r.Actual < int64(r.Target) {
				icon = "!"
			}
			fmt.Printf("[%s] [%02d/%02d] %-20s : %d rows in %v (Target: %d)\n",
				icon, i+1, len(results), r.TypeName, r.Actual, r.Tables, r.Target)
		}
		fmt.Println("--------------------------------------------------")
		fmt.Printf("Done: %d  Lost: %d  Elapsed: %s\n", rec.DoneCount(), rec.LostCount(), time.Since(start).Round(time.Millisecond))
		return nil
	},
}

func init() {
	RootCmd.AddCommand(fillCmd)

	// CLI Flags
	fillCmd.Flags().IntVar(&count, "count", 0, "Number of records to generate per type (overrides config)")
	fillCmd.Flags().Int64Var(&seed, "seed", 0, "Random seed for generated values (0 picks one)")
	fillCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while filling")
	fillCmd.Flags().StringSliceVarP(&types, "types", "t", []string{}, "Record type stems to fill (comma-separated)")

	viper.BindPFlag("settings.default_count", fillCmd.Flags().Lookup("count"))
	viper.SetDefault("settings.default_count", 100)
}
