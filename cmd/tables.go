package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"db-recorder/internal/checker"
	"db-recorder/internal/dialect"
	"db-recorder/internal/query"
	"db-recorder/internal/schema"
)

var (
	tablesFrom string
	tablesTo   string
)

const dateLayout = "2006-01-02"

var tablesCmd = &cobra.Command{
	Use:   "tables <type>",
	Short: "List the partitions of a record type within a date range, with row counts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		rt, ok := reg.Lookup(strings.ToLower(args[0]))
		if !ok {
			return fmt.Errorf("unknown record type %q", args[0])
		}
		loc, err := time.LoadLocation(viper.GetString("recorder.timezone"))
		if err != nil {
			return fmt.Errorf("invalid recorder.timezone: %w", err)
		}
		start, end, err := parseRange(tablesFrom, tablesTo, loc, time.Now())
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		existing, err := checker.ListTables(ctx, DB, Dialect)
		if err != nil {
			return err
		}
		present := make(map[string]bool, len(existing))
		for _, t := range existing {
			present[t] = true
		}

		names := schema.Namer{Location: loc}.RelativeNames(rt, start.UnixMilli(), end.UnixMilli())
		out := cmd.OutOrStdout()
		var total int64
		for _, name := range names {
			if !present[name] {
				continue
			}
			n, err := countRows(cmd, Dialect, name)
			if err != nil {
				return err
			}
			total += n
			fmt.Fprintf(out, "%-30s %10d\n", name, n)
		}
		fmt.Fprintf(out, "%-30s %10d\n", "total", total)
		return nil
	},
}

func countRows(cmd *cobra.Command, d dialect.Dialect, table string) (int64, error) {
	q, args, err := query.New().Select("count(*)").Tables(d.QuoteIdent(table)).BuildFor(d)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := DB.QueryRowContext(cmd.Context(), q, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

// parseRange reads inclusive dates; the end covers its whole day. Defaults
// are the last seven days up to now.
func parseRange(from, to string, loc *time.Location, now time.Time) (time.Time, time.Time, error) {
	end := now.In(loc)
	if to != "" {
		t, err := time.ParseInLocation(dateLayout, to, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --to: %w", err)
		}
		end = t.AddDate(0, 0, 1).Add(-time.Millisecond)
	}
	start := end.AddDate(0, 0, -7)
	if from != "" {
		t, err := time.ParseInLocation(dateLayout, from, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --from: %w", err)
		}
		start = t
	}
	if start.After(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("--from is after --to")
	}
	return start, end, nil
}

func init() {
	RootCmd.AddCommand(tablesCmd)

	tablesCmd.Flags().StringVar(&tablesFrom, "from", "", "First day (YYYY-MM-DD), default seven days ago")
	tablesCmd.Flags().StringVar(&tablesTo, "to", "", "Last day (YYYY-MM-DD), default today")
}
