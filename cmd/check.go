package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"db-recorder/internal/checker"
	"db-recorder/internal/schema"
)

var (
	checkDryRun bool
	checkVerify bool
	checkOutput string
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Reconcile every declared record type with its live tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		if reg.Len() == 0 {
			return fmt.Errorf("no record types declared (see \"records\" in the config file)")
		}
		if checkOutput != "text" && checkOutput != "yaml" {
			return fmt.Errorf("unknown output format %q", checkOutput)
		}

		ctx := cmd.Context()
		conn, err := DB.Conn(ctx)
		if err != nil {
			return fmt.Errorf("acquire connection: %w", err)
		}
		defer conn.Close()
		c := checker.New(Dialect, Logger)
		out := cmd.OutOrStdout()

		switch {
		case checkVerify:
			var all []checker.Discrepancy
			for _, rt := range reg.Types() {
				ds, err := c.Verify(ctx, conn, rt)
				if err != nil {
					return err
				}
				all = append(all, ds...)
			}
			if err := printDiscrepancies(out, all); err != nil {
				return err
			}
			if len(all) > 0 {
				return fmt.Errorf("%d discrepancies found", len(all))
			}
			return nil

		case checkDryRun:
			var plans []*schema.MigrationPlan
			for _, rt := range reg.Types() {
				p, err := c.Plan(ctx, conn, rt)
				if err != nil {
					return err
				}
				plans = append(plans, p...)
			}
			return printPlans(out, plans)
		}

		rep, err := c.ReconcileAll(ctx, conn, reg)
		fmt.Fprintf(out, "Checked %d tables: %d added, %d dropped, %d modified, %d failed\n",
			rep.Tables, rep.Added, rep.Dropped, rep.Modified, rep.Failed)
		return err
	},
}

func printPlans(w io.Writer, plans []*schema.MigrationPlan) error {
	if checkOutput == "yaml" {
		return yaml.NewEncoder(w).Encode(plans)
	}
	for _, p := range plans {
		if p.Empty() {
			fmt.Fprintf(w, "[=] %s: up to date\n", p.Table)
			continue
		}
		fmt.Fprintf(w, "[~] %s\n", p.Table)
		for _, c := range p.Add {
			fmt.Fprintf(w, "    + %s %s(%d)\n", c.Name, c.Type, c.Size)
		}
		for _, name := range p.Drop {
			fmt.Fprintf(w, "    - %s\n", name)
		}
		for _, c := range p.Modify {
			fmt.Fprintf(w, "    ~ %s %s(%d)\n", c.Name, c.Type, c.Size)
		}
	}
	return nil
}

func printDiscrepancies(w io.Writer, ds []checker.Discrepancy) error {
	if checkOutput == "yaml" {
		return yaml.NewEncoder(w).Encode(ds)
	}
	if len(ds) == 0 {
		fmt.Fprintln(w, "All tables match their declarations.")
		return nil
	}
	for _, d := range ds {
		fmt.Fprintf(w, "[!] %s\n", d)
	}
	return nil
}

func init() {
	RootCmd.AddCommand(checkCmd)

	checkCmd.Flags().BoolVar(&checkDryRun, "dry-run", false, "Print migration plans without applying them")
	checkCmd.Flags().BoolVar(&checkVerify, "verify", false, "Report every difference strictly, without altering anything")
	checkCmd.Flags().StringVarP(&checkOutput, "output", "o", "text", "Output format: text or yaml")
	checkCmd.SetOut(os.Stdout)
}
