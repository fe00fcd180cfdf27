package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/trezcool/gmao/core"
	"github.com/trezcool/gmao/core/dashboard"
	"github.com/trezcool/gmao/core/kpi"
	logsvc "github.com/trezcool/gmao/services/logger"
	"github.com/trezcool/gmao/storage/csvdata"
)

var validFormats = []string{"text", "json"}

type rootOptions struct {
	format string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "kpi",
		Short: "Maintenance KPIs computed from the GMAO exports",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			for _, f := range validFormats {
				if f == opts.format {
					return nil
				}
			}
			return fmt.Errorf("invalid format %q: must be one of %v", opts.format, validFormats)
		},
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.format, "format", "text", "output format (json|text)")

	cmd.AddCommand(newSummaryCommand(opts))
	return cmd
}

type summaryOptions struct {
	dataDir string
}

func newSummaryCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &summaryOptions{}
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the dashboard KPIs and charts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSummary(cmd.Context(), rootOpts, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	cmd.Flags().StringVar(&opts.dataDir, "data-dir", "", "directory of the CSV exports (default: configured data dir)")
	return cmd
}

// summaryOutput is the dashboard without its load time, so runs on the same data print the same thing.
type summaryOutput struct {
	kpi.Dashboard
	Sources []dashboard.SourceStat `json:"sources"`
}

func runSummary(ctx context.Context, rootOpts *rootOptions, opts *summaryOptions, out, errOut io.Writer) error {
	conf := core.NewConfig()
	if opts.dataDir != "" {
		dir, err := filepath.Abs(opts.dataDir)
		if err != nil {
			return errors.Wrap(err, "resolving data dir")
		}
		conf.Data.Dir = dir
	}
	logger := logsvc.NewRollbarLogger(log.New(errOut, "KPI : ", log.LstdFlags), conf)
	logger.Enable(false)

	if ctx == nil {
		ctx = context.Background()
	}
	snap, err := dashboard.NewService(csvdata.NewSource(conf, logger), logger, nil).Reload(ctx)
	if err != nil {
		return err
	}

	res := summaryOutput{Dashboard: snap.Dashboard, Sources: snap.Sources}
	if rootOpts.format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	return writeText(out, res)
}

func writeText(out io.Writer, res summaryOutput) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Total failures\t%d\n", res.KPIs.TotalFailures)
	fmt.Fprintf(w, "Total downtime (h)\t%.2f\n", res.KPIs.TotalDowntimeHours)
	fmt.Fprintf(w, "Total cost\t%.2f\n", res.KPIs.TotalCost)
	fmt.Fprintf(w, "Avg downtime per failure (h)\t%.2f\n", res.KPIs.AvgDowntimePerFailure)

	charts := []struct {
		title string
		data  kpi.GroupedMetric
	}{
		{"Failures by type", res.Charts.FailuresByType},
		{"Downtime by type (h)", res.Charts.DowntimeByType},
		{"Failures by machine", res.Charts.FailuresByMachine},
		{"Cost by type", res.Charts.CostByType},
		{"Technician workload (h)", res.Charts.TechWorkload},
	}
	for _, c := range charts {
		fmt.Fprintf(w, "\n%s\n", c.title)
		for _, m := range c.data {
			fmt.Fprintf(w, "  %s\t%.2f\n", m.Key, m.Value)
		}
	}

	fmt.Fprintln(w, "\nSources")
	for _, s := range res.Sources {
		status := fmt.Sprintf("%d/%d rows", s.Kept, s.Rows)
		if s.Error != "" {
			status = s.Error
		}
		fmt.Fprintf(w, "  %s\t%s\n", s.Name, status)
	}
	return w.Flush()
}
