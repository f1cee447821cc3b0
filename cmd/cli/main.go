package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"spcdash/adapters/excel"
	"spcdash/domain/measurement"
	"spcdash/internal/boxplot"
	"spcdash/internal/config"
	"spcdash/internal/container"
	"spcdash/internal/report"
	"spcdash/internal/scale"
	"spcdash/internal/testkit"
	"spcdash/internal/zoom"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "spcdash-cli",
		Short: "SPC dashboard CLI for statistics, synthetic data and zoom math",
	}

	rootCmd.AddCommand(
		newStatsCmd(),
		newGenerateCmd(),
		newZoomCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newStatsCmd() *cobra.Command {
	var filter measurement.Filter
	var field, groupBy string
	var threshold float64
	var markdown bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print box-plot statistics per group for the configured data source",
		Long: `Load records from the configured source (DATABASE_URL, EXCEL_FILE or synthetic
data) and print per-group box-plot statistics.

Example: spcdash-cli stats --monitor SPC_CD_L1 --process 1000 --product XLY2 --field cd_att`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			c, err := container.New(cfg)
			if err != nil {
				return err
			}
			defer c.Shutdown(context.Background())

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()
			snap, err := c.Loader.Query(ctx, filter)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("threshold") {
				threshold = cfg.Stats.OutlierThreshold
			}
			grouped := boxplot.ProcessGroupedStatistics(snap.AllData, field, groupBy, threshold)

			if markdown {
				fmt.Print(report.Markdown(report.Input{
					Title:            "SPC statistics: " + field,
					Filter:           snap.Filter,
					ValueField:       field,
					Grouped:          grouped,
					Limits:           snap.Limits,
					OutlierThreshold: threshold,
					GeneratedAt:      snap.LoadedAt,
				}))
				return nil
			}

			fmt.Printf("%d records from %s\n", len(snap.AllData), c.Records.Name())
			for _, g := range grouped.Groups {
				fmt.Printf("%-14s n=%-5d %s\n", g.Key, g.Count, boxplot.FormatSummary(g.Stats))
			}
			all := boxplot.AggregateStatistics(grouped, threshold)
			fmt.Printf("%-14s n=%-5d %s\n", all.Key, all.Count, boxplot.FormatSummary(all.Stats))
			return nil
		},
	}

	cmd.Flags().StringVar(&filter.SPCMonitor, "monitor", "", "SPC monitor name")
	cmd.Flags().StringVar(&filter.ProcessType, "process", "", "process type")
	cmd.Flags().StringVar(&filter.ProductType, "product", "", "product type")
	cmd.Flags().StringVar(&filter.StartDate, "start", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&filter.EndDate, "end", "", "end date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&filter.PageSize, "limit", measurement.MaxPageSize, "maximum records to load")
	cmd.Flags().StringVar(&field, "field", "cd_att", "numeric field to summarize")
	cmd.Flags().StringVar(&groupBy, "group-by", measurement.FieldEntity, "categorical field to group by")
	cmd.Flags().Float64Var(&threshold, "threshold", boxplot.DefaultOutlierThreshold, "outlier threshold in IQRs")
	cmd.Flags().BoolVar(&markdown, "markdown", false, "print a markdown report")

	return cmd
}

func newGenerateCmd() *cobra.Command {
	genConfig := testkit.DefaultCDConfig()
	var out string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a synthetic CD data set to .xlsx or .csv",
		Long: `Generate deterministic synthetic CD measurements. .xlsx output also carries an
spc_limits sheet.

Example: spcdash-cli generate --out cd_data.xlsx --days 30 --seed 7`,
		RunE: func(cmd *cobra.Command, args []string) error {
			gen := testkit.NewCDGenerator(genConfig)
			records := gen.Generate()
			if err := excel.WriteFile(out, records, gen.GenerateLimits()); err != nil {
				return err
			}
			fmt.Printf("wrote %d records to %s\n", len(records), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "cd_data.xlsx", "output file (.xlsx or .csv)")
	cmd.Flags().IntVar(&genConfig.Days, "days", genConfig.Days, "number of days")
	cmd.Flags().IntVar(&genConfig.PointsPerDay, "per-day", genConfig.PointsPerDay, "measurements per day")
	cmd.Flags().IntVar(&genConfig.EntityCount, "entities", genConfig.EntityCount, "number of tools")
	cmd.Flags().Int64Var(&genConfig.Seed, "seed", genConfig.Seed, "random seed")

	return cmd
}

func newZoomCmd() *cobra.Command {
	var offset float64

	cmd := &cobra.Command{
		Use:   "zoom [min] [max] [factor]",
		Short: "Show the visible domain for a base domain and zoom",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			vals := make([]float64, 3)
			for i, a := range args {
				v, err := strconv.ParseFloat(a, 64)
				if err != nil {
					return fmt.Errorf("argument %d: %w", i+1, err)
				}
				vals[i] = v
			}
			az := zoom.AxisZoom{Factor: zoom.ClampFactor(vals[2]), Offset: offset}
			d := zoom.EffectiveDomain(scale.Domain{Min: vals[0], Max: vals[1]}, az)
			fmt.Printf("factor %.2fx offset %.3f -> [%g, %g]\n", az.Factor, az.Offset, d.Min, d.Max)
			return nil
		},
	}
	cmd.Flags().Float64Var(&offset, "offset", 0, "offset as a fraction of the base span")
	return cmd
}
