package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/demand-forecast/internal/domain"
	"github.com/andresuchdata/demand-forecast/internal/pipeline"
	"github.com/andresuchdata/demand-forecast/pkg/logger"
)

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "db-url",
		Usage:   "Database connection string (uses the pgx driver); falls back to DB_* settings",
		EnvVars: []string{"DATABASE_URL"},
	}
}

func main() {
	app := &cli.App{
		Name:  "forecast",
		Usage: "Train demand models and refresh forecasts and stock alerts",
		Flags: []cli.Flag{
			newDBURLFlag(),
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "debug, info, warn or error",
				EnvVars: []string{"LOG_LEVEL"},
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "console or json",
				EnvVars: []string{"LOG_FORMAT"},
				Value:   logger.FormatConsole,
			},
		},
		Before: func(c *cli.Context) error {
			logger.Configure(c.String("log-format"), c.String("log-level"))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Forecast every product in the catalog",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "workers",
						Usage:   "Products processed concurrently (0 keeps FORECAST_WORKERS)",
						EnvVars: []string{"FORECAST_WORKERS"},
					},
					&cli.StringFlag{
						Name:    "metrics-addr",
						Usage:   "Serve /metrics on this address while the run executes, e.g. :9102",
						EnvVars: []string{"METRICS_ADDR"},
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print the full batch result as JSON",
					},
				},
				Action: runAll,
			},
			{
				Name:  "product",
				Usage: "Forecast a single product",
				Flags: []cli.Flag{
					&cli.Int64Flag{
						Name:     "id",
						Usage:    "Product id",
						Required: true,
					},
				},
				Action: runProduct,
			},
			{
				Name:  "reports",
				Usage: "List uploaded run reports, or print one with --key",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "prefix",
						Usage: "Key prefix to list (defaults to STORAGE_REPORT_PREFIX)",
					},
					&cli.StringFlag{
						Name:  "key",
						Usage: "Report key to print",
					},
				},
				Action: listReports,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("forecast command failed")
	}
}

func runAll(c *cli.Context) error {
	deps, err := setup(c)
	if err != nil {
		return err
	}
	defer deps.Close()

	if addr := c.String("metrics-addr"); addr != "" {
		srv := startMetricsServer(addr, deps.metrics)
		defer shutdownMetricsServer(srv)
	}

	result, err := deps.orchestrator.RunForAllProducts(c.Context)
	if err != nil {
		return err
	}

	if c.Bool("json") {
		return printJSON(result)
	}
	printSummary(result)

	if result.Run.Status == domain.RunStatusFailed {
		return cli.Exit(result.Run.ErrorMessage, 1)
	}
	return nil
}

func runProduct(c *cli.Context) error {
	deps, err := setup(c)
	if err != nil {
		return err
	}
	defer deps.Close()

	outcome := deps.runner.RunProduct(c.Context, c.Int64("id"))
	if err := printJSON(outcome); err != nil {
		return err
	}
	if outcome.Status == domain.OutcomeFailed {
		return cli.Exit(outcome.Error, 1)
	}
	return nil
}

func listReports(c *cli.Context) error {
	deps, err := setupStorage(c)
	if err != nil {
		return err
	}

	if key := c.String("key"); key != "" {
		data, err := deps.reports.GetObject(c.Context, key)
		if err != nil {
			return fmt.Errorf("failed to fetch report %s: %w", key, err)
		}
		_, err = os.Stdout.Write(append(data, '\n'))
		return err
	}

	prefix := c.String("prefix")
	if prefix == "" {
		prefix = deps.cfg.Storage.ReportPrefix
	}

	objects, err := deps.reports.ListObjects(c.Context, prefix)
	if err != nil {
		return err
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tSIZE")
	for _, o := range objects {
		fmt.Fprintf(w, "%s\t%d\n", o.Key, o.Size)
	}
	return w.Flush()
}

func printSummary(result *pipeline.BatchResult) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PRODUCT\tSTATUS\tMODEL\tRMSE\tALERT\tERROR")
	for _, o := range result.Outcomes {
		rmse, alert := "-", "-"
		if o.Metrics != nil {
			rmse = fmt.Sprintf("%.3f", o.Metrics.Selected().RMSE)
		}
		if o.Alert != nil {
			alert = string(o.Alert.AlertType)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", o.ProductID, o.Status, orDash(o.ModelUsed), rmse, alert, orDash(o.Error))
	}
	_ = w.Flush()

	run := result.Run
	fmt.Printf("\nrun %s: %s (%d ok, %d skipped, %d failed of %d)\n",
		run.RunKey, run.Status, run.Succeeded, run.Skipped, run.Failed, run.TotalProducts)
	if result.ReportKey != "" {
		fmt.Printf("report: %s\n", result.ReportKey)
	}
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
