package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"AirCast/internal/domain/models"

	"github.com/spf13/cobra"
)

type syncer interface {
	Run(ctx context.Context) (models.IngestResult, error)
}

type backfiller interface {
	Run(ctx context.Context, year, month int) (models.IngestResult, error)
}

type board interface {
	Current(ctx context.Context) (models.CurrentStatus, error)
	Audit(ctx context.Context) (models.AuditReport, error)
}

type forecaster interface {
	Forecast(ctx context.Context, horizon int) (models.ForecastView, error)
}

type reloader interface {
	Reload(ctx context.Context) error
	LoadedAt() time.Time
}

type deps struct {
	sync     syncer
	backfill backfiller
	board    board
	forecast forecaster
	models   reloader
	close    func() error
}

type opener func(configPath string, verbose bool) (*deps, error)

func newRootCmd(open opener, out io.Writer) *cobra.Command {
	var (
		configPath string
		verbose    bool
		timeout    time.Duration
	)
	root := &cobra.Command{
		Use:           "aqctl",
		Short:         "Operate the AirCast PM2.5 pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config/config.yaml", "config file path")
	root.PersistentFlags().BoolVar(&verbose, "verbose", false, "debug logging on stderr")
	root.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "overall command timeout")

	// run opens the services, runs fn under the timeout and prints its result as JSON.
	run := func(cmd *cobra.Command, fn func(ctx context.Context, d *deps) (any, error)) error {
		d, err := open(configPath, verbose)
		if err != nil {
			return err
		}
		defer func() {
			if d.close != nil {
				_ = d.close()
			}
		}()
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		res, err := fn(ctx, d)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	root.AddCommand(
		syncCmd(run),
		backfillCmd(run),
		auditCmd(run),
		currentCmd(run),
		forecastCmd(run),
		reloadCmd(run),
	)
	return root
}

type runner func(cmd *cobra.Command, fn func(ctx context.Context, d *deps) (any, error)) error

func syncCmd(run runner) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Fetch the latest OpenAQ reading and store or publish it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, func(ctx context.Context, d *deps) (any, error) {
				return d.sync.Run(ctx)
			})
		},
	}
}

func backfillCmd(run runner) *cobra.Command {
	var year, month int
	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Load historical readings from the OpenAQ S3 archive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if year == 0 {
				return fmt.Errorf("--year is required")
			}
			return run(cmd, func(ctx context.Context, d *deps) (any, error) {
				return d.backfill.Run(ctx, year, month)
			})
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "archive year, e.g. 2025")
	cmd.Flags().IntVar(&month, "month", 0, "archive month 1-12; 0 loads the whole year")
	return cmd
}

func auditCmd(run runner) *cobra.Command {
	return &cobra.Command{
		Use:   "audit",
		Short: "Print the data-quality audit of the stored series",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, func(ctx context.Context, d *deps) (any, error) {
				return d.board.Audit(ctx)
			})
		},
	}
}

func currentCmd(run runner) *cobra.Command {
	return &cobra.Command{
		Use:   "current",
		Short: "Print the latest value with AQI category and data health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, func(ctx context.Context, d *deps) (any, error) {
				return d.board.Current(ctx)
			})
		},
	}
}

func forecastCmd(run runner) *cobra.Command {
	var horizon int
	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Produce a forecast for the next hours",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, func(ctx context.Context, d *deps) (any, error) {
				return d.forecast.Forecast(ctx, horizon)
			})
		},
	}
	cmd.Flags().IntVar(&horizon, "horizon", 12, "forecast horizon in hours")
	return cmd
}

func reloadCmd(run runner) *cobra.Command {
	return &cobra.Command{
		Use:   "check-models",
		Short: "Load both model artifacts and report when they were loaded",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, func(ctx context.Context, d *deps) (any, error) {
				if err := d.models.Reload(ctx); err != nil {
					return nil, err
				}
				return map[string]time.Time{"loaded_at": d.models.LoadedAt()}, nil
			})
		},
	}
}
