// Command salesflow turns the monthly optovik sales workbooks into the
// vtorichka reports and loads them into the sales warehouse.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pharmdist/salesflow/internal/application/pipeline"
	"github.com/pharmdist/salesflow/internal/infrastructure/scheduler"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var configFile string

func main() {
	rootCmd := &cobra.Command{
		Use:   "salesflow",
		Short: "Process optovik sales workbooks",
		Long: `salesflow validates the optovik sales workbook, assigns a region and territory
to every client, writes the vtorichka and stage reports and loads the sales
into the warehouse.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to config.toml (default: ./config.toml)")

	rootCmd.AddCommand(
		runCommand("vtorichka", "Build the vtorichka, per-region and stage workbooks", false,
			(*pipeline.Pipeline).Vtorichka),
		runCommand("etl", "Load the optovik workbook into the warehouse", true,
			(*pipeline.Pipeline).ETL),
		runCommand("clean-1c", "Convert the 1C export into an optovik sheet", false,
			(*pipeline.Pipeline).Clean1C),
		scheduleCommand(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

type job func(*pipeline.Pipeline, context.Context) (*pipeline.Result, error)

func runCommand(use, short string, needsWarehouse bool, run job) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), configFile, needsWarehouse)
			if err != nil {
				return err
			}
			defer a.Close()

			_, err = run(a.pipeline, cmd.Context())
			a.writeMetrics()
			return err
		},
	}
}

func scheduleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Run the warehouse ETL on the configured schedule until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), configFile, true)
			if err != nil {
				return err
			}
			defer a.Close()

			s := scheduler.NewETLScheduler(a.cfg.Scheduler, func(ctx context.Context) error {
				_, err := a.pipeline.ETL(ctx)
				a.writeMetrics()
				return err
			}, a.log)
			if err := s.Start(cmd.Context()); err != nil {
				a.log.Error("Scheduler failed", zap.Error(err))
				return err
			}
			return nil
		},
	}
}
