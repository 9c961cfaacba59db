// Command samplegen writes demo input workbooks and mapping files into the
// configured data folders.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/pharmdist/salesflow/internal/infrastructure/config"
	"github.com/pharmdist/salesflow/internal/infrastructure/logger"
	"github.com/pharmdist/salesflow/internal/infrastructure/sample"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configFile string
	seed       uint64
	optoviks   int
	clients    int
	rows       int
	month      string
	reserve    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "samplegen",
		Short: "Generate demo optovik, dictionary, budget, group and mapping files",
		Args:  cobra.NoArgs,
		RunE:  run,
	}
	rootCmd.Flags().StringVarP(&configFile, "config", "c", "", "Path to config.toml (default: ./config.toml)")
	rootCmd.Flags().Uint64Var(&seed, "seed", 0, "Random seed, 0 for a random one")
	rootCmd.Flags().IntVar(&optoviks, "optoviks", 3, "Number of optovik sheets")
	rootCmd.Flags().IntVar(&clients, "clients", 40, "Number of distinct clients")
	rootCmd.Flags().IntVar(&rows, "rows", 200, "Sales rows per optovik")
	rootCmd.Flags().StringVar(&month, "month", "", "Sales month as YYYY-MM (default: current month)")
	rootCmd.Flags().StringVar(&reserve, "reserve", "", "Reserve value to mark a few rows with")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	log, err := logger.New(logger.DefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	var salesMonth time.Time
	if month != "" {
		salesMonth, err = time.Parse("2006-01", month)
		if err != nil {
			return fmt.Errorf("invalid month %q, expected YYYY-MM: %w", month, err)
		}
	}

	if err := cfg.EnsureDataFolders(); err != nil {
		return err
	}

	p := cfg.Paths
	g := sample.NewGenerator(sample.Options{
		Seed:     seed,
		Optoviks: optoviks,
		Clients:  clients,
		Rows:     rows,
		Month:    salesMonth,
		Reserve:  reserve,
		Labels:   cfg.Labels(),
	})
	if err := g.Write(sample.Paths{
		Optoviks:         p.Optoviks,
		Dictionary:       p.Dictionary,
		BudgetDifference: p.BudgetDifference,
		DrugGroups:       p.DrugGroups,
		RegionMapping:    p.RegionMapping,
		TerritoryMapping: p.TerritoryMapping,
	}); err != nil {
		return err
	}

	logger.Completed(log, "Sample inputs generated",
		zap.String("optoviks", p.Optoviks),
		zap.String("dictionary", p.Dictionary),
		zap.String("territories", p.TerritoryMapping))
	return nil
}
