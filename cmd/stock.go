package cmd

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/agentsim/agentsim/sim"
	"github.com/agentsim/agentsim/sim/agents"
	"github.com/agentsim/agentsim/sim/sinks"
)

var (
	stockTicks  int    // Trading days to simulate
	stockMarket string // Market YAML path
	stockSeed   int64  // Seed for the random walk
)

// stockCmd runs one stock-market replica and prints the final prices
var stockCmd = &cobra.Command{
	Use:   "stock",
	Short: "Simulate a basket of stocks as random-walk agents",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runStock(stockMarket, stockTicks, stockSeed, cmd.OutOrStdout()); err != nil {
			logrus.Fatalf("Stock simulation failed: %v", err)
		}
	},
}

// runStock starts from an empty environment, adds one agent per stock in the
// market, ticks it and prints the terminal observation as a bracketed list.
func runStock(market string, ticks int, seed int64, w io.Writer) error {
	m, err := agents.LoadMarket(market)
	if err != nil {
		return err
	}

	env, err := sim.BuildDefaultEnvironment(0, nil)
	if err != nil {
		return err
	}
	rng := sim.NewPartitionedRNG(seed).ForSubsystem(sim.SubsystemAgents)
	stocks := make([]sim.Agent, 0, len(m.Stocks))
	for _, cfg := range m.Stocks {
		s, err := agents.NewStock(cfg, rng)
		if err != nil {
			return err
		}
		stocks = append(stocks, s)
	}
	env.AddAgents(stocks...)
	logrus.Infof("Simulating %d stocks for %d ticks", env.Len(), ticks)

	out := sinks.NewText(w, false)
	if err := out.Open(); err != nil {
		return err
	}
	if err := sim.NewSimulation(env, out).Run(ticks); err != nil {
		return fmt.Errorf("stock simulation: %w", err)
	}
	return out.Close()
}

// init sets up CLI flags for the stock command
func init() {
	stockCmd.Flags().IntVar(&stockTicks, "ticks", 260, "Trading days to simulate")
	stockCmd.Flags().StringVar(&stockMarket, "market", "", "Market YAML (default: built-in AAPL, AMD, AMZN)")
	stockCmd.Flags().Int64Var(&stockSeed, "seed", 42, "Seed for the random walk")
}
