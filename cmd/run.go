package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/agentsim/agentsim/sim"
	"github.com/agentsim/agentsim/sim/agents"
	"github.com/agentsim/agentsim/sim/batch"
	"github.com/agentsim/agentsim/sim/sinks"
)

var (
	runOpts    runOptions // CLI flags for the batch run
	configPath string     // Optional YAML batch file
)

// runCmd executes a batch of independent replicas using parameters from CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a batch of independent simulation replicas",
	Run: func(cmd *cobra.Command, args []string) {
		opts := runOpts
		if configPath != "" {
			merged, err := mergeBatchFile(configPath, opts, cmd.Flags().Changed)
			if err != nil {
				logrus.Fatalf("%v", err)
			}
			opts = merged
		}

		if err := runBatch(opts, cmd.OutOrStdout(), cmd.ErrOrStderr()); err != nil {
			logrus.Fatalf("Batch failed: %v", err)
		}
	},
}

// newSetup returns the per-replica setup for the named agent kind.
func newSetup(agent, market string, seed int64) (batch.Setup, error) {
	switch agent {
	case "age":
		return func(int) (sim.AgentFactory, error) { return agents.NewAge, nil }, nil
	case "stock":
		// Fail before spawning any replica if the market file is broken.
		if _, err := agents.LoadMarket(market); err != nil {
			return nil, err
		}
		return func(replica int) (sim.AgentFactory, error) {
			m, err := agents.LoadMarket(market)
			if err != nil {
				return nil, err
			}
			rng := sim.ForReplica(seed, replica).ForSubsystem(sim.SubsystemAgents)
			return agents.StockFactory(m, rng), nil
		}, nil
	default:
		return nil, fmt.Errorf("unknown agent %q; valid: age, stock", agent)
	}
}

// outputSink pairs a sink with the calls that frame its output.
type outputSink struct {
	sim.Sink
	open  func() error
	close func() error
}

func noop() error { return nil }

// newSink builds the sink for the named output format.
func newSink(format string, w io.Writer) (outputSink, error) {
	switch format {
	case "", "text":
		t := sinks.NewText(w, true)
		return outputSink{Sink: t, open: t.Open, close: t.Close}, nil
	case "json":
		return outputSink{Sink: sinks.NewJSONLines(w), open: noop, close: noop}, nil
	case "csv":
		return outputSink{Sink: sinks.NewCSV(w), open: noop, close: noop}, nil
	default:
		return outputSink{}, fmt.Errorf("unknown format %q; valid: text, json, csv", format)
	}
}

// runBatch runs one batch, writing records to stdout (or opts.Output) and the
// summary to stderr.
func runBatch(opts runOptions, stdout, stderr io.Writer) (err error) {
	cfg := batch.Config{
		Population: opts.Population,
		Ticks:      opts.Ticks,
		Runs:       opts.Runs,
		Workers:    opts.Workers,
		Mode:       batch.Mode(opts.Mode),
	}
	setup, err := newSetup(opts.Agent, opts.Market, opts.Seed)
	if err != nil {
		return err
	}

	out := stdout
	if opts.Output != "" {
		f, err := os.Create(opts.Output)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
		out = f
	}

	output, err := newSink(opts.Format, out)
	if err != nil {
		return err
	}
	var sink sim.Sink = output
	var stats *summary
	if opts.Summary {
		stats = newSummary()
		sink = tee(output, stats)
	}

	runner, err := batch.NewRunner(cfg, setup, batch.WithSink(sink))
	if err != nil {
		return err
	}

	logrus.Infof("Starting batch %s: agent=%s population=%d ticks=%d runs=%d",
		runner.ID(), opts.Agent, cfg.Population, cfg.Ticks, cfg.Runs)
	if err := output.open(); err != nil {
		return err
	}
	report, runErr := runner.Run()
	if err := output.close(); err != nil && runErr == nil {
		runErr = err
	}

	printReport(stderr, report)
	if stats != nil && runErr == nil {
		stats.Print(stderr)
	}
	return runErr
}

// init sets up CLI flags for the run command
func init() {
	runCmd.Flags().StringVar(&configPath, "config", "", "YAML batch file; explicitly set flags override its values")

	runCmd.Flags().IntVar(&runOpts.Population, "population", 10, "Agents per replica")
	runCmd.Flags().IntVar(&runOpts.Ticks, "ticks", 100, "Steps per replica before the terminal observe")
	runCmd.Flags().IntVar(&runOpts.Runs, "runs", 1, "Number of independent replicas")
	runCmd.Flags().IntVar(&runOpts.Workers, "workers", 0, "Concurrent replicas (0 = GOMAXPROCS)")
	runCmd.Flags().StringVar(&runOpts.Mode, "mode", string(batch.ModeWaves), "Scheduling mode (waves, pool)")

	runCmd.Flags().StringVar(&runOpts.Agent, "agent", "age", "Agent kind (age, stock)")
	runCmd.Flags().StringVar(&runOpts.Market, "market", "", "Market YAML for stock agents (default: built-in)")
	runCmd.Flags().Int64Var(&runOpts.Seed, "seed", 42, "Master seed for per-replica random streams")

	runCmd.Flags().StringVar(&runOpts.Format, "format", "text", "Output format (text, json, csv)")
	runCmd.Flags().StringVar(&runOpts.Output, "output", "", "Write records to this file instead of stdout")
	runCmd.Flags().BoolVar(&runOpts.Summary, "summary", false, "Print per-attribute statistics after the batch")
}
