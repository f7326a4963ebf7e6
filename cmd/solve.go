package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rosterkit/rosterkit/config"
	"github.com/rosterkit/rosterkit/core/engine"
	"github.com/rosterkit/rosterkit/core/insights"
	"github.com/rosterkit/rosterkit/core/model"
	"github.com/rosterkit/rosterkit/infra/logger"
)

var (
	inputPath   string
	inputFormat string
	cfgPath     string
	budget      time.Duration
	skipReport  bool
)

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Solve a scheduling document and print the result as JSON",
	RunE:  runSolve,
}

func init() {
	solveCmd.Flags().StringVarP(&inputPath, "input", "i", "schedule.yaml", "scheduling document (input + demand), \"-\" for stdin")
	solveCmd.Flags().StringVar(&inputFormat, "format", "yaml", "document format when reading from stdin (yaml or json)")
	solveCmd.Flags().StringVarP(&cfgPath, "config", "c", "", "engine configuration file")
	solveCmd.Flags().DurationVarP(&budget, "budget", "b", 30*time.Second, "solve wall-clock budget (0 = unlimited)")
	solveCmd.Flags().BoolVar(&skipReport, "no-insights", false, "skip the management insights report")
	rootCmd.AddCommand(solveCmd)
}

func runSolve(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logger.New("solve")

	in, demand, err := loadInput()
	if err != nil {
		return fmt.Errorf("load document: %w", err)
	}

	opts := []engine.Option{engine.WithLogger(log)}
	var genOpts []insights.Option
	if cfgPath != "" {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		in.Config.Solver = cfg.Solver
		opts = append(opts, engine.WithPolicy(cfg.Policy))
		genOpts = append(genOpts, insights.WithPolicy(cfg.Policy))
	}

	session, err := engine.NewSession(in, demand, opts...)
	if err != nil {
		return err
	}
	result, err := session.Solve(ctx, budget)
	if err != nil {
		return err
	}

	out := struct {
		Result   model.SolveResult            `json:"result"`
		Insights *insights.ManagementInsights `json:"insights,omitempty"`
	}{Result: result}

	if !skipReport {
		var resPtr *model.SolveResult
		if result.Status.HasSolution() || result.Status == model.StatusInfeasible {
			resPtr = &result
		}
		rep := insights.NewGenerator(genOpts...).Generate(in, demand, resPtr)
		out.Insights = &rep
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// loadInput reads the scheduling document from the --input path, or from
// stdin when the path is "-" (the --format flag selects the codec then).
func loadInput() (model.SchedulerInput, model.DemandForecast, error) {
	if inputPath != "-" {
		return config.LoadDocument(inputPath)
	}
	doc, err := config.DecodeDocument(os.Stdin, inputFormat)
	if err != nil {
		return model.SchedulerInput{}, nil, err
	}
	return doc.Resolve()
}
