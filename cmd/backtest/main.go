package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/moznion/go-optional"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/quantfold/quantfold/internal/backtest"
	"github.com/quantfold/quantfold/internal/feed"
	"github.com/quantfold/quantfold/internal/logger"
	"github.com/quantfold/quantfold/internal/statistics"
)

// runAction loads the bars and the config, runs the simulation and writes
// the stats report plus the Parquet order/fill ledger to the output folder.
func runAction(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	dataPath := cmd.String("data")
	outputPath := cmd.String("output")
	startFlag := cmd.Timestamp("start")
	endFlag := cmd.Timestamp("end")

	log, err := logger.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	config := backtest.DefaultConfig()

	if configPath != "" {
		config, err = backtest.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
	}

	start := optional.None[time.Time]()
	if !startFlag.IsZero() {
		start = optional.Some(startFlag)
	}

	end := optional.None[time.Time]()
	if !endFlag.IsZero() {
		end = optional.Some(endFlag)
	}

	barFeed, err := feed.NewDuckDBFeed(log)
	if err != nil {
		return fmt.Errorf("failed to open feed: %w", err)
	}
	defer barFeed.Close()

	series, err := barFeed.Load(dataPath, start, end)
	if err != nil {
		return fmt.Errorf("failed to load bars: %w", err)
	}

	engine, err := backtest.NewEngine(config, log)
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}
	defer engine.Close()

	bar := progressbar.Default(int64(series.Len()))
	bar.Describe(fmt.Sprintf("Simulating %s", filepath.Base(dataPath)))
	engine.SetProgressCallback(func(current, total int) {
		bar.Add(1)
	})

	result, err := engine.Run(series)
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	stats, err := statistics.Compute(result)
	if err != nil {
		return fmt.Errorf("failed to compute statistics: %w", err)
	}

	if err := os.MkdirAll(outputPath, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	statsPath := filepath.Join(outputPath, "stats.yaml")
	if err := statistics.WriteYAML(statsPath, stats); err != nil {
		return fmt.Errorf("failed to write stats: %w", err)
	}

	equityPath := filepath.Join(outputPath, "equity.csv")
	if err := statistics.WriteEquityCSV(equityPath, result.EquityCurve); err != nil {
		return fmt.Errorf("failed to write equity curve: %w", err)
	}

	if err := engine.Ledger().Write(outputPath); err != nil {
		return fmt.Errorf("failed to write ledger: %w", err)
	}

	log.Info("Run complete",
		zap.String("stats", statsPath),
		zap.Float64("total_return", stats.TotalReturn),
		zap.Float64("max_drawdown", stats.MaxDrawdown),
		zap.Int64("trades", stats.TradeResult.NumberOfTrades),
	)

	return nil
}

// schemaAction prints the JSON schema of the YAML config file.
func schemaAction(ctx context.Context, cmd *cli.Command) error {
	schema, err := backtest.GetConfigSchema()
	if err != nil {
		return fmt.Errorf("failed to generate schema: %w", err)
	}

	fmt.Println(schema)

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "backtest",
		Usage: "Run a rules-based strategy simulation over a cached OHLCV file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "config",
				Aliases:  []string{"c"},
				Usage:    "Path to the YAML config file; defaults apply when omitted",
				Required: false,
			},
			&cli.StringFlag{
				Name:     "data",
				Aliases:  []string{"d"},
				Usage:    "Path to the OHLCV bars file (.csv or .parquet)",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "output",
				Aliases:  []string{"o"},
				Usage:    "Path to the output directory",
				Value:    "results",
				Required: false,
			},
			&cli.TimestampFlag{
				Name:     "start",
				Aliases:  []string{"s"},
				Usage:    "Only simulate bars at or after this date (`YYYY-MM-DD`)",
				Required: false,
				Config: cli.TimestampConfig{
					Layouts: []string{"2006-01-02"},
				},
			},
			&cli.TimestampFlag{
				Name:     "end",
				Aliases:  []string{"e"},
				Usage:    "Only simulate bars at or before this date (`YYYY-MM-DD`)",
				Required: false,
				Config: cli.TimestampConfig{
					Layouts: []string{"2006-01-02"},
				},
			},
		},
		Action: runAction,
		Commands: []*cli.Command{
			{
				Name:   "schema",
				Usage:  "Print the JSON schema of the config file",
				Action: schemaAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
