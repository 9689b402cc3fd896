// Package main provides the forecast-agent CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/minhyannv/forecast-agent-go/pkg/agent"
	configpkg "github.com/minhyannv/forecast-agent-go/pkg/config"
	"github.com/minhyannv/forecast-agent-go/pkg/forecast"
	loggerpkg "github.com/minhyannv/forecast-agent-go/pkg/logger"
	"github.com/minhyannv/forecast-agent-go/pkg/tools"
	"github.com/spf13/cobra"
)

// main is the program entry point.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "forecast-agent [flags] [instruction]",
		Short: "Forecast a time series and plot it through an Azure OpenAI agent",
		Long: "forecast-agent asks an Azure OpenAI deployment to drive two tools, " +
			"forecast_timeseries and plot_forecast, writing " + tools.ForecastOutputFile +
			" and " + tools.PlotOutputFile + ".\n\nDefault instruction:\n  " + configpkg.DefaultInstruction,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadCLIConfig(cmd.Flags(), args)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, cmd)
		},
	}
	registerFlags(cmd.Flags())
	return cmd
}

func run(ctx context.Context, cfg configpkg.Config, cmd *cobra.Command) error {
	appLogger := loggerpkg.New(cmd.ErrOrStderr(), cfg.Verbose)
	runID := uuid.NewString()
	appLogger.Debug("run start", "run_id", runID, "mode", cfg.Mode, "instruction", cfg.Instruction)

	opts := forecast.DefaultOptions()
	if cfg.ForecastOptionsPath != "" {
		loaded, err := forecast.LoadOptions(cfg.ForecastOptionsPath)
		if err != nil {
			return err
		}
		opts = loaded
	}

	var allowedDirs []string
	if cfg.AllowedDir != "" {
		allowedDirs = append(allowedDirs, cfg.AllowedDir)
		if cfg.WorkDir != "" {
			if abs, err := filepath.Abs(cfg.WorkDir); err == nil {
				allowedDirs = append(allowedDirs, abs)
			}
		}
	}
	registry, err := tools.New(tools.Context{
		WorkDir:         cfg.WorkDir,
		AllowedDirs:     allowedDirs,
		ForecastOptions: opts,
		Logger:          appLogger,
	})
	if err != nil {
		return fmt.Errorf("register tools: %w", err)
	}

	runner, err := agent.New(cfg, registry, agent.WithLogger(appLogger))
	if err != nil {
		return err
	}
	answer, err := runner.Run(ctx, cfg.Instruction)
	if err != nil {
		return err
	}
	appLogger.Debug("run finished", "run_id", runID)

	if err := printAnswer(cmd.OutOrStdout(), answer, cfg.Plain); err != nil {
		return fmt.Errorf("print answer: %w", err)
	}
	return nil
}
