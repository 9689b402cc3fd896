package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/minhyannv/forecast-agent-go/pkg/dataset"
	"github.com/minhyannv/forecast-agent-go/pkg/plot"
)

// PlotDone is returned by plot_forecast on success.
const PlotDone = "Plot saved as forecast_plot.png"

type plotInput struct {
	Input string `json:"input" jsonschema_description:"Path to a forecast CSV with columns ds and yhat, normally forecast_output.csv"`
}

type plotTool struct {
	ctx Context
}

func (t *plotTool) name() string {
	return "plot_forecast"
}

func (t *plotTool) description() string {
	return "Plots a forecast CSV generated by forecast_timeseries."
}

func (t *plotTool) params() any {
	return plotInput{}
}

func (t *plotTool) call(_ context.Context, input string) (string, error) {
	resolved, err := t.ctx.resolve(strings.TrimSpace(input))
	if err != nil {
		return "", err
	}
	series, err := dataset.Read(resolved, "ds", "yhat")
	if err != nil {
		return "", fmt.Errorf("load forecast: %w", err)
	}

	outPath := t.ctx.outputPath(PlotOutputFile)
	if err := plot.Line(series, outPath, plot.Options{Title: "Forecast"}); err != nil {
		return "", fmt.Errorf("render %s: %w", PlotOutputFile, err)
	}
	t.ctx.Logger.Debug("plot_forecast: wrote chart", "path", outPath, "points", series.Len())
	return PlotDone, nil
}
