package tools

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/minhyannv/forecast-agent-go/pkg/dataset"
	"github.com/minhyannv/forecast-agent-go/pkg/forecast"
)

// Messages returned by forecast_timeseries.
const (
	ForecastInputError = "Error: Input format must be '<csv_path>, <periods>'"
	ForecastDone       = "Forecast complete. See forecast_output.csv for results."
)

type forecastInput struct {
	Input string `json:"input" jsonschema_description:"Dataset path and number of future periods, formatted as '<csv_path>, <periods>'"`
}

type forecastTool struct {
	ctx Context
}

func (t *forecastTool) name() string {
	return "forecast_timeseries"
}

func (t *forecastTool) description() string {
	return "Forecasts time series data using an additive trend and seasonality model. " +
		"Input should be in the format: '<csv_path>, <periods>'"
}

func (t *forecastTool) params() any {
	return forecastInput{}
}

func (t *forecastTool) call(_ context.Context, input string) (string, error) {
	path, periods, ok := parseForecastInput(input)
	if !ok {
		t.ctx.Logger.Debug("forecast_timeseries: malformed input", "input", input)
		return ForecastInputError, nil
	}

	resolved, err := t.ctx.resolve(path)
	if err != nil {
		return "", err
	}
	series, err := dataset.Read(resolved, "ds", "y")
	if err != nil {
		return "", fmt.Errorf("load dataset: %w", err)
	}

	model, err := forecast.New(t.ctx.ForecastOptions)
	if err != nil {
		return "", err
	}
	values := make([]float64, series.Len())
	for i, p := range series.Points {
		values[i] = p.Value
	}
	if err := model.Fit(series.Times(), values); err != nil {
		return "", fmt.Errorf("fit: %w", err)
	}
	t.ctx.Logger.Debug("forecast_timeseries: model fit",
		"rows", series.Len(),
		"seasonalities", model.Seasonalities(),
		"changepoints", len(model.Changepoints()),
	)

	future, err := model.MakeFuture(periods)
	if err != nil {
		return "", err
	}
	preds, err := model.Predict(future)
	if err != nil {
		return "", err
	}

	out := &dataset.Series{TimeColumn: "ds", ValueColumn: "yhat", Points: make([]dataset.Point, len(preds))}
	for i, p := range preds {
		out.Points[i] = dataset.Point{Time: p.Time, Value: p.Yhat}
	}
	outPath := t.ctx.outputPath(ForecastOutputFile)
	if err := dataset.WriteCSV(outPath, out.Tail(periods)); err != nil {
		return "", fmt.Errorf("write %s: %w", ForecastOutputFile, err)
	}
	t.ctx.Logger.Debug("forecast_timeseries: wrote output", "path", outPath, "rows", periods)
	return ForecastDone, nil
}

// parseForecastInput splits "<path>, <periods>" into its two fields. Exactly
// one comma is accepted.
func parseForecastInput(input string) (string, int, bool) {
	parts := strings.Split(input, ",")
	if len(parts) != 2 {
		return "", 0, false
	}
	periods, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return "", 0, false
	}
	return strings.TrimSpace(parts[0]), periods, true
}
