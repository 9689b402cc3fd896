package forecast

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func dailySeries(n int, f func(i int) float64) ([]time.Time, []float64) {
	times := make([]time.Time, n)
	values := make([]float64, n)
	for i := 0; i < n; i++ {
		times[i] = day0.AddDate(0, 0, i)
		values[i] = f(i)
	}
	return times, values
}

func TestFitExtrapolatesLinearTrend(t *testing.T) {
	times, values := dailySeries(60, func(i int) float64 { return 10 + 0.5*float64(i) })

	m, err := New(DefaultOptions())
	require.NoError(t, err)
	require.NoError(t, m.Fit(times, values))

	future, err := m.MakeFuture(5)
	require.NoError(t, err)
	require.Len(t, future, 65)

	preds, err := m.Predict(future)
	require.NoError(t, err)
	for i := 60; i < 65; i++ {
		want := 10 + 0.5*float64(i)
		assert.InDelta(t, want, preds[i].Yhat, 0.5, "day %d", i)
		assert.Equal(t, day0.AddDate(0, 0, i), preds[i].Time)
	}
}

func TestFitRecoversWeeklyCycle(t *testing.T) {
	cycle := func(i int) float64 {
		dow := float64(day0.AddDate(0, 0, i).Weekday())
		return 100 + 10*math.Sin(2*math.Pi*dow/7)
	}
	times, values := dailySeries(56, cycle)

	m, err := New(DefaultOptions())
	require.NoError(t, err)
	require.NoError(t, m.Fit(times, values))
	assert.Equal(t, []string{"weekly"}, m.Seasonalities())

	future, err := m.MakeFuture(7)
	require.NoError(t, err)
	preds, err := m.Predict(future[56:])
	require.NoError(t, err)
	for k, p := range preds {
		assert.InDelta(t, cycle(56+k), p.Yhat, 1.0, "future day %d", k)
		assert.InDelta(t, p.Yhat, p.Trend+p.Seasonal, 1e-9)
	}
}

func TestFitIgnoresNaN(t *testing.T) {
	times, values := dailySeries(20, func(i int) float64 { return float64(i) })
	values[3] = math.NaN()

	m, err := New(DefaultOptions())
	require.NoError(t, err)
	require.NoError(t, m.Fit(times, values))

	future, err := m.MakeFuture(0)
	require.NoError(t, err)
	assert.Len(t, future, 20, "NaN rows stay in the history")
}

func TestFitTooFewRows(t *testing.T) {
	m, err := New(DefaultOptions())
	require.NoError(t, err)

	err = m.Fit([]time.Time{day0, day0.AddDate(0, 0, 1)}, []float64{1, math.NaN()})
	assert.True(t, errors.Is(err, ErrTooFewRows))
}

func TestMakeFutureBeforeFit(t *testing.T) {
	m, err := New(DefaultOptions())
	require.NoError(t, err)

	_, err = m.MakeFuture(3)
	assert.ErrorIs(t, err, ErrNotFitted)
	_, err = m.Predict([]time.Time{day0})
	assert.ErrorIs(t, err, ErrNotFitted)
}

func TestMakeFutureNegativePeriods(t *testing.T) {
	times, values := dailySeries(10, func(i int) float64 { return float64(i) })
	m, err := New(DefaultOptions())
	require.NoError(t, err)
	require.NoError(t, m.Fit(times, values))

	_, err = m.MakeFuture(-1)
	assert.Error(t, err)
}

func TestMakeFutureFrequencies(t *testing.T) {
	last := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		freq string
		want time.Time
	}{
		{"D", time.Date(2024, 1, 17, 0, 0, 0, 0, time.UTC)},
		{"H", time.Date(2024, 1, 15, 2, 0, 0, 0, time.UTC)},
		{"W", time.Date(2024, 1, 29, 0, 0, 0, 0, time.UTC)},
		{"MS", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.freq, func(t *testing.T) {
			assert.Equal(t, tt.want, step(last, tt.freq, 2))
		})
	}
}

func TestSeasonalityToggles(t *testing.T) {
	times, values := dailySeries(800, func(i int) float64 { return float64(i % 30) })

	m, err := New(DefaultOptions())
	require.NoError(t, err)
	require.NoError(t, m.Fit(times, values))
	assert.Equal(t, []string{"yearly", "weekly"}, m.Seasonalities())

	opts := DefaultOptions()
	opts.WeeklySeasonality = ToggleDisabled
	opts.DailySeasonality = ToggleEnabled
	m, err = New(opts)
	require.NoError(t, err)
	require.NoError(t, m.Fit(times, values))
	assert.Equal(t, []string{"yearly", "daily"}, m.Seasonalities())
}

func TestChangepointPlacement(t *testing.T) {
	times, values := dailySeries(100, func(i int) float64 { return float64(i) })

	m, err := New(DefaultOptions())
	require.NoError(t, err)
	require.NoError(t, m.Fit(times, values))

	cps := m.Changepoints()
	require.Len(t, cps, 25)
	assert.True(t, cps[0].After(times[0]))
	assert.False(t, cps[len(cps)-1].After(times[79]), "changepoints stay in the first 80%% of the history")

	short, err := New(DefaultOptions())
	require.NoError(t, err)
	require.NoError(t, short.Fit(times[:10], values[:10]))
	assert.Len(t, short.Changepoints(), 7)
}

func TestFlatGrowth(t *testing.T) {
	times, values := dailySeries(30, func(i int) float64 { return 5 })
	opts := DefaultOptions()
	opts.Growth = "flat"

	m, err := New(opts)
	require.NoError(t, err)
	require.NoError(t, m.Fit(times, values))
	assert.Empty(t, m.Changepoints())

	preds, err := m.Predict([]time.Time{day0.AddDate(0, 0, 40)})
	require.NoError(t, err)
	assert.InDelta(t, 5, preds[0].Yhat, 0.1)
}

func TestMultiplicativeMode(t *testing.T) {
	times, values := dailySeries(56, func(i int) float64 {
		dow := float64(day0.AddDate(0, 0, i).Weekday())
		return (50 + float64(i)) * (1 + 0.1*math.Cos(2*math.Pi*dow/7))
	})
	opts := DefaultOptions()
	opts.SeasonalityMode = "multiplicative"

	m, err := New(opts)
	require.NoError(t, err)
	require.NoError(t, m.Fit(times, values))

	future, err := m.MakeFuture(7)
	require.NoError(t, err)
	preds, err := m.Predict(future)
	require.NoError(t, err)
	for _, p := range preds {
		require.False(t, math.IsNaN(p.Yhat))
	}
	assert.InDelta(t, values[55], preds[55].Yhat, 5)
}

func TestNewRejectsInvalidOptions(t *testing.T) {
	opts := DefaultOptions()
	opts.SeasonalityMode = "exponential"
	_, err := New(opts)
	assert.Error(t, err)
}

func TestLoadOptions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "forecast.yaml")
	content := "growth: flat\nweekly_seasonality: disabled\nfreq: W\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	opts, err := LoadOptions(path)
	require.NoError(t, err)
	assert.Equal(t, "flat", opts.Growth)
	assert.Equal(t, ToggleDisabled, opts.WeeklySeasonality)
	assert.Equal(t, "W", opts.Frequency)
	assert.Equal(t, 25, opts.NChangepoints, "unset keys keep defaults")
}

func TestLoadOptionsValidates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forecast.yaml")
	require.NoError(t, os.WriteFile(path, []byte("changepoint_range: 1.5\n"), 0o644))

	_, err := LoadOptions(path)
	assert.ErrorContains(t, err, "invalid forecast options")
}
