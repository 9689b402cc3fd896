// Package forecast fits an additive time series model (piecewise linear
// trend plus Fourier seasonalities) and extrapolates it to future dates.
package forecast

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

// ErrTooFewRows is returned by Fit when fewer than two usable rows remain.
var ErrTooFewRows = errors.New("series has less than 2 non-NaN rows")

// ErrNotFitted is returned when MakeFuture or Predict run before Fit.
var ErrNotFitted = errors.New("model has not been fit")

const secondsPerDay = 86400.0

// seasonality is a periodic component expanded into Fourier terms.
type seasonality struct {
	name   string
	period float64 // days
	order  int
}

var builtinSeasonalities = []seasonality{
	{name: "yearly", period: 365.25, order: 10},
	{name: "weekly", period: 7, order: 3},
	{name: "daily", period: 1, order: 4},
}

// Prediction is the model output for one timestamp, in the units of the
// fitted series.
type Prediction struct {
	Time     time.Time
	Trend    float64
	Seasonal float64
	Yhat     float64
}

// Model is an additive forecaster. A Model is fit once and is not safe for
// concurrent Fit calls.
type Model struct {
	opts Options

	fitted       bool
	start        time.Time
	tScale       float64 // seconds spanned by the history
	yScale       float64
	history      []time.Time
	changepoints []float64 // scaled time
	cpTimes      []time.Time
	seasonal     []seasonality
	beta         []float64
	// stage1 holds trend-only coefficients used to scale seasonal terms in
	// multiplicative mode.
	stage1 []float64
}

// New returns an unfitted model.
func New(opts Options) (*Model, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Model{opts: opts}, nil
}

// Fit estimates the model from paired timestamps and values. NaN values are
// ignored for estimation but their timestamps remain part of the history.
func (m *Model) Fit(times []time.Time, values []float64) error {
	if len(times) != len(values) {
		return fmt.Errorf("times and values differ in length: %d != %d", len(times), len(values))
	}

	type row struct {
		t time.Time
		y float64
	}
	rows := make([]row, 0, len(times))
	for i := range times {
		if math.IsNaN(values[i]) || math.IsInf(values[i], 0) {
			continue
		}
		rows = append(rows, row{t: times[i], y: values[i]})
	}
	if len(rows) < 2 {
		return ErrTooFewRows
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].t.Before(rows[j].t) })

	m.history = uniqueSorted(times)
	m.start = rows[0].t
	m.tScale = rows[len(rows)-1].t.Sub(m.start).Seconds()
	if m.tScale <= 0 {
		return errors.New("history spans a single timestamp")
	}

	m.yScale = 0
	for _, r := range rows {
		m.yScale = math.Max(m.yScale, math.Abs(r.y))
	}
	if m.yScale == 0 {
		m.yScale = 1
	}

	ts := make([]time.Time, len(rows))
	y := make([]float64, len(rows))
	for i, r := range rows {
		ts[i] = r.t
		y[i] = r.y / m.yScale
	}

	m.cpTimes = m.placeChangepoints(ts)
	m.changepoints = make([]float64, len(m.cpTimes))
	for i, c := range m.cpTimes {
		m.changepoints[i] = m.scaledTime(c)
	}
	m.seasonal = m.selectSeasonalities(ts)

	trendCols := m.trendWidth()
	trendX := make([][]float64, len(ts))
	for i, t := range ts {
		trendX[i] = m.trendFeatures(t)
	}
	trendPriors := m.priors(trendCols, 0)

	if m.opts.SeasonalityMode == "multiplicative" && len(m.seasonal) > 0 {
		stage1, err := estimate(trendX, y, trendPriors)
		if err != nil {
			return err
		}
		m.stage1 = stage1
	} else {
		m.stage1 = nil
	}

	X := make([][]float64, len(ts))
	for i, t := range ts {
		sf := m.seasonalFeatures(t)
		if m.stage1 != nil {
			level := dot(trendX[i], m.stage1)
			for j := range sf {
				sf[j] *= level
			}
		}
		X[i] = append(append([]float64{}, trendX[i]...), sf...)
	}
	beta, err := estimate(X, y, m.priors(trendCols, len(X[0])-trendCols))
	if err != nil {
		return err
	}
	m.beta = beta
	m.fitted = true
	return nil
}

// MakeFuture returns the history timestamps followed by periods future
// timestamps stepped by the configured frequency from the last history date.
func (m *Model) MakeFuture(periods int) ([]time.Time, error) {
	if !m.fitted {
		return nil, ErrNotFitted
	}
	if periods < 0 {
		return nil, fmt.Errorf("periods must be non-negative, got %d", periods)
	}
	out := make([]time.Time, 0, len(m.history)+periods)
	out = append(out, m.history...)
	last := m.history[len(m.history)-1]
	for i := 1; i <= periods; i++ {
		out = append(out, step(last, m.opts.Frequency, i))
	}
	return out, nil
}

// Predict evaluates the fitted model at each timestamp.
func (m *Model) Predict(times []time.Time) ([]Prediction, error) {
	if !m.fitted {
		return nil, ErrNotFitted
	}
	out := make([]Prediction, len(times))
	nTrend := m.trendWidth()
	for i, t := range times {
		tf := m.trendFeatures(t)
		trend := dot(tf, m.beta[:nTrend])
		seasonal := dot(m.seasonalFeatures(t), m.beta[nTrend:])
		if m.stage1 != nil {
			seasonal *= dot(tf, m.stage1)
		}
		out[i] = Prediction{
			Time:     t,
			Trend:    trend * m.yScale,
			Seasonal: seasonal * m.yScale,
			Yhat:     (trend + seasonal) * m.yScale,
		}
	}
	return out, nil
}

// Seasonalities lists the seasonal components enabled by the last Fit.
func (m *Model) Seasonalities() []string {
	names := make([]string, len(m.seasonal))
	for i, s := range m.seasonal {
		names[i] = s.name
	}
	return names
}

// Changepoints returns the trend changepoints placed by the last Fit.
func (m *Model) Changepoints() []time.Time {
	return append([]time.Time{}, m.cpTimes...)
}

func (m *Model) scaledTime(t time.Time) float64 {
	return t.Sub(m.start).Seconds() / m.tScale
}

func (m *Model) placeChangepoints(ts []time.Time) []time.Time {
	if m.opts.Growth == "flat" {
		return nil
	}
	histSize := int(math.Floor(float64(len(ts)) * m.opts.ChangepointRange))
	n := m.opts.NChangepoints
	if n+1 > histSize {
		n = histSize - 1
	}
	if n <= 0 {
		return nil
	}
	cps := make([]time.Time, 0, n)
	for i := 1; i <= n; i++ {
		idx := int(math.Round(float64(i) * float64(histSize-1) / float64(n)))
		cps = append(cps, ts[idx])
	}
	return cps
}

func (m *Model) selectSeasonalities(ts []time.Time) []seasonality {
	rangeDays := ts[len(ts)-1].Sub(ts[0]).Seconds() / secondsPerDay
	minSpacing := math.Inf(1)
	for i := 1; i < len(ts); i++ {
		if d := ts[i].Sub(ts[i-1]).Seconds() / secondsPerDay; d > 0 && d < minSpacing {
			minSpacing = d
		}
	}

	auto := map[string]bool{
		"yearly": rangeDays >= 730,
		"weekly": rangeDays >= 14 && minSpacing < 7,
		"daily":  rangeDays >= 2 && minSpacing < 1,
	}
	toggles := map[string]Toggle{
		"yearly": m.opts.YearlySeasonality,
		"weekly": m.opts.WeeklySeasonality,
		"daily":  m.opts.DailySeasonality,
	}

	var out []seasonality
	for _, s := range builtinSeasonalities {
		switch toggles[s.name] {
		case ToggleEnabled:
			out = append(out, s)
		case ToggleAuto:
			if auto[s.name] {
				out = append(out, s)
			}
		}
	}
	return out
}

func (m *Model) trendWidth() int {
	if m.opts.Growth == "flat" {
		return 1
	}
	return 2 + len(m.changepoints)
}

// trendFeatures returns the intercept, slope and hinge columns for t.
func (m *Model) trendFeatures(t time.Time) []float64 {
	if m.opts.Growth == "flat" {
		return []float64{1}
	}
	x := m.scaledTime(t)
	f := make([]float64, 0, 2+len(m.changepoints))
	f = append(f, 1, x)
	for _, c := range m.changepoints {
		f = append(f, math.Max(0, x-c))
	}
	return f
}

// seasonalFeatures returns the Fourier terms of every enabled seasonality,
// with time measured in days since the Unix epoch.
func (m *Model) seasonalFeatures(t time.Time) []float64 {
	days := float64(t.UnixNano()) / 1e9 / secondsPerDay
	var f []float64
	for _, s := range m.seasonal {
		for k := 1; k <= s.order; k++ {
			arg := 2 * math.Pi * float64(k) * days / s.period
			f = append(f, math.Sin(arg), math.Cos(arg))
		}
	}
	return f
}

// priors returns per-column prior standard deviations: effectively flat for
// intercept and slope, changepoint scale for hinges, seasonality scale for
// Fourier terms.
func (m *Model) priors(nTrend, nSeasonal int) []float64 {
	p := make([]float64, 0, nTrend+nSeasonal)
	for j := 0; j < nTrend; j++ {
		if j < 2 {
			p = append(p, math.Inf(1))
		} else {
			p = append(p, m.opts.ChangepointPriorScale)
		}
	}
	for j := 0; j < nSeasonal; j++ {
		p = append(p, m.opts.SeasonalityPriorScale)
	}
	return p
}

func step(from time.Time, freq string, i int) time.Time {
	switch freq {
	case "H":
		return from.Add(time.Duration(i) * time.Hour)
	case "W":
		return from.AddDate(0, 0, 7*i)
	case "MS":
		first := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, from.Location())
		return first.AddDate(0, i, 0)
	default:
		return from.AddDate(0, 0, i)
	}
}

func uniqueSorted(times []time.Time) []time.Time {
	out := append([]time.Time{}, times...)
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	n := 0
	for i, t := range out {
		if i > 0 && t.Equal(out[n-1]) {
			continue
		}
		out[n] = t
		n++
	}
	return out[:n]
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}
