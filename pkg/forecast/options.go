package forecast

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// Toggle switches a seasonality on, off, or lets the history length decide.
type Toggle string

const (
	ToggleAuto     Toggle = "auto"
	ToggleEnabled  Toggle = "enabled"
	ToggleDisabled Toggle = "disabled"
)

// Options configures a Model. The zero value is not usable; start from
// DefaultOptions.
type Options struct {
	// Growth is "linear" (piecewise linear trend) or "flat" (constant trend).
	Growth string `yaml:"growth" validate:"oneof=linear flat"`

	NChangepoints         int     `yaml:"n_changepoints" validate:"gte=0,lte=200"`
	ChangepointRange      float64 `yaml:"changepoint_range" validate:"gt=0,lte=1"`
	ChangepointPriorScale float64 `yaml:"changepoint_prior_scale" validate:"gt=0"`
	SeasonalityPriorScale float64 `yaml:"seasonality_prior_scale" validate:"gt=0"`
	SeasonalityMode       string  `yaml:"seasonality_mode" validate:"oneof=additive multiplicative"`

	YearlySeasonality Toggle `yaml:"yearly_seasonality" validate:"oneof=auto enabled disabled"`
	WeeklySeasonality Toggle `yaml:"weekly_seasonality" validate:"oneof=auto enabled disabled"`
	DailySeasonality  Toggle `yaml:"daily_seasonality" validate:"oneof=auto enabled disabled"`

	// Frequency is the step between future dates: D (day), H (hour), W (week)
	// or MS (month start).
	Frequency string `yaml:"freq" validate:"oneof=D H W MS"`
}

// DefaultOptions returns the settings used when no options file is given.
func DefaultOptions() Options {
	return Options{
		Growth:                "linear",
		NChangepoints:         25,
		ChangepointRange:      0.8,
		ChangepointPriorScale: 0.05,
		SeasonalityPriorScale: 10,
		SeasonalityMode:       "additive",
		YearlySeasonality:     ToggleAuto,
		WeeklySeasonality:     ToggleAuto,
		DailySeasonality:      ToggleAuto,
		Frequency:             "D",
	}
}

// Validate checks option ranges and enumerations.
func (o Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		return fmt.Errorf("invalid forecast options: %w", err)
	}
	return nil
}

// LoadOptions reads a YAML options file. Keys missing from the file keep
// their DefaultOptions values.
func LoadOptions(path string) (Options, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Options{}, err
	}
	opts := DefaultOptions()
	if err := yaml.Unmarshal(content, &opts); err != nil {
		return Options{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := opts.Validate(); err != nil {
		return Options{}, err
	}
	return opts, nil
}
