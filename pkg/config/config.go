package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Environment variables read at startup.
const (
	EnvAPIKey     = "AZURE_OPENAI_API_KEY"
	EnvEndpoint   = "AZURE_OPENAI_ENDPOINT"
	EnvDeployment = "AZURE_OPENAI_DEPLOYMENT_NAME"
	EnvAPIVersion = "AZURE_OPENAI_API_VERSION"
)

// Agent modes.
const (
	ModeReact     = "react"
	ModeFunctions = "functions"
)

// DefaultInstruction is issued to the agent when no instruction is given.
const DefaultInstruction = "Use 'forecast_timeseries' on 'sales_data.csv, 30' and then use 'plot_forecast' on 'forecast_output.csv'."

var validate = validator.New()

// Config holds all runtime configuration for the agent.
//
// The Azure fields are passed to the chat client as given; a missing value
// surfaces as a client error on first use.
type Config struct {
	APIKey     string `mapstructure:"api_key"`
	Endpoint   string `mapstructure:"endpoint"`
	Deployment string `mapstructure:"deployment"`
	APIVersion string `mapstructure:"api_version"`

	Mode                string `mapstructure:"mode" validate:"oneof=react functions"`
	MaxTurns            int    `mapstructure:"max_turns" validate:"min=1,max=100"`
	Verbose             bool   `mapstructure:"verbose"`
	Instruction         string `mapstructure:"instruction"`
	WorkDir             string `mapstructure:"work_dir"`
	ForecastOptionsPath string `mapstructure:"forecast_options"`
	AllowedDir          string `mapstructure:"allowed_dir"`
	Plain               bool   `mapstructure:"plain"`
}

// DefaultConfig returns a baseline configuration without side effects.
func DefaultConfig() Config {
	return Config{
		Mode:        ModeReact,
		MaxTurns:    15,
		Instruction: DefaultInstruction,
	}
}

// Normalize trims non-secret values and applies defaults. Azure settings are
// left untouched.
func Normalize(cfg Config) Config {
	cfg.Mode = strings.ToLower(strings.TrimSpace(cfg.Mode))
	if cfg.Mode == "" {
		cfg.Mode = ModeReact
	}
	cfg.Instruction = strings.TrimSpace(cfg.Instruction)
	if cfg.Instruction == "" {
		cfg.Instruction = DefaultInstruction
	}
	cfg.WorkDir = strings.TrimSpace(cfg.WorkDir)
	cfg.ForecastOptionsPath = strings.TrimSpace(cfg.ForecastOptionsPath)
	cfg.AllowedDir = strings.TrimSpace(cfg.AllowedDir)
	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = 1
	}
	return cfg
}

// Validate checks the run settings.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
