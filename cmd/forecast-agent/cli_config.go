package main

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	configpkg "github.com/minhyannv/forecast-agent-go/pkg/config"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "FORECAST_AGENT"

// azureEnv maps config keys to the Azure variables read as-is.
var azureEnv = map[string]string{
	"api_key":     configpkg.EnvAPIKey,
	"endpoint":    configpkg.EnvEndpoint,
	"deployment":  configpkg.EnvDeployment,
	"api_version": configpkg.EnvAPIVersion,
}

// flagKeys maps CLI flag names to config keys.
var flagKeys = map[string]string{
	"mode":             "mode",
	"max-turns":        "max_turns",
	"verbose":          "verbose",
	"work-dir":         "work_dir",
	"forecast-options": "forecast_options",
	"allowed-dir":      "allowed_dir",
	"plain":            "plain",
}

// registerFlags declares the run flags with their defaults.
func registerFlags(fs *pflag.FlagSet) {
	defaults := configpkg.DefaultConfig()
	fs.String("config", "", "YAML config file")
	fs.String("mode", defaults.Mode, "Agent mode: react or functions")
	fs.Int("max-turns", defaults.MaxTurns, "Max reasoning or tool-call turns")
	fs.Bool("verbose", defaults.Verbose, "Log every tool call and observation")
	fs.String("work-dir", defaults.WorkDir, "Directory for relative dataset paths and output files")
	fs.String("forecast-options", defaults.ForecastOptionsPath, "YAML file with forecast model options")
	fs.String("allowed-dir", defaults.AllowedDir, "Restrict tool file access to this directory (empty disables the restriction)")
	fs.Bool("plain", defaults.Plain, "Print the raw answer instead of rendered markdown")
}

// loadCLIConfig merges defaults, config file, environment and flags, in
// increasing order of precedence. args are the positional arguments.
func loadCLIConfig(fs *pflag.FlagSet, args []string) (configpkg.Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	defaults := configpkg.DefaultConfig()
	v.SetDefault("mode", defaults.Mode)
	v.SetDefault("max_turns", defaults.MaxTurns)
	v.SetDefault("instruction", defaults.Instruction)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	for key, env := range azureEnv {
		if err := v.BindEnv(key, env); err != nil {
			return configpkg.Config{}, fmt.Errorf("bind %s: %w", env, err)
		}
	}
	for name, key := range flagKeys {
		if err := v.BindEnv(key); err != nil {
			return configpkg.Config{}, fmt.Errorf("bind %s: %w", key, err)
		}
		if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
			return configpkg.Config{}, fmt.Errorf("bind --%s: %w", name, err)
		}
	}
	if err := v.BindEnv("instruction"); err != nil {
		return configpkg.Config{}, fmt.Errorf("bind instruction: %w", err)
	}

	if path, _ := fs.GetString("config"); strings.TrimSpace(path) != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return configpkg.Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg configpkg.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return configpkg.Config{}, fmt.Errorf("decode config: %w", err)
	}
	if instruction := strings.TrimSpace(strings.Join(args, " ")); instruction != "" {
		cfg.Instruction = instruction
	}

	cfg = configpkg.Normalize(cfg)
	if err := cfg.Validate(); err != nil {
		return configpkg.Config{}, err
	}
	return cfg, nil
}
