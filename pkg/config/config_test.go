package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, ModeReact, cfg.Mode)
	assert.Equal(t, DefaultInstruction, cfg.Instruction)
	require.NoError(t, cfg.Validate())
}

func TestNormalizeAppliesDefaults(t *testing.T) {
	cfg := Normalize(Config{
		Mode:     "  FUNCTIONS ",
		MaxTurns: -2,
		WorkDir:  " out ",
		APIKey:   " key ",
	})
	assert.Equal(t, ModeFunctions, cfg.Mode)
	assert.Equal(t, 1, cfg.MaxTurns)
	assert.Equal(t, DefaultInstruction, cfg.Instruction)
	assert.Equal(t, "out", cfg.WorkDir)
	assert.Equal(t, " key ", cfg.APIKey, "azure values pass through unchanged")
}

func TestValidateIgnoresMissingAzureSettings(t *testing.T) {
	cfg := Normalize(Config{})
	assert.NoError(t, cfg.Validate())
}

func TestValidateRejectsUnknownMode(t *testing.T) {
	cfg := Normalize(Config{Mode: "plan-and-execute"})
	assert.ErrorContains(t, cfg.Validate(), "invalid config")
}
