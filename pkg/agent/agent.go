// Package agent drives the chat model through the forecasting tools until it
// produces a final answer.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	configpkg "github.com/minhyannv/forecast-agent-go/pkg/config"
	loggerpkg "github.com/minhyannv/forecast-agent-go/pkg/logger"
	"github.com/minhyannv/forecast-agent-go/pkg/tools"
)

// ErrEmptyInstruction is returned when Run is called without an instruction.
var ErrEmptyInstruction = errors.New("instruction is required")

// IterationLimitAnswer is the final answer when the turn limit is reached
// before the model finishes.
const IterationLimitAnswer = "Agent stopped due to iteration limit or time limit."

// Runner executes one instruction against the registered tools.
type Runner interface {
	Run(ctx context.Context, instruction string) (string, error)
}

// New builds the Runner selected by cfg.Mode over the given tool registry.
func New(cfg configpkg.Config, registry *tools.Registry, opts ...AgentOption) (Runner, error) {
	cfg = configpkg.Normalize(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if registry == nil {
		return nil, errors.New("tool registry is required")
	}
	deps := agentDeps{logger: loggerpkg.NopLogger{}}
	for _, opt := range opts {
		if opt != nil {
			opt(&deps)
		}
	}
	deps.logger = loggerpkg.OrNop(deps.logger)

	deps.logger.Debug("agent init",
		"mode", cfg.Mode,
		"max_turns", cfg.MaxTurns,
		"deployment", cfg.Deployment,
		"api_version", cfg.APIVersion,
		"tools", strings.Join(registry.Names(), ","),
	)

	switch cfg.Mode {
	case configpkg.ModeFunctions:
		return newFunctionLoop(cfg, registry, deps.logger), nil
	case configpkg.ModeReact:
		return newReactAgent(cfg, registry, deps.logger)
	default:
		return nil, fmt.Errorf("unknown agent mode %q", cfg.Mode)
	}
}
