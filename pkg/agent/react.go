package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	configpkg "github.com/minhyannv/forecast-agent-go/pkg/config"
	loggerpkg "github.com/minhyannv/forecast-agent-go/pkg/logger"
	"github.com/minhyannv/forecast-agent-go/pkg/tools"
	"github.com/tmc/langchaingo/agents"
	"github.com/tmc/langchaingo/callbacks"
	"github.com/tmc/langchaingo/chains"
	lcopenai "github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
)

// ReactAgent runs the zero-shot reasoning loop: the model writes
// Thought/Action/Action Input steps and each tool observation is fed back
// until it emits a Final Answer.
type ReactAgent struct {
	executor chains.Chain
	logger   loggerpkg.Logger
}

func newReactAgent(cfg configpkg.Config, registry *tools.Registry, logger loggerpkg.Logger) (*ReactAgent, error) {
	llm, err := lcopenai.New(
		lcopenai.WithAPIType(lcopenai.APITypeAzure),
		lcopenai.WithToken(cfg.APIKey),
		lcopenai.WithBaseURL(cfg.Endpoint),
		lcopenai.WithAPIVersion(cfg.APIVersion),
		lcopenai.WithModel(cfg.Deployment),
		lcopenai.WithEmbeddingModel(cfg.Deployment),
	)
	if err != nil {
		return nil, fmt.Errorf("create chat client: %w", err)
	}

	executor, err := agents.Initialize(
		llm,
		registry.LangChainTools(),
		agents.ZeroShotReactDescription,
		agents.WithMaxIterations(cfg.MaxTurns),
		agents.WithCallbacksHandler(traceHandler{logger: logger}),
	)
	if err != nil {
		return nil, fmt.Errorf("create agent: %w", err)
	}
	return &ReactAgent{executor: executor, logger: logger}, nil
}

// Run executes the instruction and returns the trimmed final answer, or
// IterationLimitAnswer when the turn limit is reached.
func (r *ReactAgent) Run(ctx context.Context, instruction string) (string, error) {
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		return "", ErrEmptyInstruction
	}
	answer, err := chains.Run(ctx, r.executor, instruction)
	if errors.Is(err, agents.ErrNotFinished) {
		r.logger.Warn("turn limit reached")
		return IterationLimitAnswer, nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(answer), nil
}

// traceHandler logs each reasoning step at debug level.
type traceHandler struct {
	callbacks.SimpleHandler
	logger loggerpkg.Logger
}

var _ callbacks.Handler = traceHandler{}

func (h traceHandler) HandleAgentAction(_ context.Context, action schema.AgentAction) {
	h.logger.Debug("agent action", "tool", action.Tool, "input", action.ToolInput)
}

func (h traceHandler) HandleToolEnd(_ context.Context, output string) {
	h.logger.Debug("observation", "output", output)
}

func (h traceHandler) HandleToolError(_ context.Context, err error) {
	h.logger.Error("tool failed", "err", err)
}

func (h traceHandler) HandleAgentFinish(_ context.Context, finish schema.AgentFinish) {
	h.logger.Debug("agent finish", "output", finish.ReturnValues["output"])
}

func (h traceHandler) HandleLLMError(_ context.Context, err error) {
	h.logger.Error("llm request failed", "err", err)
}
