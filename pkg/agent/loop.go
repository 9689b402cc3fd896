package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	configpkg "github.com/minhyannv/forecast-agent-go/pkg/config"
	loggerpkg "github.com/minhyannv/forecast-agent-go/pkg/logger"
	"github.com/minhyannv/forecast-agent-go/pkg/tools"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/azure"
	"github.com/openai/openai-go/option"
)

var errMaxTurns = errors.New("max turns reached before assistant produced a final response")

// FunctionLoop runs the agent with native tool calling.
type FunctionLoop struct {
	config       configpkg.Config
	client       openai.Client
	tools        *tools.Registry
	SystemPrompt string
	logger       loggerpkg.Logger
}

func newFunctionLoop(cfg configpkg.Config, registry *tools.Registry, logger loggerpkg.Logger) *FunctionLoop {
	systemPrompt := buildSystemPrompt(registry)
	logger.Debug("system prompt ready", "bytes", len(systemPrompt))
	return &FunctionLoop{
		config:       cfg,
		client:       newAzureClient(cfg),
		tools:        registry,
		SystemPrompt: systemPrompt,
		logger:       logger,
	}
}

// newAzureClient targets the deployment named in cfg. Failed requests are
// not retried.
func newAzureClient(cfg configpkg.Config) openai.Client {
	return openai.NewClient(
		azure.WithEndpoint(cfg.Endpoint, cfg.APIVersion),
		azure.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	)
}

// Run sends the instruction and executes requested tool calls until the
// model answers without tools. Any tool failure aborts the run. Running out of
// turns yields IterationLimitAnswer.
func (a *FunctionLoop) Run(ctx context.Context, instruction string) (string, error) {
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		return "", ErrEmptyInstruction
	}
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(a.SystemPrompt),
		openai.UserMessage(instruction),
	}
	final, err := a.runIteration(ctx, messages, a.config.MaxTurns)
	if errors.Is(err, errMaxTurns) {
		a.logger.Warn("turn limit reached", "max_turns", a.config.MaxTurns)
		return IterationLimitAnswer, nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(final.Content), nil
}

// runOnce performs one model completion request.
func (a *FunctionLoop) runOnce(ctx context.Context, params openai.ChatCompletionNewParams) (openai.ChatCompletionMessage, error) {
	completion, err := a.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return openai.ChatCompletionMessage{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return openai.ChatCompletionMessage{}, errors.New("empty completion choices")
	}
	return completion.Choices[0].Message, nil
}

// runIteration executes model/tool turns until a final message arrives.
func (a *FunctionLoop) runIteration(
	ctx context.Context,
	messages []openai.ChatCompletionMessageParamUnion,
	maxTurns int,
) (openai.ChatCompletionMessage, error) {
	currentMessages := append([]openai.ChatCompletionMessageParamUnion{}, messages...)

	for turn := 0; turn < maxTurns; turn++ {
		a.logger.Debug("iteration", "turn", turn+1, "max_turns", maxTurns)
		message, err := a.runOnce(ctx, a.newChatParams(currentMessages))
		if err != nil {
			return openai.ChatCompletionMessage{}, err
		}

		if len(message.ToolCalls) == 0 {
			a.logger.Debug("final answer", "content", message.Content)
			return message, nil
		}

		// Persist the assistant tool-call turn before appending tool responses.
		currentMessages = append(currentMessages, message.ToParam())
		a.logger.Debug("assistant requested tool calls", "count", len(message.ToolCalls))
		currentMessages, err = a.appendToolResponses(ctx, currentMessages, message.ToolCalls)
		if err != nil {
			return openai.ChatCompletionMessage{}, err
		}
	}

	return openai.ChatCompletionMessage{}, errMaxTurns
}

func (a *FunctionLoop) newChatParams(messages []openai.ChatCompletionMessageParamUnion) openai.ChatCompletionNewParams {
	return openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(a.config.Deployment),
		Messages:    messages,
		Tools:       a.tools.Definitions(),
		Temperature: openai.Float(0),
	}
}

func (a *FunctionLoop) appendToolResponses(
	ctx context.Context,
	messages []openai.ChatCompletionMessageParamUnion,
	toolCalls []openai.ChatCompletionMessageToolCall,
) ([]openai.ChatCompletionMessageParamUnion, error) {
	updated := messages
	for _, call := range toolCalls {
		a.logger.Debug("tool call", "tool", call.Function.Name, "arguments", call.Function.Arguments)
		output, err := a.tools.Execute(ctx, call)
		if err != nil {
			return nil, err
		}
		a.logger.Debug("tool result", "tool", call.Function.Name, "output", output)
		updated = append(updated, openai.ToolMessage(output, call.ID))
	}
	return updated, nil
}
