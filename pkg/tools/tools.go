package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/minhyannv/forecast-agent-go/pkg/forecast"
	loggerpkg "github.com/minhyannv/forecast-agent-go/pkg/logger"
	"github.com/openai/openai-go"
	lctools "github.com/tmc/langchaingo/tools"
)

// Fixed output files, relative to the work directory.
const (
	ForecastOutputFile = "forecast_output.csv"
	PlotOutputFile     = "forecast_plot.png"
)

type tool interface {
	name() string
	description() string
	// params returns a struct whose JSON schema describes the call arguments.
	params() any
	call(ctx context.Context, input string) (string, error)
}

// Context is shared by every tool.
type Context struct {
	// WorkDir receives output files and anchors relative input paths.
	// Empty means the process working directory.
	WorkDir string
	// AllowedDirs restricts input paths to one of these directories.
	// When empty, no restriction is applied.
	AllowedDirs     []string
	ForecastOptions forecast.Options
	Logger          loggerpkg.Logger
}

func (c Context) resolve(path string) (string, error) {
	if c.WorkDir != "" && !filepath.IsAbs(path) {
		path = filepath.Join(c.WorkDir, path)
	}
	if len(c.AllowedDirs) == 0 {
		return path, nil
	}
	return validatePathWithAllowedDirs(path, c.AllowedDirs)
}

func (c Context) outputPath(name string) string {
	if c.WorkDir == "" {
		return name
	}
	return filepath.Join(c.WorkDir, name)
}

// Registry holds registered tools and handles execution.
type Registry struct {
	registry map[string]tool
	order    []tool
	ctx      Context
	params   []openai.ChatCompletionToolParam
}

// New builds a registry with forecast_timeseries and plot_forecast, in that
// order.
func New(ctx Context) (*Registry, error) {
	ctx.Logger = loggerpkg.OrNop(ctx.Logger)
	if ctx.ForecastOptions == (forecast.Options{}) {
		ctx.ForecastOptions = forecast.DefaultOptions()
	}
	r := &Registry{
		registry: make(map[string]tool),
		ctx:      ctx,
	}
	for _, t := range []tool{&forecastTool{ctx: ctx}, &plotTool{ctx: ctx}} {
		if err := r.register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) register(t tool) error {
	params, err := functionParameters(t.params())
	if err != nil {
		return fmt.Errorf("schema for %s: %w", t.name(), err)
	}
	r.registry[t.name()] = t
	r.order = append(r.order, t)
	r.params = append(r.params, openai.ChatCompletionToolParam{
		Function: openai.FunctionDefinitionParam{
			Name:        t.name(),
			Description: openai.String(t.description()),
			Parameters:  params,
		},
	})
	r.ctx.Logger.Debug("registered tool", "name", t.name())
	return nil
}

// Names lists tool names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	for i, t := range r.order {
		names[i] = t.name()
	}
	return names
}

// Definitions returns the tools as chat-completions function definitions.
func (r *Registry) Definitions() []openai.ChatCompletionToolParam {
	return r.params
}

// Execute runs a chat-completions tool call. The arguments object carries the
// tool's single string input; arguments that are not such an object are passed
// through verbatim as the input.
func (r *Registry) Execute(ctx context.Context, call openai.ChatCompletionMessageToolCall) (string, error) {
	var args struct {
		Input *string `json:"input"`
	}
	input := call.Function.Arguments
	if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err == nil && args.Input != nil {
		input = *args.Input
	}
	return r.Call(ctx, call.Function.Name, input)
}

// Call runs the named tool on a raw input string. An unknown name is reported
// as an observation for the model rather than an error.
func (r *Registry) Call(ctx context.Context, name, input string) (string, error) {
	if ctx != nil {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}
	}

	t, ok := r.registry[name]
	if !ok {
		r.ctx.Logger.Warn("unknown tool requested", "name", name)
		return fmt.Sprintf("%s is not a valid tool, try one of [%s].", name, strings.Join(r.Names(), ", ")), nil
	}

	r.ctx.Logger.Debug("tool call", "name", name, "input", input)
	out, err := t.call(ctx, input)
	if err != nil {
		r.ctx.Logger.Error("tool failed", "name", name, "err", err)
		return "", fmt.Errorf("%s: %w", name, err)
	}
	r.ctx.Logger.Debug("tool result", "name", name, "output", out)
	return out, nil
}

// LangChainTools exposes the registry through the langchaingo tool interface.
func (r *Registry) LangChainTools() []lctools.Tool {
	out := make([]lctools.Tool, len(r.order))
	for i, t := range r.order {
		out[i] = langchainTool{registry: r, tool: t}
	}
	return out
}

type langchainTool struct {
	registry *Registry
	tool     tool
}

var _ lctools.Tool = langchainTool{}

func (l langchainTool) Name() string        { return l.tool.name() }
func (l langchainTool) Description() string { return l.tool.description() }

func (l langchainTool) Call(ctx context.Context, input string) (string, error) {
	return l.registry.Call(ctx, l.tool.name(), input)
}

func functionParameters(v any) (openai.FunctionParameters, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	raw, err := json.Marshal(reflector.Reflect(v))
	if err != nil {
		return nil, err
	}
	var params openai.FunctionParameters
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, err
	}
	delete(params, "$schema")
	delete(params, "$id")
	return params, nil
}
