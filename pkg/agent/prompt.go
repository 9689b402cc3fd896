package agent

import (
	"strings"

	"github.com/minhyannv/forecast-agent-go/pkg/tools"
)

const systemPromptHeader = `You are a forecasting assistant. Complete the user's request by calling the available tools.

Rules:
- Call tools one at a time, in the order the request names them.
- Pass each tool a single "input" string exactly as the request phrases it.
- After the last tool reports success, answer with a short summary of what was produced.
- If a tool reports an input format error, correct the input and call it again.`

// buildSystemPrompt lists the registered tools after the fixed rules.
func buildSystemPrompt(registry *tools.Registry) string {
	var sb strings.Builder
	sb.WriteString(systemPromptHeader)
	sb.WriteString("\n\nTools:\n")
	for _, def := range registry.Definitions() {
		sb.WriteString("- ")
		sb.WriteString(def.Function.Name)
		if desc := def.Function.Description.Value; desc != "" {
			sb.WriteString(": ")
			sb.WriteString(desc)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\nOutputs are written to " + tools.ForecastOutputFile + " and " + tools.PlotOutputFile + ".\n")
	return sb.String()
}
