package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

var headerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("#7D56F4")).
	MarginBottom(1)

// printAnswer writes the final answer, rendered as terminal markdown unless
// plain is set.
func printAnswer(out io.Writer, answer string, plain bool) error {
	if strings.TrimSpace(answer) == "" {
		answer = "(no answer)"
	}
	if plain {
		_, err := fmt.Fprintln(out, answer)
		return err
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return err
	}
	rendered, err := renderer.Render(answer)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "%s\n%s", headerStyle.Render("Agent answer"), rendered)
	return err
}
