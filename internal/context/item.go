// Package context turns shell command output into context items for LLM
// prompts, and aggregates supplemental context (working directory, system
// info, recent terminal history) from retrievers.
package context

import (
	"errors"
	"net/url"
	"strings"

	"github.com/atinylittleshell/gshctx/internal/shell"
)

const (
	ItemTypeFile   = "file"
	TerminalTitle  = "Terminal Output"
	TerminalSource = "terminal"
)

var (
	// ErrDisabled is returned when shell context is turned off by config.
	ErrDisabled = shell.ErrDisabled

	// ErrEmptyOutput is reported when a command succeeded without output.
	ErrEmptyOutput = errors.New("empty output")
)

// Item is a unit of prompt context.
type Item struct {
	Type    string `json:"type"`
	Content string `json:"content"`
	Title   string `json:"title"`
	URI     string `json:"uri"`
	Source  string `json:"source"`
	// Size is the token count of Content.
	Size int `json:"size"`
}

// outputWrapper surrounds successful command output.
const outputWrapper = "\nTerminal output from the `{command}` command enclosed between <OUTPUT0412> tags:\n<OUTPUT0412>\n{output}\n</OUTPUT0412>"

// WrapOutput formats command output as item content.
func WrapOutput(command, output string) string {
	return strings.NewReplacer("{command}", command, "{output}", output).Replace(outputWrapper)
}

// TerminalURI returns the synthetic file URI identifying a command's output.
func TerminalURI(command string) string {
	return "file:///" + url.PathEscape(strings.TrimLeft(command, "/"))
}
