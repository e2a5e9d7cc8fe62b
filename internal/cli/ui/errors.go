package ui

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// ErrorLevel represents the severity of an error message
type ErrorLevel int

const (
	ErrorLevelError ErrorLevel = iota
	ErrorLevelWarning
	ErrorLevelInfo
)

// ErrorOptions configures the error message formatting
type ErrorOptions struct {
	Level        ErrorLevel
	Context      string
	Problem      string
	Suggestions  []string
	HelpCommands []string
	NoColor      bool
}

// FormatError creates a standardized error message with suggestions and help commands
//
// Example output:
//
//	❌ UNKNOWN CLASS: Persn
//	   No class named 'Persn' in the metamodel.
//
//	   Did you mean: Person?
//
//	   → List classes: weft classes --metamodel model.weft.json
func FormatError(opts ErrorOptions) string {
	var b strings.Builder

	var headerColor, bodyColor *color.Color
	var symbol string
	switch opts.Level {
	case ErrorLevelWarning:
		headerColor = color.New(color.FgYellow, color.Bold)
		bodyColor = color.New(color.FgYellow)
		symbol = "⚠️"
	case ErrorLevelInfo:
		headerColor = color.New(color.FgCyan, color.Bold)
		bodyColor = color.New(color.FgCyan)
		symbol = "ℹ️"
	default:
		headerColor = color.New(color.FgRed, color.Bold)
		bodyColor = color.New(color.FgRed)
		symbol = "❌"
	}
	if opts.NoColor {
		headerColor.DisableColor()
		bodyColor.DisableColor()
	}

	b.WriteString(headerColor.Sprintf("%s %s\n", symbol, opts.Context))
	if opts.Problem != "" {
		b.WriteString(bodyColor.Sprintf("   %s\n", opts.Problem))
	}

	if len(opts.Suggestions) > 0 {
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("   Did you mean: %s?\n", strings.Join(opts.Suggestions, ", ")))
	}

	if len(opts.HelpCommands) > 0 {
		b.WriteString("\n")
		for _, help := range opts.HelpCommands {
			b.WriteString(fmt.Sprintf("   → %s\n", help))
		}
	}

	return b.String()
}
