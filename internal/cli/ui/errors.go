package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// ErrorLevel grades how loudly a message block is rendered.
type ErrorLevel int

const (
	ErrorLevelError ErrorLevel = iota
	ErrorLevelWarning
	ErrorLevelInfo
)

func (l ErrorLevel) style() (symbol string, header, body *color.Color) {
	switch l {
	case ErrorLevelWarning:
		return "⚠", color.New(color.FgYellow, color.Bold), color.New(color.FgYellow)
	case ErrorLevelInfo:
		return "ℹ", color.New(color.FgCyan, color.Bold), color.New(color.FgCyan)
	default:
		return "✗", color.New(color.FgRed, color.Bold), color.New(color.FgRed)
	}
}

// ErrorOptions describes one rendered message block: what failed, what that
// means for the run, and what the user can try next.
type ErrorOptions struct {
	Level        ErrorLevel
	Context      string // short category, rendered uppercase ("LINK FAILED")
	Problem      string
	Consequence  string
	Suggestions  []string // "did you mean" values
	HelpCommands []string
	NoColor      bool
}

// FormatError renders a message block in the shape every gobis command uses:
// a headline, the consequence if any, then recovery pointers.
//
//	✗ DATASET NOT FOUND: Cannot find dataset '20240115103000123-287'.
//	   Cannot find dataset '20240115103000123-287'.
//
//	   Did you mean: 20240115103000123-281?
//
//	   → Search by name: gobis search <name> --property '$name'
func FormatError(opts ErrorOptions) string {
	symbol, header, body := opts.Level.style()
	hintColor := color.New(color.FgYellow)
	helpColor := color.New(color.FgCyan)
	if opts.NoColor {
		for _, c := range []*color.Color{header, body, hintColor, helpColor} {
			c.DisableColor()
		}
	}

	var b strings.Builder
	if opts.Context != "" {
		header.Fprintf(&b, "%s %s: %s\n", symbol, strings.ToUpper(opts.Context), opts.Problem)
		body.Fprintf(&b, "   %s\n", opts.Problem)
	} else {
		header.Fprintf(&b, "%s %s\n", symbol, opts.Problem)
	}

	if opts.Consequence != "" {
		b.WriteString("\n")
		body.Fprintf(&b, "   %s\n", opts.Consequence)
	}
	if len(opts.Suggestions) > 0 {
		b.WriteString("\n")
		hintColor.Fprintf(&b, "   Did you mean: %s?\n", strings.Join(opts.Suggestions, ", "))
	}
	if len(opts.HelpCommands) > 0 {
		b.WriteString("\n")
		for _, cmd := range opts.HelpCommands {
			helpColor.Fprintf(&b, "   → %s\n", cmd)
		}
	}
	return b.String()
}

// WriteError writes a formatted message block to the writer.
func WriteError(w io.Writer, opts ErrorOptions) {
	fmt.Fprint(w, FormatError(opts))
}

// DatasetNotFoundError renders the standard block for a dataset lookup miss.
func DatasetNotFoundError(id string, suggestions []string, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:       ErrorLevelError,
		Context:     "DATASET NOT FOUND",
		Problem:     fmt.Sprintf("Cannot find dataset '%s'.", id),
		Suggestions: suggestions,
		HelpCommands: []string{
			"Search by name: gobis search <name> --property '$name'",
			"Get help: gobis search --help",
		},
		NoColor: noColor,
	})
}

// ConnectionFailedError renders the standard block for an unreachable server.
func ConnectionFailedError(serverURL string, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:       ErrorLevelError,
		Context:     "CONNECTION FAILED",
		Problem:     fmt.Sprintf("Cannot reach catalog server at %s.", serverURL),
		Consequence: "No catalog operations are possible until the server responds.",
		HelpCommands: []string{
			"Check settings: gobis config show",
			"Reconnect: gobis connect --server <url>",
		},
		NoColor: noColor,
	})
}

// SessionExpiredError renders the standard block for a rejected session token.
func SessionExpiredError(noColor bool) string {
	return FormatError(ErrorOptions{
		Level:       ErrorLevelError,
		Context:     "SESSION EXPIRED",
		Problem:     "The server rejected the session token.",
		Consequence: "A fresh login is required before retrying.",
		HelpCommands: []string{
			"Log in again: gobis connect",
			"Get help: gobis connect --help",
		},
		NoColor: noColor,
	})
}

// LinkFailedError renders the standard block for a failed parent write.
func LinkFailedError(datasetID, parentID string, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:       ErrorLevelError,
		Context:     "LINK FAILED",
		Problem:     fmt.Sprintf("Cannot link '%s' as a parent of '%s'.", parentID, datasetID),
		Consequence: "Parents listed before this one were linked; later ones were not attempted.",
		HelpCommands: []string{
			fmt.Sprintf("Inspect parents: gobis info --dataset %s", datasetID),
			"Get help: gobis link --help",
		},
		NoColor: noColor,
	})
}

// ConfigError renders the standard block for a bad setting or key.
func ConfigError(message string, suggestions []string, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:       ErrorLevelError,
		Context:     "CONFIGURATION ERROR",
		Problem:     message,
		Suggestions: suggestions,
		HelpCommands: []string{
			"View config: gobis config show",
			"Get help: gobis --help",
		},
		NoColor: noColor,
	})
}

// Warning renders a warning block without a category header.
func Warning(message string, suggestions []string, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:       ErrorLevelWarning,
		Problem:     message,
		Suggestions: suggestions,
		NoColor:     noColor,
	})
}

// Info renders an informational one-liner.
func Info(message string, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:   ErrorLevelInfo,
		Problem: message,
		NoColor: noColor,
	})
}
