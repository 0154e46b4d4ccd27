// Package diag implements the structured error/warning reporting used
// across the core, grounded on Kanso's internal/errors package
// (CompilerError + ErrorReporter) but generalized from contract-language
// diagnostics to the middle end's error taxonomy (spec §7).
package diag

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Kind is the error taxonomy of spec §7. KindDepthExceeded is
// deliberately absent: the structurizer handles it internally by
// producing a Dispatch shape rather than surfacing an error value.
type Kind int

const (
	KindInvariant Kind = iota
	KindParse
	KindIO
	KindBudgetExceeded
)

func (k Kind) String() string {
	switch k {
	case KindInvariant:
		return "invariant"
	case KindParse:
		return "parse"
	case KindIO:
		return "io"
	case KindBudgetExceeded:
		return "budget-exceeded"
	default:
		return "unknown"
	}
}

// Error is the core's structured error value. Func, when set, names
// the function the error pertains to (invariant violations, mostly).
type Error struct {
	Kind    Kind
	Message string
	Func    string
	Notes   []string
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Kind, e.Message)
	if e.Func != "" {
		fmt.Fprintf(&b, " (in %s)", e.Func)
	}
	for _, n := range e.Notes {
		fmt.Fprintf(&b, "\n  note: %s", n)
	}
	return b.String()
}

// Invariant builds a KindInvariant error for a named function.
func Invariant(fn, format string, args ...any) *Error {
	return &Error{Kind: KindInvariant, Func: fn, Message: fmt.Sprintf(format, args...)}
}

// BudgetExceeded builds a KindBudgetExceeded error — non-fatal per
// spec §7, surfaced as a warning from the pipeline.
func BudgetExceeded(format string, args ...any) *Error {
	return &Error{Kind: KindBudgetExceeded, Message: fmt.Sprintf(format, args...)}
}

// Render renders an error in Kanso's colored `kind: message`
// style, using fatih/color exactly as internal/errors/reporter.go does
// for its `error[E0001]: ...` diagnostics.
func Render(e *Error) string {
	red := color.New(color.FgRed, color.Bold)
	yellow := color.New(color.FgYellow, color.Bold)
	var tag string
	if e.Kind == KindBudgetExceeded {
		tag = yellow.Sprintf("warning")
	} else {
		tag = red.Sprintf("error")
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%s]: %s", tag, e.Kind, e.Message)
	if e.Func != "" {
		fmt.Fprintf(&b, "\n  --> in %s", e.Func)
	}
	for _, n := range e.Notes {
		fmt.Fprintf(&b, "\n  = note: %s", n)
	}
	return b.String()
}
