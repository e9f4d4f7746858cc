// Package ui renders the hut availability front end. The concrete
// toolkit sits behind the Toolkit interface and is selected exactly once
// at startup; nothing branches on the toolkit name afterwards.
package ui

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/kofflo/chamannas/internal/model"
)

// Toolkit is one front-end variant: the interactive terminal UI, the
// plain console renderer, or the machine-readable JSON emitter.
type Toolkit interface {
	// Name identifies the toolkit in logs and preferences.
	Name() string

	// Run drives the front end until the user is done. It refreshes
	// availability through the model as needed and must return when ctx
	// is canceled.
	Run(ctx context.Context, m *model.Model) error
}

// Toolkit names accepted in configuration.
const (
	ToolkitAuto    = "auto"
	ToolkitTUI     = "tui"
	ToolkitConsole = "console"
	ToolkitJSON    = "json"
)

// Select resolves a toolkit name to a variant. "auto" picks the
// interactive TUI on a terminal and the console renderer otherwise.
func Select(name string) (Toolkit, error) {
	switch name {
	case ToolkitAuto, "":
		if term.IsTerminal(int(os.Stdout.Fd())) {
			return NewTUI(), nil
		}
		return NewConsole(os.Stdout), nil
	case ToolkitTUI:
		return NewTUI(), nil
	case ToolkitConsole:
		return NewConsole(os.Stdout), nil
	case ToolkitJSON:
		return NewJSON(os.Stdout), nil
	}
	return nil, fmt.Errorf("unknown toolkit %q", name)
}
