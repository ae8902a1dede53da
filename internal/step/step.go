// Package step runs the lifecycle shared by every wizard step: render a
// fragment, bind actions and UI state to an observable store, autosave
// on change, validate fields, and tear everything down on destroy.
package step

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/webstepper/cyclewiz/internal/state"
)

// Status tracks where a step sits in its lifecycle. Destroyed is terminal.
type Status string

const (
	StatusUninitialized Status = "uninitialized"
	StatusInitialized   Status = "initialized"
	StatusDestroyed     Status = "destroyed"
)

// Info describes a step's identity and position in the wizard.
type Info struct {
	Name        string
	Title       string
	Description string
	Order       int
}

// Validate ensures the info block is well-formed.
func (i Info) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return fmt.Errorf("step: name is required")
	}
	if strings.TrimSpace(i.Title) == "" {
		return fmt.Errorf("step: title is required for %s", i.Name)
	}
	return nil
}

// Issue is one validation finding, addressed to a field when possible.
type Issue struct {
	Field   string
	Message string
}

// Hooks is implemented by every wizard step. Base composes a Hooks
// implementation rather than being embedded by it.
type Hooks interface {
	Info() Info
	// ModulesInit renders the step fragment and wires any step-owned
	// modules. A nil fragment is valid for headless steps.
	ModulesInit(ctx *Context, st *state.Store) (*html.Node, error)
	// OnInit runs after bindings are live, typically seeding defaults.
	OnInit(ctx *Context, st *state.Store) error
	// CollectData reads the step's current data out of its state.
	CollectData(st *state.Store) map[string]any
	// ValidateData checks collected data and returns findings, never panics.
	ValidateData(data map[string]any) []Issue
	// OnDestroy releases step-owned resources.
	OnDestroy(ctx *Context) error
}
