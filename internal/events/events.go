// Package events carries wizard lifecycle notifications between steps,
// the wizard engine, and the UI shell. Subscribers are keyed by step
// name; events published before a subscriber attaches are buffered and
// replayed on subscription.
package events

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Lifecycle event types published by the framework.
const (
	TypeStepReady     = "step:ready"
	TypeStepDestroyed = "step:destroyed"
	TypeStepChanged   = "wizard:step_changed"
	TypeDataSaved     = "step:data_saved"
	TypeValidation    = "step:validation"
	TypeWizardDone    = "wizard:completed"
	TypeError         = "error"
)

// Event is one lifecycle notification.
type Event struct {
	ID      string
	Step    string
	Type    string
	Time    time.Time
	Payload map[string]any
}

// NewEvent stamps a fresh event for the given step and type.
func NewEvent(step, kind string, payload map[string]any) Event {
	return Event{
		ID:      uuid.NewString(),
		Step:    strings.TrimSpace(step),
		Type:    strings.TrimSpace(kind),
		Time:    time.Now().UTC(),
		Payload: payload,
	}
}
