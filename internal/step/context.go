package step

import (
	"time"

	"go.uber.org/zap"

	"github.com/webstepper/cyclewiz/internal/binding"
	"github.com/webstepper/cyclewiz/internal/events"
	"github.com/webstepper/cyclewiz/internal/persist"
	"github.com/webstepper/cyclewiz/internal/report"
)

const (
	// DefaultAutosaveDelay is the trailing-edge debounce between the last
	// state change and the autosave write.
	DefaultAutosaveDelay = 2 * time.Second
	// DefaultValidateDelay debounces per-field validation while typing.
	DefaultValidateDelay = 300 * time.Millisecond
)

// Context carries shared runtime dependencies into every step.
type Context struct {
	Reporter    report.ErrorReporter
	Notifier    report.Notifier
	Validation  report.ValidationDisplay
	Persistence persist.Client
	Bus         *events.Bus
	Logger      *zap.Logger
	Actions     *binding.Registry

	AutosaveDelay time.Duration
	ValidateDelay time.Duration
}

// NewContext builds a Context with default debounce timings.
func NewContext(store persist.Client, bus *events.Bus, logger *zap.Logger) *Context {
	return &Context{
		Reporter:      report.NewZapReporter(logger),
		Notifier:      report.NewQueue(),
		Validation:    report.NewFieldMarker(),
		Persistence:   store,
		Bus:           bus,
		Logger:        logger,
		Actions:       binding.NewRegistry(),
		AutosaveDelay: DefaultAutosaveDelay,
		ValidateDelay: DefaultValidateDelay,
	}
}

// WithDelays returns a copy using the given debounce timings. Zero values
// keep the defaults.
func (c *Context) WithDelays(autosave, validate time.Duration) *Context {
	clone := *c
	if autosave > 0 {
		clone.AutosaveDelay = autosave
	}
	if validate > 0 {
		clone.ValidateDelay = validate
	}
	return &clone
}

func (c *Context) autosaveDelay() time.Duration {
	if c.AutosaveDelay > 0 {
		return c.AutosaveDelay
	}
	return DefaultAutosaveDelay
}

func (c *Context) validateDelay() time.Duration {
	if c.ValidateDelay > 0 {
		return c.ValidateDelay
	}
	return DefaultValidateDelay
}
