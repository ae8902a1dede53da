// Package report defines the collaborator surfaces the wizard framework
// fails through: error reporting, user notifications, and field-level
// validation messages. Library code never lets a single bad element or
// handler abort a bulk operation; it routes the failure here and moves on.
package report

import (
	"time"
)

// Severity classifies a reported problem.
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// ErrorReporter receives every recoverable failure. Implementations must
// never panic and always return.
type ErrorReporter interface {
	Handle(err error, context string, severity Severity, fields map[string]any)
}

// Kind classifies a user-facing notice.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindWarning Kind = "warning"
	KindInfo    Kind = "info"
)

// Notice is one queued user-facing message.
type Notice struct {
	Message   string
	Kind      Kind
	Duration  time.Duration
	CreatedAt time.Time
}

// Notifier shows user-facing messages. The framework only enqueues; the
// front end decides how and when to present them.
type Notifier interface {
	Show(message string, kind Kind, duration time.Duration)
	Success(message string)
	Error(message string)
	Warning(message string)
	Info(message string)
}
