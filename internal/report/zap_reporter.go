package report

import (
	"go.uber.org/zap"
)

// ZapReporter routes reported failures to a zap logger. A nil logger turns
// every call into a no-op, which keeps construction ergonomic in tests.
type ZapReporter struct {
	logger *zap.Logger
}

// NewZapReporter wraps a zap logger in the ErrorReporter contract.
func NewZapReporter(logger *zap.Logger) *ZapReporter {
	return &ZapReporter{logger: logger}
}

// Handle implements ErrorReporter.
func (r *ZapReporter) Handle(err error, context string, severity Severity, fields map[string]any) {
	if r == nil || r.logger == nil {
		return
	}
	zfields := make([]zap.Field, 0, len(fields)+2)
	zfields = append(zfields, zap.String("context", context))
	if err != nil {
		zfields = append(zfields, zap.Error(err))
	}
	for k, v := range fields {
		zfields = append(zfields, zap.Any(k, v))
	}
	switch severity {
	case SeverityWarning:
		r.logger.Warn("recoverable failure", zfields...)
	case SeverityCritical:
		r.logger.Error("critical failure", zfields...)
	default:
		r.logger.Error("failure", zfields...)
	}
}
