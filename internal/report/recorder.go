package report

import "sync"

// Recorded is one captured reporter invocation.
type Recorded struct {
	Err      error
	Context  string
	Severity Severity
	Fields   map[string]any
}

// Recorder is an ErrorReporter that captures calls for inspection. Tests
// across the framework packages share it instead of re-declaring fakes.
type Recorder struct {
	mu    sync.Mutex
	calls []Recorded
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Handle implements ErrorReporter.
func (r *Recorder) Handle(err error, context string, severity Severity, fields map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Recorded{Err: err, Context: context, Severity: severity, Fields: fields})
}

// Calls returns a copy of every captured invocation.
func (r *Recorder) Calls() []Recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Recorded(nil), r.calls...)
}

// Count returns how many failures were reported.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}
