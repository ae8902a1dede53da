// Package wizard sequences the campaign steps: one active step at a
// time, validation gating every forward move, and progress persisted so
// a session can resume where it stopped.
package wizard

import (
	"fmt"
	"sort"
	"sync"

	"github.com/webstepper/cyclewiz/internal/campaign"
	"github.com/webstepper/cyclewiz/internal/campaign/steps/review"
	"github.com/webstepper/cyclewiz/internal/events"
	"github.com/webstepper/cyclewiz/internal/persist"
	"github.com/webstepper/cyclewiz/internal/step"
)

// Wizard drives registered steps in Info.Order. Moving forward requires
// the active step to validate cleanly; moving back never does.
type Wizard struct {
	registry *step.Registry
	ctx      *step.Context

	mu        sync.Mutex
	order     []step.Info
	current   int
	active    *step.Base
	completed map[string]bool
	started   bool
}

// New builds a wizard over the registry's steps. The registry must hold
// at least one step.
func New(registry *step.Registry, ctx *step.Context) (*Wizard, error) {
	if registry == nil || ctx == nil {
		return nil, fmt.Errorf("wizard: registry and context are required")
	}
	names := registry.Names()
	if len(names) == 0 {
		return nil, fmt.Errorf("wizard: no steps registered")
	}
	infos := make([]step.Info, 0, len(names))
	for _, name := range names {
		base, err := registry.Resolve(name, ctx)
		if err != nil {
			return nil, fmt.Errorf("wizard: resolve %s: %w", name, err)
		}
		infos = append(infos, base.Info())
	}
	sort.SliceStable(infos, func(i, j int) bool { return infos[i].Order < infos[j].Order })
	return &Wizard{
		registry:  registry,
		ctx:       ctx,
		order:     infos,
		completed: map[string]bool{},
	}, nil
}

// Steps returns the step infos in wizard order.
func (w *Wizard) Steps() []step.Info {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]step.Info(nil), w.order...)
}

// Current returns the active step, nil before Start.
func (w *Wizard) Current() *step.Base {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.active
}

// CurrentIndex returns the active step's position in wizard order.
func (w *Wizard) CurrentIndex() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Completed reports whether the named step has been passed.
func (w *Wizard) Completed(name string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.completed[name]
}

// Start activates the first step, or the step a previous session stopped
// at when saved progress exists.
func (w *Wizard) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil
	}
	w.current = 0
	if w.ctx.Persistence != nil {
		progress, ok, err := w.ctx.Persistence.LoadProgress()
		if err != nil {
			return fmt.Errorf("wizard: load progress: %w", err)
		}
		if ok {
			for _, name := range progress.Completed {
				w.completed[name] = true
			}
			if index := w.indexOf(progress.CurrentStep); index >= 0 {
				w.current = index
			}
		}
	}
	if err := w.activateLocked(w.current); err != nil {
		return err
	}
	w.started = true
	return nil
}

// Next validates the active step. With findings it stays put and returns
// them; with a clean step it saves, records completion, and activates the
// following step. On the last step a clean Next is a no-op apart from
// saving.
func (w *Wizard) Next() ([]step.Issue, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.active == nil {
		return nil, fmt.Errorf("wizard: not started")
	}
	issues := w.active.ValidateStep()
	if len(issues) > 0 {
		return issues, nil
	}
	if err := w.active.Save(); err != nil {
		return nil, err
	}
	name := w.active.Name()
	w.completed[name] = true
	if w.current == len(w.order)-1 {
		return nil, w.saveProgressLocked()
	}
	if err := w.moveLocked(w.current + 1); err != nil {
		return nil, err
	}
	return nil, nil
}

// Back saves the active step without validating and activates the
// previous one. On the first step it is a no-op.
func (w *Wizard) Back() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.active == nil {
		return fmt.Errorf("wizard: not started")
	}
	if w.current == 0 {
		return nil
	}
	if err := w.active.Save(); err != nil {
		return err
	}
	return w.moveLocked(w.current - 1)
}

// Finish runs on the last step: validate it, assemble the campaign from
// the saved step data, and run the full domain validation. Findings
// block completion.
func (w *Wizard) Finish() (*campaign.Campaign, []step.Issue, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.active == nil {
		return nil, nil, fmt.Errorf("wizard: not started")
	}
	if w.current != len(w.order)-1 {
		return nil, nil, fmt.Errorf("wizard: finish is only valid on the last step")
	}
	if issues := w.active.ValidateStep(); len(issues) > 0 {
		return nil, issues, nil
	}
	if err := w.active.Save(); err != nil {
		return nil, nil, err
	}
	assembled, err := review.Assemble(w.ctx.Persistence)
	if err != nil {
		return nil, nil, err
	}
	if findings := campaign.Validate(assembled); len(findings) > 0 {
		issues := make([]step.Issue, 0, len(findings))
		for _, finding := range findings {
			issues = append(issues, step.Issue{Message: finding.Error()})
		}
		return nil, issues, nil
	}
	w.completed[w.active.Name()] = true
	if err := w.saveProgressLocked(); err != nil {
		return nil, nil, err
	}
	if w.ctx.Bus != nil {
		w.ctx.Bus.Publish(events.NewEvent(w.active.Name(), events.TypeWizardDone, map[string]any{
			"campaign_id": assembled.ID,
		}))
	}
	return assembled, nil, nil
}

// Close destroys the active step and saves progress.
func (w *Wizard) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.active == nil {
		return nil
	}
	err := w.active.Destroy()
	w.active = nil
	if saveErr := w.saveProgressLocked(); err == nil {
		err = saveErr
	}
	return err
}

func (w *Wizard) moveLocked(index int) error {
	from := w.order[w.current].Name
	if w.active != nil {
		if err := w.active.Destroy(); err != nil {
			return err
		}
		w.active = nil
	}
	if err := w.activateLocked(index); err != nil {
		return err
	}
	w.current = index
	if err := w.saveProgressLocked(); err != nil {
		return err
	}
	if w.ctx.Bus != nil {
		w.ctx.Bus.Publish(events.NewEvent(w.order[index].Name, events.TypeStepChanged, map[string]any{
			"from": from,
			"to":   w.order[index].Name,
		}))
	}
	return nil
}

func (w *Wizard) activateLocked(index int) error {
	if index < 0 || index >= len(w.order) {
		return fmt.Errorf("wizard: step index %d out of range", index)
	}
	name := w.order[index].Name
	base, err := w.registry.Resolve(name, w.ctx)
	if err != nil {
		return fmt.Errorf("wizard: resolve %s: %w", name, err)
	}
	if err := base.Init(); err != nil {
		return err
	}
	w.active = base
	w.current = index
	return nil
}

func (w *Wizard) saveProgressLocked() error {
	if w.ctx.Persistence == nil {
		return nil
	}
	completed := make([]string, 0, len(w.completed))
	for _, info := range w.order {
		if w.completed[info.Name] {
			completed = append(completed, info.Name)
		}
	}
	progress := persist.Progress{
		CurrentStep: w.order[w.current].Name,
		Completed:   completed,
	}
	if err := w.ctx.Persistence.SaveProgress(progress); err != nil {
		return fmt.Errorf("wizard: save progress: %w", err)
	}
	return nil
}

func (w *Wizard) indexOf(name string) int {
	for i, info := range w.order {
		if info.Name == name {
			return i
		}
	}
	return -1
}
