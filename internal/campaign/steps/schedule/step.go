package schedule

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/webstepper/cyclewiz/internal/binding"
	"github.com/webstepper/cyclewiz/internal/campaign"
	"github.com/webstepper/cyclewiz/internal/dom"
	"github.com/webstepper/cyclewiz/internal/state"
	"github.com/webstepper/cyclewiz/internal/step"
)

const (
	stepName     = "schedule"
	actionUpdate = "schedule.update"
	actionToggle = "schedule.toggle_end"

	// DateLayout is the wire format for schedule dates.
	DateLayout = "2006-01-02"
)

const markup = `<div class="step step-schedule">
  <div class="wizard-field wizard-field-start_date">
    <label class="field-label">Start date<span class="required" aria-hidden="true">*</span></label>
    <input type="text" name="start_date" data-field="start_date" placeholder="2026-03-01"
      data-on="change" data-action="schedule.update" data-args='{"field":"start_date"}'>
  </div>
  <div class="wizard-field wizard-field-has_end">
    <label class="field-label">Campaign ends</label>
    <input type="checkbox" name="has_end" data-field="has_end" value="1"
      data-on="change" data-action="schedule.toggle_end">
  </div>
  <div class="wizard-field wizard-field-end_date">
    <label class="field-label">End date</label>
    <input type="text" name="end_date" data-field="end_date" placeholder="2026-03-31"
      data-enable-when="has_end" data-enable-when-operator="truthy"
      data-on="change" data-action="schedule.update" data-args='{"field":"end_date"}'>
  </div>
  <div class="wizard-field wizard-field-recurrence">
    <label class="field-label">Repeats</label>
    <select name="recurrence" data-field="recurrence"
      data-on="change" data-action="schedule.update" data-args='{"field":"recurrence"}'>
      <option value="none">Does not repeat</option>
      <option value="daily">Daily</option>
      <option value="weekly">Weekly</option>
      <option value="monthly">Monthly</option>
    </select>
  </div>
  <p class="recurrence-note" data-show-when="recurrence" data-show-when-operator="not-equals" data-show-when-value="none">
    Recurring campaigns reactivate after each window closes.
  </p>
</div>`

// Step implements the campaign-schedule wizard step.
type Step struct{}

// Register installs the step factory into the registry.
func Register(reg *step.Registry) {
	if reg == nil {
		return
	}
	reg.MustRegister(stepName, func(*step.Context) (step.Hooks, error) {
		return New(), nil
	})
}

// New returns the schedule step hooks.
func New() *Step {
	return &Step{}
}

func (s *Step) Info() step.Info {
	return step.Info{
		Name:        stepName,
		Title:       "Schedule",
		Description: "Pick when the campaign runs and whether it repeats.",
		Order:       2,
	}
}

func (s *Step) ModulesInit(ctx *step.Context, st *state.Store) (*html.Node, error) {
	fragment, err := dom.ParseFragment(markup)
	if err != nil {
		return nil, fmt.Errorf("schedule: render: %w", err)
	}
	if _, ok := ctx.Actions.Lookup(actionUpdate); !ok {
		ctx.Actions.MustRegister(actionUpdate, func(ev *binding.Event, args map[string]any) error {
			field, _ := args["field"].(string)
			if field == "" {
				return fmt.Errorf("schedule: update action needs a field argument")
			}
			return st.Set(map[string]any{field: ev.Value})
		})
	}
	if _, ok := ctx.Actions.Lookup(actionToggle); !ok {
		ctx.Actions.MustRegister(actionToggle, func(ev *binding.Event, args map[string]any) error {
			enabled := ev.Value == "1" || ev.Value == "true"
			updates := map[string]any{"has_end": enabled}
			if !enabled {
				updates["end_date"] = ""
			}
			return st.SetBatch(updates)
		})
	}
	return fragment, nil
}

func (s *Step) OnInit(ctx *step.Context, st *state.Store) error {
	if _, ok := st.Get("recurrence"); !ok {
		return st.Set(map[string]any{"recurrence": "none"})
	}
	return nil
}

func (s *Step) CollectData(st *state.Store) map[string]any {
	data := map[string]any{}
	for _, field := range []string{"start_date", "end_date", "has_end", "recurrence"} {
		if v, ok := st.Get(field); ok {
			data[field] = v
		}
	}
	return data
}

func (s *Step) ValidateData(data map[string]any) []step.Issue {
	var issues []step.Issue
	start, startErr := parseDate(data["start_date"])
	if startErr != nil {
		issues = append(issues, step.Issue{Field: "start_date", Message: "Start date must look like 2026-03-01"})
	} else if start.IsZero() {
		issues = append(issues, step.Issue{Field: "start_date", Message: "Start date is required"})
	}

	hasEnd := truthy(data["has_end"])
	end, endErr := parseDate(data["end_date"])
	if hasEnd {
		switch {
		case endErr != nil:
			issues = append(issues, step.Issue{Field: "end_date", Message: "End date must look like 2026-03-31"})
		case end.IsZero():
			issues = append(issues, step.Issue{Field: "end_date", Message: "Pick an end date or switch the end off"})
		case !start.IsZero() && !start.Before(end):
			issues = append(issues, step.Issue{Field: "end_date", Message: "End date must come after the start date"})
		}
	}

	cycle, _ := data["recurrence"].(string)
	switch campaign.Cycle(cycle) {
	case "", campaign.CycleNone:
	case campaign.CycleDaily, campaign.CycleWeekly, campaign.CycleMonthly:
		if !hasEnd || end.IsZero() {
			issues = append(issues, step.Issue{Field: "recurrence", Message: "Recurring campaigns need an end date"})
		}
	default:
		issues = append(issues, step.Issue{Field: "recurrence", Message: "Unknown recurrence cycle"})
	}
	return issues
}

func (s *Step) OnDestroy(ctx *step.Context) error {
	return nil
}

// BuildSchedule converts collected step data into the domain schedule.
func BuildSchedule(data map[string]any) campaign.Schedule {
	out := campaign.Schedule{Cycle: campaign.CycleNone}
	if start, err := parseDate(data["start_date"]); err == nil {
		out.Start = start
	}
	if truthy(data["has_end"]) {
		if end, err := parseDate(data["end_date"]); err == nil {
			out.End = end
		}
	}
	if cycle, ok := data["recurrence"].(string); ok && cycle != "" {
		out.Cycle = campaign.Cycle(cycle)
	}
	return out
}

func parseDate(v any) (time.Time, error) {
	raw, _ := v.(string)
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	parsed, err := time.Parse(DateLayout, raw)
	if err != nil {
		return time.Time{}, err
	}
	return parsed.UTC(), nil
}

func truthy(v any) bool {
	switch typed := v.(type) {
	case bool:
		return typed
	case string:
		return typed != "" && typed != "0" && typed != "false"
	case float64:
		return typed != 0
	case int:
		return typed != 0
	default:
		return false
	}
}
