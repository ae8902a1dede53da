package basics

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/webstepper/cyclewiz/internal/binding"
	"github.com/webstepper/cyclewiz/internal/campaign"
	"github.com/webstepper/cyclewiz/internal/dom"
	"github.com/webstepper/cyclewiz/internal/state"
	"github.com/webstepper/cyclewiz/internal/step"
)

const (
	stepName     = "basics"
	actionUpdate = "basics.update"
)

const markup = `<div class="step step-basics">
  <div class="wizard-field wizard-field-campaign_name">
    <label class="field-label">Campaign name<span class="required" aria-hidden="true">*</span></label>
    <input type="text" name="campaign_name" data-field="campaign_name" maxlength="100"
      data-on="input change" data-action="basics.update" data-args='{"field":"campaign_name"}'>
  </div>
  <div class="wizard-field wizard-field-description">
    <label class="field-label">Description</label>
    <textarea name="description" data-field="description"
      data-on="input" data-action="basics.update" data-args='{"field":"description"}'></textarea>
  </div>
  <div class="wizard-field wizard-field-priority">
    <label class="field-label">Priority</label>
    <input type="number" name="priority" data-field="priority" min="0" step="1" inputmode="numeric"
      data-on="change" data-action="basics.update" data-args='{"field":"priority"}'>
  </div>
  <p class="step-summary" data-show-when="campaign_name" data-show-when-operator="not-empty">
    This campaign will appear in the storefront under the name you chose.
  </p>
</div>`

// Step implements the campaign-basics wizard step.
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

// New returns the basics step hooks.
func New() *Step {
	return &Step{}
}

func (s *Step) Info() step.Info {
	return step.Info{
		Name:        stepName,
		Title:       "Campaign basics",
		Description: "Name the campaign and set its priority.",
		Order:       1,
	}
}

func (s *Step) ModulesInit(ctx *step.Context, st *state.Store) (*html.Node, error) {
	fragment, err := dom.ParseFragment(markup)
	if err != nil {
		return nil, fmt.Errorf("basics: render: %w", err)
	}
	if _, ok := ctx.Actions.Lookup(actionUpdate); !ok {
		ctx.Actions.MustRegister(actionUpdate, func(ev *binding.Event, args map[string]any) error {
			field, _ := args["field"].(string)
			if field == "" {
				return fmt.Errorf("basics: update action needs a field argument")
			}
			return st.Set(map[string]any{field: ev.Value})
		})
	}
	return fragment, nil
}

func (s *Step) OnInit(ctx *step.Context, st *state.Store) error {
	if _, ok := st.Get("priority"); !ok {
		return st.Set(map[string]any{"priority": 10})
	}
	return nil
}

func (s *Step) CollectData(st *state.Store) map[string]any {
	data := map[string]any{}
	for _, field := range []string{"campaign_name", "description", "priority"} {
		if v, ok := st.Get(field); ok {
			data[field] = v
		}
	}
	return data
}

func (s *Step) ValidateData(data map[string]any) []step.Issue {
	var issues []step.Issue
	name, _ := data["campaign_name"].(string)
	name = strings.TrimSpace(name)
	if name == "" {
		issues = append(issues, step.Issue{Field: "campaign_name", Message: "Campaign name is required"})
	} else if len(name) > campaign.MaxNameLength {
		issues = append(issues, step.Issue{
			Field:   "campaign_name",
			Message: fmt.Sprintf("Campaign name must stay under %d characters", campaign.MaxNameLength),
		})
	}
	if priority, ok := data["priority"]; ok {
		if value, valid := toNumber(priority); !valid || value < 0 {
			issues = append(issues, step.Issue{Field: "priority", Message: "Priority must be zero or a positive number"})
		}
	}
	return issues
}

func (s *Step) OnDestroy(ctx *step.Context) error {
	return nil
}

func toNumber(v any) (float64, bool) {
	switch typed := v.(type) {
	case float64:
		return typed, true
	case int:
		return float64(typed), true
	case string:
		var parsed float64
		if _, err := fmt.Sscanf(strings.TrimSpace(typed), "%g", &parsed); err == nil {
			return parsed, true
		}
		return 0, false
	default:
		return 0, false
	}
}
