package review

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/webstepper/cyclewiz/internal/binding"
	"github.com/webstepper/cyclewiz/internal/campaign"
	"github.com/webstepper/cyclewiz/internal/campaign/steps/schedule"
	"github.com/webstepper/cyclewiz/internal/dom"
	"github.com/webstepper/cyclewiz/internal/persist"
	"github.com/webstepper/cyclewiz/internal/state"
	"github.com/webstepper/cyclewiz/internal/step"
)

const (
	stepName      = "review"
	actionConfirm = "review.confirm"
)

const markup = `<div class="step step-review">
  <h2 class="review-name"></h2>
  <dl class="review-summary">
    <dt>Status</dt><dd class="review-status"></dd>
    <dt>Window</dt><dd class="review-window"></dd>
    <dt>Tiers</dt><dd class="review-tiers"></dd>
  </dl>
  <p class="review-warning" data-show-when="issue_count" data-show-when-operator="greater-than" data-show-when-value="0">
    Fix the highlighted problems before launching.
  </p>
  <button type="button" class="js-confirm" data-on="click" data-action="review.confirm"
    data-disable-when="issue_count" data-disable-when-operator="greater-than" data-disable-when-value="0">
    Confirm campaign
  </button>
</div>`

// Step implements the review wizard step.
type Step struct {
	now func() time.Time
}

// Register installs the step factory into the registry.
func Register(reg *step.Registry) {
	if reg == nil {
		return
	}
	reg.MustRegister(stepName, func(*step.Context) (step.Hooks, error) {
		return New(), nil
	})
}

// New returns the review step hooks.
func New() *Step {
	return &Step{now: time.Now}
}

func (s *Step) Info() step.Info {
	return step.Info{
		Name:        stepName,
		Title:       "Review",
		Description: "Check the assembled campaign and confirm it.",
		Order:       4,
	}
}

// Assemble builds the campaign from the data the earlier steps saved.
func Assemble(store persist.Client) (*campaign.Campaign, error) {
	if store == nil {
		return nil, fmt.Errorf("review: persistence is required")
	}
	basics, _, err := store.LoadStepData("basics")
	if err != nil {
		return nil, fmt.Errorf("review: load basics: %w", err)
	}
	scheduleData, _, err := store.LoadStepData("schedule")
	if err != nil {
		return nil, fmt.Errorf("review: load schedule: %w", err)
	}
	tiersData, _, err := store.LoadStepData("tiers")
	if err != nil {
		return nil, fmt.Errorf("review: load tiers: %w", err)
	}

	name, _ := basics["campaign_name"].(string)
	c := campaign.New(name)
	if description, ok := basics["description"].(string); ok {
		c.Description = description
	}
	if priority, ok := basics["priority"]; ok {
		c.Priority = int(coerceFloat(priority))
	}
	c.Schedule = schedule.BuildSchedule(scheduleData)
	for _, record := range records(tiersData["tiers"]) {
		c.Tiers = append(c.Tiers, campaign.TierFromRecord(record))
	}
	campaign.SortTiers(c.Tiers)
	return c, nil
}

// SummaryFragment renders the read-only campaign summary markup. A nil now
// falls back to the wall clock.
func SummaryFragment(c *campaign.Campaign, now func() time.Time) (*html.Node, error) {
	fragment, err := dom.ParseFragment(markup)
	if err != nil {
		return nil, fmt.Errorf("review: render: %w", err)
	}
	if now == nil {
		now = time.Now
	}
	dom.SetText(dom.First(fragment, ".review-name"), displayName(c.Name))
	dom.SetText(dom.First(fragment, ".review-status"), string(c.StatusAt(now())))
	dom.SetText(dom.First(fragment, ".review-window"), windowText(c.Schedule))
	dom.SetText(dom.First(fragment, ".review-tiers"), fmt.Sprintf("%d tier(s)", len(c.Tiers)))
	return fragment, nil
}

func (s *Step) ModulesInit(ctx *step.Context, st *state.Store) (*html.Node, error) {
	assembled, err := Assemble(ctx.Persistence)
	if err != nil {
		return nil, err
	}
	findings := campaign.Validate(assembled)

	fragment, err := SummaryFragment(assembled, s.now)
	if err != nil {
		return nil, err
	}

	if _, ok := ctx.Actions.Lookup(actionConfirm); !ok {
		ctx.Actions.MustRegister(actionConfirm, func(ev *binding.Event, args map[string]any) error {
			return st.Set(map[string]any{"confirmed": true})
		})
	}

	return fragment, st.SetBatch(map[string]any{
		"campaign_name": assembled.Name,
		"issue_count":   len(findings),
		"issues":        findingMessages(findings),
		"confirmed":     false,
	})
}

func (s *Step) OnInit(ctx *step.Context, st *state.Store) error {
	return nil
}

func (s *Step) CollectData(st *state.Store) map[string]any {
	data := map[string]any{}
	for _, field := range []string{"confirmed", "issue_count"} {
		if v, ok := st.Get(field); ok {
			data[field] = v
		}
	}
	return data
}

func (s *Step) ValidateData(data map[string]any) []step.Issue {
	var issues []step.Issue
	if count := int(coerceFloat(data["issue_count"])); count > 0 {
		issues = append(issues, step.Issue{Message: fmt.Sprintf("%d problem(s) remain in earlier steps", count)})
	}
	if confirmed, _ := data["confirmed"].(bool); !confirmed {
		issues = append(issues, step.Issue{Message: "Confirm the campaign to finish"})
	}
	return issues
}

func (s *Step) OnDestroy(ctx *step.Context) error {
	return nil
}

func displayName(name string) string {
	if strings.TrimSpace(name) == "" {
		return "Untitled campaign"
	}
	return name
}

func windowText(sched campaign.Schedule) string {
	if sched.Start.IsZero() {
		return "not scheduled"
	}
	start := sched.Start.Format(schedule.DateLayout)
	if sched.End.IsZero() {
		return start + " onward"
	}
	text := start + " to " + sched.End.Format(schedule.DateLayout)
	if sched.Cycle != "" && sched.Cycle != campaign.CycleNone {
		text += ", repeats " + string(sched.Cycle)
	}
	return text
}

func findingMessages(errs []error) []any {
	out := make([]any, 0, len(errs))
	for _, err := range errs {
		out = append(out, err.Error())
	}
	return out
}

func records(v any) []map[string]any {
	switch typed := v.(type) {
	case []map[string]any:
		return typed
	case []any:
		out := make([]map[string]any, 0, len(typed))
		for _, item := range typed {
			if record, ok := item.(map[string]any); ok {
				out = append(out, record)
			}
		}
		return out
	default:
		return nil
	}
}

func coerceFloat(v any) float64 {
	switch typed := v.(type) {
	case float64:
		return typed
	case int:
		return float64(typed)
	default:
		return 0
	}
}
