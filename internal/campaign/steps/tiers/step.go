package tiers

import (
	"fmt"
	"strconv"

	"golang.org/x/net/html"

	"github.com/webstepper/cyclewiz/internal/binding"
	"github.com/webstepper/cyclewiz/internal/campaign"
	"github.com/webstepper/cyclewiz/internal/dom"
	"github.com/webstepper/cyclewiz/internal/rows"
	"github.com/webstepper/cyclewiz/internal/state"
	"github.com/webstepper/cyclewiz/internal/step"
)

const (
	stepName     = "tiers"
	actionAdd    = "tiers.add"
	actionRemove = "tiers.remove"
	actionEdit   = "tiers.edit"
)

const markup = `<div class="step step-tiers">
  <div class="tier-rows"></div>
  <button type="button" class="js-add-tier" data-on="click" data-action="tiers.add">Add tier</button>
  <p class="tier-hint" data-show-when="tiers" data-show-when-operator="empty">
    Add at least one tier to give the campaign something to sell.
  </p>
</div>`

// DefaultRowConfig is the stock tier row: quantity threshold, value, and
// discount kind. Plugins may swap in an extended schema.
func DefaultRowConfig() rows.RowConfig {
	min1 := 1.0
	zero := 0.0
	hundredth := 0.01
	return rows.RowConfig{
		Fields: []rows.FieldSchema{
			{
				Name:     "min_quantity",
				Type:     rows.FieldNumber,
				Label:    "Minimum quantity",
				Required: true,
				Min:      &min1,
				Step:     &min1,
			},
			{
				Name:  "discount_value",
				Type:  rows.FieldNumber,
				Label: "Discount value",
				Min:   &zero,
				Step:  &hundredth,
			},
			{
				Name:  "discount_type",
				Type:  rows.FieldSelect,
				Label: "Type",
				Options: []rows.SelectOption{
					{Value: string(campaign.DiscountPercentage), Label: "Percentage"},
					{Value: string(campaign.DiscountFixed), Label: "Fixed amount"},
				},
			},
		},
		Removable:    true,
		RemoveAction: actionRemove,
		RemoveLabel:  "Remove tier",
	}
}

// Option customizes the tiers step.
type Option func(*Step)

// WithRowConfig swaps the row schema, typically for a plugin-provided one.
func WithRowConfig(cfg rows.RowConfig) Option {
	return func(s *Step) {
		s.config = cfg
	}
}

// Step implements the discount-tiers wizard step.
type Step struct {
	config    rows.RowConfig
	factory   *rows.Factory
	container *html.Node
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

// RegisterWithConfig installs the step factory using a custom row schema.
func RegisterWithConfig(reg *step.Registry, cfg rows.RowConfig) {
	if reg == nil {
		return
	}
	reg.MustRegister(stepName, func(*step.Context) (step.Hooks, error) {
		return New(WithRowConfig(cfg)), nil
	})
}

// New returns the tiers step hooks.
func New(opts ...Option) *Step {
	s := &Step{config: DefaultRowConfig()}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *Step) Info() step.Info {
	return step.Info{
		Name:        stepName,
		Title:       "Discount tiers",
		Description: "Build the quantity ladder and its discounts.",
		Order:       3,
	}
}

func (s *Step) ModulesInit(ctx *step.Context, st *state.Store) (*html.Node, error) {
	fragment, err := dom.ParseFragment(markup)
	if err != nil {
		return nil, fmt.Errorf("tiers: render: %w", err)
	}
	s.factory = rows.NewFactory(ctx.Reporter)
	s.container = dom.First(fragment, ".tier-rows")
	if s.container == nil {
		return nil, fmt.Errorf("tiers: row container missing")
	}

	// Restore persisted rows, or seed one blank exemplar so delegated
	// selectors exist for rows added later.
	records := recordsFrom(stateValue(st))
	if len(records) == 0 {
		records = []map[string]any{nil}
	}
	for _, row := range s.factory.CreateMultiple(s.config, records) {
		s.annotate(row)
		s.container.AppendChild(row)
	}

	s.registerActions(ctx, st)
	return fragment, nil
}

func (s *Step) registerActions(ctx *step.Context, st *state.Store) {
	if _, ok := ctx.Actions.Lookup(actionAdd); !ok {
		ctx.Actions.MustRegister(actionAdd, func(ev *binding.Event, args map[string]any) error {
			count := len(dom.Select(s.container, "."+s.rowClass()))
			row := s.factory.Create(s.config, nil, count)
			s.annotate(row)
			s.container.AppendChild(row)
			return s.sync(st)
		})
	}
	if _, ok := ctx.Actions.Lookup(actionRemove); !ok {
		ctx.Actions.MustRegister(actionRemove, func(ev *binding.Event, args map[string]any) error {
			row := dom.Closest(ev.Target, s.container, "."+s.rowClass())
			if row == nil {
				return fmt.Errorf("tiers: remove target is not inside a row")
			}
			dom.Detach(row)
			return s.sync(st)
		})
	}
	if _, ok := ctx.Actions.Lookup(actionEdit); !ok {
		ctx.Actions.MustRegister(actionEdit, func(ev *binding.Event, args map[string]any) error {
			control := dom.Closest(ev.Target, s.container, "[data-field]")
			if control == nil {
				return fmt.Errorf("tiers: edit target has no field")
			}
			setControlValue(control, ev.Value)
			return s.sync(st)
		})
	}
}

func (s *Step) OnInit(ctx *step.Context, st *state.Store) error {
	return nil
}

func (s *Step) CollectData(st *state.Store) map[string]any {
	if tiers, ok := st.Get("tiers"); ok {
		return map[string]any{"tiers": tiers}
	}
	return map[string]any{}
}

func (s *Step) ValidateData(data map[string]any) []step.Issue {
	records := recordsFrom(data["tiers"])
	ladder := make([]campaign.DiscountTier, 0, len(records))
	for _, record := range records {
		ladder = append(ladder, campaign.TierFromRecord(record))
	}
	var issues []step.Issue
	for _, err := range campaign.ValidateTiers(ladder) {
		issues = append(issues, step.Issue{Field: "tiers", Message: err.Error()})
	}
	return issues
}

func (s *Step) OnDestroy(ctx *step.Context) error {
	return nil
}

// sync reindexes the surviving rows, collects the ladder, and writes it
// into the step state in one batch.
func (s *Step) sync(st *state.Store) error {
	s.factory.Reindex(s.container, "."+s.rowClass())
	records := s.factory.CollectData(s.container, "."+s.rowClass())
	ladder := make([]any, len(records))
	for i, record := range records {
		ladder[i] = record
	}
	return st.SetBatch(map[string]any{"tiers": ladder})
}

func (s *Step) rowClass() string {
	if s.config.RowClass != "" {
		return s.config.RowClass
	}
	return rows.DefaultRowClass
}

// annotate wires every field control in a generated row to the edit
// action so a change anywhere in the ladder resyncs the state.
func (s *Step) annotate(row *html.Node) {
	for _, control := range dom.FindByAttr(row, rows.AttrField) {
		dom.SetAttr(control, binding.AttrOn, "change")
		dom.SetAttr(control, binding.AttrAction, actionEdit)
	}
}

func stateValue(st *state.Store) any {
	if v, ok := st.Get("tiers"); ok {
		return v
	}
	return nil
}

func recordsFrom(v any) []map[string]any {
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

func setControlValue(control *html.Node, value any) {
	switch control.Data {
	case "select":
		want := fmt.Sprint(value)
		for child := control.FirstChild; child != nil; child = child.NextSibling {
			if child.Type != html.ElementNode || child.Data != "option" {
				continue
			}
			if dom.AttrOr(child, "value", "") == want {
				dom.SetAttr(child, "selected", "selected")
			} else {
				dom.RemoveAttr(child, "selected")
			}
		}
	case "textarea":
		dom.SetText(control, fmt.Sprint(value))
	default:
		if dom.AttrOr(control, "type", "") == "checkbox" {
			if truthy(value) {
				dom.SetAttr(control, "checked", "checked")
			} else {
				dom.RemoveAttr(control, "checked")
			}
			return
		}
		dom.SetAttr(control, "value", formatValue(value))
	}
}

func formatValue(v any) string {
	switch typed := v.(type) {
	case nil:
		return ""
	case string:
		return typed
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case int:
		return strconv.Itoa(typed)
	default:
		return fmt.Sprint(typed)
	}
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
