// Package campaign holds the discount campaign domain model shared by
// the wizard steps, validation, and preview rendering.
package campaign

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DiscountType says how a tier's value is applied.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// Status reflects where a campaign sits relative to its schedule.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusScheduled Status = "scheduled"
	StatusActive    Status = "active"
	StatusExpired   Status = "expired"
)

// Cycle describes how a schedule repeats after its window closes.
type Cycle string

const (
	CycleNone    Cycle = "none"
	CycleDaily   Cycle = "daily"
	CycleWeekly  Cycle = "weekly"
	CycleMonthly Cycle = "monthly"
)

// DiscountTier grants a discount once the cart reaches MinQuantity.
type DiscountTier struct {
	MinQuantity int          `json:"min_quantity" yaml:"min_quantity"`
	Value       float64      `json:"value" yaml:"value"`
	Type        DiscountType `json:"type" yaml:"type"`
}

// Schedule is the campaign's active window plus an optional recurrence.
type Schedule struct {
	Start time.Time `json:"start" yaml:"start"`
	End   time.Time `json:"end" yaml:"end"`
	Cycle Cycle     `json:"cycle,omitempty" yaml:"cycle,omitempty"`
}

// Duration returns the length of one active window, zero when the
// schedule is open-ended or unset.
func (s Schedule) Duration() time.Duration {
	if s.Start.IsZero() || s.End.IsZero() {
		return 0
	}
	if d := s.End.Sub(s.Start); d > 0 {
		return d
	}
	return 0
}

// Campaign is one configured discount campaign.
type Campaign struct {
	ID          string         `json:"id" yaml:"id"`
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Priority    int            `json:"priority" yaml:"priority"`
	Schedule    Schedule       `json:"schedule" yaml:"schedule"`
	Tiers       []DiscountTier `json:"tiers" yaml:"tiers"`
	CreatedAt   time.Time      `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" yaml:"updated_at"`
}

// New returns a draft campaign with a fresh identifier.
func New(name string) *Campaign {
	now := time.Now().UTC()
	return &Campaign{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(name),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// StatusAt derives the campaign status from its schedule at the given
// instant. A campaign without a schedule stays a draft.
func (c *Campaign) StatusAt(now time.Time) Status {
	if c == nil || c.Schedule.Start.IsZero() {
		return StatusDraft
	}
	if now.Before(c.Schedule.Start) {
		return StatusScheduled
	}
	if c.Schedule.End.IsZero() || now.Before(c.Schedule.End) {
		return StatusActive
	}
	if c.Schedule.Cycle != "" && c.Schedule.Cycle != CycleNone {
		return StatusScheduled
	}
	return StatusExpired
}

// MaxNameLength bounds campaign names, matching the storefront column.
const MaxNameLength = 100

// Validate checks the campaign against domain rules and returns every
// finding rather than stopping at the first.
func Validate(c *Campaign) []error {
	var errs []error
	if c == nil {
		return []error{fmt.Errorf("campaign is nil")}
	}
	if strings.TrimSpace(c.Name) == "" {
		errs = append(errs, fmt.Errorf("name is required"))
	} else if len(c.Name) > MaxNameLength {
		errs = append(errs, fmt.Errorf("name exceeds %d characters", MaxNameLength))
	}
	if c.Priority < 0 {
		errs = append(errs, fmt.Errorf("priority must be >= 0"))
	}
	errs = append(errs, validateSchedule(c.Schedule)...)
	errs = append(errs, ValidateTiers(c.Tiers)...)
	return errs
}

func validateSchedule(s Schedule) []error {
	var errs []error
	if s.Start.IsZero() {
		errs = append(errs, fmt.Errorf("schedule start is required"))
	}
	if !s.Start.IsZero() && !s.End.IsZero() && !s.Start.Before(s.End) {
		errs = append(errs, fmt.Errorf("schedule start must be before end"))
	}
	switch s.Cycle {
	case "", CycleNone, CycleDaily, CycleWeekly, CycleMonthly:
	default:
		errs = append(errs, fmt.Errorf("unknown schedule cycle %q", s.Cycle))
	}
	if s.Cycle != "" && s.Cycle != CycleNone && s.End.IsZero() {
		errs = append(errs, fmt.Errorf("recurring schedules need an end"))
	}
	return errs
}

// ValidateTiers checks the tier ladder: at least one tier, quantities
// strictly increasing, values positive and percentages within bounds.
func ValidateTiers(tiers []DiscountTier) []error {
	var errs []error
	if len(tiers) == 0 {
		errs = append(errs, fmt.Errorf("at least one discount tier is required"))
		return errs
	}
	for index, tier := range tiers {
		if tier.MinQuantity < 1 {
			errs = append(errs, fmt.Errorf("tiers[%d].min_quantity must be >= 1", index))
		}
		switch tier.Type {
		case DiscountPercentage:
			if tier.Value <= 0 || tier.Value > 100 {
				errs = append(errs, fmt.Errorf("tiers[%d].value must be within (0, 100] percent", index))
			}
		case DiscountFixed:
			if tier.Value <= 0 {
				errs = append(errs, fmt.Errorf("tiers[%d].value must be > 0", index))
			}
		case "":
			errs = append(errs, fmt.Errorf("tiers[%d].type is required", index))
		default:
			errs = append(errs, fmt.Errorf("tiers[%d].type %q is unknown", index, tier.Type))
		}
		if index > 0 && tiers[index-1].MinQuantity >= tier.MinQuantity {
			errs = append(errs, fmt.Errorf("tiers[%d].min_quantity must exceed tiers[%d]", index, index-1))
		}
	}
	return errs
}

// SortTiers orders tiers by ascending minimum quantity in place.
func SortTiers(tiers []DiscountTier) {
	sort.SliceStable(tiers, func(i, j int) bool {
		return tiers[i].MinQuantity < tiers[j].MinQuantity
	})
}

// TierFromRecord converts a collected row record into a tier. Missing or
// unparsable values come back as zero values so validation can name them.
func TierFromRecord(record map[string]any) DiscountTier {
	tier := DiscountTier{
		MinQuantity: int(coerceFloat(record["min_quantity"])),
		Value:       coerceFloat(record["discount_value"]),
	}
	switch kind, _ := record["discount_type"].(string); kind {
	case string(DiscountFixed):
		tier.Type = DiscountFixed
	case string(DiscountPercentage), "":
		tier.Type = DiscountPercentage
	default:
		tier.Type = DiscountType(kind)
	}
	return tier
}

// Record flattens a tier back into the shape row collection produces.
func (t DiscountTier) Record() map[string]any {
	return map[string]any{
		"min_quantity":   t.MinQuantity,
		"discount_value": t.Value,
		"discount_type":  string(t.Type),
	}
}

func coerceFloat(v any) float64 {
	switch typed := v.(type) {
	case float64:
		return typed
	case float32:
		return float64(typed)
	case int:
		return float64(typed)
	case int64:
		return float64(typed)
	case string:
		var parsed float64
		if _, err := fmt.Sscanf(strings.TrimSpace(typed), "%g", &parsed); err == nil {
			return parsed
		}
		return 0
	case nil:
		return 0
	default:
		return 0
	}
}

// Savings estimates the discount a cart of quantity items at unitPrice
// receives under the best matching tier.
func (c *Campaign) Savings(quantity int, unitPrice float64) float64 {
	if c == nil {
		return 0
	}
	best := -1
	for index, tier := range c.Tiers {
		if quantity >= tier.MinQuantity {
			if best < 0 || tier.MinQuantity > c.Tiers[best].MinQuantity {
				best = index
			}
		}
	}
	if best < 0 {
		return 0
	}
	tier := c.Tiers[best]
	subtotal := float64(quantity) * unitPrice
	switch tier.Type {
	case DiscountPercentage:
		return roundCents(subtotal * tier.Value / 100)
	case DiscountFixed:
		return math.Min(roundCents(tier.Value*float64(quantity)), subtotal)
	default:
		return 0
	}
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
