// Package persist stores per-step wizard data and overall progress so
// an interrupted session can resume where it left off.
package persist

import (
	"time"
)

// Progress records where a wizard session currently stands.
type Progress struct {
	CampaignID  string    `json:"campaign_id,omitempty"`
	CurrentStep string    `json:"current_step"`
	Completed   []string  `json:"completed,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Client saves and restores step data and progress. Load methods report
// absence with a false second return rather than an error.
type Client interface {
	SaveStepData(step string, data map[string]any) error
	LoadStepData(step string) (map[string]any, bool, error)
	SaveProgress(p Progress) error
	LoadProgress() (Progress, bool, error)
}
