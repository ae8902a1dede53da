// Package basics collects the campaign's identity: name, description,
// and priority.
//
// State fields: campaign_name, description, priority. The name feeds the
// live summary line via a not-empty show condition; priority is clamped
// to non-negative integers at validation time.
package basics
