// Package tiers manages the discount tier ladder with repeatable rows.
//
// Rows are rendered from a shared schema (min_quantity, discount_value,
// discount_type), added and removed through bound actions, reindexed
// after every structural change, and collected back into the step state
// under "tiers".
package tiers
