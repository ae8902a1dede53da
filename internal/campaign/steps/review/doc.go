// Package review assembles the campaign from the saved step data,
// renders a read-only summary, and runs the full domain validation
// before the wizard finishes.
package review
