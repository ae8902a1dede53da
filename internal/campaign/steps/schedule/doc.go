// Package schedule collects the campaign's active window and recurrence.
//
// State fields: start_date, end_date, has_end, recurrence. Dates travel
// as "2006-01-02" strings; the end-date input stays disabled until
// has_end is set, and recurring cycles require an end date.
package schedule
