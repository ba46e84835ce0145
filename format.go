package main

import (
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"
)

const (
	minute = 60
	hour   = 60 * minute
	day    = 24 * hour
)

func formatSize(row RowView) string {
	if !row.SizeKnown {
		return "…"
	}
	return humanize.IBytes(row.Size)
}

// formatAge renders an age as 42s, 3min, 5h or 12d. A measurement that
// failed shows as "?"; one still running as "…".
func formatAge(row RowView) string {
	if row.AgeKnown {
		return compactAge(row.Age)
	}
	if row.AgeSettled {
		return "?"
	}
	return "…"
}

func compactAge(seconds uint64) string {
	switch {
	case seconds < minute:
		return fmt.Sprintf("%ds", seconds)
	case seconds < hour:
		return fmt.Sprintf("%dmin", seconds/minute)
	case seconds < day:
		return fmt.Sprintf("%dh", seconds/hour)
	default:
		return fmt.Sprintf("%dd", seconds/day)
	}
}

func statusBadge(status RemovalStatus) string {
	switch status {
	case StatusInProgress:
		return ui.warning.Render("removing")
	case StatusCompleted:
		return ui.accent.Render("removed")
	case StatusFailed:
		return ui.danger.Render("failed")
	default:
		return ""
	}
}

func displayPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return path
	}
	return rel
}
