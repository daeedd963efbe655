package ui

import "time"

// UI-wide constants to avoid magic numbers/strings scattered across the codebase.

// Answers recognized at prompts, compared case-insensitively
const (
	QuitAnswer = "q"
	YesAnswer  = "y"
)

// Text fragments
const (
	MiddleDotSeparator  = " · "
	DashPlaceholder     = "—"
	ProgressLabelFormat = "%d%%"
	FormatLineFormat    = "%d: %s\n"
	ClearLine           = "\r\033[K"
)

// Progress calculation constants
const (
	MaxProgressPercent  = 100
	MinProgressPercent  = 1
	RoundingCoefficient = 0.5
)

// Debounce durations
const (
	ProgressRedrawDebounce = 100 * time.Millisecond
)
