// Package ui styles terminal output with lipgloss.
//
// A [Reporter] consumes the [tasks.ProgressUpdate] channel of a run and prints one coloured
// line per event: the search, skipped tracks, and each finished pipeline. Fetch and play
// events are only shown in verbose mode.
//
// Colours are dropped automatically when the output is not a terminal.
package ui
