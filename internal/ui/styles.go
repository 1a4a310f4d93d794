package ui

import "fmt"

// ANSI256 color codes for event stream output.
const (
	colorServed    = 114 // green
	colorRefilled  = 74  // blue
	colorAttention = 203 // red
	colorWarn      = 179 // yellow
	colorMuted     = 245 // medium gray
)

var noColor bool

// RenderAction colors an action name. Priority actions stand out; routine
// heartbeats stay muted.
func RenderAction(action string) string {
	switch action {
	case "Served":
		return render(colorServed, action)
	case "Refilled":
		return render(colorRefilled, action)
	case "Offline":
		return render(colorAttention, action)
	case "Starting":
		return render(colorWarn, action)
	default:
		return render(colorMuted, action)
	}
}

// RenderMuted returns s in the muted (gray) color.
func RenderMuted(s string) string {
	return render(colorMuted, s)
}

func render(code int, s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", code, s)
}

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}
