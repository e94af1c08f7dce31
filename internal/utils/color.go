package utils

import (
	"os"
	"runtime"
)

// ANSI color codes
const (
	Reset  = "\033[0m"
	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Cyan   = "\033[36m"
)

// ColorOutput controls whether colors are enabled
var ColorOutput = true

// init initializes color output based on environment
func init() {
	// Disable colors on Windows by default (unless explicitly enabled)
	if runtime.GOOS == "windows" {
		ColorOutput = false
	}

	// Check if NO_COLOR environment variable is set
	if os.Getenv("NO_COLOR") != "" {
		ColorOutput = false
	}

	// Check if FORCE_COLOR environment variable is set
	if os.Getenv("FORCE_COLOR") != "" {
		ColorOutput = true
	}
}

// Colorize applies color to text if colors are enabled
func Colorize(color, text string) string {
	if !ColorOutput {
		return text
	}
	return color + text + Reset
}

// Info formats text with info color (cyan)
func Info(text string) string {
	return Colorize(Cyan, text)
}

// Success formats text with success color (green)
func Success(text string) string {
	return Colorize(Green, text)
}

// Warning formats text with warning color (yellow)
func Warning(text string) string {
	return Colorize(Yellow, text)
}

// Error formats text with error color (red)
func Error(text string) string {
	return Colorize(Red, text)
}

// SetColorOutput enables or disables color output
func SetColorOutput(enabled bool) {
	ColorOutput = enabled
}
