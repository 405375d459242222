// Package logger provides a small tagged console logger with ANSI colors.
package logger

import (
	"fmt"
	"time"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

func timestamp() string {
	return time.Now().Format("15:04:05")
}

func logLine(color, level, tag, msg string) {
	fmt.Printf("%s%s%s %s%-5s%s %s[%s]%s %s\n",
		colorGray, timestamp(), colorReset,
		color, level, colorReset,
		colorCyan, tag, colorReset,
		msg)
}

// Info logs an informational message under the given tag.
func Info(tag, msg string) {
	logLine(colorBlue, "INFO", tag, msg)
}

// Success logs a success message under the given tag.
func Success(tag, msg string) {
	logLine(colorGreen, "OK", tag, msg)
}

// Warn logs a warning message under the given tag.
func Warn(tag, msg string) {
	logLine(colorYellow, "WARN", tag, msg)
}

// Error logs an error message under the given tag.
func Error(tag, msg string) {
	logLine(colorRed, "ERROR", tag, msg)
}

// Banner prints the startup banner with the build version.
func Banner(version string) {
	if version == "" {
		version = "dev"
	}
	fmt.Printf("%s%s╔══════════════════════════════════════╗%s\n", colorBold, colorCyan, colorReset)
	fmt.Printf("%s%s║       Stock Price Forecaster         ║%s\n", colorBold, colorCyan, colorReset)
	fmt.Printf("%s%s╚══════════════════════════════════════╝%s\n", colorBold, colorCyan, colorReset)
	fmt.Printf("%sversion %s%s\n\n", colorGray, version, colorReset)
}

// Section prints a visual section divider.
func Section(name string) {
	fmt.Printf("\n%s── %s %s%s\n", colorBold, name, "──────────────────────────", colorReset)
}

// Stats prints a key/value statistic line.
func Stats(key string, value interface{}) {
	fmt.Printf("  %s%-24s%s %v\n", colorGray, key, colorReset, value)
}

// Server logs the address the HTTP server is listening on.
func Server(addr string) {
	fmt.Printf("\n%s%s➜  Listening on http://%s%s\n\n", colorBold, colorGreen, addr, colorReset)
}
