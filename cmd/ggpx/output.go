package main

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

func printSuccess(format string, args ...interface{}) {
	prefix := "✓"
	if runtime.GOOS == "windows" {
		prefix = "[OK]"
	}
	fmt.Printf("%s %s\n", prefix, fmt.Sprintf(format, args...))
}

func printError(format string, args ...interface{}) {
	prefix := "✗"
	if runtime.GOOS == "windows" {
		prefix = "[ERROR]"
	}
	fmt.Fprintf(os.Stderr, "%s %s\n", prefix, fmt.Sprintf(format, args...))
}

func printInfo(format string, args ...interface{}) {
	fmt.Printf("%s\n", fmt.Sprintf(format, args...))
}

// progressBar renders a single-line bar that is redrawn in place.
func progressBar(name string, pct int) string {
	const width = 30
	filled := pct * width / 100
	return fmt.Sprintf("\r%-24s [%s%s] %3d%%", truncate(name, 24), strings.Repeat("=", filled), strings.Repeat(" ", width-filled), pct)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
