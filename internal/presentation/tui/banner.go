package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the ASCII art banner shown when the server starts.
func PrintBanner(w io.Writer) {
	p := termenv.EnvColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"  ___ ___ ___ ___ ___ ___  _  _ ", "#818cf8"},
		{" / __| __/ __/ __|_ _/ _ \\| \\| |", "#a78bfa"},
		{" \\__ \\ _|\\__ \\__ \\| | (_) | .` |", "#c084fc"},
		{" |___/___|___/___/___\\___/|_|\\_|", "#e879f9"},
		{"          s h a r d             ", "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}

// Status colours a connection status: green when connected, red otherwise.
func Status(status string) string {
	p := termenv.EnvColorProfile()
	color := "#fb7185"
	if status == "connected" {
		color = "#4ade80"
	}
	return termenv.String(status).Foreground(p.Color(color)).String()
}

// Label renders a key of a key/value listing.
func Label(s string) string {
	return termenv.String(s).Faint().String()
}
