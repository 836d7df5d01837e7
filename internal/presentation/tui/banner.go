package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the lattice banner to w using the colours w supports.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)
	lines := []struct {
		text, color string
	}{
		{` _       _   _   _          `, "#818cf8"},
		{`| | __ _| |_| |_(_) ___ ___ `, "#a78bfa"},
		{`| |/ _' | __| __| |/ __/ _ \`, "#c084fc"},
		{`| | (_| | |_| |_| | (_|  __/`, "#e879f9"},
		{`|_|\__,_|\__|\__|_|\___\___|`, "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w)
}

// Fail renders msg in the terminal's error colour.
func Fail(w io.Writer, msg string) {
	out := termenv.NewOutput(w)
	fmt.Fprintln(w, out.String(msg).Foreground(out.Color("#fb7185")).Bold())
}
