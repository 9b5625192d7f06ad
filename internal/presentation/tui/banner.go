package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the kanvas ASCII banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{" _  __                               ", "#818cf8"},
		{"| |/ /__ _ _ ____   ____ _ ___       ", "#a78bfa"},
		{"| ' // _` | '_ \\ \\ / / _` / __|    ", "#c084fc"},
		{"| . \\ (_| | | | \\ V / (_| \\__ \\   ", "#e879f9"},
		{"|_|\\_\\__,_|_| |_|\\_/ \\__,_|___/   ", "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
