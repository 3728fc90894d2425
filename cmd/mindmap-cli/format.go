package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
)

// Terminal styles. fatih/color turns them off when stdout is not a TTY.
var (
	brand  = color.New(color.FgHiGreen, color.Bold)
	subtle = color.New(color.FgHiBlack)
	good   = color.New(color.FgGreen)
	bad    = color.New(color.FgRed)
	warn   = color.New(color.FgYellow)
)

func formatJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error: encode json: %v\n", err)
		os.Exit(1)
	}
}

func formatTable(headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	pad := func(cells []string) string {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			w := 0
			if i < len(widths) {
				w = widths[i]
			}
			parts[i] = fmt.Sprintf("%-*s", w, cell)
		}
		return strings.Join(parts, "  ")
	}

	seps := make([]string, len(headers))
	for i, w := range widths {
		seps[i] = strings.Repeat("-", w)
	}

	fmt.Println(subtle.Sprint(pad(headers)))
	fmt.Println(subtle.Sprint(pad(seps)))
	for _, row := range rows {
		fmt.Println(pad(row))
	}
}

func formatQuiet(id string) {
	fmt.Println(id)
}

// output prints v as JSON or, in quiet mode, just quietVal. Commands with a
// table rendering handle "table" themselves before calling output.
func output(v any, quietVal string) {
	switch flagFmt {
	case "quiet":
		formatQuiet(quietVal)
	default:
		formatJSON(v)
	}
}

// ago renders a timestamp relative to now ("3 hours ago").
func ago(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t)
}

// percent renders an accuracy colored by how well the node is known.
func percent(p float64) string {
	s := fmt.Sprintf("%.0f%%", p)
	switch {
	case p >= 80:
		return good.Sprint(s)
	case p >= 50:
		return warn.Sprint(s)
	default:
		return bad.Sprint(s)
	}
}

func fatal(msg string, err error) {
	fmt.Fprintf(os.Stderr, "%s %s: %v\n", bad.Sprint("Error:"), msg, err)
	os.Exit(1)
}
