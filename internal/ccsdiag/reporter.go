// Package ccsdiag renders parse and evaluation errors with Rust-style
// caret diagnostics, the way the parser reports them to a terminal.
package ccsdiag

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Position is a 1-based line/column location in a source file.
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Level is the severity of a reported diagnostic.
type Level string

const (
	Error   Level = "error"
	Warning Level = "warning"
	Note    Level = "note"
)

// Diagnostic is a single positioned message, e.g. a parse error or an
// engine error surfaced while exploring a process term.
type Diagnostic struct {
	Level    Level
	Message  string
	Position Position
	Length   int // width of the offending token; 0 means one column
	Notes    []string
}

// Reporter formats Diagnostics against a known source file, producing
// caret-annotated output similar to rustc/cargo.
type Reporter struct {
	filename string
	lines    []string
}

// NewReporter builds a Reporter for the given filename and its source text.
func NewReporter(filename, source string) *Reporter {
	return &Reporter{
		filename: filename,
		lines:    strings.Split(source, "\n"),
	}
}

// Format renders d as a multi-line, colorized diagnostic.
func (r *Reporter) Format(d Diagnostic) string {
	var out strings.Builder

	levelColor := r.levelColor(d.Level)
	bold := color.New(color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	out.WriteString(fmt.Sprintf("%s: %s\n", levelColor(string(d.Level)), d.Message))

	width := lineNumberWidth(d.Position.Line)
	indent := strings.Repeat(" ", width)

	out.WriteString(fmt.Sprintf("%s %s %s:%s\n", indent, dim("-->"), r.filename, d.Position))
	out.WriteString(fmt.Sprintf("%s %s\n", indent, dim("│")))

	line := d.Position.Line
	if line >= 1 && line <= len(r.lines) {
		content := r.lines[line-1]
		out.WriteString(fmt.Sprintf("%s %s %s\n",
			bold(fmt.Sprintf("%*d", width, line)), dim("│"), content))
		out.WriteString(fmt.Sprintf("%s %s %s\n", indent, dim("│"), r.marker(d)))
	}

	for _, note := range d.Notes {
		noteColor := color.New(color.FgBlue).SprintFunc()
		out.WriteString(fmt.Sprintf("%s %s %s %s\n", indent, dim("│"), noteColor("note:"), note))
	}

	out.WriteString("\n")
	return out.String()
}

func (r *Reporter) levelColor(level Level) func(...interface{}) string {
	switch level {
	case Warning:
		return color.New(color.FgYellow, color.Bold).SprintFunc()
	case Note:
		return color.New(color.FgBlue, color.Bold).SprintFunc()
	default:
		return color.New(color.FgRed, color.Bold).SprintFunc()
	}
}

func (r *Reporter) marker(d Diagnostic) string {
	length := d.Length
	if length <= 0 {
		length = 1
	}
	spaces := strings.Repeat(" ", max(0, d.Position.Column-1))
	markerColor := r.levelColor(d.Level)
	return spaces + markerColor(strings.Repeat("^", length))
}

func lineNumberWidth(line int) int {
	width := len(fmt.Sprintf("%d", line))
	if width < 3 {
		width = 3
	}
	return width
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
