// Package output provides formatters and notices for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"tasktracker/internal/service"
)

const (
	// EmptyMessage is printed for a view with no tasks.
	EmptyMessage = "No tasks available"

	statusWidth   = len("completed")
	priorityWidth = len("medium")
)

var titleCaser = cases.Title(language.English, cases.NoLower)

// Printer writes task lines and notices. Colour is used only when out is a
// terminal.
type Printer struct {
	out    io.Writer
	errOut io.Writer
	quiet  bool

	pending   lipgloss.Style
	completed lipgloss.Style
}

// NewPrinter creates a printer. With quiet set, success and info notices
// are suppressed; errors are always printed.
func NewPrinter(out, errOut io.Writer, quiet bool) *Printer {
	r := lipgloss.NewRenderer(out)
	return &Printer{
		out:       out,
		errOut:    errOut,
		quiet:     quiet,
		pending:   r.NewStyle().Foreground(lipgloss.Color("3")),
		completed: r.NewStyle().Foreground(lipgloss.Color("2")),
	}
}

// Success prints a success notice.
func (p *Printer) Success(msg string) {
	if !p.quiet {
		fmt.Fprintln(p.out, msg)
	}
}

// Info prints an informational notice.
func (p *Printer) Info(msg string) {
	if !p.quiet {
		fmt.Fprintln(p.out, msg)
	}
}

// Error prints an error notice to errOut.
func (p *Printer) Error(msg string) {
	fmt.Fprintf(p.errOut, "error: %s\n", msg)
}

// Task prints one task line.
// Format: "{N:>4}  {STATUS:<9}  {PRIORITY:<6}  {TASK}\n"
func (p *Printer) Task(num int, task service.Task) {
	status := task.Status
	if status == "" {
		status = service.StatusPending
	}
	style := p.pending
	if status == service.StatusCompleted {
		style = p.completed
	}
	fmt.Fprintf(p.out, "%4d  %s  %-*s  %s\n",
		num,
		pad(style.Render(string(status)), len(status), statusWidth),
		priorityWidth, Title(string(task.Priority)),
		normalizeTitle(task.Task),
	)
}

// Empty prints the empty view message unless quiet.
func (p *Printer) Empty() {
	if !p.quiet {
		fmt.Fprintln(p.out, EmptyMessage)
	}
}

// Session prints the signed-in user.
func (p *Printer) Session(s service.Session) {
	fmt.Fprintf(p.out, "%s (%s)\n", s.Email, s.Provider)
	fmt.Fprintf(p.out, "uid: %s\n", s.ID)
}

// Title capitalises the first letter of each word and leaves the rest alone.
func Title(s string) string {
	return titleCaser.String(s)
}

// pad right-pads a styled string whose visible width is n.
func pad(styled string, n, width int) string {
	if n >= width {
		return styled
	}
	return styled + strings.Repeat(" ", width-n)
}

// normalizeTitle normalizes a task label for display.
// - Empty or whitespace-only labels become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")

	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}
