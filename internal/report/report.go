// Package report renders reconciliation and merge results for the terminal.
package report

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/agusx1211/docmerge/internal/merge"
	"github.com/agusx1211/docmerge/internal/sequence"
)

// Glyphs used in itemized reports.
const (
	GlyphFound   = "✓"
	GlyphMissing = "✗"
	GlyphExtra   = "+"
)

// Styles colors the parts of a report.
type Styles struct {
	Header  lipgloss.Style
	Found   lipgloss.Style
	Missing lipgloss.Style
	Extra   lipgloss.Style
	Faint   lipgloss.Style
}

// DefaultStyles returns the terminal color scheme.
func DefaultStyles() Styles {
	return Styles{
		Header:  lipgloss.NewStyle().Bold(true),
		Found:   lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		Missing: lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		Extra:   lipgloss.NewStyle().Foreground(lipgloss.Color("213")),
		Faint:   lipgloss.NewStyle().Foreground(lipgloss.Color("243")),
	}
}

// PlainStyles renders without any escape codes.
func PlainStyles() Styles {
	s := lipgloss.NewStyle()
	return Styles{Header: s, Found: s, Missing: s, Extra: s, Faint: s}
}

// Printer writes reports to W.
type Printer struct {
	W      io.Writer
	Styles Styles
}

// NewPrinter returns a Printer with the default colors.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{W: w, Styles: DefaultStyles()}
}

// Listing prints files as a numbered list, the way the order editor shows
// them.
func (p *Printer) Listing(title string, files []sequence.CandidateFile) {
	fmt.Fprintln(p.W, p.Styles.Header.Render(fmt.Sprintf("%s (%d files)", title, len(files))))
	width := len(fmt.Sprint(len(files)))
	for i, f := range files {
		meta := p.Styles.Faint.Render(fmt.Sprintf("%s, %s", formatSize(f.Size), formatTime(f.ModTime)))
		fmt.Fprintf(p.W, "  %*d. %s  %s\n", width, i+1, f.Name, meta)
	}
}

// Reconciliation prints one line per outline entry and then the extra files.
func (p *Printer) Reconciliation(res *sequence.Result) {
	found, missing, extra := res.Counts()
	fmt.Fprintln(p.W, p.Styles.Header.Render(fmt.Sprintf("Sequence: %d found, %d missing, %d extra", found, missing, extra)))
	width := len(fmt.Sprint(len(res.Items)))
	for i, it := range res.Items {
		switch it.Status {
		case sequence.StatusFound:
			fmt.Fprintf(p.W, "  %s %*d. %s %s\n", p.Styles.Found.Render(GlyphFound), width, i+1, it.Title,
				p.Styles.Faint.Render("→ "+it.File.Name))
		default:
			fmt.Fprintf(p.W, "  %s %*d. %s %s\n", p.Styles.Missing.Render(GlyphMissing), width, i+1, it.Title,
				p.Styles.Missing.Render("(missing)"))
		}
	}
	if len(res.Extra) > 0 {
		fmt.Fprintln(p.W, p.Styles.Header.Render("Not in the outline:"))
		for _, f := range res.Extra {
			fmt.Fprintf(p.W, "  %s %s\n", p.Styles.Extra.Render(GlyphExtra), f.Name)
		}
	}
}

// Merge prints the per-file outcome of a merge followed by a summary line.
func (p *Printer) Merge(out *merge.Outcome) {
	for _, it := range out.Items {
		if it.Err == nil {
			fmt.Fprintf(p.W, "  %s %s\n", p.Styles.Found.Render(GlyphFound), it.File.Name)
			continue
		}
		reason := it.Err.Error()
		var ae *merge.AppendError
		if errors.As(it.Err, &ae) && ae.Reason != nil {
			reason = ae.Reason.Error()
		}
		fmt.Fprintf(p.W, "  %s %s %s\n", p.Styles.Missing.Render(GlyphMissing), it.File.Name, p.Styles.Faint.Render(reason))
	}
	failed := len(out.Failures())
	summary := fmt.Sprintf("Merged %d of %d files into %s", out.Succeeded(), out.Attempted(), out.Target)
	if failed > 0 {
		summary += fmt.Sprintf(" (%d failed)", failed)
	}
	fmt.Fprintln(p.W, p.Styles.Header.Render(summary))
}

// Progress returns a merge.ProgressFunc that redraws one status line.
func (p *Printer) Progress() merge.ProgressFunc {
	return func(done, total int, f sequence.CandidateFile) {
		pct := int(merge.Fraction(done, total) * 100)
		line := fmt.Sprintf("\r[%3d%%] %d/%d %s", pct, done, total, f.Name)
		fmt.Fprint(p.W, line+strings.Repeat(" ", 8))
		if done == total {
			fmt.Fprintln(p.W)
		}
	}
}

func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04")
}
