// Package report renders import and backup outcomes for the terminal.
package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jask/hangarledger/internal/importer"
	"github.com/jask/hangarledger/internal/service"
)

const labelWidth = 16

func section(title string, lines []string) string {
	width := lipgloss.Width(title)
	for _, l := range lines {
		if w := lipgloss.Width(l); w > width {
			width = w
		}
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(sepStyle.Render(strings.Repeat("─", width)))
	for _, l := range lines {
		b.WriteString("\n")
		b.WriteString(l)
	}
	return boxStyle.Render(b.String())
}

func field(label string, v any) string {
	return labelStyle.Render(fmt.Sprintf("%-*s", labelWidth, label)) + " " + valueStyle.Render(fmt.Sprint(v))
}

// Validation lists parse errors and warnings by source row.
func Validation(res importer.ParseResult) string {
	lines := []string{field("Rows", len(res.Rows))}
	for _, e := range res.Errors {
		lines = append(lines, errorStyle.Render("error   ")+" "+e.String())
	}
	for _, w := range res.Warnings {
		lines = append(lines, warningStyle.Render("warning ")+" "+w.String())
	}
	if len(res.Errors) == 0 && len(res.Warnings) == 0 {
		lines = append(lines, okStyle.Render("no problems found"))
	}
	return section("Validation", lines)
}

func entityLines(kind string, entries []importer.EntityEntry) []string {
	if len(entries) == 0 {
		return nil
	}
	lines := []string{labelStyle.Render(kind)}
	for _, e := range entries {
		mark := newStyle.Render("  + new    ")
		if e.Exists {
			mark = okStyle.Render("  = exists ")
		}
		line := mark + " " + e.Name
		if e.IsFuel {
			line += " " + hintStyle.Render("(fuel)")
		}
		if e.Suggestion != "" {
			line += " " + hintStyle.Render(fmt.Sprintf("did you mean %q?", e.Suggestion))
		}
		lines = append(lines, line)
	}
	return lines
}

// Preview summarises what an import would write.
func Preview(p *importer.Preview) string {
	lines := []string{
		field("Source", p.Source),
		field("Trips", len(p.Trips)),
		field("Expenses", p.TotalExpenses),
		field("Line items", p.TotalLineItems),
		field("Standalone", len(p.Standalone)),
	}
	if p.ReceiptCount > 0 {
		lines = append(lines, field("Receipts", p.ReceiptCount))
	}
	lines = append(lines, entityLines("Aircraft", p.Aircraft)...)
	lines = append(lines, entityLines("Categories", p.Categories)...)
	lines = append(lines, entityLines("Vendors", p.Vendors)...)
	lines = append(lines, entityLines("Payment methods", p.PaymentMethods)...)
	for _, d := range p.Duplicates {
		lines = append(lines, warningStyle.Render("duplicate")+" "+
			fmt.Sprintf("%s matches existing trip %s (started %s)", d.ImportTripName, d.ExistingTripName, d.StartDate))
	}
	for _, w := range p.Warnings {
		lines = append(lines, warningStyle.Render("warning")+" "+w)
	}
	return section("Import preview", lines)
}

func problems(lines []string, errs []string) []string {
	for _, e := range errs {
		lines = append(lines, errorStyle.Render("error")+" "+e)
	}
	return lines
}

func status(success bool) string {
	if success {
		return okStyle.Render("success")
	}
	return errorStyle.Render("completed with failures")
}

// Import reports an import execution.
func Import(r *service.ImportResult) string {
	c := r.Created
	lines := []string{
		status(r.Success),
		field("Session", r.SessionID),
		field("Aircraft", c.Aircraft),
		field("Vendors", c.Vendors),
		field("Categories", c.Categories),
		field("Payment methods", c.PaymentMethods),
		field("Trips", c.Trips),
		field("Expenses", c.Expenses),
		field("Line items", c.LineItems),
		field("Receipts", c.Receipts),
		field("Skipped", r.Skipped),
		field("Failed", r.Failed),
	}
	return section("Import", problems(lines, r.Errors))
}

// Restore reports a restore with created and skipped counts side by side.
func Restore(r *service.RestoreResult) string {
	row := func(label string, created, skipped int) string {
		return labelStyle.Render(fmt.Sprintf("%-*s", labelWidth, label)) + " " +
			valueStyle.Render(fmt.Sprintf("%6d", created)) + " " +
			hintStyle.Render(fmt.Sprintf("%6d", skipped))
	}
	c, s := r.Created, r.Skipped
	lines := []string{
		status(r.Success),
		labelStyle.Render(fmt.Sprintf("%-*s %6s %6s", labelWidth, "", "new", "kept")),
		row("Aircraft", c.Aircraft, s.Aircraft),
		row("Vendors", c.Vendors, s.Vendors),
		row("Categories", c.Categories, s.Categories),
		row("Payment methods", c.PaymentMethods, s.PaymentMethods),
		row("Trips", c.Trips, s.Trips),
		row("Expenses", c.Expenses, s.Expenses),
		row("Line items", c.LineItems, s.LineItems),
		row("Receipts", c.Receipts, s.Receipts),
	}
	return section("Restore", problems(lines, r.Errors))
}
