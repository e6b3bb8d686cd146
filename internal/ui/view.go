package ui

import (
	"fmt"
	"strings"

	"sku-batch/internal/core/batch"
)

func (m Model) View() string {
	if m.state == stateQuit {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("SKU Batch Workspace"))
	b.WriteString("\n")
	b.WriteString(dividerStyle.Render(strings.Repeat("─", max(10, m.width-2))))
	b.WriteString("\n")

	switch m.state {

	case stateLoading:
		b.WriteString("\n" + m.spinner.View() + " Lade Artikel…\n\n")
		b.WriteString(helpStyle.Render("q beenden"))

	case stateBrowse:
		m.viewBrowse(&b)

	case stateEdit:
		m.viewEdit(&b)

	case stateReport:
		m.viewReport(&b)
	}

	b.WriteString("\n")
	return b.String()
}

func (m Model) viewBrowse(b *strings.Builder) {
	// Filterleiste
	if m.search.searching {
		b.WriteString("Suche: " + m.search.searchInput.View())
	} else {
		b.WriteString(subtleStyle.Render("Suche: " + m.search.query))
	}
	b.WriteString(subtleStyle.Render("  |  " + m.filterLabel()))
	b.WriteString("\n\n")

	total := len(m.visibleSkus)
	if total == 0 {
		b.WriteString(warnStyle.Render("Keine Artikel sichtbar (Filter aktiv?).") + "\n")
	} else {
		vp := m.listViewport
		if vp <= 0 {
			vp = 10
		}
		start := m.listOffset
		end := min(start+vp, total)
		for i := start; i < end; i++ {
			sku := m.visibleSkus[i]
			cursor := "  "
			if i == m.listIndex {
				cursor = "▶ "
			}
			mark := "[ ]"
			if m.deps.Selection.IsEnrichmentSelected(sku) {
				mark = "[x]"
			}
			line := fmt.Sprintf("%s%s %-18s %s", cursor, mark, sku, m.badges(sku))
			if i == m.listIndex {
				line = cursorLineStyle.Render(line)
			}
			b.WriteString(line + "\n")
		}
		b.WriteString("\n")
		b.WriteString(subtleStyle.Render(fmt.Sprintf("Zeilen %d–%d von %d", start+1, end, total)))
		b.WriteString("\n")
	}

	marked := len(m.deps.Selection.EnrichmentSelected())
	b.WriteString("\n")
	if m.running {
		b.WriteString(m.spinner.View() + " ")
	}
	b.WriteString(subtleStyle.Render(fmt.Sprintf("Markiert: %d  |  %s", marked, m.statusMsg)) + "\n")
	b.WriteString(helpStyle.Render("j/k bewegen  |  space markieren  |  a alle sichtbaren  |  r aktualisieren  |  q beenden") + "\n")
	b.WriteString(helpStyle.Render("/ suchen  |  f Vollständigkeit  |  s Status  |  l Lager  |  b Marke  |  c Filter löschen  |  d Bearbeiten  |  e Enrichment  |  L Listings"))
}

// viewEdit renders the details bulk-edit form: session size, the buffered
// overrides, and the input line.
func (m Model) viewEdit(b *strings.Builder) {
	b.WriteString(fmt.Sprintf("\nMassenbearbeitung: %d Artikel\n\n", len(m.deps.DetailsEdit.Skus())))

	if len(m.editApplied) == 0 {
		b.WriteString(subtleStyle.Render("Noch keine Änderungen gepuffert.") + "\n")
	} else {
		for _, line := range m.editApplied {
			b.WriteString("  " + line + "\n")
		}
	}

	b.WriteString("\nFeld: " + m.editInput.View() + "\n\n")
	if m.running {
		b.WriteString(m.spinner.View() + " ")
	}
	b.WriteString(subtleStyle.Render(m.statusMsg) + "\n")
	b.WriteString(helpStyle.Render("Enter übernehmen  |  ctrl+s speichern  |  Esc verwerfen"))
}

func (m Model) viewReport(b *strings.Builder) {
	if m.report == nil {
		b.WriteString("\nKein Report.\n")
		return
	}
	succ, warn, fail := m.report.Counts()
	b.WriteString(fmt.Sprintf("\nReport %s\n", m.report.RunID))
	b.WriteString(fmt.Sprintf("%s  %s  %s\n\n",
		statusOkStyle.Render(fmt.Sprintf("✓ %d", succ)),
		statusWarnStyle.Render(fmt.Sprintf("! %d", warn)),
		statusFailStyle.Render(fmt.Sprintf("✗ %d", fail))))

	vp := m.listViewport
	if vp <= 0 {
		vp = 10
	}
	for i, e := range m.report.Entries {
		if i >= vp {
			b.WriteString(subtleStyle.Render(fmt.Sprintf("… und %d weitere\n", len(m.report.Entries)-i)))
			break
		}
		sign := statusOkStyle.Render("✓")
		switch e.Status {
		case batch.ReportWarning:
			sign = statusWarnStyle.Render("!")
		case batch.ReportFailure:
			sign = statusFailStyle.Render("✗")
		}
		line := fmt.Sprintf("%s %-18s %s", sign, e.Sku, e.Message)
		b.WriteString(strings.TrimRight(line, " ") + "\n")
	}
	if m.deps.ReportPath != "" {
		b.WriteString("\n" + subtleStyle.Render("Gespeichert: "+m.deps.ReportPath) + "\n")
	}
	b.WriteString("\n" + helpStyle.Render("Enter/Esc zurück  |  q beenden"))
}

// badges renders the per-SKU flags: listing, json, image count,
// completion, net profit.
func (m Model) badges(sku string) string {
	e := m.deps.Cache.Get(sku)

	listing := flagBadge("L", e.HasListing, e.Errors[batch.SliceHasListing] != nil)
	json := flagBadge("J", e.JSONExists, e.Errors[batch.SliceJSONExists] != nil)

	images := badgeOffStyle.Render("i:–")
	if e.Errors[batch.SliceImages] != nil {
		images = badgeErrStyle.Render("i:!")
	} else if e.Images != nil {
		images = fmt.Sprintf("i:%d", len(e.Images))
	}

	completion := badgeOffStyle.Render("  –%")
	if e.Details != nil {
		completion = fmt.Sprintf("%3.0f%%", e.Details.CompletionPercentage)
	}

	profit := ""
	if e.Details != nil && e.Listing != nil {
		p := batch.ProfitForEntry(e)
		s := p.NetProfit.StringFixed(2) + "€"
		if p.NetProfit.IsNegative() {
			profit = profitNegStyle.Render(s)
		} else {
			profit = profitPlusStyle.Render(s)
		}
	}

	return strings.TrimRight(fmt.Sprintf("%s %s %s %s %s", listing, json, images, completion, profit), " ")
}

func flagBadge(label string, v *bool, errored bool) string {
	switch {
	case errored:
		return badgeErrStyle.Render(label + "!")
	case v == nil:
		return badgeOffStyle.Render(label + "?")
	case *v:
		return badgeOnStyle.Render(label)
	default:
		return badgeOffStyle.Render(label)
	}
}

// filterLabel summarizes the active categorical and bucket filters.
func (m Model) filterLabel() string {
	parts := make([]string, 0, 4)
	if m.filter.Completion != batch.BucketNone {
		parts = append(parts, "Vollständigkeit: "+string(m.filter.Completion))
	}
	for _, c := range []struct {
		name string
		set  map[string]struct{}
	}{
		{"Status", m.filter.Status},
		{"Lager", m.filter.Lager},
		{"Marke", m.filter.Brand},
	} {
		for v := range c.set {
			parts = append(parts, c.name+": "+v)
		}
	}
	if len(parts) == 0 {
		return "Filter: aus"
	}
	return "Filter: " + strings.Join(parts, ", ")
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
