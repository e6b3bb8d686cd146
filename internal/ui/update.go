package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"sku-batch/internal/core/batch"
	"sku-batch/internal/infra/logx"
)

// ---------- Messages / Cmds ----------

type loadedMsg struct{}

type refreshedMsg struct {
	sku string
	err error
}

type runDoneMsg struct {
	op     string
	report *batch.Report
}

type editOpenedMsg struct {
	skus int
	err  error
}

func (m Model) loadAllCmd() tea.Cmd {
	deps := m.deps
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := deps.Coord.LoadAll(ctx, deps.Skus); err != nil {
			logx.L().Warn().Err(err).Msg("initial load aborted")
		}
		return loadedMsg{}
	}
}

// refreshCmd re-fetches the browse-relevant slices of one SKU.
func (m Model) refreshCmd(sku string) tea.Cmd {
	deps := m.deps
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		var firstErr error
		for _, s := range []batch.Slice{
			batch.SliceImages, batch.SliceDetails, batch.SliceListing,
			batch.SliceJSONExists, batch.SliceHasListing,
		} {
			if err := deps.Coord.RefreshOne(ctx, sku, s); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return refreshedMsg{sku: sku, err: firstErr}
	}
}

func (m Model) runEnrichmentCmd(skus []string) tea.Cmd {
	deps := m.deps
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		report := batch.RunEnrichment(ctx, deps.Catalog, deps.Coord, skus, deps.RunWorkers)
		return runDoneMsg{op: "Enrichment", report: report}
	}
}

func (m Model) runListingCreationCmd(skus []string) tea.Cmd {
	deps := m.deps
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		report := batch.RunListingCreation(ctx, deps.Catalog, deps.Cache, deps.Coord, skus)
		return runDoneMsg{op: "Listing-Erstellung", report: report}
	}
}

// openDetailsEditCmd starts the bulk-edit session and prefetches the edit
// surface for the target SKUs.
func (m Model) openDetailsEditCmd(skus []string) tea.Cmd {
	deps := m.deps
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		err := deps.DetailsEdit.Open(ctx, skus)
		return editOpenedMsg{skus: len(skus), err: err}
	}
}

func (m Model) saveDetailsEditCmd() tea.Cmd {
	deps := m.deps
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		report, err := deps.DetailsEdit.Save(ctx)
		if err != nil {
			logx.L().Warn().Err(err).Msg("details bulk save rejected")
			report = batch.NewReport()
		}
		return runDoneMsg{op: "Massenbearbeitung", report: report}
	}
}

// ---------- Update ----------

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		key := msg.String()
		if m.state == stateReport {
			return m.handleReportKey(key)
		}
		if m.state == stateBrowse {
			return m.handleBrowseKey(msg)
		}
		if m.state == stateEdit {
			return m.handleEditKey(msg)
		}
		// loading
		if key == "ctrl+c" || key == "q" {
			return m.quit()
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		const chrome = 9
		vp := m.height - chrome
		if vp < 3 {
			vp = 3
		}
		m.listViewport = vp

	case loadedMsg:
		m.state = stateBrowse
		m.applyFilter()
		m.statusMsg = fmt.Sprintf("%d Artikel geladen.", len(m.deps.Skus))
		return m, nil

	case refreshedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Refresh %s fehlgeschlagen: %s", msg.sku, msg.err)
		} else {
			m.statusMsg = fmt.Sprintf("%s aktualisiert.", msg.sku)
		}
		m.applyFilter()
		return m, nil

	case editOpenedMsg:
		m.running = false
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Bearbeitung konnte nicht geöffnet werden: %s", msg.err)
			m.deps.DetailsEdit.Cancel()
			return m, nil
		}
		m.state = stateEdit
		m.editApplied = nil
		m.editInput.SetValue("")
		m.editInput.Focus()
		m.statusMsg = fmt.Sprintf("Massenbearbeitung: %d Artikel.", msg.skus)
		return m, nil

	case runDoneMsg:
		m.running = false
		m.editApplied = nil
		m.editInput.Blur()
		m.report = msg.report
		succ, warn, fail := msg.report.Counts()
		m.statusMsg = fmt.Sprintf("%s fertig: %d Erfolgreich, %d Warnungen, %d Fehler", msg.op, succ, warn, fail)
		if m.deps.ReportPath != "" {
			if err := msg.report.Dump(m.deps.ReportPath); err != nil {
				logx.L().Warn().Err(err).Msg("report dump failed")
			}
		}
		m.state = stateReport
		m.applyFilter()
		return m, nil

	case spinner.TickMsg:
		if m.state == stateLoading || m.running {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	return m, nil
}

func (m Model) quit() (Model, tea.Cmd) {
	m.deps.Coord.Close()
	m.state = stateQuit
	return m, tea.Quit
}

// ---------- Handlers ----------

func (m Model) handleBrowseKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	key := msg.String()

	if m.search.searching {
		switch key {
		case "esc":
			// ESC: leere Query schließt die Suche, sonst nur löschen
			if strings.TrimSpace(m.search.query) == "" {
				m.search.searching = false
				m.search.searchInput.Blur()
				return m, nil
			}
			m.search.query = ""
			m.search.searchInput.SetValue("")
			m.applyFilter()
			return m, nil
		case "enter":
			m.search.searching = false
			m.search.searchInput.Blur()
			return m, nil
		case "ctrl+c":
			return m.quit()
		default:
			var cmd tea.Cmd
			m.search.searchInput, cmd = m.search.searchInput.Update(msg)
			if q := m.search.searchInput.Value(); q != m.search.query {
				m.search.query = q
				m.applyFilter()
			}
			return m, cmd
		}
	}

	if m.running {
		if key == "ctrl+c" {
			return m.quit()
		}
		return m, nil
	}

	switch key {
	case "ctrl+c", "q":
		return m.quit()

	case "/":
		m.search.searching = true
		m.search.searchInput.SetValue(m.search.query)
		m.search.searchInput.CursorEnd()
		m.search.searchInput.Focus()
		return m, nil

	case "f":
		m.cycle.completion = m.cycleBucket(m.cycle.completion)
		m.applyFilter()
	case "s":
		m.cycle.status = m.cycleCategory(m.cycle.status, batch.FieldStatus, &m.filter.Status)
		m.applyFilter()
	case "l":
		m.cycle.lager = m.cycleCategory(m.cycle.lager, batch.FieldLager, &m.filter.Lager)
		m.applyFilter()
	case "b":
		m.cycle.brand = m.cycleCategory(m.cycle.brand, batch.FieldBrand, &m.filter.Brand)
		m.applyFilter()
	case "c":
		m.search.query = ""
		m.search.searchInput.SetValue("")
		m.filter = batch.NewFilterState()
		m.cycle = cycleState{status: -1, lager: -1, brand: -1, completion: -1}
		m.applyFilter()

	case "j", "down":
		if m.listIndex < len(m.visibleSkus)-1 {
			m.listIndex++
			m.ensureCursorVisible()
		}
	case "k", "up":
		if m.listIndex > 0 {
			m.listIndex--
			m.ensureCursorVisible()
		}
	case "ctrl+d", "pgdown":
		if len(m.visibleSkus) > 0 {
			m.listIndex += m.listViewport
			if m.listIndex > len(m.visibleSkus)-1 {
				m.listIndex = len(m.visibleSkus) - 1
			}
			m.ensureCursorVisible()
		}
	case "ctrl+u", "pgup":
		m.listIndex -= m.listViewport
		if m.listIndex < 0 {
			m.listIndex = 0
		}
		m.ensureCursorVisible()

	case " ":
		if sku, ok := m.cursorSku(); ok {
			m.deps.Selection.ToggleEnrichment(sku)
			if m.listIndex < len(m.visibleSkus)-1 {
				m.listIndex++
				m.ensureCursorVisible()
			}
		}
	case "a":
		m.deps.Selection.SelectAllEnrichment(m.visibleSkus)

	case "r":
		if sku, ok := m.cursorSku(); ok {
			m.statusMsg = fmt.Sprintf("Aktualisiere %s…", sku)
			return m, m.refreshCmd(sku)
		}

	case "d":
		skus := m.deps.Selection.EnrichmentSelected()
		if len(skus) == 0 {
			m.statusMsg = "Keine Artikel markiert."
			return m, nil
		}
		m.running = true
		m.statusMsg = fmt.Sprintf("Öffne Massenbearbeitung für %d Artikel…", len(skus))
		return m, tea.Batch(m.spinner.Tick, m.openDetailsEditCmd(skus))

	case "e":
		skus := m.deps.Selection.EnrichmentSelected()
		if len(skus) == 0 {
			m.statusMsg = "Keine Artikel markiert."
			return m, nil
		}
		m.running = true
		m.statusMsg = fmt.Sprintf("Enrichment für %d Artikel…", len(skus))
		return m, tea.Batch(m.spinner.Tick, m.runEnrichmentCmd(skus))

	case "L":
		skus := m.deps.Selection.EnrichmentSelected()
		if len(skus) == 0 {
			m.statusMsg = "Keine Artikel markiert."
			return m, nil
		}
		m.running = true
		m.statusMsg = fmt.Sprintf("Erstelle Listings für %d Artikel…", len(skus))
		return m, tea.Batch(m.spinner.Tick, m.runListingCreationCmd(skus))
	}
	return m, nil
}

// handleEditKey drives the details bulk-edit form: Enter buffers the typed
// override for every SKU in the session, ctrl+s saves, Esc discards.
func (m Model) handleEditKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	key := msg.String()

	if m.running {
		if key == "ctrl+c" {
			return m.quit()
		}
		return m, nil
	}

	switch key {
	case "ctrl+c":
		return m.quit()

	case "esc":
		// ESC: nicht-leere Eingabe nur löschen, sonst Sitzung verwerfen
		if strings.TrimSpace(m.editInput.Value()) != "" {
			m.editInput.SetValue("")
			return m, nil
		}
		m.deps.DetailsEdit.Cancel()
		m.editApplied = nil
		m.editInput.Blur()
		m.state = stateBrowse
		m.statusMsg = "Bearbeitung verworfen."
		return m, nil

	case "enter":
		raw := strings.TrimSpace(m.editInput.Value())
		if raw == "" {
			return m, nil
		}
		fk, value, err := parseFieldEdit(raw)
		if err != nil {
			m.statusMsg = err.Error()
			return m, nil
		}
		for _, sku := range m.deps.DetailsEdit.Skus() {
			m.deps.DetailsEdit.Set(sku, fk, value)
		}
		m.editApplied = append(m.editApplied, fmt.Sprintf("%s/%s = %s", fk.Category, fk.Field, value))
		m.editInput.SetValue("")
		m.statusMsg = fmt.Sprintf("%s/%s gepuffert.", fk.Category, fk.Field)
		return m, nil

	case "ctrl+s":
		if !m.deps.DetailsEdit.Dirty() {
			m.statusMsg = "Keine Änderungen gepuffert."
			return m, nil
		}
		m.running = true
		m.statusMsg = "Speichere Massenbearbeitung…"
		return m, tea.Batch(m.spinner.Tick, m.saveDetailsEditCmd())

	default:
		var cmd tea.Cmd
		m.editInput, cmd = m.editInput.Update(msg)
		return m, cmd
	}
}

// parseFieldEdit splits a "Kategorie/Feld=Wert" line into its field key and
// value. The value may be empty to clear a field.
func parseFieldEdit(s string) (batch.FieldKey, string, error) {
	path, value, ok := strings.Cut(s, "=")
	if !ok {
		return batch.FieldKey{}, "", fmt.Errorf("Format: Kategorie/Feld=Wert")
	}
	cat, field, ok := strings.Cut(strings.TrimSpace(path), "/")
	cat, field = strings.TrimSpace(cat), strings.TrimSpace(field)
	if !ok || cat == "" || field == "" {
		return batch.FieldKey{}, "", fmt.Errorf("Format: Kategorie/Feld=Wert")
	}
	return batch.FieldKey{Category: cat, Field: field}, strings.TrimSpace(value), nil
}

func (m Model) handleReportKey(key string) (Model, tea.Cmd) {
	switch key {
	case "ctrl+c", "q":
		return m.quit()
	case "esc", "enter":
		m.state = stateBrowse
		return m, nil
	}
	return m, nil
}

// ---------- Filter plumbing ----------

// cycleBucket advances the completion filter: off → empty → … → complete → off.
func (m *Model) cycleBucket(idx int) int {
	idx++
	if idx >= len(bucketCycle) {
		m.filter.Completion = batch.BucketNone
		return -1
	}
	m.filter.Completion = bucketCycle[idx]
	return idx
}

// cycleCategory advances one categorical filter through its observed values.
func (m *Model) cycleCategory(idx int, field string, set *map[string]struct{}) int {
	values := batch.AvailableValues(m.deps.Cache, m.deps.Skus, field)
	idx++
	if idx >= len(values) {
		*set = make(map[string]struct{})
		return -1
	}
	*set = map[string]struct{}{values[idx]: {}}
	return idx
}

// applyFilter recomputes the visible list: categorical/bucket filter first,
// then the fuzzy query on what remains.
func (m *Model) applyFilter() {
	visible := m.filter.Visible(m.deps.Cache, m.deps.Skus)
	if q := strings.TrimSpace(m.search.query); q != "" {
		base := searchBase(m.deps.Cache, visible)
		visible = filterSkus(q, visible, base, m.filterCfg)
	}
	m.visibleSkus = visible
	if m.listIndex > len(m.visibleSkus)-1 {
		m.listIndex = len(m.visibleSkus) - 1
	}
	if m.listIndex < 0 {
		m.listIndex = 0
	}
	m.ensureCursorVisible()
}

func (m *Model) cursorSku() (string, bool) {
	if m.listIndex < 0 || m.listIndex >= len(m.visibleSkus) {
		return "", false
	}
	return m.visibleSkus[m.listIndex], true
}

func (m *Model) ensureCursorVisible() {
	vp := m.listViewport
	if vp <= 0 {
		vp = 10
	}
	n := len(m.visibleSkus)
	if n == 0 {
		m.listIndex = 0
		m.listOffset = 0
		return
	}
	if m.listIndex < 0 {
		m.listIndex = 0
	}
	if m.listIndex > n-1 {
		m.listIndex = n - 1
	}
	if m.listIndex < m.listOffset {
		m.listOffset = m.listIndex
	}
	if m.listIndex >= m.listOffset+vp {
		m.listOffset = m.listIndex - vp + 1
	}
	maxStart := n - vp
	if maxStart < 0 {
		maxStart = 0
	}
	if m.listOffset > maxStart {
		m.listOffset = maxStart
	}
	if m.listOffset < 0 {
		m.listOffset = 0
	}
}
