package ui

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"sku-batch/internal/api"
	"sku-batch/internal/core/batch"
)

// --- UI Styles ---
var (
	titleStyle      = lipgloss.NewStyle().Bold(true).Underline(true)
	subtleStyle     = lipgloss.NewStyle().Faint(true)
	warnStyle       = lipgloss.NewStyle().Bold(true)
	helpStyle       = lipgloss.NewStyle().Faint(true)
	dividerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	cursorLineStyle = lipgloss.NewStyle().Background(lipgloss.Color("#2A2B3D"))
	badgeOnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	badgeOffStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	badgeErrStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	profitPlusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	profitNegStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	statusOkStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	statusWarnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	statusFailStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// --- Model / State ---
type state int

const (
	stateLoading state = iota
	stateBrowse
	stateEdit
	stateReport
	stateQuit
)

// Catalog is the full remote surface the workspace drives.
type Catalog interface {
	batch.CatalogAPI
	GenerateJSON(ctx context.Context, sku string) error
	CreateListingsBatch(ctx context.Context, items []api.CreateResultRequest) (api.BatchCreateResult, error)
}

// Deps wires the core into the model.
type Deps struct {
	Catalog     Catalog
	Cache       *batch.Cache
	Coord       *batch.Coordinator
	Selection   *batch.SelectionSets
	DetailsEdit *batch.DetailsSession
	Skus        []string
	RunWorkers  int
	ReportPath  string
}

type SearchState struct {
	searching   bool
	searchInput textinput.Model
	query       string
}

// cycleState tracks which value of each categorical filter is active;
// -1 means the category is off.
type cycleState struct {
	status     int
	lager      int
	brand      int
	completion int
}

type Model struct {
	state         state
	deps          Deps
	statusMsg     string
	width, height int

	spinner spinner.Model
	running bool

	// browse list
	listIndex    int
	listOffset   int
	listViewport int
	visibleSkus  []string

	search    SearchState
	filter    batch.FilterState
	cycle     cycleState
	filterCfg FilterConfig

	// details bulk edit
	editInput   textinput.Model
	editApplied []string

	report *batch.Report
}

// completion buckets in cycling order; index -1 = off.
var bucketCycle = []batch.Bucket{
	batch.BucketEmpty, batch.BucketLow, batch.BucketMedium,
	batch.BucketHigh, batch.BucketComplete,
}

func InitialModel(deps Deps) Model {
	m := Model{
		state:     stateLoading,
		deps:      deps,
		statusMsg: "Lade Artikel…",
		filter:    batch.NewFilterState(),
		cycle:     cycleState{status: -1, lager: -1, brand: -1, completion: -1},
		filterCfg: FilterConfig{
			MinCoverage: 0.6,
			MaxSpread:   40,
			MaxResults:  200,
		},
	}

	si := textinput.New()
	si.Placeholder = "Fuzzy suchen…"
	si.CharLimit = 200
	si.Width = 40
	m.search.searchInput = si

	ei := textinput.New()
	ei.Placeholder = "Kategorie/Feld=Wert"
	ei.CharLimit = 300
	ei.Width = 50
	m.editInput = ei

	sp := spinner.New()
	sp.Spinner = spinner.Line
	sp.Style = subtleStyle
	m.spinner = sp

	m.visibleSkus = append([]string(nil), deps.Skus...)
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadAllCmd())
}
