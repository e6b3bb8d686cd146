package batch

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/google/uuid"
)

type ReportStatus string

const (
	ReportSuccess ReportStatus = "success"
	ReportWarning ReportStatus = "warning"
	ReportFailure ReportStatus = "failure"
)

// ReportEntry records the outcome of one SKU in a bulk operation.
type ReportEntry struct {
	Sku       string       `json:"sku"`
	Operation string       `json:"operation"`
	Status    ReportStatus `json:"status"`
	Message   string       `json:"message,omitempty"`
	Duration  int64        `json:"durationMs,omitempty"`
}

// Report tallies a bulk operation per item. Bulk operations always run to
// completion; the report is how partial failure surfaces.
type Report struct {
	mu      sync.Mutex
	RunID   string        `json:"runId"`
	Entries []ReportEntry `json:"entries"`
}

func NewReport() *Report {
	return &Report{RunID: uuid.NewString()}
}

func (r *Report) AddSuccess(sku, op string, durationMs int64) {
	r.add(ReportEntry{Sku: sku, Operation: op, Status: ReportSuccess, Duration: durationMs})
}

func (r *Report) AddWarning(sku, op, msg string, durationMs int64) {
	r.add(ReportEntry{Sku: sku, Operation: op, Status: ReportWarning, Message: msg, Duration: durationMs})
}

func (r *Report) AddFailure(sku, op string, err error, durationMs int64) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	r.add(ReportEntry{Sku: sku, Operation: op, Status: ReportFailure, Message: msg, Duration: durationMs})
}

func (r *Report) add(e ReportEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Entries = append(r.Entries, e)
}

// Counts returns the per-status tallies.
func (r *Report) Counts() (successes, warnings, failures int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.Entries {
		switch e.Status {
		case ReportSuccess:
			successes++
		case ReportWarning:
			warnings++
		case ReportFailure:
			failures++
		}
	}
	return
}

// Len returns the number of entries.
func (r *Report) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Entries)
}

// Dump writes the report as indented JSON.
func (r *Report) Dump(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
