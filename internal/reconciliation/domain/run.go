package domain

import "time"

type RunStatus int8
type RunItemStatus int8

const (
	RunRunning   RunStatus = 1
	RunCompleted RunStatus = 2
	RunFailed    RunStatus = 3

	RunItemLinked  RunItemStatus = 1
	RunItemSkipped RunItemStatus = 2
)

func (s RunStatus) String() string {
	switch s {
	case RunRunning:
		return "RUNNING"
	case RunCompleted:
		return "COMPLETED"
	case RunFailed:
		return "FAILED"
	}
	return "UNKNOWN"
}

func (s RunItemStatus) String() string {
	switch s {
	case RunItemLinked:
		return "LINKED"
	case RunItemSkipped:
		return "SKIPPED"
	}
	return "UNKNOWN"
}

// ReconciliationRun is the audit record of one batch apply: who triggered
// it, how many selections linked and the reason each skipped item failed.
type ReconciliationRun struct {
	ID           uint
	CreatedAt    time.Time
	UpdatedAt    time.Time
	RunID        string
	TenantID     string
	TriggeredBy  string
	Scheduled    bool
	Status       RunStatus
	LinkedCount  int32
	SkippedCount int32

	Items []RunItem
}

// RunItem is the per-selection outcome inside a run. Failures are recorded
// here instead of aborting the batch.
type RunItem struct {
	ID            uint
	CreatedAt     time.Time
	RunID         string
	TransactionID string
	InvoiceID     string
	Score         float64
	Status        RunItemStatus
	Reason        string
}

// NewRun opens a run record in the running state.
func NewRun(runID, tenantID, triggeredBy string, scheduled bool) *ReconciliationRun {
	return &ReconciliationRun{
		RunID:       runID,
		TenantID:    tenantID,
		TriggeredBy: triggeredBy,
		Scheduled:   scheduled,
		Status:      RunRunning,
	}
}

// Complete closes the run with its final counters.
func (r *ReconciliationRun) Complete() {
	r.Status = RunCompleted
	for _, it := range r.Items {
		if it.Status == RunItemLinked {
			r.LinkedCount++
		} else {
			r.SkippedCount++
		}
	}
}
