package graduation

import (
	"sort"
	"sync"
	"time"

	"pumpx-core/internal/domain"
	"pumpx-core/internal/observability"
)

// Tracker holds graduation records and enforces the one-way state
// machine: BONDING -> GRADUATED, no reverse transition. Observing an
// eligible evaluation for an already-graduated token is a no-op.
type Tracker struct {
	mu      sync.Mutex
	records map[string]*domain.GraduationRecord
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{records: make(map[string]*domain.GraduationRecord)}
}

// Observe applies an evaluation outcome for a token. It returns the
// current record and whether the BONDING -> GRADUATED transition fired
// on this call. The transition fires at most once per token.
func (t *Tracker) Observe(tokenID string, eval domain.GraduationEvaluation, now time.Time) (domain.GraduationRecord, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.records[tokenID]
	if !ok {
		rec = &domain.GraduationRecord{TokenID: tokenID, Status: domain.GraduationStatusBonding}
		t.records[tokenID] = rec
	}

	if rec.Status == domain.GraduationStatusGraduated || !eval.Eligible {
		return *rec, false
	}

	graduatedAt := now
	rec.Status = domain.GraduationStatusGraduated
	rec.GraduatedAt = &graduatedAt
	observability.RecordGraduation()
	return *rec, true
}

// Get returns the record for a token, if one exists.
func (t *Tracker) Get(tokenID string) (domain.GraduationRecord, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.records[tokenID]
	if !ok {
		return domain.GraduationRecord{}, false
	}
	return *rec, true
}

// Records returns all records sorted by token ID for deterministic output.
func (t *Tracker) Records() []domain.GraduationRecord {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]domain.GraduationRecord, 0, len(t.records))
	for _, rec := range t.records {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TokenID < out[j].TokenID })
	return out
}
