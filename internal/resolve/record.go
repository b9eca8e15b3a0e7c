package resolve

import (
	"github.com/roach88/ledgerlens/internal/decode"
	"github.com/roach88/ledgerlens/internal/payload"
)

// Record is the canonical, fully decoded Project.
type Record struct {
	// ID is the ledger-assigned object id. Never empty in a returned record.
	ID string `json:"id"`

	// Key is the record's numeric table key, when one is known.
	Key *uint64 `json:"key,omitempty"`

	Title           string   `json:"title"`
	Summary         string   `json:"summary"`
	Description     string   `json:"description"`
	Category        string   `json:"category"`
	ExperienceLevel string   `json:"experience_level"`
	BudgetMin       uint64   `json:"budget_min"`
	BudgetMax       uint64   `json:"budget_max"`
	TimelineWeeks   uint64   `json:"timeline_weeks"`
	Skills          []string `json:"skills"`
	Owner           string   `json:"owner"`
	Status          string   `json:"status"`
	CreatedAtMs     int64    `json:"created_at_ms"`
	Attachments     []string `json:"attachments"`
}

// newRecord builds a record from decoded attributes. key overrides the
// embedded key when non-nil.
func newRecord(id string, key *uint64, a decode.Attributes) *Record {
	if key == nil && a.HasKey {
		k := a.Key
		key = &k
	}
	return &Record{
		ID:              id,
		Key:             key,
		Title:           a.Title,
		Summary:         a.Summary,
		Description:     a.Description,
		Category:        a.Category,
		ExperienceLevel: a.ExperienceLevel,
		BudgetMin:       a.BudgetMin,
		BudgetMax:       a.BudgetMax,
		TimelineWeeks:   a.TimelineWeeks,
		Skills:          nonNil(a.Skills),
		Owner:           a.Owner,
		Status:          a.Status,
		CreatedAtMs:     a.CreatedAtMs,
		Attachments:     nonNil(a.Attachments),
	}
}

// DecodeOnly normalizes a payload the caller already holds. It performs no
// ledger reads.
func DecodeOnly(raw payload.Value) decode.Attributes {
	return decode.Decode(raw)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func keyPtr(k uint64) *uint64 {
	return &k
}
