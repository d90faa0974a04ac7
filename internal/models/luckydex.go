package models

// Entry represents a single candidate row from the source table.
// It carries the drawable number together with its display metadata.
type Entry struct {
	ID          string `json:"id"`
	Number      string `json:"number"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// DrawResult is the outcome of one unique draw. TotalEntries and
// EligibleEntries are informational counters, not part of the
// uniqueness contract.
type DrawResult struct {
	Entry
	TotalEntries    int  `json:"total_entries"`
	EligibleEntries int  `json:"eligible_entries"`
	MockData        bool `json:"mock_data"`
	WinnerSaved     bool `json:"winner_saved"`
}

// WinnerRecord stores one persisted draw, copied from the winning Entry
// at draw time. Records are append-only and never mutated.

type WinnerRecord struct {
	Timestamp   string `json:"timestamp"`
	ID          string `json:"id"`
	Number      string `json:"number"`
	Name        string `json:"name"`
	Description string `json:"description"`
}
