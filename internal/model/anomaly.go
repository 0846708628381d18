package model

// AnomalyKind names a data problem found while deriving figures.
type AnomalyKind string

const (
	// AnomalyMissingAccount: a posted line references an account id that is
	// not in the catalog. The line is left out of balances.
	AnomalyMissingAccount AnomalyKind = "missing_account"
	// AnomalyUnbalancedEntry: a posted entry's debits and credits differ.
	AnomalyUnbalancedEntry AnomalyKind = "unbalanced_entry"
	// AnomalyInvalidLine: a posted line breaks a per-line invariant.
	AnomalyInvalidLine AnomalyKind = "invalid_line"
)

// Anomaly records one problem row. Zero ids mean "not applicable".
type Anomaly struct {
	Kind        AnomalyKind `json:"kind"`
	EntryID     int64       `json:"entry_id,omitempty"`
	EntryNumber string      `json:"entry_number,omitempty"`
	LineID      int64       `json:"line_id,omitempty"`
	AccountID   int64       `json:"account_id,omitempty"`
	Detail      string      `json:"detail"`
}
