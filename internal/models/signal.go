// internal/models/signal.go
package models

import "time"

// Signal is one pushed trading suggestion. Records are append-only; the
// strategy text is stored verbatim.
type Signal struct {
	ID        string `json:"id"`
	Strategy  string `json:"strategy"`
	CreatedAt string `json:"createdAt"` // ISO-8601 UTC
}

func NewSignal(id, strategy string, at time.Time) Signal {
	return Signal{
		ID:        id,
		Strategy:  strategy,
		CreatedAt: at.UTC().Format(time.RFC3339),
	}
}
