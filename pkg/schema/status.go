// Package schema defines the JSON shapes served by the AlphaBot HTTP API.
package schema

import "time"

// StatusReport describes who holds the workstation.
type StatusReport struct {
	Resource   string     `json:"resource"`
	Available  bool       `json:"available"`
	Holder     string     `json:"holder,omitempty"`
	Since      *time.Time `json:"since,omitempty"`
	ElapsedMin *float64   `json:"elapsed_min,omitempty"`
}

// UsageRecord is one recognized command from the usage log.
type UsageRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Actor     string    `json:"actor"`
	Text      string    `json:"text"`
}
