package crafter

import "time"

type Status string

const (
	NotStarted Status = "not_started"
	Crafting   Status = "crafting"
	Succeeded  Status = "succeeded"
	Failed     Status = "failed"
	Cancelled  Status = "cancelled"
	Errored    Status = "error"
)

// Stats is the last known state of a profile, returned by the status API.
type Stats struct {
	Status     Status    `json:"status"`
	SessionID  string    `json:"sessionId,omitempty"`
	StartedAt  time.Time `json:"startedAt,omitzero"`
	FinishedAt time.Time `json:"finishedAt,omitzero"`
	Processed  int       `json:"processed"`
	Error      string    `json:"error,omitempty"`
}
