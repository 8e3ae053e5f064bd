package event

import (
	"time"
)

type Event interface {
	Message() string
	Profile() string
	OccurredAt() time.Time
}

type BaseEvent struct {
	message    string
	profile    string
	occurredAt time.Time
}

func (b BaseEvent) Message() string {
	return b.message
}

func (b BaseEvent) Profile() string {
	return b.profile
}

func (b BaseEvent) OccurredAt() time.Time {
	return b.occurredAt
}

func Text(profile string, message string) BaseEvent {
	return BaseEvent{
		message:    message,
		profile:    profile,
		occurredAt: time.Now(),
	}
}

type FinishReason string

const (
	FinishedSuccess   FinishReason = "success"
	FinishedFailed    FinishReason = "failed"
	FinishedCancelled FinishReason = "cancelled"
	FinishedError     FinishReason = "error"
)

type CraftStartedEvent struct {
	BaseEvent
	SessionID string
	Strategy  string
	Mode      string
}

func CraftStarted(be BaseEvent, sessionID, strategy, mode string) CraftStartedEvent {
	return CraftStartedEvent{
		BaseEvent: be,
		SessionID: sessionID,
		Strategy:  strategy,
		Mode:      mode,
	}
}

type CraftFinishedEvent struct {
	BaseEvent
	SessionID string
	Reason    FinishReason
	Processed int
}

func CraftFinished(be BaseEvent, sessionID string, reason FinishReason, processed int) CraftFinishedEvent {
	return CraftFinishedEvent{
		BaseEvent: be,
		SessionID: sessionID,
		Reason:    reason,
		Processed: processed,
	}
}

// TunnelOpenedEvent announces the public address of the local server.
type TunnelOpenedEvent struct {
	BaseEvent
	URL string
}

func TunnelOpened(url string) TunnelOpenedEvent {
	return TunnelOpenedEvent{
		BaseEvent: Text("", "Remote control available at "+url),
		URL:       url,
	}
}
