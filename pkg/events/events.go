// Package events defines event types for analysis-run lifecycle
// notifications.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

// Topic carries every run lifecycle event.
const Topic = "callsheet.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	RunStartedEvent      EventType = "run.started"
	RunFinishedEvent     EventType = "run.finished"
	RunFailedEvent       EventType = "run.failed"
	NodeFinishedEvent    EventType = "node.finished"
	TaskRetriedEvent     EventType = "task.retried"
	FallbackAppliedEvent EventType = "task.fallback_applied"
	ReviewEvaluatedEvent EventType = "review.evaluated"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	ThreadID  string         `json:"thread_id"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

func NewBaseEvent(eventType EventType, threadID string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		ThreadID:  threadID,
	}
}

// RunStarted is published when a run enters the graph, fresh or resumed.
type RunStarted struct {
	BaseEvent

	RevisionMode bool `json:"revision_mode"`
}

func (e RunStarted) GetType() EventType {
	return RunStartedEvent
}

// RunFinished is published when a run reaches a terminal stage.
type RunFinished struct {
	BaseEvent

	TaskComplete bool          `json:"task_complete"`
	Duration     time.Duration `json:"duration"`
}

func (e RunFinished) GetType() EventType {
	return RunFinishedEvent
}

// RunFailed is published when a run aborts, e.g. on the step ceiling.
type RunFailed struct {
	BaseEvent

	Error string `json:"error"`
	Steps int    `json:"steps"`
}

func (e RunFailed) GetType() EventType {
	return RunFailedEvent
}

// NodeFinished is published after a node's patch is merged into state.
type NodeFinished struct {
	BaseEvent

	Node         string `json:"node"`
	Category     string `json:"category,omitempty"`
	UsedFallback bool   `json:"used_fallback"`
}

func (e NodeFinished) GetType() EventType {
	return NodeFinishedEvent
}

// TaskRetried is published before each backoff delay between attempts.
type TaskRetried struct {
	BaseEvent

	Node    string        `json:"node"`
	Attempt int           `json:"attempt"`
	Delay   time.Duration `json:"delay"`
	Error   string        `json:"error"`
}

func (e TaskRetried) GetType() EventType {
	return TaskRetriedEvent
}

// FallbackApplied is published when retries are exhausted or validation
// fails and the category placeholder is substituted.
type FallbackApplied struct {
	BaseEvent

	Node   string `json:"node"`
	Reason string `json:"reason"`
}

func (e FallbackApplied) GetType() EventType {
	return FallbackAppliedEvent
}

// ReviewEvaluated is published after the review gate picks an edge.
type ReviewEvaluated struct {
	BaseEvent

	Decision string `json:"decision"` // "end" or "extraction"
}

func (e ReviewEvaluated) GetType() EventType {
	return ReviewEvaluatedEvent
}
