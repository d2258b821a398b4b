// Package store holds the in-memory job tables tracked by the coordinator:
// transcription jobs and the meeting candidates detected from them.
package store

import "time"

// Status is the lifecycle state of a transcription job.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether a status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Transcription is one uploaded audio artifact tracked to completion or failure.
type Transcription struct {
	ID               string     `json:"id"`
	Filename         string     `json:"filename"`
	Status           Status     `json:"status"`
	UploadedAt       time.Time  `json:"uploaded_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	Text             string     `json:"text,omitempty"`
	Error            string     `json:"error,omitempty"`
	Language         string     `json:"language,omitempty"`
	DurationSeconds  float64    `json:"duration_seconds,omitempty"`
	MeetingsAnalyzed bool       `json:"meetings_analyzed"`
}

// CalendarEvent references the external calendar entry created for a meeting.
type CalendarEvent struct {
	EventID   string `json:"event_id"`
	EventLink string `json:"event_link,omitempty"`
}

// Meeting is one detected meeting mention awaiting or holding a calendar slot.
type Meeting struct {
	ID            string         `json:"id"`
	SourceID      string         `json:"source_id"`
	OriginalText  string         `json:"original_text"`
	Datetime      time.Time      `json:"datetime"`
	Topic         string         `json:"topic,omitempty"`
	Participants  []string       `json:"participants,omitempty"`
	Confidence    int            `json:"confidence"`
	Context       string         `json:"context,omitempty"`
	Scheduled     bool           `json:"scheduled"`
	ScheduledAt   *time.Time     `json:"scheduled_at,omitempty"`
	CalendarEvent *CalendarEvent `json:"calendar_event,omitempty"`
	ScheduleError string         `json:"schedule_error,omitempty"`
	DetectedAt    time.Time      `json:"detected_at"`
}
