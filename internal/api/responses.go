package api

import (
	"github.com/meetinghub/meetingd/internal/nanda"
	"github.com/meetinghub/meetingd/internal/orchestrator"
	"github.com/meetinghub/meetingd/internal/store"
	"github.com/meetinghub/meetingd/internal/supervisor"
)

// Response bodies shared with API clients. Business failures travel as
// success=false inside 200-class bodies; 4xx is reserved for malformed or
// misaddressed requests.

// HealthResponse is the GET /health body.
type HealthResponse struct {
	Status      string                         `json:"status"`
	Timestamp   string                         `json:"timestamp"`
	Servers     map[string]supervisor.Snapshot `json:"servers"`
	Environment map[string]any                 `json:"environment"`
}

// ServersResponse is the body for server start/stop commands.
type ServersResponse struct {
	Success bool                           `json:"success"`
	Results map[string]bool                `json:"results"`
	Status  map[string]supervisor.Snapshot `json:"status"`
}

// UploadResponse is the POST /upload body.
type UploadResponse struct {
	Success         bool   `json:"success"`
	TranscriptionID string `json:"transcription_id,omitempty"`
	Status          string `json:"status,omitempty"`
	Error           string `json:"error,omitempty"`
}

// CommandResponse is the generic success/error body.
type CommandResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// ScheduleResponse is the POST /schedule-meetings body.
type ScheduleResponse struct {
	Success        bool                          `json:"success"`
	ScheduledCount int                           `json:"scheduled_count"`
	Results        []orchestrator.ScheduleResult `json:"results"`
}

// RegisterResponse is the POST /nanda/register body.
type RegisterResponse struct {
	Success         bool              `json:"success"`
	RegisteredCount int               `json:"registered_count"`
	AgentIDs        map[string]string `json:"agent_ids,omitempty"`
	Message         string            `json:"message,omitempty"`
}

// DiscoverResponse is the GET /nanda/discover body.
type DiscoverResponse struct {
	Success bool          `json:"success"`
	Agents  []nanda.Agent `json:"agents"`
	Count   int           `json:"count"`
	Error   string        `json:"error,omitempty"`
}

// TranscriptionsResponse is the GET /transcriptions body.
type TranscriptionsResponse struct {
	Transcriptions []store.Transcription `json:"transcriptions"`
}

// MeetingsResponse is the GET /meetings body.
type MeetingsResponse struct {
	Meetings []store.Meeting `json:"meetings"`
}
