// Package orchestrator drives a submitted audio artifact through
// transcription, meeting detection, and scheduling, mapping every bridge
// failure onto observable job state instead of propagating it upward.
package orchestrator

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/meetinghub/meetingd/internal/bridge"
	"github.com/meetinghub/meetingd/internal/store"
)

// ErrNotCompleted is returned when detection is requested before the source
// job has a transcript.
var ErrNotCompleted = errors.New("transcription is not completed")

// Caller is the orchestrator-facing subset of the bridge.
type Caller interface {
	Call(ctx context.Context, helper, tool string, args any) (json.RawMessage, error)
}

// ScheduleResult is the per-candidate outcome of one schedule pass.
type ScheduleResult struct {
	MeetingID string `json:"meeting_id"`
	Scheduled bool   `json:"scheduled"`
	EventID   string `json:"event_id,omitempty"`
	Error     string `json:"error,omitempty"`
	Message   string `json:"message"`
}

// ScheduleOutcome aggregates a schedule pass: itemized results plus the
// count of successes, so the caller can retry only the failed subset.
type ScheduleOutcome struct {
	ScheduledCount int              `json:"scheduled_count"`
	Results        []ScheduleResult `json:"results"`
}

// Orchestrator owns job state transitions. It is constructed with its store
// and bridge; there is no ambient global state.
type Orchestrator struct {
	logger *slog.Logger
	store  *store.Store
	bridge Caller

	// detectMu serializes meeting detection so the meetings_analyzed guard
	// holds under concurrent analyze requests for the same job.
	detectMu sync.Mutex
}

// New constructs an orchestrator over the given store and bridge.
func New(st *store.Store, caller Caller, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{logger: logger, store: st, bridge: caller}
}

// Submit registers a pending transcription job and transcribes it in the
// background. The pending -> processing -> terminal sequence is applied in
// distinct store writes so pollers observe each state.
func (o *Orchestrator) Submit(audio []byte, filename, language, prompt string) string {
	job := o.store.CreateTranscription(filename)
	o.logger.Info("transcription submitted", "job_id", job.ID, "filename", filename, "bytes", len(audio))

	go o.process(job.ID, audio, filename, language, prompt)
	return job.ID
}

// process runs one job to completion or failure. It deliberately detaches
// from the submitting request's context: once submitted, a job runs until
// its bridge call returns or times out.
func (o *Orchestrator) process(jobID string, audio []byte, filename, language, prompt string) {
	if err := o.store.UpdateTranscription(jobID, func(t *store.Transcription) {
		t.Status = store.StatusProcessing
	}); err != nil {
		o.logger.Error("job transition failed", "job_id", jobID, "error", err.Error())
		return
	}

	args := TranscribeArgs{
		AudioBase64: base64.StdEncoding.EncodeToString(audio),
		Filename:    filename,
		Language:    language,
		Prompt:      prompt,
	}

	raw, err := o.bridge.Call(context.Background(), bridge.HelperTranscriber, bridge.ToolTranscribeAudio, args)
	if err != nil {
		o.failJob(jobID, describeBridgeError("transcription", err))
		return
	}

	var result TranscribeResult
	if err := json.Unmarshal(raw, &result); err != nil {
		o.failJob(jobID, "transcription helper returned an unreadable result")
		return
	}

	now := time.Now().UTC()
	if err := o.store.UpdateTranscription(jobID, func(t *store.Transcription) {
		t.Status = store.StatusCompleted
		t.Text = result.Text
		t.Language = result.Language
		t.DurationSeconds = result.DurationSeconds
		t.CompletedAt = &now
	}); err != nil {
		o.logger.Error("job completion write failed", "job_id", jobID, "error", err.Error())
		return
	}
	o.logger.Info("transcription completed", "job_id", jobID, "chars", len(result.Text))
}

// failJob flips a job to failed with a human-readable cause.
func (o *Orchestrator) failJob(jobID, cause string) {
	if err := o.store.UpdateTranscription(jobID, func(t *store.Transcription) {
		t.Status = store.StatusFailed
		t.Error = cause
	}); err != nil {
		o.logger.Error("job failure write failed", "job_id", jobID, "error", err.Error())
		return
	}
	o.logger.Warn("transcription failed", "job_id", jobID, "cause", cause)
}

// DetectMeetings runs meeting detection on a completed job exactly once.
// Unknown jobs return store.ErrNotFound; incomplete jobs return
// ErrNotCompleted; an already-analyzed job is a no-op success.
func (o *Orchestrator) DetectMeetings(ctx context.Context, jobID string) error {
	o.detectMu.Lock()
	defer o.detectMu.Unlock()

	job, err := o.store.GetTranscription(jobID)
	if err != nil {
		return err
	}
	if job.Status != store.StatusCompleted {
		return fmt.Errorf("detect meetings on %s (status %s): %w", jobID, job.Status, ErrNotCompleted)
	}
	if job.MeetingsAnalyzed {
		return nil
	}

	raw, err := o.bridge.Call(ctx, bridge.HelperScheduler, bridge.ToolDetectMeetings, DetectArgs{
		Text:     job.Text,
		SourceID: job.ID,
	})
	if err != nil {
		return fmt.Errorf("detect meetings on %s: %w", jobID, err)
	}

	var result DetectResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return fmt.Errorf("detect meetings on %s: %w", jobID, bridge.ErrProtocol)
	}

	batch := make([]store.Meeting, 0, len(result.Meetings))
	for _, c := range result.Meetings {
		when, perr := parseCandidateTime(c.Datetime)
		if perr != nil {
			o.logger.Warn("dropping candidate with unreadable datetime",
				"job_id", jobID, "datetime", c.Datetime)
			continue
		}
		batch = append(batch, store.Meeting{
			OriginalText: c.OriginalText,
			Datetime:     when,
			Topic:        c.Topic,
			Participants: c.Participants,
			Confidence:   c.Confidence,
			Context:      c.Context,
		})
	}

	created := o.store.CreateMeetings(jobID, batch)
	if err := o.store.UpdateTranscription(jobID, func(t *store.Transcription) {
		t.MeetingsAnalyzed = true
	}); err != nil {
		return err
	}

	o.logger.Info("meetings detected", "job_id", jobID, "count", len(created))
	return nil
}

// Schedule creates calendar events for the targeted candidates. With no ids
// it targets every unscheduled candidate. Partial failure is expected: each
// candidate gets its own result entry and the pass continues past failures.
func (o *Orchestrator) Schedule(ctx context.Context, meetingIDs []string) ScheduleOutcome {
	targets := o.scheduleTargets(meetingIDs)

	outcome := ScheduleOutcome{Results: make([]ScheduleResult, 0, len(targets))}
	for _, id := range targets {
		outcome.Results = append(outcome.Results, o.scheduleOne(ctx, id))
	}
	for _, r := range outcome.Results {
		if r.Scheduled {
			outcome.ScheduledCount++
		}
	}

	o.logger.Info("schedule pass finished",
		"targeted", len(targets),
		"scheduled", outcome.ScheduledCount,
	)
	return outcome
}

// scheduleTargets resolves the candidate set for one pass, excluding
// candidates that already hold a calendar slot.
func (o *Orchestrator) scheduleTargets(meetingIDs []string) []string {
	if len(meetingIDs) == 0 {
		unscheduled := o.store.ListUnscheduled()
		ids := make([]string, 0, len(unscheduled))
		for _, m := range unscheduled {
			ids = append(ids, m.ID)
		}
		return ids
	}

	ids := make([]string, 0, len(meetingIDs))
	for _, id := range meetingIDs {
		m, err := o.store.GetMeeting(id)
		if err != nil || m.Scheduled {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// scheduleOne attempts one calendar creation and records the outcome on the
// candidate either way.
func (o *Orchestrator) scheduleOne(ctx context.Context, id string) ScheduleResult {
	m, err := o.store.GetMeeting(id)
	if err != nil {
		return ScheduleResult{MeetingID: id, Error: "meeting not found", Message: "not found: " + id}
	}

	raw, err := o.bridge.Call(ctx, bridge.HelperScheduler, bridge.ToolCreateEvent, EventArgs{
		MeetingID:    m.ID,
		OriginalText: m.OriginalText,
		Datetime:     m.Datetime.Format(time.RFC3339),
		Topic:        m.Topic,
		Participants: m.Participants,
		Context:      m.Context,
	})
	if err != nil {
		cause := describeBridgeError("scheduling", err)
		if uerr := o.store.UpdateMeeting(id, func(mm *store.Meeting) {
			mm.ScheduleError = cause
		}); uerr != nil {
			o.logger.Error("meeting error write failed", "meeting_id", id, "error", uerr.Error())
		}
		return ScheduleResult{MeetingID: id, Error: cause, Message: "failed: " + m.OriginalText}
	}

	var event EventResult
	if err := json.Unmarshal(raw, &event); err != nil {
		cause := "scheduling helper returned an unreadable result"
		_ = o.store.UpdateMeeting(id, func(mm *store.Meeting) { mm.ScheduleError = cause })
		return ScheduleResult{MeetingID: id, Error: cause, Message: "failed: " + m.OriginalText}
	}

	now := time.Now().UTC()
	if err := o.store.UpdateMeeting(id, func(mm *store.Meeting) {
		mm.Scheduled = true
		mm.ScheduledAt = &now
		mm.CalendarEvent = &store.CalendarEvent{EventID: event.EventID, EventLink: event.EventLink}
		mm.ScheduleError = ""
	}); err != nil {
		o.logger.Error("meeting schedule write failed", "meeting_id", id, "error", err.Error())
		return ScheduleResult{MeetingID: id, Error: err.Error(), Message: "failed: " + m.OriginalText}
	}

	return ScheduleResult{
		MeetingID: id,
		Scheduled: true,
		EventID:   event.EventID,
		Message:   "scheduled: " + m.OriginalText,
	}
}

// describeBridgeError turns a bridge failure into the human-readable cause
// recorded on job and meeting state.
func describeBridgeError(stage string, err error) string {
	var toolErr *bridge.ToolError
	switch {
	case errors.Is(err, bridge.ErrUnavailable):
		return stage + " helper is not running"
	case errors.Is(err, bridge.ErrTimeout):
		return stage + " timed out waiting for the helper"
	case errors.Is(err, bridge.ErrProtocol):
		return stage + " helper sent an unreadable response"
	case errors.As(err, &toolErr):
		return stage + " failed: " + toolErr.Message
	default:
		return stage + " failed: " + err.Error()
	}
}

// parseCandidateTime accepts the datetime layouts helpers are allowed to emit.
func parseCandidateTime(raw string) (time.Time, error) {
	layouts := []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized datetime %q", raw)
}
