package store

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned for unknown job or meeting ids.
var ErrNotFound = errors.New("not found")

// Store is the coordinator's only mutable shared state. All reads return
// snapshots; all writes go through Update* mutators under one lock, so a
// status transition and its payload are never visible half-applied.
type Store struct {
	mu             sync.RWMutex
	transcriptions map[string]*Transcription
	meetings       map[string]*Meeting
}

// New creates an empty store. State never survives a process restart.
func New() *Store {
	return &Store{
		transcriptions: make(map[string]*Transcription),
		meetings:       make(map[string]*Meeting),
	}
}

// CreateTranscription registers a new pending job and returns its snapshot.
func (s *Store) CreateTranscription(filename string) Transcription {
	job := &Transcription{
		ID:         uuid.NewString(),
		Filename:   filename,
		Status:     StatusPending,
		UploadedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.transcriptions[job.ID] = job
	s.mu.Unlock()

	return *job
}

// GetTranscription returns a snapshot of one job.
func (s *Store) GetTranscription(id string) (Transcription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.transcriptions[id]
	if !ok {
		return Transcription{}, fmt.Errorf("transcription %s: %w", id, ErrNotFound)
	}
	return *job, nil
}

// ListTranscriptions returns job snapshots ordered by upload time.
func (s *Store) ListTranscriptions() []Transcription {
	s.mu.RLock()
	out := make([]Transcription, 0, len(s.transcriptions))
	for _, job := range s.transcriptions {
		out = append(out, *job)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].UploadedAt.Equal(out[j].UploadedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].UploadedAt.Before(out[j].UploadedAt)
	})
	return out
}

// UpdateTranscription applies one atomic mutation to a job. Illegal status
// transitions are rejected so monotonicity holds at the store boundary.
func (s *Store) UpdateTranscription(id string, fn func(*Transcription)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.transcriptions[id]
	if !ok {
		return fmt.Errorf("transcription %s: %w", id, ErrNotFound)
	}

	next := *job
	fn(&next)
	if err := checkTransition(job.Status, next.Status); err != nil {
		return err
	}
	next.ID = job.ID
	*job = next
	return nil
}

// CreateMeetings stores a detected batch for one source job, assigning
// sequential per-source ids, and returns the stored snapshots.
func (s *Store) CreateMeetings(sourceID string, batch []Meeting) []Meeting {
	now := time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Meeting, 0, len(batch))
	for i, m := range batch {
		m.ID = fmt.Sprintf("%s_meeting_%d", sourceID, i+1)
		m.SourceID = sourceID
		m.Scheduled = false
		m.DetectedAt = now
		stored := m
		s.meetings[stored.ID] = &stored
		out = append(out, stored)
	}
	return out
}

// GetMeeting returns a snapshot of one meeting candidate.
func (s *Store) GetMeeting(id string) (Meeting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.meetings[id]
	if !ok {
		return Meeting{}, fmt.Errorf("meeting %s: %w", id, ErrNotFound)
	}
	return *m, nil
}

// ListMeetings returns meeting snapshots ordered by detection time.
func (s *Store) ListMeetings() []Meeting {
	s.mu.RLock()
	out := make([]Meeting, 0, len(s.meetings))
	for _, m := range s.meetings {
		out = append(out, *m)
	}
	s.mu.RUnlock()

	sortMeetings(out)
	return out
}

// ListUnscheduled returns every candidate not yet holding a calendar slot.
func (s *Store) ListUnscheduled() []Meeting {
	s.mu.RLock()
	out := make([]Meeting, 0, len(s.meetings))
	for _, m := range s.meetings {
		if !m.Scheduled {
			out = append(out, *m)
		}
	}
	s.mu.RUnlock()

	sortMeetings(out)
	return out
}

// UpdateMeeting applies one atomic mutation to a candidate. A scheduled
// meeting never reverts, and calendar_event is present iff scheduled.
func (s *Store) UpdateMeeting(id string, fn func(*Meeting)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.meetings[id]
	if !ok {
		return fmt.Errorf("meeting %s: %w", id, ErrNotFound)
	}

	next := *m
	fn(&next)
	if m.Scheduled && !next.Scheduled {
		return fmt.Errorf("meeting %s: scheduled flag cannot revert", id)
	}
	if next.Scheduled != (next.CalendarEvent != nil) {
		return fmt.Errorf("meeting %s: calendar_event must be present iff scheduled", id)
	}
	next.ID = m.ID
	next.SourceID = m.SourceID
	*m = next
	return nil
}

func sortMeetings(out []Meeting) {
	sort.Slice(out, func(i, j int) bool {
		if out[i].DetectedAt.Equal(out[j].DetectedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].DetectedAt.Before(out[j].DetectedAt)
	})
}
