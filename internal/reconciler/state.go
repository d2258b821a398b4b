package reconciler

import (
	"context"
	"sync"
	"time"

	"github.com/meetinghub/meetingd/internal/store"
	"github.com/meetinghub/meetingd/internal/supervisor"
)

// View is a snapshot of everything the client currently knows.
type View struct {
	Jobs     map[string]store.Transcription
	Meetings map[string]store.Meeting
	Servers  map[string]supervisor.Snapshot
	LastSync time.Time
	LastErr  string
}

// Reconciler keeps a local view in sync with the coordinator by polling.
// A failed poll records the error and leaves the prior view untouched, so a
// transient network failure never wipes what the client already knows.
type Reconciler struct {
	client *Client

	mu       sync.RWMutex
	jobs     map[string]store.Transcription
	meetings map[string]store.Meeting
	servers  map[string]supervisor.Snapshot
	lastSync time.Time
	lastErr  string
}

// New constructs an empty reconciler over the given client.
func New(client *Client) *Reconciler {
	return &Reconciler{
		client:   client,
		jobs:     make(map[string]store.Transcription),
		meetings: make(map[string]store.Meeting),
		servers:  make(map[string]supervisor.Snapshot),
	}
}

// Poll fetches jobs, meetings, and server state, then merges them into the
// local view. The merge is all-or-nothing: any fetch failure aborts the
// whole cycle before the view is touched.
func (r *Reconciler) Poll(ctx context.Context) error {
	jobs, err := r.client.Transcriptions(ctx)
	if err != nil {
		r.recordError(err)
		return err
	}
	meetings, err := r.client.Meetings(ctx)
	if err != nil {
		r.recordError(err)
		return err
	}
	servers, err := r.client.ServersStatus(ctx)
	if err != nil {
		r.recordError(err)
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, job := range jobs {
		r.jobs[job.ID] = job
	}
	for _, m := range meetings {
		r.meetings[m.ID] = m
	}
	for name, snap := range servers {
		r.servers[name] = snap
	}
	r.lastSync = time.Now()
	r.lastErr = ""
	return nil
}

// Snapshot returns a copy of the current view.
func (r *Reconciler) Snapshot() View {
	r.mu.RLock()
	defer r.mu.RUnlock()

	view := View{
		Jobs:     make(map[string]store.Transcription, len(r.jobs)),
		Meetings: make(map[string]store.Meeting, len(r.meetings)),
		Servers:  make(map[string]supervisor.Snapshot, len(r.servers)),
		LastSync: r.lastSync,
		LastErr:  r.lastErr,
	}
	for id, job := range r.jobs {
		view.Jobs[id] = job
	}
	for id, m := range r.meetings {
		view.Meetings[id] = m
	}
	for name, snap := range r.servers {
		view.Servers[name] = snap
	}
	return view
}

func (r *Reconciler) recordError(err error) {
	r.mu.Lock()
	r.lastErr = err.Error()
	r.mu.Unlock()
}
