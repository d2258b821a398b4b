package reconciler

import (
	"context"
	"errors"
	"time"

	"github.com/meetinghub/meetingd/internal/store"
)

// ErrStillProcessing indicates the job did not reach a terminal status
// within the monitor's attempt budget. The job may still finish later; the
// caller should tell the user it is taking longer than expected rather than
// treating it as failed.
var ErrStillProcessing = errors.New("transcription is taking longer than expected")

// MonitorOptions bounds one upload monitor run.
type MonitorOptions struct {
	MaxAttempts int
	Delay       time.Duration
}

// DefaultMonitorOptions matches the upload flow's expected transcription
// turnaround: 30 polls, 2 seconds apart.
func DefaultMonitorOptions() MonitorOptions {
	return MonitorOptions{MaxAttempts: 30, Delay: 2 * time.Second}
}

// MonitorUpload polls one job until it reaches a terminal status or the
// attempt budget runs out. Individual failed polls count against the budget
// but do not abort the monitor.
func (c *Client) MonitorUpload(ctx context.Context, id string, opts MonitorOptions) (store.Transcription, error) {
	if opts.MaxAttempts <= 0 {
		opts = DefaultMonitorOptions()
	}

	var last store.Transcription
	for attempt := 0; attempt < opts.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return last, ctx.Err()
			case <-time.After(opts.Delay):
			}
		}

		job, err := c.Transcription(ctx, id)
		if err != nil {
			continue
		}
		last = job
		if job.Status.Terminal() {
			return job, nil
		}
	}

	return last, ErrStillProcessing
}
