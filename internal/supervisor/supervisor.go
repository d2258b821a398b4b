// Package supervisor owns the lifecycle of the two helper servers: it spawns
// them, watches for exit, probes readiness and health, and stops them with a
// bounded grace period. Crashed helpers are not restarted automatically;
// restarting is an explicit operator action.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/meetinghub/meetingd/internal/config"
)

// Health classifies the last probe result, independent of process existence.
type Health string

const (
	HealthUnknown Health = "unknown"
	HealthOK      Health = "ok"
	HealthFailed  Health = "failed"
)

// Snapshot is the externally visible state of one helper.
type Snapshot struct {
	Name            string     `json:"name"`
	Status          string     `json:"status"`
	Running         bool       `json:"running"`
	PID             int        `json:"pid,omitempty"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	UptimeSeconds   float64    `json:"uptime_seconds,omitempty"`
	LastHealthCheck *time.Time `json:"last_health_check,omitempty"`
	Health          Health     `json:"health"`
}

// ErrUnknownHelper is returned for names outside the supervised set.
var ErrUnknownHelper = errors.New("unknown helper")

// Prober is the supervisor-facing subset of the bridge used for probes.
type Prober interface {
	Ping(ctx context.Context, helper string) error
}

type helperState struct {
	command config.HelperCommand

	cmd             *exec.Cmd
	running         bool
	pid             int
	startedAt       time.Time
	health          Health
	lastHealthCheck time.Time
	done            chan struct{}
}

// Supervisor tracks both helper processes. It is the single writer of helper
// state; readers get snapshots.
type Supervisor struct {
	logger      *slog.Logger
	prober      Prober
	probeWindow time.Duration
	stopGrace   time.Duration

	mu      sync.Mutex
	helpers map[string]*helperState
}

// New constructs a supervisor for the configured helper commands.
func New(cfg config.HelpersConfig, prober Prober, logger *slog.Logger) *Supervisor {
	return &Supervisor{
		logger:      logger,
		prober:      prober,
		probeWindow: cfg.ProbeWindow,
		stopGrace:   cfg.StopGrace,
		helpers: map[string]*helperState{
			"transcriber": {command: cfg.Transcriber, health: HealthUnknown},
			"scheduler":   {command: cfg.Scheduler, health: HealthUnknown},
		},
	}
}

// Names returns the supervised helper names in a fixed order.
func (s *Supervisor) Names() []string {
	return []string{"transcriber", "scheduler"}
}

// Start launches the named helper if it is not already running. A helper that
// exits immediately or never answers its readiness probe is torn down and
// reported as a start failure; the caller decides what to do next.
func (s *Supervisor) Start(ctx context.Context, name string) error {
	s.mu.Lock()
	h, ok := s.helpers[name]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("start %s: %w", name, ErrUnknownHelper)
	}
	if h.running {
		s.mu.Unlock()
		s.logger.Info("helper already running", "helper", name)
		return nil
	}

	cmd := exec.Command(h.command.Path, h.command.Args...)
	cmd.Stderr = os.Stderr
	cmd.Env = os.Environ()

	if err := cmd.Start(); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("start %s: %w", name, err)
	}

	done := make(chan struct{})
	h.cmd = cmd
	h.running = true
	h.pid = cmd.Process.Pid
	h.startedAt = time.Now()
	h.health = HealthUnknown
	h.done = done
	s.mu.Unlock()

	s.logger.Info("helper started", "helper", name, "pid", cmd.Process.Pid)

	go func() {
		err := cmd.Wait()
		s.mu.Lock()
		if h.done == done {
			h.running = false
			h.pid = 0
		}
		s.mu.Unlock()
		close(done)
		if err != nil {
			s.logger.Warn("helper exited", "helper", name, "error", err.Error())
		} else {
			s.logger.Info("helper exited", "helper", name)
		}
	}()

	if err := s.awaitReady(ctx, name, done); err != nil {
		s.logger.Error("helper failed readiness", "helper", name, "error", err.Error())
		_ = s.Stop(name)
		return fmt.Errorf("start %s: %w", name, err)
	}

	s.mu.Lock()
	h.health = HealthOK
	h.lastHealthCheck = time.Now()
	s.mu.Unlock()
	return nil
}

// awaitReady polls the helper's socket until it answers, its process exits,
// or the bounded readiness window elapses.
func (s *Supervisor) awaitReady(ctx context.Context, name string, done <-chan struct{}) error {
	deadline := time.Now().Add(s.probeWindow)
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		probeCtx, cancel := context.WithTimeout(ctx, s.probeWindow)
		err := s.prober.Ping(probeCtx, name)
		cancel()
		if err == nil {
			return nil
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("not ready within %s: %w", s.probeWindow, err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-done:
			return errors.New("helper exited during startup")
		case <-ticker.C:
		}
	}
}

// Stop terminates the named helper: SIGTERM, bounded wait, then SIGKILL.
// Stopping a helper that is not running is a no-op success.
func (s *Supervisor) Stop(name string) error {
	s.mu.Lock()
	h, ok := s.helpers[name]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("stop %s: %w", name, ErrUnknownHelper)
	}
	if !h.running || h.cmd == nil || h.cmd.Process == nil {
		h.running = false
		h.pid = 0
		s.mu.Unlock()
		return nil
	}
	proc := h.cmd.Process
	done := h.done
	s.mu.Unlock()

	if err := proc.Signal(syscall.SIGTERM); err != nil && !errors.Is(err, os.ErrProcessDone) {
		s.logger.Warn("signal helper failed", "helper", name, "error", err.Error())
	}

	select {
	case <-done:
	case <-time.After(s.stopGrace):
		s.logger.Warn("helper ignored SIGTERM; killing", "helper", name)
		_ = proc.Kill()
		<-done
	}

	s.mu.Lock()
	h.running = false
	h.pid = 0
	s.mu.Unlock()

	s.logger.Info("helper stopped", "helper", name)
	return nil
}

// StopAll stops every supervised helper; used on daemon shutdown.
func (s *Supervisor) StopAll() {
	for _, name := range s.Names() {
		_ = s.Stop(name)
	}
}

// Status returns the current snapshot for one helper.
func (s *Supervisor) Status(name string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.helpers[name]
	if !ok {
		return Snapshot{}, fmt.Errorf("status %s: %w", name, ErrUnknownHelper)
	}
	return snapshotLocked(name, h), nil
}

// StatusAll returns snapshots for every supervised helper.
func (s *Supervisor) StatusAll() map[string]Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]Snapshot, len(s.helpers))
	for name, h := range s.helpers {
		out[name] = snapshotLocked(name, h)
	}
	return out
}

// HealthCheck probes the named helper and records the result. It never
// mutates running: a live-but-unhealthy process and a crashed one both show
// health=failed, while running only flips when the wait goroutine observes
// the exit.
func (s *Supervisor) HealthCheck(ctx context.Context, name string) (Health, error) {
	s.mu.Lock()
	h, ok := s.helpers[name]
	s.mu.Unlock()
	if !ok {
		return HealthUnknown, fmt.Errorf("health %s: %w", name, ErrUnknownHelper)
	}

	health := HealthOK
	if err := s.prober.Ping(ctx, name); err != nil {
		health = HealthFailed
	}

	s.mu.Lock()
	h.health = health
	h.lastHealthCheck = time.Now()
	s.mu.Unlock()
	return health, nil
}

func snapshotLocked(name string, h *helperState) Snapshot {
	snap := Snapshot{
		Name:    name,
		Status:  "stopped",
		Running: h.running,
		Health:  h.health,
	}
	if h.running {
		started := h.startedAt
		snap.Status = "running"
		snap.PID = h.pid
		snap.StartedAt = &started
		snap.UptimeSeconds = time.Since(started).Seconds()
	}
	if !h.lastHealthCheck.IsZero() {
		checked := h.lastHealthCheck
		snap.LastHealthCheck = &checked
	}
	return snap
}
