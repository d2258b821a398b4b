// Package bridge provides the typed call path from the coordinator to a
// running helper server, mapping transport failures onto a small error
// taxonomy the orchestrator can match exhaustively.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/meetinghub/meetingd/internal/config"
	"github.com/meetinghub/meetingd/internal/ipc"
)

// Helper names addressable through the bridge.
const (
	HelperTranscriber = "transcriber"
	HelperScheduler   = "scheduler"
)

// Tool names exposed by the helper servers.
const (
	ToolTranscribeAudio  = "transcribe_audio"
	ToolDetectMeetings   = "detect_meetings"
	ToolCreateEvent      = "create_event"
	ToolUpcomingMeetings = "upcoming_meetings"
)

var (
	// ErrUnavailable indicates the helper is not running or not listening.
	ErrUnavailable = errors.New("helper unavailable")
	// ErrTimeout indicates the call exceeded its bounded window.
	ErrTimeout = errors.New("helper call timed out")
	// ErrProtocol indicates the helper reply could not be parsed.
	ErrProtocol = errors.New("helper protocol error")
)

// ToolError carries a structured failure reported by the helper itself.
type ToolError struct {
	Helper  string
	Tool    string
	Message string
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("%s/%s: %s", e.Helper, e.Tool, e.Message)
}

// Client sends tool requests to helper sockets with per-tool timeouts.
type Client struct {
	socketDir string
	timeouts  config.TimeoutConfig
	logger    *slog.Logger
}

// New constructs a bridge client rooted at the given socket directory.
func New(socketDir string, timeouts config.TimeoutConfig, logger *slog.Logger) *Client {
	if socketDir == "" {
		socketDir = ipc.DefaultSocketDir()
	}
	return &Client{socketDir: socketDir, timeouts: timeouts, logger: logger}
}

// SocketDir returns the directory holding helper sockets.
func (c *Client) SocketDir() string {
	return c.socketDir
}

// Call invokes one tool on the named helper and returns its raw result.
func (c *Client) Call(ctx context.Context, helper, tool string, args any) (json.RawMessage, error) {
	payload, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("encode %s args: %w", tool, err)
	}

	req := ipc.Request{
		ID:   uuid.NewString(),
		Tool: tool,
		Args: payload,
	}

	path := ipc.SocketPath(c.socketDir, helper)
	timeout := c.timeoutFor(tool)
	started := time.Now()

	resp, err := ipc.Send(ctx, path, req, timeout)
	if err != nil {
		mapped := classify(err)
		c.logger.Warn("bridge call failed",
			"helper", helper,
			"tool", tool,
			"elapsed", time.Since(started).String(),
			"error", err.Error(),
		)
		return nil, fmt.Errorf("call %s/%s: %w", helper, tool, mapped)
	}

	if !resp.OK {
		return nil, &ToolError{Helper: helper, Tool: tool, Message: resp.Error}
	}

	c.logger.Info("bridge call ok",
		"helper", helper,
		"tool", tool,
		"elapsed", time.Since(started).String(),
	)
	return resp.Result, nil
}

// Ping probes the named helper for liveness.
func (c *Client) Ping(ctx context.Context, helper string) error {
	path := ipc.SocketPath(c.socketDir, helper)
	alive, err := ipc.Probe(ctx, path, c.timeoutFor(ipc.ToolPing))
	if err != nil {
		return fmt.Errorf("ping %s: %w", helper, classify(err))
	}
	if !alive {
		return fmt.Errorf("ping %s: %w", helper, ErrUnavailable)
	}
	return nil
}

// timeoutFor selects the bounded window for one tool call. Transcription of
// large artifacts gets a much longer window than control-plane calls.
func (c *Client) timeoutFor(tool string) time.Duration {
	switch tool {
	case ToolTranscribeAudio:
		return c.timeouts.Transcribe
	case ipc.ToolPing:
		return c.timeouts.Probe
	default:
		return c.timeouts.Default
	}
}

// classify maps a transport error onto the bridge taxonomy.
func classify(err error) error {
	switch {
	case ipc.IsNotListening(err):
		return ErrUnavailable
	case ipc.IsTimeout(err):
		return ErrTimeout
	case errors.Is(err, ipc.ErrMalformedResponse):
		return ErrProtocol
	default:
		return err
	}
}
