package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/meetinghub/meetingd/internal/ipc"
)

// Service dispatches tool requests for the scheduling helper.
type Service struct {
	logger        *slog.Logger
	detector      Detector
	calendar      Calendar
	eventDuration time.Duration
	now           func() time.Time
}

// NewService constructs the helper service over a detector and a calendar.
func NewService(detector Detector, calendar Calendar, eventDuration time.Duration, logger *slog.Logger) *Service {
	if eventDuration <= 0 {
		eventDuration = time.Hour
	}
	return &Service{
		logger:        logger,
		detector:      detector,
		calendar:      calendar,
		eventDuration: eventDuration,
		now:           time.Now,
	}
}

type detectArgs struct {
	Text     string `json:"text"`
	SourceID string `json:"source_id"`
}

type candidate struct {
	OriginalText string   `json:"original_text"`
	Datetime     string   `json:"datetime"`
	Topic        string   `json:"topic,omitempty"`
	Participants []string `json:"participants,omitempty"`
	Confidence   int      `json:"confidence"`
	Context      string   `json:"context,omitempty"`
}

type eventArgs struct {
	MeetingID    string   `json:"meeting_id"`
	OriginalText string   `json:"original_text"`
	Datetime     string   `json:"datetime"`
	Topic        string   `json:"topic,omitempty"`
	Participants []string `json:"participants,omitempty"`
	Context      string   `json:"context,omitempty"`
}

type upcomingArgs struct {
	MaxResults int `json:"max_results,omitempty"`
}

// Handle implements ipc.Handler.
func (s *Service) Handle(ctx context.Context, req ipc.Request) ipc.Response {
	switch req.Tool {
	case ipc.ToolPing:
		return okResponse(map[string]string{"service": "scheduler"})
	case "detect_meetings":
		return s.detect(ctx, req.Args)
	case "create_event":
		return s.createEvent(ctx, req.Args)
	case "upcoming_meetings":
		return s.upcoming(ctx, req.Args)
	default:
		return ipc.Response{OK: false, Error: fmt.Sprintf("unknown tool: %s", req.Tool)}
	}
}

func (s *Service) detect(ctx context.Context, rawArgs json.RawMessage) ipc.Response {
	var args detectArgs
	if err := json.Unmarshal(rawArgs, &args); err != nil {
		return ipc.Response{OK: false, Error: "invalid detect_meetings args"}
	}
	if strings.TrimSpace(args.Text) == "" {
		return ipc.Response{OK: false, Error: "text is required"}
	}

	mentions, err := s.detector.Detect(ctx, args.Text)
	if err != nil {
		s.logger.Warn("meeting detection failed", "source_id", args.SourceID, "error", err.Error())
		return ipc.Response{OK: false, Error: fmt.Sprintf("meeting detection failed: %v", err)}
	}

	now := s.now()
	candidates := make([]candidate, 0, len(mentions))
	for _, m := range mentions {
		resolved, err := ParseMeetingTime(m.DateTime, now)
		if err != nil {
			s.logger.Warn("dropping mention with unparseable datetime",
				"source_id", args.SourceID, "phrase", m.DateTime)
			continue
		}
		candidates = append(candidates, candidate{
			OriginalText: m.MeetingText,
			Datetime:     resolved.Format("2006-01-02T15:04:05"),
			Topic:        m.Topic,
			Participants: m.Participants,
			Confidence:   m.Confidence,
			Context:      m.Context,
		})
	}

	s.logger.Info("meeting detection completed",
		"source_id", args.SourceID,
		"mentions", len(mentions),
		"candidates", len(candidates),
	)
	return okResponse(map[string]any{"meetings": candidates})
}

func (s *Service) createEvent(ctx context.Context, rawArgs json.RawMessage) ipc.Response {
	var args eventArgs
	if err := json.Unmarshal(rawArgs, &args); err != nil {
		return ipc.Response{OK: false, Error: "invalid create_event args"}
	}
	if args.Datetime == "" {
		return ipc.Response{OK: false, Error: "datetime is required"}
	}

	start, err := ParseMeetingTime(args.Datetime, s.now())
	if err != nil {
		return ipc.Response{OK: false, Error: fmt.Sprintf("invalid datetime: %v", err)}
	}

	summary := args.Topic
	if summary == "" {
		summary = "Meeting"
	}
	description := args.OriginalText
	if args.Context != "" {
		description += "\n\nContext: " + args.Context
	}
	if len(args.Participants) > 0 {
		description += "\nParticipants: " + strings.Join(args.Participants, ", ")
	}

	created, err := s.calendar.CreateEvent(ctx, Event{
		Summary:     summary,
		Description: description,
		Start:       start,
		End:         start.Add(s.eventDuration),
	})
	if err != nil {
		s.logger.Warn("event creation failed", "meeting_id", args.MeetingID, "error", err.Error())
		return ipc.Response{OK: false, Error: fmt.Sprintf("event creation failed: %v", err)}
	}

	s.logger.Info("event created",
		"meeting_id", args.MeetingID,
		"event_id", created.EventID,
		"start", start.Format(time.RFC3339),
	)
	return okResponse(created)
}

func (s *Service) upcoming(ctx context.Context, rawArgs json.RawMessage) ipc.Response {
	var args upcomingArgs
	if len(rawArgs) > 0 {
		if err := json.Unmarshal(rawArgs, &args); err != nil {
			return ipc.Response{OK: false, Error: "invalid upcoming_meetings args"}
		}
	}

	events, err := s.calendar.UpcomingEvents(ctx, s.now(), args.MaxResults)
	if err != nil {
		return ipc.Response{OK: false, Error: fmt.Sprintf("listing events failed: %v", err)}
	}
	return okResponse(map[string]any{"events": events})
}

func okResponse(payload any) ipc.Response {
	raw, err := json.Marshal(payload)
	if err != nil {
		return ipc.Response{OK: false, Error: "encode result: " + err.Error()}
	}
	return ipc.Response{OK: true, Result: raw}
}
