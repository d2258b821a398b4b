package transcriber

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/meetinghub/meetingd/internal/ipc"
)

// Record is one transcription kept by the helper for later retrieval.
type Record struct {
	ID              string  `json:"id"`
	Filename        string  `json:"filename"`
	Text            string  `json:"text"`
	Language        string  `json:"language,omitempty"`
	DurationSeconds float64 `json:"duration_seconds,omitempty"`
	CreatedAt       string  `json:"created_at"`
}

// Service dispatches tool requests for the transcription helper.
type Service struct {
	logger  *slog.Logger
	backend Backend

	mu      sync.Mutex
	seq     int
	records map[string]Record
}

// NewService constructs the helper service over a speech backend.
func NewService(backend Backend, logger *slog.Logger) *Service {
	return &Service{
		logger:  logger,
		backend: backend,
		records: make(map[string]Record),
	}
}

type transcribeArgs struct {
	AudioBase64 string `json:"audio_base64"`
	Filename    string `json:"filename"`
	Language    string `json:"language,omitempty"`
	Prompt      string `json:"prompt,omitempty"`
}

type getArgs struct {
	ID string `json:"id"`
}

// Handle implements ipc.Handler.
func (s *Service) Handle(ctx context.Context, req ipc.Request) ipc.Response {
	switch req.Tool {
	case ipc.ToolPing:
		return okResponse(map[string]string{"service": "transcriber"})
	case "transcribe_audio":
		return s.transcribe(ctx, req.Args)
	case "get_transcription":
		return s.get(req.Args)
	case "list_transcriptions":
		return s.list()
	default:
		return ipc.Response{OK: false, Error: fmt.Sprintf("unknown tool: %s", req.Tool)}
	}
}

func (s *Service) transcribe(ctx context.Context, rawArgs json.RawMessage) ipc.Response {
	var args transcribeArgs
	if err := json.Unmarshal(rawArgs, &args); err != nil {
		return ipc.Response{OK: false, Error: "invalid transcribe_audio args"}
	}
	if args.AudioBase64 == "" || args.Filename == "" {
		return ipc.Response{OK: false, Error: "audio_base64 and filename are required"}
	}

	audio, err := base64.StdEncoding.DecodeString(args.AudioBase64)
	if err != nil {
		return ipc.Response{OK: false, Error: "audio_base64 is not valid base64"}
	}

	started := time.Now()
	transcript, err := s.backend.Transcribe(ctx, audio, args.Filename, args.Language, args.Prompt)
	if err != nil {
		s.logger.Warn("transcription failed", "filename", args.Filename, "error", err.Error())
		return ipc.Response{OK: false, Error: fmt.Sprintf("transcription failed: %v", err)}
	}

	record := s.storeRecord(args.Filename, transcript)
	s.logger.Info("transcription completed",
		"id", record.ID,
		"filename", args.Filename,
		"chars", len(transcript.Text),
		"elapsed", time.Since(started).String(),
	)

	return okResponse(map[string]any{
		"id":               record.ID,
		"filename":         record.Filename,
		"text":             record.Text,
		"language":         record.Language,
		"duration_seconds": record.DurationSeconds,
	})
}

func (s *Service) storeRecord(filename string, t Transcript) Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	record := Record{
		ID:              fmt.Sprintf("trans_%d", s.seq),
		Filename:        filename,
		Text:            t.Text,
		Language:        t.Language,
		DurationSeconds: t.DurationSeconds,
		CreatedAt:       time.Now().UTC().Format(time.RFC3339),
	}
	s.records[record.ID] = record
	return record
}

func (s *Service) get(rawArgs json.RawMessage) ipc.Response {
	var args getArgs
	if err := json.Unmarshal(rawArgs, &args); err != nil || args.ID == "" {
		return ipc.Response{OK: false, Error: "id is required"}
	}

	s.mu.Lock()
	record, ok := s.records[args.ID]
	s.mu.Unlock()
	if !ok {
		return ipc.Response{OK: false, Error: "transcription not found"}
	}
	return okResponse(record)
}

func (s *Service) list() ipc.Response {
	s.mu.Lock()
	out := make([]Record, 0, len(s.records))
	for _, record := range s.records {
		out = append(out, record)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return okResponse(map[string]any{"transcriptions": out})
}

func okResponse(payload any) ipc.Response {
	raw, err := json.Marshal(payload)
	if err != nil {
		return ipc.Response{OK: false, Error: "encode result: " + err.Error()}
	}
	return ipc.Response{OK: true, Result: raw}
}
