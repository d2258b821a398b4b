package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/meetinghub/meetingd/internal/config"
)

// WhisperBackend transcribes audio through the OpenAI audio/transcriptions
// endpoint.
type WhisperBackend struct {
	cfg  config.OpenAIConfig
	http *http.Client
}

// NewWhisperBackend constructs a Whisper API backend.
func NewWhisperBackend(cfg config.OpenAIConfig) *WhisperBackend {
	return &WhisperBackend{
		cfg:  cfg,
		http: &http.Client{Timeout: 5 * time.Minute},
	}
}

type whisperResponse struct {
	Text     string  `json:"text"`
	Language string  `json:"language"`
	Duration float64 `json:"duration"`
}

// Transcribe uploads the audio as multipart form data and returns the text.
func (b *WhisperBackend) Transcribe(ctx context.Context, audio []byte, filename, language, prompt string) (Transcript, error) {
	if strings.TrimSpace(b.cfg.APIKey) == "" {
		return Transcript{}, fmt.Errorf("OPENAI_API_KEY is not set")
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if err := mw.WriteField("model", b.cfg.WhisperModel); err != nil {
		return Transcript{}, err
	}
	if err := mw.WriteField("response_format", "verbose_json"); err != nil {
		return Transcript{}, err
	}
	if language != "" {
		if err := mw.WriteField("language", language); err != nil {
			return Transcript{}, err
		}
	}
	if prompt != "" {
		if err := mw.WriteField("prompt", prompt); err != nil {
			return Transcript{}, err
		}
	}

	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return Transcript{}, err
	}
	if _, err := fw.Write(audio); err != nil {
		return Transcript{}, err
	}
	if err := mw.Close(); err != nil {
		return Transcript{}, err
	}

	endpoint := strings.TrimRight(b.cfg.BaseURL, "/") + "/audio/transcriptions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return Transcript{}, err
	}
	req.Header.Set("Authorization", "Bearer "+b.cfg.APIKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := b.http.Do(req)
	if err != nil {
		return Transcript{}, fmt.Errorf("whisper request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return Transcript{}, fmt.Errorf("whisper http %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var parsed whisperResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Transcript{}, fmt.Errorf("decode whisper response: %w", err)
	}

	return Transcript{
		Text:            parsed.Text,
		Language:        parsed.Language,
		DurationSeconds: parsed.Duration,
	}, nil
}
