// Package scheduler implements the scheduling helper server: LLM-backed
// meeting detection over transcript text and calendar event creation for
// detected meetings.
package scheduler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/meetinghub/meetingd/internal/config"
)

// minConfidence drops low-certainty mentions before they become candidates.
const minConfidence = 70

const detectionSystemPrompt = `You are a meeting detection AI. Analyze the text and extract meeting mentions.

For each meeting, provide:
1. The exact text mentioning the meeting
2. Date/time mentioned
3. Topic, participants, context, and a confidence score (0-100)

Return a JSON array:
[
  {
    "meeting_text": "let's schedule a meeting for tomorrow at 2pm",
    "date_time": "tomorrow at 2pm",
    "topic": "project sync",
    "participants": ["Alice", "Bob"],
    "context": "project discussion",
    "confidence": 95
  }
]

Only include mentions with confidence >= 70. Return [] if there are none.`

// RawMention is one mention as reported by the language model, before
// datetime resolution.
type RawMention struct {
	MeetingText  string   `json:"meeting_text"`
	DateTime     string   `json:"date_time"`
	Topic        string   `json:"topic"`
	Participants []string `json:"participants"`
	Context      string   `json:"context"`
	Confidence   int      `json:"confidence"`
}

// Detector is a pluggable meeting-mention extractor.
type Detector interface {
	Detect(ctx context.Context, text string) ([]RawMention, error)
}

// DetectorFunc adapts a function to the Detector interface.
type DetectorFunc func(ctx context.Context, text string) ([]RawMention, error)

func (f DetectorFunc) Detect(ctx context.Context, text string) ([]RawMention, error) {
	return f(ctx, text)
}

// LLMDetector extracts meeting mentions through the chat-completions API.
type LLMDetector struct {
	cfg  config.OpenAIConfig
	http *http.Client
}

// NewLLMDetector constructs an LLM-backed detector.
func NewLLMDetector(cfg config.OpenAIConfig) *LLMDetector {
	return &LLMDetector{cfg: cfg, http: &http.Client{Timeout: 60 * time.Second}}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Detect sends the transcript to the model and parses its JSON reply.
func (d *LLMDetector) Detect(ctx context.Context, text string) ([]RawMention, error) {
	if strings.TrimSpace(d.cfg.APIKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is not set")
	}

	payload, err := json.Marshal(chatRequest{
		Model: d.cfg.ChatModel,
		Messages: []chatMessage{
			{Role: "system", Content: detectionSystemPrompt},
			{Role: "user", Content: "Analyze: " + text},
		},
		Temperature: 0.1,
		MaxTokens:   1000,
	})
	if err != nil {
		return nil, err
	}

	endpoint := strings.TrimRight(d.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+d.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("llm request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("llm http %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode llm response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("llm returned no choices")
	}

	return ExtractMentions(parsed.Choices[0].Message.Content)
}

// ExtractMentions pulls the JSON array out of a model reply, tolerating
// prose around it, and applies the confidence floor.
func ExtractMentions(reply string) ([]RawMention, error) {
	reply = strings.TrimSpace(reply)

	candidate := reply
	if start := strings.Index(reply, "["); start >= 0 {
		if end := strings.LastIndex(reply, "]"); end > start {
			candidate = reply[start : end+1]
		}
	}

	var mentions []RawMention
	if err := json.Unmarshal([]byte(candidate), &mentions); err != nil {
		return nil, fmt.Errorf("parse llm reply: %w", err)
	}

	kept := mentions[:0]
	for _, m := range mentions {
		if m.Confidence >= minConfidence && strings.TrimSpace(m.MeetingText) != "" {
			kept = append(kept, m)
		}
	}
	return kept, nil
}
