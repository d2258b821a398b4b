package scheduler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meetinghub/meetingd/internal/config"
)

func TestLLMDetectorDetect(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "gpt-4o-mini", req.Model)
		require.Len(t, req.Messages, 2)
		require.Equal(t, "system", req.Messages[0].Role)
		require.Contains(t, req.Messages[1].Content, "standup notes")

		reply := `[{"meeting_text": "review tomorrow at 2pm", "date_time": "tomorrow at 2pm", "confidence": 88}]`
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": reply}},
			},
		})
	}))
	t.Cleanup(ts.Close)

	detector := NewLLMDetector(config.OpenAIConfig{
		APIKey:    "sk-test",
		BaseURL:   ts.URL,
		ChatModel: "gpt-4o-mini",
	})

	mentions, err := detector.Detect(context.Background(), "standup notes")
	require.NoError(t, err)
	require.Len(t, mentions, 1)
	require.Equal(t, "review tomorrow at 2pm", mentions[0].MeetingText)
	require.Equal(t, 88, mentions[0].Confidence)
}

func TestLLMDetectorRequiresAPIKey(t *testing.T) {
	detector := NewLLMDetector(config.OpenAIConfig{BaseURL: "https://api.openai.com/v1"})
	_, err := detector.Detect(context.Background(), "notes")
	require.Error(t, err)
	require.Contains(t, err.Error(), "OPENAI_API_KEY")
}

func TestLLMDetectorSurfacesHTTPErrors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	t.Cleanup(ts.Close)

	detector := NewLLMDetector(config.OpenAIConfig{APIKey: "sk", BaseURL: ts.URL, ChatModel: "gpt-4o-mini"})
	_, err := detector.Detect(context.Background(), "notes")
	require.Error(t, err)
	require.Contains(t, err.Error(), "429")
}

func TestLLMDetectorNoChoices(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	t.Cleanup(ts.Close)

	detector := NewLLMDetector(config.OpenAIConfig{APIKey: "sk", BaseURL: ts.URL, ChatModel: "gpt-4o-mini"})
	_, err := detector.Detect(context.Background(), "notes")
	require.Error(t, err)
	require.Contains(t, err.Error(), "no choices")
}
