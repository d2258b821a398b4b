package nanda

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestEnabled(t *testing.T) {
	require.False(t, NewClient("", discardLogger()).Enabled())
	require.True(t, NewClient("https://registry.example", discardLogger()).Enabled())
}

func TestRegisterAll(t *testing.T) {
	var received []Descriptor
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v1/agents", r.URL.Path)

		var d Descriptor
		require.NoError(t, json.NewDecoder(r.Body).Decode(&d))
		received = append(received, d)

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(RegisterAck{ID: "agent-" + d.Category})
	}))
	t.Cleanup(ts.Close)

	c := NewClient(ts.URL, discardLogger())
	outcome := c.RegisterAll(context.Background(), "http://localhost:5001")

	require.Equal(t, 2, outcome.RegisteredCount)
	require.Equal(t, "agent-transcription", outcome.AgentIDs["transcriber"])
	require.Equal(t, "agent-scheduling", outcome.AgentIDs["scheduler"])
	require.Empty(t, outcome.Message)

	require.Len(t, received, 2)
	categories := map[string]bool{}
	for _, d := range received {
		categories[d.Category] = true
		require.Equal(t, []string{"NANDA"}, d.Protocols)
		require.NotEmpty(t, d.Tools)
		require.Contains(t, d.Endpoints.BaseURL, "http://localhost:5001")
	}
	require.True(t, categories["transcription"])
	require.True(t, categories["scheduling"])
}

func TestRegisterAllCollectsFailures(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var d Descriptor
		_ = json.NewDecoder(r.Body).Decode(&d)
		if d.Category == "scheduling" {
			http.Error(w, "quota exceeded", http.StatusForbidden)
			return
		}
		_ = json.NewEncoder(w).Encode(RegisterAck{ID: "agent-1"})
	}))
	t.Cleanup(ts.Close)

	c := NewClient(ts.URL, discardLogger())
	outcome := c.RegisterAll(context.Background(), "http://localhost:5001")

	require.Equal(t, 1, outcome.RegisteredCount)
	require.Len(t, outcome.AgentIDs, 1)
	require.Contains(t, outcome.Message, "scheduler")
	require.Contains(t, outcome.Message, "403")
}

func TestDiscoverAgents(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "transcription", r.URL.Query().Get("category"))
		_ = json.NewEncoder(w).Encode([]Agent{
			{ID: "a-1", Name: "Meeting Transcriber Agent", Category: "transcription", Status: "active"},
		})
	}))
	t.Cleanup(ts.Close)

	c := NewClient(ts.URL, discardLogger())
	agents, err := c.DiscoverAgents(context.Background(), "transcription")
	require.NoError(t, err)
	require.Len(t, agents, 1)
	require.Equal(t, "a-1", agents[0].ID)
}

func TestDiscoverAgentsServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	t.Cleanup(ts.Close)

	_, err := NewClient(ts.URL, discardLogger()).DiscoverAgents(context.Background(), "")
	require.Error(t, err)
	require.Contains(t, err.Error(), "502")
}
