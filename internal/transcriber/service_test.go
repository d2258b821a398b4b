package transcriber

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meetinghub/meetingd/internal/ipc"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func args(t *testing.T, v any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

func TestHandlePing(t *testing.T) {
	svc := NewService(nil, discardLogger())
	resp := svc.Handle(context.Background(), ipc.Request{Tool: ipc.ToolPing})
	require.True(t, resp.OK)
}

func TestHandleUnknownTool(t *testing.T) {
	svc := NewService(nil, discardLogger())
	resp := svc.Handle(context.Background(), ipc.Request{Tool: "detect_meetings"})
	require.False(t, resp.OK)
	require.Contains(t, resp.Error, "unknown tool")
}

func TestTranscribeStoresRecord(t *testing.T) {
	backend := BackendFunc(func(_ context.Context, audio []byte, filename, language, prompt string) (Transcript, error) {
		require.Equal(t, []byte("raw-audio"), audio)
		require.Equal(t, "standup.mp3", filename)
		require.Equal(t, "en", language)
		return Transcript{Text: "hello world", Language: "en", DurationSeconds: 4.2}, nil
	})
	svc := NewService(backend, discardLogger())

	resp := svc.Handle(context.Background(), ipc.Request{
		Tool: "transcribe_audio",
		Args: args(t, map[string]string{
			"audio_base64": base64.StdEncoding.EncodeToString([]byte("raw-audio")),
			"filename":     "standup.mp3",
			"language":     "en",
		}),
	})
	require.True(t, resp.OK)

	var result struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	}
	require.NoError(t, json.Unmarshal(resp.Result, &result))
	require.Equal(t, "trans_1", result.ID)
	require.Equal(t, "hello world", result.Text)

	// The stored record is retrievable afterwards.
	resp = svc.Handle(context.Background(), ipc.Request{
		Tool: "get_transcription",
		Args: args(t, map[string]string{"id": "trans_1"}),
	})
	require.True(t, resp.OK)

	var record Record
	require.NoError(t, json.Unmarshal(resp.Result, &record))
	require.Equal(t, "standup.mp3", record.Filename)
	require.Equal(t, "hello world", record.Text)
	require.NotEmpty(t, record.CreatedAt)
}

func TestTranscribeValidatesArgs(t *testing.T) {
	svc := NewService(BackendFunc(func(context.Context, []byte, string, string, string) (Transcript, error) {
		t.Fatal("backend must not run")
		return Transcript{}, nil
	}), discardLogger())

	resp := svc.Handle(context.Background(), ipc.Request{
		Tool: "transcribe_audio",
		Args: args(t, map[string]string{"filename": "a.mp3"}),
	})
	require.False(t, resp.OK)
	require.Contains(t, resp.Error, "required")

	resp = svc.Handle(context.Background(), ipc.Request{
		Tool: "transcribe_audio",
		Args: args(t, map[string]string{"audio_base64": "!!!not-base64!!!", "filename": "a.mp3"}),
	})
	require.False(t, resp.OK)
	require.Contains(t, resp.Error, "base64")
}

func TestTranscribeReportsBackendFailure(t *testing.T) {
	svc := NewService(BackendFunc(func(context.Context, []byte, string, string, string) (Transcript, error) {
		return Transcript{}, errors.New("whisper http 401")
	}), discardLogger())

	resp := svc.Handle(context.Background(), ipc.Request{
		Tool: "transcribe_audio",
		Args: args(t, map[string]string{
			"audio_base64": base64.StdEncoding.EncodeToString([]byte("x")),
			"filename":     "a.mp3",
		}),
	})
	require.False(t, resp.OK)
	require.Contains(t, resp.Error, "whisper http 401")
}

func TestGetAndListTranscriptions(t *testing.T) {
	backend := BackendFunc(func(_ context.Context, _ []byte, filename, _, _ string) (Transcript, error) {
		return Transcript{Text: "text for " + filename}, nil
	})
	svc := NewService(backend, discardLogger())

	for _, filename := range []string{"a.mp3", "b.mp3"} {
		resp := svc.Handle(context.Background(), ipc.Request{
			Tool: "transcribe_audio",
			Args: args(t, map[string]string{
				"audio_base64": base64.StdEncoding.EncodeToString([]byte("x")),
				"filename":     filename,
			}),
		})
		require.True(t, resp.OK)
	}

	resp := svc.Handle(context.Background(), ipc.Request{
		Tool: "get_transcription",
		Args: args(t, map[string]string{"id": "trans_404"}),
	})
	require.False(t, resp.OK)
	require.Contains(t, resp.Error, "not found")

	resp = svc.Handle(context.Background(), ipc.Request{Tool: "list_transcriptions"})
	require.True(t, resp.OK)

	var result struct {
		Transcriptions []Record `json:"transcriptions"`
	}
	require.NoError(t, json.Unmarshal(resp.Result, &result))
	require.Len(t, result.Transcriptions, 2)
	require.Equal(t, "trans_1", result.Transcriptions[0].ID)
	require.Equal(t, "trans_2", result.Transcriptions[1].ID)
}
