package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meetinghub/meetingd/internal/config"
	"github.com/meetinghub/meetingd/internal/doctor"
	"github.com/meetinghub/meetingd/internal/nanda"
	"github.com/meetinghub/meetingd/internal/orchestrator"
	"github.com/meetinghub/meetingd/internal/store"
	"github.com/meetinghub/meetingd/internal/supervisor"
)

type fakeCaller struct {
	fn func(helper, tool string, args any) (json.RawMessage, error)
}

func (f *fakeCaller) Call(_ context.Context, helper, tool string, args any) (json.RawMessage, error) {
	return f.fn(helper, tool, args)
}

type probeOK struct{}

func (probeOK) Ping(context.Context, string) error { return nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func okReport() doctor.Report {
	return doctor.Report{Checks: []doctor.Check{{Name: "config", Pass: true, Message: "ok"}}}
}

func newTestServer(t *testing.T, caller orchestrator.Caller, registry *nanda.Client) (*httptest.Server, *store.Store) {
	t.Helper()

	st := store.New()
	orch := orchestrator.New(st, caller, discardLogger())
	sup := supervisor.New(config.HelpersConfig{
		Transcriber: config.HelperCommand{Path: "sleep", Args: []string{"30"}},
		Scheduler:   config.HelperCommand{Path: "sleep", Args: []string{"30"}},
		ProbeWindow: time.Second,
		StopGrace:   500 * time.Millisecond,
	}, probeOK{}, discardLogger())
	t.Cleanup(sup.StopAll)

	if registry == nil {
		registry = nanda.NewClient("", discardLogger())
	}

	srv := New(discardLogger(), st, orch, sup, registry, "http://localhost:5001", okReport, 1<<20)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts, st
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}
	resp, err := http.Post(url, "application/json", reader)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func uploadAudio(t *testing.T, baseURL, filename string, audio []byte) UploadResponse {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("audio", filename)
	require.NoError(t, err)
	_, err = fw.Write(audio)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(baseURL+"/upload", mw.FormDataContentType(), &body)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return decode[UploadResponse](t, resp)
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t, &fakeCaller{fn: func(_, _ string, _ any) (json.RawMessage, error) {
		return nil, nil
	}}, nil)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	health := decode[HealthResponse](t, resp)
	// Helpers are not running, so a truthful health report is degraded.
	require.Equal(t, "degraded", health.Status)
	require.Len(t, health.Servers, 2)
	require.Equal(t, true, health.Environment["config"])
	require.NotEmpty(t, health.Timestamp)
}

func TestUploadValidation(t *testing.T) {
	ts, _ := newTestServer(t, &fakeCaller{fn: func(_, _ string, _ any) (json.RawMessage, error) {
		return nil, nil
	}}, nil)

	resp, err := http.Post(ts.URL+"/upload", "application/json", bytes.NewReader([]byte("{}")))
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decode[UploadResponse](t, resp)
	require.False(t, body.Success)
	require.NotEmpty(t, body.Error)

	var form bytes.Buffer
	mw := multipart.NewWriter(&form)
	require.NoError(t, mw.WriteField("language", "en"))
	require.NoError(t, mw.Close())

	resp, err = http.Post(ts.URL+"/upload", mw.FormDataContentType(), &form)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body = decode[UploadResponse](t, resp)
	require.Equal(t, "no audio file provided", body.Error)
}

func TestGetTranscriptionNotFound(t *testing.T) {
	ts, _ := newTestServer(t, &fakeCaller{fn: func(_, _ string, _ any) (json.RawMessage, error) {
		return nil, nil
	}}, nil)

	resp, err := http.Get(ts.URL + "/transcription/missing")
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestAnalyzeMeetingsErrors(t *testing.T) {
	ts, st := newTestServer(t, &fakeCaller{fn: func(_, _ string, _ any) (json.RawMessage, error) {
		return nil, nil
	}}, nil)

	resp := postJSON(t, ts.URL+"/analyze-meetings", map[string]string{})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, ts.URL+"/analyze-meetings", map[string]string{"transcription_id": "missing"})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	pending := st.CreateTranscription("a.mp3")
	resp = postJSON(t, ts.URL+"/analyze-meetings", map[string]string{"transcription_id": pending.ID})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()
}

func TestUploadThroughScheduleFlow(t *testing.T) {
	caller := &fakeCaller{fn: func(helper, tool string, args any) (json.RawMessage, error) {
		switch tool {
		case "transcribe_audio":
			return json.Marshal(map[string]any{
				"id":               "trans_1",
				"filename":         "standup.mp3",
				"text":             "let's schedule a review tomorrow at 2pm",
				"language":         "en",
				"duration_seconds": 8.0,
			})
		case "detect_meetings":
			return json.Marshal(map[string]any{
				"meetings": []map[string]any{{
					"original_text": "schedule a review tomorrow at 2pm",
					"datetime":      "2024-03-01T10:00:00",
					"topic":         "review",
					"confidence":    85,
				}},
			})
		case "create_event":
			return json.Marshal(map[string]any{
				"event_id":   "evt-42",
				"event_link": "https://calendar/evt-42",
			})
		default:
			return nil, fmt.Errorf("unexpected tool %s", tool)
		}
	}}
	ts, _ := newTestServer(t, caller, nil)

	up := uploadAudio(t, ts.URL, "standup.mp3", []byte("fake-audio-bytes"))
	require.True(t, up.Success)
	require.NotEmpty(t, up.TranscriptionID)
	require.Equal(t, "processing", up.Status)

	var job store.Transcription
	require.Eventually(t, func() bool {
		resp, err := http.Get(ts.URL + "/transcription/" + up.TranscriptionID)
		if err != nil || resp.StatusCode != http.StatusOK {
			return false
		}
		job = decode[store.Transcription](t, resp)
		return job.Status == store.StatusCompleted
	}, 3*time.Second, 20*time.Millisecond)
	require.NotEmpty(t, job.Text)
	require.Equal(t, "en", job.Language)

	resp := postJSON(t, ts.URL+"/analyze-meetings", map[string]string{"transcription_id": up.TranscriptionID})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	analysis := decode[CommandResponse](t, resp)
	require.True(t, analysis.Success)

	listResp, err := http.Get(ts.URL + "/meetings")
	require.NoError(t, err)
	meetings := decode[MeetingsResponse](t, listResp)
	require.Len(t, meetings.Meetings, 1)
	require.Equal(t, up.TranscriptionID+"_meeting_1", meetings.Meetings[0].ID)
	require.Equal(t, 85, meetings.Meetings[0].Confidence)
	require.False(t, meetings.Meetings[0].Scheduled)

	scheduleResp := postJSON(t, ts.URL+"/schedule-meetings", nil)
	require.Equal(t, http.StatusOK, scheduleResp.StatusCode)
	scheduled := decode[ScheduleResponse](t, scheduleResp)
	require.True(t, scheduled.Success)
	require.Equal(t, 1, scheduled.ScheduledCount)
	require.Len(t, scheduled.Results, 1)
	require.Equal(t, "evt-42", scheduled.Results[0].EventID)

	listResp, err = http.Get(ts.URL + "/meetings")
	require.NoError(t, err)
	meetings = decode[MeetingsResponse](t, listResp)
	require.True(t, meetings.Meetings[0].Scheduled)
	require.NotNil(t, meetings.Meetings[0].CalendarEvent)
	require.Equal(t, "evt-42", meetings.Meetings[0].CalendarEvent.EventID)
}

func TestRegistryNotConfigured(t *testing.T) {
	ts, _ := newTestServer(t, &fakeCaller{fn: func(_, _ string, _ any) (json.RawMessage, error) {
		return nil, nil
	}}, nil)

	resp := postJSON(t, ts.URL+"/nanda/register", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	reg := decode[RegisterResponse](t, resp)
	require.False(t, reg.Success)
	require.Equal(t, "agent registry not configured", reg.Message)

	discResp, err := http.Get(ts.URL + "/nanda/discover")
	require.NoError(t, err)
	disc := decode[DiscoverResponse](t, discResp)
	require.False(t, disc.Success)
	require.Empty(t, disc.Agents)
}

func TestRegisterAndDiscoverThroughRegistry(t *testing.T) {
	registryServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/agents", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodPost {
			var d nanda.Descriptor
			require.NoError(t, json.NewDecoder(r.Body).Decode(&d))
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "agent-" + d.Category})
			return
		}
		_ = json.NewEncoder(w).Encode([]nanda.Agent{
			{ID: "agent-1", Name: "transcriber", Category: "transcription"},
		})
	}))
	t.Cleanup(registryServer.Close)

	registry := nanda.NewClient(registryServer.URL, discardLogger())
	ts, _ := newTestServer(t, &fakeCaller{fn: func(_, _ string, _ any) (json.RawMessage, error) {
		return nil, nil
	}}, registry)

	resp := postJSON(t, ts.URL+"/nanda/register", nil)
	reg := decode[RegisterResponse](t, resp)
	require.True(t, reg.Success)
	require.Equal(t, 2, reg.RegisteredCount)
	require.Len(t, reg.AgentIDs, 2)

	discResp, err := http.Get(ts.URL + "/nanda/discover?category=transcription")
	require.NoError(t, err)
	disc := decode[DiscoverResponse](t, discResp)
	require.True(t, disc.Success)
	require.Equal(t, 1, disc.Count)
}
