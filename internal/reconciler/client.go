// Package reconciler is the client side of the coordinator: a typed HTTP
// client, a local view merged from polls, and a polling loop that tolerates
// transient fetch failures without losing previously known state.
package reconciler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/meetinghub/meetingd/internal/api"
	"github.com/meetinghub/meetingd/internal/store"
	"github.com/meetinghub/meetingd/internal/supervisor"
)

// Client calls the coordinator's status API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient constructs a client for the coordinator at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Health fetches the coordinator health summary.
func (c *Client) Health(ctx context.Context) (api.HealthResponse, error) {
	var out api.HealthResponse
	err := c.getJSON(ctx, "/health", &out)
	return out, err
}

// ServersStatus fetches both helper snapshots.
func (c *Client) ServersStatus(ctx context.Context) (map[string]supervisor.Snapshot, error) {
	var out map[string]supervisor.Snapshot
	err := c.getJSON(ctx, "/servers/status", &out)
	return out, err
}

// StartServers asks the coordinator to start both helpers.
func (c *Client) StartServers(ctx context.Context) (api.ServersResponse, error) {
	var out api.ServersResponse
	err := c.postJSON(ctx, "/servers/start", nil, &out)
	return out, err
}

// StopServers asks the coordinator to stop both helpers.
func (c *Client) StopServers(ctx context.Context) (api.ServersResponse, error) {
	var out api.ServersResponse
	err := c.postJSON(ctx, "/servers/stop", nil, &out)
	return out, err
}

// Upload submits one audio artifact for transcription.
func (c *Client) Upload(ctx context.Context, filename string, audio io.Reader, language, prompt string) (api.UploadResponse, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile("audio", filename)
	if err != nil {
		return api.UploadResponse{}, err
	}
	if _, err := io.Copy(fw, audio); err != nil {
		return api.UploadResponse{}, err
	}
	if language != "" {
		if err := mw.WriteField("language", language); err != nil {
			return api.UploadResponse{}, err
		}
	}
	if prompt != "" {
		if err := mw.WriteField("prompt", prompt); err != nil {
			return api.UploadResponse{}, err
		}
	}
	if err := mw.Close(); err != nil {
		return api.UploadResponse{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", &body)
	if err != nil {
		return api.UploadResponse{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out api.UploadResponse
	if err := c.do(req, &out); err != nil {
		return api.UploadResponse{}, err
	}
	return out, nil
}

// Transcription fetches one job view.
func (c *Client) Transcription(ctx context.Context, id string) (store.Transcription, error) {
	var out store.Transcription
	err := c.getJSON(ctx, "/transcription/"+url.PathEscape(id), &out)
	return out, err
}

// Transcriptions fetches all job views.
func (c *Client) Transcriptions(ctx context.Context) ([]store.Transcription, error) {
	var out api.TranscriptionsResponse
	err := c.getJSON(ctx, "/transcriptions", &out)
	return out.Transcriptions, err
}

// AnalyzeMeetings triggers meeting detection for one completed job.
func (c *Client) AnalyzeMeetings(ctx context.Context, transcriptionID string) (api.CommandResponse, error) {
	var out api.CommandResponse
	err := c.postJSON(ctx, "/analyze-meetings", map[string]string{"transcription_id": transcriptionID}, &out)
	return out, err
}

// Meetings fetches all meeting candidate views.
func (c *Client) Meetings(ctx context.Context) ([]store.Meeting, error) {
	var out api.MeetingsResponse
	err := c.getJSON(ctx, "/meetings", &out)
	return out.Meetings, err
}

// ScheduleMeetings schedules the given candidates, or all unscheduled ones.
func (c *Client) ScheduleMeetings(ctx context.Context, meetingIDs []string) (api.ScheduleResponse, error) {
	var out api.ScheduleResponse
	err := c.postJSON(ctx, "/schedule-meetings", map[string][]string{"meeting_ids": meetingIDs}, &out)
	return out, err
}

// Register advertises both agents to the registry via the coordinator.
func (c *Client) Register(ctx context.Context) (api.RegisterResponse, error) {
	var out api.RegisterResponse
	err := c.postJSON(ctx, "/nanda/register", nil, &out)
	return out, err
}

// Discover lists registry agents via the coordinator.
func (c *Client) Discover(ctx context.Context, category string) (api.DiscoverResponse, error) {
	path := "/nanda/discover"
	if category != "" {
		path += "?category=" + url.QueryEscape(category)
	}
	var out api.DiscoverResponse
	err := c.getJSON(ctx, path, &out)
	return out, err
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%s %s: server returned %d", req.Method, req.URL.Path, resp.StatusCode)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var detail struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&detail)
		if detail.Error != "" {
			return fmt.Errorf("%s %s: %s", req.Method, req.URL.Path, detail.Error)
		}
		return fmt.Errorf("%s %s: request rejected with %d", req.Method, req.URL.Path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", req.Method, req.URL.Path, err)
	}
	return nil
}
