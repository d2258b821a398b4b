package scheduler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meetinghub/meetingd/internal/config"
)

func testCalendarConfig(baseURL string) config.CalendarConfig {
	return config.CalendarConfig{
		Token:      "cal-token",
		BaseURL:    baseURL,
		CalendarID: "primary",
		TimeZone:   "America/New_York",
	}
}

func TestRESTCalendarCreateEvent(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/calendars/primary/events", r.URL.Path)
		require.Equal(t, "Bearer cal-token", r.Header.Get("Authorization"))

		var body struct {
			Summary string `json:"summary"`
			Start   struct {
				DateTime string `json:"dateTime"`
				TimeZone string `json:"timeZone"`
			} `json:"start"`
			End struct {
				DateTime string `json:"dateTime"`
			} `json:"end"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "review", body.Summary)
		require.Equal(t, "America/New_York", body.Start.TimeZone)
		require.NotEmpty(t, body.End.DateTime)

		_ = json.NewEncoder(w).Encode(map[string]string{
			"id":       "evt-99",
			"htmlLink": "https://calendar/evt-99",
		})
	}))
	t.Cleanup(ts.Close)

	cal := NewRESTCalendar(testCalendarConfig(ts.URL))
	start := time.Date(2024, 3, 14, 14, 0, 0, 0, time.UTC)
	created, err := cal.CreateEvent(context.Background(), Event{
		Summary: "review",
		Start:   start,
		End:     start.Add(time.Hour),
	})
	require.NoError(t, err)
	require.Equal(t, "evt-99", created.EventID)
	require.Equal(t, "https://calendar/evt-99", created.EventLink)
}

func TestRESTCalendarRequiresToken(t *testing.T) {
	cal := NewRESTCalendar(config.CalendarConfig{BaseURL: "https://example", CalendarID: "primary"})

	_, err := cal.CreateEvent(context.Background(), Event{Summary: "x", Start: time.Now(), End: time.Now()})
	require.Error(t, err)
	require.Contains(t, err.Error(), "CALENDAR_TOKEN")

	_, err = cal.UpcomingEvents(context.Background(), time.Now(), 5)
	require.Error(t, err)
	require.Contains(t, err.Error(), "CALENDAR_TOKEN")
}

func TestRESTCalendarUpcomingEvents(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/calendars/primary/events", r.URL.Path)
		require.Equal(t, "5", r.URL.Query().Get("maxResults"))
		require.Equal(t, "startTime", r.URL.Query().Get("orderBy"))
		require.NotEmpty(t, r.URL.Query().Get("timeMin"))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{
				{
					"id":       "evt-1",
					"summary":  "review",
					"htmlLink": "https://calendar/evt-1",
					"start":    map[string]string{"dateTime": "2024-03-14T14:00:00-04:00"},
				},
				{
					"id":      "evt-2",
					"summary": "offsite",
					"start":   map[string]string{"date": "2024-03-20"},
				},
			},
		})
	}))
	t.Cleanup(ts.Close)

	cal := NewRESTCalendar(testCalendarConfig(ts.URL))
	events, err := cal.UpcomingEvents(context.Background(), time.Now(), 5)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, "2024-03-14T14:00:00-04:00", events[0].Start)
	// All-day events fall back to the date field.
	require.Equal(t, "2024-03-20", events[1].Start)
}

func TestRESTCalendarSurfacesHTTPErrors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	t.Cleanup(ts.Close)

	cal := NewRESTCalendar(testCalendarConfig(ts.URL))
	_, err := cal.CreateEvent(context.Background(), Event{Summary: "x", Start: time.Now(), End: time.Now()})
	require.Error(t, err)
	require.Contains(t, err.Error(), "403")
}
