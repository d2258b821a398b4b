package scheduler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/meetinghub/meetingd/internal/config"
)

// Event is one calendar entry to create.
type Event struct {
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
}

// CreatedEvent identifies an entry after the calendar accepted it.
type CreatedEvent struct {
	EventID   string `json:"event_id"`
	EventLink string `json:"event_link"`
}

// UpcomingEvent is one future entry as reported by the calendar.
type UpcomingEvent struct {
	EventID string `json:"event_id"`
	Summary string `json:"summary"`
	Start   string `json:"start"`
	Link    string `json:"link,omitempty"`
}

// Calendar is a pluggable calendar backend.
type Calendar interface {
	CreateEvent(ctx context.Context, event Event) (CreatedEvent, error)
	UpcomingEvents(ctx context.Context, from time.Time, max int) ([]UpcomingEvent, error)
}

// RESTCalendar talks to the Google Calendar v3 API with a bearer token.
type RESTCalendar struct {
	cfg  config.CalendarConfig
	http *http.Client
}

// NewRESTCalendar constructs a calendar client from configuration.
func NewRESTCalendar(cfg config.CalendarConfig) *RESTCalendar {
	return &RESTCalendar{cfg: cfg, http: &http.Client{Timeout: 30 * time.Second}}
}

type eventTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone,omitempty"`
}

type eventBody struct {
	Summary     string    `json:"summary"`
	Description string    `json:"description,omitempty"`
	Start       eventTime `json:"start"`
	End         eventTime `json:"end"`
}

type eventReply struct {
	ID       string `json:"id"`
	HTMLLink string `json:"htmlLink"`
	Summary  string `json:"summary"`
	Start    struct {
		DateTime string `json:"dateTime"`
		Date     string `json:"date"`
	} `json:"start"`
}

// CreateEvent inserts one event into the configured calendar.
func (c *RESTCalendar) CreateEvent(ctx context.Context, event Event) (CreatedEvent, error) {
	if strings.TrimSpace(c.cfg.Token) == "" {
		return CreatedEvent{}, fmt.Errorf("CALENDAR_TOKEN is not set")
	}

	payload, err := json.Marshal(eventBody{
		Summary:     event.Summary,
		Description: event.Description,
		Start:       eventTime{DateTime: event.Start.Format(time.RFC3339), TimeZone: c.cfg.TimeZone},
		End:         eventTime{DateTime: event.End.Format(time.RFC3339), TimeZone: c.cfg.TimeZone},
	})
	if err != nil {
		return CreatedEvent{}, err
	}

	endpoint := c.eventsURL()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return CreatedEvent{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return CreatedEvent{}, fmt.Errorf("calendar request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return CreatedEvent{}, fmt.Errorf("calendar http %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var reply eventReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return CreatedEvent{}, fmt.Errorf("decode calendar response: %w", err)
	}
	return CreatedEvent{EventID: reply.ID, EventLink: reply.HTMLLink}, nil
}

// UpcomingEvents lists future entries starting from the given time.
func (c *RESTCalendar) UpcomingEvents(ctx context.Context, from time.Time, max int) ([]UpcomingEvent, error) {
	if strings.TrimSpace(c.cfg.Token) == "" {
		return nil, fmt.Errorf("CALENDAR_TOKEN is not set")
	}
	if max <= 0 {
		max = 10
	}

	query := url.Values{}
	query.Set("timeMin", from.Format(time.RFC3339))
	query.Set("maxResults", fmt.Sprint(max))
	query.Set("singleEvents", "true")
	query.Set("orderBy", "startTime")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.eventsURL()+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calendar request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("calendar http %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var reply struct {
		Items []eventReply `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return nil, fmt.Errorf("decode calendar response: %w", err)
	}

	out := make([]UpcomingEvent, 0, len(reply.Items))
	for _, item := range reply.Items {
		start := item.Start.DateTime
		if start == "" {
			start = item.Start.Date
		}
		out = append(out, UpcomingEvent{
			EventID: item.ID,
			Summary: item.Summary,
			Start:   start,
			Link:    item.HTMLLink,
		})
	}
	return out, nil
}

func (c *RESTCalendar) eventsURL() string {
	base := strings.TrimRight(c.cfg.BaseURL, "/")
	return fmt.Sprintf("%s/calendars/%s/events", base, url.PathEscape(c.cfg.CalendarID))
}
