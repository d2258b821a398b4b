// Package nanda talks to the external agent registry. Registration is an
// optional enhancement: every failure here is a structured result and never
// affects the rest of the system.
package nanda

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Agent is a registry entry returned by discovery.
type Agent struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Description string   `json:"description,omitempty"`
	Status      string   `json:"status,omitempty"`
	Protocols   []string `json:"protocols,omitempty"`
}

// RegisterAck is the registry's reply to one registration.
type RegisterAck struct {
	ID string `json:"id"`
}

// Client performs registry API calls with a bounded timeout.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient constructs a registry client for the given base URL.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
	}
}

// Enabled reports whether a registry URL is configured.
func (c *Client) Enabled() bool {
	return c.baseURL != ""
}

// RegisterAgent submits one capability descriptor.
func (c *Client) RegisterAgent(ctx context.Context, d Descriptor) (RegisterAck, error) {
	body, err := json.Marshal(d)
	if err != nil {
		return RegisterAck{}, fmt.Errorf("encode descriptor: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/agents", bytes.NewReader(body))
	if err != nil {
		return RegisterAck{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return RegisterAck{}, fmt.Errorf("register %s: %w", d.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return RegisterAck{}, fmt.Errorf("register %s: registry returned %d: %s", d.Name, resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var ack RegisterAck
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		return RegisterAck{}, fmt.Errorf("register %s: decode ack: %w", d.Name, err)
	}
	return ack, nil
}

// DiscoverAgents lists registry agents, optionally filtered by category.
func (c *Client) DiscoverAgents(ctx context.Context, category string) ([]Agent, error) {
	endpoint := c.baseURL + "/api/v1/agents"
	if category != "" {
		endpoint += "?category=" + url.QueryEscape(category)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("discover agents: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("discover agents: registry returned %d", resp.StatusCode)
	}

	var agents []Agent
	if err := json.NewDecoder(resp.Body).Decode(&agents); err != nil {
		return nil, fmt.Errorf("discover agents: decode: %w", err)
	}
	return agents, nil
}

// RegisterOutcome summarizes a registration pass over both agents.
type RegisterOutcome struct {
	RegisteredCount int               `json:"registered_count"`
	AgentIDs        map[string]string `json:"agent_ids,omitempty"`
	Message         string            `json:"message,omitempty"`
}

// RegisterAll registers both capability descriptors and reports per-agent
// results. It returns an outcome even when every registration fails.
func (c *Client) RegisterAll(ctx context.Context, agentBaseURL string) RegisterOutcome {
	outcome := RegisterOutcome{AgentIDs: map[string]string{}}
	var failures []string

	descriptors := map[string]Descriptor{
		"transcriber": TranscriberDescriptor(agentBaseURL + "/transcriber"),
		"scheduler":   SchedulerDescriptor(agentBaseURL + "/scheduler"),
	}

	for key, d := range descriptors {
		ack, err := c.RegisterAgent(ctx, d)
		if err != nil {
			c.logger.Warn("agent registration failed", "agent", key, "error", err.Error())
			failures = append(failures, key+": "+err.Error())
			continue
		}
		outcome.RegisteredCount++
		outcome.AgentIDs[key] = ack.ID
		c.logger.Info("agent registered", "agent", key, "agent_id", ack.ID)
	}

	if len(failures) > 0 {
		outcome.Message = strings.Join(failures, "; ")
	}
	return outcome
}
