package nanda

import "time"

// Descriptor advertises one agent's capabilities to the registry.
type Descriptor struct {
	Name         string       `json:"name"`
	Type         string       `json:"type"`
	Category     string       `json:"category"`
	Version      string       `json:"version"`
	Description  string       `json:"description"`
	Protocols    []string     `json:"protocols"`
	Capabilities []string     `json:"capabilities"`
	Endpoints    Endpoints    `json:"endpoints"`
	InputTypes   []string     `json:"input_types"`
	OutputTypes  []string     `json:"output_types"`
	Tools        []Tool       `json:"tools"`
	Dependencies []Dependency `json:"dependencies,omitempty"`
	Status       string       `json:"status"`
	RegisteredAt string       `json:"registered_at"`
}

// Endpoints names the reachable URLs for one agent.
type Endpoints struct {
	BaseURL string `json:"base_url"`
	Health  string `json:"health"`
}

// Tool describes one callable capability.
type Tool struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Dependency declares a required upstream capability.
type Dependency struct {
	Type        string `json:"type"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

// TranscriberDescriptor builds the capability descriptor for the
// transcription stage.
func TranscriberDescriptor(baseURL string) Descriptor {
	return Descriptor{
		Name:         "Meeting Transcriber Agent",
		Type:         "agent",
		Category:     "transcription",
		Version:      "1.0.0",
		Description:  "Transcribes audio files using the Whisper speech API",
		Protocols:    []string{"NANDA"},
		Capabilities: []string{"audio_transcription", "whisper_api", "multi_format"},
		Endpoints: Endpoints{
			BaseURL: baseURL,
			Health:  baseURL + "/health",
		},
		InputTypes:  []string{"audio/m4a", "audio/mp3", "audio/wav"},
		OutputTypes: []string{"text/plain", "application/json"},
		Tools: []Tool{
			{Name: "transcribe_audio", Description: "Transcribe audio using the Whisper API"},
		},
		Status:       "active",
		RegisteredAt: time.Now().UTC().Format(time.RFC3339),
	}
}

// SchedulerDescriptor builds the capability descriptor for the detection and
// scheduling stage.
func SchedulerDescriptor(baseURL string) Descriptor {
	return Descriptor{
		Name:         "Meeting Scheduler Agent",
		Type:         "agent",
		Category:     "scheduling",
		Version:      "1.0.0",
		Description:  "Detects meetings in transcripts and schedules them on a calendar",
		Protocols:    []string{"NANDA"},
		Capabilities: []string{"meeting_detection", "llm_analysis", "calendar_integration"},
		Endpoints: Endpoints{
			BaseURL: baseURL,
			Health:  baseURL + "/health",
		},
		InputTypes:  []string{"text/plain"},
		OutputTypes: []string{"application/json"},
		Tools: []Tool{
			{Name: "detect_meetings", Description: "Detect meeting mentions using LLM analysis"},
			{Name: "create_event", Description: "Create a calendar event for a detected meeting"},
		},
		Dependencies: []Dependency{
			{Type: "agent", Category: "transcription", Description: "Requires transcription input"},
		},
		Status:       "active",
		RegisteredAt: time.Now().UTC().Format(time.RFC3339),
	}
}
