package orchestrator

// Tool argument and result payloads exchanged with the helper servers. Each
// bridge call has an explicit typed shape so state mapping stays exhaustive.

// TranscribeArgs is the transcriber helper's transcribe_audio input.
type TranscribeArgs struct {
	AudioBase64 string `json:"audio_base64"`
	Filename    string `json:"filename"`
	Language    string `json:"language,omitempty"`
	Prompt      string `json:"prompt,omitempty"`
}

// TranscribeResult is the transcriber helper's transcribe_audio output.
type TranscribeResult struct {
	ID              string  `json:"id"`
	Filename        string  `json:"filename"`
	Text            string  `json:"text"`
	Language        string  `json:"language,omitempty"`
	DurationSeconds float64 `json:"duration_seconds,omitempty"`
}

// DetectArgs is the scheduler helper's detect_meetings input.
type DetectArgs struct {
	Text     string `json:"text"`
	SourceID string `json:"source_id"`
}

// Candidate is one meeting mention reported by the scheduler helper.
type Candidate struct {
	OriginalText string   `json:"original_text"`
	Datetime     string   `json:"datetime"`
	Topic        string   `json:"topic,omitempty"`
	Participants []string `json:"participants,omitempty"`
	Confidence   int      `json:"confidence"`
	Context      string   `json:"context,omitempty"`
}

// DetectResult is the scheduler helper's detect_meetings output.
type DetectResult struct {
	Meetings []Candidate `json:"meetings"`
}

// EventArgs is the scheduler helper's create_event input.
type EventArgs struct {
	MeetingID    string   `json:"meeting_id"`
	OriginalText string   `json:"original_text"`
	Datetime     string   `json:"datetime"`
	Topic        string   `json:"topic,omitempty"`
	Participants []string `json:"participants,omitempty"`
	Context      string   `json:"context,omitempty"`
}

// EventResult is the scheduler helper's create_event output.
type EventResult struct {
	EventID   string `json:"event_id"`
	EventLink string `json:"event_link,omitempty"`
}
