package config

import "time"

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	return Config{
		ListenAddr:     ":5001",
		SocketDir:      "",
		UploadMaxBytes: 100 * 1024 * 1024,
		Helpers: HelpersConfig{
			Transcriber: HelperCommand{Path: "transcriberd"},
			Scheduler:   HelperCommand{Path: "schedulerd"},
			ProbeWindow: 5 * time.Second,
			StopGrace:   5 * time.Second,
		},
		Timeouts: TimeoutConfig{
			Transcribe: 300 * time.Second,
			Default:    60 * time.Second,
			Probe:      2 * time.Second,
		},
		OpenAI: OpenAIConfig{
			BaseURL:      "https://api.openai.com/v1",
			WhisperModel: "whisper-1",
			ChatModel:    "gpt-4o-mini",
		},
		Calendar: CalendarConfig{
			BaseURL:       "https://www.googleapis.com/calendar/v3",
			CalendarID:    "primary",
			TimeZone:      "America/New_York",
			EventDuration: time.Hour,
		},
		Registry: RegistryConfig{
			URL:          "https://nanda-registry.com",
			AgentBaseURL: "http://localhost:5001",
		},
	}
}
