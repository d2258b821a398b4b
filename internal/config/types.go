// Package config resolves, parses, validates, and defaults meetingd configuration.
package config

import "time"

// Config is the fully materialized runtime configuration used by meetingd.
type Config struct {
	ListenAddr     string
	SocketDir      string
	UploadMaxBytes int64
	Helpers        HelpersConfig
	Timeouts       TimeoutConfig
	OpenAI         OpenAIConfig
	Calendar       CalendarConfig
	Registry       RegistryConfig
}

// HelperCommand is the command line used to launch one helper server.
type HelperCommand struct {
	Path string
	Args []string
}

// HelpersConfig controls helper process launch and lifecycle bounds.
type HelpersConfig struct {
	Transcriber HelperCommand
	Scheduler   HelperCommand
	ProbeWindow time.Duration
	StopGrace   time.Duration
}

// TimeoutConfig bounds bridge calls per tool class.
type TimeoutConfig struct {
	Transcribe time.Duration
	Default    time.Duration
	Probe      time.Duration
}

// OpenAIConfig holds credentials and model selection for the OpenAI-backed tools.
type OpenAIConfig struct {
	APIKey       string
	BaseURL      string
	WhisperModel string
	ChatModel    string
}

// CalendarConfig holds calendar service access and event defaults.
type CalendarConfig struct {
	Token         string
	BaseURL       string
	CalendarID    string
	TimeZone      string
	EventDuration time.Duration
}

// RegistryConfig controls the optional agent-registry integration.
type RegistryConfig struct {
	URL          string
	AgentBaseURL string
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Message string
}
