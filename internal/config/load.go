package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Loaded captures resolved config path, parsed values, and non-fatal warnings.
type Loaded struct {
	Path     string
	Config   Config
	Warnings []Warning
	Exists   bool
}

// fileConfig mirrors the on-disk TOML schema. Durations are seconds.
type fileConfig struct {
	ListenAddr     string `toml:"listen_addr"`
	SocketDir      string `toml:"socket_dir"`
	UploadMaxBytes int64  `toml:"upload_max_bytes"`

	Helpers struct {
		TranscriberPath string   `toml:"transcriber_path"`
		TranscriberArgs []string `toml:"transcriber_args"`
		SchedulerPath   string   `toml:"scheduler_path"`
		SchedulerArgs   []string `toml:"scheduler_args"`
		ProbeWindowSec  int      `toml:"probe_window_seconds"`
		StopGraceSec    int      `toml:"stop_grace_seconds"`
	} `toml:"helpers"`

	Timeouts struct {
		TranscribeSec int `toml:"transcribe_seconds"`
		DefaultSec    int `toml:"default_seconds"`
		ProbeSec      int `toml:"probe_seconds"`
	} `toml:"timeouts"`

	OpenAI struct {
		APIKey       string `toml:"api_key"`
		BaseURL      string `toml:"base_url"`
		WhisperModel string `toml:"whisper_model"`
		ChatModel    string `toml:"chat_model"`
	} `toml:"openai"`

	Calendar struct {
		Token          string `toml:"token"`
		BaseURL        string `toml:"base_url"`
		CalendarID     string `toml:"calendar_id"`
		TimeZone       string `toml:"time_zone"`
		EventDurationM int    `toml:"event_duration_minutes"`
	} `toml:"calendar"`

	Registry struct {
		URL          string `toml:"url"`
		AgentBaseURL string `toml:"agent_base_url"`
	} `toml:"registry"`
}

// Load resolves, reads, parses, and overlays the runtime configuration.
// Environment variables win over the file; the file wins over defaults.
func Load(explicitPath string) (Loaded, error) {
	resolvedPath, err := ResolvePath(explicitPath)
	if err != nil {
		return Loaded{}, err
	}

	cfg := Default()
	var warnings []Warning
	exists := false

	content, err := os.ReadFile(resolvedPath)
	switch {
	case err == nil:
		var fc fileConfig
		if _, derr := toml.Decode(string(content), &fc); derr != nil {
			return Loaded{}, fmt.Errorf("parse config %q: %w", resolvedPath, derr)
		}
		applyFile(&cfg, fc)
		exists = true
	case errors.Is(err, os.ErrNotExist):
		warnings = append(warnings, Warning{
			Message: fmt.Sprintf("config file %q not found; using defaults", resolvedPath),
		})
	default:
		return Loaded{}, fmt.Errorf("read config %q: %w", resolvedPath, err)
	}

	warnings = append(warnings, applyEnv(&cfg)...)

	return Loaded{
		Path:     resolvedPath,
		Config:   cfg,
		Warnings: warnings,
		Exists:   exists,
	}, nil
}

// ResolvePath selects the explicit path when given, otherwise the XDG config location.
func ResolvePath(explicitPath string) (string, error) {
	if strings.TrimSpace(explicitPath) != "" {
		return explicitPath, nil
	}
	if xdg := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); xdg != "" {
		return filepath.Join(xdg, "meetingd", "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory for config: %w", err)
	}
	return filepath.Join(home, ".config", "meetingd", "config.toml"), nil
}

func applyFile(cfg *Config, fc fileConfig) {
	setString(&cfg.ListenAddr, fc.ListenAddr)
	setString(&cfg.SocketDir, fc.SocketDir)
	if fc.UploadMaxBytes > 0 {
		cfg.UploadMaxBytes = fc.UploadMaxBytes
	}

	setString(&cfg.Helpers.Transcriber.Path, fc.Helpers.TranscriberPath)
	if len(fc.Helpers.TranscriberArgs) > 0 {
		cfg.Helpers.Transcriber.Args = fc.Helpers.TranscriberArgs
	}
	setString(&cfg.Helpers.Scheduler.Path, fc.Helpers.SchedulerPath)
	if len(fc.Helpers.SchedulerArgs) > 0 {
		cfg.Helpers.Scheduler.Args = fc.Helpers.SchedulerArgs
	}
	setSeconds(&cfg.Helpers.ProbeWindow, fc.Helpers.ProbeWindowSec)
	setSeconds(&cfg.Helpers.StopGrace, fc.Helpers.StopGraceSec)

	setSeconds(&cfg.Timeouts.Transcribe, fc.Timeouts.TranscribeSec)
	setSeconds(&cfg.Timeouts.Default, fc.Timeouts.DefaultSec)
	setSeconds(&cfg.Timeouts.Probe, fc.Timeouts.ProbeSec)

	setString(&cfg.OpenAI.APIKey, fc.OpenAI.APIKey)
	setString(&cfg.OpenAI.BaseURL, fc.OpenAI.BaseURL)
	setString(&cfg.OpenAI.WhisperModel, fc.OpenAI.WhisperModel)
	setString(&cfg.OpenAI.ChatModel, fc.OpenAI.ChatModel)

	setString(&cfg.Calendar.Token, fc.Calendar.Token)
	setString(&cfg.Calendar.BaseURL, fc.Calendar.BaseURL)
	setString(&cfg.Calendar.CalendarID, fc.Calendar.CalendarID)
	setString(&cfg.Calendar.TimeZone, fc.Calendar.TimeZone)
	if fc.Calendar.EventDurationM > 0 {
		cfg.Calendar.EventDuration = time.Duration(fc.Calendar.EventDurationM) * time.Minute
	}

	setString(&cfg.Registry.URL, fc.Registry.URL)
	setString(&cfg.Registry.AgentBaseURL, fc.Registry.AgentBaseURL)
}

// applyEnv overlays well-known environment variables onto the config.
func applyEnv(cfg *Config) []Warning {
	var warnings []Warning

	setString(&cfg.ListenAddr, os.Getenv("MEETINGD_ADDR"))
	setString(&cfg.SocketDir, os.Getenv("MEETINGD_SOCKET_DIR"))
	setString(&cfg.OpenAI.APIKey, os.Getenv("OPENAI_API_KEY"))
	setString(&cfg.Calendar.Token, os.Getenv("CALENDAR_TOKEN"))
	setString(&cfg.Registry.URL, os.Getenv("NANDA_REGISTRY_URL"))

	if raw := strings.TrimSpace(os.Getenv("MEETINGD_UPLOAD_MAX_BYTES")); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			warnings = append(warnings, Warning{
				Message: fmt.Sprintf("ignoring MEETINGD_UPLOAD_MAX_BYTES=%q: not a positive integer", raw),
			})
		} else {
			cfg.UploadMaxBytes = parsed
		}
	}

	return warnings
}

func setString(dst *string, value string) {
	if strings.TrimSpace(value) != "" {
		*dst = value
	}
}

func setSeconds(dst *time.Duration, seconds int) {
	if seconds > 0 {
		*dst = time.Duration(seconds) * time.Second
	}
}
