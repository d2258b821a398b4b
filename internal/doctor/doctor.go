// Package doctor runs runtime readiness diagnostics for config, helper
// binaries, credentials, and the socket directory.
package doctor

import (
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/meetinghub/meetingd/internal/config"
	"github.com/meetinghub/meetingd/internal/ipc"
)

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Environment flattens the report into the map served by /health.
func (r Report) Environment() map[string]any {
	env := make(map[string]any, len(r.Checks))
	for _, check := range r.Checks {
		env[check.Name] = check.Pass
	}
	return env
}

// Run executes environment/config/runtime checks for a loaded config.
func Run(cfg config.Loaded) Report {
	checks := []Check{}

	checks = append(checks, Check{
		Name:    "config",
		Pass:    true,
		Message: fmt.Sprintf("loaded %q", cfg.Path),
	})

	checks = append(checks, checkSocketDir(cfg.Config.SocketDir))
	checks = append(checks, checkHelperBinary("helper.transcriber", cfg.Config.Helpers.Transcriber.Path))
	checks = append(checks, checkHelperBinary("helper.scheduler", cfg.Config.Helpers.Scheduler.Path))

	checks = append(checks, checkSecret("openai_api_key", cfg.Config.OpenAI.APIKey,
		"transcription and meeting detection need OPENAI_API_KEY"))
	checks = append(checks, checkSecret("calendar_token", cfg.Config.Calendar.Token,
		"calendar scheduling needs CALENDAR_TOKEN"))

	checks = append(checks, checkRegistryURL(cfg.Config.Registry.URL))

	return Report{Checks: checks}
}

// checkSocketDir validates the socket directory can be created and written.
func checkSocketDir(dir string) Check {
	if dir == "" {
		dir = ipc.DefaultSocketDir()
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return Check{Name: "socket_dir", Pass: false, Message: err.Error()}
	}
	probe := filepath.Join(dir, ".doctor")
	if err := os.WriteFile(probe, nil, 0o600); err != nil {
		return Check{Name: "socket_dir", Pass: false, Message: fmt.Sprintf("not writable: %v", err)}
	}
	_ = os.Remove(probe)
	return Check{Name: "socket_dir", Pass: true, Message: dir}
}

// checkHelperBinary validates that a helper command resolves to an executable.
func checkHelperBinary(name, path string) Check {
	if strings.TrimSpace(path) == "" {
		return Check{Name: name, Pass: false, Message: "helper command is empty"}
	}
	resolved, err := exec.LookPath(path)
	if err != nil {
		return Check{Name: name, Pass: false, Message: fmt.Sprintf("not found: %s", path)}
	}
	return Check{Name: name, Pass: true, Message: resolved}
}

// checkSecret reports presence of a credential without echoing it.
func checkSecret(name, value, failMsg string) Check {
	if strings.TrimSpace(value) == "" {
		return Check{Name: name, Pass: false, Message: failMsg}
	}
	return Check{Name: name, Pass: true, Message: "set"}
}

// checkRegistryURL validates the agent-registry URL shape. The registry is
// optional, so an empty URL passes.
func checkRegistryURL(raw string) Check {
	if strings.TrimSpace(raw) == "" {
		return Check{Name: "registry_url", Pass: true, Message: "registry disabled"}
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return Check{Name: "registry_url", Pass: false, Message: fmt.Sprintf("invalid URL %q", raw)}
	}
	return Check{Name: "registry_url", Pass: true, Message: raw}
}
