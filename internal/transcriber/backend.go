// Package transcriber implements the transcription helper server: it answers
// tool requests over the unix-socket protocol and forwards audio to a
// speech-to-text backend.
package transcriber

import "context"

// Transcript is the backend's output for one audio artifact.
type Transcript struct {
	Text            string
	Language        string
	DurationSeconds float64
}

// Backend is a pluggable speech-to-text implementation.
type Backend interface {
	Transcribe(ctx context.Context, audio []byte, filename, language, prompt string) (Transcript, error)
}

// BackendFunc adapts a function to the Backend interface.
type BackendFunc func(ctx context.Context, audio []byte, filename, language, prompt string) (Transcript, error)

func (f BackendFunc) Transcribe(ctx context.Context, audio []byte, filename, language, prompt string) (Transcript, error) {
	return f(ctx, audio, filename, language, prompt)
}
