package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidTransition(t *testing.T) {
	tests := []struct {
		name string
		from Status
		to   Status
		want bool
	}{
		{name: "pending to processing", from: StatusPending, to: StatusProcessing, want: true},
		{name: "pending to failed", from: StatusPending, to: StatusFailed, want: true},
		{name: "pending skips processing", from: StatusPending, to: StatusCompleted, want: false},
		{name: "processing to completed", from: StatusProcessing, to: StatusCompleted, want: true},
		{name: "processing to failed", from: StatusProcessing, to: StatusFailed, want: true},
		{name: "processing back to pending", from: StatusProcessing, to: StatusPending, want: false},
		{name: "completed is frozen", from: StatusCompleted, to: StatusFailed, want: false},
		{name: "failed is frozen", from: StatusFailed, to: StatusProcessing, want: false},
		{name: "failed cannot complete", from: StatusFailed, to: StatusCompleted, want: false},
		{name: "same status is a no-op", from: StatusProcessing, to: StatusProcessing, want: true},
		{name: "terminal same status", from: StatusCompleted, to: StatusCompleted, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ValidTransition(tt.from, tt.to))
		})
	}
}

func TestTerminal(t *testing.T) {
	require.False(t, StatusPending.Terminal())
	require.False(t, StatusProcessing.Terminal())
	require.True(t, StatusCompleted.Terminal())
	require.True(t, StatusFailed.Terminal())
}
