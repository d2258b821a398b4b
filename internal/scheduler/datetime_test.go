package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseMeetingTime(t *testing.T) {
	// Wednesday, 2024-03-13 09:30 local.
	now := time.Date(2024, 3, 13, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name   string
		phrase string
		want   time.Time
	}{
		{
			name:   "tomorrow with pm time",
			phrase: "tomorrow at 2pm",
			want:   time.Date(2024, 3, 14, 14, 0, 0, 0, time.UTC),
		},
		{
			name:   "tomorrow without time defaults to ten",
			phrase: "tomorrow",
			want:   time.Date(2024, 3, 14, 10, 0, 0, 0, time.UTC),
		},
		{
			name:   "today with minutes",
			phrase: "today at 3:45pm",
			want:   time.Date(2024, 3, 13, 15, 45, 0, 0, time.UTC),
		},
		{
			name:   "noon is not shifted",
			phrase: "tomorrow at 12pm",
			want:   time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC),
		},
		{
			name:   "midnight",
			phrase: "tomorrow at 12am",
			want:   time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "next week",
			phrase: "next week",
			want:   time.Date(2024, 3, 20, 10, 0, 0, 0, time.UTC),
		},
		{
			name:   "upcoming weekday",
			phrase: "friday at 11am",
			want:   time.Date(2024, 3, 15, 11, 0, 0, 0, time.UTC),
		},
		{
			name:   "same weekday rolls a week forward",
			phrase: "wednesday at 9am",
			want:   time.Date(2024, 3, 20, 9, 0, 0, 0, time.UTC),
		},
		{
			name:   "next weekday",
			phrase: "next friday at 1pm",
			want:   time.Date(2024, 3, 22, 13, 0, 0, 0, time.UTC),
		},
		{
			name:   "bare clock time means today",
			phrase: "at 4pm",
			want:   time.Date(2024, 3, 13, 16, 0, 0, 0, time.UTC),
		},
		{
			name:   "twenty four hour clock",
			phrase: "tomorrow at 14:30",
			want:   time.Date(2024, 3, 14, 14, 30, 0, 0, time.UTC),
		},
		{
			name:   "rfc3339 passthrough",
			phrase: "2024-04-01T15:00:00Z",
			want:   time.Date(2024, 4, 1, 15, 0, 0, 0, time.UTC),
		},
		{
			name:   "bare timestamp layout",
			phrase: "2024-04-01T15:00:00",
			want:   time.Date(2024, 4, 1, 15, 0, 0, 0, time.UTC),
		},
		{
			name:   "date only defaults to ten",
			phrase: "2024-04-01",
			want:   time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMeetingTime(tt.phrase, now)
			require.NoError(t, err)
			require.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestParseMeetingTimeRejectsUnknownPhrases(t *testing.T) {
	now := time.Date(2024, 3, 13, 9, 30, 0, 0, time.UTC)

	for _, phrase := range []string{"", "sometime soon", "when we're ready"} {
		_, err := ParseMeetingTime(phrase, now)
		require.Error(t, err, "phrase %q", phrase)
	}
}
