package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/meetinghub/meetingd/internal/store"
)

// NewAnalyzeCmd triggers meeting detection on a completed transcription.
func NewAnalyzeCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <transcription-id>",
		Short: "Detect meeting mentions in a completed transcription",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := deps.Client()
			resp, err := client.AnalyzeMeetings(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !resp.Success {
				return fmt.Errorf("analysis failed: %s", resp.Error)
			}

			meetings, err := client.Meetings(cmd.Context())
			if err != nil {
				return err
			}
			found := 0
			for _, m := range meetings {
				if m.SourceID == args[0] {
					printMeeting(m)
					found++
				}
			}
			if found == 0 {
				fmt.Println("no meetings detected")
			}
			return nil
		},
	}
}

// NewMeetingsCmd lists all detected meetings.
func NewMeetingsCmd(deps *Dependencies) *cobra.Command {
	var unscheduledOnly bool

	cmd := &cobra.Command{
		Use:   "meetings",
		Short: "List detected meetings",
		RunE: func(cmd *cobra.Command, args []string) error {
			meetings, err := deps.Client().Meetings(cmd.Context())
			if err != nil {
				return err
			}
			shown := 0
			for _, m := range meetings {
				if unscheduledOnly && m.Scheduled {
					continue
				}
				printMeeting(m)
				shown++
			}
			if shown == 0 {
				fmt.Println("no meetings")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&unscheduledOnly, "unscheduled", false, "Only show meetings without a calendar event")
	return cmd
}

// NewScheduleCmd schedules detected meetings on the calendar.
func NewScheduleCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "schedule [meeting-id...]",
		Short: "Schedule detected meetings (all unscheduled ones when no ids are given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := deps.Client().ScheduleMeetings(cmd.Context(), args)
			if err != nil {
				return err
			}
			for _, result := range resp.Results {
				if result.Scheduled {
					fmt.Printf("%-28s scheduled  event=%s\n", result.MeetingID, result.EventID)
					continue
				}
				detail := result.Error
				if detail == "" {
					detail = result.Message
				}
				fmt.Printf("%-28s skipped    %s\n", result.MeetingID, detail)
			}
			fmt.Printf("scheduled %d meeting(s)\n", resp.ScheduledCount)
			return nil
		},
	}
}

func printMeeting(m store.Meeting) {
	state := "unscheduled"
	if m.Scheduled {
		state = "scheduled"
	}
	fmt.Printf("%-28s %-11s %s  confidence=%d\n",
		m.ID, state, m.Datetime.Format(time.RFC3339), m.Confidence)
	if m.Topic != "" {
		fmt.Printf("  topic: %s\n", m.Topic)
	}
	if m.CalendarEvent != nil {
		fmt.Printf("  event: %s %s\n", m.CalendarEvent.EventID, m.CalendarEvent.EventLink)
	}
	if m.ScheduleError != "" {
		fmt.Printf("  error: %s\n", m.ScheduleError)
	}
}
