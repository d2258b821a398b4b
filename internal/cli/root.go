// Package cli implements the meetingctl command tree over the coordinator's
// status API.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/meetinghub/meetingd/internal/reconciler"
	"github.com/meetinghub/meetingd/internal/version"
)

const defaultAddr = "http://127.0.0.1:5001"

// Dependencies carries everything the subcommands share.
type Dependencies struct {
	addr string
}

// Client builds an API client for the configured coordinator address.
func (d *Dependencies) Client() *reconciler.Client {
	return reconciler.NewClient(d.addr)
}

// NewRootCmd wires the full meetingctl command tree.
func NewRootCmd() *cobra.Command {
	deps := &Dependencies{}

	rootCmd := &cobra.Command{
		Use:   "meetingctl",
		Short: "Control the meeting coordinator",
		Long:  "Upload audio for transcription, analyze transcripts for meeting mentions, schedule detected meetings, and manage the helper servers.",
	}

	rootCmd.Version = version.Version
	rootCmd.SetVersionTemplate(version.String() + "\n")

	addr := defaultAddr
	if env := os.Getenv("MEETINGD_ADDR"); env != "" {
		addr = env
	}
	rootCmd.PersistentFlags().StringVar(&deps.addr, "addr", addr, "Coordinator base URL")

	rootCmd.AddCommand(NewServersCmd(deps))
	rootCmd.AddCommand(NewUploadCmd(deps))
	rootCmd.AddCommand(NewStatusCmd(deps))
	rootCmd.AddCommand(NewTranscriptionsCmd(deps))
	rootCmd.AddCommand(NewAnalyzeCmd(deps))
	rootCmd.AddCommand(NewMeetingsCmd(deps))
	rootCmd.AddCommand(NewScheduleCmd(deps))
	rootCmd.AddCommand(NewRegisterCmd(deps))
	rootCmd.AddCommand(NewDiscoverCmd(deps))
	rootCmd.AddCommand(NewWatchCmd(deps))
	rootCmd.AddCommand(NewDoctorCmd())

	return rootCmd
}

// Execute runs the root command and reports failure via exit code.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
