package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/meetinghub/meetingd/internal/reconciler"
	"github.com/meetinghub/meetingd/internal/store"
)

// NewUploadCmd submits an audio file for transcription.
func NewUploadCmd(deps *Dependencies) *cobra.Command {
	var language string
	var prompt string
	var wait bool

	cmd := &cobra.Command{
		Use:   "upload <audio-file>",
		Short: "Upload an audio file for transcription",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			client := deps.Client()
			resp, err := client.Upload(cmd.Context(), f.Name(), f, language, prompt)
			if err != nil {
				return err
			}
			if !resp.Success {
				return fmt.Errorf("upload rejected: %s", resp.Error)
			}
			fmt.Printf("uploaded: %s (status=%s)\n", resp.TranscriptionID, resp.Status)

			if !wait {
				return nil
			}

			fmt.Println("waiting for transcription...")
			job, err := client.MonitorUpload(cmd.Context(), resp.TranscriptionID, reconciler.DefaultMonitorOptions())
			if err != nil {
				return err
			}
			printJob(job, true)
			if job.Status == store.StatusFailed {
				return fmt.Errorf("transcription failed: %s", job.Error)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&language, "language", "", "Audio language hint (ISO 639-1)")
	cmd.Flags().StringVar(&prompt, "prompt", "", "Transcription prompt hint")
	cmd.Flags().BoolVar(&wait, "wait", false, "Poll until the transcription finishes")

	return cmd
}

// NewStatusCmd fetches one transcription job.
func NewStatusCmd(deps *Dependencies) *cobra.Command {
	var showText bool

	cmd := &cobra.Command{
		Use:   "status <transcription-id>",
		Short: "Show one transcription job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := deps.Client().Transcription(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printJob(job, showText)
			return nil
		},
	}

	cmd.Flags().BoolVar(&showText, "text", false, "Print the full transcript text")
	return cmd
}

// NewTranscriptionsCmd lists all transcription jobs.
func NewTranscriptionsCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "transcriptions",
		Short: "List all transcription jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			jobs, err := deps.Client().Transcriptions(cmd.Context())
			if err != nil {
				return err
			}
			if len(jobs) == 0 {
				fmt.Println("no transcriptions")
				return nil
			}
			for _, job := range jobs {
				fmt.Printf("%-38s %-11s %s\n", job.ID, job.Status, job.Filename)
			}
			return nil
		},
	}
}

func printJob(job store.Transcription, showText bool) {
	fmt.Printf("id:        %s\n", job.ID)
	fmt.Printf("filename:  %s\n", job.Filename)
	fmt.Printf("status:    %s\n", job.Status)
	fmt.Printf("uploaded:  %s\n", job.UploadedAt.Format(time.RFC3339))
	if job.CompletedAt != nil {
		fmt.Printf("completed: %s\n", job.CompletedAt.Format(time.RFC3339))
	}
	if job.Language != "" {
		fmt.Printf("language:  %s\n", job.Language)
	}
	if job.DurationSeconds > 0 {
		fmt.Printf("duration:  %.1fs\n", job.DurationSeconds)
	}
	if job.Error != "" {
		fmt.Printf("error:     %s\n", job.Error)
	}
	if showText && job.Text != "" {
		fmt.Printf("\n%s\n", job.Text)
	}
}
