package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meetinghub/meetingd/internal/config"
	"github.com/meetinghub/meetingd/internal/doctor"
)

// NewDoctorCmd runs local readiness checks against the resolved config.
func NewDoctorCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check local prerequisites",
		RunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(configPath)
			if err != nil {
				return err
			}
			for _, warning := range loaded.Warnings {
				fmt.Printf("[WARN] %s\n", warning.Message)
			}

			report := doctor.Run(loaded)
			fmt.Println(report.String())
			if !report.OK() {
				return fmt.Errorf("some prerequisites are missing")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Config file path")
	return cmd
}
