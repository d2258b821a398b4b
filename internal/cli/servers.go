package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/meetinghub/meetingd/internal/supervisor"
)

// NewServersCmd groups helper server lifecycle commands.
func NewServersCmd(deps *Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "servers",
		Short: "Manage the helper servers",
	}
	cmd.AddCommand(newServersStartCmd(deps))
	cmd.AddCommand(newServersStopCmd(deps))
	cmd.AddCommand(newServersStatusCmd(deps))
	return cmd
}

func newServersStartCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start both helper servers",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := deps.Client().StartServers(cmd.Context())
			if err != nil {
				return err
			}
			printServerResults(resp.Results)
			printSnapshots(resp.Status)
			if !resp.Success {
				return fmt.Errorf("not all helpers started")
			}
			return nil
		},
	}
}

func newServersStopCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop both helper servers",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := deps.Client().StopServers(cmd.Context())
			if err != nil {
				return err
			}
			printServerResults(resp.Results)
			if !resp.Success {
				return fmt.Errorf("not all helpers stopped")
			}
			return nil
		},
	}
}

func newServersStatusCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show helper server status",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := deps.Client().ServersStatus(cmd.Context())
			if err != nil {
				return err
			}
			printSnapshots(status)
			return nil
		},
	}
}

func printServerResults(results map[string]bool) {
	for _, name := range sortedKeys(results) {
		outcome := "ok"
		if !results[name] {
			outcome = "failed"
		}
		fmt.Printf("%-12s %s\n", name, outcome)
	}
}

func printSnapshots(status map[string]supervisor.Snapshot) {
	for _, name := range sortedKeys(status) {
		snap := status[name]
		if !snap.Running {
			fmt.Printf("%-12s stopped\n", name)
			continue
		}
		fmt.Printf("%-12s running  pid=%d  uptime=%ds  health=%s\n",
			name, snap.PID, int64(snap.UptimeSeconds), snap.Health)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
