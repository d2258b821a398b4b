package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRegisterCmd advertises both agents to the registry.
func NewRegisterCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "register",
		Short: "Register the transcriber and scheduler agents with the registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := deps.Client().Register(cmd.Context())
			if err != nil {
				return err
			}
			if resp.Message != "" {
				fmt.Println(resp.Message)
			}
			for agent, id := range resp.AgentIDs {
				fmt.Printf("%-14s %s\n", agent, id)
			}
			fmt.Printf("registered %d agent(s)\n", resp.RegisteredCount)
			return nil
		},
	}
}

// NewDiscoverCmd lists registry agents.
func NewDiscoverCmd(deps *Dependencies) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Discover agents in the registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := deps.Client().Discover(cmd.Context(), category)
			if err != nil {
				return err
			}
			if !resp.Success {
				return fmt.Errorf("discovery failed: %s", resp.Error)
			}
			for _, agent := range resp.Agents {
				fmt.Printf("%-28s %-16s %s\n", agent.Name, agent.Category, agent.Description)
			}
			fmt.Printf("%d agent(s)\n", resp.Count)
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Filter by agent category")
	return cmd
}
