package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/meetinghub/meetingd/internal/reconciler"
	"github.com/meetinghub/meetingd/internal/store"
)

// NewWatchCmd polls the coordinator and prints a rolling digest of jobs,
// meetings, and helper state.
func NewWatchCmd(deps *Dependencies) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Continuously watch coordinator state",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rec := reconciler.New(deps.Client())
			watcher := reconciler.NewWatcher(rec, interval, printView)
			watcher.Run(ctx)
			return nil
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 3*time.Second, "Poll interval")
	return cmd
}

func printView(view reconciler.View) {
	if view.LastErr != "" {
		fmt.Printf("[%s] sync error: %s\n", time.Now().Format("15:04:05"), view.LastErr)
		return
	}

	counts := map[store.Status]int{}
	for _, job := range view.Jobs {
		counts[job.Status]++
	}
	scheduled := 0
	for _, m := range view.Meetings {
		if m.Scheduled {
			scheduled++
		}
	}
	running := 0
	for _, snap := range view.Servers {
		if snap.Running {
			running++
		}
	}

	fmt.Printf("[%s] jobs: %d pending, %d processing, %d completed, %d failed | meetings: %d (%d scheduled) | helpers running: %d/%d\n",
		view.LastSync.Format("15:04:05"),
		counts[store.StatusPending], counts[store.StatusProcessing],
		counts[store.StatusCompleted], counts[store.StatusFailed],
		len(view.Meetings), scheduled,
		running, len(view.Servers),
	)
}
