package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"shopstream.app/sync/internal/model"
)

const timeRound = 10 * time.Millisecond

func runCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "run [customers|orders|all]",
		Short: "Run a sync now",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := "all"
			if len(args) == 1 {
				target = args[0]
			}
			return withEnv(cmd.Context(), dryRun, func(ctx context.Context, e env) error {
				runs, err := runTarget(ctx, e, target)
				if err != nil {
					return err
				}
				if jsonOutput {
					return printJSON(runs)
				}
				renderRuns(runs)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "log events instead of sending them")
	return cmd
}

func runTarget(ctx context.Context, e env, target string) ([]model.SyncRun, error) {
	switch target {
	case "all":
		return e.services.Sync().RunAll(ctx)
	case "customers":
		run, err := e.services.Sync().RunSync(ctx, model.EntityTypeCustomer)
		return []model.SyncRun{run}, err
	case "orders":
		run, err := e.services.Sync().RunSync(ctx, model.EntityTypeOrder)
		return []model.SyncRun{run}, err
	default:
		return nil, fmt.Errorf("unknown target %q (want customers, orders or all)", target)
	}
}

func renderRuns(runs []model.SyncRun) {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"Entity", "Attempted", "Delivered", "Failed", "Invalid", "Duration"})
	for _, run := range runs {
		tw.AppendRow(table.Row{
			run.EntityType,
			run.Attempted,
			run.Delivered,
			run.Failed,
			run.Invalid,
			run.FinishedAt.Sub(run.StartedAt).Round(timeRound),
		})
	}
	tw.Render()
}
