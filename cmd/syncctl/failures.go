package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"shopstream.app/sync/common/logger"
)

func failuresCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "failures", Short: "Inspect the failure ledger"}
	cmd.AddCommand(failuresListCmd())
	cmd.AddCommand(failuresSummaryCmd())
	cmd.AddCommand(failuresResolveCmd())
	return cmd
}

func failuresListCmd() *cobra.Command {
	var limit int32
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List unresolved failures, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd.Context(), false, func(ctx context.Context, e env) error {
				failures, err := e.services.Failures().ListUnresolved(ctx, limit)
				if err != nil {
					return err
				}
				if jsonOutput {
					return printJSON(failures)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Entity", "Entity ID", "Event", "Category", "Retries", "Created", "Error"})
				for _, f := range failures {
					tw.AppendRow(table.Row{
						f.ID,
						f.EntityType,
						f.EntityID,
						f.EventType,
						f.ErrorCategory,
						f.RetryCount,
						f.CreatedAt.Format("2006-01-02 15:04:05"),
						logger.Truncate(f.ErrorMessage, 80),
					})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().Int32Var(&limit, "limit", 100, "max records to list")
	return cmd
}

func failuresSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Summarize unresolved failures",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd.Context(), false, func(ctx context.Context, e env) error {
				summary, err := e.services.Failures().Summary(ctx)
				if err != nil {
					return err
				}
				if jsonOutput {
					return printJSON(summary)
				}
				fmt.Printf("Unresolved failures: %d\n", summary.TotalUnresolved)

				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Category", "Count"})
				for category, n := range summary.ByCategory {
					tw.AppendRow(table.Row{category, n})
				}
				tw.Render()

				tw = table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Entity", "Count"})
				for entity, n := range summary.ByEntity {
					tw.AppendRow(table.Row{entity, n})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func failuresResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <id>",
		Short: "Mark a failure record as handled",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid failure id %q", args[0])
			}
			return withEnv(cmd.Context(), false, func(ctx context.Context, e env) error {
				if err := e.services.Failures().Resolve(ctx, id); err != nil {
					return err
				}
				fmt.Printf("resolved %d\n", id)
				return nil
			})
		},
	}
}
