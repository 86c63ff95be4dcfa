package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"courier/internal/config"
	"courier/internal/ipc"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage agent queues",
	}

	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueRemoveCommand(ctx))
	queueCmd.AddCommand(newQueueRetryCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))

	return queueCmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var agentName string
	var queueName string
	var offset int
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List items on an agent queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(agentName) == "" {
				return errors.New("--agent is required")
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.QueueList(ipc.QueueListRequest{
					Agent:  agentName,
					Queue:  queueName,
					Offset: offset,
					Limit:  limit,
				})
				if err != nil {
					return err
				}
				if len(resp.Items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				tbl := renderTable(
					[]string{"ID", "Action", "Paths", "State", "Attempts", "Entered", "Error"},
					buildQueueListRows(resp.Items),
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
				)
				fmt.Fprintln(cmd.OutOrStdout(), tbl)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&agentName, "agent", "a", "", "Agent whose queue to list")
	cmd.Flags().StringVarP(&queueName, "queue", "q", config.DefaultQueueName, "Queue name")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of items to skip")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of items to return")
	return cmd
}

func buildQueueListRows(items []ipc.Item) [][]string {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			item.ID,
			item.Action,
			formatPaths(item.Paths),
			titleCase(item.State),
			strconv.Itoa(item.Attempts),
			item.Entered,
			truncate(item.LastError, 40),
		})
	}
	return rows
}

func newQueueRemoveCommand(ctx *commandContext) *cobra.Command {
	var agentName string
	var queueName string

	cmd := &cobra.Command{
		Use:   "remove <id>...",
		Short: "Remove items from an agent queue",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(agentName) == "" {
				return errors.New("--agent is required")
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.QueueRemove(ipc.QueueRemoveRequest{Agent: agentName, Queue: queueName, IDs: args})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d of %d items\n", resp.Removed, len(args))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&agentName, "agent", "a", "", "Agent whose queue to modify")
	cmd.Flags().StringVarP(&queueName, "queue", "q", config.DefaultQueueName, "Queue name")
	return cmd
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	var agentName string

	cmd := &cobra.Command{
		Use:   "retry [id]...",
		Short: "Requeue given-up items from the error queue",
		Long:  "Requeue given-up items from the error queue. Without ids, every parked item is retried.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(agentName) == "" {
				return errors.New("--agent is required")
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.QueueRetry(ipc.QueueRetryRequest{Agent: agentName, IDs: args})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Retried %d items\n", resp.Retried)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&agentName, "agent", "a", "", "Agent whose parked items to retry")
	return cmd
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	var agentName string
	var queueName string

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every item from an agent queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(agentName) == "" {
				return errors.New("--agent is required")
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.QueueClear(ipc.QueueClearRequest{Agent: agentName, Queue: queueName})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d items from %s/%s\n", resp.Removed, agentName, queueName)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&agentName, "agent", "a", "", "Agent whose queue to clear")
	cmd.Flags().StringVarP(&queueName, "queue", "q", config.DefaultQueueName, "Queue name")
	return cmd
}

func formatPaths(paths []string) string {
	const max = 3
	if len(paths) <= max {
		return strings.Join(paths, ", ")
	}
	return fmt.Sprintf("%s (+%d more)", strings.Join(paths[:max], ", "), len(paths)-max)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
