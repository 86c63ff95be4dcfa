package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"courier/internal/ipc"
)

func newLogCommand(ctx *commandContext) *cobra.Command {
	var lines int

	cmd := &cobra.Command{
		Use:   "log <agent>",
		Short: "Display recent agent activity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.AgentLog(ipc.AgentLogRequest{Agent: args[0], Limit: lines})
				if err != nil {
					return err
				}
				if len(resp.Lines) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No activity recorded")
					return nil
				}
				for _, line := range resp.Lines {
					fmt.Fprintln(cmd.OutOrStdout(), line)
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 20, "Number of lines to show (0 for all)")
	return cmd
}
