package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"courier/internal/ipc"
)

func newAgentsCommand(ctx *commandContext) *cobra.Command {
	agentsCmd := &cobra.Command{
		Use:   "agents",
		Short: "Inspect and control distribution agents",
	}

	agentsCmd.AddCommand(newAgentsListCommand(ctx))
	agentsCmd.AddCommand(newAgentsPauseCommand(ctx))
	agentsCmd.AddCommand(newAgentsResumeCommand(ctx))

	return agentsCmd
}

func newAgentsListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured agents",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Status()
				if err != nil {
					return err
				}
				if len(resp.Agents) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No agents configured")
					return nil
				}
				tbl := renderTable(
					[]string{"Agent", "Endpoint", "State", "Paused", "Queues", "Items"},
					buildAgentListRows(resp.Agents),
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
				)
				fmt.Fprintln(cmd.OutOrStdout(), tbl)
				return nil
			})
		},
	}
}

func buildAgentListRows(agents []ipc.AgentSummary) [][]string {
	rows := make([][]string, 0, len(agents))
	for _, ag := range agents {
		queues := make([]string, 0, len(ag.Queues))
		items := 0
		for _, q := range ag.Queues {
			queues = append(queues, q.Name)
			items += q.ItemsCount
		}
		rows = append(rows, []string{
			ag.Name,
			ag.Endpoint,
			titleCase(ag.State),
			yesNo(ag.Paused),
			strings.Join(queues, ", "),
			strconv.Itoa(items),
		})
	}
	return rows
}

func newAgentsPauseCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "pause <agent>",
		Short: "Pause delivery for an agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.PauseAgent(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Agent %s paused\n", resp.Agent.Name)
				return nil
			})
		},
	}
}

func newAgentsResumeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "resume <agent>",
		Short: "Resume delivery for a paused agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.ResumeAgent(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Agent %s resumed\n", resp.Agent.Name)
				return nil
			})
		},
	}
}
