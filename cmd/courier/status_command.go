package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"courier/internal/ipc"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon, agent, and queue status",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			socket := ctx.socketPath()
			client, err := ipc.Dial(socket)
			if err != nil {
				if !daemonAbsent(err) {
					return wrapDialError(err, socket)
				}
				for _, line := range renderSectionHeader("Daemon", colorize) {
					fmt.Fprintln(stdout, line)
				}
				fmt.Fprintln(stdout, renderStatusLine("Daemon", statusError, "not running", colorize))
				fmt.Fprintln(stdout, renderStatusLine("Socket", statusInfo, socket, colorize))
				return nil
			}
			defer client.Close()

			resp, err := client.Status()
			if err != nil {
				return err
			}

			for _, line := range renderSectionHeader("Daemon", colorize) {
				fmt.Fprintln(stdout, line)
			}
			if resp.Running {
				fmt.Fprintln(stdout, renderStatusLine("Daemon", statusOK, fmt.Sprintf("running (pid %d)", resp.PID), colorize))
			} else {
				fmt.Fprintln(stdout, renderStatusLine("Daemon", statusWarn, "stopped", colorize))
			}
			fmt.Fprintln(stdout, renderStatusLine("Socket", statusInfo, resp.SocketPath, colorize))
			fmt.Fprintln(stdout, renderStatusLine("Queue DB", statusInfo, resp.QueueDBPath, colorize))

			if len(resp.Checks) > 0 {
				fmt.Fprintln(stdout)
				for _, line := range renderSectionHeader("Startup Checks", colorize) {
					fmt.Fprintln(stdout, line)
				}
				for _, check := range resp.Checks {
					kind := statusOK
					if !check.Passed {
						kind = statusError
					}
					fmt.Fprintln(stdout, renderStatusLine(check.Name, kind, check.Detail, colorize))
				}
			}

			fmt.Fprintln(stdout)
			for _, line := range renderSectionHeader("Agents", colorize) {
				fmt.Fprintln(stdout, line)
			}
			if len(resp.Agents) == 0 {
				fmt.Fprintln(stdout, "No agents configured")
				return nil
			}
			tbl := renderTable(
				[]string{"Agent", "State", "Paused", "Queue", "Queue State", "Items"},
				buildAgentQueueRows(resp.Agents),
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
			)
			fmt.Fprintln(stdout, tbl)
			return nil
		},
	}
}

// buildAgentQueueRows flattens each agent into one row per queue. Agent
// columns render only on the first row of the group.
func buildAgentQueueRows(agents []ipc.AgentSummary) [][]string {
	rows := make([][]string, 0, len(agents))
	for _, ag := range agents {
		if len(ag.Queues) == 0 {
			rows = append(rows, []string{ag.Name, titleCase(ag.State), yesNo(ag.Paused), "", "", "0"})
			continue
		}
		for i, q := range ag.Queues {
			var name, state, paused string
			if i == 0 {
				name = ag.Name
				state = titleCase(ag.State)
				paused = yesNo(ag.Paused)
			}
			rows = append(rows, []string{name, state, paused, q.Name, titleCase(q.State), strconv.Itoa(q.ItemsCount)})
		}
	}
	return rows
}
