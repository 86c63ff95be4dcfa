package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"courier/internal/ipc"
	"courier/internal/payload"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var agentName string
	var action string
	var pkgType string

	cmd := &cobra.Command{
		Use:   "submit <path>...",
		Short: "Queue content paths for distribution",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(agentName) == "" {
				return errors.New("--agent is required")
			}
			if _, ok := payload.ParseAction(action); !ok {
				return fmt.Errorf("unknown action %q (use add, delete, pull, or test)", action)
			}
			if len(args) == 0 && action != string(payload.ActionTest) {
				return errors.New("at least one content path is required")
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Submit(ipc.SubmitRequest{
					Agent:  agentName,
					Action: action,
					Type:   pkgType,
					Paths:  args,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Queued %s on %s/%s\n", resp.Item.ID, agentName, resp.Queue)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&agentName, "agent", "a", "", "Agent to submit to")
	cmd.Flags().StringVar(&action, "action", string(payload.ActionAdd), "Distribution action (add, delete, pull, test)")
	cmd.Flags().StringVar(&pkgType, "type", "", "Package serialization type")
	return cmd
}
