package cli

import (
	"net/url"

	"github.com/spf13/cobra"
)

func newLobbyCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "lobby <code>",
		Short: "Show a lobby's letters and members",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Lobby

			if err := NewClient(cfg.ServerURL).Get(cmd.Context(), "/api/v1/lobbies/"+url.PathEscape(args[0]), &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout(), cmd.ErrOrStderr()).Print(result)
			return nil
		},
	}
}
