package cli

import (
	"github.com/spf13/cobra"

	"github.com/mcoot/wordlobby/internal/model"
	"github.com/mcoot/wordlobby/internal/protocol"
)

const sessionHelp = `
Once connected, each line read from stdin is sent to the lobby:
  /guess <word>  submit a guess
  /quit          leave the lobby
  anything else  send as a chat message

Server events are printed as they arrive. Press Ctrl+C to leave.`

func newStartCmd(cfg *Config) *cobra.Command {
	var name, letters string

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a new lobby and play in it",
		Long:  "Start a new lobby constrained to words beginning and ending with the given letters." + sessionHelp,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd, cfg, model.EventStartGame, protocol.StartGamePayload{
				Name:    name,
				Letters: letters,
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&letters, "letters", "", "Two letters: first and last letter of valid words")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("letters")

	return cmd
}

func newJoinCmd(cfg *Config) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "join <code>",
		Short: "Join an existing lobby and play in it",
		Long:  "Join the lobby with the given join code." + sessionHelp,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd, cfg, model.EventJoinGame, protocol.JoinGamePayload{
				Name:     name,
				JoinCode: args[0],
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}
