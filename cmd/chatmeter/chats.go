package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pario-ai/chatmeter/pkg/models"
)

func newChatsCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chats",
		Short: "Inspect and delete tracked chats",
	}

	var asJSON bool
	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a chat's statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			data, ok := a.meter.ChatData(args[0])
			if !ok {
				return fmt.Errorf("%w: %s", models.ErrChatNotFound, args[0])
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), data)
			}
			fmt.Fprint(cmd.OutOrStdout(), formatChat(data.Chat))
			return nil
		},
	}
	showCmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a chat and its rounds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.meter.DeleteChat(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Chat %s deleted.\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(showCmd, deleteCmd)
	return cmd
}
