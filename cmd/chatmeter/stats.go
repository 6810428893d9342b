package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pario-ai/chatmeter/pkg/meter"
	"github.com/pario-ai/chatmeter/pkg/models"
)

func newStatsCmd(configPath *string) *cobra.Command {
	var (
		rangeName string
		top       int
		recent    int
		search    string
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show global usage statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := models.ParseRange(rangeName)
			if err != nil {
				return err
			}
			a, err := openApp(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			view := a.meter.GlobalStats(r)
			out := cmd.OutOrStdout()
			listing := top > 0 || recent > 0 || search != ""
			var chats []*models.Chat
			if listing {
				chats = a.meter.Chats(meter.ChatQuery{Range: r, Search: search, Top: top, Recent: recent})
			}
			if asJSON {
				return writeJSON(out, struct {
					meter.GlobalView
					Chats []*models.Chat `json:"chats,omitempty"`
				}{view, chats})
			}

			if view.ChatCount == 0 {
				fmt.Fprintln(out, "No usage data found.")
			} else {
				fmt.Fprint(out, formatGlobal(r, view.Stats))
			}
			fmt.Fprintln(out)
			fmt.Fprint(out, formatTimers(view.Timers))
			if listing {
				fmt.Fprintln(out)
				fmt.Fprint(out, formatChats(chats))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&rangeName, "range", "r", "all", "recency range: 4h, today, week or all")
	cmd.Flags().IntVar(&top, "top", 0, "list the N chats with the most tokens")
	cmd.Flags().IntVar(&recent, "recent", 0, "list the N most recently active chats")
	cmd.Flags().StringVar(&search, "search", "", "list chats whose title contains this text")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}
