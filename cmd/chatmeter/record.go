package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pario-ai/chatmeter/pkg/ingest"
)

func newRecordCmd(configPath *string) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "record [file|-]",
		Short: "Record one completed round from a JSON file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(args)
			if err != nil {
				return err
			}
			in, err := ingest.ParseRoundInput(data)
			if err != nil {
				return err
			}

			a, err := openApp(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.meter.RoundCompleted(cmd.Context(), in)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, res)
			}
			switch {
			case res.Duplicate:
				fmt.Fprintf(out, "Round %d of chat %s was already recorded.\n", in.Round.RoundNumber, res.Chat.ID)
				return nil
			case !res.Saved:
				fmt.Fprintln(out, "Tracking is disabled; round not saved.")
				return nil
			}
			fmt.Fprintf(out, "Recorded round #%d of chat %s: %s tokens (chat total %s)\n",
				res.Round.RoundNumber, res.Chat.ID, formatTokens(res.Round.Total.Tokens), formatTokens(res.Chat.Stats.Total.Tokens))
			for _, w := range res.Warnings {
				fmt.Fprintf(out, "Warning: %s window %s at %s of limit\n", windowName(w.Window), w.Level, formatPercent(w.Percentage))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")
	return cmd
}

func readInput(args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return data, nil
}
