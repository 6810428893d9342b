package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pario-ai/chatmeter/pkg/models"
)

func newTimersCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timers",
		Short: "Inspect and control the usage windows",
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show both usage windows",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer a.Close()
			fmt.Fprint(cmd.OutOrStdout(), formatTimers(a.meter.TimerStatus()))
			return nil
		},
	}

	resetCmd := &cobra.Command{
		Use:   "reset <four_hour|weekly>",
		Short: "Start a fresh window now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := models.ParseWindowKind(args[0])
			if err != nil {
				return err
			}
			a, err := openApp(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			st, err := a.meter.ResetTimer(cmd.Context(), kind)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatTimers(st))
			return nil
		},
	}

	setEndCmd := &cobra.Command{
		Use:   "set-end <RFC3339|+duration>",
		Short: "Pin the end of the 4-hour window, e.g. to the reset time shown by the chat app",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			end, err := parseEnd(args[0], time.Now())
			if err != nil {
				return err
			}
			a, err := openApp(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			st, err := a.meter.SetWindowEnd(cmd.Context(), end)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatTimers(st))
			return nil
		},
	}

	cmd.AddCommand(statusCmd, resetCmd, setEndCmd)
	return cmd
}

// parseEnd accepts an RFC 3339 instant or a "+duration" offset from now.
func parseEnd(s string, now time.Time) (time.Time, error) {
	if rest, ok := strings.CutPrefix(s, "+"); ok {
		d, err := time.ParseDuration(rest)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse offset: %w", err)
		}
		return now.Add(d), nil
	}
	end, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse end time: %w", err)
	}
	return end, nil
}
