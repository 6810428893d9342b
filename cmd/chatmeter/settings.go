package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pario-ai/chatmeter/pkg/config"
	"github.com/pario-ai/chatmeter/pkg/models"
)

func newSettingsCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show and change estimation settings",
	}

	var asJSON bool
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the active settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer a.Close()
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), a.meter.Settings())
			}
			fmt.Fprint(cmd.OutOrStdout(), formatSettings(a.meter.Settings()))
			return nil
		},
	}
	showCmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")

	loadCmd := &cobra.Command{
		Use:   "load <file>",
		Short: "Replace the settings with a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := config.LoadSettings(args[0])
			if err != nil {
				return err
			}
			a, err := openApp(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			saved, err := a.meter.UpdateSettings(cmd.Context(), s)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatSettings(saved))
			return nil
		},
	}

	var (
		centralRatio  float64
		ratios        []string
		tracking      bool
		notifications bool
		fourHourLimit int64
		weeklyLimit   int64
		fourHourWarn  float64
		weeklyWarn    float64
		resetDay      string
		resetTime     string
		resetTimezone string
	)
	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Change individual settings",
		Example: `  chatmeter settings set --central-ratio 2.8
  chatmeter settings set --ratio thinking=3.2 --ratio tool_content=inherit
  chatmeter settings set --weekly-limit 900000 --reset-day wednesday`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			s := a.meter.Settings()
			flags := cmd.Flags()
			if flags.Changed("central-ratio") {
				s.CentralRatio = centralRatio
			}
			for _, r := range ratios {
				c, v, err := parseRatio(r)
				if err != nil {
					return err
				}
				s.Ratios.Set(c, v)
			}
			if flags.Changed("tracking") {
				s.TrackingEnabled = tracking
			}
			if flags.Changed("notifications") {
				s.NotificationsEnabled = notifications
			}
			if flags.Changed("four-hour-limit") {
				s.FourHour.Limit = fourHourLimit
			}
			if flags.Changed("weekly-limit") {
				s.Weekly.Limit = weeklyLimit
			}
			if flags.Changed("four-hour-threshold") {
				s.FourHour.Threshold = fourHourWarn
			}
			if flags.Changed("weekly-threshold") {
				s.Weekly.Threshold = weeklyWarn
			}
			if flags.Changed("reset-day") {
				s.WeeklyReset.Day = resetDay
			}
			if flags.Changed("reset-time") {
				s.WeeklyReset.Time = resetTime
			}
			if flags.Changed("reset-timezone") {
				s.WeeklyReset.Timezone = resetTimezone
			}

			saved, err := a.meter.UpdateSettings(cmd.Context(), s)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatSettings(saved))
			return nil
		},
	}
	f := setCmd.Flags()
	f.Float64Var(&centralRatio, "central-ratio", 0, "characters per token for every category without an override")
	f.StringArrayVar(&ratios, "ratio", nil, "per-category ratio as category=value or category=inherit (repeatable)")
	f.BoolVar(&tracking, "tracking", true, "enable round tracking")
	f.BoolVar(&notifications, "notifications", true, "enable window warnings")
	f.Int64Var(&fourHourLimit, "four-hour-limit", 0, "estimated token limit of the 4-hour window")
	f.Int64Var(&weeklyLimit, "weekly-limit", 0, "estimated token limit of the weekly window")
	f.Float64Var(&fourHourWarn, "four-hour-threshold", 0, "warning threshold of the 4-hour window (0-1)")
	f.Float64Var(&weeklyWarn, "weekly-threshold", 0, "warning threshold of the weekly window (0-1)")
	f.StringVar(&resetDay, "reset-day", "", "weekday the weekly window resets")
	f.StringVar(&resetTime, "reset-time", "", "time of day the weekly window resets (HH:MM)")
	f.StringVar(&resetTimezone, "reset-timezone", "", "IANA timezone of the weekly reset")

	cmd.AddCommand(showCmd, loadCmd, setCmd)
	return cmd
}

// parseRatio parses "category=value" or "category=inherit".
func parseRatio(s string) (models.Category, *float64, error) {
	name, value, ok := strings.Cut(s, "=")
	if !ok {
		return "", nil, fmt.Errorf("invalid ratio %q: expected category=value", s)
	}
	c := models.Category(strings.TrimSpace(name))
	if !c.Valid() {
		return "", nil, fmt.Errorf("invalid ratio %q: unknown category %q", s, c)
	}
	value = strings.TrimSpace(value)
	if strings.EqualFold(value, "inherit") {
		return c, nil, nil
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return "", nil, fmt.Errorf("invalid ratio %q: %w", s, err)
	}
	return c, &v, nil
}
