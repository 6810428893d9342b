package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/pario-ai/chatmeter/pkg/models"
)

const timeLayout = "2006-01-02 15:04"

func formatTokens(n int64) string {
	return humanize.Comma(n)
}

func formatPercent(fraction float64) string {
	return fmt.Sprintf("%.1f%%", fraction*100)
}

// formatRemaining renders a duration as "3h12m", dropping seconds.
func formatRemaining(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	d = d.Truncate(time.Minute)
	if d < time.Minute {
		return "<1m"
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h >= 24 {
		return fmt.Sprintf("%dd%dh", h/24, h%24)
	}
	if h > 0 {
		return fmt.Sprintf("%dh%02dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}

func windowName(kind models.WindowKind) string {
	if kind == models.WindowWeekly {
		return "weekly"
	}
	return "4-hour"
}

// formatTimers formats both usage windows as a text table.
func formatTimers(st models.TimerStatus) string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WINDOW\tSTATE\tTOKENS\tLIMIT\tUSAGE\tREMAINING\tENDS")
	for _, s := range []models.WindowStatus{st.FourHour, st.Weekly} {
		state := "inactive"
		switch {
		case s.Active:
			state = "active"
		case s.Expired:
			state = "expired"
		}
		ends := "-"
		if s.Active {
			ends = s.EndTime.Local().Format(timeLayout)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			windowName(s.Kind), state, formatTokens(s.Tokens), formatTokens(s.Limit),
			formatPercent(s.Percentage), formatRemaining(s.TimeRemaining), ends)
	}
	w.Flush()
	return b.String()
}

type categoryRow struct {
	name  string
	usage models.Usage
}

func categoryRows(user, docs, thinking, assistant, tool, total models.Usage) []categoryRow {
	return []categoryRow{
		{"user", user},
		{"documents", docs},
		{"thinking", thinking},
		{"assistant", assistant},
		{"tool content", tool},
		{"total", total},
	}
}

func formatCategories(rows []categoryRow) string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CATEGORY\tCHARS\tTOKENS")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.name, formatTokens(r.usage.Chars), formatTokens(r.usage.Tokens))
	}
	w.Flush()
	return b.String()
}

// formatModels formats a model breakdown, most tokens first.
func formatModels(breakdown map[string]models.ModelUsage) string {
	if len(breakdown) == 0 {
		return "No model data.\n"
	}
	names := make([]string, 0, len(breakdown))
	for name := range breakdown {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := breakdown[names[i]], breakdown[names[j]]
		if a.Tokens != b.Tokens {
			return a.Tokens > b.Tokens
		}
		return names[i] < names[j]
	})

	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MODEL\tROUNDS\tTHINKING\tTOKENS")
	for _, name := range names {
		mu := breakdown[name]
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", name, mu.Rounds, mu.RoundsWithThinking, formatTokens(mu.Tokens))
	}
	w.Flush()
	return b.String()
}

// formatGlobal formats global statistics.
func formatGlobal(r models.Range, g models.GlobalStats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Range: %s\n", r)
	fmt.Fprintf(&b, "Chats: %d (chat %d, project %d, unknown %d)\n",
		g.TotalChats, g.ChatsByType[models.ChatTypeChat], g.ChatsByType[models.ChatTypeProject], g.ChatsByType[models.ChatTypeUnknown])
	fmt.Fprintf(&b, "Rounds: %d\nDocuments attached: %d\n\n", g.TotalRounds, g.Documents.Count)
	b.WriteString(formatCategories(categoryRows(g.User, g.Documents.Usage, g.Thinking, g.Assistant, g.ToolContent, g.Total)))
	b.WriteString("\n")
	b.WriteString(formatModels(g.ModelBreakdown))
	return b.String()
}

// formatChats formats a chat list as a text table.
func formatChats(chats []*models.Chat) string {
	if len(chats) == 0 {
		return "No chats found.\n"
	}
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tTITLE\tROUNDS\tTOKENS\tLAST ACTIVE")
	for _, c := range chats {
		title := c.Title
		if len([]rune(title)) > 40 {
			title = string([]rune(title)[:37]) + "..."
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			c.ID, c.Type, title, c.Stats.TotalRounds, formatTokens(c.Stats.Total.Tokens), humanize.Time(c.LastActive))
	}
	w.Flush()
	return b.String()
}

// formatChat formats one chat with its statistics and last round.
func formatChat(c *models.Chat) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Chat %s (%s)\n", c.ID, c.Type)
	if c.Title != "" {
		fmt.Fprintf(&b, "Title:   %s\n", c.Title)
	}
	if c.URL != "" {
		fmt.Fprintf(&b, "URL:     %s\n", c.URL)
	}
	fmt.Fprintf(&b, "Created: %s\nActive:  %s\nRounds:  %d\n\n",
		c.Created.Local().Format(timeLayout), c.LastActive.Local().Format(timeLayout), c.Stats.TotalRounds)
	s := c.Stats
	b.WriteString(formatCategories(categoryRows(s.User, s.Documents.Usage, s.Thinking, s.Assistant, s.ToolContent, s.Total)))
	b.WriteString("\n")
	b.WriteString(formatModels(s.ModelBreakdown))
	if last := c.LastRound(); last != nil {
		fmt.Fprintf(&b, "\nLast round #%d (%s, %s): %s tokens\n",
			last.RoundNumber, last.Model, last.Timestamp.Local().Format(timeLayout), formatTokens(last.Total.Tokens))
	}
	return b.String()
}

func formatRatio(v *float64) string {
	if v == nil {
		return "inherit"
	}
	return fmt.Sprintf("%g", *v)
}

// formatSettings formats settings as text.
func formatSettings(s models.Settings) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Tracking:      %t\n", s.TrackingEnabled)
	fmt.Fprintf(&b, "Notifications: %t\n", s.NotificationsEnabled)
	fmt.Fprintf(&b, "Central ratio: %g chars/token\n", s.CentralRatio)
	for _, c := range models.Categories {
		fmt.Fprintf(&b, "  %-15s %s\n", c, formatRatio(s.Ratios.Get(c)))
	}
	fmt.Fprintf(&b, "4-hour window: limit %s, warn at %s\n", formatTokens(s.FourHour.Limit), formatPercent(s.FourHour.Threshold))
	fmt.Fprintf(&b, "Weekly window: limit %s, warn at %s\n", formatTokens(s.Weekly.Limit), formatPercent(s.Weekly.Threshold))
	fmt.Fprintf(&b, "Weekly reset:  %s %s %s\n", s.WeeklyReset.Day, s.WeeklyReset.Time, s.WeeklyReset.Timezone)
	return b.String()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
