package aggregator

import (
	"sort"
	"strings"
	"time"

	"github.com/pario-ai/chatmeter/pkg/models"
)

// Since returns the earliest last-activity instant included by r.
// The zero time means no lower bound.
func Since(r models.Range, now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	switch r {
	case models.RangeFourHours:
		return now.Add(-models.FourHourDuration)
	case models.RangeToday:
		local := now.In(loc)
		return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	case models.RangeWeek:
		return now.Add(-7 * 24 * time.Hour)
	}
	return time.Time{}
}

// FilterByRange returns the chats whose last activity falls within r.
func FilterByRange(chats []*models.Chat, r models.Range, now time.Time, loc *time.Location) []*models.Chat {
	since := Since(r, now, loc)
	out := make([]*models.Chat, 0, len(chats))
	for _, c := range chats {
		if c == nil {
			continue
		}
		if !since.IsZero() && c.LastActive.Before(since) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// TopByTokens returns up to n chats with the most total tokens. Ties keep
// their input order. n <= 0 returns all chats ranked.
func TopByTokens(chats []*models.Chat, n int) []*models.Chat {
	out := append([]*models.Chat(nil), chats...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Stats.Total.Tokens > out[j].Stats.Total.Tokens
	})
	return limit(out, n)
}

// MostRecent returns up to n chats ordered by last activity, newest first.
func MostRecent(chats []*models.Chat, n int) []*models.Chat {
	out := append([]*models.Chat(nil), chats...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastActive.After(out[j].LastActive)
	})
	return limit(out, n)
}

// SearchTitle returns chats whose title contains query, ignoring case.
// An empty query matches every chat.
func SearchTitle(chats []*models.Chat, query string) []*models.Chat {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]*models.Chat, 0, len(chats))
	for _, c := range chats {
		if c == nil {
			continue
		}
		if q == "" || strings.Contains(strings.ToLower(c.Title), q) {
			out = append(out, c)
		}
	}
	return out
}

// Ordered returns chats in their canonical order: creation time, then id.
func Ordered(byID map[string]*models.Chat) []*models.Chat {
	out := make([]*models.Chat, 0, len(byID))
	for _, c := range byID {
		if c != nil {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Created.Equal(out[j].Created) {
			return out[i].Created.Before(out[j].Created)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func limit(chats []*models.Chat, n int) []*models.Chat {
	if n > 0 && len(chats) > n {
		return chats[:n]
	}
	return chats
}
