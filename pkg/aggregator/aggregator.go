// Package aggregator folds round logs into chat statistics and chat
// statistics into global statistics.
//
// Statistics are always recomputed from the full round log rather than
// patched incrementally; the round log is the source of truth.
package aggregator

import "github.com/pario-ai/chatmeter/pkg/models"

// ChatStats recomputes chat statistics from a complete round log.
func ChatStats(rounds []models.Round) models.ChatStats {
	stats := models.ChatStats{ModelBreakdown: make(map[string]models.ModelUsage)}
	for _, r := range rounds {
		stats.TotalRounds++
		stats.User = stats.User.Add(clamp(r.User))
		stats.Documents.Usage = stats.Documents.Add(clamp(r.Documents.Usage))
		stats.Documents.Count += max(r.Documents.Count, 0)
		stats.Thinking = stats.Thinking.Add(clamp(r.Thinking))
		stats.Assistant = stats.Assistant.Add(clamp(r.Assistant))
		stats.ToolContent = stats.ToolContent.Add(clamp(r.ToolContent))
		stats.Total = stats.Total.Add(clamp(r.Total))

		model := r.Model
		if model == "" {
			model = models.UnknownModel
		}
		mu := stats.ModelBreakdown[model]
		mu.Rounds++
		mu.Tokens += max(r.Total.Tokens, 0)
		if r.HasThinking {
			mu.RoundsWithThinking++
		}
		stats.ModelBreakdown[model] = mu
	}
	return stats
}

// FoldChat replaces c.Stats with statistics recomputed from c.Rounds.
func FoldChat(c *models.Chat) {
	if c == nil {
		return
	}
	c.Stats = ChatStats(c.Rounds)
}

// Global sums chat-level statistics across chats, merging model
// breakdowns additively and counting chats per type.
func Global(chats []*models.Chat) models.GlobalStats {
	g := models.GlobalStats{
		ChatsByType:    make(map[models.ChatType]int),
		ModelBreakdown: make(map[string]models.ModelUsage),
	}
	for _, c := range chats {
		if c == nil {
			continue
		}
		g.TotalChats++
		typ := c.Type
		if typ == "" {
			typ = models.ChatTypeUnknown
		}
		g.ChatsByType[typ]++

		s := c.Stats
		g.TotalRounds += max(s.TotalRounds, 0)
		g.User = g.User.Add(clamp(s.User))
		g.Documents.Usage = g.Documents.Add(clamp(s.Documents.Usage))
		g.Documents.Count += max(s.Documents.Count, 0)
		g.Thinking = g.Thinking.Add(clamp(s.Thinking))
		g.Assistant = g.Assistant.Add(clamp(s.Assistant))
		g.ToolContent = g.ToolContent.Add(clamp(s.ToolContent))
		g.Total = g.Total.Add(clamp(s.Total))

		for model, mu := range s.ModelBreakdown {
			acc := g.ModelBreakdown[model]
			acc.Rounds += max(mu.Rounds, 0)
			acc.Tokens += max(mu.Tokens, 0)
			acc.RoundsWithThinking += max(mu.RoundsWithThinking, 0)
			g.ModelBreakdown[model] = acc
		}
	}
	return g
}

// clamp zeroes negative counts left by lossy upstream data.
func clamp(u models.Usage) models.Usage {
	return models.Usage{Chars: max(u.Chars, 0), Tokens: max(u.Tokens, 0)}
}
