// Package estimator converts character counts into estimated token counts
// using per-category chars-per-token ratios.
package estimator

import (
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/pario-ai/chatmeter/pkg/models"
)

// epsilon is the relative float error absorbed so that exact multiples of
// the ratio do not round up an extra token.
const epsilon = 1e-9

// Estimate returns ceil(chars / ratio) where ratio is the category override
// or the central ratio. Negative counts are treated as zero.
func Estimate(chars int64, category models.Category, s models.Settings) (int64, error) {
	ratio := s.Ratio(category)
	if !models.ValidRatio(ratio) {
		return 0, fmt.Errorf("estimate %s: %w (got %v)", category, models.ErrInvalidRatio, ratio)
	}
	if chars <= 0 {
		return 0, nil
	}
	q := float64(chars) / ratio
	return int64(math.Ceil(q * (1 - epsilon))), nil
}

// EstimateText estimates the tokens in text, counting characters rather
// than bytes.
func EstimateText(text string, category models.Category, s models.Settings) (int64, error) {
	return Estimate(int64(utf8.RuneCountInString(text)), category, s)
}

// EstimateRound fills chars and tokens of every category from raw round
// data and sets the round total.
func EstimateRound(data models.RoundData, s models.Settings) (models.Round, error) {
	r := models.Round{
		RoundNumber: data.RoundNumber,
		Timestamp:   data.Timestamp,
		Model:       data.Model,
		HasThinking: data.HasThinking,
	}
	if r.Model == "" {
		r.Model = models.UnknownModel
	}
	r.Documents.Count = max(data.DocumentCount, 0)

	for _, c := range models.Categories {
		chars := max(data.Chars(c), 0)
		tokens, err := Estimate(chars, c, s)
		if err != nil {
			return models.Round{}, err
		}
		r.SetCategory(c, models.Usage{Chars: chars, Tokens: tokens})
	}
	r.Total = RoundTotal(r)
	return r, nil
}

// RoundTotal sums chars and tokens across all categories of r.
func RoundTotal(r models.Round) models.Usage {
	var total models.Usage
	for _, c := range models.Categories {
		total = total.Add(r.Category(c))
	}
	return total
}
