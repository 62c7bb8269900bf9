package matching

import (
	"time"

	"github.com/roomradar/roomradar-backend/pkg/db/models"
)

const (
	baseScore = 100

	priceOutOfBandPenalty = 20
	dateDriftPenaltyRate  = 2
	flexibilityBonus      = 10
	urgentBonus           = 15
	upcomingBonus         = 10

	urgentWindowDays    = 3
	defaultUpcomingDays = 7
)

// ScorerParams configure the upcoming-stay bonus window.
type ScorerParams struct {
	UpcomingDays int
}

// Scorer assigns a 0-100 quality score to a (preference, candidate) pair.
// Scoring is pure: identical inputs always yield the identical score.
type Scorer struct {
	upcomingDays int
}

// NewScorer builds a scorer, applying defaults for unset bounds.
func NewScorer(params ScorerParams) Scorer {
	days := params.UpcomingDays
	if days <= 0 {
		days = defaultUpcomingDays
	}
	return Scorer{upcomingDays: days}
}

// Score rates how well the candidate satisfies the preference's stated intent.
func (s Scorer) Score(pref models.Preference, cand Candidate, today time.Time) int {
	score := baseScore

	if pref.MinPriceYen != nil && cand.Row.PriceYen < *pref.MinPriceYen {
		score -= priceOutOfBandPenalty
	}
	if pref.MaxPriceYen != nil && cand.Row.PriceYen > *pref.MaxPriceYen {
		score -= priceOutOfBandPenalty
	}

	if pref.CheckinDate != nil {
		daysDiff := daysBetween(*pref.CheckinDate, cand.Row.StayDate)
		if daysDiff < 0 {
			daysDiff = -daysDiff
		}
		if daysDiff <= pref.FlexibilityDays {
			score += flexibilityBonus
		} else {
			score -= dateDriftPenaltyRate * daysDiff
		}
	}

	daysUntil := daysBetween(today, cand.Row.StayDate)
	switch {
	case daysUntil <= urgentWindowDays:
		score += urgentBonus
	case daysUntil <= s.upcomingDays:
		score += upcomingBonus
	}

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// SelectBest picks the highest-scoring candidate, breaking ties by lowest
// price then earliest date. Returns false when there are no candidates.
func SelectBest(pref models.Preference, candidates []Candidate, today time.Time, scorer Scorer) (Candidate, int, bool) {
	var (
		best      Candidate
		bestScore = -1
	)
	for _, cand := range candidates {
		score := scorer.Score(pref, cand, today)
		if score < bestScore {
			continue
		}
		if score == bestScore {
			if cand.Row.PriceYen > best.Row.PriceYen {
				continue
			}
			if cand.Row.PriceYen == best.Row.PriceYen && !cand.Row.StayDate.Before(best.Row.StayDate) {
				continue
			}
		}
		best = cand
		bestScore = score
	}
	if bestScore < 0 {
		return Candidate{}, 0, false
	}
	return best, bestScore, true
}
