package matching

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreClampsAtHundredForUrgentFlexibleMatch(t *testing.T) {
	pref := areaPreference("東京都")
	pref.MaxPriceYen = ptr(15000)
	pref.CheckinDate = ptr(matchToday.AddDate(0, 0, 2))
	pref.CheckoutDate = ptr(matchToday.AddDate(0, 0, 3))
	pref.FlexibilityDays = 1

	cand := tokyoCandidate(12000, 2)
	score := NewScorer(ScorerParams{}).Score(pref, cand, matchToday)

	assert.Equal(t, 100, score)
}

func TestScorePenalizesPriceOutsideBand(t *testing.T) {
	pref := areaPreference("東京都")
	pref.MaxPriceYen = ptr(10000)

	cand := tokyoCandidate(12000, 20)
	score := NewScorer(ScorerParams{}).Score(pref, cand, matchToday)

	assert.Equal(t, 80, score)
}

func TestScorePenalizesDateDriftBeyondFlexibility(t *testing.T) {
	pref := areaPreference("東京都")
	pref.CheckinDate = ptr(matchToday.AddDate(0, 0, 10))
	pref.FlexibilityDays = 0

	cand := tokyoCandidate(10000, 20)
	score := NewScorer(ScorerParams{}).Score(pref, cand, matchToday)

	// 10 days off the requested checkin, no urgency bonus at 20 days out.
	assert.Equal(t, 80, score)
}

func TestScoreAddsUpcomingBonus(t *testing.T) {
	pref := areaPreference("東京都")
	// Price above the band pulls the base to 80 so the bonus survives the
	// 100-point clamp and shows up in the delta.
	pref.MaxPriceYen = ptr(9000)

	nearCand := tokyoCandidate(10000, 6)
	farCand := tokyoCandidate(10000, 20)

	nearScore := NewScorer(ScorerParams{}).Score(pref, nearCand, matchToday)
	farScore := NewScorer(ScorerParams{}).Score(pref, farCand, matchToday)

	assert.Equal(t, 80, farScore)
	assert.Equal(t, 10, nearScore-farScore)
}

func TestScoreHonorsConfiguredUpcomingWindow(t *testing.T) {
	pref := areaPreference("東京都")
	pref.MaxPriceYen = ptr(9000)

	scorer := NewScorer(ScorerParams{UpcomingDays: 14})
	inside := scorer.Score(pref, tokyoCandidate(10000, 12), matchToday)
	outside := scorer.Score(pref, tokyoCandidate(10000, 20), matchToday)

	assert.Equal(t, 10, inside-outside)
}

func TestScoreIsDeterministic(t *testing.T) {
	pref := areaPreference("東京都")
	pref.MinPriceYen = ptr(8000)
	pref.CheckinDate = ptr(matchToday.AddDate(0, 0, 15))
	cand := tokyoCandidate(7000, 12)

	first := NewScorer(ScorerParams{}).Score(pref, cand, matchToday)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, NewScorer(ScorerParams{}).Score(pref, cand, matchToday))
	}
}

func TestSelectBestPrefersHighestScore(t *testing.T) {
	pref := areaPreference("東京都")
	urgent := tokyoCandidate(10000, 2)
	distant := tokyoCandidate(10000, 20)

	best, score, ok := SelectBest(pref, []Candidate{distant, urgent}, matchToday, NewScorer(ScorerParams{}))
	require.True(t, ok)
	assert.Equal(t, urgent.Row.ID, best.Row.ID)
	assert.Greater(t, score, 0)
}

func TestSelectBestBreaksTiesByPriceThenDate(t *testing.T) {
	pref := areaPreference("東京都")
	cheapLater := tokyoCandidate(8000, 20)
	cheapSooner := tokyoCandidate(8000, 18)
	pricey := tokyoCandidate(12000, 19)

	best, _, ok := SelectBest(pref, []Candidate{pricey, cheapLater, cheapSooner}, matchToday, NewScorer(ScorerParams{}))
	require.True(t, ok)
	assert.Equal(t, cheapSooner.Row.ID, best.Row.ID)
}

func TestSelectBestReportsEmptyInput(t *testing.T) {
	_, _, ok := SelectBest(areaPreference("東京都"), nil, matchToday, NewScorer(ScorerParams{}))
	assert.False(t, ok)
}

func TestScoreNeverLeavesRange(t *testing.T) {
	pref := areaPreference("東京都")
	pref.MinPriceYen = ptr(20000)
	pref.MaxPriceYen = ptr(21000)
	pref.CheckinDate = ptr(matchToday)
	pref.FlexibilityDays = 0

	// Far-off, cheap candidate: stacked penalties must clamp at zero.
	cand := tokyoCandidate(1000, 90)
	cand.Row.StayDate = time.Date(2026, 11, 29, 0, 0, 0, 0, time.UTC)

	score := NewScorer(ScorerParams{}).Score(pref, cand, matchToday)
	assert.GreaterOrEqual(t, score, 0)
	assert.LessOrEqual(t, score, 100)
}
