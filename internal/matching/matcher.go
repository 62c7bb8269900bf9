package matching

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/roomradar/roomradar-backend/internal/inventory"
	"github.com/roomradar/roomradar-backend/pkg/db/models"
)

const (
	defaultHorizonDays    = 30
	defaultCandidateLimit = 10
)

// Candidate is one inventory row under consideration for a preference.
type Candidate struct {
	Row   models.InventoryRow
	Hotel models.Hotel
}

// Window is the effective date range a preference matches against.
type Window struct {
	From time.Time
	To   time.Time
}

// MatcherParams configure candidate selection bounds.
type MatcherParams struct {
	HorizonDays    int
	CandidateLimit int
}

// Matcher computes the candidate inventory set for one preference.
type Matcher struct {
	horizonDays    int
	candidateLimit int
}

// NewMatcher builds a matcher, applying defaults for unset bounds.
func NewMatcher(params MatcherParams) *Matcher {
	horizon := params.HorizonDays
	if horizon <= 0 {
		horizon = defaultHorizonDays
	}
	limit := params.CandidateLimit
	if limit <= 0 {
		limit = defaultCandidateLimit
	}
	return &Matcher{horizonDays: horizon, candidateLimit: limit}
}

// WindowFor resolves the effective date window: the explicit checkin/checkout
// range widened symmetrically by flexibility days, or a rolling horizon from
// today when the preference has no dates.
func (m *Matcher) WindowFor(pref models.Preference, today time.Time) Window {
	today = dateOnly(today)
	if pref.CheckinDate == nil || pref.CheckoutDate == nil {
		return Window{From: today, To: today.AddDate(0, 0, m.horizonDays)}
	}
	flex := pref.FlexibilityDays
	if flex < 0 {
		flex = 0
	}
	return Window{
		From: dateOnly(*pref.CheckinDate).AddDate(0, 0, -flex),
		To:   dateOnly(*pref.CheckoutDate).AddDate(0, 0, flex),
	}
}

// Filter reduces candidates to those satisfying the preference's date, price
// and identity constraints, excluding pairs already in the dedup ledger, then
// sorts ascending by price and caps the result.
func (m *Matcher) Filter(pref models.Preference, candidates []Candidate, today time.Time, notified map[uuid.UUID]struct{}) []Candidate {
	window := m.WindowFor(pref, today)

	matched := make([]Candidate, 0, len(candidates))
	for _, cand := range candidates {
		if _, seen := notified[cand.Row.ID]; seen {
			continue
		}
		if !m.matches(pref, cand, window) {
			continue
		}
		matched = append(matched, cand)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].Row.PriceYen != matched[j].Row.PriceYen {
			return matched[i].Row.PriceYen < matched[j].Row.PriceYen
		}
		return matched[i].Row.StayDate.Before(matched[j].Row.StayDate)
	})

	if len(matched) > m.candidateLimit {
		matched = matched[:m.candidateLimit]
	}
	return matched
}

func (m *Matcher) matches(pref models.Preference, cand Candidate, window Window) bool {
	if cand.Row.AvailableRooms <= 0 {
		return false
	}

	stay := dateOnly(cand.Row.StayDate)
	if stay.Before(window.From) || stay.After(window.To) {
		return false
	}

	if pref.MinPriceYen != nil && cand.Row.PriceYen < *pref.MinPriceYen {
		return false
	}
	if pref.MaxPriceYen != nil && cand.Row.PriceYen > *pref.MaxPriceYen {
		return false
	}

	// Exact-hotel mode takes precedence; the area filter is ignored when a
	// hotel is pinned.
	if pref.HotelID != nil {
		return cand.Row.HotelID == *pref.HotelID
	}
	if pref.AreaName != nil {
		return cand.Hotel.City == *pref.AreaName || cand.Hotel.Prefecture == *pref.AreaName
	}
	return false
}

// FromAvailable converts joined inventory reads into match candidates.
func FromAvailable(rows []inventory.AvailableRow) []Candidate {
	candidates := make([]Candidate, 0, len(rows))
	for _, row := range rows {
		candidates = append(candidates, Candidate{Row: row.Row, Hotel: row.Hotel})
	}
	return candidates
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(dateOnly(to).Sub(dateOnly(from)).Hours() / 24)
}
