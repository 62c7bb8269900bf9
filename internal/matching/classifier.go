package matching

import (
	"time"

	"github.com/roomradar/roomradar-backend/pkg/db/models"
	"github.com/roomradar/roomradar-backend/pkg/enums"
)

const (
	defaultLastMinuteDays  = 3
	defaultGoodDealPercent = 20
)

// ClassifierParams configure urgency classification.
type ClassifierParams struct {
	LastMinuteDays  int
	GoodDealPercent int
}

// Classifier labels a selected match with its notification type. Rules are
// evaluated in order and the first one whose notification toggle is enabled
// wins; a candidate with every applicable toggle disabled produces nothing.
type Classifier struct {
	lastMinuteDays  int
	goodDealPercent int
}

// NewClassifier builds a classifier, applying defaults for unset bounds.
func NewClassifier(params ClassifierParams) Classifier {
	days := params.LastMinuteDays
	if days <= 0 {
		days = defaultLastMinuteDays
	}
	percent := params.GoodDealPercent
	if percent <= 0 {
		percent = defaultGoodDealPercent
	}
	return Classifier{lastMinuteDays: days, goodDealPercent: percent}
}

// Classify assigns the notification type for a match, or reports false when
// the preference's toggles suppress every applicable type.
func (c Classifier) Classify(pref models.Preference, cand Candidate, today time.Time) (enums.NotificationType, bool) {
	daysUntil := daysBetween(today, cand.Row.StayDate)

	if daysUntil <= c.lastMinuteDays && pref.NotifyLastMinute {
		return enums.NotificationTypeLastMinute, true
	}

	minPrice := 0
	if pref.MinPriceYen != nil {
		minPrice = *pref.MinPriceYen
	}
	if cand.Row.PriceYen*100 < minPrice*(100+c.goodDealPercent) && pref.NotifyPriceDrop {
		return enums.NotificationTypeGoodDeal, true
	}

	if pref.NotifyNewAvailability {
		return enums.NotificationTypeMatch, true
	}
	return "", false
}

// BuildSnapshot captures the denormalized match data stored on the
// notification so later inventory changes never alter what was sent.
func BuildSnapshot(cand Candidate, today time.Time) models.MatchSnapshot {
	return models.MatchSnapshot{
		HotelName:        cand.Hotel.Name,
		StayDate:         dateOnly(cand.Row.StayDate),
		PriceYen:         cand.Row.PriceYen,
		AvailableRooms:   cand.Row.AvailableRooms,
		DaysUntilCheckin: daysBetween(today, cand.Row.StayDate),
	}
}
