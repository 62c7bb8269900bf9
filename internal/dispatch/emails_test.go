package dispatch

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/roomradar/roomradar-backend/pkg/db/models"
	"github.com/roomradar/roomradar-backend/pkg/enums"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshotData(t *testing.T, snap models.MatchSnapshot) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(snap)
	require.NoError(t, err)
	return data
}

func TestBuildIndividualEmail(t *testing.T) {
	user := models.User{ID: uuid.New(), Email: "aya@example.com", DisplayName: "Aya"}
	notification := models.Notification{
		Type: enums.NotificationTypeGoodDeal,
		MatchData: snapshotData(t, models.MatchSnapshot{
			HotelName:        "Sakura Inn",
			StayDate:         time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC),
			PriceYen:         9800,
			AvailableRooms:   3,
			DaysUntilCheckin: 12,
		}),
	}

	email, err := buildIndividualEmail(user, notification)
	require.NoError(t, err)

	assert.Equal(t, "aya@example.com", email.To)
	assert.Contains(t, email.Subject, "Sakura Inn")
	assert.Contains(t, email.Subject, "2026-09-12")
	assert.Contains(t, email.HTMLBody, "Sakura Inn")
	assert.Contains(t, email.HTMLBody, "9800")
	assert.Contains(t, email.Tags, "good_deal")
}

func TestBuildIndividualEmailFlagsLastMinute(t *testing.T) {
	user := models.User{ID: uuid.New(), Email: "ken@example.com", DisplayName: "Ken"}
	notification := models.Notification{
		Type: enums.NotificationTypeLastMinute,
		MatchData: snapshotData(t, models.MatchSnapshot{
			HotelName:        "Harbor Stay",
			StayDate:         time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC),
			PriceYen:         15000,
			AvailableRooms:   1,
			DaysUntilCheckin: 2,
		}),
	}

	email, err := buildIndividualEmail(user, notification)
	require.NoError(t, err)

	assert.Contains(t, email.Subject, "Last-minute")
	assert.Contains(t, email.HTMLBody, "2 day(s) away")
}

func TestBuildDigestEmailListsEveryMatch(t *testing.T) {
	user := models.User{ID: uuid.New(), Email: "aya@example.com", DisplayName: "Aya"}
	notifications := []models.Notification{
		{
			Type: enums.NotificationTypeMatch,
			MatchData: snapshotData(t, models.MatchSnapshot{
				HotelName: "Sakura Inn",
				StayDate:  time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC),
				PriceYen:  9800,
			}),
		},
		{
			Type: enums.NotificationTypeLastMinute,
			MatchData: snapshotData(t, models.MatchSnapshot{
				HotelName: "Fuji View Hotel",
				StayDate:  time.Date(2026, 9, 13, 0, 0, 0, 0, time.UTC),
				PriceYen:  14000,
			}),
		},
	}

	email, err := buildDigestEmail(user, notifications)
	require.NoError(t, err)

	assert.Contains(t, email.Subject, "2 new room matches")
	assert.Contains(t, email.HTMLBody, "Sakura Inn")
	assert.Contains(t, email.HTMLBody, "Fuji View Hotel")
	assert.Contains(t, email.HTMLBody, "last minute")
	assert.Contains(t, email.Tags, "digest")
}
