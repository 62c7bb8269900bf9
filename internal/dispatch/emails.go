package dispatch

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"github.com/roomradar/roomradar-backend/pkg/db/models"
	"github.com/roomradar/roomradar-backend/pkg/enums"
	"github.com/roomradar/roomradar-backend/pkg/mailer"
)

//go:embed templates/individual.html templates/digest.html
var emailTemplates embed.FS

var dispatchTemplates = template.Must(template.New("emails").ParseFS(emailTemplates, "templates/*.html"))

const dateLayout = "2006-01-02"

func typeHeadline(t enums.NotificationType) string {
	switch t {
	case enums.NotificationTypeLastMinute:
		return "Last-minute room available"
	case enums.NotificationTypeGoodDeal:
		return "Great price on a room you wanted"
	default:
		return "New room match"
	}
}

func typeLabel(t enums.NotificationType) string {
	switch t {
	case enums.NotificationTypeLastMinute:
		return "last minute"
	case enums.NotificationTypeGoodDeal:
		return "good deal"
	default:
		return "match"
	}
}

func buildIndividualEmail(user models.User, notification models.Notification) (mailer.Email, error) {
	snap := notification.Snapshot()
	subject := fmt.Sprintf("%s: %s on %s", typeHeadline(notification.Type), snap.HotelName, snap.StayDate.Format(dateLayout))

	data := struct {
		Headline         string
		Name             string
		HotelName        string
		StayDate         string
		PriceYen         int
		AvailableRooms   int
		DaysUntilCheckin int
		Urgent           bool
	}{
		Headline:         typeHeadline(notification.Type),
		Name:             user.DisplayName,
		HotelName:        snap.HotelName,
		StayDate:         snap.StayDate.Format(dateLayout),
		PriceYen:         snap.PriceYen,
		AvailableRooms:   snap.AvailableRooms,
		DaysUntilCheckin: snap.DaysUntilCheckin,
		Urgent:           notification.Type == enums.NotificationTypeLastMinute,
	}

	var buf bytes.Buffer
	if err := dispatchTemplates.ExecuteTemplate(&buf, "individual.html", data); err != nil {
		return mailer.Email{}, fmt.Errorf("render individual template: %w", err)
	}

	return mailer.Email{
		To:       user.Email,
		Subject:  subject,
		HTMLBody: buf.String(),
		Tags:     []string{"individual", notification.Type.String()},
	}, nil
}

func buildDigestEmail(user models.User, notifications []models.Notification) (mailer.Email, error) {
	type digestItem struct {
		HotelName      string
		StayDate       string
		PriceYen       int
		AvailableRooms int
		Label          string
	}

	items := make([]digestItem, 0, len(notifications))
	for _, notification := range notifications {
		snap := notification.Snapshot()
		items = append(items, digestItem{
			HotelName:      snap.HotelName,
			StayDate:       snap.StayDate.Format(dateLayout),
			PriceYen:       snap.PriceYen,
			AvailableRooms: snap.AvailableRooms,
			Label:          typeLabel(notification.Type),
		})
	}

	data := struct {
		Name  string
		Total int
		Items []digestItem
	}{
		Name:  user.DisplayName,
		Total: len(items),
		Items: items,
	}

	var buf bytes.Buffer
	if err := dispatchTemplates.ExecuteTemplate(&buf, "digest.html", data); err != nil {
		return mailer.Email{}, fmt.Errorf("render digest template: %w", err)
	}

	return mailer.Email{
		To:       user.Email,
		Subject:  fmt.Sprintf("%d new room matches for your saved searches", len(items)),
		HTMLBody: buf.String(),
		Tags:     []string{"digest"},
	}, nil
}
