package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/roomradar/roomradar-backend/pkg/db/models"
	"gorm.io/gorm"
)

// ListParams narrow the availability query before in-memory matching.
type ListParams struct {
	From        time.Time
	To          time.Time
	HotelID     *uuid.UUID
	AreaName    *string
	MinPriceYen *int
	MaxPriceYen *int
}

// AvailableRow couples an inventory row with its hotel so area matching and
// snapshot building never need a second lookup.
type AvailableRow struct {
	Row   models.InventoryRow
	Hotel models.Hotel
}

// Repository reads room availability. The inventory tables are owned by the
// ingestion pipeline; nothing here writes.
type Repository struct {
	db *gorm.DB
}

// NewRepository returns an inventory reader bound to the provided database.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListAvailable returns bookable rows inside the date window, cheapest first.
func (r *Repository) ListAvailable(ctx context.Context, params ListParams) ([]AvailableRow, error) {
	query := r.db.WithContext(ctx).
		Model(&models.InventoryRow{}).
		Where("available_rooms > 0").
		Where("stay_date BETWEEN ? AND ?", params.From, params.To)

	if params.HotelID != nil {
		query = query.Where("hotel_id = ?", *params.HotelID)
	} else if params.AreaName != nil {
		query = query.Where(
			"hotel_id IN (?)",
			r.db.Model(&models.Hotel{}).Select("id").Where("city = ? OR prefecture = ?", *params.AreaName, *params.AreaName),
		)
	}
	if params.MinPriceYen != nil {
		query = query.Where("price_yen >= ?", *params.MinPriceYen)
	}
	if params.MaxPriceYen != nil {
		query = query.Where("price_yen <= ?", *params.MaxPriceYen)
	}

	var rows []models.InventoryRow
	if err := query.Order("price_yen ASC, stay_date ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	hotelIDs := make([]uuid.UUID, 0, len(rows))
	seen := make(map[uuid.UUID]struct{}, len(rows))
	for _, row := range rows {
		if _, ok := seen[row.HotelID]; ok {
			continue
		}
		seen[row.HotelID] = struct{}{}
		hotelIDs = append(hotelIDs, row.HotelID)
	}

	var hotels []models.Hotel
	if err := r.db.WithContext(ctx).Where("id IN ?", hotelIDs).Find(&hotels).Error; err != nil {
		return nil, err
	}
	hotelsByID := make(map[uuid.UUID]models.Hotel, len(hotels))
	for _, hotel := range hotels {
		hotelsByID[hotel.ID] = hotel
	}

	available := make([]AvailableRow, 0, len(rows))
	for _, row := range rows {
		hotel, ok := hotelsByID[row.HotelID]
		if !ok {
			continue
		}
		available = append(available, AvailableRow{Row: row, Hotel: hotel})
	}
	return available, nil
}
