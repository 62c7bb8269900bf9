package preferences

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/roomradar/roomradar-backend/pkg/db/models"
	pkgerrors "github.com/roomradar/roomradar-backend/pkg/errors"
	"gorm.io/gorm"
)

// MaxActivePerUser is the quota of active preferences per account, enforced at
// creation.
const MaxActivePerUser = 10

// Service defines preference lifecycle operations. Malformed preferences are
// rejected here so the matcher never sees them.
type Service interface {
	Create(ctx context.Context, params CreateParams) (*models.Preference, error)
	Update(ctx context.Context, id uuid.UUID, params UpdateParams) (*models.Preference, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	ListActive(ctx context.Context) ([]models.Preference, error)
}

// CreateParams carry a new preference from the authoring surface.
type CreateParams struct {
	UserID          uuid.UUID `validate:"required"`
	HotelID         *uuid.UUID
	AreaName        *string
	MinPriceYen     *int `validate:"omitempty,gt=0"`
	MaxPriceYen     *int `validate:"omitempty,gt=0"`
	CheckinDate     *time.Time
	CheckoutDate    *time.Time
	FlexibilityDays int `validate:"gte=0"`

	NotifyLastMinute      bool
	NotifyPriceDrop       bool
	NotifyNewAvailability bool
}

// UpdateParams mutate an existing preference.
type UpdateParams struct {
	HotelID         *uuid.UUID
	AreaName        *string
	MinPriceYen     *int `validate:"omitempty,gt=0"`
	MaxPriceYen     *int `validate:"omitempty,gt=0"`
	CheckinDate     *time.Time
	CheckoutDate    *time.Time
	FlexibilityDays int `validate:"gte=0"`

	NotifyLastMinute      bool
	NotifyPriceDrop       bool
	NotifyNewAvailability bool
}

type service struct {
	repo     Repository
	validate *validator.Validate
	now      func() time.Time
}

// NewService wires preference dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "preference repository required")
	}
	return &service{
		repo:     repo,
		validate: validator.New(),
		now:      time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, params CreateParams) (*models.Preference, error) {
	if err := s.validate.Struct(params); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid preference")
	}
	if err := validateTarget(params.HotelID, params.AreaName); err != nil {
		return nil, err
	}
	if err := validateRanges(params.MinPriceYen, params.MaxPriceYen, params.CheckinDate, params.CheckoutDate); err != nil {
		return nil, err
	}

	count, err := s.repo.CountActiveByUser(ctx, params.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count active preferences")
	}
	if count >= MaxActivePerUser {
		return nil, pkgerrors.New(pkgerrors.CodeQuotaExceeded, "active preference limit reached")
	}

	pref := &models.Preference{
		UserID:                params.UserID,
		HotelID:               params.HotelID,
		AreaName:              params.AreaName,
		MinPriceYen:           params.MinPriceYen,
		MaxPriceYen:           params.MaxPriceYen,
		CheckinDate:           params.CheckinDate,
		CheckoutDate:          params.CheckoutDate,
		FlexibilityDays:       params.FlexibilityDays,
		NotifyLastMinute:      params.NotifyLastMinute,
		NotifyPriceDrop:       params.NotifyPriceDrop,
		NotifyNewAvailability: params.NotifyNewAvailability,
		IsActive:              true,
	}
	if err := s.repo.Create(ctx, pref); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create preference")
	}
	return pref, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, params UpdateParams) (*models.Preference, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "preference id required")
	}
	if err := s.validate.Struct(params); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid preference")
	}
	if err := validateTarget(params.HotelID, params.AreaName); err != nil {
		return nil, err
	}
	if err := validateRanges(params.MinPriceYen, params.MaxPriceYen, params.CheckinDate, params.CheckoutDate); err != nil {
		return nil, err
	}

	pref, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "preference not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load preference")
	}

	pref.HotelID = params.HotelID
	pref.AreaName = params.AreaName
	pref.MinPriceYen = params.MinPriceYen
	pref.MaxPriceYen = params.MaxPriceYen
	pref.CheckinDate = params.CheckinDate
	pref.CheckoutDate = params.CheckoutDate
	pref.FlexibilityDays = params.FlexibilityDays
	pref.NotifyLastMinute = params.NotifyLastMinute
	pref.NotifyPriceDrop = params.NotifyPriceDrop
	pref.NotifyNewAvailability = params.NotifyNewAvailability

	if err := s.repo.Save(ctx, &pref); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save preference")
	}
	return &pref, nil
}

func (s *service) Deactivate(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "preference id required")
	}
	found, err := s.repo.Deactivate(ctx, id, s.now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate preference")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "preference not found")
	}
	return nil
}

func (s *service) ListActive(ctx context.Context) ([]models.Preference, error) {
	prefs, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list active preferences")
	}
	return prefs, nil
}

// validateTarget rejects preferences with neither a hotel nor an area: such a
// preference would match every hotel nationwide.
func validateTarget(hotelID *uuid.UUID, areaName *string) error {
	if hotelID == nil && (areaName == nil || *areaName == "") {
		return pkgerrors.New(pkgerrors.CodeValidation, "either hotel or area is required")
	}
	return nil
}

func validateRanges(minPrice, maxPrice *int, checkin, checkout *time.Time) error {
	if minPrice != nil && maxPrice != nil && *minPrice > *maxPrice {
		return pkgerrors.New(pkgerrors.CodeValidation, "min price exceeds max price")
	}
	if checkout != nil && checkin == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "checkout date requires a checkin date")
	}
	if checkin != nil && checkout != nil && checkin.After(*checkout) {
		return pkgerrors.New(pkgerrors.CodeValidation, "checkin date after checkout date")
	}
	return nil
}
