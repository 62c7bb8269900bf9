package preferences

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/roomradar/roomradar-backend/pkg/db/models"
	pkgerrors "github.com/roomradar/roomradar-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeRepo struct {
	created     []*models.Preference
	saved       []*models.Preference
	stored      map[uuid.UUID]models.Preference
	activeCount int64
	deactivated []uuid.UUID
	missing     bool
}

func (f *fakeRepo) Create(ctx context.Context, pref *models.Preference) error {
	pref.ID = uuid.New()
	f.created = append(f.created, pref)
	return nil
}

func (f *fakeRepo) Save(ctx context.Context, pref *models.Preference) error {
	f.saved = append(f.saved, pref)
	return nil
}

func (f *fakeRepo) GetByID(ctx context.Context, id uuid.UUID) (models.Preference, error) {
	if pref, ok := f.stored[id]; ok {
		return pref, nil
	}
	return models.Preference{}, gorm.ErrRecordNotFound
}

func (f *fakeRepo) ListActive(ctx context.Context) ([]models.Preference, error) {
	var prefs []models.Preference
	for _, pref := range f.stored {
		if pref.IsActive {
			prefs = append(prefs, pref)
		}
	}
	return prefs, nil
}

func (f *fakeRepo) CountActiveByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	return f.activeCount, nil
}

func (f *fakeRepo) Deactivate(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	if f.missing {
		return false, nil
	}
	f.deactivated = append(f.deactivated, id)
	return true, nil
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func validCreateParams() CreateParams {
	return CreateParams{
		UserID:                uuid.New(),
		AreaName:              strPtr("東京都"),
		MaxPriceYen:           intPtr(15000),
		NotifyLastMinute:      true,
		NotifyNewAvailability: true,
	}
}

func TestCreateAcceptsValidAreaPreference(t *testing.T) {
	repo := &fakeRepo{}
	svc, err := NewService(repo)
	require.NoError(t, err)

	pref, err := svc.Create(context.Background(), validCreateParams())
	require.NoError(t, err)

	assert.True(t, pref.IsActive)
	assert.Equal(t, "東京都", *pref.AreaName)
	require.Len(t, repo.created, 1)
}

func TestCreateRejectsMissingTarget(t *testing.T) {
	svc, err := NewService(&fakeRepo{})
	require.NoError(t, err)

	params := validCreateParams()
	params.AreaName = nil

	_, err = svc.Create(context.Background(), params)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestCreateRejectsInvertedPriceBand(t *testing.T) {
	svc, err := NewService(&fakeRepo{})
	require.NoError(t, err)

	params := validCreateParams()
	params.MinPriceYen = intPtr(20000)
	params.MaxPriceYen = intPtr(10000)

	_, err = svc.Create(context.Background(), params)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestCreateRejectsCheckoutWithoutCheckin(t *testing.T) {
	svc, err := NewService(&fakeRepo{})
	require.NoError(t, err)

	params := validCreateParams()
	params.CheckoutDate = ptrTime(time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC))

	_, err = svc.Create(context.Background(), params)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestCreateRejectsInvertedDateRange(t *testing.T) {
	svc, err := NewService(&fakeRepo{})
	require.NoError(t, err)

	params := validCreateParams()
	params.CheckinDate = ptrTime(time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC))
	params.CheckoutDate = ptrTime(time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC))

	_, err = svc.Create(context.Background(), params)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestCreateEnforcesActiveQuota(t *testing.T) {
	repo := &fakeRepo{activeCount: MaxActivePerUser}
	svc, err := NewService(repo)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), validCreateParams())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeQuotaExceeded, pkgerrors.As(err).Code())
	assert.Empty(t, repo.created)
}

func TestUpdateRejectsUnknownPreference(t *testing.T) {
	svc, err := NewService(&fakeRepo{stored: map[uuid.UUID]models.Preference{}})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), uuid.New(), UpdateParams{AreaName: strPtr("大阪府")})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestUpdateOverwritesCriteria(t *testing.T) {
	id := uuid.New()
	repo := &fakeRepo{stored: map[uuid.UUID]models.Preference{
		id: {ID: id, UserID: uuid.New(), AreaName: strPtr("東京都"), IsActive: true},
	}}
	svc, err := NewService(repo)
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), id, UpdateParams{
		AreaName:              strPtr("大阪府"),
		MaxPriceYen:           intPtr(12000),
		NotifyNewAvailability: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "大阪府", *updated.AreaName)
	assert.Equal(t, 12000, *updated.MaxPriceYen)
	require.Len(t, repo.saved, 1)
}

func TestDeactivateReportsMissingPreference(t *testing.T) {
	svc, err := NewService(&fakeRepo{missing: true})
	require.NoError(t, err)

	err = svc.Deactivate(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestDeactivateFlipsActiveFlag(t *testing.T) {
	repo := &fakeRepo{}
	svc, err := NewService(repo)
	require.NoError(t, err)

	id := uuid.New()
	require.NoError(t, svc.Deactivate(context.Background(), id))
	require.Len(t, repo.deactivated, 1)
	assert.Equal(t, id, repo.deactivated[0])
}

func ptrTime(t time.Time) *time.Time { return &t }
