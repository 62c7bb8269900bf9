package preferences

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/roomradar/roomradar-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository exposes persistence helpers for search preferences.
type Repository interface {
	Create(ctx context.Context, pref *models.Preference) error
	Save(ctx context.Context, pref *models.Preference) error
	GetByID(ctx context.Context, id uuid.UUID) (models.Preference, error)
	ListActive(ctx context.Context) ([]models.Preference, error)
	CountActiveByUser(ctx context.Context, userID uuid.UUID) (int64, error)
	Deactivate(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a preference repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) Create(ctx context.Context, pref *models.Preference) error {
	return r.db.WithContext(ctx).Create(pref).Error
}

func (r *repositoryImpl) Save(ctx context.Context, pref *models.Preference) error {
	return r.db.WithContext(ctx).Save(pref).Error
}

func (r *repositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (models.Preference, error) {
	var pref models.Preference
	err := r.db.WithContext(ctx).First(&pref, "id = ?", id).Error
	return pref, err
}

func (r *repositoryImpl) ListActive(ctx context.Context) ([]models.Preference, error) {
	var prefs []models.Preference
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at ASC").
		Find(&prefs).Error
	return prefs, err
}

func (r *repositoryImpl) CountActiveByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Preference{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Count(&count).Error
	return count, err
}

// Deactivate soft-deletes the preference. Ledger history survives so a
// reactivated preference never re-notifies old matches.
func (r *repositoryImpl) Deactivate(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Preference{}).
		Where("id = ? AND is_active = ?", id, true).
		UpdateColumns(map[string]any{"is_active": false, "updated_at": now})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
