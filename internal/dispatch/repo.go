package dispatch

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/roomradar/roomradar-backend/pkg/db/models"
	"github.com/roomradar/roomradar-backend/pkg/enums"
	"gorm.io/gorm"
)

// Repository exposes persistence helpers for the notification queue.
type Repository interface {
	FetchPending(ctx context.Context, limit int) ([]models.Notification, error)
	MarkSentTx(ctx context.Context, tx *gorm.DB, ids []uuid.UUID, now time.Time) error
	MarkFailedTx(ctx context.Context, tx *gorm.DB, ids []uuid.UUID, errMsg string) error
	RequeueFailed(ctx context.Context, maxRetries int) (int64, error)
	DeleteSentBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a notification queue repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

// FetchPending returns pending notifications oldest first. Failed rows stay
// out of the batch until explicitly requeued.
func (r *repositoryImpl) FetchPending(ctx context.Context, limit int) ([]models.Notification, error) {
	var notifications []models.Notification
	err := r.db.WithContext(ctx).
		Where("status = ?", enums.NotificationStatusPending).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Find(&notifications).Error
	return notifications, err
}

func (r *repositoryImpl) MarkSentTx(ctx context.Context, tx *gorm.DB, ids []uuid.UUID, now time.Time) error {
	return r.conn(tx).WithContext(ctx).
		Model(&models.Notification{}).
		Where("id IN ?", ids).
		UpdateColumns(map[string]any{
			"status":        enums.NotificationStatusSent,
			"sent_at":       now,
			"error_message": nil,
		}).Error
}

func (r *repositoryImpl) MarkFailedTx(ctx context.Context, tx *gorm.DB, ids []uuid.UUID, errMsg string) error {
	return r.conn(tx).WithContext(ctx).
		Model(&models.Notification{}).
		Where("id IN ?", ids).
		UpdateColumns(map[string]any{
			"status":        enums.NotificationStatusFailed,
			"retry_count":   gorm.Expr("retry_count + 1"),
			"error_message": errMsg,
		}).Error
}

// RequeueFailed flips failed notifications below the retry ceiling back to
// pending so a later run re-attempts them.
func (r *repositoryImpl) RequeueFailed(ctx context.Context, maxRetries int) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("status = ? AND retry_count < ?", enums.NotificationStatusFailed, maxRetries).
		UpdateColumn("status", enums.NotificationStatusPending)
	return result.RowsAffected, result.Error
}

// DeleteSentBefore prunes delivered notifications past retention. The dedup
// ledger is untouched.
func (r *repositoryImpl) DeleteSentBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	result := r.conn(tx).WithContext(ctx).
		Where("status = ? AND sent_at < ?", enums.NotificationStatusSent, cutoff).
		Delete(&models.Notification{})
	return result.RowsAffected, result.Error
}

// UserRepository resolves notification recipients.
type UserRepository interface {
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]models.User, error)
}

type userRepositoryImpl struct {
	db *gorm.DB
}

// NewUserRepository returns a read-only user lookup bound to the provided database.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepositoryImpl{db: db}
}

func (r *userRepositoryImpl) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error
	return users, err
}
