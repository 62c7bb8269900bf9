package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/roomradar/roomradar-backend/pkg/db/models"
	"github.com/roomradar/roomradar-backend/pkg/logger"
	"github.com/roomradar/roomradar-backend/pkg/mailer"
	"gorm.io/gorm"
)

const (
	defaultBatchSize     = 50
	defaultMaxRetries    = 3
	defaultRetentionDays = 30
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams wire the dispatch run dependencies.
type ServiceParams struct {
	Logger        *logger.Logger
	DB            txRunner
	Notifications Repository
	Users         UserRepository
	Sender        mailer.Sender
	BatchSize     int
	MaxRetries    int
	RetentionDays int
}

// Result aggregates one dispatch run.
type Result struct {
	Batched int
	Users   int
	Sent    int
	Failed  int
}

// Service drains the pending notification queue. Notifications for the same
// recipient collapse into a single digest email; a lone notification goes out
// as an individual email. Send failures mark the rows failed and never abort
// the run.
type Service struct {
	logg          *logger.Logger
	db            txRunner
	notifications Repository
	users         UserRepository
	sender        mailer.Sender
	batchSize     int
	maxRetries    int
	retentionDays int
	now           func() time.Time
}

// NewService builds the dispatch service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Notifications == nil {
		return nil, fmt.Errorf("notification repository required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user repository required")
	}
	if params.Sender == nil {
		return nil, fmt.Errorf("mail sender required")
	}
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	maxRetries := params.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	retentionDays := params.RetentionDays
	if retentionDays <= 0 {
		retentionDays = defaultRetentionDays
	}
	return &Service{
		logg:          params.Logger,
		db:            params.DB,
		notifications: params.Notifications,
		users:         params.Users,
		sender:        params.Sender,
		batchSize:     batchSize,
		maxRetries:    maxRetries,
		retentionDays: retentionDays,
		now:           time.Now,
	}, nil
}

type userGroup struct {
	userID        uuid.UUID
	notifications []models.Notification
}

// RunDispatch fetches one batch of pending notifications and delivers them
// grouped per recipient. Queue reads and status writes propagate errors;
// delivery failures only mark the affected rows.
func (s *Service) RunDispatch(ctx context.Context) (Result, error) {
	var result Result

	pending, err := s.notifications.FetchPending(ctx, s.batchSize)
	if err != nil {
		return result, fmt.Errorf("fetch pending notifications: %w", err)
	}
	result.Batched = len(pending)
	if len(pending) == 0 {
		return result, nil
	}

	groups := groupByUser(pending)
	result.Users = len(groups)

	recipients, err := s.resolveRecipients(ctx, groups)
	if err != nil {
		return result, fmt.Errorf("resolve recipients: %w", err)
	}

	for _, group := range groups {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		user, ok := recipients[group.userID]
		if !ok {
			if err := s.markFailed(ctx, group.notifications, "recipient not found"); err != nil {
				return result, err
			}
			result.Failed += len(group.notifications)
			logCtx := s.logg.WithUserID(ctx, group.userID.String())
			s.logg.Warn(logCtx, "notifications failed for missing recipient")
			continue
		}

		email, err := s.buildEmail(user, group.notifications)
		if err != nil {
			if markErr := s.markFailed(ctx, group.notifications, err.Error()); markErr != nil {
				return result, markErr
			}
			result.Failed += len(group.notifications)
			logCtx := s.logg.WithFields(ctx, map[string]any{
				"user_id": group.userID.String(),
				"error":   err.Error(),
			})
			s.logg.Warn(logCtx, "notification email rendering failed")
			continue
		}

		if err := s.sender.Send(ctx, email); err != nil {
			if markErr := s.markFailed(ctx, group.notifications, err.Error()); markErr != nil {
				return result, markErr
			}
			result.Failed += len(group.notifications)
			logCtx := s.logg.WithFields(ctx, map[string]any{
				"user_id":       group.userID.String(),
				"notifications": len(group.notifications),
				"error":         err.Error(),
			})
			s.logg.Warn(logCtx, "notification delivery failed")
			continue
		}

		if err := s.markSent(ctx, group.notifications); err != nil {
			return result, err
		}
		result.Sent += len(group.notifications)
	}

	return result, nil
}

// RequeueFailed moves failed notifications below the retry ceiling back to
// pending for the next dispatch run.
func (s *Service) RequeueFailed(ctx context.Context) (int64, error) {
	requeued, err := s.notifications.RequeueFailed(ctx, s.maxRetries)
	if err != nil {
		return 0, fmt.Errorf("requeue failed notifications: %w", err)
	}
	if requeued > 0 {
		logCtx := s.logg.WithField(ctx, "requeued", requeued)
		s.logg.Info(logCtx, "failed notifications requeued")
	}
	return requeued, nil
}

// CleanupSent prunes delivered notifications older than the retention window.
func (s *Service) CleanupSent(ctx context.Context) (int64, error) {
	cutoff := s.now().UTC().AddDate(0, 0, -s.retentionDays)
	var deleted int64
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		deleted, err = s.notifications.DeleteSentBefore(ctx, tx, cutoff)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("delete sent notifications: %w", err)
	}
	if deleted > 0 {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"deleted": deleted,
			"cutoff":  cutoff.Format(time.RFC3339),
		})
		s.logg.Info(logCtx, "retention cleanup removed sent notifications")
	}
	return deleted, nil
}

func (s *Service) buildEmail(user models.User, notifications []models.Notification) (mailer.Email, error) {
	if len(notifications) == 1 {
		return buildIndividualEmail(user, notifications[0])
	}
	return buildDigestEmail(user, notifications)
}

func (s *Service) resolveRecipients(ctx context.Context, groups []userGroup) (map[uuid.UUID]models.User, error) {
	ids := make([]uuid.UUID, 0, len(groups))
	for _, group := range groups {
		ids = append(ids, group.userID)
	}
	users, err := s.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]models.User, len(users))
	for _, user := range users {
		byID[user.ID] = user
	}
	return byID, nil
}

func (s *Service) markSent(ctx context.Context, notifications []models.Notification) error {
	ids := notificationIDs(notifications)
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		return s.notifications.MarkSentTx(ctx, tx, ids, s.now().UTC())
	})
	if err != nil {
		return fmt.Errorf("mark notifications sent: %w", err)
	}
	return nil
}

func (s *Service) markFailed(ctx context.Context, notifications []models.Notification, reason string) error {
	ids := notificationIDs(notifications)
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		return s.notifications.MarkFailedTx(ctx, tx, ids, reason)
	})
	if err != nil {
		return fmt.Errorf("mark notifications failed: %w", err)
	}
	return nil
}

// groupByUser buckets the batch per recipient, preserving the oldest-first
// fetch order both across groups and inside each group.
func groupByUser(notifications []models.Notification) []userGroup {
	index := make(map[uuid.UUID]int, len(notifications))
	groups := make([]userGroup, 0, len(notifications))
	for _, notification := range notifications {
		at, ok := index[notification.UserID]
		if !ok {
			at = len(groups)
			index[notification.UserID] = at
			groups = append(groups, userGroup{userID: notification.UserID})
		}
		groups[at].notifications = append(groups[at].notifications, notification)
	}
	return groups
}

func notificationIDs(notifications []models.Notification) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(notifications))
	for _, notification := range notifications {
		ids = append(ids, notification.ID)
	}
	return ids
}
