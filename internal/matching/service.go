package matching

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/roomradar/roomradar-backend/internal/inventory"
	"github.com/roomradar/roomradar-backend/pkg/db"
	"github.com/roomradar/roomradar-backend/pkg/db/models"
	"github.com/roomradar/roomradar-backend/pkg/enums"
	"github.com/roomradar/roomradar-backend/pkg/logger"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

const defaultWorkers = 4

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type preferenceLister interface {
	ListActive(ctx context.Context) ([]models.Preference, error)
}

type inventoryReader interface {
	ListAvailable(ctx context.Context, params inventory.ListParams) ([]inventory.AvailableRow, error)
}

type ledgerRepository interface {
	ListNotifiedRowIDs(ctx context.Context, preferenceID uuid.UUID) (map[uuid.UUID]struct{}, error)
	InsertIfAbsent(ctx context.Context, tx *gorm.DB, record models.MatchRecord) (bool, error)
}

type notificationCreator interface {
	CreateTx(ctx context.Context, tx *gorm.DB, notification *models.Notification) error
}

// ServiceParams wire the matching run dependencies.
type ServiceParams struct {
	Logger        *logger.Logger
	DB            txRunner
	Preferences   preferenceLister
	Inventory     inventoryReader
	Ledger        ledgerRepository
	Notifications notificationCreator
	Matcher       *Matcher
	Scorer        Scorer
	Classifier    Classifier
	Workers       int
}

// Result aggregates one matching run.
type Result struct {
	Preferences int
	Matched     int
	Notified    int
	Deduped     int
}

// Service executes the matching run: filter, score, classify and enqueue one
// notification per preference, at most once per (preference, inventory row).
type Service struct {
	logg          *logger.Logger
	db            txRunner
	preferences   preferenceLister
	inventory     inventoryReader
	ledger        ledgerRepository
	notifications notificationCreator
	matcher       *Matcher
	scorer        Scorer
	classifier    Classifier
	workers       int
	now           func() time.Time
}

// NewService builds the matching service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Preferences == nil {
		return nil, fmt.Errorf("preference repository required")
	}
	if params.Inventory == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if params.Notifications == nil {
		return nil, fmt.Errorf("notification repository required")
	}
	matcher := params.Matcher
	if matcher == nil {
		matcher = NewMatcher(MatcherParams{})
	}
	scorer := params.Scorer
	if scorer == (Scorer{}) {
		scorer = NewScorer(ScorerParams{})
	}
	workers := params.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Service{
		logg:          params.Logger,
		db:            params.DB,
		preferences:   params.Preferences,
		inventory:     params.Inventory,
		ledger:        params.Ledger,
		notifications: params.Notifications,
		matcher:       matcher,
		scorer:        scorer,
		classifier:    params.Classifier,
		workers:       workers,
		now:           time.Now,
	}, nil
}

// RunMatching processes every active preference once. Preferences are
// independent, so they fan out across a bounded worker pool; the first data
// error cancels the remaining work while already-committed writes stand.
func (s *Service) RunMatching(ctx context.Context) (Result, error) {
	prefs, err := s.preferences.ListActive(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("list active preferences: %w", err)
	}

	today := dateOnly(s.now().UTC())
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		result Result
		errs   []error
	)
	jobs := make(chan models.Preference)

	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for pref := range jobs {
				if runCtx.Err() != nil {
					continue
				}
				outcome, err := s.processPreference(runCtx, pref, today)
				mu.Lock()
				if err != nil {
					errs = append(errs, fmt.Errorf("preference %s: %w", pref.ID, err))
					cancel()
				} else {
					result.Matched += outcome.matched
					if outcome.notified {
						result.Notified++
					}
					if outcome.deduped {
						result.Deduped++
					}
				}
				mu.Unlock()
			}
		}()
	}

feed:
	for _, pref := range prefs {
		select {
		case <-runCtx.Done():
			break feed
		case jobs <- pref:
		}
	}
	close(jobs)
	wg.Wait()

	result.Preferences = len(prefs)
	return result, multierr.Combine(errs...)
}

type preferenceOutcome struct {
	matched  int
	notified bool
	deduped  bool
}

func (s *Service) processPreference(ctx context.Context, pref models.Preference, today time.Time) (preferenceOutcome, error) {
	var outcome preferenceOutcome

	window := s.matcher.WindowFor(pref, today)
	rows, err := s.inventory.ListAvailable(ctx, inventory.ListParams{
		From:        window.From,
		To:          window.To,
		HotelID:     pref.HotelID,
		AreaName:    pref.AreaName,
		MinPriceYen: pref.MinPriceYen,
		MaxPriceYen: pref.MaxPriceYen,
	})
	if err != nil {
		return outcome, fmt.Errorf("list inventory: %w", err)
	}

	notified, err := s.ledger.ListNotifiedRowIDs(ctx, pref.ID)
	if err != nil {
		return outcome, fmt.Errorf("load ledger: %w", err)
	}

	candidates := s.matcher.Filter(pref, FromAvailable(rows), today, notified)
	outcome.matched = len(candidates)
	if len(candidates) == 0 {
		return outcome, nil
	}

	best, score, ok := SelectBest(pref, candidates, today, s.scorer)
	if !ok {
		return outcome, nil
	}

	notifType, ok := s.classifier.Classify(pref, best, today)
	if !ok {
		logCtx := s.logg.WithPreferenceID(ctx, pref.ID.String())
		s.logg.Info(logCtx, "match suppressed by notification toggles")
		return outcome, nil
	}

	snapshot := BuildSnapshot(best, today)
	matchData, err := json.Marshal(snapshot)
	if err != nil {
		return outcome, fmt.Errorf("encode match data: %w", err)
	}

	notification := &models.Notification{
		PreferenceID:   pref.ID,
		UserID:         pref.UserID,
		HotelID:        best.Row.HotelID,
		InventoryRowID: best.Row.ID,
		Type:           notifType,
		MatchData:      matchData,
		Status:         enums.NotificationStatusPending,
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		inserted, err := s.ledger.InsertIfAbsent(ctx, tx, models.MatchRecord{
			PreferenceID:   pref.ID,
			InventoryRowID: best.Row.ID,
			NotifiedAt:     s.now().UTC(),
		})
		if err != nil {
			if db.IsUniqueViolation(err, "match_records_pkey") {
				outcome.deduped = true
				return nil
			}
			return fmt.Errorf("record ledger entry: %w", err)
		}
		if !inserted {
			// A concurrent run already claimed this pair.
			outcome.deduped = true
			return nil
		}
		if err := s.notifications.CreateTx(ctx, tx, notification); err != nil {
			return fmt.Errorf("enqueue notification: %w", err)
		}
		outcome.notified = true
		return nil
	})
	if err != nil {
		return outcome, err
	}

	if outcome.notified {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"preference_id": pref.ID.String(),
			"type":          notifType.String(),
			"score":         score,
			"price_yen":     best.Row.PriceYen,
		})
		s.logg.Info(logCtx, "match notification enqueued")
	}
	return outcome, nil
}
