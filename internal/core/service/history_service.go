package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ecosrev/ecosrev-api/internal/core/domain"
	"github.com/ecosrev/ecosrev-api/internal/core/ports"
)

// releaseTimeout bounds giving a claim back once the request is gone.
const releaseTimeout = 2 * time.Second

type historyService struct {
	repo  ports.HistoryRepository
	guard ports.CouponGuard
	log   zerolog.Logger
	now   func() time.Time
}

// NewHistoryService returns a HistoryService implementation. guard may be nil.
func NewHistoryService(repo ports.HistoryRepository, guard ports.CouponGuard, log zerolog.Logger) ports.HistoryService {
	return &historyService{repo: repo, guard: guard, log: log, now: domain.Now}
}

// RedeemCoupon credits a coupon once. The guard rejects obvious replays early;
// the store's unique key on the coupon id has the final word.
func (s *historyService) RedeemCoupon(ctx context.Context, e domain.PointsEntry) error {
	claimed := false
	if s.guard != nil {
		ok, err := s.guard.Claim(ctx, e.ID)
		switch {
		case err != nil:
			s.log.Warn().Err(err).Str("cupom", e.ID).Msg("coupon guard unavailable, relying on store")
		case !ok:
			return domain.ErrDuplicateCoupon
		default:
			claimed = true
		}
	}

	e.Date = s.now()
	if err := s.repo.InsertPoints(ctx, &e); err != nil {
		if claimed && !errors.Is(err, domain.ErrDuplicateCoupon) {
			s.release(ctx, e.ID)
		}
		if errors.Is(err, domain.ErrDuplicateCoupon) {
			return err
		}
		return fmt.Errorf("redeem coupon: %w", err)
	}
	return nil
}

// release gives the claim back even when ctx was cancelled or timed out,
// otherwise the coupon stays blocked until the guard's TTL expires.
func (s *historyService) release(ctx context.Context, id string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()
	if err := s.guard.Release(ctx, id); err != nil {
		s.log.Warn().Err(err).Str("cupom", id).Msg("failed to release coupon claim")
	}
}

// RecordTransaction stores the transaction, then the user-benefit link.
// The two writes are independent; a failed link leaves the transaction in place.
func (s *historyService) RecordTransaction(ctx context.Context, t domain.Transaction) error {
	t.Date = s.now()
	if _, err := s.repo.InsertTransaction(ctx, &t); err != nil {
		return fmt.Errorf("record transaction: %w", err)
	}
	if t.BenefitID != 0 {
		if err := s.repo.LinkBenefit(ctx, t.UserID, t.BenefitID); err != nil {
			return fmt.Errorf("record transaction: link benefit: %w", err)
		}
	}
	return nil
}

func (s *historyService) UserHistory(ctx context.Context, userID int64, r domain.DateRange) ([]domain.HistoryItem, error) {
	return s.history(ctx, &userID, r)
}

func (s *historyService) AllHistory(ctx context.Context, r domain.DateRange) (map[int64][]domain.HistoryItem, error) {
	items, err := s.history(ctx, nil, r)
	if err != nil {
		return nil, err
	}
	return domain.GroupHistoryByUser(items), nil
}

func (s *historyService) history(ctx context.Context, userID *int64, r domain.DateRange) ([]domain.HistoryItem, error) {
	points, err := s.repo.PointsHistory(ctx, userID, r)
	if err != nil {
		return nil, fmt.Errorf("points history: %w", err)
	}
	txs, err := s.repo.TransactionHistory(ctx, userID, r)
	if err != nil {
		return nil, fmt.Errorf("transaction history: %w", err)
	}
	return domain.MergeHistory(points, txs), nil
}
