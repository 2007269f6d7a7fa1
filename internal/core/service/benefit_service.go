package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ecosrev/ecosrev-api/internal/core/domain"
	"github.com/ecosrev/ecosrev-api/internal/core/ports"
)

type benefitService struct {
	repo ports.BenefitRepository
	log  zerolog.Logger
}

// NewBenefitService returns a BenefitService implementation.
func NewBenefitService(repo ports.BenefitRepository, log zerolog.Logger) ports.BenefitService {
	return &benefitService{repo: repo, log: log}
}

func (s *benefitService) List(ctx context.Context, opts domain.ListOptions) ([]domain.Benefit, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("list benefits: %w", err)
	}
	return s.repo.List(ctx, opts)
}

// ListInPointsRange lists benefits whose points lie strictly inside r.
func (s *benefitService) ListInPointsRange(ctx context.Context, r domain.PointsRange, opts domain.ListOptions) ([]domain.Benefit, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("list benefits: %w", err)
	}
	return s.repo.ListInPointsRange(ctx, r, opts)
}

func (s *benefitService) Get(ctx context.Context, id int64) (*domain.Benefit, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *benefitService) SearchByName(ctx context.Context, filter string) ([]domain.Benefit, error) {
	return s.repo.SearchByName(ctx, filter)
}

func (s *benefitService) Create(ctx context.Context, b *domain.Benefit) (int64, error) {
	id, err := s.repo.Create(ctx, b)
	if err != nil {
		return 0, fmt.Errorf("create benefit: %w", err)
	}
	s.log.Info().Int64("id", id).Str("nome", b.Name).Msg("benefit created")
	return id, nil
}

func (s *benefitService) Update(ctx context.Context, b *domain.Benefit) (int64, error) {
	return s.repo.Update(ctx, b)
}

// Redeem stores the remaining quantity after a redemption.
func (s *benefitService) Redeem(ctx context.Context, id int64, quantity int) (int64, error) {
	affected, err := s.repo.SetQuantity(ctx, id, quantity)
	if err != nil {
		return 0, fmt.Errorf("redeem benefit: %w", err)
	}
	s.log.Debug().Int64("id", id).Int("quantidade", quantity).Int64("affected", affected).Msg("benefit redeemed")
	return affected, nil
}

func (s *benefitService) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
