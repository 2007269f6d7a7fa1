package ports

import (
	"context"
	"time"

	"github.com/ecosrev/ecosrev-api/internal/core/domain"
)

// UserRepository persists accounts. Lookups return domain.ErrUserNotFound
// when no row matches; mutations do the same when nothing was affected.
type UserRepository interface {
	Create(ctx context.Context, u *domain.User) (int64, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	// List returns every account ordered by name.
	List(ctx context.Context) ([]domain.User, error)
	SetPoints(ctx context.Context, id int64, points int) error
	UpdatePassword(ctx context.Context, id int64, hash string) error
	// SetTemporaryPassword stores hash and raises the reset flag until expires.
	SetTemporaryPassword(ctx context.Context, email, hash string, expires time.Time) error
	// ClearPasswordReset stores hash and drops the reset flag and expiry.
	ClearPasswordReset(ctx context.Context, id int64, hash string) error
	SetProfileImage(ctx context.Context, userID, imageID int64) error
	Delete(ctx context.Context, id int64) error
}

// BenefitRepository persists benefits. Update methods return the number of
// affected rows, which may be zero.
type BenefitRepository interface {
	List(ctx context.Context, opts domain.ListOptions) ([]domain.Benefit, error)
	ListInPointsRange(ctx context.Context, r domain.PointsRange, opts domain.ListOptions) ([]domain.Benefit, error)
	FindByID(ctx context.Context, id int64) (*domain.Benefit, error)
	SearchByName(ctx context.Context, filter string) ([]domain.Benefit, error)
	Create(ctx context.Context, b *domain.Benefit) (int64, error)
	Update(ctx context.Context, b *domain.Benefit) (int64, error)
	SetQuantity(ctx context.Context, id int64, quantity int) (int64, error)
	Delete(ctx context.Context, id int64) error
}

// HistoryRepository persists coupon redemptions and point transactions.
type HistoryRepository interface {
	// InsertPoints returns domain.ErrDuplicateCoupon when the coupon id exists.
	InsertPoints(ctx context.Context, e *domain.PointsEntry) error
	InsertTransaction(ctx context.Context, t *domain.Transaction) (int64, error)
	LinkBenefit(ctx context.Context, userID, benefitID int64) error
	// PointsHistory and TransactionHistory scan every user when userID is nil.
	PointsHistory(ctx context.Context, userID *int64, r domain.DateRange) ([]domain.HistoryItem, error)
	TransactionHistory(ctx context.Context, userID *int64, r domain.DateRange) ([]domain.HistoryItem, error)
}

// ImageRepository persists profile picture metadata.
type ImageRepository interface {
	Create(ctx context.Context, img *domain.Image) (int64, error)
	FindByID(ctx context.Context, id int64) (*domain.Image, error)
	// FindByUser returns the current profile picture of a user.
	FindByUser(ctx context.Context, userID int64) (*domain.Image, error)
	Update(ctx context.Context, img *domain.Image) error
	Delete(ctx context.Context, id int64) error
}
