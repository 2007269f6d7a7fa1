package ports

import (
	"context"
	"io"
	"time"

	"github.com/ecosrev/ecosrev-api/internal/core/domain"
)

// CredentialVerifier issues and checks access credentials.
type CredentialVerifier interface {
	Issue(identity domain.Identity) (string, error)
	Verify(credential string) (domain.Identity, error)
}

// LoginResult is returned on a successful login.
type LoginResult struct {
	AccessToken string
	RedirectURL string
}

type UserService interface {
	Register(ctx context.Context, u *domain.User, password string) (int64, error)
	EmailTaken(ctx context.Context, email string) (bool, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	List(ctx context.Context) ([]domain.User, error)
	Get(ctx context.Context, id int64) (*domain.User, error)
	SetPoints(ctx context.Context, id int64, points int) error
	ChangePassword(ctx context.Context, id int64, current, next string) error
	// ForgotPassword succeeds for unknown addresses and when the mail cannot be sent.
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, id int64, next string) error
	Delete(ctx context.Context, id int64) error
	AvatarURL(ctx context.Context, userID int64) (string, error)
}

type BenefitService interface {
	List(ctx context.Context, opts domain.ListOptions) ([]domain.Benefit, error)
	ListInPointsRange(ctx context.Context, r domain.PointsRange, opts domain.ListOptions) ([]domain.Benefit, error)
	Get(ctx context.Context, id int64) (*domain.Benefit, error)
	SearchByName(ctx context.Context, filter string) ([]domain.Benefit, error)
	Create(ctx context.Context, b *domain.Benefit) (int64, error)
	Update(ctx context.Context, b *domain.Benefit) (int64, error)
	Redeem(ctx context.Context, id int64, quantity int) (int64, error)
	Delete(ctx context.Context, id int64) error
}

type HistoryService interface {
	RedeemCoupon(ctx context.Context, e domain.PointsEntry) error
	RecordTransaction(ctx context.Context, t domain.Transaction) error
	UserHistory(ctx context.Context, userID int64, r domain.DateRange) ([]domain.HistoryItem, error)
	AllHistory(ctx context.Context, r domain.DateRange) (map[int64][]domain.HistoryItem, error)
}

// ImageUpload is a profile picture received from a client.
type ImageUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// ImageResult is the saved metadata plus whether an older picture was replaced.
type ImageResult struct {
	Image    domain.Image
	Replaced bool
}

type ImageService interface {
	Upload(ctx context.Context, userID int64, in ImageUpload) (*ImageResult, error)
	Get(ctx context.Context, id int64) (*domain.Image, error)
	Delete(ctx context.Context, id int64) error
	APKDownloadURL(ctx context.Context) (string, error)
}

// APKLocation points at the mobile app package.
type APKLocation struct {
	Bucket string
	Key    string
	TTL    time.Duration
}
