package ports

import (
	"context"
	"io"
	"time"
)

// UploadInput describes an object handed to the image host.
type UploadInput struct {
	Folder      string
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// StoredObject is what the image host reports after an upload.
type StoredObject struct {
	URL      string
	PublicID string
}

// ImageStorage is the external provider holding image bytes.
type ImageStorage interface {
	Upload(ctx context.Context, in UploadInput) (*StoredObject, error)
	Destroy(ctx context.Context, publicID string) error
	// PresignDownload returns a time-limited GET link for an arbitrary object.
	PresignDownload(ctx context.Context, bucket, key string, ttl time.Duration) (string, error)
}

// Mailer delivers transactional email.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, temporaryPassword string) error
}

// CouponGuard is a fast, best-effort first line against coupon reuse.
type CouponGuard interface {
	// Claim reports false when someone already holds the coupon.
	Claim(ctx context.Context, couponID string) (bool, error)
	Release(ctx context.Context, couponID string) error
}
