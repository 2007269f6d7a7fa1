package domain

import (
	"errors"
	"time"
)

var (
	ErrImageNotFound   = errors.New("image not found")
	ErrStorageProvider = errors.New("storage provider failure")
	ErrImageFormat     = errors.New("unsupported image format")
	ErrImageTooLarge   = errors.New("image too large")

	// ErrImageVanished means the row disappeared between lookup and delete.
	ErrImageVanished = errors.New("image row vanished before delete")
)

// MaxImageSize is the largest accepted upload, 5 MiB.
const MaxImageSize = 5 << 20

var allowedImageExtensions = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"webp": "image/webp",
}

// ImageContentType returns the content type for an allowed extension.
func ImageContentType(ext string) (string, bool) {
	ct, ok := allowedImageExtensions[ext]
	return ct, ok
}

// Image is the metadata of a profile picture held by the storage provider.
type Image struct {
	ID           int64     `json:"id" bson:"_id"`
	URL          string    `json:"url" bson:"url"`
	PublicID     string    `json:"public_id" bson:"public_id"`
	OriginalName string    `json:"originalname" bson:"originalname"`
	MimeType     string    `json:"mimetype" bson:"mimetype"`
	Size         int64     `json:"size" bson:"size"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	UserID       int64     `json:"idUsuario" bson:"idUsuario"`
}
