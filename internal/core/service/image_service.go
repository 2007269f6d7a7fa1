package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ecosrev/ecosrev-api/internal/core/domain"
	"github.com/ecosrev/ecosrev-api/internal/core/ports"
)

const defaultImageFolder = "ecosrev/imgPerfilUsuario"

type imageService struct {
	images  ports.ImageRepository
	users   ports.UserRepository
	storage ports.ImageStorage
	folder  string
	apk     ports.APKLocation
	log     zerolog.Logger
	now     func() time.Time
}

// NewImageService returns an ImageService implementation.
func NewImageService(
	images ports.ImageRepository,
	users ports.UserRepository,
	storage ports.ImageStorage,
	folder string,
	apk ports.APKLocation,
	log zerolog.Logger,
) ports.ImageService {
	if folder == "" {
		folder = defaultImageFolder
	}
	if apk.TTL <= 0 {
		apk.TTL = time.Minute
	}
	return &imageService{
		images:  images,
		users:   users,
		storage: storage,
		folder:  folder,
		apk:     apk,
		log:     log,
		now:     time.Now,
	}
}

// Upload stores a profile picture. A user's first picture creates a new row;
// later ones replace the stored object and keep the row id.
func (s *imageService) Upload(ctx context.Context, userID int64, in ports.ImageUpload) (*ports.ImageResult, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(in.Filename), "."))
	contentType, ok := domain.ImageContentType(ext)
	if !ok {
		return nil, domain.ErrImageFormat
	}
	if in.Size > domain.MaxImageSize {
		return nil, domain.ErrImageTooLarge
	}
	if in.ContentType != "" && strings.HasPrefix(in.ContentType, "image/") {
		contentType = in.ContentType
	}

	existing, err := s.images.FindByUser(ctx, userID)
	if err != nil && !errors.Is(err, domain.ErrImageNotFound) {
		return nil, fmt.Errorf("upload image: %w", err)
	}

	obj, err := s.storage.Upload(ctx, ports.UploadInput{
		Folder:      s.folder,
		Filename:    in.Filename,
		ContentType: contentType,
		Size:        in.Size,
		Body:        in.Body,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: upload: %v", domain.ErrStorageProvider, err)
	}

	meta := domain.Image{
		URL:          obj.URL,
		PublicID:     obj.PublicID,
		OriginalName: in.Filename,
		MimeType:     contentType,
		Size:         in.Size,
		CreatedAt:    s.now(),
		UserID:       userID,
	}

	if existing == nil {
		return s.create(ctx, meta)
	}
	return s.replace(ctx, existing, meta)
}

func (s *imageService) create(ctx context.Context, meta domain.Image) (*ports.ImageResult, error) {
	id, err := s.images.Create(ctx, &meta)
	if err != nil {
		s.discard(ctx, meta.PublicID)
		return nil, fmt.Errorf("save image metadata: %w", err)
	}
	meta.ID = id

	if err := s.users.SetProfileImage(ctx, meta.UserID, id); err != nil {
		s.log.Warn().Err(err).Int64("idUsuario", meta.UserID).Int64("imagem", id).Msg("failed to link profile image to user")
	}
	return &ports.ImageResult{Image: meta}, nil
}

// replace swaps the stored object in three steps. If the old object cannot be
// destroyed the new one is destroyed instead and the old row stays untouched.
// A metadata update that still fails after one retry leaves the row pointing
// at a destroyed object; that case is logged.
func (s *imageService) replace(ctx context.Context, existing *domain.Image, meta domain.Image) (*ports.ImageResult, error) {
	if existing.PublicID != "" {
		if err := s.storage.Destroy(ctx, existing.PublicID); err != nil {
			s.discard(ctx, meta.PublicID)
			return nil, fmt.Errorf("%w: destroy previous image: %v", domain.ErrStorageProvider, err)
		}
	}

	meta.ID = existing.ID
	err := s.images.Update(ctx, &meta)
	if err != nil {
		s.log.Warn().Err(err).Int64("imagem", meta.ID).Msg("image metadata update failed, retrying")
		err = s.images.Update(ctx, &meta)
	}
	if err != nil {
		s.log.Error().Err(err).
			Int64("imagem", meta.ID).
			Str("old_public_id", existing.PublicID).
			Str("new_public_id", meta.PublicID).
			Msg("image metadata references a destroyed object")
		return nil, fmt.Errorf("update image metadata: %w", err)
	}
	return &ports.ImageResult{Image: meta, Replaced: true}, nil
}

// discard removes an object that will never be referenced.
func (s *imageService) discard(ctx context.Context, publicID string) {
	if err := s.storage.Destroy(ctx, publicID); err != nil {
		s.log.Error().Err(err).Str("public_id", publicID).Msg("failed to destroy orphaned image")
	}
}

func (s *imageService) Get(ctx context.Context, id int64) (*domain.Image, error) {
	return s.images.FindByID(ctx, id)
}

// Delete destroys the stored object before the metadata row.
func (s *imageService) Delete(ctx context.Context, id int64) error {
	img, err := s.images.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if img.PublicID != "" {
		if err := s.storage.Destroy(ctx, img.PublicID); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrStorageProvider, err)
		}
	}

	if err := s.images.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrImageNotFound) {
			return domain.ErrImageVanished
		}
		return err
	}
	return nil
}

func (s *imageService) APKDownloadURL(ctx context.Context) (string, error) {
	return s.storage.PresignDownload(ctx, s.apk.Bucket, s.apk.Key, s.apk.TTL)
}
