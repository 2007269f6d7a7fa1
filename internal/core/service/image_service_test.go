package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ecosrev/ecosrev-api/internal/core/domain"
	"github.com/ecosrev/ecosrev-api/internal/core/ports"
)

func newImageSvc(images *stubImageRepo, users *stubUserRepo, storage *stubStorage) ports.ImageService {
	return NewImageService(images, users, storage, "avatars", ports.APKLocation{Bucket: "apps", Key: "EcosRev.apk"}, zerolog.Nop())
}

func pngUpload() ports.ImageUpload {
	return ports.ImageUpload{Filename: "me.png", ContentType: "image/png", Size: 10, Body: strings.NewReader("0123456789")}
}

func TestImageService_Upload_FirstImageCreatesRow(t *testing.T) {
	images, users, storage := newStubImageRepo(), newStubUserRepo(), &stubStorage{}
	svc := newImageSvc(images, users, storage)

	res, err := svc.Upload(context.Background(), 5, pngUpload())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Replaced {
		t.Fatalf("first upload must not be a replacement")
	}
	if res.Image.ID != 1 || res.Image.UserID != 5 || res.Image.PublicID != "avatars/obj1" {
		t.Fatalf("unexpected image: %+v", res.Image)
	}
	if users.linked[5] != 1 {
		t.Fatalf("expected user linked to image 1, got %v", users.linked)
	}
}

func TestImageService_Upload_RejectsFormatAndSize(t *testing.T) {
	svc := newImageSvc(newStubImageRepo(), newStubUserRepo(), &stubStorage{})

	gif := pngUpload()
	gif.Filename = "me.gif"
	if _, err := svc.Upload(context.Background(), 1, gif); !errors.Is(err, domain.ErrImageFormat) {
		t.Fatalf("expected ErrImageFormat, got %v", err)
	}

	big := pngUpload()
	big.Size = domain.MaxImageSize + 1
	if _, err := svc.Upload(context.Background(), 1, big); !errors.Is(err, domain.ErrImageTooLarge) {
		t.Fatalf("expected ErrImageTooLarge, got %v", err)
	}
}

func TestImageService_Upload_ReplacementKeepsID(t *testing.T) {
	images, storage := newStubImageRepo(), &stubStorage{}
	_, _ = images.Create(context.Background(), &domain.Image{PublicID: "old", UserID: 5})
	svc := newImageSvc(images, newStubUserRepo(), storage)

	res, err := svc.Upload(context.Background(), 5, pngUpload())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Replaced || res.Image.ID != 1 {
		t.Fatalf("expected replacement of row 1, got %+v", res)
	}
	if len(storage.destroyed) != 1 || storage.destroyed[0] != "old" {
		t.Fatalf("expected old object destroyed, got %v", storage.destroyed)
	}
	if images.byID[1].PublicID != "avatars/obj1" {
		t.Fatalf("row not updated: %+v", images.byID[1])
	}
}

func TestImageService_Upload_CompensatesWhenOldDestroyFails(t *testing.T) {
	images := newStubImageRepo()
	_, _ = images.Create(context.Background(), &domain.Image{PublicID: "old", UserID: 5})
	storage := &stubStorage{destroyErrs: map[string]error{"old": errors.New("provider down")}}
	svc := newImageSvc(images, newStubUserRepo(), storage)

	_, err := svc.Upload(context.Background(), 5, pngUpload())
	if !errors.Is(err, domain.ErrStorageProvider) {
		t.Fatalf("expected ErrStorageProvider, got %v", err)
	}
	if len(storage.destroyed) != 1 || storage.destroyed[0] != "avatars/obj1" {
		t.Fatalf("expected new object destroyed as compensation, got %v", storage.destroyed)
	}
	if images.byID[1].PublicID != "old" {
		t.Fatalf("old row must stay untouched: %+v", images.byID[1])
	}
	if images.updateCalls != 0 {
		t.Fatalf("metadata must not be updated")
	}
}

func TestImageService_Upload_RetriesMetadataUpdateOnce(t *testing.T) {
	images := newStubImageRepo()
	_, _ = images.Create(context.Background(), &domain.Image{PublicID: "old", UserID: 5})
	images.updateErrs = []error{errors.New("transient")}
	storage := &stubStorage{}
	svc := newImageSvc(images, newStubUserRepo(), storage)

	if _, err := svc.Upload(context.Background(), 5, pngUpload()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if images.updateCalls != 2 {
		t.Fatalf("expected 2 update attempts, got %d", images.updateCalls)
	}
	if len(storage.destroyed) != 1 {
		t.Fatalf("destroy must run once, got %v", storage.destroyed)
	}
}

func TestImageService_Upload_MetadataUpdateFailsTwice(t *testing.T) {
	images := newStubImageRepo()
	_, _ = images.Create(context.Background(), &domain.Image{PublicID: "old", UserID: 5})
	images.updateErrs = []error{errors.New("down"), errors.New("still down")}
	svc := newImageSvc(images, newStubUserRepo(), &stubStorage{})

	if _, err := svc.Upload(context.Background(), 5, pngUpload()); err == nil {
		t.Fatalf("expected failure after retry")
	}
	if images.updateCalls != 2 {
		t.Fatalf("expected exactly 2 update attempts, got %d", images.updateCalls)
	}
}

func TestImageService_Delete(t *testing.T) {
	images, storage := newStubImageRepo(), &stubStorage{}
	_, _ = images.Create(context.Background(), &domain.Image{PublicID: "p1", UserID: 5})
	svc := newImageSvc(images, newStubUserRepo(), storage)
	ctx := context.Background()

	if err := svc.Delete(ctx, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(storage.destroyed) != 1 || storage.destroyed[0] != "p1" {
		t.Fatalf("expected object destroyed, got %v", storage.destroyed)
	}
	if err := svc.Delete(ctx, 1); !errors.Is(err, domain.ErrImageNotFound) {
		t.Fatalf("expected ErrImageNotFound, got %v", err)
	}
}

func TestImageService_Delete_ProviderFailureKeepsRow(t *testing.T) {
	images := newStubImageRepo()
	_, _ = images.Create(context.Background(), &domain.Image{PublicID: "p1", UserID: 5})
	storage := &stubStorage{destroyErrs: map[string]error{"p1": errors.New("down")}}
	svc := newImageSvc(images, newStubUserRepo(), storage)

	if err := svc.Delete(context.Background(), 1); !errors.Is(err, domain.ErrStorageProvider) {
		t.Fatalf("expected ErrStorageProvider, got %v", err)
	}
	if _, ok := images.byID[1]; !ok {
		t.Fatalf("row must remain")
	}
}

func TestImageService_Delete_RowVanished(t *testing.T) {
	images := newStubImageRepo()
	_, _ = images.Create(context.Background(), &domain.Image{UserID: 5})
	images.deleteErr = domain.ErrImageNotFound
	svc := newImageSvc(images, newStubUserRepo(), &stubStorage{})

	if err := svc.Delete(context.Background(), 1); !errors.Is(err, domain.ErrImageVanished) {
		t.Fatalf("expected ErrImageVanished, got %v", err)
	}
}

func TestImageService_APKDownloadURL(t *testing.T) {
	storage := &stubStorage{presignFn: func(bucket, key string, ttl time.Duration) (string, error) {
		if bucket != "apps" || key != "EcosRev.apk" || ttl != time.Minute {
			t.Fatalf("unexpected presign args: %s %s %s", bucket, key, ttl)
		}
		return "https://signed", nil
	}}
	svc := newImageSvc(newStubImageRepo(), newStubUserRepo(), storage)

	url, err := svc.APKDownloadURL(context.Background())
	if err != nil || url != "https://signed" {
		t.Fatalf("unexpected result: %q %v", url, err)
	}
}
