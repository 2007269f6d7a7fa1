package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ecosrev/ecosrev-api/internal/core/domain"
	"github.com/ecosrev/ecosrev-api/internal/core/ports"
)

const imageColumns = `id, url, public_id, originalname, mimetype, size, created_at, id_usuario`

type imageRepository struct {
	db DBTX
}

// NewImageRepository returns an ImageRepository backed by img_perfil_usuario.
func NewImageRepository(db DBTX) ports.ImageRepository {
	return &imageRepository{db: db}
}

func scanImage(row rowScanner) (*domain.Image, error) {
	var img domain.Image
	err := row.Scan(&img.ID, &img.URL, &img.PublicID, &img.OriginalName, &img.MimeType,
		&img.Size, &img.CreatedAt, &img.UserID)
	if err != nil {
		return nil, err
	}
	return &img, nil
}

func (r *imageRepository) Create(ctx context.Context, img *domain.Image) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO img_perfil_usuario (url, public_id, originalname, mimetype, size, created_at, id_usuario)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		img.URL, img.PublicID, img.OriginalName, img.MimeType, img.Size, img.CreatedAt, img.UserID).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert image: %w", err)
	}
	return id, nil
}

func (r *imageRepository) find(ctx context.Context, op, where string, arg any) (*domain.Image, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	img, err := scanImage(r.db.QueryRowContext(ctx, `SELECT `+imageColumns+` FROM img_perfil_usuario WHERE `+where, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrImageNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return img, nil
}

func (r *imageRepository) FindByID(ctx context.Context, id int64) (*domain.Image, error) {
	return r.find(ctx, "find image", `id = $1`, id)
}

func (r *imageRepository) FindByUser(ctx context.Context, userID int64) (*domain.Image, error) {
	return r.find(ctx, "find image by user", `id_usuario = $1`, userID)
}

func (r *imageRepository) Update(ctx context.Context, img *domain.Image) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx,
		`UPDATE img_perfil_usuario SET url = $1, public_id = $2, originalname = $3, mimetype = $4, size = $5, created_at = $6
		WHERE id = $7`,
		img.URL, img.PublicID, img.OriginalName, img.MimeType, img.Size, img.CreatedAt, img.ID)
	if err != nil {
		return fmt.Errorf("update image: %w", err)
	}
	return affectedOrNotFound(res, domain.ErrImageNotFound)
}

func (r *imageRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM img_perfil_usuario WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete image: %w", err)
	}
	return affectedOrNotFound(res, domain.ErrImageNotFound)
}
