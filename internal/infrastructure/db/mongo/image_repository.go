package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ecosrev/ecosrev-api/internal/core/domain"
	"github.com/ecosrev/ecosrev-api/internal/core/ports"
)

type imageRepository struct {
	col *mongo.Collection
	seq *sequence
}

// NewImageRepository returns an ImageRepository over img_perfil_usuario.
func NewImageRepository(db *mongo.Database) ports.ImageRepository {
	return &imageRepository{col: db.Collection(collectionImages), seq: newSequence(db)}
}

func (r *imageRepository) Create(ctx context.Context, img *domain.Image) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := r.seq.next(ctx, collectionImages)
	if err != nil {
		return 0, err
	}
	doc := *img
	doc.ID = id
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return 0, fmt.Errorf("insert image: %w", err)
	}
	return id, nil
}

func (r *imageRepository) findOne(ctx context.Context, filter bson.M) (*domain.Image, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var img domain.Image
	if err := r.col.FindOne(ctx, filter).Decode(&img); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrImageNotFound
		}
		return nil, fmt.Errorf("find image: %w", err)
	}
	return &img, nil
}

func (r *imageRepository) FindByID(ctx context.Context, id int64) (*domain.Image, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *imageRepository) FindByUser(ctx context.Context, userID int64) (*domain.Image, error) {
	return r.findOne(ctx, bson.M{"idUsuario": userID})
}

func (r *imageRepository) Update(ctx context.Context, img *domain.Image) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": img.ID}, bson.M{"$set": bson.M{
		"url":          img.URL,
		"public_id":    img.PublicID,
		"originalname": img.OriginalName,
		"mimetype":     img.MimeType,
		"size":         img.Size,
		"created_at":   img.CreatedAt,
	}})
	if err != nil {
		return fmt.Errorf("update image: %w", err)
	}
	return matchedOrNotFound(res, domain.ErrImageNotFound)
}

func (r *imageRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete image: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrImageNotFound
	}
	return nil
}
