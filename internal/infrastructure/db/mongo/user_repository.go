package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ecosrev/ecosrev-api/internal/core/domain"
	"github.com/ecosrev/ecosrev-api/internal/core/ports"
)

type userRepository struct {
	col *mongo.Collection
	seq *sequence
}

// NewUserRepository returns a UserRepository over the usuarios collection.
func NewUserRepository(db *mongo.Database) ports.UserRepository {
	return &userRepository{col: db.Collection(collectionUsers), seq: newSequence(db)}
}

func (r *userRepository) Create(ctx context.Context, u *domain.User) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := r.seq.next(ctx, collectionUsers)
	if err != nil {
		return 0, err
	}
	doc := *u
	doc.ID = id

	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return 0, domain.ErrEmailTaken
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}
	return id, nil
}

func (r *userRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var u domain.User
	if err := r.col.FindOne(ctx, filter).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *userRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *userRepository) List(ctx context.Context) ([]domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "nome", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	users := make([]domain.User, 0)
	if err := cur.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return users, nil
}

func (r *userRepository) update(ctx context.Context, op string, filter, set bson.M) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return matchedOrNotFound(res, domain.ErrUserNotFound)
}

func (r *userRepository) SetPoints(ctx context.Context, id int64, points int) error {
	return r.update(ctx, "set points", bson.M{"_id": id}, bson.M{"pontos": points})
}

func (r *userRepository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	return r.update(ctx, "update password", bson.M{"_id": id}, bson.M{"senha": hash})
}

func (r *userRepository) SetTemporaryPassword(ctx context.Context, email, hash string, expires time.Time) error {
	return r.update(ctx, "set temporary password", bson.M{"email": email}, bson.M{
		"senha":                hash,
		"resetPasswordToken":   true,
		"resetPasswordExpires": expires,
	})
}

func (r *userRepository) ClearPasswordReset(ctx context.Context, id int64, hash string) error {
	return r.update(ctx, "reset password", bson.M{"_id": id}, bson.M{
		"senha":                hash,
		"resetPasswordToken":   false,
		"resetPasswordExpires": nil,
	})
}

func (r *userRepository) SetProfileImage(ctx context.Context, userID, imageID int64) error {
	return r.update(ctx, "set profile image", bson.M{"_id": userID}, bson.M{"imagemPerfilId": imageID})
}

func (r *userRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
