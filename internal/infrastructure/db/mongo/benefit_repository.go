package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ecosrev/ecosrev-api/internal/core/domain"
	"github.com/ecosrev/ecosrev-api/internal/core/ports"
)

type benefitRepository struct {
	col *mongo.Collection
	seq *sequence
}

// NewBenefitRepository returns a BenefitRepository over the beneficio collection.
func NewBenefitRepository(db *mongo.Database) ports.BenefitRepository {
	return &benefitRepository{col: db.Collection(collectionBenefits), seq: newSequence(db)}
}

// sortField maps a listing column to its document field.
func sortField(order string) string {
	if order == "id" {
		return "_id"
	}
	return order
}

func (r *benefitRepository) find(ctx context.Context, filter bson.M, opts domain.ListOptions) ([]domain.Benefit, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	fo := options.Find().
		SetSort(bson.D{{Key: sortField(opts.Order), Value: 1}}).
		SetSkip(int64(opts.Skip)).
		SetLimit(int64(opts.Limit))

	cur, err := r.col.Find(ctx, filter, fo)
	if err != nil {
		return nil, fmt.Errorf("list benefits: %w", err)
	}
	out := make([]domain.Benefit, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode benefits: %w", err)
	}
	return out, nil
}

func (r *benefitRepository) List(ctx context.Context, opts domain.ListOptions) ([]domain.Benefit, error) {
	return r.find(ctx, bson.M{}, opts)
}

func (r *benefitRepository) ListInPointsRange(ctx context.Context, pr domain.PointsRange, opts domain.ListOptions) ([]domain.Benefit, error) {
	return r.find(ctx, bson.M{"pontos": bson.M{"$gt": pr.Min, "$lt": pr.Max}}, opts)
}

func (r *benefitRepository) FindByID(ctx context.Context, id int64) (*domain.Benefit, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var b domain.Benefit
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&b); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrBenefitNotFound
		}
		return nil, fmt.Errorf("find benefit: %w", err)
	}
	return &b, nil
}

func (r *benefitRepository) SearchByName(ctx context.Context, filter string) ([]domain.Benefit, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	q := bson.M{"nome": primitive.Regex{Pattern: regexp.QuoteMeta(filter), Options: "i"}}
	cur, err := r.col.Find(ctx, q, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("search benefits: %w", err)
	}
	out := make([]domain.Benefit, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode benefits: %w", err)
	}
	return out, nil
}

func (r *benefitRepository) Create(ctx context.Context, b *domain.Benefit) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := r.seq.next(ctx, collectionBenefits)
	if err != nil {
		return 0, err
	}
	doc := *b
	doc.ID = id
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return 0, fmt.Errorf("insert benefit: %w", err)
	}
	return id, nil
}

func (r *benefitRepository) Update(ctx context.Context, b *domain.Benefit) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": b.ID}, bson.M{"$set": bson.M{
		"nome":       b.Name,
		"endereco":   b.Address,
		"pontos":     b.Points,
		"data":       b.Date,
		"quantidade": b.Quantity,
	}})
	if err != nil {
		return 0, fmt.Errorf("update benefit: %w", err)
	}
	return res.MatchedCount, nil
}

func (r *benefitRepository) SetQuantity(ctx context.Context, id int64, quantity int) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"quantidade": quantity}})
	if err != nil {
		return 0, fmt.Errorf("set benefit quantity: %w", err)
	}
	return res.MatchedCount, nil
}

func (r *benefitRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete benefit: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrBenefitNotFound
	}
	return nil
}
