package mongo

import (
	"context"
	"fmt"
	"strconv"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ecosrev/ecosrev-api/internal/core/domain"
	"github.com/ecosrev/ecosrev-api/internal/core/ports"
)

type historyRepository struct {
	points       *mongo.Collection
	transactions *mongo.Collection
	links        *mongo.Collection
	seq          *sequence
}

// NewHistoryRepository returns a HistoryRepository. The coupon code is the
// _id of a points entry, so a reused coupon fails on the primary key.
func NewHistoryRepository(db *mongo.Database) ports.HistoryRepository {
	return &historyRepository{
		points:       db.Collection(collectionPoints),
		transactions: db.Collection(collectionTransactions),
		links:        db.Collection(collectionUserBenefits),
		seq:          newSequence(db),
	}
}

func (r *historyRepository) InsertPoints(ctx context.Context, e *domain.PointsEntry) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.points.InsertOne(ctx, e); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateCoupon
		}
		return fmt.Errorf("insert points history: %w", err)
	}
	return nil
}

func (r *historyRepository) InsertTransaction(ctx context.Context, t *domain.Transaction) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := r.seq.next(ctx, collectionTransactions)
	if err != nil {
		return 0, err
	}
	doc := *t
	doc.ID = id
	if _, err := r.transactions.InsertOne(ctx, doc); err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	return id, nil
}

func (r *historyRepository) LinkBenefit(ctx context.Context, userID, benefitID int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.links.InsertOne(ctx, bson.M{"idUsuario": userID, "idBeneficio": benefitID})
	if err != nil {
		return fmt.Errorf("link benefit to user: %w", err)
	}
	return nil
}

func historyFilter(userID *int64, dr domain.DateRange) bson.M {
	f := bson.M{"data": bson.M{"$gte": dr.From, "$lte": dr.To}}
	if userID != nil {
		f["idUsuario"] = *userID
	}
	return f
}

func (r *historyRepository) PointsHistory(ctx context.Context, userID *int64, dr domain.DateRange) ([]domain.HistoryItem, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.points.Find(ctx, historyFilter(userID, dr))
	if err != nil {
		return nil, fmt.Errorf("points history: %w", err)
	}
	var entries []domain.PointsEntry
	if err := cur.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("decode points history: %w", err)
	}

	out := make([]domain.HistoryItem, 0, len(entries))
	for _, e := range entries {
		out = append(out, domain.HistoryItem{
			ID:     e.ID,
			UserID: e.UserID,
			Points: e.Points,
			Date:   e.Date,
			Kind:   domain.HistoryKindPoints,
		})
	}
	return out, nil
}

func (r *historyRepository) TransactionHistory(ctx context.Context, userID *int64, dr domain.DateRange) ([]domain.HistoryItem, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.transactions.Find(ctx, historyFilter(userID, dr))
	if err != nil {
		return nil, fmt.Errorf("transaction history: %w", err)
	}
	var txs []domain.Transaction
	if err := cur.All(ctx, &txs); err != nil {
		return nil, fmt.Errorf("decode transaction history: %w", err)
	}

	out := make([]domain.HistoryItem, 0, len(txs))
	for _, t := range txs {
		desc := t.Description
		out = append(out, domain.HistoryItem{
			ID:          strconv.FormatInt(t.ID, 10),
			UserID:      t.UserID,
			Description: &desc,
			Points:      t.Points,
			Date:        t.Date,
			Kind:        domain.HistoryKindTransaction,
		})
	}
	return out, nil
}
