package mongo

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/ecosrev/ecosrev-api/internal/core/domain"
)

func counterResponse(name string, seq int64) bson.D {
	return mtest.CreateSuccessResponse(bson.E{
		Key:   "value",
		Value: bson.D{{Key: "_id", Value: name}, {Key: "seq", Value: seq}},
	})
}

func duplicateKeyResponse() bson.D {
	return mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "E11000 duplicate key error"})
}

func TestUserRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("create assigns the next sequence id", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(counterResponse(collectionUsers, 7), mtest.CreateSuccessResponse())

		id, err := repo.Create(context.Background(), &domain.User{Name: "Maria", Email: "maria@ecosrev.com"})
		if err != nil {
			mt.Fatalf("Create error: %v", err)
		}
		if id != 7 {
			mt.Fatalf("expected id 7, got %d", id)
		}
	})

	mt.Run("create maps duplicate email", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(counterResponse(collectionUsers, 8), duplicateKeyResponse())

		_, err := repo.Create(context.Background(), &domain.User{Email: "maria@ecosrev.com"})
		if !errors.Is(err, domain.ErrEmailTaken) {
			mt.Fatalf("expected ErrEmailTaken, got %v", err)
		}
	})

	mt.Run("find by email decodes the document", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "ecosrev.usuarios", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: int64(7)},
			{Key: "nome", Value: "Maria"},
			{Key: "email", Value: "maria@ecosrev.com"},
			{Key: "senha", Value: "$2a$10$hash"},
			{Key: "tipo", Value: domain.RoleAdmin},
			{Key: "pontos", Value: 200},
			{Key: "ativo", Value: true},
		}))

		u, err := repo.FindByEmail(context.Background(), "maria@ecosrev.com")
		if err != nil {
			mt.Fatalf("FindByEmail error: %v", err)
		}
		if u.ID != 7 || u.PasswordHash != "$2a$10$hash" || !u.Identity().IsAdmin() {
			mt.Fatalf("unexpected user: %+v", u)
		}
	})

	mt.Run("find by id reports not found", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "ecosrev.usuarios", mtest.FirstBatch))

		if _, err := repo.FindByID(context.Background(), 99); !errors.Is(err, domain.ErrUserNotFound) {
			mt.Fatalf("expected ErrUserNotFound, got %v", err)
		}
	})

	mt.Run("set points on a missing user", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))

		if err := repo.SetPoints(context.Background(), 99, 10); !errors.Is(err, domain.ErrUserNotFound) {
			mt.Fatalf("expected ErrUserNotFound, got %v", err)
		}
	})
}

func TestBenefitRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("list decodes every document", func(mt *mtest.T) {
		repo := NewBenefitRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "ecosrev.beneficio", mtest.FirstBatch,
			bson.D{{Key: "_id", Value: int64(1)}, {Key: "nome", Value: "Cinema"}, {Key: "pontos", Value: 300}},
			bson.D{{Key: "_id", Value: int64(2)}, {Key: "nome", Value: "Teatro"}, {Key: "pontos", Value: 500}},
		))

		got, err := repo.List(context.Background(), domain.ListOptions{Limit: 10, Order: "id"})
		if err != nil {
			mt.Fatalf("List error: %v", err)
		}
		if len(got) != 2 || got[1].Name != "Teatro" {
			mt.Fatalf("unexpected benefits: %+v", got)
		}
	})

	mt.Run("list rejects unknown order", func(mt *mtest.T) {
		repo := NewBenefitRepository(mt.DB)

		_, err := repo.List(context.Background(), domain.ListOptions{Limit: 10, Order: "$where"})
		if !errors.Is(err, domain.ErrInvalidListOptions) {
			mt.Fatalf("expected ErrInvalidListOptions, got %v", err)
		}
	})

	mt.Run("delete then delete", func(mt *mtest.T) {
		repo := NewBenefitRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}),
		)

		if err := repo.Delete(context.Background(), 1); err != nil {
			mt.Fatalf("first Delete error: %v", err)
		}
		if err := repo.Delete(context.Background(), 1); !errors.Is(err, domain.ErrBenefitNotFound) {
			mt.Fatalf("expected ErrBenefitNotFound, got %v", err)
		}
	})
}

func TestHistoryRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("reused coupon is a duplicate", func(mt *mtest.T) {
		repo := NewHistoryRepository(mt.DB)
		mt.AddMockResponses(duplicateKeyResponse())

		err := repo.InsertPoints(context.Background(), &domain.PointsEntry{ID: "cupom123", UserID: 1, Points: 100})
		if !errors.Is(err, domain.ErrDuplicateCoupon) {
			mt.Fatalf("expected ErrDuplicateCoupon, got %v", err)
		}
	})

	mt.Run("transaction history becomes history items", func(mt *mtest.T) {
		repo := NewHistoryRepository(mt.DB)
		at := time.Date(2024, 2, 10, 12, 0, 0, 0, time.UTC)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "ecosrev.hist_transacoes", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: int64(3)},
			{Key: "idUsuario", Value: int64(1)},
			{Key: "idBeneficio", Value: int64(2)},
			{Key: "descricao", Value: "Cinema"},
			{Key: "pontos", Value: 300},
			{Key: "data", Value: at},
		}))

		dr, _ := domain.ParseDateRange("", "")
		items, err := repo.TransactionHistory(context.Background(), nil, dr)
		if err != nil {
			mt.Fatalf("TransactionHistory error: %v", err)
		}
		if len(items) != 1 {
			mt.Fatalf("expected 1 item, got %d", len(items))
		}
		it := items[0]
		if it.ID != "3" || it.Kind != domain.HistoryKindTransaction || it.Description == nil || *it.Description != "Cinema" {
			mt.Fatalf("unexpected item: %+v", it)
		}
		if !it.Date.Equal(at) {
			mt.Fatalf("expected date %v, got %v", at, it.Date)
		}
	})
}

func TestImageRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("update of a vanished row", func(mt *mtest.T) {
		repo := NewImageRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))

		if err := repo.Update(context.Background(), &domain.Image{ID: 1}); !errors.Is(err, domain.ErrImageNotFound) {
			mt.Fatalf("expected ErrImageNotFound, got %v", err)
		}
	})

	mt.Run("find by user", func(mt *mtest.T) {
		repo := NewImageRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "ecosrev.img_perfil_usuario", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: int64(4)},
			{Key: "public_id", Value: "ecosrev/imgPerfilUsuario/obj1"},
			{Key: "idUsuario", Value: int64(5)},
		}))

		img, err := repo.FindByUser(context.Background(), 5)
		if err != nil {
			mt.Fatalf("FindByUser error: %v", err)
		}
		if img.ID != 4 || img.PublicID != "ecosrev/imgPerfilUsuario/obj1" {
			mt.Fatalf("unexpected image: %+v", img)
		}
	})
}
