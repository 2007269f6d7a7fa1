package postgres

import (
	"context"
	"fmt"

	"github.com/ecosrev/ecosrev-api/internal/core/domain"
	"github.com/ecosrev/ecosrev-api/internal/core/ports"
)

type historyRepository struct {
	db DBTX
}

// NewHistoryRepository returns a HistoryRepository over hist_pontos,
// hist_transacoes and beneficios_do_usuario.
func NewHistoryRepository(db DBTX) ports.HistoryRepository {
	return &historyRepository{db: db}
}

func (r *historyRepository) InsertPoints(ctx context.Context, e *domain.PointsEntry) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO hist_pontos (id, pontos, id_usuario, data) VALUES ($1, $2, $3, $4)`,
		e.ID, e.Points, e.UserID, e.Date)
	if err != nil {
		if isUniqueViolation(err, "hist_pontos_pkey") {
			return domain.ErrDuplicateCoupon
		}
		return fmt.Errorf("insert points history: %w", err)
	}
	return nil
}

func (r *historyRepository) InsertTransaction(ctx context.Context, t *domain.Transaction) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO hist_transacoes (descricao, pontos, id_usuario, id_beneficio, data) VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		t.Description, t.Points, t.UserID, t.BenefitID, t.Date).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	return id, nil
}

func (r *historyRepository) LinkBenefit(ctx context.Context, userID, benefitID int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO beneficios_do_usuario (id_usuario, id_beneficio) VALUES ($1, $2)`, userID, benefitID)
	if err != nil {
		return fmt.Errorf("link benefit to user: %w", err)
	}
	return nil
}

func (r *historyRepository) PointsHistory(ctx context.Context, userID *int64, dr domain.DateRange) ([]domain.HistoryItem, error) {
	q := `SELECT id, id_usuario, pontos, data FROM hist_pontos WHERE data BETWEEN $1 AND $2`
	args := []any{dr.From, dr.To}
	if userID != nil {
		q += ` AND id_usuario = $3`
		args = append(args, *userID)
	}

	return r.history(ctx, "points history", q, args, func(row rowScanner) (domain.HistoryItem, error) {
		it := domain.HistoryItem{Kind: domain.HistoryKindPoints}
		err := row.Scan(&it.ID, &it.UserID, &it.Points, &it.Date)
		return it, err
	})
}

func (r *historyRepository) TransactionHistory(ctx context.Context, userID *int64, dr domain.DateRange) ([]domain.HistoryItem, error) {
	q := `SELECT id, id_usuario, descricao, pontos, data FROM hist_transacoes WHERE data BETWEEN $1 AND $2`
	args := []any{dr.From, dr.To}
	if userID != nil {
		q += ` AND id_usuario = $3`
		args = append(args, *userID)
	}

	return r.history(ctx, "transaction history", q, args, func(row rowScanner) (domain.HistoryItem, error) {
		var (
			id   int64
			desc string
		)
		it := domain.HistoryItem{Kind: domain.HistoryKindTransaction}
		if err := row.Scan(&id, &it.UserID, &desc, &it.Points, &it.Date); err != nil {
			return it, err
		}
		it.ID = fmt.Sprint(id)
		it.Description = &desc
		return it, nil
	})
}

func (r *historyRepository) history(
	ctx context.Context,
	op, query string,
	args []any,
	scan func(rowScanner) (domain.HistoryItem, error),
) ([]domain.HistoryItem, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	out := make([]domain.HistoryItem, 0)
	for rows.Next() {
		it, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", op, err)
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}
