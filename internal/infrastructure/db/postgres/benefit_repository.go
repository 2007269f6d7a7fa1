package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/ecosrev/ecosrev-api/internal/core/domain"
	"github.com/ecosrev/ecosrev-api/internal/core/ports"
)

const (
	benefitColumns = `id, nome, endereco, pontos, data, quantidade`
	dateLayout     = "2006-01-02"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type benefitRepository struct {
	db DBTX
}

// NewBenefitRepository returns a BenefitRepository backed by the beneficio table.
func NewBenefitRepository(db DBTX) ports.BenefitRepository {
	return &benefitRepository{db: db}
}

func scanBenefit(row rowScanner) (*domain.Benefit, error) {
	var (
		b    domain.Benefit
		date sql.NullTime
	)
	if err := row.Scan(&b.ID, &b.Name, &b.Address, &b.Points, &date, &b.Quantity); err != nil {
		return nil, err
	}
	if date.Valid {
		b.Date = date.Time.Format(dateLayout)
	}
	return &b, nil
}

// nullableDate maps an empty date to NULL.
func nullableDate(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (r *benefitRepository) query(ctx context.Context, op, query string, args ...any) ([]domain.Benefit, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	out := make([]domain.Benefit, 0)
	for rows.Next() {
		b, err := scanBenefit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan benefit: %w", err)
		}
		out = append(out, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// List interpolates the order column only after ListOptions.Validate accepted it.
func (r *benefitRepository) List(ctx context.Context, opts domain.ListOptions) ([]domain.Benefit, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	q := fmt.Sprintf(`SELECT %s FROM beneficio ORDER BY %s ASC LIMIT $1 OFFSET $2`, benefitColumns, opts.Order)
	return r.query(ctx, "list benefits", q, opts.Limit, opts.Skip)
}

func (r *benefitRepository) ListInPointsRange(ctx context.Context, pr domain.PointsRange, opts domain.ListOptions) ([]domain.Benefit, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	q := fmt.Sprintf(`SELECT %s FROM beneficio WHERE pontos > $1 AND pontos < $2 ORDER BY %s ASC LIMIT $3 OFFSET $4`,
		benefitColumns, opts.Order)
	return r.query(ctx, "list benefits in range", q, pr.Min, pr.Max, opts.Limit, opts.Skip)
}

func (r *benefitRepository) FindByID(ctx context.Context, id int64) (*domain.Benefit, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	b, err := scanBenefit(r.db.QueryRowContext(ctx, `SELECT `+benefitColumns+` FROM beneficio WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrBenefitNotFound
		}
		return nil, fmt.Errorf("find benefit: %w", err)
	}
	return b, nil
}

func (r *benefitRepository) SearchByName(ctx context.Context, filter string) ([]domain.Benefit, error) {
	return r.query(ctx, "search benefits",
		`SELECT `+benefitColumns+` FROM beneficio WHERE nome ILIKE $1 ORDER BY id ASC`,
		"%"+likeEscaper.Replace(filter)+"%")
}

func (r *benefitRepository) Create(ctx context.Context, b *domain.Benefit) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO beneficio (nome, endereco, pontos, data, quantidade) VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		b.Name, b.Address, b.Points, nullableDate(b.Date), b.Quantity).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert benefit: %w", err)
	}
	return id, nil
}

func (r *benefitRepository) Update(ctx context.Context, b *domain.Benefit) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx,
		`UPDATE beneficio SET nome = $1, endereco = $2, pontos = $3, data = $4, quantidade = $5 WHERE id = $6`,
		b.Name, b.Address, b.Points, nullableDate(b.Date), b.Quantity, b.ID)
	if err != nil {
		return 0, fmt.Errorf("update benefit: %w", err)
	}
	return res.RowsAffected()
}

func (r *benefitRepository) SetQuantity(ctx context.Context, id int64, quantity int) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `UPDATE beneficio SET quantidade = $1 WHERE id = $2`, quantity, id)
	if err != nil {
		return 0, fmt.Errorf("set benefit quantity: %w", err)
	}
	return res.RowsAffected()
}

func (r *benefitRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM beneficio WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete benefit: %w", err)
	}
	return affectedOrNotFound(res, domain.ErrBenefitNotFound)
}
