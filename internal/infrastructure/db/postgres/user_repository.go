package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ecosrev/ecosrev-api/internal/core/domain"
	"github.com/ecosrev/ecosrev-api/internal/core/ports"
)

const userColumns = `id, nome, cpf, celular, email, senha, logradouro, numero, complemento, bairro,
	cidade, estado, cep, ativo, tipo, pontos, reset_password_token, reset_password_expires, imagem_perfil_id`

type userRepository struct {
	db DBTX
}

// NewUserRepository returns a UserRepository backed by the usuarios table.
func NewUserRepository(db DBTX) ports.UserRepository {
	return &userRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		u       domain.User
		expires sql.NullTime
		imageID sql.NullInt64
	)
	err := row.Scan(&u.ID, &u.Name, &u.CPF, &u.Phone, &u.Email, &u.PasswordHash,
		&u.Street, &u.Number, &u.Complement, &u.District, &u.City, &u.State, &u.ZipCode,
		&u.Active, &u.Role, &u.Points, &u.ResetPasswordToken, &expires, &imageID)
	if err != nil {
		return nil, err
	}
	if expires.Valid {
		t := expires.Time
		u.ResetPasswordExpires = &t
	}
	if imageID.Valid {
		id := imageID.Int64
		u.ProfileImageID = &id
	}
	return &u, nil
}

func (r *userRepository) Create(ctx context.Context, u *domain.User) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := `INSERT INTO usuarios (nome, cpf, celular, email, senha, logradouro, numero, complemento,
		bairro, cidade, estado, cep, ativo, tipo, pontos)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		u.Name, u.CPF, u.Phone, u.Email, u.PasswordHash, u.Street, u.Number, u.Complement,
		u.District, u.City, u.State, u.ZipCode, u.Active, u.Role, u.Points).Scan(&id)
	if err != nil {
		if isUniqueViolation(err, "usuarios_email_key") {
			return 0, domain.ErrEmailTaken
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}
	return id, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM usuarios WHERE email = $1`, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return u, nil
}

func (r *userRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM usuarios WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return u, nil
}

func (r *userRepository) List(ctx context.Context) ([]domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM usuarios ORDER BY nome ASC`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (r *userRepository) exec(ctx context.Context, op, query string, args ...any) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return affectedOrNotFound(res, domain.ErrUserNotFound)
}

func (r *userRepository) SetPoints(ctx context.Context, id int64, points int) error {
	return r.exec(ctx, "set points", `UPDATE usuarios SET pontos = $1 WHERE id = $2`, points, id)
}

func (r *userRepository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	return r.exec(ctx, "update password", `UPDATE usuarios SET senha = $1 WHERE id = $2`, hash, id)
}

func (r *userRepository) SetTemporaryPassword(ctx context.Context, email, hash string, expires time.Time) error {
	return r.exec(ctx, "set temporary password",
		`UPDATE usuarios SET senha = $1, reset_password_token = TRUE, reset_password_expires = $2 WHERE email = $3`,
		hash, expires, email)
}

func (r *userRepository) ClearPasswordReset(ctx context.Context, id int64, hash string) error {
	return r.exec(ctx, "reset password",
		`UPDATE usuarios SET senha = $1, reset_password_token = FALSE, reset_password_expires = NULL WHERE id = $2`,
		hash, id)
}

func (r *userRepository) SetProfileImage(ctx context.Context, userID, imageID int64) error {
	return r.exec(ctx, "set profile image", `UPDATE usuarios SET imagem_perfil_id = $1 WHERE id = $2`, imageID, userID)
}

func (r *userRepository) Delete(ctx context.Context, id int64) error {
	return r.exec(ctx, "delete user", `DELETE FROM usuarios WHERE id = $1`, id)
}
