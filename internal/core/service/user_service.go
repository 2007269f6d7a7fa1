package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/ecosrev/ecosrev-api/internal/core/domain"
	"github.com/ecosrev/ecosrev-api/internal/core/ports"
)

const (
	bcryptCost           = 10
	tempPasswordLength   = 8
	tempPasswordAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	tempPasswordTTL      = time.Hour

	redirectAdmin   = "menu.html"
	redirectCliente = "menuUser.html"
)

type userService struct {
	users    ports.UserRepository
	images   ports.ImageRepository
	tokens   ports.CredentialVerifier
	mailer   ports.Mailer
	log      zerolog.Logger
	now      func() time.Time
	tempPass func() (string, error)
	hash     func(password []byte, cost int) ([]byte, error)
}

// NewUserService returns a UserService implementation.
func NewUserService(
	users ports.UserRepository,
	images ports.ImageRepository,
	tokens ports.CredentialVerifier,
	mailer ports.Mailer,
	log zerolog.Logger,
) ports.UserService {
	return &userService{
		users:    users,
		images:   images,
		tokens:   tokens,
		mailer:   mailer,
		log:      log,
		now:      time.Now,
		tempPass: randomTempPassword,
		hash:     bcrypt.GenerateFromPassword,
	}
}

// Register hashes the password, fills in defaults and stores the account.
func (s *userService) Register(ctx context.Context, u *domain.User, password string) (int64, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return 0, fmt.Errorf("register: hash password: %w", err)
	}
	u.PasswordHash = string(hash)
	u.CPF = domain.NormalizeCPF(u.CPF)
	if u.Role == "" {
		u.Role = domain.RoleCliente
	}

	id, err := s.users.Create(ctx, u)
	if err != nil {
		return 0, fmt.Errorf("register: %w", err)
	}
	s.log.Info().Str("email", u.Email).Str("rota", "/usuario").Msg("user registered")
	return id, nil
}

func (s *userService) EmailTaken(ctx context.Context, email string) (bool, error) {
	_, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, domain.ErrUserNotFound):
		return false, nil
	default:
		return false, err
	}
}

// Login checks the password and issues a credential for the account's identity.
func (s *userService) Login(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.log.Warn().Str("email", email).Str("rota", "/usuario/login").Msg("login with unknown email")
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		s.log.Warn().Str("email", email).Str("rota", "/usuario/login").Msg("login with wrong password")
		return nil, domain.ErrInvalidPassword
	}

	token, err := s.tokens.Issue(u.Identity())
	if err != nil {
		s.log.Error().Err(err).Str("rota", "/usuario/login").Msg("failed to sign access token")
		return nil, fmt.Errorf("login: sign token: %w", err)
	}

	redirect := redirectCliente
	if u.Role == domain.RoleAdmin {
		redirect = redirectAdmin
	}
	s.log.Info().Str("email", email).Str("tipo", u.Role).Str("rota", "/usuario/login").Msg("login succeeded")
	return &ports.LoginResult{AccessToken: token, RedirectURL: redirect}, nil
}

func (s *userService) List(ctx context.Context) ([]domain.User, error) {
	return s.users.List(ctx)
}

func (s *userService) Get(ctx context.Context, id int64) (*domain.User, error) {
	return s.users.FindByID(ctx, id)
}

func (s *userService) SetPoints(ctx context.Context, id int64, points int) error {
	if err := s.users.SetPoints(ctx, id, points); err != nil {
		return err
	}
	s.log.Info().Int64("id", id).Int("pontos", points).Str("rota", "/usuario/pontos").Msg("points updated")
	return nil
}

// ChangePassword replaces the password after checking the current one.
func (s *userService) ChangePassword(ctx context.Context, id int64, current, next string) error {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(current)) != nil {
		return domain.ErrInvalidPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcryptCost)
	if err != nil {
		return fmt.Errorf("change password: hash: %w", err)
	}
	return s.users.UpdatePassword(ctx, id, string(hash))
}

// ForgotPassword sets a temporary password valid for one hour and mails it.
// Unknown addresses and delivery failures are logged, not reported. An unknown
// address still pays for generating and hashing a password, so response time
// does not reveal whether the account exists.
func (s *userService) ForgotPassword(ctx context.Context, email string) error {
	log := s.log.With().Str("email", email).Str("rota", "/usuario/forgot-password").Logger()

	_, lookupErr := s.users.FindByEmail(ctx, email)
	if lookupErr != nil && !errors.Is(lookupErr, domain.ErrUserNotFound) {
		return lookupErr
	}

	temp, err := s.tempPass()
	if err != nil {
		return fmt.Errorf("forgot password: generate: %w", err)
	}
	hash, err := s.hash([]byte(temp), bcryptCost)
	if err != nil {
		return fmt.Errorf("forgot password: hash: %w", err)
	}
	if lookupErr != nil {
		log.Warn().Msg("password recovery for unknown email")
		return nil
	}

	if err := s.users.SetTemporaryPassword(ctx, email, string(hash), s.now().Add(tempPasswordTTL)); err != nil {
		return err
	}

	if err := s.mailer.SendPasswordReset(ctx, email, temp); err != nil {
		log.Error().Err(err).Msg("failed to send password recovery email")
		return nil
	}
	log.Info().Msg("temporary password sent")
	return nil
}

func (s *userService) ResetPassword(ctx context.Context, id int64, next string) error {
	if _, err := s.users.FindByID(ctx, id); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcryptCost)
	if err != nil {
		return fmt.Errorf("reset password: hash: %w", err)
	}
	return s.users.ClearPasswordReset(ctx, id, string(hash))
}

func (s *userService) Delete(ctx context.Context, id int64) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Int64("id", id).Str("rota", "/usuario/:id").Msg("user deleted")
	return nil
}

// AvatarURL returns the URL of the user's current profile picture.
func (s *userService) AvatarURL(ctx context.Context, userID int64) (string, error) {
	img, err := s.images.FindByUser(ctx, userID)
	if err != nil {
		return "", err
	}
	return img.URL, nil
}

func randomTempPassword() (string, error) {
	buf := make([]byte, tempPasswordLength)
	max := big.NewInt(int64(len(tempPasswordAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = tempPasswordAlphabet[n.Int64()]
	}
	return string(buf), nil
}
