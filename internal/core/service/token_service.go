package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ecosrev/ecosrev-api/internal/core/domain"
)

const defaultTokenTTL = time.Hour

// TokenConfig is injected once at construction; Verify never reads the environment.
type TokenConfig struct {
	Secret string
	TTL    time.Duration
}

// Claims is the signed payload: {"usuario": {"id", "tipo"}, "iat", "exp"}.
type Claims struct {
	Usuario domain.Identity `json:"usuario"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256 access credentials.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenService(cfg TokenConfig) *TokenService {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &TokenService{secret: []byte(cfg.Secret), ttl: ttl, now: time.Now}
}

// WithClock replaces the time source. Used in tests.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	s.now = now
	return s
}

func (s *TokenService) Issue(identity domain.Identity) (string, error) {
	issuedAt := s.now()
	claims := Claims{
		Usuario: identity,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.ttl)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.secret)
}

// Verify returns the identity carried by credential, or one of
// domain.ErrMissingCredential, domain.ErrExpiredCredential, domain.ErrInvalidCredential.
func (s *TokenService) Verify(credential string) (domain.Identity, error) {
	if credential == "" {
		return domain.Identity{}, domain.ErrMissingCredential
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(credential, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Identity{}, domain.ErrExpiredCredential
		}
		return domain.Identity{}, domain.ErrInvalidCredential
	}

	if claims.Usuario.ID == 0 || claims.Usuario.Role == "" {
		return domain.Identity{}, domain.ErrInvalidCredential
	}
	return claims.Usuario, nil
}
