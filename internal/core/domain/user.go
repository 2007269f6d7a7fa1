package domain

import (
	"errors"
	"strings"
	"time"
	"unicode"
)

const (
	RoleAdmin   = "Admin"
	RoleCliente = "Cliente"

	// DefaultSignupPoints is the balance granted to every new account.
	DefaultSignupPoints = 200
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrEmailTaken      = errors.New("email already registered")
	ErrInvalidPassword = errors.New("invalid password")
)

// Identity is the claim embedded in an access credential.
type Identity struct {
	ID   int64  `json:"id"`
	Role string `json:"tipo"`
}

// IsAdmin reports whether the identity carries the Admin role.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// User models an account holder. PasswordHash never leaves the process.
type User struct {
	ID                   int64      `json:"id" bson:"_id"`
	Name                 string     `json:"nome" bson:"nome"`
	CPF                  *string    `json:"cpf" bson:"cpf"`
	Phone                *string    `json:"celular" bson:"celular"`
	Email                string     `json:"email" bson:"email"`
	PasswordHash         string     `json:"-" bson:"senha"`
	Street               *string    `json:"logradouro" bson:"logradouro"`
	Number               *string    `json:"numero" bson:"numero"`
	Complement           *string    `json:"complemento" bson:"complemento"`
	District             *string    `json:"bairro" bson:"bairro"`
	City                 *string    `json:"cidade" bson:"cidade"`
	State                *string    `json:"estado" bson:"estado"`
	ZipCode              *string    `json:"cep" bson:"cep"`
	Active               bool       `json:"ativo" bson:"ativo"`
	Role                 string     `json:"tipo" bson:"tipo"`
	Points               int        `json:"pontos" bson:"pontos"`
	ResetPasswordToken   bool       `json:"resetPasswordToken" bson:"resetPasswordToken"`
	ResetPasswordExpires *time.Time `json:"resetPasswordExpires,omitempty" bson:"resetPasswordExpires"`
	ProfileImageID       *int64     `json:"imagemPerfilId" bson:"imagemPerfilId"`
}

// Identity returns the claim issued for this user at login.
func (u *User) Identity() Identity {
	return Identity{ID: u.ID, Role: u.Role}
}

// NormalizeCPF strips every non-digit. An empty result means the CPF is absent.
func NormalizeCPF(value *string) *string {
	if value == nil {
		return nil
	}
	var b strings.Builder
	for _, r := range *value {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return nil
	}
	s := b.String()
	return &s
}
