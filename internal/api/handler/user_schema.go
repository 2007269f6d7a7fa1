package handler

import (
	"strings"

	"github.com/ecosrev/ecosrev-api/internal/core/domain"
)

type createUserRequest struct {
	Name       string  `json:"nome"  validate:"required,alphaspace,min=3,max=100,notnumeric"`
	CPF        *string `json:"cpf"`
	Phone      *string `json:"celular"`
	Email      string  `json:"email" validate:"required,lowercase,email"`
	Password   string  `json:"senha" validate:"required,min=6,strongpassword"`
	Street     *string `json:"logradouro"`
	Number     *string `json:"numero"`
	Complement *string `json:"complemento"`
	District   *string `json:"bairro"`
	City       *string `json:"cidade"`
	State      *string `json:"estado"`
	ZipCode    *string `json:"cep"`
	Active     *bool   `json:"ativo"`
	Role       string  `json:"tipo"  validate:"omitempty,oneof=Admin Cliente"`
	Points     *int    `json:"pontos"`
}

func (r *createUserRequest) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.Password = strings.TrimSpace(r.Password)
}

func (r *createUserRequest) messages() messageTable {
	return messageTable{
		"nome.required":        "É obrigatório informar o nome",
		"nome.alphaspace":      "Informe apenas texto",
		"nome.min":             "Informe no mínimo 3 caracteres",
		"nome.max":             "Informe no máximo 100 caracteres",
		"nome.notnumeric":      "O nome não pode conter apenas números",
		"email.required":       "É obrigatório informar o email",
		"email.lowercase":      "Não são permitidas maiúsculas",
		"email.email":          "Informe um email válido",
		"senha.required":       "A senha é obrigatória",
		"senha.min":            "A senha deve ter no mínimo 6 carac.",
		"senha.strongpassword": "A senha não é segura. Informe no mínimo 1 caractere maiúsculo, 1 minúsculo, 1 número e 1 caractere especial",
		"ativo.type":           "O valor deve ser um booleano",
		"tipo.oneof":           "O tipo deve ser Admin ou Cliente",
		"tipo.type":            "O tipo deve ser Admin ou Cliente",
	}
}

func (r *createUserRequest) toDomain() *domain.User {
	u := &domain.User{
		Name:       r.Name,
		CPF:        r.CPF,
		Phone:      r.Phone,
		Email:      r.Email,
		Street:     r.Street,
		Number:     r.Number,
		Complement: r.Complement,
		District:   r.District,
		City:       r.City,
		State:      r.State,
		ZipCode:    r.ZipCode,
		Active:     true,
		Role:       r.Role,
		Points:     domain.DefaultSignupPoints,
	}
	if r.Active != nil {
		u.Active = *r.Active
	}
	if r.Points != nil {
		u.Points = *r.Points
	}
	return u
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"senha" validate:"required"`
}

func (r *loginRequest) normalize() {
	r.Email = strings.TrimSpace(r.Email)
	r.Password = strings.TrimSpace(r.Password)
}

func (r *loginRequest) messages() messageTable {
	return messageTable{
		"email.required": "O email é obrigatório",
		"email.email":    "Informe um email válido para o login",
		"senha.required": "A senha é obrigatória",
	}
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	RedirectURL string `json:"redirect_url"`
}

type pointsRequest struct {
	ID     int64 `json:"_id"`
	Points *int  `json:"pontos" validate:"required,min=0"`
}

func (r *pointsRequest) messages() messageTable {
	return messageTable{
		"pontos.required": "Os pontos não podem ser negativos",
		"pontos.type":     "Os pontos não podem ser negativos",
		"pontos.min":      "Os pontos não podem ser negativos",
	}
}

type pointsResponse struct {
	Points int `json:"pontos"`
}

type changePasswordRequest struct {
	Current string `json:"senhaAtual" validate:"required"`
	Next    string `json:"novaSenha"  validate:"required,min=6,strongpassword"`
}

func (r *changePasswordRequest) messages() messageTable {
	return messageTable{
		"senhaAtual.required":      "A senha atual é obrigatória",
		"novaSenha.required":       "A nova senha é obrigatória",
		"novaSenha.min":            "A senha deve ter no mínimo 6 caracteres",
		"novaSenha.strongpassword": "A senha deve conter pelo menos uma letra maiúscula, uma minúscula, um número e um símbolo",
	}
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (r *forgotPasswordRequest) normalize() {
	r.Email = strings.TrimSpace(r.Email)
}

func (r *forgotPasswordRequest) messages() messageTable {
	return messageTable{
		"email.required": "É obrigatório informar o email",
		"email.email":    "Informe um email válido",
	}
}

type resetPasswordRequest struct {
	Next string `json:"novaSenha" validate:"required,min=6,strongpassword"`
}

func (r *resetPasswordRequest) normalize() {
	r.Next = strings.TrimSpace(r.Next)
}

func (r *resetPasswordRequest) messages() messageTable {
	return messageTable{
		"novaSenha.required":       "A nova senha é obrigatória",
		"novaSenha.min":            "A nova senha deve ter no mínimo 6 caracteres",
		"novaSenha.strongpassword": "A senha não é segura. Informe no mínimo 1 caractere maiúsculo, 1 minúsculo, 1 número e 1 caractere especial",
	}
}

type recoveryResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type insertIDResponse struct {
	InsertID int64 `json:"insertId"`
}

type urlResponse struct {
	URL string `json:"url"`
}
