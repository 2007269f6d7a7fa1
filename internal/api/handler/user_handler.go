package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ecosrev/ecosrev-api/internal/api/metrics"
	"github.com/ecosrev/ecosrev-api/internal/core/domain"
	"github.com/ecosrev/ecosrev-api/internal/core/ports"
)

const (
	msgUserNotFound   = "Usuário não encontrado"
	msgPointsUpdated  = "Pontos atualizados com sucesso"
	msgRecoverySent   = "Um email com instruções de recuperação de senha foi enviado para o seu endereço de email."
	msgRecoveryFailed = "Ocorreu um erro ao processar sua solicitação. Por favor, tente novamente mais tarde."
)

type UserHandler struct {
	service ports.UserService
}

func NewUserHandler(service ports.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// Create registers an account.
//
// @Summary      Register a user
// @Tags         usuario
// @Accept       json
// @Produce      json
// @Param        body  body      createUserRequest  true  "Account"
// @Success      201   {object}  insertIDResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorsBody
// @Router       /api/usuario [post]
func (h *UserHandler) Create(c echo.Context) error {
	const route = "usuario.create"
	var req createUserRequest
	err := bindAndValidate(c, &req)
	if err != nil && !errors.As(err, new(ValidationErrors)) {
		return respondBindError(c, route, err)
	}

	var errs ValidationErrors
	errors.As(err, &errs)
	if !hasParam(errs, "email") && req.Email != "" {
		taken, lookupErr := h.service.EmailTaken(c.Request().Context(), req.Email)
		if lookupErr != nil {
			return c.JSON(http.StatusInternalServerError, errorResponse{Error: lookupErr.Error()})
		}
		if taken {
			errs = append(errs, FieldError{
				Msg:      "o email " + req.Email + " já existe!",
				Param:    "email",
				Value:    req.Email,
				Location: locationBody,
			})
		}
	}
	if len(errs) > 0 {
		return respondBindError(c, route, errs)
	}

	u := req.toDomain()
	if u.Role == domain.RoleAdmin && !callerIsAdmin(c) {
		u.Role = domain.RoleCliente
	}
	id, err := h.service.Register(c.Request().Context(), u, req.Password)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusCreated, insertIDResponse{InsertID: id})
}

// callerIsAdmin reports whether an Admin credential came with the request.
// Only Admins may create other Admins.
func callerIsAdmin(c echo.Context) bool {
	id, err := callerIdentity(c)
	return err == nil && id.Role == domain.RoleAdmin
}

func hasParam(errs ValidationErrors, param string) bool {
	for _, fe := range errs {
		if fe.Param == param {
			return true
		}
	}
	return false
}

// List returns every account, without password hashes.
//
// @Summary      List users
// @Tags         usuario
// @Produce      json
// @Security     AccessToken
// @Success      200  {array}   domain.User
// @Failure      500  {object}  listFailureResponse
// @Router       /api/usuario [get]
func (h *UserHandler) List(c echo.Context) error {
	users, err := h.service.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, listFailureResponse{
			Message: "Erro ao obter a listagem dos usuários",
			Error:   err.Error(),
		})
	}
	return c.JSON(http.StatusOK, users)
}

// Get returns one account.
//
// @Summary      Get a user by id
// @Tags         usuario
// @Produce      json
// @Security     AccessToken
// @Param        id   path      int  true  "User id"
// @Success      200  {object}  domain.User
// @Failure      404  {object}  msgResponse
// @Failure      500  {object}  map[string]any
// @Router       /api/usuario/id/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusNotFound, msgResponse{Msg: msgUserNotFound})
	}
	u, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, msgResponse{Msg: msgUserNotFound})
		}
		return c.JSON(http.StatusInternalServerError, legacyError(err.Error(), "Erro ao obter o usuário pelo ID", "/id/:id"))
	}
	return c.JSON(http.StatusOK, u)
}

// Points returns the caller's balance.
//
// @Summary      Caller's points
// @Tags         usuario
// @Produce      json
// @Security     AccessToken
// @Success      200  {object}  pointsResponse
// @Failure      500  {object}  listFailureResponse
// @Router       /api/usuario/pontos [get]
func (h *UserHandler) Points(c echo.Context) error {
	caller, err := callerIdentity(c)
	if err != nil {
		return err
	}
	u, err := h.service.Get(c.Request().Context(), caller.ID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, msgResponse{Msg: msgUserNotFound})
		}
		return c.JSON(http.StatusInternalServerError, listFailureResponse{
			Message: "Erro ao obter a listagem dos pontos do usuário",
			Error:   err.Error(),
		})
	}
	return c.JSON(http.StatusOK, pointsResponse{Points: u.Points})
}

// Login exchanges email and password for an access credential.
//
// @Summary      Login
// @Tags         usuario
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials"
// @Success      200   {object}  loginResponse
// @Failure      403   {object}  errorsBody
// @Failure      404   {object}  map[string]any
// @Failure      500   {object}  map[string]string
// @Router       /api/usuario/login [post]
func (h *UserHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondBindError(c, "usuario.login", err)
	}

	res, err := h.service.Login(c.Request().Context(), req.Email, req.Password)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, loginResponse{AccessToken: res.AccessToken, RedirectURL: res.RedirectURL})
	case errors.Is(err, domain.ErrUserNotFound):
		return c.JSON(http.StatusNotFound, legacyError(req.Email, "O email "+req.Email+" não está cadastrado!", "email"))
	case errors.Is(err, domain.ErrInvalidPassword):
		return c.JSON(http.StatusForbidden, legacyError("senha", "A senha informada está incorreta ", "senha"))
	default:
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Erro ao realizar login", "details": err.Error()})
	}
}

// UpdateOwnPoints sets the caller's balance.
//
// @Summary      Set caller's points
// @Tags         usuario
// @Accept       json
// @Produce      json
// @Security     AccessToken
// @Param        body  body      pointsRequest  true  "New balance"
// @Success      202   {object}  msgResponse
// @Failure      400   {object}  errorsBody
// @Router       /api/usuario/pontos [put]
func (h *UserHandler) UpdateOwnPoints(c echo.Context) error {
	caller, err := callerIdentity(c)
	if err != nil {
		return err
	}
	var req pointsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondBindError(c, "usuario.pontos", err)
	}
	return h.setPoints(c, caller.ID, *req.Points)
}

// UpdatePoints sets the balance of the account named by _id.
//
// @Summary      Set a user's points
// @Tags         usuario
// @Accept       json
// @Produce      json
// @Security     AccessToken
// @Param        body  body      pointsRequest  true  "Account id and new balance"
// @Success      202   {object}  msgResponse
// @Failure      400   {object}  errorsBody
// @Router       /api/usuario/pontosPut [put]
func (h *UserHandler) UpdatePoints(c echo.Context) error {
	var req pointsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondBindError(c, "usuario.pontosPut", err)
	}
	return h.setPoints(c, req.ID, *req.Points)
}

func (h *UserHandler) setPoints(c echo.Context, id int64, points int) error {
	if err := h.service.SetPoints(c.Request().Context(), id, points); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, msgResponse{Msg: msgUserNotFound})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"errors": err.Error()})
	}
	return c.JSON(http.StatusAccepted, msgResponse{Msg: msgPointsUpdated})
}

// Delete removes an account.
//
// @Summary      Delete a user
// @Tags         usuario
// @Produce      json
// @Security     AccessToken
// @Param        id   path      int  true  "User id"
// @Success      200  {object}  msgResponse
// @Failure      404  {object}  map[string]any
// @Failure      500  {object}  errorResponse
// @Router       /api/usuario/{id} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	notFound := func() error {
		return c.JSON(http.StatusNotFound, legacyError(
			"Não há nenhum usuário com o id "+c.Param("id"), "Erro ao excluir o usuário", "/:id"))
	}

	id, ok := pathID(c, "id")
	if !ok {
		return notFound()
	}
	if err := h.service.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return notFound()
		}
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, msgResponse{Msg: "Usuário excluído com sucesso"})
}

// Me returns the caller's account.
//
// @Summary      Caller's account
// @Tags         usuario
// @Produce      json
// @Security     AccessToken
// @Success      200  {object}  domain.User
// @Failure      404  {object}  msgResponse
// @Router       /api/usuario/me [get]
func (h *UserHandler) Me(c echo.Context) error {
	caller, err := callerIdentity(c)
	if err != nil {
		return err
	}
	u, err := h.service.Get(c.Request().Context(), caller.ID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, msgResponse{Msg: msgUserNotFound})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"msg":   "Erro ao buscar dados do usuário logado",
			"error": err.Error(),
		})
	}
	return c.JSON(http.StatusOK, u)
}

// ChangePassword replaces the caller's password.
//
// @Summary      Change password
// @Tags         usuario
// @Accept       json
// @Produce      json
// @Security     AccessToken
// @Param        body  body      changePasswordRequest  true  "Current and new password"
// @Success      200   {object}  msgResponse
// @Failure      400   {object}  errorsBody
// @Failure      403   {object}  msgResponse
// @Failure      404   {object}  msgResponse
// @Router       /api/usuario/senha [put]
func (h *UserHandler) ChangePassword(c echo.Context) error {
	caller, err := callerIdentity(c)
	if err != nil {
		return err
	}
	var req changePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondBindError(c, "usuario.senha", err)
	}

	err = h.service.ChangePassword(c.Request().Context(), caller.ID, req.Current, req.Next)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, msgResponse{Msg: "Senha atualizada com sucesso"})
	case errors.Is(err, domain.ErrUserNotFound):
		return c.JSON(http.StatusNotFound, msgResponse{Msg: msgUserNotFound})
	case errors.Is(err, domain.ErrInvalidPassword):
		return c.JSON(http.StatusForbidden, msgResponse{Msg: "Senha atual incorreta"})
	default:
		return c.JSON(http.StatusInternalServerError, map[string]string{"msg": "Erro ao atualizar a senha", "error": err.Error()})
	}
}

// ForgotPassword mails a temporary password. The answer does not reveal
// whether the address is registered.
//
// @Summary      Request password recovery
// @Tags         usuario
// @Accept       json
// @Produce      json
// @Param        body  body      forgotPasswordRequest  true  "Email"
// @Success      200   {object}  recoveryResponse
// @Failure      400   {object}  errorsBody
// @Failure      500   {object}  recoveryResponse
// @Router       /api/usuario/forgot-password [post]
func (h *UserHandler) ForgotPassword(c echo.Context) error {
	var req forgotPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondBindError(c, "usuario.forgot-password", err)
	}

	if err := h.service.ForgotPassword(c.Request().Context(), req.Email); err != nil {
		metrics.PasswordRecoveryTotal.WithLabelValues("error").Inc()
		return c.JSON(http.StatusInternalServerError, recoveryResponse{Success: false, Message: msgRecoveryFailed})
	}
	metrics.PasswordRecoveryTotal.WithLabelValues("ok").Inc()
	return c.JSON(http.StatusOK, recoveryResponse{Success: true, Message: msgRecoverySent})
}

// ResetPassword sets a new password after recovery and clears the reset flag.
//
// @Summary      Reset password
// @Tags         usuario
// @Accept       json
// @Produce      json
// @Security     AccessToken
// @Param        body  body      resetPasswordRequest  true  "New password"
// @Success      200   {object}  msgResponse
// @Failure      400   {object}  errorsBody
// @Failure      404   {object}  msgResponse
// @Router       /api/usuario/reset-password [post]
func (h *UserHandler) ResetPassword(c echo.Context) error {
	caller, err := callerIdentity(c)
	if err != nil {
		return err
	}
	var req resetPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondBindError(c, "usuario.reset-password", err)
	}

	if err := h.service.ResetPassword(c.Request().Context(), caller.ID, req.Next); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, msgResponse{Msg: msgUserNotFound})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"msg": "Erro ao redefinir a senha", "error": err.Error()})
	}
	return c.JSON(http.StatusOK, msgResponse{Msg: "Senha alterada com sucesso"})
}

// Avatar returns the URL of a user's profile picture.
//
// @Summary      User avatar
// @Tags         usuario
// @Produce      json
// @Param        id   path      int  true  "User id"
// @Success      200  {object}  urlResponse
// @Failure      404  {object}  msgResponse
// @Failure      500  {object}  errorResponse
// @Router       /api/usuario/avatar/{id} [get]
func (h *UserHandler) Avatar(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusNotFound, msgResponse{Msg: "Imagem não encontrada"})
	}
	url, err := h.service.AvatarURL(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrImageNotFound) {
			return c.JSON(http.StatusNotFound, msgResponse{Msg: "Imagem não encontrada"})
		}
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, urlResponse{URL: url})
}
