package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/lexaprendiz/lexaprendiz/api/http/presenter"
	"github.com/lexaprendiz/lexaprendiz/pkg/auth"
	jwtsec "github.com/lexaprendiz/lexaprendiz/pkg/security/jwt"
)

type AuthHandler struct {
	useCase auth.AuthUseCase
	log     *zap.Logger
}

func NewAuthHandler(useCase auth.AuthUseCase, log *zap.Logger) *AuthHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthHandler{useCase: useCase, log: log}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	CPF      string `json:"cpf"`
}

type authResponse struct {
	User  auth.User `json:"user"`
	Token string    `json:"token,omitempty"`
}

// Register handles user registration.
// @Summary Register user
// @Tags    auth
// @Accept  json
// @Produce json
// @Param   input body registerRequest true "registration payload"
// @Success 201 {object} authResponse
// @Failure 400 {object} presenter.ErrorResponse
// @Failure 409 {object} presenter.ErrorResponse
// @Failure 500 {object} presenter.ErrorResponse
// @Router  /auth/register [post]
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return presenter.Error(c, http.StatusBadRequest, "JSON inválido")
	}

	result, err := h.useCase.Register(c.Context(), auth.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		CPF:      req.CPF,
	})
	if err != nil {
		return accountError(c, h.log, err)
	}
	return presenter.JSON(c, http.StatusCreated, authResponse{User: result.User, Token: result.Token})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles user login.
// @Summary Login
// @Tags    auth
// @Accept  json
// @Produce json
// @Param   input body loginRequest true "login payload"
// @Success 200 {object} authResponse
// @Failure 400 {object} presenter.ErrorResponse
// @Failure 401 {object} presenter.ErrorResponse
// @Router  /auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return presenter.Error(c, http.StatusBadRequest, "JSON inválido")
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return presenter.Error(c, http.StatusBadRequest, "E-mail e senha são obrigatórios")
	}

	result, err := h.useCase.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return presenter.Error(c, http.StatusUnauthorized, "E-mail ou senha incorretos")
		}
		h.log.Error("login failed", zap.Error(err))
		return presenter.Error(c, http.StatusInternalServerError, "Erro interno. Tente novamente mais tarde")
	}
	return presenter.JSON(c, http.StatusOK, authResponse{User: result.User, Token: result.Token})
}

// Logout revokes the token used for this request.
// @Summary Logout
// @Tags    auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]string
// @Failure 401 {object} presenter.ErrorResponse
// @Router  /auth/logout [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	tokenID, _ := c.Locals(jwtsec.LocalTokenID).(string)
	exp, _ := c.Locals(jwtsec.LocalTokenExp).(time.Time)
	if err := h.useCase.Logout(c.Context(), tokenID, exp); err != nil {
		h.log.Error("logout failed", zap.Error(err))
		return presenter.Error(c, http.StatusServiceUnavailable, "Não foi possível encerrar a sessão")
	}
	return presenter.JSON(c, http.StatusOK, fiber.Map{"message": "Sessão encerrada"})
}

// CheckDuplicates tells a registration form whether email or CPF are taken.
// @Summary Check duplicates
// @Tags    auth
// @Produce json
// @Param   email query string false "candidate email"
// @Param   cpf   query string false "candidate CPF, any representation"
// @Success 200 {object} auth.DuplicateReport
// @Failure 503 {object} presenter.ErrorResponse
// @Router  /auth/check-duplicates [get]
func (h *AuthHandler) CheckDuplicates(c *fiber.Ctx) error {
	rep, err := h.useCase.CheckDuplicates(c.Context(), c.Query("email"), c.Query("cpf"))
	if err != nil {
		h.log.Error("duplicate check failed", zap.Error(err))
		return presenter.FieldError(c, http.StatusServiceUnavailable, "", "StorageFailure", "Não foi possível verificar os dados agora")
	}
	return presenter.JSON(c, http.StatusOK, rep)
}

type adminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AdminLogin issues an admin token for the configured credentials.
// @Summary Admin login
// @Tags    admin
// @Accept  json
// @Produce json
// @Param   input body adminLoginRequest true "admin credentials"
// @Success 200 {object} map[string]string
// @Failure 401 {object} presenter.ErrorResponse
// @Router  /admin/login [post]
func (h *AuthHandler) AdminLogin(c *fiber.Ctx) error {
	var req adminLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return presenter.Error(c, http.StatusBadRequest, "JSON inválido")
	}
	token, err := h.useCase.AdminLogin(c.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return presenter.Error(c, http.StatusUnauthorized, "Usuário ou senha inválidos")
		}
		h.log.Error("admin login failed", zap.Error(err))
		return presenter.Error(c, http.StatusInternalServerError, "Erro interno. Tente novamente mais tarde")
	}
	return presenter.JSON(c, http.StatusOK, fiber.Map{"token": token})
}
