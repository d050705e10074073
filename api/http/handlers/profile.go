package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/lexaprendiz/lexaprendiz/api/http/presenter"
	"github.com/lexaprendiz/lexaprendiz/pkg/auth"
)

type ProfileHandler struct {
	uc  auth.ProfileUseCase
	log *zap.Logger
}

func NewProfileHandler(uc auth.ProfileUseCase, log *zap.Logger) *ProfileHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProfileHandler{uc: uc, log: log}
}

type profileRequest struct {
	Name         string `json:"name"`
	CPF          string `json:"cpf"`
	City         string `json:"city"`
	State        string `json:"state"`
	CEP          string `json:"cep"`
	Address      string `json:"address"`
	Number       string `json:"number"`
	Complement   string `json:"complement"`
	Neighborhood string `json:"neighborhood"`
}

// Get returns the caller's account.
// @Summary Get profile
// @Tags    profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} auth.User
// @Failure 401 {object} presenter.ErrorResponse
// @Failure 404 {object} presenter.ErrorResponse
// @Router  /profile [get]
func (h *ProfileHandler) Get(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return presenter.Error(c, http.StatusUnauthorized, "não foi possível identificar o usuário")
	}
	user, err := h.uc.Get(c.Context(), userID)
	if err != nil {
		return accountError(c, h.log, err)
	}
	return presenter.JSON(c, http.StatusOK, user)
}

// Update edits the caller's account. The CPF can only be set once.
// @Summary Update profile
// @Tags    profile
// @Accept  json
// @Produce json
// @Security BearerAuth
// @Param   input body profileRequest true "profile fields"
// @Success 200 {object} auth.User
// @Failure 400 {object} presenter.ErrorResponse
// @Failure 401 {object} presenter.ErrorResponse
// @Failure 409 {object} presenter.ErrorResponse
// @Router  /profile [put]
func (h *ProfileHandler) Update(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return presenter.Error(c, http.StatusUnauthorized, "não foi possível identificar o usuário")
	}
	var req profileRequest
	if err := c.BodyParser(&req); err != nil {
		return presenter.Error(c, http.StatusBadRequest, "JSON inválido")
	}
	user, err := h.uc.Update(c.Context(), userID, auth.ProfileInput{
		Name:         req.Name,
		CPF:          req.CPF,
		City:         req.City,
		State:        req.State,
		CEP:          req.CEP,
		Address:      req.Address,
		Number:       req.Number,
		Complement:   req.Complement,
		Neighborhood: req.Neighborhood,
	})
	if err != nil {
		return accountError(c, h.log, err)
	}
	return presenter.JSON(c, http.StatusOK, user)
}
