package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/lexaprendiz/lexaprendiz/api/http/presenter"
	"github.com/lexaprendiz/lexaprendiz/pkg/llm"
	"github.com/lexaprendiz/lexaprendiz/pkg/qa"
)

type QuestionHandler struct {
	uc qa.UseCase
}

func NewQuestionHandler(uc qa.UseCase) *QuestionHandler { return &QuestionHandler{uc: uc} }

// askRequest accepts the field names used by older clients too.
type askRequest struct {
	Question string `json:"question"`
	Pergunta string `json:"pergunta"`
	Mensagem string `json:"mensagem"`
}

func (r askRequest) text() string {
	switch {
	case r.Question != "":
		return r.Question
	case r.Pergunta != "":
		return r.Pergunta
	default:
		return r.Mensagem
	}
}

// Ask sends a question to the language model and stores the answer.
// @Summary Ask a question
// @Tags    questions
// @Accept  json
// @Produce json
// @Security BearerAuth
// @Param   input body askRequest true "question"
// @Success 201 {object} qa.Question
// @Failure 400 {object} presenter.ErrorResponse
// @Failure 429 {object} presenter.ErrorResponse
// @Failure 502 {object} presenter.ErrorResponse
// @Failure 503 {object} presenter.ErrorResponse
// @Router  /questions [post]
func (h *QuestionHandler) Ask(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return presenter.Error(c, http.StatusUnauthorized, "não foi possível identificar o usuário")
	}
	var req askRequest
	if err := c.BodyParser(&req); err != nil {
		return presenter.Error(c, http.StatusBadRequest, "JSON inválido")
	}

	q, err := h.uc.Ask(c.Context(), userID, req.text())
	switch {
	case err == nil:
		return presenter.JSON(c, http.StatusCreated, q)
	case errors.Is(err, qa.ErrEmptyQuestion):
		return presenter.Error(c, http.StatusBadRequest, "Digite uma pergunta")
	case errors.Is(err, qa.ErrQuestionTooLong):
		return presenter.Error(c, http.StatusBadRequest, "A pergunta é muito longa")
	case errors.Is(err, llm.ErrQuotaExceeded):
		return presenter.Error(c, http.StatusTooManyRequests, "Limite de uso da IA atingido. Tente novamente mais tarde")
	case errors.Is(err, llm.ErrNotConfigured):
		return presenter.Error(c, http.StatusServiceUnavailable, "Assistente indisponível no momento")
	case errors.Is(err, context.DeadlineExceeded):
		return presenter.Error(c, http.StatusGatewayTimeout, "A IA demorou para responder. Tente novamente")
	default:
		return presenter.Error(c, http.StatusBadGateway, "Falha ao consultar a IA")
	}
}

// History lists the caller's questions, newest first.
// @Summary Question history
// @Tags    questions
// @Produce json
// @Security BearerAuth
// @Param   search query string false "text to match in question or answer"
// @Param   limit  query int    false "page size (default 50, max 200)"
// @Param   offset query int    false "offset"
// @Success 200 {array} qa.Question
// @Failure 401 {object} presenter.ErrorResponse
// @Router  /questions [get]
func (h *QuestionHandler) History(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return presenter.Error(c, http.StatusUnauthorized, "não foi possível identificar o usuário")
	}
	limit, offset := parseLimitOffset(c, 50)
	items, err := h.uc.History(c.Context(), userID, c.Query("search"), limit, offset)
	if err != nil {
		return presenter.Error(c, http.StatusInternalServerError, "Erro ao carregar o histórico")
	}
	return presenter.JSON(c, http.StatusOK, items)
}
