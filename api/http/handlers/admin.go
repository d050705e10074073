package handlers

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lexaprendiz/lexaprendiz/api/http/presenter"
	"github.com/lexaprendiz/lexaprendiz/pkg/admin"
	"github.com/lexaprendiz/lexaprendiz/pkg/auth"
)

// ExportFilename is the attachment name of the CSV export.
const ExportFilename = "usuarios_lexaprendiz.csv"

type AdminHandler struct {
	uc  admin.UseCase
	log *zap.Logger
}

func NewAdminHandler(uc admin.UseCase, log *zap.Logger) *AdminHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AdminHandler{uc: uc, log: log}
}

func (h *AdminHandler) internal(c *fiber.Ctx, op string, err error) error {
	h.log.Error("admin operation failed", zap.String("op", op), zap.Error(err))
	return presenter.Error(c, http.StatusInternalServerError, "Erro interno. Tente novamente mais tarde")
}

// Stats
// @Summary Dashboard numbers
// @Tags    admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} admin.Stats
// @Failure 403 {object} presenter.ErrorResponse
// @Router  /admin/stats [get]
func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	st, err := h.uc.Stats(c.Context())
	if err != nil {
		return h.internal(c, "stats", err)
	}
	return presenter.JSON(c, http.StatusOK, st)
}

// Users lists accounts, 20 per page.
// @Summary List users
// @Tags    admin
// @Produce json
// @Security BearerAuth
// @Param   search query string false "name, email or CPF in any format"
// @Param   page   query int    false "page number, from 1"
// @Success 200 {object} admin.UserPage
// @Router  /admin/users [get]
func (h *AdminHandler) Users(c *fiber.Ctx) error {
	out, err := h.uc.Users(c.Context(), c.Query("search"), parsePage(c))
	if err != nil {
		return h.internal(c, "users", err)
	}
	return presenter.JSON(c, http.StatusOK, out)
}

// User shows one account with its latest questions.
// @Summary User detail
// @Tags    admin
// @Produce json
// @Security BearerAuth
// @Param   id path string true "user id (UUID)"
// @Success 200 {object} admin.UserDetail
// @Failure 404 {object} presenter.ErrorResponse
// @Router  /admin/users/{id} [get]
func (h *AdminHandler) User(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return presenter.Error(c, http.StatusBadRequest, "id inválido")
	}
	out, err := h.uc.UserDetail(c.Context(), id)
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			return presenter.Error(c, http.StatusNotFound, "Usuário não encontrado")
		}
		return h.internal(c, "user detail", err)
	}
	return presenter.JSON(c, http.StatusOK, out)
}

// ExportCSV downloads every account as CSV.
// @Summary Export users
// @Tags    admin
// @Produce text/csv
// @Security BearerAuth
// @Success 200 {file} file
// @Router  /admin/export/users.csv [get]
func (h *AdminHandler) ExportCSV(c *fiber.Ctx) error {
	var buf bytes.Buffer
	if err := h.uc.ExportCSV(c.Context(), &buf); err != nil {
		return h.internal(c, "export", err)
	}
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Attachment(ExportFilename)
	return c.Status(http.StatusOK).Send(buf.Bytes())
}

// Duplicates reports accounts sharing an email or a CPF.
// @Summary Duplicate accounts
// @Tags    admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} admin.DuplicateReport
// @Router  /admin/duplicates [get]
func (h *AdminHandler) Duplicates(c *fiber.Ctx) error {
	rep, err := h.uc.Duplicates(c.Context())
	if err != nil {
		return h.internal(c, "duplicates", err)
	}
	return presenter.JSON(c, http.StatusOK, rep)
}

// CleanupDuplicates keeps the oldest account of each duplicate group.
// @Summary Remove duplicate accounts
// @Tags    admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]int
// @Router  /admin/duplicates/cleanup [post]
func (h *AdminHandler) CleanupDuplicates(c *fiber.Ctx) error {
	n, err := h.uc.CleanupDuplicates(c.Context())
	if err != nil {
		return h.internal(c, "cleanup", err)
	}
	return presenter.JSON(c, http.StatusOK, fiber.Map{"removed": n})
}

// CanonicalizeCPFs rewrites digits-only CPFs in the punctuated form.
// @Summary Canonicalize stored CPFs
// @Tags    admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} admin.CanonicalizeResult
// @Router  /admin/cpf/canonicalize [post]
func (h *AdminHandler) CanonicalizeCPFs(c *fiber.Ctx) error {
	res, err := h.uc.CanonicalizeCPFs(c.Context())
	if err != nil {
		return h.internal(c, "canonicalize", err)
	}
	return presenter.JSON(c, http.StatusOK, res)
}
