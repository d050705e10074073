package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lexaprendiz/lexaprendiz/api/http/presenter"
	"github.com/lexaprendiz/lexaprendiz/pkg/auth"
	jwtsec "github.com/lexaprendiz/lexaprendiz/pkg/security/jwt"
)

var fieldLabels = map[auth.Field]string{
	auth.FieldEmail:    "E-mail",
	auth.FieldPassword: "Senha",
	auth.FieldName:     "Nome",
	auth.FieldCPF:      "CPF",
}

type accountFailure struct {
	status  int
	field   string
	code    string
	message string
}

var accountFailures = []struct {
	err error
	accountFailure
}{
	{auth.ErrMalformedTaxpayerID, accountFailure{http.StatusBadRequest, "cpf", "MalformedTaxpayerId", "CPF deve conter 11 dígitos"}},
	{auth.ErrInvalidTaxpayerID, accountFailure{http.StatusBadRequest, "cpf", "InvalidTaxpayerId", "CPF inválido"}},
	{auth.ErrDuplicateEmail, accountFailure{http.StatusConflict, "email", "DuplicateEmail", "Este e-mail já está cadastrado"}},
	{auth.ErrDuplicateTaxpayerID, accountFailure{http.StatusConflict, "cpf", "DuplicateTaxpayerId", "Este CPF já está cadastrado"}},
	{auth.ErrTaxpayerIDImmutable, accountFailure{http.StatusConflict, "cpf", "TaxpayerIdImmutable", "O CPF não pode ser alterado depois de cadastrado"}},
	{auth.ErrInvalidState, accountFailure{http.StatusBadRequest, "state", "InvalidState", "Estado deve ser uma UF válida"}},
	{auth.ErrInvalidCEP, accountFailure{http.StatusBadRequest, "cep", "InvalidCep", "CEP deve conter 8 dígitos"}},
	{auth.ErrNotFound, accountFailure{http.StatusNotFound, "", "NotFound", "Usuário não encontrado"}},
}

// accountError answers a registration or profile failure with the field at
// fault. Anything unknown is logged and answered as a storage failure.
func accountError(c *fiber.Ctx, log *zap.Logger, err error) error {
	var missing *auth.MissingFieldError
	if errors.As(err, &missing) {
		label := fieldLabels[missing.Field]
		if label == "" {
			label = string(missing.Field)
		}
		return presenter.FieldError(c, http.StatusBadRequest, string(missing.Field), "MissingField", "O campo "+label+" é obrigatório")
	}
	for _, f := range accountFailures {
		if errors.Is(err, f.err) {
			return presenter.FieldError(c, f.status, f.field, f.code, f.message)
		}
	}
	log.Error("account operation failed", zap.String("path", c.Path()), zap.Error(err))
	return presenter.FieldError(c, http.StatusInternalServerError, "", "StorageFailure", "Erro interno. Tente novamente mais tarde")
}

// currentUserID returns the account behind the request token. Admin tokens
// issued from the environment credentials carry no account.
func currentUserID(c *fiber.Ctx) (uuid.UUID, bool) {
	sub, _ := c.Locals(jwtsec.LocalUserID).(string)
	id, err := uuid.Parse(sub)
	return id, err == nil
}
