package http

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/jhoicas/erp-ledger/internal/domain"
	"github.com/jhoicas/erp-ledger/internal/domain/repository"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Los errores usan el nombre JSON del campo.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// bind parsea el cuerpo JSON en dst y lo valida. Devuelve un *domain.ValidationError con el primer campo inválido.
func bind(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return errBadBody
	}
	return validateStruct(dst)
}

var errBadBody = errors.New("cuerpo inválido")

func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return domain.NewValidationError(fieldPath(fe), ruleMessage(fe))
	}
	return domain.NewValidationError("", err.Error())
}

// fieldPath ruta JSON sin el nombre del struct raíz: items[0].product_id.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if", "required_unless", "required_without":
		return "es requerido"
	case "excluded_with":
		return "no puede combinarse con " + strings.ToLower(fe.Param())
	case "uuid":
		return "debe ser un UUID"
	case "email":
		return "debe ser un email válido"
	case "oneof":
		return "debe ser uno de: " + fe.Param()
	case "len":
		return fmt.Sprintf("debe tener %s caracteres", fe.Param())
	case "min":
		return "mínimo " + fe.Param()
	case "max":
		return "máximo " + fe.Param()
	case "uppercase":
		return "debe estar en mayúsculas"
	}
	return "no cumple la regla " + fe.Tag()
}

// handleBind responde al error de bind.
func handleBind(c *fiber.Ctx, err error) error {
	if errors.Is(err, errBadBody) {
		return badBody(c)
	}
	return respondError(c, err)
}

// pathID lee el parámetro :id. Un id que no es UUID no puede existir: NotFound.
func pathID(c *fiber.Ctx, entity string) (string, error) {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return "", domain.NewNotFoundError(entity, id)
	}
	return id, nil
}

// queryID lee un filtro opcional que debe ser UUID.
func queryID(c *fiber.Ctx, key string) (string, error) {
	v := c.Query(key)
	if v == "" {
		return "", nil
	}
	if _, err := uuid.Parse(v); err != nil {
		return "", domain.NewValidationError(key, "debe ser un UUID")
	}
	return v, nil
}

// pageFromQuery limit (1..100, por defecto 20) y offset.
func pageFromQuery(c *fiber.Ctx) repository.Page {
	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return repository.Page{Limit: limit, Offset: offset}
}
