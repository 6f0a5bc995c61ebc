package http

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/jhoicas/erp-ledger/internal/application/dto"
	"github.com/jhoicas/erp-ledger/internal/domain/entity"
)

// companyGetter es el contrato mínimo que necesita el middleware; lo implementa repository.CompanyRepository.
type companyGetter interface {
	GetByID(ctx context.Context, id string) (*entity.Company, error)
}

// RequireActiveCompany verifica que la empresa del token exista y esté activa.
// Debe usarse DESPUÉS de AuthMiddleware.
//
//   - 403 → empresa suspendida o inexistente.
//   - 503 → fallo al consultar la empresa.
func RequireActiveCompany(companies companyGetter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		companyID := GetCompanyID(c)
		if companyID == "" {
			return unauthorized(c)
		}
		company, err := companies.GetByID(c.UserContext(), companyID)
		if err != nil {
			log.Error().Err(err).Str("company_id", companyID).Msg("verificar empresa")
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
				Code:    "COMPANY_CHECK_FAILED",
				Message: "no se pudo verificar la empresa, intente más tarde",
			})
		}
		if company == nil || company.Status != entity.CompanyStatusActive {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Code:    "COMPANY_INACTIVE",
				Message: "la empresa no está activa",
			})
		}
		return c.Next()
	}
}
