package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/jhoicas/erp-ledger/internal/application/dto"
)

// SystemActor actor registrado en la bitácora para las reconstrucciones del worker.
const SystemActor = "system:worker"

// Recalculator reconstruye los niveles materializados de una empresa.
type Recalculator interface {
	Recalculate(ctx context.Context, companyID, userID string) (*dto.RecalculateResponse, error)
}

// CompanyLister ids de las empresas activas.
type CompanyLister interface {
	ListIDs(ctx context.Context) ([]string, error)
}

// Handlers procesa las tareas del libro.
type Handlers struct {
	recalc    Recalculator
	companies CompanyLister
	log       zerolog.Logger
}

// NewHandlers construye los handlers.
func NewHandlers(recalc Recalculator, companies CompanyLister, log zerolog.Logger) *Handlers {
	return &Handlers{recalc: recalc, companies: companies, log: log}
}

// Register monta los handlers en el mux.
func (h *Handlers) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TaskRecalculate, h.HandleRecalculate)
	mux.HandleFunc(TaskRecalculateAll, h.HandleRecalculateAll)
}

// HandleRecalculate procesa TaskRecalculate. Un payload inválido no se reintenta.
func (h *Handlers) HandleRecalculate(ctx context.Context, t *asynq.Task) error {
	var p RecalculatePayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("payload inválido: %v: %w", err, asynq.SkipRetry)
	}
	if p.CompanyID == "" {
		return fmt.Errorf("payload sin company_id: %w", asynq.SkipRetry)
	}
	res, err := h.recalc.Recalculate(ctx, p.CompanyID, SystemActor)
	if err != nil {
		h.log.Error().Err(err).Str("company_id", p.CompanyID).Msg("recálculo fallido")
		return err
	}
	h.log.Info().Str("company_id", p.CompanyID).Int("recalculated_count", res.RecalculatedCount).Msg("recálculo completado")
	return nil
}

// HandleRecalculateAll recorre las empresas activas. Un fallo de una empresa no detiene las demás;
// los errores se acumulan y la tarea se reintenta completa.
func (h *Handlers) HandleRecalculateAll(ctx context.Context, _ *asynq.Task) error {
	ids, err := h.companies.ListIDs(ctx)
	if err != nil {
		return fmt.Errorf("listar empresas: %w", err)
	}
	var errs []error
	for _, id := range ids {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if _, err := h.recalc.Recalculate(ctx, id, SystemActor); err != nil {
			h.log.Error().Err(err).Str("company_id", id).Msg("recálculo fallido")
			errs = append(errs, fmt.Errorf("empresa %s: %w", id, err))
		}
	}
	h.log.Info().Int("companies", len(ids)).Int("failed", len(errs)).Msg("recálculo programado completado")
	return errors.Join(errs...)
}
