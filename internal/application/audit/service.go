package audit

import (
	"context"

	"github.com/jhoicas/erp-ledger/internal/application/dto"
	"github.com/jhoicas/erp-ledger/internal/domain/repository"
)

// Service consulta de la bitácora por empresa.
type Service struct {
	repo     repository.AuditRepository
	recorder *Recorder
}

// NewService construye el servicio de consulta.
func NewService(repo repository.AuditRepository, recorder *Recorder) *Service {
	return &Service{repo: repo, recorder: recorder}
}

// List devuelve las entradas de la empresa, más recientes primero.
func (s *Service) List(ctx context.Context, companyID string, f repository.AuditFilter) (*dto.AuditLogListResponse, error) {
	logs, err := s.repo.List(ctx, companyID, f)
	if err != nil {
		return nil, err
	}
	items := make([]dto.AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		oldValues, newValues, err := s.recorder.Decode(l)
		if err != nil {
			return nil, err
		}
		items = append(items, dto.AuditLogResponse{
			ID:         l.ID,
			Action:     l.Action,
			EntityType: l.EntityType,
			EntityID:   l.EntityID,
			OldValues:  oldValues,
			NewValues:  newValues,
			ActorID:    l.ActorID,
			CreatedAt:  l.CreatedAt,
		})
	}
	return &dto.AuditLogListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: f.Page.Limit, Offset: f.Page.Offset},
	}, nil
}
