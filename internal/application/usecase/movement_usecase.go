package usecase

import (
	"context"

	"github.com/jhoicas/almacen-api/internal/application/dto"
	"github.com/jhoicas/almacen-api/internal/domain"
	"github.com/jhoicas/almacen-api/internal/domain/entity"
	"github.com/jhoicas/almacen-api/internal/domain/repository"
)

// MovementUseCase consulta del libro de movimientos.
type MovementUseCase struct {
	repo repository.MovementRepository
}

// NewMovementUseCase construye el caso de uso.
func NewMovementUseCase(repo repository.MovementRepository) *MovementUseCase {
	return &MovementUseCase{repo: repo}
}

// List movimientos filtrados, en orden cronológico.
func (uc *MovementUseCase) List(ctx context.Context, q dto.MovementQuery) (*dto.MovementListResponse, error) {
	t := entity.MovementType(q.Type)
	if q.Type != "" && !t.Valid() {
		return nil, domain.ErrInvalidInput
	}
	if (q.ProductID != "" && !domain.ValidID(q.ProductID)) || (q.UnitID != "" && !domain.ValidID(q.UnitID)) {
		return nil, domain.ErrInvalidInput
	}
	if q.From != nil && q.To != nil && q.To.Before(*q.From) {
		return nil, domain.ErrInvalidInput
	}
	q.DefaultPage()
	list, err := uc.repo.List(ctx, repository.MovementFilter{
		ProductID: q.ProductID,
		UnitID:    q.UnitID,
		RequestID: q.RequestID,
		Type:      t,
		From:      q.From,
		To:        q.To,
		Limit:     q.Limit,
		Offset:    q.Offset,
	})
	if err != nil {
		return nil, err
	}
	return &dto.MovementListResponse{
		Items: toMovementResponses(list),
		Page:  dto.PageResponse{Limit: q.Limit, Offset: q.Offset},
	}, nil
}

func toMovementResponses(list []*entity.Movement) []dto.MovementResponse {
	items := make([]dto.MovementResponse, 0, len(list))
	for _, m := range list {
		items = append(items, dto.MovementResponse{
			ID:                m.ID,
			Type:              string(m.Type),
			Quantity:          m.Quantity,
			StockDelta:        m.StockDelta,
			ProductID:         m.ProductID,
			UnitID:            m.UnitID,
			InvoiceID:         m.InvoiceID,
			RequestID:         m.RequestID,
			Reason:            m.Reason,
			CostCenter:        m.CostCenter,
			Notes:             m.Notes,
			UnitCost:          m.UnitCost,
			PerformedByUserID: m.PerformedByUserID,
			AssignedToUserID:  m.AssignedToUserID,
			CreatedAt:         m.CreatedAt,
		})
	}
	return items
}
