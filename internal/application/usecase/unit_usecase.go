package usecase

import (
	"context"

	"github.com/jhoicas/almacen-api/internal/application/dto"
	"github.com/jhoicas/almacen-api/internal/domain"
	"github.com/jhoicas/almacen-api/internal/domain/entity"
	"github.com/jhoicas/almacen-api/internal/domain/repository"
)

// UnitUseCase consultas del registro de unidades y de su historial (lectura, fuera de tx).
type UnitUseCase struct {
	units     repository.UnitRepository
	movements repository.MovementRepository
}

// NewUnitUseCase construye el caso de uso.
func NewUnitUseCase(units repository.UnitRepository, movements repository.MovementRepository) *UnitUseCase {
	return &UnitUseCase{units: units, movements: movements}
}

// GetByCode resuelve una unidad por el código de su etiqueta. nil si no existe.
func (uc *UnitUseCase) GetByCode(ctx context.Context, code string) (*dto.UnitResponse, error) {
	if code == "" {
		return nil, domain.ErrInvalidInput
	}
	unit, err := uc.units.GetByCode(ctx, code)
	if err != nil || unit == nil {
		return nil, err
	}
	return ToUnitResponse(unit), nil
}

// ListByProduct unidades de un producto en orden FIFO, opcionalmente por estado.
func (uc *UnitUseCase) ListByProduct(ctx context.Context, productID, status string, page dto.PageRequest) (*dto.UnitListResponse, error) {
	st := entity.UnitStatus(status)
	if !domain.ValidID(productID) || (status != "" && !st.Valid()) {
		return nil, domain.ErrInvalidInput
	}
	page.DefaultPage()
	list, err := uc.units.List(ctx, repository.UnitFilter{
		ProductID: productID, Status: st, Limit: page.Limit, Offset: page.Offset,
	})
	if err != nil {
		return nil, err
	}
	items := make([]dto.UnitResponse, 0, len(list))
	for _, u := range list {
		items = append(items, *ToUnitResponse(u))
	}
	return &dto.UnitListResponse{Items: items, Page: dto.PageResponse{Limit: page.Limit, Offset: page.Offset}}, nil
}

// History movimientos de una unidad en orden cronológico.
func (uc *UnitUseCase) History(ctx context.Context, code string, page dto.PageRequest) (*dto.MovementListResponse, error) {
	unit, err := uc.units.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if unit == nil {
		return nil, domain.ErrNotFound
	}
	page.DefaultPage()
	list, err := uc.movements.List(ctx, repository.MovementFilter{UnitID: unit.ID, Limit: page.Limit, Offset: page.Offset})
	if err != nil {
		return nil, err
	}
	total, err := uc.movements.CountByUnit(ctx, unit.ID)
	if err != nil {
		return nil, err
	}
	return &dto.MovementListResponse{
		Items: toMovementResponses(list),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: total},
	}, nil
}

// ToUnitResponse convierte la entidad a DTO.
func ToUnitResponse(u *entity.Unit) *dto.UnitResponse {
	if u == nil {
		return nil
	}
	return &dto.UnitResponse{
		ID:               u.ID,
		Code:             u.Code,
		ProductID:        u.ProductID,
		Status:           string(u.Status),
		SerialNumber:     u.SerialNumber,
		PartNumber:       u.PartNumber,
		AssetTag:         u.AssetTag,
		Notes:            u.Notes,
		AcquiredAt:       u.AcquiredAt,
		AcquiredByUserID: u.AcquiredByUserID,
		AssignedToUserID: u.AssignedToUserID,
		AcquiredReason:   u.AcquiredReason,
		InvoiceID:        u.InvoiceID,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
}
