package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/almacen-api/internal/application/dto"
	"github.com/jhoicas/almacen-api/internal/application/inventory"
	"github.com/jhoicas/almacen-api/internal/application/usecase"
	invdomain "github.com/jhoicas/almacen-api/internal/domain/inventory"
)

// UnitHandler consulta y ciclo de vida de unidades por código de etiqueta (protegido).
type UnitHandler struct {
	units UnitService
	svc   InventoryService
}

// NewUnitHandler construye el handler.
func NewUnitHandler(units UnitService, svc InventoryService) *UnitHandler {
	return &UnitHandler{units: units, svc: svc}
}

// GetByCode godoc
// @Summary      Obtener unidad por código
// @Tags         units
// @Security     Bearer
// @Produce      json
// @Param        code  path  string  true  "Código de la etiqueta"
// @Success      200  {object}  dto.UnitResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/units/{code} [get]
func (h *UnitHandler) GetByCode(c *fiber.Ctx) error {
	out, err := h.units.GetByCode(c.Context(), c.Params("code"))
	if err != nil {
		return writeError(c, err)
	}
	if out == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "unidad no encontrada"})
	}
	return c.JSON(out)
}

// History godoc
// @Summary      Historial de movimientos de una unidad
// @Tags         units
// @Security     Bearer
// @Produce      json
// @Param        code  path  string  true  "Código de la etiqueta"
// @Success      200  {object}  dto.MovementListResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/units/{code}/history [get]
func (h *UnitHandler) History(c *fiber.Ctx) error {
	out, err := h.units.History(c.Context(), c.Params("code"), pageFromQuery(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Action godoc
// @Summary      Aplicar una acción de ciclo de vida
// @Description  RETURN, REPAIR_OUT, REPAIR_IN; SCRAP y LOST solo para admin.
// @Tags         units
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        code  path  string                 true  "Código de la etiqueta"
// @Param        body  body  dto.UnitActionRequest  true  "action, reason"
// @Success      200  {object}  dto.UnitActionResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/units/{code}/actions [post]
func (h *UnitHandler) Action(c *fiber.Ctx) error {
	var in dto.UnitActionRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	action, err := invdomain.ParseAction(in.Action)
	if err != nil {
		return writeError(c, err)
	}
	res, err := h.svc.TransitionUnit(c.Context(), inventory.TransitionInput{
		UnitCode:          c.Params("code"),
		Action:            action,
		Reason:            in.Reason,
		CostCenter:        in.CostCenter,
		Notes:             in.Notes,
		PerformedByUserID: GetUserID(c),
		Capability:        invdomain.CapabilityForRole(GetRole(c)),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.UnitActionResponse{
		Unit:            *usecase.ToUnitResponse(res.Unit),
		PreviousStatus:  string(res.PreviousStatus),
		MovementID:      res.MovementID,
		ProductQuantity: res.ProductQuantity,
		ProductStatus:   res.ProductStatus,
	})
}
