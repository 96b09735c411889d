package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/almacen-api/internal/application/dto"
	"github.com/jhoicas/almacen-api/internal/application/inventory"
	"github.com/jhoicas/almacen-api/internal/application/usecase"
	"github.com/jhoicas/almacen-api/internal/domain"
	"github.com/jhoicas/almacen-api/internal/domain/entity"
)

// InventoryHandler maneja asignaciones, ingresos, requisiciones y el libro (protegido).
type InventoryHandler struct {
	svc       InventoryService
	movements MovementService
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(svc InventoryService, movements MovementService) *InventoryHandler {
	return &InventoryHandler{svc: svc, movements: movements}
}

// Allocate godoc
// @Summary      Asignar stock a un consumidor
// @Description  Con unidades: la más antigua en stock (quantity debe ser 1). A granel: decrementa quantity.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AllocateRequest  true  "product_id, quantity, consumer_id (vacío = usuario autenticado)"
// @Success      201   {object}  dto.AllocationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/allocations [post]
func (h *InventoryHandler) Allocate(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return writeError(c, domain.ErrUnauthorized)
	}
	var in dto.AllocateRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	consumer := in.ConsumerID
	if consumer == "" {
		consumer = userID
	}
	// Solo personal de bodega asigna a nombre de otro.
	if consumer != userID && !isWarehouseStaff(GetRole(c)) {
		return writeError(c, domain.ErrForbidden)
	}
	res, err := h.svc.AllocateWithRetry(c.Context(), inventory.AllocationInput{
		ProductID:         in.ProductID,
		Quantity:          in.Quantity,
		ConsumerID:        consumer,
		PerformedByUserID: userID,
		Reason:            in.Reason,
		CostCenter:        in.CostCenter,
		Notes:             in.Notes,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toAllocationResponse(res))
}

// Intake godoc
// @Summary      Registrar ingreso de stock
// @Description  quantity para productos a granel o units para productos con rastreo por unidad.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.IntakeRequest  true  "product_id y quantity o units"
// @Success      201   {object}  dto.IntakeResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/intake [post]
func (h *InventoryHandler) Intake(c *fiber.Ctx) error {
	var in dto.IntakeRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	units := make([]inventory.IntakeUnitInput, 0, len(in.Units))
	for _, u := range in.Units {
		units = append(units, inventory.IntakeUnitInput{
			Code: u.Code, SerialNumber: u.SerialNumber, PartNumber: u.PartNumber, AssetTag: u.AssetTag, Notes: u.Notes,
		})
	}
	res, err := h.svc.ReceiveStock(c.Context(), inventory.IntakeInput{
		ProductID:         in.ProductID,
		Quantity:          in.Quantity,
		Units:             units,
		InvoiceID:         in.InvoiceID,
		UnitCost:          in.UnitCost,
		Reason:            in.Reason,
		Notes:             in.Notes,
		PerformedByUserID: GetUserID(c),
	})
	if err != nil {
		return writeError(c, err)
	}
	out := dto.IntakeResponse{
		ProductID:     res.ProductID,
		Quantity:      res.Quantity,
		ProductStatus: res.ProductStatus,
		MovementIDs:   res.MovementIDs,
	}
	for _, u := range res.Units {
		out.Units = append(out.Units, *usecase.ToUnitResponse(u))
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Fulfill godoc
// @Summary      Despachar una requisición aprobada
// @Description  Todas las líneas en una sola transacción; si alguna falla no se despacha nada.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string              true  "ID de la requisición"
// @Param        body  body  dto.FulfillRequest  true  "consumer_id, items"
// @Success      201   {object}  dto.FulfillResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/requests/{id}/fulfill [post]
func (h *InventoryHandler) Fulfill(c *fiber.Ctx) error {
	var in dto.FulfillRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	items := make([]inventory.FulfillmentItem, 0, len(in.Items))
	for _, it := range in.Items {
		items = append(items, inventory.FulfillmentItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	res, err := h.svc.FulfillRequest(c.Context(), inventory.FulfillmentInput{
		RequestID:         c.Params("id"),
		Ref:               in.Ref,
		ConsumerID:        in.ConsumerID,
		PerformedByUserID: GetUserID(c),
		CostCenter:        in.CostCenter,
		Items:             items,
	})
	if err != nil {
		return writeError(c, err)
	}
	out := dto.FulfillResponse{RequestID: res.RequestID, Allocations: make([]dto.AllocationResponse, 0, len(res.Allocations))}
	for i := range res.Allocations {
		out.Allocations = append(out.Allocations, toAllocationResponse(&res.Allocations[i]))
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ListMovements godoc
// @Summary      Consultar el libro de movimientos
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id  query  string  false  "Producto"
// @Param        unit_id     query  string  false  "Unidad"
// @Param        request_id  query  string  false  "Requisición"
// @Param        type        query  string  false  "IN, OUT, RETURN, REPAIR_OUT, REPAIR_IN, SCRAP, LOST"
// @Param        from        query  string  false  "RFC3339"
// @Param        to          query  string  false  "RFC3339"
// @Success      200  {object}  dto.MovementListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	q := dto.MovementQuery{
		ProductID:   c.Query("product_id"),
		UnitID:      c.Query("unit_id"),
		RequestID:   c.Query("request_id"),
		Type:        c.Query("type"),
		PageRequest: pageFromQuery(c),
	}
	var err error
	if q.From, err = parseTimeQuery(c, "from"); err != nil {
		return writeError(c, domain.ErrInvalidInput)
	}
	if q.To, err = parseTimeQuery(c, "to"); err != nil {
		return writeError(c, domain.ErrInvalidInput)
	}
	out, err := h.movements.List(c.Context(), q)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

func parseTimeQuery(c *fiber.Ctx, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func isWarehouseStaff(role string) bool {
	return role == entity.RoleAdmin || role == entity.RoleBodeguero
}
