package http

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// StockHandler expone el ledger (receive/issue/adjust) y las consultas de lotes y movimientos.
type StockHandler struct {
	ledger *inventory.StockLedgerUseCase
	query  *inventory.StockQueryUseCase
	report *inventory.ExpiryReportUseCase
	log    zerolog.Logger
}

// NewStockHandler construye el handler.
func NewStockHandler(
	ledger *inventory.StockLedgerUseCase,
	query *inventory.StockQueryUseCase,
	report *inventory.ExpiryReportUseCase,
	log zerolog.Logger,
) *StockHandler {
	return &StockHandler{ledger: ledger, query: query, report: report, log: log}
}

// Receive godoc
// @Summary      Recibir stock en un lote
// @Description  Crea el lote si (itemId, batchNumber) no existe; si existe suma a la cantidad actual.
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.ReceiveRequest  true  "itemId, batchNumber, quantity > 0, expiryDate opcional (YYYY-MM-DD)"
// @Success      201   {object}  dto.LedgerResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/stock/receive [post]
func (h *StockHandler) Receive(c *fiber.Ctx) error {
	var in dto.ReceiveRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	res, err := h.ledger.Receive(c.UserContext(), inventory.ReceiveInput{
		ItemID:      in.ItemID,
		BatchNumber: in.BatchNumber,
		Quantity:    in.Quantity,
		ExpiryDate:  in.ExpiryDate.Ptr(),
		Reference:   in.Reference,
		Notes:       in.Notes,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toLedgerResponse(res))
}

// Issue godoc
// @Summary      Dar salida de stock de un lote
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.IssueRequest  true  "batchId, quantity > 0"
// @Success      200   {object}  dto.LedgerResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/stock/issue [post]
func (h *StockHandler) Issue(c *fiber.Ctx) error {
	var in dto.IssueRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	res, err := h.ledger.Issue(c.UserContext(), inventory.IssueInput{
		BatchID:   in.BatchID,
		Quantity:  in.Quantity,
		Reference: in.Reference,
		Notes:     in.Notes,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(toLedgerResponse(res))
}

// Adjust godoc
// @Summary      Ajustar stock de un lote
// @Description  adjustmentQuantity positivo se registra como adjust, negativo como write_off.
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.AdjustRequest  true  "batchId, adjustmentQuantity != 0"
// @Success      200   {object}  dto.LedgerResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/stock/adjust [post]
func (h *StockHandler) Adjust(c *fiber.Ctx) error {
	var in dto.AdjustRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	res, err := h.ledger.Adjust(c.UserContext(), inventory.AdjustInput{
		BatchID:            in.BatchID,
		AdjustmentQuantity: in.AdjustmentQuantity,
		Reference:          in.Reference,
		Notes:              in.Notes,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(toLedgerResponse(res))
}

// ListBatches godoc
// @Summary      Listar lotes
// @Tags         stock
// @Produce      json
// @Param        itemId         query  string  false  "UUID del artículo"
// @Param        batchNumber    query  string  false  "Coincidencia parcial"
// @Param        hasStock       query  bool    false  "true: con stock, false: agotados"
// @Param        sortBy         query  string  false  "expiry_date | created_at | batch_number | current_quantity"
// @Param        sortDirection  query  string  false  "asc | desc"
// @Success      200  {array}   dto.BatchResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stock/batches [get]
func (h *StockHandler) ListBatches(c *fiber.Ctx) error {
	filter := repository.BatchFilter{
		ItemID:        c.Query("itemId"),
		BatchNumber:   c.Query("batchNumber"),
		SortBy:        c.Query("sortBy"),
		SortDirection: c.Query("sortDirection"),
	}
	if raw := c.Query("hasStock"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return badRequest(c, "VALIDATION", "hasStock debe ser true o false")
		}
		filter.HasStock = &v
	}
	list, err := h.query.ListBatches(c.UserContext(), filter)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(list)
}

// GetBatch godoc
// @Summary      Obtener lote por ID
// @Tags         stock
// @Produce      json
// @Param        id   path      string  true  "Batch ID"
// @Success      200  {object}  dto.BatchResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/batches/{id} [get]
func (h *StockHandler) GetBatch(c *fiber.Ctx) error {
	out, err := h.query.GetBatch(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// ListExpiring godoc
// @Summary      Lotes por vencer
// @Description  Lotes con stock cuyo vencimiento es hoy + days o antes (incluye vencidos).
// @Tags         stock
// @Produce      json
// @Param        days  query     int  false  "Ventana en días (default 30)"
// @Success      200   {array}   dto.BatchResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/stock/expiring [get]
func (h *StockHandler) ListExpiring(c *fiber.Ctx) error {
	days, err := queryDays(c)
	if err != nil {
		return badRequest(c, "VALIDATION", "days debe ser un entero >= 0")
	}
	list, err := h.query.ListExpiring(c.UserContext(), days)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(list)
}

// ExpiryReport godoc
// @Summary      Reporte PDF de lotes por vencer
// @Tags         stock
// @Produce      application/pdf
// @Param        days  query     int  false  "Ventana en días (default 30)"
// @Success      200   {file}    file
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /api/stock/expiring/report.pdf [get]
func (h *StockHandler) ExpiryReport(c *fiber.Ctx) error {
	days, err := queryDays(c)
	if err != nil {
		return badRequest(c, "VALIDATION", "days debe ser un entero >= 0")
	}
	pdfBytes, filename, err := h.report.Download(c.UserContext(), days)
	if err != nil {
		return respondError(c, h.log, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(pdfBytes)
}

// ListMovements godoc
// @Summary      Consultar el ledger de movimientos
// @Tags         stock
// @Produce      json
// @Param        batchId        query  string  false  "UUID del lote"
// @Param        itemId         query  string  false  "UUID del artículo"
// @Param        movementType   query  string  false  "receive | issue | adjust | write_off"
// @Param        reference      query  string  false  "Coincidencia parcial"
// @Param        startDate      query  string  false  "YYYY-MM-DD"
// @Param        endDate        query  string  false  "YYYY-MM-DD (inclusivo)"
// @Param        sortBy         query  string  false  "created_at | movement_type | quantity"
// @Param        sortDirection  query  string  false  "asc | desc"
// @Success      200  {array}   dto.MovementResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stock/movements [get]
func (h *StockHandler) ListMovements(c *fiber.Ctx) error {
	start, end, err := queryRange(c)
	if err != nil {
		return badRequest(c, "VALIDATION", "fechas en formato YYYY-MM-DD")
	}
	list, err := h.query.ListMovements(c.UserContext(), repository.MovementFilter{
		BatchID:       c.Query("batchId"),
		ItemID:        c.Query("itemId"),
		Type:          c.Query("movementType"),
		Reference:     c.Query("reference"),
		StartDate:     start,
		EndDate:       end,
		SortBy:        c.Query("sortBy"),
		SortDirection: c.Query("sortDirection"),
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(list)
}

// GetMovement godoc
// @Summary      Obtener movimiento por ID
// @Tags         stock
// @Produce      json
// @Param        id   path      string  true  "Movement ID"
// @Success      200  {object}  dto.MovementResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/movements/{id} [get]
func (h *StockHandler) GetMovement(c *fiber.Ctx) error {
	out, err := h.query.GetMovement(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// Summarize godoc
// @Summary      Resumen de movimientos por periodo
// @Description  Totales y conteos por bucket (day | week ISO | month, en UTC) y tipo de movimiento.
// @Tags         stock
// @Produce      json
// @Param        period     query  string  false  "day | week | month (default day)"
// @Param        startDate  query  string  false  "YYYY-MM-DD"
// @Param        endDate    query  string  false  "YYYY-MM-DD (inclusivo)"
// @Success      200  {array}   dto.SummaryResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stock/movements/summary [get]
func (h *StockHandler) Summarize(c *fiber.Ctx) error {
	start, end, err := queryRange(c)
	if err != nil {
		return badRequest(c, "VALIDATION", "fechas en formato YYYY-MM-DD")
	}
	rows, err := h.query.Summarize(c.UserContext(), repository.SummaryFilter{
		Period:    c.Query("period"),
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(rows)
}

func toLedgerResponse(res *inventory.LedgerResult) dto.LedgerResponse {
	return dto.LedgerResponse{
		Batch:    dto.NewBatchResponse(res.Batch),
		Movement: dto.NewMovementResponse(res.Movement),
	}
}

func queryDays(c *fiber.Ctx) (int, error) {
	raw := c.Query("days")
	if raw == "" {
		return inventory.DefaultExpiringDays, nil
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days < 0 {
		return 0, strconv.ErrSyntax
	}
	return days, nil
}

func queryRange(c *fiber.Ctx) (start, end *time.Time, err error) {
	if start, err = queryDate(c, "startDate"); err != nil {
		return nil, nil, err
	}
	if end, err = queryDate(c, "endDate"); err != nil {
		return nil, nil, err
	}
	return start, end, nil
}

func queryDate(c *fiber.Ctx, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	d, err := dto.ParseDate(raw)
	if err != nil {
		return nil, err
	}
	return d.Ptr(), nil
}
