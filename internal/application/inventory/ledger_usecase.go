package inventory

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

const instrumentationName = "github.com/jhoicas/stock-ledger/internal/application/inventory"

// ReceiveInput entrada para recibir stock en un lote (nuevo o existente).
type ReceiveInput struct {
	ItemID      string
	BatchNumber string
	Quantity    int64
	ExpiryDate  *time.Time // solo se usa si el lote no existe
	Reference   string
	Notes       string
}

// IssueInput entrada para una salida de un lote indicado por el llamador.
type IssueInput struct {
	BatchID   string
	Quantity  int64
	Reference string
	Notes     string
}

// AdjustInput entrada para un ajuste con signo (positivo = adjust, negativo = write_off).
type AdjustInput struct {
	BatchID            string
	AdjustmentQuantity int64
	Reference          string
	Notes              string
}

// LedgerResult estado del lote y movimiento registrados en la misma transacción.
type LedgerResult struct {
	Batch    *entity.StockBatch
	Movement *entity.StockMovement
}

// StockLedgerUseCase es el motor del ledger de stock: receive, issue y adjust.
// Cada operación lee el lote con bloqueo de fila, calcula la nueva cantidad, la escribe
// y agrega exactamente un movimiento, todo dentro de una sola transacción (TxRunner).
// No guarda estado mutable propio; es seguro compartirlo entre goroutines.
type StockLedgerUseCase struct {
	txRunner TxRunner
	itemRepo repository.ItemRepository
	log      zerolog.Logger

	tracer    trace.Tracer
	movements metric.Int64Counter
	rejected  metric.Int64Counter
}

// NewStockLedgerUseCase construye el motor. Las métricas y trazas usan los providers globales de OpenTelemetry.
func NewStockLedgerUseCase(txRunner TxRunner, itemRepo repository.ItemRepository, log zerolog.Logger) *StockLedgerUseCase {
	meter := otel.Meter(instrumentationName)
	movements, _ := meter.Int64Counter("stock_ledger.movements",
		metric.WithDescription("Movimientos confirmados en el ledger"))
	rejected, _ := meter.Int64Counter("stock_ledger.rejections",
		metric.WithDescription("Operaciones rechazadas por validación, invariantes o conflictos"))
	return &StockLedgerUseCase{
		txRunner:  txRunner,
		itemRepo:  itemRepo,
		log:       log,
		tracer:    otel.Tracer(instrumentationName),
		movements: movements,
		rejected:  rejected,
	}
}

// Receive registra una entrada. Si (ItemID, BatchNumber) no existe crea el lote con
// initial = current = Quantity; si existe suma a current sin tocar initial ni vencimiento.
func (uc *StockLedgerUseCase) Receive(ctx context.Context, in ReceiveInput) (*LedgerResult, error) {
	ctx, span := uc.tracer.Start(ctx, "StockLedger.Receive", trace.WithAttributes(
		attribute.String("item.id", in.ItemID),
		attribute.String("batch.number", in.BatchNumber),
		attribute.Int64("quantity", in.Quantity),
	))
	defer span.End()

	res, err := uc.receive(ctx, in)
	return uc.finish(ctx, span, entity.MovementTypeReceive, res, err)
}

func (uc *StockLedgerUseCase) receive(ctx context.Context, in ReceiveInput) (*LedgerResult, error) {
	in.ItemID = strings.TrimSpace(in.ItemID)
	in.BatchNumber = strings.TrimSpace(in.BatchNumber)
	if in.ItemID == "" || in.BatchNumber == "" {
		return nil, domain.ErrInvalidInput
	}
	if in.Quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	exists, err := uc.itemRepo.Exists(ctx, in.ItemID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrItemNotFound
	}

	var res LedgerResult
	err = uc.txRunner.Run(ctx, func(ctx context.Context, batchRepo repository.BatchRepository, movRepo repository.MovementRepository) error {
		// Bloquea la fila del lote si ya existe (SELECT FOR UPDATE)
		batch, err := batchRepo.FindByItemAndNumber(ctx, in.ItemID, in.BatchNumber)
		if err != nil {
			return err
		}
		if batch == nil {
			// Dos primeras recepciones concurrentes: la restricción única decide (ErrConstraintViolation).
			batch = &entity.StockBatch{
				ItemID:          in.ItemID,
				BatchNumber:     in.BatchNumber,
				ExpiryDate:      truncateDate(in.ExpiryDate),
				InitialQuantity: in.Quantity,
				CurrentQuantity: in.Quantity,
			}
			if err := batchRepo.Create(ctx, batch); err != nil {
				return err
			}
		} else {
			if batch.CurrentQuantity > math.MaxInt64-in.Quantity {
				return domain.ErrInvalidQuantity
			}
			batch, err = batchRepo.SetQuantity(ctx, batch.ID, batch.CurrentQuantity+in.Quantity)
			if err != nil {
				return err
			}
		}

		mov := &entity.StockMovement{
			BatchID:   batch.ID,
			Type:      entity.MovementTypeReceive,
			Quantity:  in.Quantity,
			Reference: in.Reference,
			Notes:     in.Notes,
		}
		if err := movRepo.Append(ctx, mov); err != nil {
			return err
		}
		res = LedgerResult{Batch: batch, Movement: mov}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Issue descuenta Quantity del lote. La verificación de stock se hace sobre la fila
// bloqueada dentro de la misma transacción, por lo que dos salidas concurrentes no pueden
// dejar el lote en negativo.
func (uc *StockLedgerUseCase) Issue(ctx context.Context, in IssueInput) (*LedgerResult, error) {
	ctx, span := uc.tracer.Start(ctx, "StockLedger.Issue", trace.WithAttributes(
		attribute.String("batch.id", in.BatchID),
		attribute.Int64("quantity", in.Quantity),
	))
	defer span.End()

	res, err := uc.issue(ctx, in)
	return uc.finish(ctx, span, entity.MovementTypeIssue, res, err)
}

func (uc *StockLedgerUseCase) issue(ctx context.Context, in IssueInput) (*LedgerResult, error) {
	in.BatchID = strings.TrimSpace(in.BatchID)
	if in.BatchID == "" {
		return nil, domain.ErrInvalidInput
	}
	if in.Quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	return uc.applyDelta(ctx, in.BatchID, -in.Quantity, entity.MovementTypeIssue, in.Reference, in.Notes, domain.ErrInsufficientStock)
}

// Adjust aplica una corrección con signo. Positiva se registra como adjust, negativa como write_off.
func (uc *StockLedgerUseCase) Adjust(ctx context.Context, in AdjustInput) (*LedgerResult, error) {
	ctx, span := uc.tracer.Start(ctx, "StockLedger.Adjust", trace.WithAttributes(
		attribute.String("batch.id", in.BatchID),
		attribute.Int64("quantity", in.AdjustmentQuantity),
	))
	defer span.End()

	res, err := uc.adjust(ctx, in)
	return uc.finish(ctx, span, entity.AdjustmentType(in.AdjustmentQuantity), res, err)
}

func (uc *StockLedgerUseCase) adjust(ctx context.Context, in AdjustInput) (*LedgerResult, error) {
	in.BatchID = strings.TrimSpace(in.BatchID)
	if in.BatchID == "" {
		return nil, domain.ErrInvalidInput
	}
	if in.AdjustmentQuantity == 0 {
		return nil, domain.ErrInvalidQuantity
	}
	mt := entity.AdjustmentType(in.AdjustmentQuantity)
	return uc.applyDelta(ctx, in.BatchID, in.AdjustmentQuantity, mt, in.Reference, in.Notes, domain.ErrNegativeStockRejected)
}

// applyDelta: bloquea el lote, valida que current+delta >= 0 (si no, devuelve errBelowZero),
// escribe la nueva cantidad y agrega el movimiento.
func (uc *StockLedgerUseCase) applyDelta(
	ctx context.Context,
	batchID string,
	delta int64,
	movementType, reference, notes string,
	errBelowZero error,
) (*LedgerResult, error) {
	var res LedgerResult
	err := uc.txRunner.Run(ctx, func(ctx context.Context, batchRepo repository.BatchRepository, movRepo repository.MovementRepository) error {
		batch, err := batchRepo.GetForUpdate(ctx, batchID)
		if err != nil {
			return err
		}
		if batch == nil {
			return domain.ErrBatchNotFound
		}
		if delta > 0 && batch.CurrentQuantity > math.MaxInt64-delta {
			return domain.ErrInvalidQuantity
		}
		newQty := batch.CurrentQuantity + delta
		if newQty < 0 {
			return errBelowZero
		}
		batch, err = batchRepo.SetQuantity(ctx, batch.ID, newQty)
		if err != nil {
			return err
		}
		mov := &entity.StockMovement{
			BatchID:   batch.ID,
			Type:      movementType,
			Quantity:  delta,
			Reference: reference,
			Notes:     notes,
		}
		if err := movRepo.Append(ctx, mov); err != nil {
			return err
		}
		res = LedgerResult{Batch: batch, Movement: mov}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// finish registra traza, métrica y log de la operación y devuelve el resultado tal cual.
func (uc *StockLedgerUseCase) finish(ctx context.Context, span trace.Span, movementType string, res *LedgerResult, err error) (*LedgerResult, error) {
	typeAttr := attribute.String("movement.type", movementType)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		uc.rejected.Add(ctx, 1, metric.WithAttributes(typeAttr, attribute.String("reason", rejectionReason(err))))
		if domain.IsRetryable(err) {
			uc.log.Warn().Err(err).Str("movement_type", movementType).Msg("operación de stock reintentable")
		}
		return nil, err
	}
	span.SetAttributes(
		attribute.String("batch.id", res.Batch.ID),
		attribute.String("movement.id", res.Movement.ID),
		attribute.Int64("batch.current_quantity", res.Batch.CurrentQuantity),
	)
	uc.movements.Add(ctx, 1, metric.WithAttributes(typeAttr))
	uc.log.Debug().
		Str("batch_id", res.Batch.ID).
		Str("movement_id", res.Movement.ID).
		Str("movement_type", res.Movement.Type).
		Int64("quantity", res.Movement.Quantity).
		Int64("current_quantity", res.Batch.CurrentQuantity).
		Msg("movimiento registrado")
	return res, nil
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid_argument"
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrNegativeStockRejected):
		return "negative_stock"
	case errors.Is(err, domain.ErrConstraintViolation):
		return "constraint_violation"
	case errors.Is(err, domain.ErrTransactionConflict):
		return "transaction_conflict"
	default:
		return "unexpected"
	}
}

func truncateDate(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &d
}
