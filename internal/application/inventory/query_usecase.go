package inventory

import (
	"context"
	"strings"
	"time"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// DefaultExpiringDays ventana por defecto de ListExpiring.
const DefaultExpiringDays = 30

// StockQueryUseCase superficie de consulta de solo lectura sobre lotes y ledger.
type StockQueryUseCase struct {
	batchRepo repository.BatchRepository
	movRepo   repository.MovementRepository
	now       func() time.Time
}

// NewStockQueryUseCase construye el caso de uso de consultas.
func NewStockQueryUseCase(batchRepo repository.BatchRepository, movRepo repository.MovementRepository) *StockQueryUseCase {
	return &StockQueryUseCase{batchRepo: batchRepo, movRepo: movRepo, now: time.Now}
}

// WithClock reemplaza el reloj usado para calcular "hoy" en ListExpiring.
func (uc *StockQueryUseCase) WithClock(now func() time.Time) *StockQueryUseCase {
	uc.now = now
	return uc
}

// ListBatches lista lotes filtrados y ordenados (default expiry_date asc).
func (uc *StockQueryUseCase) ListBatches(ctx context.Context, filter repository.BatchFilter) ([]dto.BatchResponse, error) {
	filter.ItemID = strings.TrimSpace(filter.ItemID)
	filter.BatchNumber = strings.TrimSpace(filter.BatchNumber)
	if !filter.Normalize() {
		return nil, domain.ErrInvalidInput
	}
	list, err := uc.batchRepo.Query(ctx, filter)
	if err != nil {
		return nil, err
	}
	return dto.NewBatchListResponse(list), nil
}

// GetBatch obtiene un lote por ID.
func (uc *StockQueryUseCase) GetBatch(ctx context.Context, id string) (*dto.BatchResponse, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.ErrInvalidInput
	}
	v, err := uc.batchRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, domain.ErrBatchNotFound
	}
	out := dto.NewBatchViewResponse(*v)
	return &out, nil
}

// ListExpiring lotes con stock que vencen dentro de los próximos days días (incluye vencidos).
func (uc *StockQueryUseCase) ListExpiring(ctx context.Context, days int) ([]dto.BatchResponse, error) {
	list, err := uc.expiring(ctx, days)
	if err != nil {
		return nil, err
	}
	return dto.NewBatchListResponse(list), nil
}

func (uc *StockQueryUseCase) expiring(ctx context.Context, days int) ([]repository.BatchView, error) {
	if days < 0 {
		return nil, domain.ErrInvalidInput
	}
	return uc.batchRepo.FindExpiring(ctx, ExpiryCutoff(uc.now(), days))
}

// ListMovements consulta el ledger (default created_at desc).
func (uc *StockQueryUseCase) ListMovements(ctx context.Context, filter repository.MovementFilter) ([]dto.MovementResponse, error) {
	filter.BatchID = strings.TrimSpace(filter.BatchID)
	filter.ItemID = strings.TrimSpace(filter.ItemID)
	filter.Reference = strings.TrimSpace(filter.Reference)
	if !filter.Normalize() {
		return nil, domain.ErrInvalidInput
	}
	if end := filter.EndExclusive(); filter.StartDate != nil && end != nil && !end.After(*filter.StartDate) {
		return nil, domain.ErrInvalidInput
	}
	list, err := uc.movRepo.Query(ctx, filter)
	if err != nil {
		return nil, err
	}
	return dto.NewMovementListResponse(list), nil
}

// GetMovement obtiene un movimiento por ID.
func (uc *StockQueryUseCase) GetMovement(ctx context.Context, id string) (*dto.MovementResponse, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.ErrInvalidInput
	}
	v, err := uc.movRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, domain.ErrMovementNotFound
	}
	out := dto.NewMovementViewResponse(*v)
	return &out, nil
}

// Summarize totales por periodo y tipo de movimiento, ordenados por bucket y tipo.
func (uc *StockQueryUseCase) Summarize(ctx context.Context, filter repository.SummaryFilter) ([]dto.SummaryResponse, error) {
	if !filter.Normalize() {
		return nil, domain.ErrInvalidInput
	}
	if end := filter.EndExclusive(); filter.StartDate != nil && end != nil && !end.After(*filter.StartDate) {
		return nil, domain.ErrInvalidInput
	}
	rows, err := uc.movRepo.Summarize(ctx, filter)
	if err != nil {
		return nil, err
	}
	return dto.NewSummaryListResponse(rows), nil
}

// ExpiryCutoff fecha límite (UTC, sin hora) = hoy + days.
func ExpiryCutoff(now time.Time, days int) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, days)
}
