package repository

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// Columnas de ordenamiento permitidas para movimientos.
const (
	MovementSortCreatedAt = "created_at"
	MovementSortType      = "movement_type"
	MovementSortQuantity  = "quantity"
)

// MovementView es un movimiento desnormalizado con datos del lote y del artículo.
type MovementView struct {
	entity.StockMovement
	BatchNumber string
	ItemID      string
	ItemName    string
	ItemSKU     string
}

// MovementFilter filtros explícitos para consultar el ledger.
// Defaults (ver Normalize): SortBy = created_at, SortDirection = desc.
type MovementFilter struct {
	BatchID   string
	ItemID    string
	Type      string
	Reference string     // coincidencia parcial
	StartDate *time.Time // created_at >= StartDate
	EndDate   *time.Time // día inclusivo: created_at < EndDate + 1 día

	SortBy        string
	SortDirection string
}

// Normalize aplica defaults y valida tipo, columna y dirección.
func (f *MovementFilter) Normalize() bool {
	if f.SortBy == "" {
		f.SortBy = MovementSortCreatedAt
	}
	if f.SortDirection == "" {
		f.SortDirection = SortDesc
	}
	if f.Type != "" && !entity.IsValidMovementType(f.Type) {
		return false
	}
	switch f.SortBy {
	case MovementSortCreatedAt, MovementSortType, MovementSortQuantity:
	default:
		return false
	}
	return f.SortDirection == SortAsc || f.SortDirection == SortDesc
}

// EndExclusive devuelve el límite superior exclusivo del rango (EndDate + 1 día).
func (f *MovementFilter) EndExclusive() *time.Time {
	return endExclusive(f.EndDate)
}

// MovementRepository define el puerto del ledger de movimientos (append-only).
type MovementRepository interface {
	// Append inserta el movimiento y completa ID/CreatedAt. No modifica otras filas.
	Append(ctx context.Context, movement *entity.StockMovement) error
	GetByID(ctx context.Context, id string) (*MovementView, error)
	Query(ctx context.Context, filter MovementFilter) ([]MovementView, error)
	Summarize(ctx context.Context, filter SummaryFilter) ([]SummaryRow, error)
}

func endExclusive(end *time.Time) *time.Time {
	if end == nil {
		return nil
	}
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	return &e
}
