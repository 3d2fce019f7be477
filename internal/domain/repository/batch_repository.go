package repository

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// Columnas de ordenamiento permitidas para lotes.
const (
	BatchSortExpiryDate      = "expiry_date"
	BatchSortCreatedAt       = "created_at"
	BatchSortBatchNumber     = "batch_number"
	BatchSortCurrentQuantity = "current_quantity"
)

// Direcciones de ordenamiento.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// BatchView es un lote desnormalizado con los datos del artículo.
type BatchView struct {
	entity.StockBatch
	ItemName string
	ItemSKU  string
}

// BatchFilter filtros explícitos para consultar lotes.
// Defaults (ver Normalize): SortBy = expiry_date, SortDirection = asc.
type BatchFilter struct {
	ItemID        string
	BatchNumber   string // coincidencia parcial
	HasStock      *bool  // true: >0, false: =0, nil: todos
	SortBy        string
	SortDirection string
}

// Normalize aplica defaults y valida columnas/dirección. Devuelve false si algún valor no es válido.
func (f *BatchFilter) Normalize() bool {
	if f.SortBy == "" {
		f.SortBy = BatchSortExpiryDate
	}
	if f.SortDirection == "" {
		f.SortDirection = SortAsc
	}
	switch f.SortBy {
	case BatchSortExpiryDate, BatchSortCreatedAt, BatchSortBatchNumber, BatchSortCurrentQuantity:
	default:
		return false
	}
	return f.SortDirection == SortAsc || f.SortDirection == SortDesc
}

// BatchRepository define el puerto de persistencia para lotes (DIP).
// Usable con pool o dentro de una transacción (ver inventory.TxRunner).
type BatchRepository interface {
	// FindByItemAndNumber busca el lote de un artículo; dentro de una tx bloquea la fila.
	// nil, nil si no existe.
	FindByItemAndNumber(ctx context.Context, itemID, batchNumber string) (*entity.StockBatch, error)
	// GetForUpdate obtiene el lote y bloquea la fila (SELECT FOR UPDATE). nil, nil si no existe.
	GetForUpdate(ctx context.Context, id string) (*entity.StockBatch, error)
	// Create inserta el lote y completa ID/timestamps. Devuelve domain.ErrConstraintViolation
	// si (item_id, batch_number) ya existe.
	Create(ctx context.Context, batch *entity.StockBatch) error
	// SetQuantity escribe la cantidad absoluta; el llamador la calcula a partir de una lectura en la misma tx.
	SetQuantity(ctx context.Context, id string, newQuantity int64) (*entity.StockBatch, error)

	GetByID(ctx context.Context, id string) (*BatchView, error)
	Query(ctx context.Context, filter BatchFilter) ([]BatchView, error)
	// FindExpiring lotes con expiry_date <= cutoff y stock > 0, por vencimiento ascendente.
	FindExpiring(ctx context.Context, cutoff time.Time) ([]BatchView, error)
}
