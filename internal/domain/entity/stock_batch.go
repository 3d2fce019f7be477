package entity

import "time"

// StockBatch representa un lote de un artículo, identificado por (ItemID, BatchNumber).
// InitialQuantity se fija en la primera recepción y no cambia; CurrentQuantity solo
// la modifica el motor de inventario y nunca queda negativa.
type StockBatch struct {
	ID              string
	ItemID          string
	BatchNumber     string
	ExpiryDate      *time.Time // nil = sin vencimiento
	InitialQuantity int64
	CurrentQuantity int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// HasStock indica si el lote tiene unidades disponibles.
func (b *StockBatch) HasStock() bool {
	return b.CurrentQuantity > 0
}
