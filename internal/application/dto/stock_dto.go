package dto

import (
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// ReceiveRequest body para POST /api/stock/receive.
type ReceiveRequest struct {
	ItemID      string `json:"itemId"`
	BatchNumber string `json:"batchNumber"`
	Quantity    int64  `json:"quantity"`
	ExpiryDate  *Date  `json:"expiryDate,omitempty"`
	Reference   string `json:"reference,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

// IssueRequest body para POST /api/stock/issue.
type IssueRequest struct {
	BatchID   string `json:"batchId"`
	Quantity  int64  `json:"quantity"`
	Reference string `json:"reference,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

// AdjustRequest body para POST /api/stock/adjust.
type AdjustRequest struct {
	BatchID            string `json:"batchId"`
	AdjustmentQuantity int64  `json:"adjustmentQuantity"`
	Reference          string `json:"reference,omitempty"`
	Notes              string `json:"notes,omitempty"`
}

// BatchResponse salida de un lote (desnormalizado con nombre y SKU del artículo cuando aplica).
type BatchResponse struct {
	ID              string    `json:"id"`
	ItemID          string    `json:"itemId"`
	ItemName        string    `json:"itemName,omitempty"`
	ItemSKU         string    `json:"itemSku,omitempty"`
	BatchNumber     string    `json:"batchNumber"`
	ExpiryDate      *Date     `json:"expiryDate"`
	InitialQuantity int64     `json:"initialQuantity"`
	CurrentQuantity int64     `json:"currentQuantity"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// MovementResponse salida de un movimiento del ledger.
type MovementResponse struct {
	ID           string    `json:"id"`
	BatchID      string    `json:"batchId"`
	BatchNumber  string    `json:"batchNumber,omitempty"`
	ItemID       string    `json:"itemId,omitempty"`
	ItemName     string    `json:"itemName,omitempty"`
	ItemSKU      string    `json:"itemSku,omitempty"`
	MovementType string    `json:"movementType"`
	Quantity     int64     `json:"quantity"`
	Reference    string    `json:"reference,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// LedgerResponse resultado de receive/issue/adjust.
type LedgerResponse struct {
	Batch    BatchResponse    `json:"batch"`
	Movement MovementResponse `json:"movement"`
}

// SummaryResponse fila del resumen de movimientos por periodo.
type SummaryResponse struct {
	Period        string `json:"period"`
	MovementType  string `json:"movementType"`
	TotalQuantity int64  `json:"totalQuantity"`
	Count         int64  `json:"count"`
}

// NewBatchResponse mapea un lote de dominio.
func NewBatchResponse(b *entity.StockBatch) BatchResponse {
	return BatchResponse{
		ID:              b.ID,
		ItemID:          b.ItemID,
		BatchNumber:     b.BatchNumber,
		ExpiryDate:      DatePtr(b.ExpiryDate),
		InitialQuantity: b.InitialQuantity,
		CurrentQuantity: b.CurrentQuantity,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

// NewBatchViewResponse mapea un lote desnormalizado.
func NewBatchViewResponse(v repository.BatchView) BatchResponse {
	out := NewBatchResponse(&v.StockBatch)
	out.ItemName = v.ItemName
	out.ItemSKU = v.ItemSKU
	return out
}

// NewBatchListResponse mapea una lista; nunca devuelve nil para serializar [] en JSON.
func NewBatchListResponse(list []repository.BatchView) []BatchResponse {
	out := make([]BatchResponse, 0, len(list))
	for _, v := range list {
		out = append(out, NewBatchViewResponse(v))
	}
	return out
}

// NewMovementResponse mapea un movimiento de dominio.
func NewMovementResponse(m *entity.StockMovement) MovementResponse {
	return MovementResponse{
		ID:           m.ID,
		BatchID:      m.BatchID,
		MovementType: m.Type,
		Quantity:     m.Quantity,
		Reference:    m.Reference,
		Notes:        m.Notes,
		CreatedAt:    m.CreatedAt,
	}
}

// NewMovementViewResponse mapea un movimiento desnormalizado.
func NewMovementViewResponse(v repository.MovementView) MovementResponse {
	out := NewMovementResponse(&v.StockMovement)
	out.BatchNumber = v.BatchNumber
	out.ItemID = v.ItemID
	out.ItemName = v.ItemName
	out.ItemSKU = v.ItemSKU
	return out
}

// NewMovementListResponse mapea una lista de movimientos.
func NewMovementListResponse(list []repository.MovementView) []MovementResponse {
	out := make([]MovementResponse, 0, len(list))
	for _, v := range list {
		out = append(out, NewMovementViewResponse(v))
	}
	return out
}

// NewSummaryListResponse mapea las filas del resumen.
func NewSummaryListResponse(rows []repository.SummaryRow) []SummaryResponse {
	out := make([]SummaryResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, SummaryResponse{
			Period:        r.Period,
			MovementType:  r.MovementType,
			TotalQuantity: r.TotalQuantity,
			Count:         r.Count,
		})
	}
	return out
}
