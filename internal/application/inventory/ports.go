package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Garantiza atomicidad para el motor de inventario: si fn retorna error se hace Rollback completo,
// nunca queda un lote modificado sin su movimiento ni un movimiento sin su lote.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		ctx context.Context,
		batchRepo repository.BatchRepository,
		movRepo repository.MovementRepository,
	) error) error
}

// ExpiryReportGenerator genera la representación PDF del reporte de lotes por vencer.
type ExpiryReportGenerator interface {
	GenerateExpiryReport(
		ctx context.Context,
		generatedAt time.Time,
		days int,
		batches []repository.BatchView,
	) ([]byte, error)
}
