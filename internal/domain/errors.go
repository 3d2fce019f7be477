package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrUnauthorized = errors.New("no autorizado")
	ErrForbidden    = errors.New("acceso denegado")

	ErrItemNotFound     = fmt.Errorf("artículo no encontrado: %w", ErrNotFound)
	ErrBatchNotFound    = fmt.Errorf("lote no encontrado: %w", ErrNotFound)
	ErrMovementNotFound = fmt.Errorf("movimiento no encontrado: %w", ErrNotFound)

	// ErrInvalidQuantity cantidad no positiva (receive/issue) o cero (adjust).
	ErrInvalidQuantity = fmt.Errorf("cantidad inválida: %w", ErrInvalidInput)

	ErrInsufficientStock     = errors.New("stock insuficiente en el lote")
	ErrNegativeStockRejected = errors.New("el ajuste dejaría el lote con stock negativo")

	// ErrConstraintViolation otro llamador creó el mismo (item, batch_number) primero.
	ErrConstraintViolation = errors.New("violación de restricción única")
	// ErrTransactionConflict lock timeout, deadlock o fallo de serialización.
	ErrTransactionConflict = errors.New("conflicto de transacción, reintente")
	// ErrUnexpected cualquier otro fallo de persistencia.
	ErrUnexpected = errors.New("error inesperado de persistencia")
)

// IsRetryable indica si el llamador puede reintentar la misma operación (con backoff).
// Solo ConstraintViolation y TransactionConflict son reintentables; el resto son errores de entrada.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConstraintViolation) || errors.Is(err, ErrTransactionConflict)
}
