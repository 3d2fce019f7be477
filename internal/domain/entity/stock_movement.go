package entity

import "time"

// Tipos de movimiento del ledger.
const (
	MovementTypeReceive  = "receive"   // entrada
	MovementTypeIssue    = "issue"     // salida
	MovementTypeAdjust   = "adjust"    // ajuste positivo
	MovementTypeWriteOff = "write_off" // ajuste negativo (merma, baja)
)

// MovementTypes lista los tipos válidos, en el orden en que se reportan.
var MovementTypes = []string{
	MovementTypeReceive,
	MovementTypeIssue,
	MovementTypeAdjust,
	MovementTypeWriteOff,
}

// IsValidMovementType verifica que t sea uno de los tipos conocidos.
func IsValidMovementType(t string) bool {
	for _, mt := range MovementTypes {
		if mt == t {
			return true
		}
	}
	return false
}

// AdjustmentType deriva el tipo de movimiento de un ajuste a partir del signo.
func AdjustmentType(delta int64) string {
	if delta > 0 {
		return MovementTypeAdjust
	}
	return MovementTypeWriteOff
}

// StockMovement representa una entrada inmutable del ledger.
// Quantity es el delta con signo aplicado al lote: positivo en receive/adjust,
// negativo en issue/write_off.
type StockMovement struct {
	ID        string
	BatchID   string
	Type      string
	Quantity  int64
	Reference string // id de correlación libre (orden, remisión, etc.)
	Notes     string
	CreatedAt time.Time
}

// SignMatchesType verifica la convención de signo del ledger para el tipo del movimiento.
func (m *StockMovement) SignMatchesType() bool {
	switch m.Type {
	case MovementTypeReceive, MovementTypeAdjust:
		return m.Quantity > 0
	case MovementTypeIssue, MovementTypeWriteOff:
		return m.Quantity < 0
	}
	return false
}
