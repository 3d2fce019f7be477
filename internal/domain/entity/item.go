package entity

import "time"

// Item representa un artículo almacenable del catálogo.
// Nunca se borra físicamente: "eliminar" solo pone Active en false, porque los lotes lo referencian.
type Item struct {
	ID          string
	Name        string
	SKU         string // opcional, no necesariamente único
	Description string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
