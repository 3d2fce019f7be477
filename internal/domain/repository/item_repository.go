package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// ItemRepository define el puerto de persistencia para el catálogo de artículos (DIP).
type ItemRepository interface {
	Create(ctx context.Context, item *entity.Item) error
	// GetByID devuelve el artículo (activo o no); nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.Item, error)
	// Exists verifica existencia sin importar el flag Active.
	Exists(ctx context.Context, id string) (bool, error)
	// ListActive lista los artículos activos ordenados por nombre.
	ListActive(ctx context.Context) ([]*entity.Item, error)
	Update(ctx context.Context, item *entity.Item) error
	// Deactivate es el "delete" del catálogo: solo apaga Active.
	Deactivate(ctx context.Context, id string) error
}
