package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.ItemRepository = (*ItemRepo)(nil)

const itemColumns = `id, name, sku, description, active, created_at, updated_at`

// ItemRepo implementación del puerto ItemRepository sobre PostgreSQL (usable con pool o tx).
type ItemRepo struct {
	q Querier
}

// NewItemRepository construye el adaptador de persistencia para artículos. Pasar pool o tx (Querier).
func NewItemRepository(q Querier) *ItemRepo {
	return &ItemRepo{q: q}
}

// Create persiste un nuevo artículo activo.
func (r *ItemRepo) Create(ctx context.Context, item *entity.Item) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	item.Active = true
	query := `
		INSERT INTO items (id, name, sku, description, active)
		VALUES ($1, $2, $3, $4, TRUE)
		RETURNING created_at, updated_at`
	err := r.q.QueryRow(ctx, query, item.ID, item.Name, item.SKU, item.Description).
		Scan(&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return classifyError("insert item", err)
	}
	return nil
}

// GetByID obtiene un artículo por ID (activo o no).
func (r *ItemRepo) GetByID(ctx context.Context, id string) (*entity.Item, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	item, err := scanItem(r.q.QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, classifyError("get item", err)
	}
	return item, nil
}

// Exists verifica existencia sin importar el flag active.
func (r *ItemRepo) Exists(ctx context.Context, id string) (bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return false, nil
	}
	var exists bool
	if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM items WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, classifyError("item exists", err)
	}
	return exists, nil
}

// ListActive lista los artículos activos ordenados por nombre.
func (r *ItemRepo) ListActive(ctx context.Context) ([]*entity.Item, error) {
	rows, err := r.q.Query(ctx, `SELECT `+itemColumns+` FROM items WHERE active ORDER BY name, id`)
	if err != nil {
		return nil, classifyError("list items", err)
	}
	defer rows.Close()
	var list []*entity.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, classifyError("scan item", err)
		}
		list = append(list, item)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyError("list items", err)
	}
	return list, nil
}

// Update actualiza nombre, SKU, descripción y flag active. ErrItemNotFound si no existe.
func (r *ItemRepo) Update(ctx context.Context, item *entity.Item) error {
	query := `
		UPDATE items SET name = $2, sku = $3, description = $4, active = $5, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`
	err := r.q.QueryRow(ctx, query, item.ID, item.Name, item.SKU, item.Description, item.Active).
		Scan(&item.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrItemNotFound
		}
		return classifyError("update item", err)
	}
	return nil
}

// Deactivate apaga el flag active; los lotes siguen referenciando el artículo.
func (r *ItemRepo) Deactivate(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrItemNotFound
	}
	cmd, err := r.q.Exec(ctx, `UPDATE items SET active = FALSE, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return classifyError("deactivate item", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

func scanItem(row pgx.Row) (*entity.Item, error) {
	var it entity.Item
	if err := row.Scan(&it.ID, &it.Name, &it.SKU, &it.Description, &it.Active, &it.CreatedAt, &it.UpdatedAt); err != nil {
		return nil, err
	}
	return &it, nil
}
