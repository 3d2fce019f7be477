package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.BatchRepository = (*BatchRepo)(nil)

const batchColumns = `b.id, b.item_id, b.batch_number, b.expiry_date, b.initial_quantity, b.current_quantity, b.created_at, b.updated_at`

// Columnas de ordenamiento → SQL. Solo se interpolan valores de esta tabla.
var batchSortColumns = map[string]string{
	repository.BatchSortExpiryDate:      "b.expiry_date",
	repository.BatchSortCreatedAt:       "b.created_at",
	repository.BatchSortBatchNumber:     "b.batch_number",
	repository.BatchSortCurrentQuantity: "b.current_quantity",
}

// BatchRepo implementación de BatchRepository sobre PostgreSQL (usable con pool o tx).
type BatchRepo struct {
	q Querier
}

// NewBatchRepository construye el adaptador de lotes. Pasar pool o tx (Querier).
func NewBatchRepository(q Querier) *BatchRepo {
	return &BatchRepo{q: q}
}

// FindByItemAndNumber busca el lote y bloquea la fila (SELECT FOR UPDATE). nil, nil si no existe.
func (r *BatchRepo) FindByItemAndNumber(ctx context.Context, itemID, batchNumber string) (*entity.StockBatch, error) {
	if _, err := uuid.Parse(itemID); err != nil {
		return nil, nil
	}
	query := `SELECT ` + batchColumns + ` FROM stock_batches b
		WHERE b.item_id = $1 AND b.batch_number = $2
		FOR UPDATE`
	b, err := scanBatch(r.q.QueryRow(ctx, query, itemID, batchNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, classifyError("find batch for update", err)
	}
	return b, nil
}

// GetForUpdate obtiene el lote y bloquea la fila para update (SELECT FOR UPDATE).
func (r *BatchRepo) GetForUpdate(ctx context.Context, id string) (*entity.StockBatch, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	query := `SELECT ` + batchColumns + ` FROM stock_batches b WHERE b.id = $1 FOR UPDATE`
	b, err := scanBatch(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, classifyError("get batch for update", err)
	}
	return b, nil
}

// Create inserta el lote. La restricción UNIQUE (item_id, batch_number) resuelve dos
// primeras recepciones concurrentes: la segunda recibe domain.ErrConstraintViolation.
func (r *BatchRepo) Create(ctx context.Context, batch *entity.StockBatch) error {
	if batch.ID == "" {
		batch.ID = uuid.New().String()
	}
	query := `
		INSERT INTO stock_batches (id, item_id, batch_number, expiry_date, initial_quantity, current_quantity)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`
	err := r.q.QueryRow(ctx, query,
		batch.ID, batch.ItemID, batch.BatchNumber, batch.ExpiryDate,
		batch.InitialQuantity, batch.CurrentQuantity,
	).Scan(&batch.CreatedAt, &batch.UpdatedAt)
	if err != nil {
		return classifyError("insert batch", err)
	}
	return nil
}

// SetQuantity escribe la cantidad absoluta calculada por el motor.
func (r *BatchRepo) SetQuantity(ctx context.Context, id string, newQuantity int64) (*entity.StockBatch, error) {
	query := `
		UPDATE stock_batches b SET current_quantity = $2, updated_at = now()
		WHERE b.id = $1
		RETURNING ` + batchColumns
	b, err := scanBatch(r.q.QueryRow(ctx, query, id, newQuantity))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBatchNotFound
		}
		return nil, classifyError("update batch quantity", err)
	}
	return b, nil
}

// GetByID obtiene un lote con los datos del artículo.
func (r *BatchRepo) GetByID(ctx context.Context, id string) (*repository.BatchView, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	query := `SELECT ` + batchColumns + `, i.name, i.sku
		FROM stock_batches b JOIN items i ON i.id = b.item_id
		WHERE b.id = $1`
	v, err := scanBatchView(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, classifyError("get batch", err)
	}
	return v, nil
}

// Query lista lotes según el filtro. El filtro debe venir normalizado (ver BatchFilter.Normalize).
func (r *BatchRepo) Query(ctx context.Context, filter repository.BatchFilter) ([]repository.BatchView, error) {
	sortCol, ok := batchSortColumns[filter.SortBy]
	if !ok {
		return nil, domain.ErrInvalidInput
	}

	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.ItemID != "" {
		if _, err := uuid.Parse(filter.ItemID); err != nil {
			return []repository.BatchView{}, nil
		}
		where = append(where, "b.item_id = "+arg(filter.ItemID))
	}
	if filter.BatchNumber != "" {
		where = append(where, "b.batch_number ILIKE "+arg("%"+escapeLike(filter.BatchNumber)+"%"))
	}
	if filter.HasStock != nil {
		if *filter.HasStock {
			where = append(where, "b.current_quantity > 0")
		} else {
			where = append(where, "b.current_quantity = 0")
		}
	}

	query := `SELECT ` + batchColumns + `, i.name, i.sku
		FROM stock_batches b JOIN items i ON i.id = b.item_id`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY " + orderClause(sortCol, filter.SortDirection) + ", b.id"

	return r.queryViews(ctx, "query batches", query, args...)
}

// FindExpiring lotes con stock que vencen en o antes de cutoff, por vencimiento ascendente.
func (r *BatchRepo) FindExpiring(ctx context.Context, cutoff time.Time) ([]repository.BatchView, error) {
	query := `SELECT ` + batchColumns + `, i.name, i.sku
		FROM stock_batches b JOIN items i ON i.id = b.item_id
		WHERE b.expiry_date IS NOT NULL
		  AND b.expiry_date <= $1::date
		  AND b.current_quantity > 0
		ORDER BY b.expiry_date ASC, b.id`
	return r.queryViews(ctx, "find expiring batches", query, cutoff.Format("2006-01-02"))
}

func (r *BatchRepo) queryViews(ctx context.Context, op, query string, args ...any) ([]repository.BatchView, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, classifyError(op, err)
	}
	defer rows.Close()
	list := make([]repository.BatchView, 0)
	for rows.Next() {
		v, err := scanBatchView(rows)
		if err != nil {
			return nil, classifyError(op, err)
		}
		list = append(list, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyError(op, err)
	}
	return list, nil
}

func scanBatch(row pgx.Row) (*entity.StockBatch, error) {
	var b entity.StockBatch
	if err := row.Scan(&b.ID, &b.ItemID, &b.BatchNumber, &b.ExpiryDate,
		&b.InitialQuantity, &b.CurrentQuantity, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

func scanBatchView(row pgx.Row) (*repository.BatchView, error) {
	var v repository.BatchView
	if err := row.Scan(&v.ID, &v.ItemID, &v.BatchNumber, &v.ExpiryDate,
		&v.InitialQuantity, &v.CurrentQuantity, &v.CreatedAt, &v.UpdatedAt,
		&v.ItemName, &v.ItemSKU); err != nil {
		return nil, err
	}
	return &v, nil
}

// orderClause: NULL va al final en asc y al inicio en desc (default de PostgreSQL, explícito aquí).
func orderClause(col, dir string) string {
	if dir == repository.SortDesc {
		return col + " DESC NULLS FIRST"
	}
	return col + " ASC NULLS LAST"
}

// escapeLike escapa los comodines de LIKE en texto del usuario.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
