package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

const movementViewColumns = `m.id, m.batch_id, m.movement_type, m.quantity, m.reference, m.notes, m.created_at,
	b.batch_number, b.item_id, i.name, i.sku`

const movementViewFrom = ` FROM stock_movements m
	JOIN stock_batches b ON b.id = m.batch_id
	JOIN items i ON i.id = b.item_id`

var movementSortColumns = map[string]string{
	repository.MovementSortCreatedAt: "m.created_at",
	repository.MovementSortType:      "m.movement_type",
	repository.MovementSortQuantity:  "m.quantity",
}

// MovementRepo implementación del ledger sobre PostgreSQL (usable con pool o tx). Solo inserta, nunca actualiza.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

// Append persiste un movimiento del ledger.
func (r *MovementRepo) Append(ctx context.Context, movement *entity.StockMovement) error {
	if movement.ID == "" {
		movement.ID = uuid.New().String()
	}
	query := `
		INSERT INTO stock_movements (id, batch_id, movement_type, quantity, reference, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`
	err := r.q.QueryRow(ctx, query,
		movement.ID, movement.BatchID, movement.Type, movement.Quantity,
		movement.Reference, movement.Notes,
	).Scan(&movement.CreatedAt)
	if err != nil {
		return classifyError("append movement", err)
	}
	return nil
}

// GetByID obtiene un movimiento con los datos del lote y del artículo.
func (r *MovementRepo) GetByID(ctx context.Context, id string) (*repository.MovementView, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	query := `SELECT ` + movementViewColumns + movementViewFrom + ` WHERE m.id = $1`
	v, err := scanMovementView(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, classifyError("get movement", err)
	}
	return v, nil
}

// Query consulta el ledger según el filtro (debe venir normalizado).
func (r *MovementRepo) Query(ctx context.Context, filter repository.MovementFilter) ([]repository.MovementView, error) {
	sortCol, ok := movementSortColumns[filter.SortBy]
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
	for _, id := range []struct{ col, val string }{{"m.batch_id", filter.BatchID}, {"b.item_id", filter.ItemID}} {
		if id.val == "" {
			continue
		}
		if _, err := uuid.Parse(id.val); err != nil {
			return []repository.MovementView{}, nil
		}
		where = append(where, id.col+" = "+arg(id.val))
	}
	if filter.Type != "" {
		where = append(where, "m.movement_type = "+arg(filter.Type))
	}
	if filter.Reference != "" {
		where = append(where, "m.reference ILIKE "+arg("%"+escapeLike(filter.Reference)+"%"))
	}
	if filter.StartDate != nil {
		where = append(where, "m.created_at >= "+arg(*filter.StartDate))
	}
	if end := filter.EndExclusive(); end != nil {
		where = append(where, "m.created_at < "+arg(*end))
	}

	query := `SELECT ` + movementViewColumns + movementViewFrom
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	dir := "ASC"
	if filter.SortDirection == repository.SortDesc {
		dir = "DESC"
	}
	query += " ORDER BY " + sortCol + " " + dir + ", m.id " + dir

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, classifyError("query movements", err)
	}
	defer rows.Close()
	list := make([]repository.MovementView, 0)
	for rows.Next() {
		v, err := scanMovementView(rows)
		if err != nil {
			return nil, classifyError("scan movement", err)
		}
		list = append(list, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyError("query movements", err)
	}
	return list, nil
}

// Summarize agrupa por date_trunc(period) y tipo; suma la cantidad con signo y cuenta filas.
func (r *MovementRepo) Summarize(ctx context.Context, filter repository.SummaryFilter) ([]repository.SummaryRow, error) {
	if !filter.Normalize() {
		return nil, domain.ErrInvalidInput
	}
	args := []any{filter.Period}
	var where []string
	if filter.StartDate != nil {
		args = append(args, *filter.StartDate)
		where = append(where, fmt.Sprintf("m.created_at >= $%d", len(args)))
	}
	if end := filter.EndExclusive(); end != nil {
		args = append(args, *end)
		where = append(where, fmt.Sprintf("m.created_at < $%d", len(args)))
	}

	query := `
		SELECT date_trunc($1::text, m.created_at) AS bucket, m.movement_type,
		       COALESCE(SUM(m.quantity), 0)::bigint, COUNT(*)
		FROM stock_movements m`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " GROUP BY bucket, m.movement_type ORDER BY bucket ASC, m.movement_type ASC"

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, classifyError("summarize movements", err)
	}
	defer rows.Close()
	out := make([]repository.SummaryRow, 0)
	for rows.Next() {
		var s repository.SummaryRow
		if err := rows.Scan(&s.BucketStart, &s.MovementType, &s.TotalQuantity, &s.Count); err != nil {
			return nil, classifyError("scan summary", err)
		}
		s.BucketStart = s.BucketStart.UTC()
		s.Period = repository.BucketLabel(filter.Period, s.BucketStart)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyError("summarize movements", err)
	}
	return out, nil
}

func scanMovementView(row pgx.Row) (*repository.MovementView, error) {
	var v repository.MovementView
	if err := row.Scan(&v.ID, &v.BatchID, &v.Type, &v.Quantity, &v.Reference, &v.Notes, &v.CreatedAt,
		&v.BatchNumber, &v.ItemID, &v.ItemName, &v.ItemSKU); err != nil {
		return nil, err
	}
	return &v, nil
}
