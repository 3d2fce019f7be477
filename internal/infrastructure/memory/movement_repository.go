package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo ledger en memoria (append-only).
type MovementRepo struct {
	s    *Store
	inTx bool
}

// NewMovementRepository construye el repositorio de lectura fuera de transacción.
func NewMovementRepository(s *Store) *MovementRepo {
	return &MovementRepo{s: s}
}

func (r *MovementRepo) Append(_ context.Context, movement *entity.StockMovement) error {
	defer lock(r.s, r.inTx)()
	if _, ok := r.s.batches[movement.BatchID]; !ok {
		return fmt.Errorf("append movement: %w: batch_id %s no existe", domain.ErrUnexpected, movement.BatchID)
	}
	if !movement.SignMatchesType() {
		return fmt.Errorf("append movement: %w: signo inválido para %s", domain.ErrUnexpected, movement.Type)
	}
	if movement.ID == "" {
		movement.ID = uuid.New().String()
	}
	movement.CreatedAt = r.s.now()
	r.s.movements = append(r.s.movements, *movement)
	return nil
}

func (r *MovementRepo) GetByID(_ context.Context, id string) (*repository.MovementView, error) {
	defer lock(r.s, r.inTx)()
	for _, m := range r.s.movements {
		if m.ID == id {
			v := r.view(m)
			return &v, nil
		}
	}
	return nil, nil
}

func (r *MovementRepo) Query(_ context.Context, filter repository.MovementFilter) ([]repository.MovementView, error) {
	if !filter.Normalize() {
		return nil, domain.ErrInvalidInput
	}
	defer lock(r.s, r.inTx)()

	end := filter.EndExclusive()
	ref := strings.ToLower(filter.Reference)
	list := make([]repository.MovementView, 0)
	for _, m := range r.s.movements {
		v := r.view(m)
		switch {
		case filter.BatchID != "" && m.BatchID != filter.BatchID,
			filter.ItemID != "" && v.ItemID != filter.ItemID,
			filter.Type != "" && m.Type != filter.Type,
			ref != "" && !strings.Contains(strings.ToLower(m.Reference), ref),
			filter.StartDate != nil && m.CreatedAt.Before(*filter.StartDate),
			end != nil && !m.CreatedAt.Before(*end):
			continue
		}
		list = append(list, v)
	}

	desc := filter.SortDirection == repository.SortDesc
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i], list[j]
		var c int
		switch filter.SortBy {
		case repository.MovementSortCreatedAt:
			c = a.CreatedAt.Compare(b.CreatedAt)
		case repository.MovementSortType:
			c = strings.Compare(a.Type, b.Type)
		case repository.MovementSortQuantity:
			c = compareInt(a.Quantity, b.Quantity)
		}
		if c == 0 {
			c = strings.Compare(a.ID, b.ID)
		}
		if desc {
			c = -c
		}
		return c < 0
	})
	return list, nil
}

func (r *MovementRepo) Summarize(_ context.Context, filter repository.SummaryFilter) ([]repository.SummaryRow, error) {
	if !filter.Normalize() {
		return nil, domain.ErrInvalidInput
	}
	defer lock(r.s, r.inTx)()

	type key struct {
		bucket time.Time
		mt     string
	}
	end := filter.EndExclusive()
	acc := make(map[key]*repository.SummaryRow)
	for _, m := range r.s.movements {
		if filter.StartDate != nil && m.CreatedAt.Before(*filter.StartDate) {
			continue
		}
		if end != nil && !m.CreatedAt.Before(*end) {
			continue
		}
		k := key{repository.BucketStart(filter.Period, m.CreatedAt), m.Type}
		row, ok := acc[k]
		if !ok {
			row = &repository.SummaryRow{
				BucketStart:  k.bucket,
				Period:       repository.BucketLabel(filter.Period, k.bucket),
				MovementType: m.Type,
			}
			acc[k] = row
		}
		row.TotalQuantity += m.Quantity
		row.Count++
	}

	out := make([]repository.SummaryRow, 0, len(acc))
	for _, row := range acc {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].BucketStart.Equal(out[j].BucketStart) {
			return out[i].BucketStart.Before(out[j].BucketStart)
		}
		return out[i].MovementType < out[j].MovementType
	})
	return out, nil
}

func (r *MovementRepo) view(m entity.StockMovement) repository.MovementView {
	b := r.s.batches[m.BatchID]
	it := r.s.items[b.ItemID]
	return repository.MovementView{
		StockMovement: m,
		BatchNumber:   b.BatchNumber,
		ItemID:        b.ItemID,
		ItemName:      it.Name,
		ItemSKU:       it.SKU,
	}
}
