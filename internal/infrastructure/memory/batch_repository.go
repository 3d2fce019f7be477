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

var _ repository.BatchRepository = (*BatchRepo)(nil)

// BatchRepo lotes en memoria. Dentro de TxRunner.Run el store ya está bloqueado (inTx).
type BatchRepo struct {
	s    *Store
	inTx bool
}

// NewBatchRepository construye el repositorio de lectura fuera de transacción.
func NewBatchRepository(s *Store) *BatchRepo {
	return &BatchRepo{s: s}
}

func (r *BatchRepo) FindByItemAndNumber(_ context.Context, itemID, batchNumber string) (*entity.StockBatch, error) {
	defer lock(r.s, r.inTx)()
	id, ok := r.s.batchKeys[batchKey{itemID, batchNumber}]
	if !ok {
		return nil, nil
	}
	b := r.s.batches[id]
	return &b, nil
}

func (r *BatchRepo) GetForUpdate(_ context.Context, id string) (*entity.StockBatch, error) {
	defer lock(r.s, r.inTx)()
	b, ok := r.s.batches[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (r *BatchRepo) Create(_ context.Context, batch *entity.StockBatch) error {
	defer lock(r.s, r.inTx)()
	key := batchKey{batch.ItemID, batch.BatchNumber}
	if _, dup := r.s.batchKeys[key]; dup {
		return fmt.Errorf("insert batch: %w: uq_stock_batches_item_batch", domain.ErrConstraintViolation)
	}
	if _, ok := r.s.items[batch.ItemID]; !ok {
		return fmt.Errorf("insert batch: %w: item_id %s no existe", domain.ErrUnexpected, batch.ItemID)
	}
	if batch.CurrentQuantity < 0 || batch.InitialQuantity <= 0 {
		return fmt.Errorf("insert batch: %w: cantidades fuera de rango", domain.ErrUnexpected)
	}
	if batch.ID == "" {
		batch.ID = uuid.New().String()
	}
	now := r.s.now()
	batch.CreatedAt, batch.UpdatedAt = now, now
	r.s.batches[batch.ID] = *batch
	r.s.batchKeys[key] = batch.ID
	return nil
}

func (r *BatchRepo) SetQuantity(_ context.Context, id string, newQuantity int64) (*entity.StockBatch, error) {
	defer lock(r.s, r.inTx)()
	b, ok := r.s.batches[id]
	if !ok {
		return nil, domain.ErrBatchNotFound
	}
	if newQuantity < 0 {
		return nil, fmt.Errorf("update batch quantity: %w: current_quantity >= 0", domain.ErrUnexpected)
	}
	b.CurrentQuantity = newQuantity
	b.UpdatedAt = r.s.now()
	r.s.batches[id] = b
	return &b, nil
}

func (r *BatchRepo) GetByID(_ context.Context, id string) (*repository.BatchView, error) {
	defer lock(r.s, r.inTx)()
	b, ok := r.s.batches[id]
	if !ok {
		return nil, nil
	}
	v := r.view(b)
	return &v, nil
}

func (r *BatchRepo) Query(_ context.Context, filter repository.BatchFilter) ([]repository.BatchView, error) {
	if !filter.Normalize() {
		return nil, domain.ErrInvalidInput
	}
	defer lock(r.s, r.inTx)()

	needle := strings.ToLower(filter.BatchNumber)
	list := make([]repository.BatchView, 0)
	for _, b := range r.s.batches {
		if filter.ItemID != "" && b.ItemID != filter.ItemID {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(b.BatchNumber), needle) {
			continue
		}
		if filter.HasStock != nil && b.HasStock() != *filter.HasStock {
			continue
		}
		list = append(list, r.view(b))
	}

	desc := filter.SortDirection == repository.SortDesc
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if c := compareBatches(filter.SortBy, a.StockBatch, b.StockBatch, desc); c != 0 {
			return c < 0
		}
		return a.ID < b.ID
	})
	return list, nil
}

func (r *BatchRepo) FindExpiring(_ context.Context, cutoff time.Time) ([]repository.BatchView, error) {
	defer lock(r.s, r.inTx)()
	cutoff = time.Date(cutoff.Year(), cutoff.Month(), cutoff.Day(), 0, 0, 0, 0, time.UTC)
	list := make([]repository.BatchView, 0)
	for _, b := range r.s.batches {
		if b.ExpiryDate == nil || b.ExpiryDate.After(cutoff) || !b.HasStock() {
			continue
		}
		list = append(list, r.view(b))
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].ExpiryDate.Equal(*list[j].ExpiryDate) {
			return list[i].ExpiryDate.Before(*list[j].ExpiryDate)
		}
		return list[i].ID < list[j].ID
	})
	return list, nil
}

func (r *BatchRepo) view(b entity.StockBatch) repository.BatchView {
	it := r.s.items[b.ItemID]
	return repository.BatchView{StockBatch: b, ItemName: it.Name, ItemSKU: it.SKU}
}

// compareBatches devuelve <0, 0 o >0 ya aplicada la dirección.
// Un vencimiento nulo va al final en asc y al inicio en desc.
func compareBatches(sortBy string, a, b entity.StockBatch, desc bool) int {
	var c int
	switch sortBy {
	case repository.BatchSortExpiryDate:
		switch {
		case a.ExpiryDate == nil && b.ExpiryDate == nil:
			return 0
		case a.ExpiryDate == nil:
			c = 1
		case b.ExpiryDate == nil:
			c = -1
		default:
			c = a.ExpiryDate.Compare(*b.ExpiryDate)
		}
	case repository.BatchSortCreatedAt:
		c = a.CreatedAt.Compare(b.CreatedAt)
	case repository.BatchSortBatchNumber:
		c = strings.Compare(a.BatchNumber, b.BatchNumber)
	case repository.BatchSortCurrentQuantity:
		c = compareInt(a.CurrentQuantity, b.CurrentQuantity)
	}
	if desc {
		return -c
	}
	return c
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
