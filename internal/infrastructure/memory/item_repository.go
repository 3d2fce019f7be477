package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.ItemRepository = (*ItemRepo)(nil)

// ItemRepo catálogo de artículos en memoria.
type ItemRepo struct {
	s *Store
}

// NewItemRepository construye el repositorio sobre el store.
func NewItemRepository(s *Store) *ItemRepo {
	return &ItemRepo{s: s}
}

func (r *ItemRepo) Create(_ context.Context, item *entity.Item) error {
	defer lock(r.s, false)()
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if _, dup := r.s.items[item.ID]; dup {
		return domain.ErrConstraintViolation
	}
	now := r.s.now()
	item.Active = true
	item.CreatedAt, item.UpdatedAt = now, now
	r.s.items[item.ID] = *item
	return nil
}

func (r *ItemRepo) GetByID(_ context.Context, id string) (*entity.Item, error) {
	defer lock(r.s, false)()
	it, ok := r.s.items[id]
	if !ok {
		return nil, nil
	}
	return &it, nil
}

func (r *ItemRepo) Exists(_ context.Context, id string) (bool, error) {
	defer lock(r.s, false)()
	_, ok := r.s.items[id]
	return ok, nil
}

func (r *ItemRepo) ListActive(_ context.Context) ([]*entity.Item, error) {
	defer lock(r.s, false)()
	var list []*entity.Item
	for _, it := range r.s.items {
		if it.Active {
			it := it
			list = append(list, &it)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Name != list[j].Name {
			return list[i].Name < list[j].Name
		}
		return list[i].ID < list[j].ID
	})
	return list, nil
}

func (r *ItemRepo) Update(_ context.Context, item *entity.Item) error {
	defer lock(r.s, false)()
	cur, ok := r.s.items[item.ID]
	if !ok {
		return domain.ErrItemNotFound
	}
	cur.Name, cur.SKU, cur.Description, cur.Active = item.Name, item.SKU, item.Description, item.Active
	cur.UpdatedAt = r.s.now()
	r.s.items[item.ID] = cur
	item.CreatedAt, item.UpdatedAt = cur.CreatedAt, cur.UpdatedAt
	return nil
}

func (r *ItemRepo) Deactivate(_ context.Context, id string) error {
	defer lock(r.s, false)()
	cur, ok := r.s.items[id]
	if !ok {
		return domain.ErrItemNotFound
	}
	cur.Active = false
	cur.UpdatedAt = r.s.now()
	r.s.items[id] = cur
	return nil
}
