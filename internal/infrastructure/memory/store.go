// Package memory implementa los puertos de persistencia en memoria.
// Un único mutex serializa las transacciones; un rollback restaura el snapshot tomado al iniciar.
// Se usa en pruebas y con STORE_DRIVER=memory.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// Store estado compartido por todos los repositorios en memoria.
type Store struct {
	mu sync.Mutex

	items     map[string]entity.Item
	batches   map[string]entity.StockBatch
	batchKeys map[batchKey]string
	movements []entity.StockMovement

	clock   func() time.Time
	lastNow time.Time
}

type batchKey struct {
	itemID      string
	batchNumber string
}

// NewStore crea un store vacío con reloj time.Now.
func NewStore() *Store {
	return &Store{
		items:     make(map[string]entity.Item),
		batches:   make(map[string]entity.StockBatch),
		batchKeys: make(map[batchKey]string),
		clock:     time.Now,
	}
}

// SetClock reemplaza el reloj (pruebas).
func (s *Store) SetClock(clock func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock = clock
	s.lastNow = time.Time{}
}

// now devuelve un instante UTC estrictamente creciente. Requiere s.mu tomado.
func (s *Store) now() time.Time {
	t := s.clock().UTC()
	if !t.After(s.lastNow) {
		t = s.lastNow.Add(time.Microsecond)
	}
	s.lastNow = t
	return t
}

type snapshot struct {
	batches   map[string]entity.StockBatch
	batchKeys map[batchKey]string
	movements int
}

func (s *Store) snapshot() snapshot {
	snap := snapshot{
		batches:   make(map[string]entity.StockBatch, len(s.batches)),
		batchKeys: make(map[batchKey]string, len(s.batchKeys)),
		movements: len(s.movements),
	}
	for k, v := range s.batches {
		snap.batches[k] = v
	}
	for k, v := range s.batchKeys {
		snap.batchKeys[k] = v
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.batches = snap.batches
	s.batchKeys = snap.batchKeys
	s.movements = s.movements[:snap.movements]
}

var _ inventory.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta fn con el store bloqueado; si fn falla deshace lotes y movimientos.
type TxRunner struct {
	s *Store
}

// NewTxRunner construye el runner sobre el store.
func NewTxRunner(s *Store) *TxRunner {
	return &TxRunner{s: s}
}

// Run implementa inventory.TxRunner.
func (r *TxRunner) Run(ctx context.Context, fn func(
	ctx context.Context,
	batchRepo repository.BatchRepository,
	movRepo repository.MovementRepository,
) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("begin transaction: %w: %w", domain.ErrTransactionConflict, err)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	snap := r.s.snapshot()
	if err := fn(ctx, &BatchRepo{s: r.s, inTx: true}, &MovementRepo{s: r.s, inTx: true}); err != nil {
		r.s.restore(snap)
		return err
	}
	return nil
}

// lock toma el mutex salvo que el repo ya corra dentro de Run.
func lock(s *Store, inTx bool) func() {
	if inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}
