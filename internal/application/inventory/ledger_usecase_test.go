package inventory_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
)

type fixture struct {
	store  *memory.Store
	items  *memory.ItemRepo
	ledger *inventory.StockLedgerUseCase
	query  *inventory.StockQueryUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithStore(memory.NewStore())
}

func newFixtureWithStore(s *memory.Store) *fixture {
	items := memory.NewItemRepository(s)
	return &fixture{
		store:  s,
		items:  items,
		ledger: inventory.NewStockLedgerUseCase(memory.NewTxRunner(s), items, zerolog.Nop()),
		query:  inventory.NewStockQueryUseCase(memory.NewBatchRepository(s), memory.NewMovementRepository(s)),
	}
}

func (f *fixture) item(t *testing.T, name string) string {
	t.Helper()
	it := &entity.Item{Name: name}
	require.NoError(t, f.items.Create(context.Background(), it))
	return it.ID
}

func (f *fixture) receive(t *testing.T, itemID, batch string, qty int64) *inventory.LedgerResult {
	t.Helper()
	res, err := f.ledger.Receive(context.Background(), inventory.ReceiveInput{ItemID: itemID, BatchNumber: batch, Quantity: qty})
	require.NoError(t, err)
	return res
}

// ledgerSum suma los deltas del ledger de un lote.
func (f *fixture) ledgerSum(t *testing.T, batchID string) int64 {
	t.Helper()
	movs, err := f.query.ListMovements(context.Background(), repository.MovementFilter{BatchID: batchID})
	require.NoError(t, err)
	var sum int64
	for _, m := range movs {
		sum += m.Quantity
	}
	return sum
}

func (f *fixture) current(t *testing.T, batchID string) int64 {
	t.Helper()
	b, err := f.query.GetBatch(context.Background(), batchID)
	require.NoError(t, err)
	return b.CurrentQuantity
}

func TestReceive_NewBatch(t *testing.T) {
	f := newFixture(t)
	itemID := f.item(t, "Leche entera")
	expiry := time.Date(2026, 6, 30, 15, 0, 0, 0, time.UTC)

	res, err := f.ledger.Receive(context.Background(), inventory.ReceiveInput{
		ItemID: itemID, BatchNumber: " L-001 ", Quantity: 100, ExpiryDate: &expiry, Reference: "OC-1",
	})
	require.NoError(t, err)

	assert.Equal(t, "L-001", res.Batch.BatchNumber)
	assert.Equal(t, int64(100), res.Batch.InitialQuantity)
	assert.Equal(t, int64(100), res.Batch.CurrentQuantity)
	require.NotNil(t, res.Batch.ExpiryDate)
	assert.Equal(t, time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC), *res.Batch.ExpiryDate)

	assert.Equal(t, entity.MovementTypeReceive, res.Movement.Type)
	assert.Equal(t, int64(100), res.Movement.Quantity)
	assert.Equal(t, res.Batch.ID, res.Movement.BatchID)
	assert.Equal(t, "OC-1", res.Movement.Reference)
}

func TestReceive_ExistingBatchKeepsInitialAndExpiry(t *testing.T) {
	f := newFixture(t)
	itemID := f.item(t, "Yogur")
	first := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	other := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)

	r1, err := f.ledger.Receive(context.Background(), inventory.ReceiveInput{ItemID: itemID, BatchNumber: "Y1", Quantity: 40, ExpiryDate: &first})
	require.NoError(t, err)
	r2, err := f.ledger.Receive(context.Background(), inventory.ReceiveInput{ItemID: itemID, BatchNumber: "Y1", Quantity: 10, ExpiryDate: &other})
	require.NoError(t, err)

	assert.Equal(t, r1.Batch.ID, r2.Batch.ID)
	assert.Equal(t, int64(40), r2.Batch.InitialQuantity)
	assert.Equal(t, int64(50), r2.Batch.CurrentQuantity)
	assert.Equal(t, first, *r2.Batch.ExpiryDate)
	assert.Equal(t, int64(50), f.ledgerSum(t, r1.Batch.ID))
}

func TestReceive_Validation(t *testing.T) {
	f := newFixture(t)
	itemID := f.item(t, "Pan")
	ctx := context.Background()

	tests := []struct {
		name string
		in   inventory.ReceiveInput
		want error
	}{
		{"zero quantity", inventory.ReceiveInput{ItemID: itemID, BatchNumber: "P1", Quantity: 0}, domain.ErrInvalidQuantity},
		{"negative quantity", inventory.ReceiveInput{ItemID: itemID, BatchNumber: "P1", Quantity: -3}, domain.ErrInvalidQuantity},
		{"blank batch", inventory.ReceiveInput{ItemID: itemID, BatchNumber: "  ", Quantity: 1}, domain.ErrInvalidInput},
		{"missing item", inventory.ReceiveInput{ItemID: "nope", BatchNumber: "P1", Quantity: 1}, domain.ErrItemNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ledger.Receive(ctx, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	batches, err := f.query.ListBatches(ctx, repository.BatchFilter{})
	require.NoError(t, err)
	assert.Empty(t, batches)
}

func TestReceive_InactiveItemStillAccepted(t *testing.T) {
	f := newFixture(t)
	itemID := f.item(t, "Descontinuado")
	require.NoError(t, f.items.Deactivate(context.Background(), itemID))

	res := f.receive(t, itemID, "D1", 5)
	assert.Equal(t, int64(5), res.Batch.CurrentQuantity)
}

func TestReceive_Overflow(t *testing.T) {
	f := newFixture(t)
	itemID := f.item(t, "Tornillos")
	f.receive(t, itemID, "T1", math.MaxInt64-1)

	_, err := f.ledger.Receive(context.Background(), inventory.ReceiveInput{ItemID: itemID, BatchNumber: "T1", Quantity: 2})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestIssue(t *testing.T) {
	f := newFixture(t)
	itemID := f.item(t, "Queso")
	batch := f.receive(t, itemID, "Q1", 10).Batch
	ctx := context.Background()

	res, err := f.ledger.Issue(ctx, inventory.IssueInput{BatchID: batch.ID, Quantity: 4, Reference: "PED-9"})
	require.NoError(t, err)
	assert.Equal(t, int64(6), res.Batch.CurrentQuantity)
	assert.Equal(t, int64(10), res.Batch.InitialQuantity)
	assert.Equal(t, entity.MovementTypeIssue, res.Movement.Type)
	assert.Equal(t, int64(-4), res.Movement.Quantity)

	_, err = f.ledger.Issue(ctx, inventory.IssueInput{BatchID: batch.ID, Quantity: 7})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, int64(6), f.current(t, batch.ID))

	res, err = f.ledger.Issue(ctx, inventory.IssueInput{BatchID: batch.ID, Quantity: 6})
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.Batch.CurrentQuantity)
	assert.Equal(t, int64(0), f.ledgerSum(t, batch.ID))

	_, err = f.ledger.Issue(ctx, inventory.IssueInput{BatchID: batch.ID, Quantity: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	_, err = f.ledger.Issue(ctx, inventory.IssueInput{BatchID: "missing", Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrBatchNotFound)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAdjust(t *testing.T) {
	f := newFixture(t)
	itemID := f.item(t, "Harina")
	batch := f.receive(t, itemID, "H1", 10).Batch
	ctx := context.Background()

	res, err := f.ledger.Adjust(ctx, inventory.AdjustInput{BatchID: batch.ID, AdjustmentQuantity: 3, Notes: "conteo"})
	require.NoError(t, err)
	assert.Equal(t, entity.MovementTypeAdjust, res.Movement.Type)
	assert.Equal(t, int64(13), res.Batch.CurrentQuantity)

	res, err = f.ledger.Adjust(ctx, inventory.AdjustInput{BatchID: batch.ID, AdjustmentQuantity: -5})
	require.NoError(t, err)
	assert.Equal(t, entity.MovementTypeWriteOff, res.Movement.Type)
	assert.Equal(t, int64(-5), res.Movement.Quantity)
	assert.Equal(t, int64(8), res.Batch.CurrentQuantity)

	_, err = f.ledger.Adjust(ctx, inventory.AdjustInput{BatchID: batch.ID, AdjustmentQuantity: -9})
	assert.ErrorIs(t, err, domain.ErrNegativeStockRejected)
	_, err = f.ledger.Adjust(ctx, inventory.AdjustInput{BatchID: batch.ID, AdjustmentQuantity: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	assert.Equal(t, int64(8), f.current(t, batch.ID))
	assert.Equal(t, int64(8), f.ledgerSum(t, batch.ID))
}

func TestLedgerReconcilesWithBatchQuantity(t *testing.T) {
	f := newFixture(t)
	itemID := f.item(t, "Arroz")
	ctx := context.Background()
	batch := f.receive(t, itemID, "A1", 50).Batch

	steps := []func() error{
		func() error { _, err := f.ledger.Issue(ctx, inventory.IssueInput{BatchID: batch.ID, Quantity: 20}); return err },
		func() error {
			_, err := f.ledger.Receive(ctx, inventory.ReceiveInput{ItemID: itemID, BatchNumber: "A1", Quantity: 5})
			return err
		},
		func() error { _, err := f.ledger.Adjust(ctx, inventory.AdjustInput{BatchID: batch.ID, AdjustmentQuantity: -2}); return err },
		func() error { _, err := f.ledger.Issue(ctx, inventory.IssueInput{BatchID: batch.ID, Quantity: 100}); return err },
		func() error { _, err := f.ledger.Adjust(ctx, inventory.AdjustInput{BatchID: batch.ID, AdjustmentQuantity: 7}); return err },
	}
	for _, step := range steps {
		_ = step()
		assert.Equal(t, f.current(t, batch.ID), f.ledgerSum(t, batch.ID))
	}
	assert.Equal(t, int64(40), f.current(t, batch.ID))

	movs, err := f.query.ListMovements(ctx, repository.MovementFilter{BatchID: batch.ID})
	require.NoError(t, err)
	assert.Len(t, movs, 5, "rejected issue leaves no movement")
}

func TestConcurrentIssuesNeverOversell(t *testing.T) {
	f := newFixture(t)
	itemID := f.item(t, "Agua")
	batch := f.receive(t, itemID, "W1", 30).Batch

	const workers = 50
	var (
		wg           sync.WaitGroup
		mu           sync.Mutex
		ok, rejected int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.ledger.Issue(context.Background(), inventory.IssueInput{BatchID: batch.ID, Quantity: 1})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrInsufficientStock):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 30, ok)
	assert.Equal(t, workers-30, rejected)
	assert.Equal(t, int64(0), f.current(t, batch.ID))
	assert.Equal(t, int64(0), f.ledgerSum(t, batch.ID))
}

func TestConcurrentReceivesOnSameBatch(t *testing.T) {
	f := newFixture(t)
	itemID := f.item(t, "Sal")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.ledger.Receive(context.Background(), inventory.ReceiveInput{ItemID: itemID, BatchNumber: "S1", Quantity: 3})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	batches, err := f.query.ListBatches(context.Background(), repository.BatchFilter{ItemID: itemID})
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, int64(60), batches[0].CurrentQuantity)
	assert.Equal(t, int64(3), batches[0].InitialQuantity)
}

// failingAppendRunner delega en otro runner pero hace fallar Append, para comprobar el rollback.
type failingAppendRunner struct {
	inner inventory.TxRunner
	err   error
}

func (r failingAppendRunner) Run(ctx context.Context, fn func(context.Context, repository.BatchRepository, repository.MovementRepository) error) error {
	return r.inner.Run(ctx, func(ctx context.Context, br repository.BatchRepository, mr repository.MovementRepository) error {
		return fn(ctx, br, failingMovements{MovementRepository: mr, err: r.err})
	})
}

type failingMovements struct {
	repository.MovementRepository
	err error
}

func (m failingMovements) Append(context.Context, *entity.StockMovement) error { return m.err }

func TestFailedMovementRollsBackBatchChange(t *testing.T) {
	f := newFixture(t)
	itemID := f.item(t, "Aceite")
	batch := f.receive(t, itemID, "O1", 10).Batch

	boom := errors.New("disk full")
	broken := inventory.NewStockLedgerUseCase(failingAppendRunner{inner: memory.NewTxRunner(f.store), err: boom}, f.items, zerolog.Nop())

	_, err := broken.Issue(context.Background(), inventory.IssueInput{BatchID: batch.ID, Quantity: 4})
	require.ErrorIs(t, err, boom)
	_, err = broken.Receive(context.Background(), inventory.ReceiveInput{ItemID: itemID, BatchNumber: "O2", Quantity: 4})
	require.ErrorIs(t, err, boom)

	assert.Equal(t, int64(10), f.current(t, batch.ID))
	assert.Equal(t, int64(10), f.ledgerSum(t, batch.ID))
	batches, err := f.query.ListBatches(context.Background(), repository.BatchFilter{ItemID: itemID})
	require.NoError(t, err)
	assert.Len(t, batches, 1, "batch O2 must not survive the rollback")
}

// racingRunner simula que otro llamador creó el lote entre la lectura y el insert.
type racingRunner struct {
	inner inventory.TxRunner
}

func (r racingRunner) Run(ctx context.Context, fn func(context.Context, repository.BatchRepository, repository.MovementRepository) error) error {
	return r.inner.Run(ctx, func(ctx context.Context, br repository.BatchRepository, mr repository.MovementRepository) error {
		return fn(ctx, blindBatches{br}, mr)
	})
}

type blindBatches struct {
	repository.BatchRepository
}

func (blindBatches) FindByItemAndNumber(context.Context, string, string) (*entity.StockBatch, error) {
	return nil, nil
}

func TestReceive_LostCreateRaceIsRetryable(t *testing.T) {
	f := newFixture(t)
	itemID := f.item(t, "Azúcar")
	f.receive(t, itemID, "Z1", 10)

	racing := inventory.NewStockLedgerUseCase(racingRunner{inner: memory.NewTxRunner(f.store)}, f.items, zerolog.Nop())
	_, err := racing.Receive(context.Background(), inventory.ReceiveInput{ItemID: itemID, BatchNumber: "Z1", Quantity: 5})
	require.ErrorIs(t, err, domain.ErrConstraintViolation)
	assert.True(t, domain.IsRetryable(err))

	// Reintento con el runner normal: ahora encuentra el lote y suma.
	res := f.receive(t, itemID, "Z1", 5)
	assert.Equal(t, int64(15), res.Batch.CurrentQuantity)
}
