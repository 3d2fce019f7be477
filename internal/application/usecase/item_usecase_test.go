package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/usecase"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
)

func TestItemUseCase_CRUD(t *testing.T) {
	ctx := context.Background()
	uc := usecase.NewItemUseCase(memory.NewItemRepository(memory.NewStore()))

	created, err := uc.Create(ctx, dto.CreateItemRequest{Name: "  Leche  ", SKU: "LEC-1"})
	require.NoError(t, err)
	assert.Equal(t, "Leche", created.Name)
	assert.True(t, created.Active)

	name := "Leche deslactosada"
	updated, err := uc.Update(ctx, created.ID, dto.UpdateItemRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
	assert.Equal(t, "LEC-1", updated.SKU)

	list, err := uc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, uc.Delete(ctx, created.ID))
	list, err = uc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	got, err := uc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)

	active := true
	got, err = uc.Update(ctx, created.ID, dto.UpdateItemRequest{Active: &active})
	require.NoError(t, err)
	assert.True(t, got.Active)
}

func TestItemUseCase_Validation(t *testing.T) {
	ctx := context.Background()
	uc := usecase.NewItemUseCase(memory.NewItemRepository(memory.NewStore()))

	_, err := uc.Create(ctx, dto.CreateItemRequest{Name: "   "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrItemNotFound)

	empty := ""
	created, err := uc.Create(ctx, dto.CreateItemRequest{Name: "Pan"})
	require.NoError(t, err)
	_, err = uc.Update(ctx, created.ID, dto.UpdateItemRequest{Name: &empty})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	assert.ErrorIs(t, uc.Delete(ctx, "missing"), domain.ErrNotFound)
}
