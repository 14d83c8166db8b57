package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contract-risk-lab/internal/domain"
	"contract-risk-lab/internal/storage"
)

func TestProjectStore_UpsertKeepsKnownFields(t *testing.T) {
	pool := newTestPool(t)

	store := NewProjectStore(pool)
	ctx := context.Background()

	first, err := store.Upsert(ctx, &domain.Project{
		Chain:       domain.ChainEthereum,
		Address:     "0x00000000000000000000000000000000000000aa",
		Name:        ptr("PepeToken"),
		TokenSymbol: ptr("PEPE"),
	})
	require.NoError(t, err)
	assert.NotZero(t, first.ID)
	assert.NotZero(t, first.CreatedAt)

	// A later upsert without a name must not erase it.
	second, err := store.Upsert(ctx, &domain.Project{
		Chain:     domain.ChainEthereum,
		Address:   "0x00000000000000000000000000000000000000aa",
		TokenName: ptr("Pepe"),
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	require.NotNil(t, second.Name)
	assert.Equal(t, "PepeToken", *second.Name)
	require.NotNil(t, second.TokenName)
	assert.Equal(t, "Pepe", *second.TokenName)
	assert.Equal(t, "PEPE", *second.TokenSymbol)
}

func TestProjectStore_GetByAddressNotFound(t *testing.T) {
	pool := newTestPool(t)

	store := NewProjectStore(pool)

	_, err := store.GetByAddress(context.Background(), domain.ChainBSC, "0x00000000000000000000000000000000000000ff")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestProjectStore_ListAndInvalidInput(t *testing.T) {
	pool := newTestPool(t)

	store := NewProjectStore(pool)
	ctx := context.Background()

	_, err := store.Upsert(ctx, &domain.Project{Chain: domain.ChainEthereum})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	for _, addr := range []string{"0x01", "0x02", "0x03"} {
		_, err := store.Upsert(ctx, &domain.Project{Chain: domain.ChainBase, Address: addr})
		require.NoError(t, err)
	}

	list, err := store.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
