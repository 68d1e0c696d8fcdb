package memdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/drand/sigma/internal/test/storetest"
	"github.com/drand/sigma/proofstore"
)

func TestStore(t *testing.T) {
	store := NewStore()
	storetest.Run(t, store)
	require.NoError(t, store.Close(context.Background()))
}

func TestSnapshotIteration(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	for i := 0; i < 3; i++ {
		_, err := store.Put(ctx, storetest.Record(i))
		require.NoError(t, err)
	}
	// deleting while iterating does not disturb the walk
	count := 0
	err := store.ForEach(ctx, func(id proofstore.ID, _ *proofstore.Record) error {
		count++
		return store.Del(ctx, id)
	})
	require.NoError(t, err)
	require.Equal(t, 3, count)
	n, err := store.Len(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, n)
}
