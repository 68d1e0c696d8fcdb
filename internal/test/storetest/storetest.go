// Package storetest holds the behaviour every proofstore.Store must have.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/drand/sigma/proofstore"
)

// Record returns a distinct record for every i.
func Record(i int) *proofstore.Record {
	return &proofstore.Record{
		ProtocolID: "schnorr-dlog/ed25519",
		Statement:  []byte(fmt.Sprintf("statement %d", i)),
		Context:    []byte("storetest"),
		Proof:      []byte{byte(i), 0x01, 0x02, 0x03},
	}
}

// Run exercises store, which must be empty.
func Run(t *testing.T, store proofstore.Store) {
	ctx := context.Background()

	n, err := store.Len(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, n)

	_, err = store.Get(ctx, proofstore.ID{})
	require.ErrorIs(t, err, proofstore.ErrNotFound)

	ids := make([]proofstore.ID, 0, 5)
	for i := 0; i < 5; i++ {
		id, err := store.Put(ctx, Record(i))
		require.NoError(t, err)
		expected, err := Record(i).ID()
		require.NoError(t, err)
		require.Equal(t, expected, id)
		ids = append(ids, id)
	}
	// content addressed: a second put changes nothing
	_, err = store.Put(ctx, Record(0))
	require.NoError(t, err)

	n, err = store.Len(ctx)
	require.NoError(t, err)
	require.Equal(t, 5, n)

	for i, id := range ids {
		r, err := store.Get(ctx, id)
		require.NoError(t, err)
		require.Equal(t, Record(i), r)
	}

	var seen []proofstore.ID
	err = store.ForEach(ctx, func(id proofstore.ID, r *proofstore.Record) error {
		rid, err := r.ID()
		require.NoError(t, err)
		require.Equal(t, id, rid)
		seen = append(seen, id)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, seen, 5)
	for i := 1; i < len(seen); i++ {
		require.True(t, seen[i-1].String() < seen[i].String(), "ForEach must follow ID order")
	}

	stop := errors.New("stop")
	calls := 0
	err = store.ForEach(ctx, func(proofstore.ID, *proofstore.Record) error {
		calls++
		return stop
	})
	require.ErrorIs(t, err, stop)
	require.Equal(t, 1, calls)

	require.NoError(t, store.Del(ctx, ids[2]))
	_, err = store.Get(ctx, ids[2])
	require.ErrorIs(t, err, proofstore.ErrNotFound)
	n, err = store.Len(ctx)
	require.NoError(t, err)
	require.Equal(t, 4, n)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = store.Get(cancelled, ids[0])
	require.ErrorIs(t, err, context.Canceled)
	_, err = store.Put(cancelled, Record(9))
	require.ErrorIs(t, err, context.Canceled)
	require.ErrorIs(t, store.ForEach(cancelled, func(proofstore.ID, *proofstore.Record) error { return nil }), context.Canceled)
}
