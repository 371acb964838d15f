package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSessionStoreContract runs a suite of tests to verify that a SessionStore implementation
// adheres to the defined interface contract. It does not close the store.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	sessionID := "contract-" + time.Now().Format("20060102150405.000000")

	t.Run("Write and Read", func(t *testing.T) {
		err := store.Write(ctx, sessionID, []byte("count|i:42;"))
		require.NoError(t, err, "Write should not return error")

		value, err := store.Read(ctx, sessionID)
		require.NoError(t, err, "Read should not return error")
		assert.Equal(t, "count|i:42;", string(value))
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, store.Write(ctx, sessionID, []byte("first")))
		require.NoError(t, store.Write(ctx, sessionID, []byte("second")))

		value, err := store.Read(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "second", string(value))
	})

	t.Run("Read Non-Existent", func(t *testing.T) {
		value, err := store.Read(ctx, "missing-"+sessionID)
		assert.NoError(t, err, "an absent session is not an error")
		assert.Nil(t, value)
	})

	t.Run("Destroy", func(t *testing.T) {
		require.NoError(t, store.Write(ctx, sessionID, []byte("doomed")))

		err := store.Destroy(ctx, sessionID)
		require.NoError(t, err, "Destroy should not return error")

		value, err := store.Read(ctx, sessionID)
		assert.NoError(t, err, "Read after Destroy should report absence, not fail")
		assert.Nil(t, value)
	})

	t.Run("Destroy Non-Existent", func(t *testing.T) {
		assert.NoError(t, store.Destroy(ctx, "missing-"+sessionID))
	})

	t.Run("GC", func(t *testing.T) {
		assert.NoError(t, store.GC(ctx, time.Second))
	})
}
