package snapshot

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"

	"github.com/patelashutosh/bloom-store/internal/cart"
)

func setupTestMongo(t *testing.T) *MongoStore {
	if testing.Short() {
		t.Skip("skipping mongodb container test in short mode")
	}
	ctx := context.Background()

	mongoContainer, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := mongoContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	uri, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err)

	db, err := ConnectMongoDB(ctx, uri, "testdb")
	require.NoError(t, err)

	store := NewMongoStore(db)
	require.NoError(t, store.CreateIndexes(ctx, time.Hour))
	return store
}

func TestMongoStore_RoundTrip(t *testing.T) {
	store := setupTestMongo(t)
	ctx := context.Background()

	_, err := store.Load(ctx, "missing")
	assert.ErrorIs(t, err, cart.ErrSnapshotNotFound)

	require.NoError(t, store.Save(ctx, "k", []byte(`{"items":[1]}`)))
	require.NoError(t, store.Save(ctx, "k", []byte(`{"items":[2]}`)))

	data, err := store.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `{"items":[2]}`, string(data))

	require.NoError(t, store.Delete(ctx, "k"))
	_, err = store.Load(ctx, "k")
	assert.ErrorIs(t, err, cart.ErrSnapshotNotFound)
}
