package progress

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/academia/internal/core"
)

func setupRedis(t *testing.T) (*RedisSink, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisSink(client, time.Minute), mr
}

func TestRedisSink_PublishStoresSnapshot(t *testing.T) {
	sink, mr := setupRedis(t)
	ctx := context.Background()
	id := uuid.New()

	err := sink.Publish(ctx, core.ImportProgress{
		JobID: id, Kind: core.KindGroups, Phase: core.PhaseProcessing,
		Total: 10, Current: 4, Successful: 3, Failed: 1,
	})
	require.NoError(t, err)

	assert.Equal(t, "processing", mr.HGet(key(id), "phase"))
	assert.Equal(t, time.Minute, mr.TTL(key(id)))

	got, ok, err := sink.Snapshot(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, core.KindGroups, got.Kind)
	assert.Equal(t, 10, got.Total)
	assert.Equal(t, 4, got.Current)
	assert.Equal(t, 1, got.Failed)
}

func TestRedisSink_SnapshotMissingOrExpired(t *testing.T) {
	sink, mr := setupRedis(t)
	ctx := context.Background()
	id := uuid.New()

	_, ok, err := sink.Snapshot(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, sink.Publish(ctx, core.ImportProgress{JobID: id, Phase: core.PhaseStarting}))
	mr.FastForward(2 * time.Minute)

	_, ok, err = sink.Snapshot(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisSink_SubscribeFiltersByJob(t *testing.T) {
	sink, _ := setupRedis(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	id := uuid.New()
	updates, err := sink.Subscribe(ctx, id)
	require.NoError(t, err)

	require.NoError(t, sink.Publish(ctx, core.ImportProgress{JobID: uuid.New(), Phase: core.PhaseProcessing}))
	require.NoError(t, sink.Publish(ctx, core.ImportProgress{JobID: id, Phase: core.PhaseProcessing, Current: 1}))
	require.NoError(t, sink.Publish(ctx, core.ImportProgress{JobID: id, Phase: core.PhaseComplete, Current: 2}))

	var got []core.ImportProgress
	for p := range updates {
		got = append(got, p)
	}
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Current)
	assert.Equal(t, core.PhaseComplete, got[1].Phase)
}
