package hub

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func testClient(userID primitive.ObjectID) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{ID: primitive.NewObjectID().Hex(), userID: userID, ctx: ctx, cancel: cancel}
}

func TestRegistry_RegisterReturnsSuperseded(t *testing.T) {
	r := NewRegistry()
	userID := primitive.NewObjectID()

	first := testClient(userID)
	assert.Nil(t, r.Register(userID, first))

	second := testClient(userID)
	assert.Same(t, first, r.Register(userID, second))

	// registering the live client again replaces nothing
	assert.Nil(t, r.Register(userID, second))

	current, ok := r.Lookup(userID)
	require.True(t, ok)
	assert.Same(t, second, current)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_StaleDeregisterIsIgnored(t *testing.T) {
	r := NewRegistry()
	userID := primitive.NewObjectID()

	first := testClient(userID)
	second := testClient(userID)
	r.Register(userID, first)
	r.Register(userID, second)

	assert.False(t, r.Deregister(userID, first))
	current, ok := r.Lookup(userID)
	require.True(t, ok)
	assert.Same(t, second, current)

	assert.True(t, r.Deregister(userID, second))
	_, ok = r.Lookup(userID)
	assert.False(t, ok)
	assert.False(t, r.Deregister(userID, second))
}

func TestRegistry_ConcurrentUsers(t *testing.T) {
	r := NewRegistry()

	const users = 200
	var wg sync.WaitGroup
	ids := make([]primitive.ObjectID, users)
	for i := range ids {
		ids[i] = primitive.NewObjectID()
	}

	for _, id := range ids {
		wg.Add(1)
		go func(id primitive.ObjectID) {
			defer wg.Done()
			r.Register(id, testClient(id))
		}(id)
	}
	wg.Wait()

	assert.Equal(t, users, r.Len())
	assert.Len(t, r.Snapshot(), users)

	for _, id := range ids {
		c, ok := r.Lookup(id)
		require.True(t, ok)
		assert.Equal(t, id, c.UserID())
	}
}

func TestGetShard_Stable(t *testing.T) {
	id := primitive.NewObjectID()
	assert.Equal(t, getShard(id), getShard(id))
	assert.Less(t, getShard(id), uint32(shardCount))
}
