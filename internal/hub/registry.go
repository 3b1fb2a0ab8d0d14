package hub

import (
	"crypto/sha1"
	"encoding/binary"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	shardCount = 64 // tune: 16/64/128 depending on load
)

type clientBucket struct {
	sync.RWMutex
	clients map[primitive.ObjectID]*Client
}

// Registry maps a user to its single live connection
type Registry struct {
	shards [shardCount]*clientBucket
}

func NewRegistry() *Registry {
	r := &Registry{}
	for i := 0; i < shardCount; i++ {
		r.shards[i] = &clientBucket{
			clients: make(map[primitive.ObjectID]*Client),
		}
	}
	return r
}

func getShard(userID primitive.ObjectID) uint32 {
	h := sha1.Sum(userID[:])
	return binary.BigEndian.Uint32(h[:4]) % shardCount
}

// Register makes c the live connection of userID and returns the connection
// it replaced, if any. The caller is responsible for closing it.
func (r *Registry) Register(userID primitive.ObjectID, c *Client) *Client {
	b := r.shards[getShard(userID)]
	b.Lock()
	defer b.Unlock()

	previous := b.clients[userID]
	b.clients[userID] = c
	if previous == c {
		return nil
	}
	return previous
}

// Lookup returns the live connection of userID
func (r *Registry) Lookup(userID primitive.ObjectID) (*Client, bool) {
	b := r.shards[getShard(userID)]
	b.RLock()
	defer b.RUnlock()

	c, ok := b.clients[userID]
	return c, ok
}

// Deregister removes userID only while c is still its live connection, so a
// superseded connection closing late never evicts its replacement.
func (r *Registry) Deregister(userID primitive.ObjectID, c *Client) bool {
	b := r.shards[getShard(userID)]
	b.Lock()
	defer b.Unlock()

	current, ok := b.clients[userID]
	if !ok || current != c {
		return false
	}
	delete(b.clients, userID)
	return true
}

// Snapshot copies the live connections, one shard lock at a time
func (r *Registry) Snapshot() []*Client {
	clients := make([]*Client, 0, r.Len())
	for _, b := range r.shards {
		b.RLock()
		for _, c := range b.clients {
			clients = append(clients, c)
		}
		b.RUnlock()
	}
	return clients
}

func (r *Registry) Len() int {
	n := 0
	for _, b := range r.shards {
		b.RLock()
		n += len(b.clients)
		b.RUnlock()
	}
	return n
}
