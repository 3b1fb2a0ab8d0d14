package hub

import (
	"context"
	"time"

	"Voxline/internal/model"
	"Voxline/internal/repo"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/singleflight"
)

const (
	defaultDirectoryCacheSize = 4096
	defaultDirectoryCacheTTL  = 5 * time.Minute
)

// Directory resolves user ids to display info for enriching outbound events.
// Hits are served from a bounded LRU; concurrent misses for one id share a
// single store read.
type Directory struct {
	users repo.UserRepository
	cache *expirable.LRU[primitive.ObjectID, model.UserRef]
	group singleflight.Group
}

func NewDirectory(users repo.UserRepository, size int, ttl time.Duration) *Directory {
	if size <= 0 {
		size = defaultDirectoryCacheSize
	}
	if ttl <= 0 {
		ttl = defaultDirectoryCacheTTL
	}
	return &Directory{
		users: users,
		cache: expirable.NewLRU[primitive.ObjectID, model.UserRef](size, nil, ttl),
	}
}

// Lookup returns the display info of id, or repo.ErrNotFound
func (d *Directory) Lookup(ctx context.Context, id primitive.ObjectID) (model.UserRef, error) {
	if ref, ok := d.cache.Get(id); ok {
		return ref, nil
	}

	v, err, _ := d.group.Do(id.Hex(), func() (interface{}, error) {
		user, err := d.users.GetUser(ctx, id)
		if err != nil {
			return model.UserRef{}, err
		}
		ref := user.Ref()
		d.cache.Add(id, ref)
		return ref, nil
	})
	if err != nil {
		return model.UserRef{}, err
	}
	return v.(model.UserRef), nil
}

// Invalidate drops id so the next lookup reads the store
func (d *Directory) Invalidate(id primitive.ObjectID) {
	d.cache.Remove(id)
}
