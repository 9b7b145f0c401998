// Package availability caches the bed list of one room for one date range.
package availability

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/nekogravitycat/hostel-booking-backend/internal/bed"
	"github.com/nekogravitycat/hostel-booking-backend/internal/stay"
)

// ErrSuperseded is returned by Get when the key stopped being current while
// its fetch was in flight. The result was discarded.
var ErrSuperseded = errors.New("availability superseded by a newer date range")

// Lookup results reported to the metrics recorder.
const (
	ResultHit        = "hit"
	ResultMiss       = "miss"
	ResultShared     = "shared"
	ResultSuperseded = "superseded"
)

// Key identifies a bed list. Keys are compared by value.
type Key struct {
	RoomID   int64
	CheckIn  string
	CheckOut string
}

func NewKey(roomID int64, r stay.Range) Key {
	return Key{RoomID: roomID, CheckIn: r.CheckInDate(), CheckOut: r.CheckOutDate()}
}

func (k Key) String() string {
	return strconv.FormatInt(k.RoomID, 10) + ":" + k.CheckIn + ":" + k.CheckOut
}

func (k Key) Range() (stay.Range, error) {
	return stay.Parse(k.CheckIn, k.CheckOut)
}

// Fetcher loads beds from the booking service.
type Fetcher interface {
	AvailableBeds(ctx context.Context, roomID int64, r stay.Range) ([]bed.Bed, error)
}

type lookupRecorder interface {
	CacheLookup(result string)
}

// Cache holds at most one resolved bed list: the one for the current key.
// Asking for a different key makes it current and drops the old list.
type Cache struct {
	fetcher Fetcher
	metrics lookupRecorder
	group   singleflight.Group

	mu       sync.Mutex
	current  Key
	has      bool
	gen      uint64
	beds     []bed.Bed
	resolved bool
}

func NewCache(fetcher Fetcher, metrics lookupRecorder) *Cache {
	return &Cache{fetcher: fetcher, metrics: metrics}
}

// Get returns the beds for key, fetching them unless key is current and
// already resolved. Concurrent calls for the same key share one fetch.
// Errors are not cached.
func (c *Cache) Get(ctx context.Context, key Key) ([]bed.Bed, error) {
	c.mu.Lock()
	if c.has && c.current == key && c.resolved {
		beds := clone(c.beds)
		c.mu.Unlock()
		c.record(ResultHit)
		return beds, nil
	}
	if !c.has || c.current != key {
		c.group.Forget(c.current.String())
		c.current = key
		c.has = true
		c.gen++
		c.beds = nil
		c.resolved = false
	}
	gen := c.gen
	c.mu.Unlock()

	r, err := key.Range()
	if err != nil {
		return nil, fmt.Errorf("availability key %s: %w", key, err)
	}

	v, err, shared := c.group.Do(key.String(), func() (any, error) {
		return c.fetcher.AvailableBeds(ctx, key.RoomID, r)
	})

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gen != gen || c.current != key {
		c.record(ResultSuperseded)
		return nil, ErrSuperseded
	}
	if shared {
		c.record(ResultShared)
	} else {
		c.record(ResultMiss)
	}
	if err != nil {
		return nil, err
	}

	c.beds = clone(v.([]bed.Bed))
	c.resolved = true
	return clone(c.beds), nil
}

// Peek returns the resolved beds for key without fetching.
func (c *Cache) Peek(key Key) ([]bed.Bed, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.has || c.current != key || !c.resolved {
		return nil, false
	}
	return clone(c.beds), true
}

// Invalidate drops the cached list. Fetches in flight become superseded.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.has {
		c.group.Forget(c.current.String())
	}
	c.has = false
	c.current = Key{}
	c.gen++
	c.beds = nil
	c.resolved = false
}

func (c *Cache) record(result string) {
	if c.metrics != nil {
		c.metrics.CacheLookup(result)
	}
}

func clone(beds []bed.Bed) []bed.Bed {
	if beds == nil {
		return nil
	}
	out := make([]bed.Bed, len(beds))
	copy(out, beds)
	return out
}
