package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"hostelfinder/model"
)

const (
	searchKey        = "hostels:search"
	searchVersionKey = "hostels:search:v"
)

// setIfVersion writes KEYS[1] only while the counter at KEYS[2] still holds
// the version the caller read before loading the value.
var setIfVersion = redis.NewScript(`
local cur = redis.call('GET', KEYS[2]) or '0'
if cur ~= ARGV[1] then
	return 0
end
if ARGV[3] == '0' then
	redis.call('SET', KEYS[1], ARGV[2])
else
	redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
end
return 1
`)

// hsetIfVersion is setIfVersion for one field of the search hash.
var hsetIfVersion = redis.NewScript(`
local cur = redis.call('GET', KEYS[2]) or '0'
if cur ~= ARGV[1] then
	return 0
end
redis.call('HSET', KEYS[1], ARGV[2], ARGV[3])
if ARGV[4] ~= '0' then
	redis.call('PEXPIRE', KEYS[1], ARGV[4])
end
return 1
`)

// HostelCache keeps hostel detail and search results in redis. Detail
// entries live under hostel:<id>; all search results share one hash so a
// single DEL drops them together.
//
// Every invalidation bumps a version counter. Writers read the counter
// before loading from the database and the write is dropped when it moved,
// so a load that raced an invalidation never repopulates stale rooms.
type HostelCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewHostelCache(client *redis.Client, ttl time.Duration) *HostelCache {
	return &HostelCache{client: client, ttl: ttl}
}

func hostelKey(id int64) string        { return fmt.Sprintf("hostel:%d", id) }
func hostelVersionKey(id int64) string { return fmt.Sprintf("hostel:%d:v", id) }

func (c *HostelCache) GetHostel(ctx context.Context, id int64) (*model.Hostel, bool, error) {
	raw, err := c.client.Get(ctx, hostelKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var h model.Hostel
	if err := json.Unmarshal(raw, &h); err != nil {
		return nil, false, err
	}
	return &h, true, nil
}

func (c *HostelCache) HostelVersion(ctx context.Context, id int64) (int64, error) {
	return c.version(ctx, hostelVersionKey(id))
}

// SetHostel stores h unless the hostel was invalidated after ver was read.
func (c *HostelCache) SetHostel(ctx context.Context, h *model.Hostel, ver int64) error {
	b, err := json.Marshal(h)
	if err != nil {
		return err
	}
	return setIfVersion.Run(ctx, c.client,
		[]string{hostelKey(h.ID), hostelVersionKey(h.ID)},
		ver, b, c.ttl.Milliseconds(),
	).Err()
}

func (c *HostelCache) GetSearch(ctx context.Context, key string) ([]model.Hostel, bool, error) {
	raw, err := c.client.HGet(ctx, searchKey, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var hs []model.Hostel
	if err := json.Unmarshal(raw, &hs); err != nil {
		return nil, false, err
	}
	return hs, true, nil
}

func (c *HostelCache) SearchVersion(ctx context.Context) (int64, error) {
	return c.version(ctx, searchVersionKey)
}

// SetSearch stores one search result unless any hostel was invalidated
// after ver was read.
func (c *HostelCache) SetSearch(ctx context.Context, key string, hs []model.Hostel, ver int64) error {
	b, err := json.Marshal(hs)
	if err != nil {
		return err
	}
	return hsetIfVersion.Run(ctx, c.client,
		[]string{searchKey, searchVersionKey},
		ver, key, b, c.ttl.Milliseconds(),
	).Err()
}

// InvalidateHostel drops the hostel's detail entry and every cached search
// and bumps both version counters in one MULTI.
func (c *HostelCache) InvalidateHostel(ctx context.Context, id int64) error {
	_, err := c.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, hostelKey(id), searchKey)
		p.Incr(ctx, hostelVersionKey(id))
		p.Incr(ctx, searchVersionKey)
		return nil
	})
	return err
}

func (c *HostelCache) version(ctx context.Context, key string) (int64, error) {
	v, err := c.client.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}
