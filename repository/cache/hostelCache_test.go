package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"hostelfinder/model"
)

func TestGetHostelMiss(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewHostelCache(db, time.Minute)

	mock.ExpectGet("hostel:9").RedisNil()

	h, ok, err := c.GetHostel(context.Background(), 9)
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, h)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSetThenGetHostel(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewHostelCache(db, time.Minute)
	ctx := context.Background()

	h := &model.Hostel{ID: 3, Name: "Sunrise", PricePerNight: decimal.RequireFromString("100.50"), TotalRooms: 10, AvailableRooms: 6}
	raw, err := json.Marshal(h)
	require.NoError(t, err)

	mock.ExpectEvalSha(setIfVersion.Hash(), []string{"hostel:3", "hostel:3:v"}, int64(0), raw, int64(60000)).SetVal(int64(1))
	mock.ExpectGet("hostel:3").SetVal(string(raw))

	require.NoError(t, c.SetHostel(ctx, h, 0))
	got, ok, err := c.GetHostel(ctx, 3)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Sunrise", got.Name)
	require.True(t, got.PricePerNight.Equal(h.PricePerNight))
	require.Equal(t, 6, got.AvailableRooms)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchRoundTrip(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewHostelCache(db, 30*time.Second)
	ctx := context.Background()

	hs := []model.Hostel{{ID: 1, Pincode: "560001"}, {ID: 2, Pincode: "560001"}}
	raw, err := json.Marshal(hs)
	require.NoError(t, err)

	mock.ExpectHGet(searchKey, "pin=560001").RedisNil()
	mock.ExpectGet(searchVersionKey).SetVal("4")
	mock.ExpectEvalSha(hsetIfVersion.Hash(), []string{searchKey, searchVersionKey}, int64(4), "pin=560001", raw, int64(30000)).SetVal(int64(1))
	mock.ExpectHGet(searchKey, "pin=560001").SetVal(string(raw))

	_, ok, err := c.GetSearch(ctx, "pin=560001")
	require.NoError(t, err)
	require.False(t, ok)

	ver, err := c.SearchVersion(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(4), ver)
	require.NoError(t, c.SetSearch(ctx, "pin=560001", hs, ver))

	got, ok, err := c.GetSearch(ctx, "pin=560001")
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInvalidateHostel(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewHostelCache(db, time.Minute)

	mock.ExpectTxPipeline()
	mock.ExpectDel("hostel:5", searchKey).SetVal(2)
	mock.ExpectIncr("hostel:5:v").SetVal(1)
	mock.ExpectIncr(searchVersionKey).SetVal(1)
	mock.ExpectTxPipelineExec()

	require.NoError(t, c.InvalidateHostel(context.Background(), 5))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHostelVersion(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewHostelCache(db, time.Minute)
	ctx := context.Background()

	mock.ExpectGet("hostel:5:v").RedisNil()
	mock.ExpectGet("hostel:5:v").SetVal("3")

	ver, err := c.HostelVersion(ctx, 5)
	require.NoError(t, err)
	require.Zero(t, ver)

	ver, err = c.HostelVersion(ctx, 5)
	require.NoError(t, err)
	require.Equal(t, int64(3), ver)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSetHostelAfterInvalidationIsDropped(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewHostelCache(db, time.Minute)

	h := &model.Hostel{ID: 5, AvailableRooms: 4}
	raw, err := json.Marshal(h)
	require.NoError(t, err)

	// the version moved from 2 to 3 while the row was loading
	mock.ExpectEvalSha(setIfVersion.Hash(), []string{"hostel:5", "hostel:5:v"}, int64(2), raw, int64(60000)).SetVal(int64(0))

	require.NoError(t, c.SetHostel(context.Background(), h, 2))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetHostelError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewHostelCache(db, time.Minute)

	mock.ExpectGet("hostel:1").SetErr(redis.ErrClosed)

	_, ok, err := c.GetHostel(context.Background(), 1)
	require.Error(t, err)
	require.False(t, ok)
}
