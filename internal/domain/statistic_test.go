package domain

import (
	"context"
	"testing"
	"time"

	"github.com/luckycast/backend/internal/model"
	"github.com/luckycast/backend/internal/repository"
	"github.com/luckycast/backend/pkg/errorx"
	"github.com/luckycast/backend/pkg/testutil"
	"github.com/stretchr/testify/require"

	goredis "github.com/redis/go-redis/v9"
)

func newStatisticDomain(redis *testutil.MockRedisClient) *statisticDomain {
	return NewStatisticDomain(
		repository.NewRaffleRepository(),
		repository.NewTicketGrantRepository(),
		redis,
	)
}

func Test_statisticDomain_GetUserStatus_fallsBackToLedger(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)
	createGrant(t, ctx, testutil.Raffle1.ID, testutil.User1, 4)

	populatedKeys := []string{}
	redis := &testutil.MockRedisClient{
		SetObjFunc: func(ctx context.Context, key string, obj any, ttl time.Duration) error {
			populatedKeys = append(populatedKeys, key)
			return nil
		},
	}

	d := newStatisticDomain(redis)
	resp, err := d.GetUserStatus(ctx, &model.GetUserStatusRequest{UserID: testutil.User1})
	require.NoError(t, err)
	require.Equal(t, testutil.User1, resp.UserStatus.UserID)
	require.Equal(t, testutil.Raffle1.ID, resp.UserStatus.RaffleID)
	require.Equal(t, testutil.Raffle1.PeriodLabel, resp.UserStatus.PeriodLabel)
	require.Equal(t, 4, resp.UserStatus.TicketsCount)

	// The miss populates the cache for the next read.
	require.Contains(t, populatedKeys, "user:"+testutil.User1+":status")

	// A user with no grant still gets a view with zero tickets.
	resp, err = d.GetUserStatus(ctx, &model.GetUserStatusRequest{UserID: testutil.User2})
	require.NoError(t, err)
	require.Equal(t, 0, resp.UserStatus.TicketsCount)
}

func Test_statisticDomain_GetUserStatus_servesFromCache(t *testing.T) {
	ctx := testutil.MockContext()

	// No fixture raffle: a cache hit must not touch the ledger at all.
	redis := &testutil.MockRedisClient{
		GetObjFunc: func(ctx context.Context, key string, v any) error {
			*(v.(*model.UserStatus)) = model.UserStatus{
				UserID:       testutil.User1,
				RaffleID:     "cached-raffle",
				TicketsCount: 7,
			}
			return nil
		},
	}

	d := newStatisticDomain(redis)
	resp, err := d.GetUserStatus(ctx, &model.GetUserStatusRequest{UserID: testutil.User1})
	require.NoError(t, err)
	require.Equal(t, "cached-raffle", resp.UserStatus.RaffleID)
	require.Equal(t, 7, resp.UserStatus.TicketsCount)
}

func Test_statisticDomain_GetUserStatus_requiresUserAndRaffle(t *testing.T) {
	ctx := testutil.MockContext()

	d := newStatisticDomain(&testutil.MockRedisClient{})
	_, err := d.GetUserStatus(ctx, &model.GetUserStatusRequest{})
	require.Error(t, err)
	require.True(t, errorx.Is(err, errorx.BadRequest))

	_, err = d.GetUserStatus(ctx, &model.GetUserStatusRequest{UserID: testutil.User1})
	require.Error(t, err)
	require.True(t, errorx.Is(err, errorx.NotFound))
}

func Test_statisticDomain_GetLeaderboard_rebuildsFromLedger(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)
	createGrant(t, ctx, testutil.Raffle1.ID, testutil.User1, 2)
	createGrant(t, ctx, testutil.Raffle1.ID, testutil.User2, 5)

	loaded := map[string]float64{}
	redis := &testutil.MockRedisClient{
		ZAddFunc: func(ctx context.Context, key string, z goredis.Z) error {
			loaded[z.Member.(string)] = z.Score
			return nil
		},
		ZRevRangeWithScoresFunc: func(ctx context.Context, key string, offset, limit int) ([]goredis.Z, error) {
			return []goredis.Z{
				{Member: testutil.User2, Score: 5},
				{Member: testutil.User1, Score: 2},
			}, nil
		},
	}

	d := newStatisticDomain(redis)
	resp, err := d.GetLeaderboard(ctx, &model.GetLeaderboardRequest{})
	require.NoError(t, err)

	require.Equal(t, map[string]float64{testutil.User1: 2, testutil.User2: 5}, loaded)
	require.Len(t, resp.Leaderboard, 2)
	require.Equal(t, model.LeaderboardEntry{
		UserID: testutil.User2, TicketsCount: 5, CurrentRank: 1,
	}, resp.Leaderboard[0])
	require.Equal(t, model.LeaderboardEntry{
		UserID: testutil.User1, TicketsCount: 2, CurrentRank: 2,
	}, resp.Leaderboard[1])
}

func Test_statisticDomain_GetLeaderboard_skipsRebuildOnWarmCache(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)

	rebuilt := false
	redis := &testutil.MockRedisClient{
		ExistFunc: func(ctx context.Context, key string) (bool, error) {
			return true, nil
		},
		ZAddFunc: func(ctx context.Context, key string, z goredis.Z) error {
			rebuilt = true
			return nil
		},
	}

	d := newStatisticDomain(redis)
	_, err := d.GetLeaderboard(ctx, &model.GetLeaderboardRequest{})
	require.NoError(t, err)
	require.False(t, rebuilt)
}

func Test_statisticDomain_GetLeaderboard_limitBounds(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)

	d := newStatisticDomain(&testutil.MockRedisClient{})
	_, err := d.GetLeaderboard(ctx, &model.GetLeaderboardRequest{Limit: 101})
	require.Error(t, err)
	require.True(t, errorx.Is(err, errorx.BadRequest))
}

func Test_statisticDomain_GetActiveRaffle(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)

	var cachedTTL time.Duration
	redis := &testutil.MockRedisClient{
		SetObjFunc: func(ctx context.Context, key string, obj any, ttl time.Duration) error {
			cachedTTL = ttl
			return nil
		},
	}

	d := newStatisticDomain(redis)
	resp, err := d.GetActiveRaffle(ctx, &model.GetActiveRaffleRequest{})
	require.NoError(t, err)
	require.Equal(t, testutil.Raffle1.ID, resp.Raffle.ID)
	require.Equal(t, string(testutil.Raffle1.Status), resp.Raffle.Status)

	// The snapshot lives under a short ttl so the render path never sees
	// stale totals for long.
	require.Equal(t, time.Minute, cachedTTL)
}

func Test_statisticDomain_GetActiveRaffle_notFound(t *testing.T) {
	ctx := testutil.MockContext()

	d := newStatisticDomain(&testutil.MockRedisClient{})
	_, err := d.GetActiveRaffle(ctx, &model.GetActiveRaffleRequest{})
	require.Error(t, err)
	require.True(t, errorx.Is(err, errorx.NotFound))
}
