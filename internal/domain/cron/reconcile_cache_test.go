package cron

import (
	"context"
	"testing"
	"time"

	"github.com/luckycast/backend/internal/entity"
	"github.com/luckycast/backend/internal/model"
	"github.com/luckycast/backend/internal/repository"
	"github.com/luckycast/backend/pkg/testutil"
	"github.com/luckycast/backend/pkg/xcontext"
	"github.com/stretchr/testify/require"

	goredis "github.com/redis/go-redis/v9"
)

func newReconcileJob(redis *testutil.MockRedisClient) *ReconcileCacheCronJob {
	return NewReconcileCacheCronJob(
		repository.NewRaffleRepository(),
		repository.NewTicketGrantRepository(),
		redis,
		time.Minute,
	)
}

func createGrant(t *testing.T, ctx context.Context, raffleID, userID string, tickets int) {
	t.Helper()

	now := time.Now()
	err := xcontext.DB(ctx).Create(&entity.TicketGrant{
		RaffleID:     raffleID,
		UserID:       userID,
		TicketsCount: tickets,
		FirstGrantAt: now,
		LastGrantAt:  now,
	}).Error
	require.NoError(t, err)
}

func Test_ReconcileCacheCronJob_rebuildsEveryView(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)
	createGrant(t, ctx, testutil.Raffle1.ID, testutil.User1, 3)
	createGrant(t, ctx, testutil.Raffle1.ID, testutil.User2, 1)

	objects := map[string]any{}
	leaderboard := map[string]float64{}
	deleted := []string{}
	redis := &testutil.MockRedisClient{
		SetObjFunc: func(ctx context.Context, key string, obj any, ttl time.Duration) error {
			objects[key] = obj
			return nil
		},
		ZAddFunc: func(ctx context.Context, key string, z goredis.Z) error {
			leaderboard[z.Member.(string)] = z.Score
			return nil
		},
		DelFunc: func(ctx context.Context, key ...string) error {
			deleted = append(deleted, key...)
			return nil
		},
	}

	job := newReconcileJob(redis)
	job.Do(ctx)

	// The active raffle snapshot comes straight from the ledger.
	snapshot, ok := objects["raffle:active"].(model.Raffle)
	require.True(t, ok)
	require.Equal(t, testutil.Raffle1.ID, snapshot.ID)

	// The leaderboard is dropped and rebuilt from every participant.
	require.Contains(t, deleted, "raffle:"+testutil.Raffle1.ID+":leaderboard")
	require.Equal(t, map[string]float64{testutil.User1: 3, testutil.User2: 1}, leaderboard)

	// Recently active users get their status view refreshed.
	status, ok := objects["user:"+testutil.User1+":status"].(model.UserStatus)
	require.True(t, ok)
	require.Equal(t, 3, status.TicketsCount)

	// The lock is released at the end of the run.
	require.Contains(t, deleted, "raffle:reconcile:lock")
}

func Test_ReconcileCacheCronJob_skipsWhenLockHeld(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)

	touched := false
	redis := &testutil.MockRedisClient{
		SetNXFunc: func(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
			// Each run offers its own random holder token.
			require.NotEmpty(t, value)
			return false, nil
		},
		SetObjFunc: func(ctx context.Context, key string, obj any, ttl time.Duration) error {
			touched = true
			return nil
		},
		DelFunc: func(ctx context.Context, key ...string) error {
			touched = true
			return nil
		},
	}

	job := newReconcileJob(redis)
	job.Do(ctx)
	require.False(t, touched)
}

func Test_ReconcileCacheCronJob_dropsStaleActiveRaffle(t *testing.T) {
	ctx := testutil.MockContext()

	deleted := []string{}
	redis := &testutil.MockRedisClient{
		DelFunc: func(ctx context.Context, key ...string) error {
			deleted = append(deleted, key...)
			return nil
		},
	}

	// No raffle in the ledger: a lingering cached snapshot must go away.
	job := newReconcileJob(redis)
	job.Do(ctx)
	require.Contains(t, deleted, "raffle:active")
}

func Test_CronJobManager_runsJobAndStops(t *testing.T) {
	ctx := testutil.MockContext()

	done := make(chan struct{})
	manager := NewCronJobManager()
	job := &countingJob{done: done}

	go manager.Start(ctx, job)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("job did not run")
	}

	// Give the manager a moment to arm the next timer before cancelling.
	time.Sleep(50 * time.Millisecond)
	manager.Cancel(ctx)
}

type countingJob struct {
	done chan struct{}
	ran  bool
}

func (j *countingJob) Do(context.Context) {
	if !j.ran {
		j.ran = true
		close(j.done)
	}
}

func (j *countingJob) RunNow() bool { return true }

func (j *countingJob) Next() time.Time { return time.Now().Add(time.Hour) }
