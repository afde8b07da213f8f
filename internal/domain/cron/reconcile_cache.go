package cron

import (
	"context"
	"errors"
	"time"

	"github.com/luckycast/backend/internal/common"
	"github.com/luckycast/backend/internal/entity"
	"github.com/luckycast/backend/internal/model"
	"github.com/luckycast/backend/internal/repository"
	"github.com/luckycast/backend/pkg/crypto"
	"github.com/luckycast/backend/pkg/xcontext"
	"github.com/luckycast/backend/pkg/xredis"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// ReconcileCacheCronJob periodically rebuilds the read-side cache from the
// ledger. It backstops the synchronous invalidations: even if a writer's
// invalidation is lost, a stale view lives for at most one interval.
type ReconcileCacheCronJob struct {
	raffleRepo  repository.RaffleRepository
	ticketRepo  repository.TicketGrantRepository
	redisClient xredis.Client
	interval    time.Duration
}

func NewReconcileCacheCronJob(
	raffleRepo repository.RaffleRepository,
	ticketRepo repository.TicketGrantRepository,
	redisClient xredis.Client,
	interval time.Duration,
) *ReconcileCacheCronJob {
	return &ReconcileCacheCronJob{
		raffleRepo:  raffleRepo,
		ticketRepo:  ticketRepo,
		redisClient: redisClient,
		interval:    interval,
	}
}

func (job *ReconcileCacheCronJob) Do(ctx context.Context) {
	cfg := xcontext.Configs(ctx).Raffle

	token, err := crypto.GenerateRandomString()
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot generate lock token: %v", err)
		return
	}

	// The lock TTL doubles as the lock timeout: a crashed run self-heals
	// when the key expires. A held lock skips the run, never queues it.
	// The stored token identifies which holder owns the lock.
	acquired, err := job.redisClient.SetNX(
		ctx, common.RedisKeyReconcileLock(), token, cfg.ReconcileLockTTL)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot acquire reconcile lock: %v", err)
		return
	}

	if !acquired {
		xcontext.Logger(ctx).Debugf("Another reconciliation is running, skip this run")
		return
	}

	defer func() {
		if err := job.redisClient.Del(ctx, common.RedisKeyReconcileLock()); err != nil {
			xcontext.Logger(ctx).Warnf("Cannot release reconcile lock: %v", err)
		}
	}()

	raffle, err := job.raffleRepo.GetActive(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err := job.redisClient.Del(ctx, common.RedisKeyActiveRaffle()); err != nil {
				xcontext.Logger(ctx).Warnf("Cannot drop active raffle cache: %v", err)
			}

			return
		}

		xcontext.Logger(ctx).Errorf("Cannot get active raffle: %v", err)
		return
	}

	converted := model.ConvertRaffle(raffle)
	err = job.redisClient.SetObj(
		ctx, common.RedisKeyActiveRaffle(), converted, cfg.ActiveRaffleTTL)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot rebuild active raffle cache: %v", err)
	}

	job.rebuildLeaderboard(ctx, raffle.ID)
	job.rebuildUserStatuses(ctx, raffle, cfg.RecentUserLimit)
}

func (job *ReconcileCacheCronJob) RunNow() bool {
	return true
}

func (job *ReconcileCacheCronJob) Next() time.Time {
	return time.Now().Add(job.interval)
}

func (job *ReconcileCacheCronJob) rebuildLeaderboard(ctx context.Context, raffleID string) {
	participants, err := job.ticketRepo.GetParticipants(ctx, raffleID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get participants: %v", err)
		return
	}

	key := common.RedisKeyLeaderboard(raffleID)
	if err := job.redisClient.Del(ctx, key); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot drop leaderboard cache: %v", err)
		return
	}

	for _, p := range participants {
		z := redis.Z{Member: p.UserID, Score: float64(p.TicketsCount)}
		if err := job.redisClient.ZAdd(ctx, key, z); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot rebuild leaderboard entry: %v", err)
			return
		}
	}

	ttl := xcontext.Configs(ctx).Raffle.LeaderboardTTL
	if err := job.redisClient.Expire(ctx, key, ttl); err != nil {
		xcontext.Logger(ctx).Warnf("Cannot set leaderboard ttl: %v", err)
	}
}

// rebuildUserStatuses refreshes a bounded set of per-user views for users
// active since the last pass, newest first. Users outside the window
// repopulate lazily on read.
func (job *ReconcileCacheCronJob) rebuildUserStatuses(
	ctx context.Context, raffle *entity.Raffle, limit int,
) {
	since := time.Now().Add(-2 * job.interval)
	recent, err := job.ticketRepo.GetRecentlyActive(ctx, raffle.ID, since, limit)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get recently active grants: %v", err)
		return
	}

	ttl := xcontext.Configs(ctx).Raffle.UserStatusTTL
	for _, grant := range recent {
		status := model.UserStatus{
			UserID:       grant.UserID,
			RaffleID:     raffle.ID,
			PeriodLabel:  raffle.PeriodLabel,
			TicketsCount: grant.TicketsCount,
			TotalTickets: raffle.TotalTickets,
		}

		key := common.RedisKeyUserStatus(grant.UserID)
		if err := job.redisClient.SetObj(ctx, key, status, ttl); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot rebuild user status cache: %v", err)
			return
		}
	}
}
