package domain

import (
	"context"
	"errors"

	"github.com/luckycast/backend/internal/common"
	"github.com/luckycast/backend/internal/model"
	"github.com/luckycast/backend/internal/repository"
	"github.com/luckycast/backend/pkg/errorx"
	"github.com/luckycast/backend/pkg/xcontext"
	"github.com/luckycast/backend/pkg/xredis"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// StatisticDomain serves the render-path read views. Everything here is
// cache-aside over the ledger: the cache is never authoritative, only fast.
type StatisticDomain interface {
	GetUserStatus(context.Context, *model.GetUserStatusRequest) (*model.GetUserStatusResponse, error)
	GetLeaderboard(context.Context, *model.GetLeaderboardRequest) (*model.GetLeaderboardResponse, error)
	GetActiveRaffle(context.Context, *model.GetActiveRaffleRequest) (*model.GetActiveRaffleResponse, error)
}

type statisticDomain struct {
	raffleRepo  repository.RaffleRepository
	ticketRepo  repository.TicketGrantRepository
	redisClient xredis.Client
}

func NewStatisticDomain(
	raffleRepo repository.RaffleRepository,
	ticketRepo repository.TicketGrantRepository,
	redisClient xredis.Client,
) *statisticDomain {
	return &statisticDomain{
		raffleRepo:  raffleRepo,
		ticketRepo:  ticketRepo,
		redisClient: redisClient,
	}
}

func (d *statisticDomain) GetUserStatus(
	ctx context.Context, req *model.GetUserStatusRequest,
) (*model.GetUserStatusResponse, error) {
	if req.UserID == "" {
		return nil, errorx.New(errorx.BadRequest, "Require an user id")
	}

	var status model.UserStatus
	err := d.redisClient.GetObj(ctx, common.RedisKeyUserStatus(req.UserID), &status)
	if err == nil {
		return &model.GetUserStatusResponse{UserStatus: status}, nil
	}

	if err != redis.Nil {
		xcontext.Logger(ctx).Warnf("Cannot read user status cache: %v", err)
	}

	raffle, err := d.raffleRepo.GetActive(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found any active raffle")
		}

		xcontext.Logger(ctx).Errorf("Cannot get active raffle: %v", err)
		return nil, errorx.Unknown
	}

	ticketsCount := 0
	grant, err := d.ticketRepo.Get(ctx, raffle.ID, req.UserID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		xcontext.Logger(ctx).Errorf("Cannot get ticket grant: %v", err)
		return nil, errorx.Unknown
	}

	if err == nil {
		ticketsCount = grant.TicketsCount
	}

	status = model.UserStatus{
		UserID:       req.UserID,
		RaffleID:     raffle.ID,
		PeriodLabel:  raffle.PeriodLabel,
		TicketsCount: ticketsCount,
		TotalTickets: raffle.TotalTickets,
	}

	ttl := xcontext.Configs(ctx).Raffle.UserStatusTTL
	err = d.redisClient.SetObj(ctx, common.RedisKeyUserStatus(req.UserID), status, ttl)
	if err != nil {
		xcontext.Logger(ctx).Warnf("Cannot populate user status cache: %v", err)
	}

	return &model.GetUserStatusResponse{UserStatus: status}, nil
}

func (d *statisticDomain) GetLeaderboard(
	ctx context.Context, req *model.GetLeaderboardRequest,
) (*model.GetLeaderboardResponse, error) {
	raffleID := req.RaffleID
	if raffleID == "" {
		raffle, err := d.raffleRepo.GetActive(ctx)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, errorx.New(errorx.NotFound, "Not found any active raffle")
			}

			xcontext.Logger(ctx).Errorf("Cannot get active raffle: %v", err)
			return nil, errorx.Unknown
		}

		raffleID = raffle.ID
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}

	if limit > 100 {
		return nil, errorx.New(errorx.BadRequest, "Exceed the maximum of limit (100)")
	}

	key := common.RedisKeyLeaderboard(raffleID)
	ok, err := d.redisClient.Exist(ctx, key)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot check leaderboard cache: %v", err)
		return nil, errorx.Unknown
	}

	if !ok {
		if err := d.loadLeaderboardFromDB(ctx, raffleID); err != nil {
			return nil, err
		}
	}

	results, err := d.redisClient.ZRevRangeWithScores(ctx, key, req.Offset, limit)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get leaderboard range: %v", err)
		return nil, errorx.Unknown
	}

	leaderboard := []model.LeaderboardEntry{}
	for i, z := range results {
		leaderboard = append(leaderboard, model.LeaderboardEntry{
			UserID:       z.Member.(string),
			TicketsCount: int(z.Score),
			CurrentRank:  req.Offset + i + 1,
		})
	}

	return &model.GetLeaderboardResponse{Leaderboard: leaderboard}, nil
}

func (d *statisticDomain) GetActiveRaffle(
	ctx context.Context, req *model.GetActiveRaffleRequest,
) (*model.GetActiveRaffleResponse, error) {
	var cached model.Raffle
	err := d.redisClient.GetObj(ctx, common.RedisKeyActiveRaffle(), &cached)
	if err == nil {
		return &model.GetActiveRaffleResponse{Raffle: cached}, nil
	}

	if err != redis.Nil {
		xcontext.Logger(ctx).Warnf("Cannot read active raffle cache: %v", err)
	}

	raffle, err := d.raffleRepo.GetActive(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found any active raffle")
		}

		xcontext.Logger(ctx).Errorf("Cannot get active raffle: %v", err)
		return nil, errorx.Unknown
	}

	converted := model.ConvertRaffle(raffle)
	ttl := xcontext.Configs(ctx).Raffle.ActiveRaffleTTL
	err = d.redisClient.SetObj(ctx, common.RedisKeyActiveRaffle(), converted, ttl)
	if err != nil {
		xcontext.Logger(ctx).Warnf("Cannot populate active raffle cache: %v", err)
	}

	return &model.GetActiveRaffleResponse{Raffle: converted}, nil
}

func (d *statisticDomain) loadLeaderboardFromDB(ctx context.Context, raffleID string) error {
	participants, err := d.ticketRepo.GetParticipants(ctx, raffleID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot load participants for leaderboard: %v", err)
		return errorx.Unknown
	}

	key := common.RedisKeyLeaderboard(raffleID)
	for _, p := range participants {
		z := redis.Z{Member: p.UserID, Score: float64(p.TicketsCount)}
		if err := d.redisClient.ZAdd(ctx, key, z); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot load leaderboard to cache: %v", err)
			return errorx.Unknown
		}
	}

	ttl := xcontext.Configs(ctx).Raffle.LeaderboardTTL
	if err := d.redisClient.Expire(ctx, key, ttl); err != nil {
		xcontext.Logger(ctx).Warnf("Cannot set leaderboard ttl: %v", err)
	}

	return nil
}
