package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/luckycast/backend/internal/client"
	"github.com/luckycast/backend/internal/common"
	"github.com/luckycast/backend/internal/entity"
	"github.com/luckycast/backend/internal/model"
	"github.com/luckycast/backend/internal/repository"
	"github.com/luckycast/backend/pkg/enum"
	"github.com/luckycast/backend/pkg/errorx"
	"github.com/luckycast/backend/pkg/xcontext"
	"github.com/luckycast/backend/pkg/xredis"
	"gorm.io/gorm"
)

type EngagementDomain interface {
	Process(context.Context, *model.ProcessEngagementRequest) (*model.ProcessEngagementResponse, error)
}

type engagementDomain struct {
	raffleRepo     repository.RaffleRepository
	ticketRepo     repository.TicketGrantRepository
	engagementRepo repository.EngagementRecordRepository
	socialCaller   client.SocialCaller
	redisClient    xredis.Client
}

func NewEngagementDomain(
	raffleRepo repository.RaffleRepository,
	ticketRepo repository.TicketGrantRepository,
	engagementRepo repository.EngagementRecordRepository,
	socialCaller client.SocialCaller,
	redisClient xredis.Client,
) *engagementDomain {
	return &engagementDomain{
		raffleRepo:     raffleRepo,
		ticketRepo:     ticketRepo,
		engagementRepo: engagementRepo,
		socialCaller:   socialCaller,
		redisClient:    redisClient,
	}
}

// Process is the single entry point for engagement events; webhook and
// scanner ingestion both funnel through it. Re-delivered events are safe: the
// engagement record makes the grant idempotent per (raffle, user, post).
func (d *engagementDomain) Process(
	ctx context.Context, req *model.ProcessEngagementRequest,
) (*model.ProcessEngagementResponse, error) {
	action, err := enum.ToEnum[entity.EngagementAction](req.Action)
	if err != nil {
		xcontext.Logger(ctx).Debugf("Invalid engagement action: %v", err)
		return nil, errorx.New(errorx.BadRequest, "Invalid engagement action %s", req.Action)
	}

	observedAt := req.ObservedAt
	if observedAt.IsZero() {
		observedAt = time.Now()
	}

	// The raffle is resolved from the ledger by observation time, never
	// from the event payload.
	raffle, err := d.raffleRepo.GetActiveAt(ctx, observedAt)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &model.ProcessEngagementResponse{
				Result: model.EngagementRejected,
				Reason: model.ReasonNoActiveRaffle,
			}, nil
		}

		xcontext.Logger(ctx).Errorf("Cannot resolve active raffle: %v", err)
		return nil, errorx.Unknown
	}

	official, err := d.socialCaller.IsOfficialPost(ctx, req.PostID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot verify official post: %v", err)
		return nil, errorx.New(errorx.Unavailable, "Cannot verify the post, retry later")
	}

	if !official {
		return &model.ProcessEngagementResponse{
			Result:   model.EngagementRejected,
			Reason:   model.ReasonNotOfficialPost,
			RaffleID: raffle.ID,
		}, nil
	}

	following, err := d.socialCaller.IsFollowing(ctx, req.UserID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot verify follow gate: %v", err)
		return nil, errorx.New(errorx.Unavailable, "Cannot verify the user, retry later")
	}

	if !following {
		return &model.ProcessEngagementResponse{
			Result:   model.EngagementRejected,
			Reason:   model.ReasonNotFollowing,
			RaffleID: raffle.ID,
		}, nil
	}

	record, err := d.loadOrCreateRecord(ctx, raffle.ID, req.UserID, req.PostID)
	if err != nil {
		return nil, err
	}

	if record.TicketAwarded {
		return &model.ProcessEngagementResponse{
			Result:   model.EngagementAlreadyProcessed,
			RaffleID: raffle.ID,
		}, nil
	}

	if err := d.applyAction(ctx, record, action); err != nil {
		return nil, err
	}

	fastPath, err := d.socialCaller.HasFastPathPrivilege(ctx, req.UserID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot verify fast-path privilege: %v", err)
		return nil, errorx.New(errorx.Unavailable, "Cannot verify the user, retry later")
	}

	if !fastPath {
		if missing := missingActions(record); len(missing) > 0 {
			return &model.ProcessEngagementResponse{
				Result:         model.EngagementPending,
				MissingActions: missing,
				RaffleID:       raffle.ID,
			}, nil
		}
	}

	resp, err := d.grantTicket(ctx, raffle, req.UserID, req.PostID)
	if err != nil {
		return nil, err
	}

	return resp, nil
}

func (d *engagementDomain) loadOrCreateRecord(
	ctx context.Context, raffleID, userID, postID string,
) (*entity.EngagementRecord, error) {
	record, err := d.engagementRepo.Get(ctx, raffleID, userID, postID)
	if err == nil {
		return record, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		xcontext.Logger(ctx).Errorf("Cannot get engagement record: %v", err)
		return nil, errorx.Unknown
	}

	err = d.engagementRepo.Upsert(ctx, &entity.EngagementRecord{
		Base:     entity.Base{ID: uuid.NewString()},
		RaffleID: raffleID,
		UserID:   userID,
		PostID:   postID,
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create engagement record: %v", err)
		return nil, errorx.New(errorx.Unavailable, "Cannot record the engagement, retry later")
	}

	// Re-read so that losing the upsert race to a concurrent processor
	// still yields the canonical row.
	record, err = d.engagementRepo.Get(ctx, raffleID, userID, postID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get engagement record after upsert: %v", err)
		return nil, errorx.Unknown
	}

	return record, nil
}

func (d *engagementDomain) applyAction(
	ctx context.Context, record *entity.EngagementRecord, action entity.EngagementAction,
) error {
	updates := map[string]any{}
	switch action {
	case entity.ActionLike:
		if !record.Liked {
			record.Liked = true
			updates["liked"] = true
		}
	case entity.ActionRecast:
		if !record.Recasted {
			record.Recasted = true
			updates["recasted"] = true
		}
	case entity.ActionReply:
		if !record.Replied {
			record.Replied = true
			updates["replied"] = true
		}
	}

	if err := d.engagementRepo.UpdateActions(ctx, record.ID, updates); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot update engagement actions: %v", err)
		return errorx.New(errorx.Unavailable, "Cannot record the engagement, retry later")
	}

	return nil
}

func missingActions(record *entity.EngagementRecord) []string {
	missing := []string{}
	if !record.Liked {
		missing = append(missing, string(entity.ActionLike))
	}

	if !record.Recasted {
		missing = append(missing, string(entity.ActionRecast))
	}

	if !record.Replied {
		missing = append(missing, string(entity.ActionReply))
	}

	return missing
}

// grantTicket performs the atomic grant step: mark the engagement record
// awarded, add one ticket clamped at the cap, and re-derive the raffle
// aggregates, all in one transaction. Any failure rolls the whole step back,
// so a retry of the same event is always safe.
func (d *engagementDomain) grantTicket(
	ctx context.Context, raffle *entity.Raffle, userID, postID string,
) (*model.ProcessEngagementResponse, error) {
	maxTickets := xcontext.Configs(ctx).Raffle.MaxTicketsPerUser

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	err := d.engagementRepo.MarkTicketAwarded(ctx, raffle.ID, userID, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// A concurrent processor won the award race.
			return &model.ProcessEngagementResponse{
				Result:   model.EngagementAlreadyProcessed,
				RaffleID: raffle.ID,
			}, nil
		}

		xcontext.Logger(ctx).Errorf("Cannot mark ticket awarded: %v", err)
		return nil, errorx.New(errorx.Unavailable, "Cannot grant the ticket, retry later")
	}

	now := time.Now()
	err = d.ticketRepo.Upsert(ctx, &entity.TicketGrant{
		RaffleID:     raffle.ID,
		UserID:       userID,
		TicketsCount: 0,
		FirstGrantAt: now,
		LastGrantAt:  now,
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot upsert ticket grant: %v", err)
		return nil, errorx.New(errorx.Unavailable, "Cannot grant the ticket, retry later")
	}

	addedTicket := true
	if err := d.ticketRepo.IncreaseTickets(ctx, raffle.ID, userID, maxTickets); err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			xcontext.Logger(ctx).Errorf("Cannot increase tickets: %v", err)
			return nil, errorx.New(errorx.Unavailable, "Cannot grant the ticket, retry later")
		}

		// Already at the cap. The record still counts as processed but
		// adds zero tickets.
		addedTicket = false
	}

	if err := d.raffleRepo.RecomputeTotals(ctx, raffle.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// The raffle completed between the status check and this
			// write; the rollback drops the whole grant.
			return &model.ProcessEngagementResponse{
				Result: model.EngagementRejected,
				Reason: model.ReasonNoActiveRaffle,
			}, nil
		}

		xcontext.Logger(ctx).Errorf("Cannot recompute raffle totals: %v", err)
		return nil, errorx.New(errorx.Unavailable, "Cannot grant the ticket, retry later")
	}

	ctx = xcontext.WithCommitDBTransaction(ctx)

	d.invalidateCaches(ctx, raffle.ID, userID, addedTicket)

	grant, err := d.ticketRepo.Get(ctx, raffle.ID, userID)
	if err != nil {
		xcontext.Logger(ctx).Warnf("Cannot reload ticket grant: %v", err)
		return &model.ProcessEngagementResponse{
			Result:   model.EngagementGranted,
			RaffleID: raffle.ID,
		}, nil
	}

	return &model.ProcessEngagementResponse{
		Result:       model.EngagementGranted,
		RaffleID:     raffle.ID,
		TicketsCount: grant.TicketsCount,
	}, nil
}

// invalidateCaches drops the read views the grant made stale. Failures are
// logged only; the reconciler bounds how long a missed invalidation lives.
func (d *engagementDomain) invalidateCaches(
	ctx context.Context, raffleID, userID string, totalsChanged bool,
) {
	if err := d.redisClient.Del(ctx, common.RedisKeyUserStatus(userID)); err != nil {
		xcontext.Logger(ctx).Warnf("Cannot invalidate user status cache: %v", err)
	}

	if !totalsChanged {
		return
	}

	if err := d.redisClient.Del(ctx, common.RedisKeyActiveRaffle()); err != nil {
		xcontext.Logger(ctx).Warnf("Cannot invalidate active raffle cache: %v", err)
	}

	// The leaderboard is updated in place when it is already loaded;
	// otherwise the next read rebuilds it from the ledger.
	key := common.RedisKeyLeaderboard(raffleID)
	ok, err := d.redisClient.Exist(ctx, key)
	if err != nil {
		xcontext.Logger(ctx).Warnf("Cannot check leaderboard cache: %v", err)
		return
	}

	if ok {
		if err := d.redisClient.ZIncrBy(ctx, key, 1, userID); err != nil {
			xcontext.Logger(ctx).Warnf("Cannot update leaderboard cache: %v", err)
		}
	}
}
