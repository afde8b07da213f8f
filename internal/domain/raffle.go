package domain

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/luckycast/backend/internal/common"
	"github.com/luckycast/backend/internal/entity"
	"github.com/luckycast/backend/internal/model"
	"github.com/luckycast/backend/internal/repository"
	"github.com/luckycast/backend/pkg/crypto"
	"github.com/luckycast/backend/pkg/dateutil"
	"github.com/luckycast/backend/pkg/errorx"
	"github.com/luckycast/backend/pkg/xcontext"
	"github.com/luckycast/backend/pkg/xredis"
	"gorm.io/gorm"
)

// selectionAlgorithm tags every audit record with the draw procedure that
// produced it.
const selectionAlgorithm = "weighted-cumulative-v1"

type RaffleDomain interface {
	Create(context.Context, *model.CreateRaffleRequest) (*model.CreateRaffleResponse, error)
	Close(context.Context, *model.CloseRaffleRequest) (*model.CloseRaffleResponse, error)
	AnnotatePayout(context.Context, *model.AnnotatePayoutRequest) (*model.AnnotatePayoutResponse, error)
}

type raffleDomain struct {
	raffleRepo  repository.RaffleRepository
	ticketRepo  repository.TicketGrantRepository
	redisClient xredis.Client
}

func NewRaffleDomain(
	raffleRepo repository.RaffleRepository,
	ticketRepo repository.TicketGrantRepository,
	redisClient xredis.Client,
) *raffleDomain {
	return &raffleDomain{
		raffleRepo:  raffleRepo,
		ticketRepo:  ticketRepo,
		redisClient: redisClient,
	}
}

func (d *raffleDomain) Create(
	ctx context.Context, req *model.CreateRaffleRequest,
) (*model.CreateRaffleResponse, error) {
	if req.StartTime.IsZero() && req.EndTime.IsZero() {
		req.StartTime, req.EndTime = dateutil.WeekBounds(time.Now())
	}

	if req.PeriodLabel == "" {
		req.PeriodLabel = dateutil.WeekLabel(req.StartTime)
	}

	if !req.EndTime.After(req.StartTime) {
		return nil, errorx.New(errorx.BadRequest, "Invalid raffle period")
	}

	lastRaffle, err := d.raffleRepo.GetLast(ctx)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		xcontext.Logger(ctx).Errorf("Cannot get the last raffle: %v", err)
		return nil, errorx.Unknown
	}

	if err == nil {
		if lastRaffle.Status == entity.RaffleActive {
			return nil, errorx.New(errorx.Unavailable, "Still have an active raffle")
		}

		if !req.StartTime.After(lastRaffle.StartTime) {
			return nil, errorx.New(errorx.BadRequest,
				"Start time of this raffle must be after the previous one")
		}
	}

	raffle := &entity.Raffle{
		Base:        entity.Base{ID: uuid.NewString()},
		PeriodLabel: req.PeriodLabel,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Status:      entity.RaffleActive,
		PrizeAmount: req.PrizeAmount,
	}

	if err := d.raffleRepo.Create(ctx, raffle); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create raffle: %v", err)
		return nil, errorx.Unknown
	}

	if err := d.redisClient.Del(ctx, common.RedisKeyActiveRaffle()); err != nil {
		xcontext.Logger(ctx).Warnf("Cannot invalidate active raffle cache: %v", err)
	}

	return &model.CreateRaffleResponse{ID: raffle.ID}, nil
}

// Close draws the weighted winner and completes the raffle. It reads only
// the ledger, never the cache, and must be called at most once per raffle;
// the active-to-completed compare-and-set enforces that even under races.
func (d *raffleDomain) Close(
	ctx context.Context, req *model.CloseRaffleRequest,
) (*model.CloseRaffleResponse, error) {
	raffle, err := d.raffleRepo.GetByID(ctx, req.RaffleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found raffle")
		}

		xcontext.Logger(ctx).Errorf("Cannot get raffle: %v", err)
		return nil, errorx.Unknown
	}

	if raffle.Status == entity.RaffleCompleted {
		return nil, errorx.New(errorx.Unavailable, "The raffle was already completed")
	}

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	// The status compare-and-set comes first: its UPDATE locks the raffle
	// row, so any grant still in flight either committed before it (and is
	// part of the snapshot below) or fails the active-status guard and
	// rolls back. Reading participants after the flip keeps the draw pool
	// consistent with the frozen aggregates.
	if err := d.raffleRepo.MarkCompleted(ctx, raffle.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.Unavailable, "The raffle was already completed")
		}

		xcontext.Logger(ctx).Errorf("Cannot complete raffle: %v", err)
		return nil, errorx.New(errorx.Unavailable, "Cannot complete the raffle, retry later")
	}

	participants, err := d.ticketRepo.GetParticipants(ctx, raffle.ID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get participants: %v", err)
		return nil, errorx.New(errorx.Unavailable, "Cannot complete the raffle, retry later")
	}

	total := 0
	for _, p := range participants {
		total += p.TicketsCount
	}

	var result selectionResult
	var draw int
	var audit *entity.SelectionAudit
	if total == 0 {
		audit = &entity.SelectionAudit{
			Algorithm:    selectionAlgorithm,
			Participants: []entity.AuditParticipant{},
			SelectedAt:   time.Now(),
		}
	} else {
		draw = crypto.RandRange(1, total+1)
		result = pickWinner(participants, draw)
		if result.Fallback {
			// Unreachable for a correct walk; kept so production never
			// crashes on a defect, but every occurrence is a critical bug.
			xcontext.Logger(ctx).Errorf(
				"CRITICAL: weighted draw %d of %d matched no participant in raffle %s, fell back to the last one",
				draw, total, raffle.ID)
		}

		audit = buildAudit(participants, total, draw, result)
	}

	params := repository.SelectionResultParams{
		WinningTicketNumber: draw,
		SelectionAlgorithm:  selectionAlgorithm,
		AuditRecord:         audit,
	}
	if total > 0 {
		params.WinnerID = sql.NullString{String: result.Winner.UserID, Valid: true}
	}

	if err := d.raffleRepo.SetSelectionResult(ctx, raffle.ID, params); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot record selection result: %v", err)
		return nil, errorx.New(errorx.Unavailable, "Cannot complete the raffle, retry later")
	}

	ctx = xcontext.WithCommitDBTransaction(ctx)

	if total == 0 {
		d.invalidateCaches(ctx, raffle.ID, "")

		return &model.CloseRaffleResponse{
			RaffleID:       raffle.ID,
			NoParticipants: true,
			PrizeAmount:    raffle.PrizeAmount,
			AuditRecord:    model.ConvertSelectionAudit(audit),
		}, nil
	}

	d.invalidateCaches(ctx, raffle.ID, result.Winner.UserID)

	return &model.CloseRaffleResponse{
		RaffleID:            raffle.ID,
		WinnerID:            result.Winner.UserID,
		WinningTicketNumber: draw,
		PrizeAmount:         raffle.PrizeAmount,
		AuditRecord:         model.ConvertSelectionAudit(audit),
	}, nil
}

func (d *raffleDomain) AnnotatePayout(
	ctx context.Context, req *model.AnnotatePayoutRequest,
) (*model.AnnotatePayoutResponse, error) {
	if req.Status == "" {
		return nil, errorx.New(errorx.BadRequest, "Require a payout status")
	}

	note := req.Status
	if req.TxHash != "" {
		note = note + ":" + req.TxHash
	}

	if err := d.raffleRepo.AnnotatePayout(ctx, req.RaffleID, note); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found completed raffle")
		}

		xcontext.Logger(ctx).Errorf("Cannot annotate payout: %v", err)
		return nil, errorx.Unknown
	}

	return &model.AnnotatePayoutResponse{}, nil
}

func (d *raffleDomain) invalidateCaches(ctx context.Context, raffleID, winnerID string) {
	keys := []string{
		common.RedisKeyActiveRaffle(),
		common.RedisKeyLeaderboard(raffleID),
	}
	if winnerID != "" {
		keys = append(keys, common.RedisKeyUserStatus(winnerID))
	}

	if err := d.redisClient.Del(ctx, keys...); err != nil {
		xcontext.Logger(ctx).Warnf("Cannot invalidate caches after close: %v", err)
	}
}
