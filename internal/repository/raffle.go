package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/luckycast/backend/internal/entity"
	"github.com/luckycast/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type SelectionResultParams struct {
	WinnerID            sql.NullString
	WinningTicketNumber int
	SelectionAlgorithm  string
	AuditRecord         *entity.SelectionAudit
}

type RaffleRepository interface {
	Create(ctx context.Context, raffle *entity.Raffle) error
	GetByID(ctx context.Context, raffleID string) (*entity.Raffle, error)
	GetLast(ctx context.Context) (*entity.Raffle, error)
	GetActive(ctx context.Context) (*entity.Raffle, error)
	GetActiveAt(ctx context.Context, at time.Time) (*entity.Raffle, error)
	RecomputeTotals(ctx context.Context, raffleID string) error
	MarkCompleted(ctx context.Context, raffleID string) error
	SetSelectionResult(ctx context.Context, raffleID string, params SelectionResultParams) error
	AnnotatePayout(ctx context.Context, raffleID, note string) error
}

type raffleRepository struct{}

func NewRaffleRepository() *raffleRepository {
	return &raffleRepository{}
}

func (r *raffleRepository) Create(ctx context.Context, raffle *entity.Raffle) error {
	return xcontext.DB(ctx).Create(raffle).Error
}

func (r *raffleRepository) GetByID(ctx context.Context, raffleID string) (*entity.Raffle, error) {
	var result entity.Raffle
	if err := xcontext.DB(ctx).Take(&result, "id=?", raffleID).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *raffleRepository) GetLast(ctx context.Context) (*entity.Raffle, error) {
	var result entity.Raffle
	if err := xcontext.DB(ctx).Order("start_time DESC").Take(&result).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *raffleRepository) GetActive(ctx context.Context) (*entity.Raffle, error) {
	var result entity.Raffle
	err := xcontext.DB(ctx).Where("status=?", entity.RaffleActive).
		Order("start_time DESC").Take(&result).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// GetActiveAt resolves the raffle an engagement observed at the given time
// belongs to. The raffle is resolved here rather than trusted from the event
// payload, so a back-dated event cannot attach to a closed raffle.
func (r *raffleRepository) GetActiveAt(ctx context.Context, at time.Time) (*entity.Raffle, error) {
	var result entity.Raffle
	err := xcontext.DB(ctx).
		Where("status=? AND start_time<=? AND end_time>?", entity.RaffleActive, at, at).
		Order("start_time DESC").Take(&result).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// RecomputeTotals re-derives the aggregate columns from ticket_grants. Call
// it inside the same transaction as the grant so the aggregates never drift.
// It only touches active raffles; zero affected rows means the raffle was
// completed meanwhile and the caller must roll back.
func (r *raffleRepository) RecomputeTotals(ctx context.Context, raffleID string) error {
	tx := xcontext.DB(ctx).Model(&entity.Raffle{}).
		Where("id=? AND status=?", raffleID, entity.RaffleActive).
		Updates(map[string]any{
			"total_tickets": gorm.Expr(
				"(SELECT COALESCE(SUM(tickets_count), 0) FROM ticket_grants WHERE raffle_id=?)",
				raffleID),
			"total_participants": gorm.Expr(
				"(SELECT COUNT(*) FROM ticket_grants WHERE raffle_id=? AND tickets_count>0)",
				raffleID),
		})
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

// MarkCompleted flips the raffle to completed. The status predicate makes it
// a compare-and-set: exactly one caller can ever succeed per raffle. Call it
// first inside the completing transaction; the UPDATE locks the raffle row,
// so a concurrent grant either commits before it (and is seen by the
// participant snapshot read after this call) or fails the status guard in
// RecomputeTotals and rolls back.
func (r *raffleRepository) MarkCompleted(ctx context.Context, raffleID string) error {
	tx := xcontext.DB(ctx).Model(&entity.Raffle{}).
		Where("id=? AND status=?", raffleID, entity.RaffleActive).
		Update("status", entity.RaffleCompleted)
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

// SetSelectionResult writes the winner fields and the audit record. Use it in
// the same transaction as MarkCompleted, after the draw.
func (r *raffleRepository) SetSelectionResult(
	ctx context.Context, raffleID string, params SelectionResultParams,
) error {
	updates := map[string]any{
		"winner_id":             params.WinnerID,
		"winning_ticket_number": params.WinningTicketNumber,
		"selection_algorithm":   params.SelectionAlgorithm,
	}
	if params.AuditRecord != nil {
		updates["audit_record"] = params.AuditRecord
	}

	tx := xcontext.DB(ctx).Model(&entity.Raffle{}).
		Where("id=? AND status=?", raffleID, entity.RaffleCompleted).
		Updates(updates)
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *raffleRepository) AnnotatePayout(ctx context.Context, raffleID, note string) error {
	tx := xcontext.DB(ctx).Model(&entity.Raffle{}).
		Where("id=? AND status=?", raffleID, entity.RaffleCompleted).
		Update("payout_note", note)
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
