package repository

import (
	"context"
	"time"

	"github.com/luckycast/backend/internal/entity"
	"github.com/luckycast/backend/pkg/xcontext"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TicketGrantRepository interface {
	Get(ctx context.Context, raffleID, userID string) (*entity.TicketGrant, error)
	Upsert(ctx context.Context, grant *entity.TicketGrant) error
	IncreaseTickets(ctx context.Context, raffleID, userID string, maxTickets int) error
	GetParticipants(ctx context.Context, raffleID string) ([]entity.TicketGrant, error)
	GetRecentlyActive(ctx context.Context, raffleID string, since time.Time, limit int) ([]entity.TicketGrant, error)
}

type ticketGrantRepository struct{}

func NewTicketGrantRepository() *ticketGrantRepository {
	return &ticketGrantRepository{}
}

func (r *ticketGrantRepository) Get(ctx context.Context, raffleID, userID string) (*entity.TicketGrant, error) {
	var result entity.TicketGrant
	err := xcontext.DB(ctx).
		Where("raffle_id=? AND user_id=?", raffleID, userID).Take(&result).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// Upsert creates the zero-ticket grant row if it does not exist yet. A
// concurrent creator winning the race is not an error; the subsequent
// IncreaseTickets works either way.
func (r *ticketGrantRepository) Upsert(ctx context.Context, grant *entity.TicketGrant) error {
	return xcontext.DB(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(grant).Error
}

// IncreaseTickets adds exactly one ticket, clamped at maxTickets. The
// predicate makes the read-modify-write a single atomic statement, so two
// concurrent grants cannot both apply from the same pre-increment value.
// Returns gorm.ErrRecordNotFound when the user is already at the cap.
func (r *ticketGrantRepository) IncreaseTickets(
	ctx context.Context, raffleID, userID string, maxTickets int,
) error {
	tx := xcontext.DB(ctx).Model(&entity.TicketGrant{}).
		Where("raffle_id=? AND user_id=? AND tickets_count<?", raffleID, userID, maxTickets).
		Updates(map[string]any{
			"tickets_count": gorm.Expr("tickets_count+?", 1),
			"last_grant_at": time.Now(),
		})
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

// GetParticipants returns every grant holding at least one ticket, in the
// stable order that defines ticket-number ranges for the audit trail.
func (r *ticketGrantRepository) GetParticipants(
	ctx context.Context, raffleID string,
) ([]entity.TicketGrant, error) {
	var result []entity.TicketGrant
	err := xcontext.DB(ctx).
		Where("raffle_id=? AND tickets_count>0", raffleID).
		Order("first_grant_at ASC, user_id ASC").
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *ticketGrantRepository) GetRecentlyActive(
	ctx context.Context, raffleID string, since time.Time, limit int,
) ([]entity.TicketGrant, error) {
	var result []entity.TicketGrant
	err := xcontext.DB(ctx).
		Where("raffle_id=? AND last_grant_at>=?", raffleID, since).
		Order("last_grant_at DESC").Limit(limit).
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}
