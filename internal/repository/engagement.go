package repository

import (
	"context"

	"github.com/luckycast/backend/internal/entity"
	"github.com/luckycast/backend/pkg/xcontext"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EngagementRecordRepository interface {
	Get(ctx context.Context, raffleID, userID, postID string) (*entity.EngagementRecord, error)
	Upsert(ctx context.Context, record *entity.EngagementRecord) error
	UpdateActions(ctx context.Context, recordID string, updates map[string]any) error
	MarkTicketAwarded(ctx context.Context, raffleID, userID, postID string) error
}

type engagementRecordRepository struct{}

func NewEngagementRecordRepository() *engagementRecordRepository {
	return &engagementRecordRepository{}
}

func (r *engagementRecordRepository) Get(
	ctx context.Context, raffleID, userID, postID string,
) (*entity.EngagementRecord, error) {
	var result entity.EngagementRecord
	err := xcontext.DB(ctx).
		Where("raffle_id=? AND user_id=? AND post_id=?", raffleID, userID, postID).
		Take(&result).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// Upsert creates the record unless the unique (raffle, user, post) key
// already exists. Losing the race to a concurrent creator is fine; callers
// re-read afterwards.
func (r *engagementRecordRepository) Upsert(ctx context.Context, record *entity.EngagementRecord) error {
	return xcontext.DB(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(record).Error
}

func (r *engagementRecordRepository) UpdateActions(
	ctx context.Context, recordID string, updates map[string]any,
) error {
	if len(updates) == 0 {
		return nil
	}

	return xcontext.DB(ctx).Model(&entity.EngagementRecord{}).
		Where("id=?", recordID).Updates(updates).Error
}

// MarkTicketAwarded is the single idempotency gate for granting a ticket.
// The predicate on ticket_awarded guarantees that of any number of
// concurrent processors, exactly one observes an affected row; everyone else
// gets gorm.ErrRecordNotFound and reports the grant as already processed.
func (r *engagementRecordRepository) MarkTicketAwarded(
	ctx context.Context, raffleID, userID, postID string,
) error {
	tx := xcontext.DB(ctx).Model(&entity.EngagementRecord{}).
		Where("raffle_id=? AND user_id=? AND post_id=? AND ticket_awarded=?",
			raffleID, userID, postID, false).
		Update("ticket_awarded", true)
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
