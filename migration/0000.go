package migration

import (
	"context"

	"github.com/luckycast/backend/internal/entity"
	"github.com/luckycast/backend/pkg/xcontext"
)

// migrate0000 creates the original schema: raffles, ticket grants, and
// engagement records.
func migrate0000(ctx context.Context) error {
	return xcontext.DB(ctx).AutoMigrate(
		&entity.Raffle{},
		&entity.TicketGrant{},
		&entity.EngagementRecord{},
		&entity.Migration{},
	)
}
