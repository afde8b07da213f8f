package migration

import (
	"context"

	"github.com/luckycast/backend/internal/entity"
	"github.com/luckycast/backend/pkg/xcontext"
)

// AutoMigrate creates the latest schema directly. When this migrator is
// called, no need to call other migrators.
func AutoMigrate(ctx context.Context) error {
	return xcontext.DB(ctx).AutoMigrate(
		&entity.Raffle{},
		&entity.TicketGrant{},
		&entity.EngagementRecord{},
		&entity.Migration{},
	)
}
