package entity

import (
	"context"

	"github.com/luckycast/backend/pkg/xcontext"
)

func MigrateTable(ctx context.Context) error {
	return xcontext.DB(ctx).AutoMigrate(
		&Raffle{},
		&TicketGrant{},
		&EngagementRecord{},
	)
}
