package migration

import (
	"context"

	"github.com/luckycast/backend/internal/entity"
	"github.com/luckycast/backend/pkg/xcontext"
)

// migrate0002 adds the manual payout annotation column to raffles.
func migrate0002(ctx context.Context) error {
	migrator := xcontext.DB(ctx).Migrator()

	if migrator.HasColumn(&entity.Raffle{}, "payout_note") {
		return nil
	}

	return migrator.AddColumn(&entity.Raffle{}, "payout_note")
}
