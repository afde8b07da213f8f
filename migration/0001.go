package migration

import (
	"context"

	"github.com/luckycast/backend/internal/entity"
	"github.com/luckycast/backend/pkg/xcontext"
)

// migrate0001 adds the selection audit columns to raffles.
func migrate0001(ctx context.Context) error {
	migrator := xcontext.DB(ctx).Migrator()

	if !migrator.HasColumn(&entity.Raffle{}, "selection_algorithm") {
		if err := migrator.AddColumn(&entity.Raffle{}, "selection_algorithm"); err != nil {
			return err
		}
	}

	if !migrator.HasColumn(&entity.Raffle{}, "audit_record") {
		if err := migrator.AddColumn(&entity.Raffle{}, "audit_record"); err != nil {
			return err
		}
	}

	return nil
}
