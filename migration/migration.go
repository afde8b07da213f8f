package migration

import (
	"context"
	"errors"

	"github.com/luckycast/backend/internal/entity"
	"github.com/luckycast/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type migrateFunc func(context.Context) error

// Ordered by version. Never reorder or remove an entry; append only.
var migrators = []migrateFunc{
	migrate0000,
	migrate0001,
	migrate0002,
}

// Migrate brings the schema to the latest version. A fresh database takes
// the auto-migrate shortcut and records itself as fully migrated; an
// existing one replays only the versions it has not seen.
func Migrate(ctx context.Context) error {
	db := xcontext.DB(ctx)
	if err := db.AutoMigrate(&entity.Migration{}); err != nil {
		return err
	}

	current, err := currentVersion(ctx)
	if err != nil {
		return err
	}

	if current < 0 {
		if err := AutoMigrate(ctx); err != nil {
			return err
		}

		return record(ctx, len(migrators)-1)
	}

	for version := current + 1; version < len(migrators); version++ {
		xcontext.Logger(ctx).Infof("Run migration version %d", version)
		if err := migrators[version](ctx); err != nil {
			return err
		}

		if err := record(ctx, version); err != nil {
			return err
		}
	}

	return nil
}

func currentVersion(ctx context.Context) (int, error) {
	var m entity.Migration
	err := xcontext.DB(ctx).Order("version DESC").Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return -1, nil
	}

	if err != nil {
		return 0, err
	}

	return m.Version, nil
}

func record(ctx context.Context, version int) error {
	return xcontext.DB(ctx).Create(&entity.Migration{Version: version}).Error
}
