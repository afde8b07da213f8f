package testutil

import (
	"context"
	"time"

	"github.com/luckycast/backend/config"
	"github.com/luckycast/backend/internal/entity"
	"github.com/luckycast/backend/pkg/logger"
	"github.com/luckycast/backend/pkg/xcontext"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func MockContext() context.Context {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		panic(err)
	}

	// A single connection keeps every test statement on the same in-memory
	// database and serializes concurrent writers the way the production
	// store does.
	sqlDB, err := db.DB()
	if err != nil {
		panic(err)
	}
	sqlDB.SetMaxOpenConns(1)

	cfg := config.Configs{
		Env: "testing",
		Raffle: config.RaffleConfigs{
			MaxTicketsPerUser: 9,
			ReconcileInterval: time.Minute,
			ReconcileLockTTL:  2 * time.Minute,
			ActiveRaffleTTL:   time.Minute,
			UserStatusTTL:     5 * time.Minute,
			LeaderboardTTL:    30 * time.Second,
			RecentUserLimit:   100,
		},
		Social: config.SocialConfigs{
			OfficialAccountID: "9000",
		},
	}

	ctx := context.Background()
	ctx = xcontext.WithConfigs(ctx, cfg)
	ctx = xcontext.WithLogger(ctx, logger.NewLogger(logger.ERROR))
	ctx = xcontext.WithDB(ctx, db)

	if err := entity.MigrateTable(ctx); err != nil {
		panic(err)
	}

	return ctx
}
