package testutil

import (
	"context"
	"time"

	"github.com/luckycast/backend/internal/entity"
	"github.com/luckycast/backend/pkg/xcontext"
)

var (
	User1 = "1001"
	User2 = "1002"
	User3 = "1003"

	Raffle1 = &entity.Raffle{
		Base:        entity.Base{ID: "raffle1"},
		PeriodLabel: "2026-W35",
		StartTime:   time.Now().Add(-24 * time.Hour),
		EndTime:     time.Now().Add(24 * time.Hour),
		Status:      entity.RaffleActive,
		PrizeAmount: 50000,
	}
)

func CreateFixtureDb(ctx context.Context) {
	raffle := *Raffle1
	if err := xcontext.DB(ctx).Create(&raffle).Error; err != nil {
		panic(err)
	}
}
