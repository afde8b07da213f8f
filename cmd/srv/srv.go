package main

import (
	"context"
	"net/http"

	"github.com/luckycast/backend/config"
	"github.com/luckycast/backend/internal/client"
	"github.com/luckycast/backend/internal/domain"
	"github.com/luckycast/backend/internal/entity"
	"github.com/luckycast/backend/internal/repository"
	"github.com/luckycast/backend/pkg/logger"
	"github.com/luckycast/backend/pkg/pubsub"
	"github.com/luckycast/backend/pkg/xcontext"
	"github.com/luckycast/backend/pkg/xredis"
	"github.com/urfave/cli/v2"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

type srv struct {
	ctx context.Context
	app *cli.App

	configs config.Configs

	raffleRepo     repository.RaffleRepository
	ticketRepo     repository.TicketGrantRepository
	engagementRepo repository.EngagementRecordRepository

	engagementDomain domain.EngagementDomain
	raffleDomain     domain.RaffleDomain
	statisticDomain  domain.StatisticDomain

	redisClient  xredis.Client
	socialCaller client.SocialCaller
	publisher    pubsub.Publisher

	server *http.Server
}

// loadBase prepares the context every command starts from: configs, logger,
// and database.
func (s *srv) loadBase(*cli.Context) error {
	s.loadConfig()

	ctx := context.Background()
	ctx = xcontext.WithConfigs(ctx, s.configs)
	ctx = xcontext.WithLogger(ctx, logger.NewLoggerFromEnv())
	ctx = xcontext.WithDB(ctx, s.newDatabase())
	s.ctx = ctx

	return nil
}

func (s *srv) newDatabase() *gorm.DB {
	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:                       s.configs.Database.ConnectionString(),
		DefaultStringSize:         256,
		DisableDatetimePrecision:  true,
		DontSupportRenameIndex:    true,
		DontSupportRenameColumn:   true,
		SkipInitializeWithVersion: false,
	}), &gorm.Config{})
	if err != nil {
		panic(err)
	}

	return db
}

func (s *srv) migrateDB() {
	if err := entity.MigrateTable(s.ctx); err != nil {
		panic(err)
	}
}

func (s *srv) loadRedisClient() {
	redisClient, err := xredis.NewClient(s.ctx)
	if err != nil {
		panic(err)
	}

	s.redisClient = redisClient
}

func (s *srv) loadRepos() {
	s.raffleRepo = repository.NewRaffleRepository()
	s.ticketRepo = repository.NewTicketGrantRepository()
	s.engagementRepo = repository.NewEngagementRecordRepository()
}

func (s *srv) loadDomains() {
	s.socialCaller = client.NewSocialCaller(&http.Client{Timeout: s.configs.Social.Timeout})

	s.engagementDomain = domain.NewEngagementDomain(
		s.raffleRepo, s.ticketRepo, s.engagementRepo, s.socialCaller, s.redisClient)
	s.raffleDomain = domain.NewRaffleDomain(s.raffleRepo, s.ticketRepo, s.redisClient)
	s.statisticDomain = domain.NewStatisticDomain(s.raffleRepo, s.ticketRepo, s.redisClient)
}
