package main

import (
	"github.com/luckycast/backend/internal/domain/cron"
	"github.com/urfave/cli/v2"
)

func (s *srv) startCron(*cli.Context) error {
	s.loadBase(nil)
	s.loadRedisClient()
	s.loadRepos()

	manager := cron.NewCronJobManager()
	manager.Start(s.ctx, cron.NewReconcileCacheCronJob(
		s.raffleRepo, s.ticketRepo, s.redisClient, s.configs.Raffle.ReconcileInterval))

	return nil
}
