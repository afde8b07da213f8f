package main

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/luckycast/backend/internal/model"
	"github.com/luckycast/backend/pkg/api"
	"github.com/luckycast/backend/pkg/errorx"
	"github.com/luckycast/backend/pkg/kafka"
	"github.com/luckycast/backend/pkg/pubsub"
	"github.com/luckycast/backend/pkg/xcontext"
	"github.com/urfave/cli/v2"
)

func (s *srv) startApi(*cli.Context) error {
	s.loadBase(nil)
	s.migrateDB()
	s.loadRedisClient()
	s.loadRepos()
	s.loadDomains()
	s.publisher = kafka.NewPublisher("luckycast-api", []string{s.configs.Kafka.Addr})

	router := api.NewRouter(func(ctx context.Context) context.Context {
		ctx = xcontext.WithConfigs(ctx, s.configs)
		ctx = xcontext.WithLogger(ctx, xcontext.Logger(s.ctx))
		ctx = xcontext.WithDB(ctx, xcontext.DB(s.ctx))
		return ctx
	})

	api.Register(router, api.Endpoint[model.ProcessEngagementRequest, model.ProcessEngagementResponse]{
		Method: http.MethodPost,
		Path:   "/engagements/process",
		Handle: s.engagementDomain.Process,
	})
	api.Register(router, api.Endpoint[model.ProcessEngagementRequest, model.EnqueueEngagementResponse]{
		Method: http.MethodPost,
		Path:   "/engagements/enqueue",
		Handle: s.enqueueEngagement,
	})
	api.Register(router, api.Endpoint[model.CreateRaffleRequest, model.CreateRaffleResponse]{
		Method: http.MethodPost,
		Path:   "/raffles/create",
		Handle: s.raffleDomain.Create,
	})
	api.Register(router, api.Endpoint[model.CloseRaffleRequest, model.CloseRaffleResponse]{
		Method: http.MethodPost,
		Path:   "/raffles/close",
		Handle: s.raffleDomain.Close,
	})
	api.Register(router, api.Endpoint[model.AnnotatePayoutRequest, model.AnnotatePayoutResponse]{
		Method: http.MethodPost,
		Path:   "/raffles/annotatePayout",
		Handle: s.raffleDomain.AnnotatePayout,
	})
	api.Register(router, api.Endpoint[model.GetActiveRaffleRequest, model.GetActiveRaffleResponse]{
		Method: http.MethodGet,
		Path:   "/raffles/active",
		Handle: s.statisticDomain.GetActiveRaffle,
	})
	api.Register(router, api.Endpoint[model.GetLeaderboardRequest, model.GetLeaderboardResponse]{
		Method: http.MethodGet,
		Path:   "/raffles/leaderboard",
		Handle: s.statisticDomain.GetLeaderboard,
	})
	api.Register(router, api.Endpoint[model.GetUserStatusRequest, model.GetUserStatusResponse]{
		Method: http.MethodGet,
		Path:   "/users/status",
		Handle: s.statisticDomain.GetUserStatus,
	})

	cfg := s.configs.ApiServer
	s.server = &http.Server{
		Addr:    cfg.Host + ":" + cfg.Port,
		Handler: router.Handler(),
	}

	xcontext.Logger(s.ctx).Infof("Http server start in port: %v", cfg.Port)
	if err := s.server.ListenAndServe(); err != nil {
		panic(err)
	}
	xcontext.Logger(s.ctx).Infof("Server stop")

	return nil
}

// enqueueEngagement hands an engagement event to the queue instead of
// processing it inline. The subscriber picks it up with at-least-once
// delivery, so a burst on the api never stalls on the ledger.
func (s *srv) enqueueEngagement(
	ctx context.Context, req *model.ProcessEngagementRequest,
) (*model.EnqueueEngagementResponse, error) {
	b, err := json.Marshal(req)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot marshal engagement event: %v", err)
		return nil, errorx.Unknown
	}

	pack := &pubsub.Pack{Key: []byte(req.UserID + ":" + req.PostID), Msg: b}
	if err := s.publisher.Publish(ctx, s.configs.Kafka.EngagementTopic, pack); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot publish engagement event: %v", err)
		return nil, errorx.New(errorx.Unavailable, "Cannot enqueue engagement")
	}

	return &model.EnqueueEngagementResponse{}, nil
}
