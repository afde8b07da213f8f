package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/luckycast/backend/internal/model"
	"github.com/luckycast/backend/pkg/errorx"
	"github.com/luckycast/backend/pkg/kafka"
	"github.com/luckycast/backend/pkg/pubsub"
	"github.com/luckycast/backend/pkg/xcontext"
	"github.com/urfave/cli/v2"
)

func (s *srv) startSubscriber(*cli.Context) error {
	s.loadBase(nil)
	s.loadRedisClient()
	s.loadRepos()
	s.loadDomains()

	subscriber := kafka.NewSubscriber(
		s.configs.Kafka.ConsumerGroup,
		[]string{s.configs.Kafka.Addr},
		[]string{s.configs.Kafka.EngagementTopic},
		s.handleEngagementEvent,
	)

	subscriber.Subscribe(s.ctx)
	xcontext.Logger(s.ctx).Infof("Engagement subscriber started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	return subscriber.Stop(s.ctx)
}

// handleEngagementEvent decodes a raw engagement event into a process
// request. Transient failures panic so the consumer group session restarts
// without committing the offset; everything else is final and the message
// is dropped after logging.
func (s *srv) handleEngagementEvent(ctx context.Context, pack *pubsub.Pack, tt time.Time) {
	ctx = xcontext.WithConfigs(ctx, s.configs)
	ctx = xcontext.WithLogger(ctx, xcontext.Logger(s.ctx))
	ctx = xcontext.WithDB(ctx, xcontext.DB(s.ctx))

	var req model.ProcessEngagementRequest
	if err := json.Unmarshal(pack.Msg, &req); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot decode engagement event %s: %v", pack.Key, err)
		return
	}

	if req.ObservedAt.IsZero() {
		req.ObservedAt = tt
	}

	resp, err := s.engagementDomain.Process(ctx, &req)
	if err != nil {
		if errorx.Is(err, errorx.Unavailable) {
			panic(err)
		}

		xcontext.Logger(ctx).Warnf("Cannot process engagement event %s: %v", pack.Key, err)
		return
	}

	xcontext.Logger(ctx).Debugf("Processed engagement event %s: %s", pack.Key, resp.Result)
}
