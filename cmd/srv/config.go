package main

import (
	"os"
	"strconv"
	"time"

	"github.com/luckycast/backend/config"
)

func (s *srv) loadConfig() {
	s.configs = config.Configs{
		Env: getEnv("ENV", "dev"),
		Database: config.DatabaseConfigs{
			Host:     getEnv("MYSQL_HOST", "localhost"),
			Port:     getEnv("MYSQL_PORT", "3306"),
			Database: getEnv("MYSQL_DATABASE", "luckycast"),
			User:     getEnv("MYSQL_USER", "luckycast"),
			Password: getEnv("MYSQL_PASSWORD", ""),
		},
		ApiServer: config.ServerConfigs{
			Host: getEnv("API_HOST", "localhost"),
			Port: getEnv("API_PORT", "8080"),
			Cert: getEnv("API_CERT", ""),
			Key:  getEnv("API_KEY", ""),
		},
		Redis: config.RedisConfigs{
			Addr: getEnv("REDIS_ADDR", "localhost:6379"),
		},
		Kafka: config.KafkaConfigs{
			Addr:            getEnv("KAFKA_ADDR", "localhost:9092"),
			EngagementTopic: getEnv("KAFKA_ENGAGEMENT_TOPIC", "engagements"),
			ConsumerGroup:   getEnv("KAFKA_CONSUMER_GROUP", "raffle-processor"),
		},
		Social: config.SocialConfigs{
			APIEndpoint:       getEnv("SOCIAL_API_ENDPOINT", "http://localhost:8180"),
			OfficialAccountID: getEnv("SOCIAL_OFFICIAL_ACCOUNT_ID", ""),
			Timeout:           getDuration("SOCIAL_API_TIMEOUT", 10*time.Second),
		},
		Raffle: config.RaffleConfigs{
			MaxTicketsPerUser: getInt("RAFFLE_MAX_TICKETS_PER_USER", 9),
			ReconcileInterval: getDuration("RAFFLE_RECONCILE_INTERVAL", 5*time.Minute),
			ReconcileLockTTL:  getDuration("RAFFLE_RECONCILE_LOCK_TTL", 10*time.Minute),
			ActiveRaffleTTL:   getDuration("RAFFLE_ACTIVE_TTL", time.Minute),
			UserStatusTTL:     getDuration("RAFFLE_USER_STATUS_TTL", 5*time.Minute),
			LeaderboardTTL:    getDuration("RAFFLE_LEADERBOARD_TTL", 30*time.Second),
			RecentUserLimit:   getInt("RAFFLE_RECENT_USER_LIMIT", 200),
		},
	}
}

func getEnv(key, def string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}

	return def
}

func getInt(key string, def int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return def
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		panic(err)
	}

	return n
}

func getDuration(key string, def time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return def
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		panic(err)
	}

	return d
}
