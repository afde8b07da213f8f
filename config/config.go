package config

import (
	"fmt"
	"time"
)

type Configs struct {
	Env string

	Database  DatabaseConfigs
	ApiServer ServerConfigs
	Redis     RedisConfigs
	Kafka     KafkaConfigs
	Social    SocialConfigs
	Raffle    RaffleConfigs
}

type DatabaseConfigs struct {
	Host     string
	Port     string
	Database string
	User     string
	Password string
}

func (d *DatabaseConfigs) ConnectionString() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.User,
		d.Password,
		d.Host,
		d.Port,
		d.Database,
	)
}

type ServerConfigs struct {
	Host string
	Port string
	Cert string
	Key  string
}

type RedisConfigs struct {
	Addr string
}

type KafkaConfigs struct {
	Addr            string
	EngagementTopic string
	ConsumerGroup   string
}

// SocialConfigs points at the social API sidecar which answers capability
// questions about posts and users (official post, follow gate, fast-path
// privilege).
type SocialConfigs struct {
	APIEndpoint       string
	OfficialAccountID string
	Timeout           time.Duration
}

type RaffleConfigs struct {
	// MaxTicketsPerUser caps the tickets a single user can hold in one
	// raffle. A grant past the cap still marks its engagement record as
	// processed but adds zero tickets.
	MaxTicketsPerUser int

	ReconcileInterval time.Duration
	ReconcileLockTTL  time.Duration

	ActiveRaffleTTL time.Duration
	UserStatusTTL   time.Duration
	LeaderboardTTL  time.Duration

	// RecentUserLimit bounds how many per-user status entries a single
	// reconciliation pass rebuilds.
	RecentUserLimit int
}
