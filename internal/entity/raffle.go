package entity

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/luckycast/backend/pkg/enum"
)

type RaffleStatus string

var (
	RaffleActive    = enum.New(RaffleStatus("active"))
	RaffleCompleted = enum.New(RaffleStatus("completed"))
)

type EngagementAction string

var (
	ActionLike   = enum.New(EngagementAction("like"))
	ActionRecast = enum.New(EngagementAction("recast"))
	ActionReply  = enum.New(EngagementAction("reply"))
)

// Raffle is one recurring engagement-to-reward period. It is created active
// and transitions exactly once to completed when the winner is drawn. The
// aggregate columns are recomputed inside the same transaction as every
// ticket grant, so the invariant total_tickets == SUM(ticket_grants) holds at
// every commit point.
type Raffle struct {
	Base

	PeriodLabel string `gorm:"unique"`
	StartTime   time.Time
	EndTime     time.Time
	Status      RaffleStatus `gorm:"index"`

	TotalTickets      int
	TotalParticipants int
	PrizeAmount       uint64

	// Set only by the completion transaction.
	WinnerID            sql.NullString
	WinningTicketNumber int
	SelectionAlgorithm  string
	AuditRecord         *SelectionAudit `gorm:"type:text"`

	// Appended by the external payout executor after completion. Never
	// reopens the raffle.
	PayoutNote sql.NullString
}

// TicketGrant aggregates the tickets one user holds in one raffle.
type TicketGrant struct {
	CreatedAt time.Time
	UpdatedAt time.Time

	RaffleID string `gorm:"primaryKey"`
	Raffle   Raffle `gorm:"foreignKey:RaffleID"`

	UserID string `gorm:"primaryKey"`

	TicketsCount int
	FirstGrantAt time.Time
	LastGrantAt  time.Time
}

// EngagementRecord is the idempotency guard for ticket grants. At most one
// row exists per (raffle, user, post); ticket_awarded never reverts to false.
type EngagementRecord struct {
	Base

	RaffleID string `gorm:"uniqueIndex:idx_engagement_key,priority:1"`
	Raffle   Raffle `gorm:"foreignKey:RaffleID"`

	UserID string `gorm:"uniqueIndex:idx_engagement_key,priority:2"`
	PostID string `gorm:"uniqueIndex:idx_engagement_key,priority:3"`

	Liked    bool
	Recasted bool
	Replied  bool

	TicketAwarded bool
}

// SelectionAudit is the immutable trace of a winner draw, sufficient to
// reproduce and verify the outcome. Stored verbatim as a JSON column.
type SelectionAudit struct {
	Algorithm         string             `json:"algorithm"`
	TotalTickets      int                `json:"total_tickets"`
	TotalParticipants int                `json:"total_participants"`
	DrawnNumber       int                `json:"drawn_number"`
	WinnerID          string             `json:"winner_id,omitempty"`
	WinnerRangeFirst  int                `json:"winner_range_first,omitempty"`
	WinnerRangeLast   int                `json:"winner_range_last,omitempty"`
	Fallback          bool               `json:"fallback,omitempty"`
	Participants      []AuditParticipant `json:"participants"`
	SelectedAt        time.Time          `json:"selected_at"`
}

type AuditParticipant struct {
	UserID       string  `json:"user_id"`
	TicketsCount int     `json:"tickets_count"`
	RangeFirst   int     `json:"range_first"`
	RangeLast    int     `json:"range_last"`
	Probability  float64 `json:"probability"`
}

func (a *SelectionAudit) Scan(obj any) error {
	switch t := obj.(type) {
	case nil:
		return nil
	case string:
		return json.Unmarshal([]byte(t), a)
	case []byte:
		return json.Unmarshal(t, a)
	}

	return fmt.Errorf("cannot scan invalid data type %T", obj)
}

func (a SelectionAudit) Value() (driver.Value, error) {
	return json.Marshal(a)
}
