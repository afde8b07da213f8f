package model

import "time"

// Engagement outcomes. Business-rule outcomes are response values; only
// transient or unexpected failures surface as errors.
const (
	EngagementGranted          = "granted"
	EngagementAlreadyProcessed = "already_processed"
	EngagementPending          = "pending"
	EngagementRejected         = "rejected"
)

// Rejection reasons.
const (
	ReasonNoActiveRaffle  = "no_active_raffle"
	ReasonNotOfficialPost = "not_official_post"
	ReasonNotFollowing    = "not_following"
)

type Raffle struct {
	ID                  string          `json:"id"`
	PeriodLabel         string          `json:"period_label"`
	StartTime           time.Time       `json:"start_time"`
	EndTime             time.Time       `json:"end_time"`
	Status              string          `json:"status"`
	TotalTickets        int             `json:"total_tickets"`
	TotalParticipants   int             `json:"total_participants"`
	PrizeAmount         uint64          `json:"prize_amount"`
	WinnerID            string          `json:"winner_id,omitempty"`
	WinningTicketNumber int             `json:"winning_ticket_number,omitempty"`
	SelectionAlgorithm  string          `json:"selection_algorithm,omitempty"`
	AuditRecord         *SelectionAudit `json:"audit_record,omitempty"`
}

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

type ProcessEngagementRequest struct {
	UserID     string    `json:"user_id"`
	PostID     string    `json:"post_id"`
	AuthorID   string    `json:"author_id"`
	Action     string    `json:"action"`
	ObservedAt time.Time `json:"observed_at"`
}

type ProcessEngagementResponse struct {
	Result         string   `json:"result"`
	Reason         string   `json:"reason,omitempty"`
	MissingActions []string `json:"missing_actions,omitempty"`
	RaffleID       string   `json:"raffle_id,omitempty"`
	TicketsCount   int      `json:"tickets_count,omitempty"`
}

type EnqueueEngagementResponse struct{}

type CreateRaffleRequest struct {
	PeriodLabel string    `json:"period_label"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	PrizeAmount uint64    `json:"prize_amount"`
}

type CreateRaffleResponse struct {
	ID string `json:"id"`
}

type GetActiveRaffleRequest struct{}

type GetActiveRaffleResponse struct {
	Raffle Raffle `json:"raffle"`
}

type CloseRaffleRequest struct {
	RaffleID string `json:"raffle_id"`
}

type CloseRaffleResponse struct {
	RaffleID            string          `json:"raffle_id"`
	NoParticipants      bool            `json:"no_participants,omitempty"`
	WinnerID            string          `json:"winner_id,omitempty"`
	WinningTicketNumber int             `json:"winning_ticket_number,omitempty"`
	PrizeAmount         uint64          `json:"prize_amount"`
	AuditRecord         *SelectionAudit `json:"audit_record,omitempty"`
}

type AnnotatePayoutRequest struct {
	RaffleID string `json:"raffle_id"`
	Status   string `json:"status"`
	TxHash   string `json:"tx_hash,omitempty"`
}

type AnnotatePayoutResponse struct{}

type GetUserStatusRequest struct {
	UserID string `json:"user_id"`
}

type GetUserStatusResponse struct {
	UserStatus UserStatus `json:"user_status"`
}

// UserStatus is the denormalized per-user read view held in the cache.
type UserStatus struct {
	UserID       string `json:"user_id" redis:"user_id"`
	RaffleID     string `json:"raffle_id" redis:"raffle_id"`
	PeriodLabel  string `json:"period_label" redis:"period_label"`
	TicketsCount int    `json:"tickets_count" redis:"tickets_count"`
	TotalTickets int    `json:"total_tickets" redis:"total_tickets"`
}

type GetLeaderboardRequest struct {
	RaffleID string `json:"raffle_id"`
	Offset   int    `json:"offset"`
	Limit    int    `json:"limit"`
}

type GetLeaderboardResponse struct {
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
}

type LeaderboardEntry struct {
	UserID       string `json:"user_id"`
	TicketsCount int    `json:"tickets_count"`
	CurrentRank  int    `json:"current_rank"`
}
