package repository

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/luckycast/backend/internal/entity"
	"github.com/luckycast/backend/pkg/testutil"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func Test_raffleRepository_GetActiveAt_respectsWindowAndStatus(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)

	repo := NewRaffleRepository()

	raffle, err := repo.GetActiveAt(ctx, time.Now())
	require.NoError(t, err)
	require.Equal(t, testutil.Raffle1.ID, raffle.ID)

	_, err = repo.GetActiveAt(ctx, testutil.Raffle1.EndTime.Add(time.Minute))
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = repo.GetActiveAt(ctx, testutil.Raffle1.StartTime.Add(-time.Minute))
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// A completed raffle never matches, even inside its window.
	require.NoError(t, repo.MarkCompleted(ctx, testutil.Raffle1.ID))

	_, err = repo.GetActiveAt(ctx, time.Now())
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func Test_raffleRepository_MarkCompleted_isCompareAndSet(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)

	repo := NewRaffleRepository()
	require.NoError(t, repo.MarkCompleted(ctx, testutil.Raffle1.ID))

	// The second completion hits zero rows.
	err := repo.MarkCompleted(ctx, testutil.Raffle1.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	raffle, err := repo.GetByID(ctx, testutil.Raffle1.ID)
	require.NoError(t, err)
	require.Equal(t, entity.RaffleCompleted, raffle.Status)
}

func Test_raffleRepository_SetSelectionResult_requiresCompleted(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)

	repo := NewRaffleRepository()
	params := SelectionResultParams{
		WinnerID:            sql.NullString{String: testutil.User1, Valid: true},
		WinningTicketNumber: 3,
		SelectionAlgorithm:  "weighted-cumulative-v1",
		AuditRecord: &entity.SelectionAudit{
			Algorithm:  "weighted-cumulative-v1",
			WinnerID:   testutil.User1,
			SelectedAt: time.Now(),
		},
	}

	// The winner fields only land on a raffle that was flipped first.
	err := repo.SetSelectionResult(ctx, testutil.Raffle1.ID, params)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	require.NoError(t, repo.MarkCompleted(ctx, testutil.Raffle1.ID))
	require.NoError(t, repo.SetSelectionResult(ctx, testutil.Raffle1.ID, params))

	raffle, err := repo.GetByID(ctx, testutil.Raffle1.ID)
	require.NoError(t, err)
	require.Equal(t, entity.RaffleCompleted, raffle.Status)
	require.Equal(t, testutil.User1, raffle.WinnerID.String)
	require.Equal(t, 3, raffle.WinningTicketNumber)
	require.NotNil(t, raffle.AuditRecord)
	require.Equal(t, testutil.User1, raffle.AuditRecord.WinnerID)
}

func Test_raffleRepository_RecomputeTotals_onlyActiveRaffles(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)

	grantRepo := NewTicketGrantRepository()
	now := time.Now()
	for _, userID := range []string{testutil.User1, testutil.User2} {
		require.NoError(t, grantRepo.Upsert(ctx, &entity.TicketGrant{
			RaffleID:     testutil.Raffle1.ID,
			UserID:       userID,
			TicketsCount: 2,
			FirstGrantAt: now,
			LastGrantAt:  now,
		}))
	}

	repo := NewRaffleRepository()
	require.NoError(t, repo.RecomputeTotals(ctx, testutil.Raffle1.ID))

	raffle, err := repo.GetByID(ctx, testutil.Raffle1.ID)
	require.NoError(t, err)
	require.Equal(t, 4, raffle.TotalTickets)
	require.Equal(t, 2, raffle.TotalParticipants)

	require.NoError(t, repo.MarkCompleted(ctx, testutil.Raffle1.ID))

	// Once completed, the aggregates are frozen.
	err = repo.RecomputeTotals(ctx, testutil.Raffle1.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func Test_ticketGrantRepository_IncreaseTickets_clampsAtCap(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)

	repo := NewTicketGrantRepository()
	now := time.Now()
	require.NoError(t, repo.Upsert(ctx, &entity.TicketGrant{
		RaffleID:     testutil.Raffle1.ID,
		UserID:       testutil.User1,
		FirstGrantAt: now,
		LastGrantAt:  now,
	}))

	const maxTickets = 3
	for i := 0; i < maxTickets; i++ {
		require.NoError(t, repo.IncreaseTickets(ctx, testutil.Raffle1.ID, testutil.User1, maxTickets))
	}

	err := repo.IncreaseTickets(ctx, testutil.Raffle1.ID, testutil.User1, maxTickets)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	grant, err := repo.Get(ctx, testutil.Raffle1.ID, testutil.User1)
	require.NoError(t, err)
	require.Equal(t, maxTickets, grant.TicketsCount)
}

func Test_ticketGrantRepository_GetParticipants_stableOrder(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)

	repo := NewTicketGrantRepository()
	base := time.Now()
	grants := []entity.TicketGrant{
		{RaffleID: testutil.Raffle1.ID, UserID: testutil.User2, TicketsCount: 1, FirstGrantAt: base.Add(-time.Hour)},
		{RaffleID: testutil.Raffle1.ID, UserID: testutil.User1, TicketsCount: 2, FirstGrantAt: base},
		{RaffleID: testutil.Raffle1.ID, UserID: testutil.User3, TicketsCount: 0, FirstGrantAt: base.Add(-2 * time.Hour)},
	}
	for i := range grants {
		grants[i].LastGrantAt = grants[i].FirstGrantAt
		require.NoError(t, repo.Upsert(ctx, &grants[i]))
	}

	participants, err := repo.GetParticipants(ctx, testutil.Raffle1.ID)
	require.NoError(t, err)

	// Zero-ticket rows are excluded; the rest come in first-grant order.
	require.Len(t, participants, 2)
	require.Equal(t, testutil.User2, participants[0].UserID)
	require.Equal(t, testutil.User1, participants[1].UserID)
}

func Test_engagementRecordRepository_MarkTicketAwarded_once(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)

	repo := NewEngagementRecordRepository()
	require.NoError(t, repo.Upsert(ctx, &entity.EngagementRecord{
		Base:     entity.Base{ID: uuid.NewString()},
		RaffleID: testutil.Raffle1.ID,
		UserID:   testutil.User1,
		PostID:   "post1",
	}))

	require.NoError(t, repo.MarkTicketAwarded(ctx, testutil.Raffle1.ID, testutil.User1, "post1"))

	// Every later attempt loses the compare-and-set.
	err := repo.MarkTicketAwarded(ctx, testutil.Raffle1.ID, testutil.User1, "post1")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	record, err := repo.Get(ctx, testutil.Raffle1.ID, testutil.User1, "post1")
	require.NoError(t, err)
	require.True(t, record.TicketAwarded)
}

func Test_engagementRecordRepository_Upsert_keepsFirstRow(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)

	repo := NewEngagementRecordRepository()
	first := &entity.EngagementRecord{
		Base:     entity.Base{ID: uuid.NewString()},
		RaffleID: testutil.Raffle1.ID,
		UserID:   testutil.User1,
		PostID:   "post1",
		Liked:    true,
	}
	require.NoError(t, repo.Upsert(ctx, first))

	// A duplicate delivery with a fresh id silently loses.
	require.NoError(t, repo.Upsert(ctx, &entity.EngagementRecord{
		Base:     entity.Base{ID: uuid.NewString()},
		RaffleID: testutil.Raffle1.ID,
		UserID:   testutil.User1,
		PostID:   "post1",
	}))

	record, err := repo.Get(ctx, testutil.Raffle1.ID, testutil.User1, "post1")
	require.NoError(t, err)
	require.Equal(t, first.ID, record.ID)
	require.True(t, record.Liked)
}
