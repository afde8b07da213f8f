package domain

import (
	"testing"

	"github.com/luckycast/backend/internal/entity"
	"github.com/luckycast/backend/pkg/crypto"
	"github.com/stretchr/testify/require"
)

func grants(counts map[string]int, order ...string) []entity.TicketGrant {
	participants := make([]entity.TicketGrant, 0, len(order))
	for _, userID := range order {
		participants = append(participants, entity.TicketGrant{
			UserID:       userID,
			TicketsCount: counts[userID],
		})
	}

	return participants
}

func Test_pickWinner_contiguousRanges(t *testing.T) {
	participants := grants(map[string]int{"A": 2, "B": 3, "C": 5}, "A", "B", "C")

	// A owns tickets 1-2, B owns 3-5, C owns 6-10.
	for draw, want := range map[int]string{1: "A", 2: "A", 3: "B", 5: "B", 6: "C", 7: "C", 10: "C"} {
		result := pickWinner(participants, draw)
		require.Equalf(t, want, result.Winner.UserID, "draw %d", draw)
		require.False(t, result.Fallback)
	}

	result := pickWinner(participants, 7)
	require.Equal(t, 6, result.RangeFirst)
	require.Equal(t, 10, result.RangeLast)
}

func Test_pickWinner_isDeterministic(t *testing.T) {
	participants := grants(map[string]int{"A": 4, "B": 1, "C": 9}, "A", "B", "C")

	first := pickWinner(participants, 5)
	for i := 0; i < 100; i++ {
		require.Equal(t, first, pickWinner(participants, 5))
	}
}

func Test_pickWinner_singleParticipant(t *testing.T) {
	participants := grants(map[string]int{"A": 1}, "A")

	result := pickWinner(participants, 1)
	require.Equal(t, "A", result.Winner.UserID)
	require.Equal(t, 1, result.RangeFirst)
	require.Equal(t, 1, result.RangeLast)
	require.False(t, result.Fallback)
}

func Test_pickWinner_probabilityProportionalToTickets(t *testing.T) {
	participants := grants(map[string]int{"A": 1, "B": 3, "C": 6}, "A", "B", "C")
	total := 10

	const draws = 100000
	wins := map[string]int{}
	for i := 0; i < draws; i++ {
		draw := crypto.RandIntn(total) + 1
		result := pickWinner(participants, draw)
		require.False(t, result.Fallback)
		wins[result.Winner.UserID]++
	}

	// Allow roughly six standard deviations around each expected share.
	require.InDelta(t, 0.1, float64(wins["A"])/draws, 0.01)
	require.InDelta(t, 0.3, float64(wins["B"])/draws, 0.01)
	require.InDelta(t, 0.6, float64(wins["C"])/draws, 0.01)
}

func Test_buildAudit_recordsEveryParticipant(t *testing.T) {
	participants := grants(map[string]int{"A": 2, "B": 3, "C": 5}, "A", "B", "C")
	result := pickWinner(participants, 4)

	audit := buildAudit(participants, 10, 4, result)
	require.Equal(t, selectionAlgorithm, audit.Algorithm)
	require.Equal(t, 10, audit.TotalTickets)
	require.Equal(t, 3, audit.TotalParticipants)
	require.Equal(t, 4, audit.DrawnNumber)
	require.Equal(t, "B", audit.WinnerID)
	require.Equal(t, 3, audit.WinnerRangeFirst)
	require.Equal(t, 5, audit.WinnerRangeLast)
	require.False(t, audit.Fallback)

	require.Len(t, audit.Participants, 3)
	require.Equal(t, entity.AuditParticipant{
		UserID: "A", TicketsCount: 2, RangeFirst: 1, RangeLast: 2, Probability: 0.2,
	}, audit.Participants[0])
	require.Equal(t, entity.AuditParticipant{
		UserID: "C", TicketsCount: 5, RangeFirst: 6, RangeLast: 10, Probability: 0.5,
	}, audit.Participants[2])
}
