package domain

import (
	"time"

	"github.com/luckycast/backend/internal/entity"
)

type selectionResult struct {
	Winner     entity.TicketGrant
	RangeFirst int
	RangeLast  int

	// Fallback reports that the cumulative walk failed to match the draw,
	// which is impossible for 1 <= draw <= total. It exists only so a
	// defect cannot crash production; callers must treat it as a critical
	// alert.
	Fallback bool
}

// pickWinner walks the participants in their stable order, accumulating
// ticket counts; the first participant whose cumulative sum reaches the draw
// wins. Each participant therefore owns the contiguous ticket range
// [cumulative-tickets+1, cumulative], making the selection probability
// exactly proportional to ticket share. The function is pure: a fixed
// ordering and draw always produce the same winner and range.
func pickWinner(participants []entity.TicketGrant, draw int) selectionResult {
	cumulative := 0
	for _, p := range participants {
		cumulative += p.TicketsCount
		if cumulative >= draw {
			return selectionResult{
				Winner:     p,
				RangeFirst: cumulative - p.TicketsCount + 1,
				RangeLast:  cumulative,
			}
		}
	}

	last := participants[len(participants)-1]
	return selectionResult{
		Winner:     last,
		RangeFirst: cumulative - last.TicketsCount + 1,
		RangeLast:  cumulative,
		Fallback:   true,
	}
}

func buildAudit(
	participants []entity.TicketGrant, total, draw int, result selectionResult,
) *entity.SelectionAudit {
	auditParticipants := make([]entity.AuditParticipant, 0, len(participants))
	cumulative := 0
	for _, p := range participants {
		auditParticipants = append(auditParticipants, entity.AuditParticipant{
			UserID:       p.UserID,
			TicketsCount: p.TicketsCount,
			RangeFirst:   cumulative + 1,
			RangeLast:    cumulative + p.TicketsCount,
			Probability:  float64(p.TicketsCount) / float64(total),
		})
		cumulative += p.TicketsCount
	}

	return &entity.SelectionAudit{
		Algorithm:         selectionAlgorithm,
		TotalTickets:      total,
		TotalParticipants: len(participants),
		DrawnNumber:       draw,
		WinnerID:          result.Winner.UserID,
		WinnerRangeFirst:  result.RangeFirst,
		WinnerRangeLast:   result.RangeLast,
		Fallback:          result.Fallback,
		Participants:      auditParticipants,
		SelectedAt:        time.Now(),
	}
}
