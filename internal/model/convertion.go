package model

import "github.com/luckycast/backend/internal/entity"

func ConvertRaffle(raffle *entity.Raffle) Raffle {
	if raffle == nil {
		return Raffle{}
	}

	return Raffle{
		ID:                  raffle.ID,
		PeriodLabel:         raffle.PeriodLabel,
		StartTime:           raffle.StartTime,
		EndTime:             raffle.EndTime,
		Status:              string(raffle.Status),
		TotalTickets:        raffle.TotalTickets,
		TotalParticipants:   raffle.TotalParticipants,
		PrizeAmount:         raffle.PrizeAmount,
		WinnerID:            raffle.WinnerID.String,
		WinningTicketNumber: raffle.WinningTicketNumber,
		SelectionAlgorithm:  raffle.SelectionAlgorithm,
		AuditRecord:         ConvertSelectionAudit(raffle.AuditRecord),
	}
}

func ConvertSelectionAudit(audit *entity.SelectionAudit) *SelectionAudit {
	if audit == nil {
		return nil
	}

	participants := make([]AuditParticipant, 0, len(audit.Participants))
	for _, p := range audit.Participants {
		participants = append(participants, AuditParticipant{
			UserID:       p.UserID,
			TicketsCount: p.TicketsCount,
			RangeFirst:   p.RangeFirst,
			RangeLast:    p.RangeLast,
			Probability:  p.Probability,
		})
	}

	return &SelectionAudit{
		Algorithm:         audit.Algorithm,
		TotalTickets:      audit.TotalTickets,
		TotalParticipants: audit.TotalParticipants,
		DrawnNumber:       audit.DrawnNumber,
		WinnerID:          audit.WinnerID,
		WinnerRangeFirst:  audit.WinnerRangeFirst,
		WinnerRangeLast:   audit.WinnerRangeLast,
		Fallback:          audit.Fallback,
		Participants:      participants,
		SelectedAt:        audit.SelectedAt,
	}
}
