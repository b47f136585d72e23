package table

import (
	"mc21-server/pkg/blackjack"
	"mc21-server/pkg/deck"
)

// State is the public view of a table. It is safe for every observer: the
// dealer's hand is concealed until the dealer turn begins.
type State struct {
	UUID    string `json:"uuid"`
	Name    string `json:"name"`
	Phase   Phase  `json:"phase"`
	RoundID string `json:"roundId,omitempty"`

	// DealerHand is only present once the dealer turn begins
	DealerHand  []*deck.Card `json:"dealerHand,omitempty"`
	DealerCards int          `json:"dealerCards"`
	DealerScore int          `json:"dealerScore,omitempty"`

	Seats []*SeatView `json:"seats"`

	Results map[string]*Result `json:"results,omitempty"`

	CardsLeft int `json:"cardsLeft"`
}

// SeatView is the public view of a single seat
type SeatView struct {
	SeatID      string       `json:"seatId"`
	OccupantID  string       `json:"occupantId,omitempty"`
	DisplayName string       `json:"displayName,omitempty"`
	Bet         int          `json:"bet,omitempty"`
	Hand        []*deck.Card `json:"hand,omitempty"`
	Score       int          `json:"score,omitempty"`
	State       SeatState    `json:"state"`
}

// dealerRevealed is true once the dealer plays. After settlement the table is
// back at OPEN with the final hand still on display until the next round
// clears it.
func (t *Table) dealerRevealed() bool {
	switch t.Phase {
	case PhaseBetting, PhaseDealing, PhasePlayerTurns:
		return false
	default:
		return true
	}
}

// PublicState builds the observer view of the table
func (t *Table) PublicState() *State {
	seats := make([]*SeatView, 0, len(t.Seats))
	for _, seatID := range t.SeatIDs() {
		seat := t.Seats[seatID]
		view := &SeatView{
			SeatID:      seatID,
			OccupantID:  seat.OccupantID,
			DisplayName: seat.DisplayName,
			Bet:         seat.Bet,
			Hand:        seat.Hand,
			State:       seat.State,
		}

		if len(seat.Hand) > 0 {
			view.Score = blackjack.Score(seat.Hand)
		}

		seats = append(seats, view)
	}

	state := &State{
		UUID:        t.UUID,
		Name:        t.Name,
		Phase:       t.Phase,
		RoundID:     t.RoundID,
		DealerCards: len(t.DealerHand),
		Seats:       seats,
		Results:     t.Results,
		CardsLeft:   t.Shoe.CardsLeft(),
	}

	if t.dealerRevealed() && len(t.DealerHand) > 0 {
		state.DealerHand = t.DealerHand
		state.DealerScore = blackjack.Score(t.DealerHand)
	}

	return state
}
