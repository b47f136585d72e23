// Package table implements the round state machine for an M.C. 21 table.
//
// A Table is a plain value meant to round-trip through a document store. The
// mutating methods validate against the current phase and seat states; on
// error the value may be partially modified, so callers must only persist a
// table after a method returns nil and must reload on failure. The room
// package provides that discipline.
package table

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"mc21-server/internal/rng"
	"mc21-server/pkg/blackjack"
	"mc21-server/pkg/deck"
)

// DefaultMaxSeats is the seat count used when none is given
const DefaultMaxSeats = 4

// maxSeatLimit caps a table; seat ids are S1..S9
const maxSeatLimit = 9

// DefaultDecks is the shoe size used when none is given
const DefaultDecks = 6

// initialDealCount is how many cards each wagering seat and the dealer get
const initialDealCount = 2

// Result is the immutable settlement record for one occupant
type Result struct {
	Code       blackjack.OutcomeCode `json:"code"`
	Multiplier int                   `json:"multiplier"`
	Bet        int                   `json:"bet"`
	Delta      int                   `json:"delta"`
}

// Table is an M.C. 21 table: phase, dealer hand, shoe, and fixed seats.
// At most one round is in flight at a time.
type Table struct {
	UUID   string `json:"uuid"`
	Name   string `json:"name"`
	HostID string `json:"hostId"`

	Phase   Phase  `json:"phase"`
	RoundID string `json:"roundId,omitempty"`

	DealerHand []*deck.Card `json:"dealerHand,omitempty"`
	Shoe       *deck.Shoe   `json:"shoe,omitempty"`
	Decks      int          `json:"decks"`

	// Seats is keyed by stable seat ids S1..Sn
	Seats map[string]*Seat `json:"seats"`

	// Results is keyed by occupant id; written once at settlement and kept
	// until the next round starts
	Results map[string]*Result `json:"results,omitempty"`

	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`
}

// New returns a new open table with maxSeats empty seats
func New(name, hostID string, maxSeats int) *Table {
	if maxSeats < 1 {
		maxSeats = DefaultMaxSeats
	}

	if maxSeats > maxSeatLimit {
		maxSeats = maxSeatLimit
	}

	seats := make(map[string]*Seat, maxSeats)
	for i := 1; i <= maxSeats; i++ {
		seats[fmt.Sprintf("S%d", i)] = &Seat{State: SeatEmpty}
	}

	now := time.Now()
	return &Table{
		UUID:    uuid.New().String(),
		Name:    name,
		HostID:  hostID,
		Phase:   PhaseOpen,
		Decks:   DefaultDecks,
		Seats:   seats,
		Created: now,
		Updated: now,
	}
}

// SeatIDs returns the seat ids in stable order
func (t *Table) SeatIDs() []string {
	ids := make([]string, 0, len(t.Seats))
	for i := 1; i <= len(t.Seats); i++ {
		ids = append(ids, fmt.Sprintf("S%d", i))
	}

	return ids
}

func (t *Table) seat(seatID string) (*Seat, error) {
	seat, ok := t.Seats[seatID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSeat, seatID)
	}

	return seat, nil
}

// Join seats an occupant. Re-joining your own seat just refreshes the display
// name. Joining is allowed in any phase; a mid-round joiner sits out until the
// next round.
func (t *Table) Join(seatID, occupantID, displayName string) error {
	seat, err := t.seat(seatID)
	if err != nil {
		return err
	}

	if seat.Occupied() && seat.OccupantID != occupantID {
		return ErrSeatTaken
	}

	if !seat.Occupied() {
		seat.State = SeatReady
	}

	seat.OccupantID = occupantID
	seat.DisplayName = displayName

	return nil
}

// Leave vacates a seat, clearing its per-round state
func (t *Table) Leave(seatID string) error {
	seat, err := t.seat(seatID)
	if err != nil {
		return err
	}

	*seat = Seat{State: SeatEmpty}
	return nil
}

// StartRound opens the betting phase. It requires no round in flight and
// resets every occupied seat and the previous round's results. The shoe
// carries over until it hits the cut card.
func (t *Table) StartRound() error {
	if err := t.requirePhase(PhaseOpen); err != nil {
		return err
	}

	if err := t.advance(PhaseBetting); err != nil {
		return err
	}

	t.RoundID = uuid.New().String()
	t.DealerHand = nil
	t.Results = nil

	for _, seat := range t.Seats {
		if !seat.Occupied() {
			continue
		}

		seat.Bet = 0
		seat.Hand = nil
		seat.State = SeatReady
	}

	return nil
}

// PlaceBet sets or updates a seat's bet during the betting phase. Amounts
// under the table minimum of 1 are raised to it.
func (t *Table) PlaceBet(seatID string, amount int) error {
	if err := t.requirePhase(PhaseBetting); err != nil {
		return err
	}

	seat, err := t.seat(seatID)
	if err != nil {
		return err
	}

	if !seat.Occupied() {
		return fmt.Errorf("%w: seat %s is empty", ErrInvalidSeatState, seatID)
	}

	if amount < 1 {
		amount = 1
	}

	seat.Bet = amount
	seat.State = SeatBetting

	return nil
}

// DealInitial rebuilds the shoe if it passed the cut card, then deals two
// cards to every wagering seat and two to the dealer, moving the table to the
// player turns.
func (t *Table) DealInitial(g rng.Generator) error {
	if err := t.requirePhase(PhaseBetting); err != nil {
		return err
	}

	wagering := 0
	for _, seat := range t.Seats {
		if seat.wagering() {
			wagering++
		}
	}

	if wagering == 0 {
		return ErrNoBets
	}

	if err := t.advance(PhaseDealing); err != nil {
		return err
	}

	if t.Shoe.NeedsReshuffle() {
		t.Shoe = deck.NewShoe(t.Decks, g)
	}

	for _, seatID := range t.SeatIDs() {
		seat := t.Seats[seatID]
		if !seat.wagering() {
			continue
		}

		hand, err := t.Shoe.Draw(initialDealCount)
		if err != nil {
			return err
		}

		seat.Hand = hand
		seat.State = SeatPlaying
	}

	dealerHand, err := t.Shoe.Draw(initialDealCount)
	if err != nil {
		return err
	}
	t.DealerHand = dealerHand

	return t.advance(PhasePlayerTurns)
}

// Hit draws one card to a playing seat. Reaching the five-card cap locks the
// seat at STAND (the cap is checked before bust; settlement still charges a
// five-card bust); going over the target busts it.
func (t *Table) Hit(seatID string) error {
	if err := t.requirePhase(PhasePlayerTurns); err != nil {
		return err
	}

	seat, err := t.seat(seatID)
	if err != nil {
		return err
	}

	if seat.State != SeatPlaying {
		return fmt.Errorf("%w: seat %s is %s", ErrInvalidSeatState, seatID, seat.State)
	}

	drawn, err := t.Shoe.Draw(1)
	if err != nil {
		return err
	}

	seat.Hand = append(seat.Hand, drawn...)

	switch {
	case blackjack.IsFiveCardCharlie(seat.Hand):
		seat.State = SeatStand
	case blackjack.IsBust(seat.Hand):
		seat.State = SeatBust
	}

	return nil
}

// Stand locks a playing seat's hand. A two-card hand under the minimum may
// not stand; one more card must be drawn first.
func (t *Table) Stand(seatID string) error {
	if err := t.requirePhase(PhasePlayerTurns); err != nil {
		return err
	}

	seat, err := t.seat(seatID)
	if err != nil {
		return err
	}

	if seat.State != SeatPlaying {
		return fmt.Errorf("%w: seat %s is %s", ErrInvalidSeatState, seatID, seat.State)
	}

	if !blackjack.CanStand(seat.Hand) {
		return ErrMustHit
	}

	seat.State = SeatStand
	return nil
}

// PlayersDone returns true once every wagering seat has stood or busted
func (t *Table) PlayersDone() bool {
	for _, seat := range t.Seats {
		if !seat.wagering() {
			continue
		}

		if seat.State != SeatStand && seat.State != SeatBust {
			return false
		}
	}

	return true
}

// DealerTurn plays the dealer by the fixed policy: hit while strictly below
// sixteen, not bust, and under the five-card cap. It requires every wagering
// seat to be done.
func (t *Table) DealerTurn(g rng.Generator) error {
	if err := t.requirePhase(PhasePlayerTurns); err != nil {
		return err
	}

	if !t.PlayersDone() {
		return ErrPlayersStillActive
	}

	if err := t.advance(PhaseDealerTurn); err != nil {
		return err
	}

	if t.Shoe.NeedsReshuffle() {
		t.Shoe = deck.NewShoe(t.Decks, g)
	}

	for blackjack.DealerShouldHit(t.DealerHand) {
		drawn, err := t.Shoe.Draw(1)
		if err != nil {
			return err
		}

		t.DealerHand = append(t.DealerHand, drawn...)
	}

	return t.advance(PhaseSettling)
}

// Settle writes an outcome for every wagering seat against the final dealer
// hand and reopens the table. Hands and bets stay visible until the next
// round starts.
func (t *Table) Settle() error {
	if err := t.requirePhase(PhaseSettling); err != nil {
		return err
	}

	results := make(map[string]*Result)
	for _, seat := range t.Seats {
		if !seat.wagering() {
			continue
		}

		outcome := blackjack.Settle(seat.Hand, t.DealerHand)
		results[seat.OccupantID] = &Result{
			Code:       outcome.Code,
			Multiplier: outcome.Multiplier,
			Bet:        seat.Bet,
			Delta:      seat.Bet * outcome.Multiplier,
		}

		if outcome.Multiplier >= 0 {
			seat.State = SeatDoneWin
		} else {
			seat.State = SeatDoneLose
		}
	}

	t.Results = results
	t.RoundID = ""

	return t.advance(PhaseOpen)
}
