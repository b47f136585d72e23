package table

import (
	"encoding/json"
	"fmt"

	"mc21-server/pkg/deck"
)

// SeatState is the per-seat micro-state within a round
type SeatState int

// seat states
const (
	// SeatEmpty means nobody occupies the seat
	SeatEmpty SeatState = iota
	// SeatReady means the seat is occupied but has not bet this round
	SeatReady
	// SeatBetting means the seat placed a bet and is waiting on the deal
	SeatBetting
	// SeatPlaying means the seat holds cards and may hit or stand
	SeatPlaying
	// SeatStand means the seat locked its hand
	SeatStand
	// SeatBust means the seat went over the target
	SeatBust
	// SeatDoneWin is terminal, set once by settlement
	SeatDoneWin
	// SeatDoneLose is terminal, set once by settlement
	SeatDoneLose
)

var seatStateNames = map[SeatState]string{
	SeatEmpty:    "EMPTY",
	SeatReady:    "READY",
	SeatBetting:  "BETTING",
	SeatPlaying:  "PLAYING",
	SeatStand:    "STAND",
	SeatBust:     "BUST",
	SeatDoneWin:  "DONE_WIN",
	SeatDoneLose: "DONE_LOSE",
}

var seatStatesByName = func() map[string]SeatState {
	m := make(map[string]SeatState, len(seatStateNames))
	for state, name := range seatStateNames {
		m[name] = state
	}
	return m
}()

func (s SeatState) String() string {
	if name, ok := seatStateNames[s]; ok {
		return name
	}

	return fmt.Sprintf("SeatState(%d)", int(s))
}

// MarshalJSON stores the seat state under its wire name
func (s SeatState) MarshalJSON() ([]byte, error) {
	name, ok := seatStateNames[s]
	if !ok {
		return nil, fmt.Errorf("unknown seat state: %d", int(s))
	}

	return json.Marshal(name)
}

// UnmarshalJSON parses a seat state from its wire name
func (s *SeatState) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}

	state, ok := seatStatesByName[name]
	if !ok {
		return fmt.Errorf("unknown seat state: %q", name)
	}

	*s = state
	return nil
}

// Seat is a fixed slot at a table. A participant occupies it for the duration
// of their presence.
type Seat struct {
	OccupantID  string       `json:"occupantId,omitempty"`
	DisplayName string       `json:"displayName,omitempty"`
	Bet         int          `json:"bet,omitempty"`
	Hand        []*deck.Card `json:"hand,omitempty"`
	State       SeatState    `json:"state"`
}

// Occupied returns true if a participant holds the seat
func (s *Seat) Occupied() bool {
	return s.OccupantID != ""
}

// wagering seats are the ones dealt to and settled
func (s *Seat) wagering() bool {
	return s.Occupied() && s.Bet > 0
}
