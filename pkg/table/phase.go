package table

import (
	"encoding/json"
	"fmt"
)

// Phase is the table-level round phase
type Phase int

// phases, in forward order. The cycle closes from PhaseSettling back to PhaseOpen.
const (
	// PhaseOpen is between rounds; a new round may start
	PhaseOpen Phase = iota
	// PhaseBetting is when occupied seats place their bets
	PhaseBetting
	// PhaseDealing is when initial cards go out
	PhaseDealing
	// PhasePlayerTurns is when seats hit or stand
	PhasePlayerTurns
	// PhaseDealerTurn is when the automated dealer plays
	PhaseDealerTurn
	// PhaseSettling is when outcomes are computed
	PhaseSettling
)

var phaseNames = map[Phase]string{
	PhaseOpen:        "OPEN",
	PhaseBetting:     "BETTING",
	PhaseDealing:     "DEALING",
	PhasePlayerTurns: "PLAYER_TURNS",
	PhaseDealerTurn:  "DEALER_TURN",
	PhaseSettling:    "SETTLING",
}

var phasesByName = func() map[string]Phase {
	m := make(map[string]Phase, len(phaseNames))
	for phase, name := range phaseNames {
		m[name] = phase
	}
	return m
}()

// phaseTransitions is the single source of truth for legal phase changes.
// Guards beyond "is this edge legal" (players done, bets placed) live with the
// operations themselves.
var phaseTransitions = map[Phase][]Phase{
	PhaseOpen:        {PhaseBetting},
	PhaseBetting:     {PhaseDealing},
	PhaseDealing:     {PhasePlayerTurns},
	PhasePlayerTurns: {PhaseDealerTurn},
	PhaseDealerTurn:  {PhaseSettling},
	PhaseSettling:    {PhaseOpen},
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}

	return fmt.Sprintf("Phase(%d)", int(p))
}

// MarshalJSON stores the phase under its wire name
func (p Phase) MarshalJSON() ([]byte, error) {
	name, ok := phaseNames[p]
	if !ok {
		return nil, fmt.Errorf("unknown phase: %d", int(p))
	}

	return json.Marshal(name)
}

// UnmarshalJSON parses a phase from its wire name
func (p *Phase) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}

	phase, ok := phasesByName[name]
	if !ok {
		return fmt.Errorf("unknown phase: %q", name)
	}

	*p = phase
	return nil
}

// advance moves the table to the given phase, failing with ErrInvalidPhase if
// the transition table does not allow the edge
func (t *Table) advance(to Phase) error {
	for _, allowed := range phaseTransitions[t.Phase] {
		if allowed == to {
			t.Phase = to
			return nil
		}
	}

	return fmt.Errorf("%w: cannot go from %s to %s", ErrInvalidPhase, t.Phase, to)
}

// requirePhase fails with ErrInvalidPhase unless the table is in the given phase
func (t *Table) requirePhase(p Phase) error {
	if t.Phase != p {
		return fmt.Errorf("%w: table is in %s, expected %s", ErrInvalidPhase, t.Phase, p)
	}

	return nil
}
