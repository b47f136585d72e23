package mux

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mc21-server/pkg/room"
	"mc21-server/pkg/table"
)

func TestMux_postTable(t *testing.T) {
	a := assert.New(t)
	ts, s := newTestServer(t)
	_, signed := createTestPlayer(t, s)

	var state table.State
	assertPost(t, ts, "/table", postTablePayload{Name: "main floor", Seats: 2}, &state, http.StatusCreated, signed)
	a.NotEmpty(state.UUID)
	a.Equal("main floor", state.Name)
	a.Equal(table.PhaseOpen, state.Phase)
	a.Len(state.Seats, 2)

	assertPost(t, ts, "/table", postTablePayload{Name: "x"}, nil, http.StatusBadRequest, signed)
	assertPost(t, ts, "/table", postTablePayload{Name: "main floor"}, nil, http.StatusUnauthorized)

	var lobby []lobbyTable
	assertGet(t, ts, "/table", &lobby, http.StatusOK, signed)
	if a.Len(lobby, 1) {
		a.Equal(state.UUID, lobby[0].UUID)
		a.Equal(2, lobby[0].Seats)
		a.Equal(0, lobby[0].Occupied)
	}
}

func TestMux_tableNotFound(t *testing.T) {
	ts, s := newTestServer(t)
	_, signed := createTestPlayer(t, s)

	assertGet(t, ts, "/table/00000000-0000-0000-0000-000000000000", nil, http.StatusNotFound, signed)
}

func TestMux_fullRound(t *testing.T) {
	a := assert.New(t)
	ts, s := newTestServer(t)
	player, signed := createTestPlayer(t, s)

	var state table.State
	assertPost(t, ts, "/table", postTablePayload{Name: "main floor", Seats: 2}, &state, http.StatusCreated, signed)
	base := "/table/" + state.UUID

	assertPost(t, ts, base+"/seat", postSeatPayload{SeatID: "S1"}, &state, http.StatusCreated, signed)
	a.Equal(player.ID, state.Seats[0].OccupantID)
	a.Equal("Test Player", state.Seats[0].DisplayName)

	// someone else cannot take the seat
	_, otherSigned := createTestPlayer(t, s)
	assertPost(t, ts, base+"/seat", postSeatPayload{SeatID: "S1"}, nil, http.StatusBadRequest, otherSigned)

	assertPost(t, ts, base+"/action", room.PayloadIn{Action: "startRound"}, &state, http.StatusOK, signed)
	a.Equal(table.PhaseBetting, state.Phase)

	assertPost(t, ts, base+"/action", room.PayloadIn{Action: "bet", SeatID: "S1", Amount: 10}, &state, http.StatusOK, signed)
	a.Equal(10, state.Seats[0].Bet)

	// another player may not bet on a taken seat
	assertPost(t, ts, base+"/action", room.PayloadIn{Action: "bet", SeatID: "S1", Amount: 5}, nil, http.StatusForbidden, otherSigned)

	assertPost(t, ts, base+"/action", room.PayloadIn{Action: "deal"}, &state, http.StatusOK, signed)
	a.Equal(table.PhasePlayerTurns, state.Phase)
	a.Len(state.Seats[0].Hand, 2)

	// dealer hand is concealed mid-round
	a.Empty(state.DealerHand)
	a.Equal(2, state.DealerCards)
	a.Zero(state.DealerScore)

	for state.Seats[0].State == table.SeatPlaying {
		// a two-card hand under the stand minimum must hit first
		if len(state.Seats[0].Hand) == 2 && state.Seats[0].Score < 16 {
			assertPost(t, ts, base+"/action", room.PayloadIn{Action: "stand", SeatID: "S1"}, nil, http.StatusBadRequest, signed)
			assertPost(t, ts, base+"/action", room.PayloadIn{Action: "hit", SeatID: "S1"}, &state, http.StatusOK, signed)
			continue
		}

		assertPost(t, ts, base+"/action", room.PayloadIn{Action: "stand", SeatID: "S1"}, &state, http.StatusOK, signed)
	}

	assertPost(t, ts, base+"/action", room.PayloadIn{Action: "dealerTurn"}, &state, http.StatusOK, signed)
	a.Equal(table.PhaseOpen, state.Phase)
	a.NotEmpty(state.DealerHand)
	a.NotZero(state.DealerScore)

	result, ok := state.Results[player.ID]
	require.True(t, ok)
	a.Equal(10, result.Bet)
	a.Equal(result.Bet*result.Multiplier, result.Delta)

	// unknown action
	assertPost(t, ts, base+"/action", room.PayloadIn{Action: "bogus"}, nil, http.StatusBadRequest, signed)

	// leave the seat; decode into a fresh state so fields dropped by
	// omitempty are not carried over from the previous response
	state = table.State{}
	assertDelete(t, ts, base+"/seat/S1", &state, http.StatusOK, signed)
	a.Empty(state.Seats[0].OccupantID)
	assertDelete(t, ts, fmt.Sprintf("%s/seat/S2", base), nil, http.StatusForbidden, otherSigned)
}
