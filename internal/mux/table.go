package mux

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"

	"github.com/gorilla/mux"

	"mc21-server/internal/config"
	"mc21-server/pkg/model"
	"mc21-server/pkg/room"
	"mc21-server/pkg/table"
)

// lobbyTable is the lobby view of a table
type lobbyTable struct {
	UUID     string      `json:"uuid"`
	Name     string      `json:"name"`
	Phase    table.Phase `json:"phase"`
	Seats    int         `json:"seats"`
	Occupied int         `json:"occupied"`
}

func (m *Mux) getTable() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tables, err := m.pitBoss.ListTables(r.Context())
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, err)
			return
		}

		lobby := make([]lobbyTable, 0, len(tables))
		for _, tbl := range tables {
			occupied := 0
			for _, seat := range tbl.Seats {
				if seat.Occupied() {
					occupied++
				}
			}

			lobby = append(lobby, lobbyTable{
				UUID:     tbl.UUID,
				Name:     tbl.Name,
				Phase:    tbl.Phase,
				Seats:    len(tbl.Seats),
				Occupied: occupied,
			})
		}

		writeJSON(w, http.StatusOK, lobby)
	}
}

type postTablePayload struct {
	Name  string `json:"name"`
	Seats int    `json:"seats"`
}

func (m *Mux) postTable() http.HandlerFunc {
	var wordChar = regexp.MustCompile(`\w`)
	return func(w http.ResponseWriter, r *http.Request) {
		var pp postTablePayload
		if !decodeRequest(w, r, &pp) {
			return
		}

		if !wordChar.MatchString(pp.Name) || len(pp.Name) < 3 || len(pp.Name) > 40 {
			writeJSONError(w, http.StatusBadRequest, errors.New("name must be 3-40 characters"))
			return
		}

		cfg := config.Instance()
		seats := pp.Seats
		if seats == 0 {
			seats = cfg.Table.MaxSeats
		}

		player := r.Context().Value(ctxPlayerKey).(*model.Player)
		tbl, err := m.pitBoss.CreateTable(r.Context(), pp.Name, player.ID, seats, cfg.Table.Decks)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, tbl.PublicState())
	}
}

func (m *Mux) getTableUUID() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tbl := r.Context().Value(ctxTableKey).(*table.Table)
		writeJSON(w, http.StatusOK, tbl.PublicState())
	})
}

type postSeatPayload struct {
	SeatID      string `json:"seatId"`
	DisplayName string `json:"displayName"`
}

func (m *Mux) postTableUUIDSeat() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var pp postSeatPayload
		if !decodeRequest(w, r, &pp) {
			return
		}

		player := r.Context().Value(ctxPlayerKey).(*model.Player)
		tbl := r.Context().Value(ctxTableKey).(*table.Table)

		displayName := pp.DisplayName
		if displayName == "" {
			displayName = player.DisplayName
		}

		dealer := m.pitBoss.DealerFor(tbl.UUID)
		updated, err := dealer.Join(r.Context(), pp.SeatID, player.ID, displayName)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, updated.PublicState())
	})
}

func (m *Mux) deleteTableUUIDSeat() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		player := r.Context().Value(ctxPlayerKey).(*model.Player)
		tbl := r.Context().Value(ctxTableKey).(*table.Table)

		dealer := m.pitBoss.DealerFor(tbl.UUID)
		updated, err := dealer.Leave(r.Context(), mux.Vars(r)["seatId"], player.ID)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, updated.PublicState())
	})
}

func (m *Mux) postTableUUIDAction() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var pp room.PayloadIn
		if !decodeRequest(w, r, &pp) {
			return
		}

		player := r.Context().Value(ctxPlayerKey).(*model.Player)
		tbl := r.Context().Value(ctxTableKey).(*table.Table)
		dealer := m.pitBoss.DealerFor(tbl.UUID)

		var updated *table.Table
		var err error
		switch pp.Action {
		case "startRound":
			updated, err = dealer.StartRound(r.Context())
		case "bet":
			updated, err = dealer.PlaceBet(r.Context(), pp.SeatID, player.ID, pp.Amount)
		case "deal":
			updated, err = dealer.DealInitial(r.Context())
		case "hit":
			updated, err = dealer.Hit(r.Context(), pp.SeatID, player.ID)
		case "stand":
			updated, err = dealer.Stand(r.Context(), pp.SeatID, player.ID)
		case "dealerTurn":
			updated, err = dealer.DealerTurn(r.Context())
		default:
			writeJSONError(w, http.StatusBadRequest, fmt.Errorf("unknown action: %s", pp.Action))
			return
		}

		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, updated.PublicState())
	})
}

func (m *Mux) tableMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uuid := mux.Vars(r)["uuid"]
		tbl, err := m.pitBoss.GetTable(r.Context(), uuid)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		newCtx := context.WithValue(r.Context(), ctxTableKey, tbl)

		next.ServeHTTP(w, r.WithContext(newCtx))
	})
}
