package mux

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"mc21-server/pkg/deck"
	"mc21-server/pkg/model"
	"mc21-server/pkg/room"
	"mc21-server/pkg/store"
	"mc21-server/pkg/table"
)

func decodeRequest(w http.ResponseWriter, r *http.Request, payload interface{}) bool {
	if ct := r.Header.Get("Content-Type"); ct != "application/json" && ct != "text/json" {
		writeJSONError(w, http.StatusUnsupportedMediaType, nil)
		return false
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, err)
		return false
	}

	return true
}

func writeJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logrus.WithError(err).Error("could not write JSON response")
	}
}

type errorResponse struct {
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
}

// badRequestErrors are table rule violations the client can correct
var badRequestErrors = []error{
	table.ErrInvalidPhase,
	table.ErrInvalidSeatState,
	table.ErrUnknownSeat,
	table.ErrSeatTaken,
	table.ErrMustHit,
	table.ErrNoBets,
	table.ErrPlayersStillActive,
	deck.ErrInsufficientCards,
}

// writeDomainError maps a room or table error to the right status code
func writeDomainError(w http.ResponseWriter, err error) {
	var userErr model.UserError
	if errors.As(err, &userErr) {
		writeJSONError(w, http.StatusBadRequest, err)
		return
	}

	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			writeJSONError(w, http.StatusBadRequest, err)
			return
		}
	}

	switch {
	case errors.Is(err, store.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, nil)
	case errors.Is(err, room.ErrNotYourSeat):
		writeJSONError(w, http.StatusForbidden, err)
	case errors.Is(err, room.ErrTableBusy), errors.Is(err, room.ErrConcurrentModification):
		writeJSONError(w, http.StatusConflict, err)
	default:
		writeJSONError(w, http.StatusInternalServerError, err)
	}
}

func writeJSONError(w http.ResponseWriter, statusCode int, err error) {
	var msg string

	if statusCode < 500 && err != nil {
		msg = err.Error()
	} else {
		msg = http.StatusText(statusCode)
	}

	if statusCode >= 500 {
		logrus.WithField("statusCode", statusCode).Error(err)
	}

	writeJSON(w, statusCode, errorResponse{
		Message:    msg,
		StatusCode: statusCode,
	})
}
