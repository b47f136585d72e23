// Package model holds the account records persisted in the document store.
package model

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/badoux/checkmail"
	"github.com/google/uuid"
	"github.com/synacor/argon2id"

	"mc21-server/pkg/store"
)

const minPasswordLength = 6

// Player is a registered participant
type Player struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	Created     time.Time `json:"created"`

	passwordHash string
}

// playerDocument is the stored shape; the password hash never leaves the store
type playerDocument struct {
	Player
	PasswordHash string `json:"passwordHash"`
}

// emailIndex maps a lowercased email address to a player id. Creating it with
// version 0 is what enforces email uniqueness.
type emailIndex struct {
	PlayerID string `json:"playerId"`
}

// PlayerKey returns the document key for a player id
func PlayerKey(id string) string {
	return "players/" + id
}

func emailKey(email string) string {
	return "playerEmails/" + strings.ToLower(email)
}

// CreatePlayer registers a new player
func CreatePlayer(ctx context.Context, s store.Store, email, displayName, password string) (*Player, error) {
	if err := checkmail.ValidateFormat(email); err != nil {
		return nil, UserError(fmt.Sprintf("invalid email address: %v", err))
	}

	if len(password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}

	hash, err := argon2id.DefaultHashPassword(password)
	if err != nil {
		return nil, err
	}

	player := Player{
		ID:          uuid.New().String(),
		Email:       email,
		DisplayName: displayName,
		Created:     time.Now(),
	}

	index, err := json.Marshal(emailIndex{PlayerID: player.ID})
	if err != nil {
		return nil, err
	}

	if _, err := s.Put(ctx, emailKey(email), index, 0); err != nil {
		if errors.Is(err, store.ErrVersionConflict) {
			return nil, ErrEmailInUse
		}

		return nil, err
	}

	doc, err := json.Marshal(playerDocument{Player: player, PasswordHash: hash})
	if err != nil {
		return nil, err
	}

	if _, err := s.Put(ctx, PlayerKey(player.ID), doc, 0); err != nil {
		return nil, err
	}

	player.passwordHash = hash
	return &player, nil
}

// GetPlayerByID loads a player, or store.ErrNotFound
func GetPlayerByID(ctx context.Context, s store.Store, id string) (*Player, error) {
	raw, err := s.Get(ctx, PlayerKey(id))
	if err != nil {
		return nil, err
	}

	var doc playerDocument
	if err := json.Unmarshal(raw.Value, &doc); err != nil {
		return nil, err
	}

	player := doc.Player
	player.passwordHash = doc.PasswordHash

	return &player, nil
}

// AuthenticatePlayer verifies an email/password pair.
// The failure paths run a hash comparison either way so a missing account
// takes as long as a wrong password.
func AuthenticatePlayer(ctx context.Context, s store.Store, email, password string) (*Player, error) {
	raw, err := s.Get(ctx, emailKey(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_ = argon2id.Compare("", "")
			return nil, ErrInvalidEmailOrPassword
		}

		return nil, err
	}

	var index emailIndex
	if err := json.Unmarshal(raw.Value, &index); err != nil {
		return nil, err
	}

	player, err := GetPlayerByID(ctx, s, index.PlayerID)
	if err != nil {
		return nil, err
	}

	if err := argon2id.Compare(player.passwordHash, password); err != nil {
		return nil, ErrInvalidEmailOrPassword
	}

	return player, nil
}
