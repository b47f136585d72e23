package model

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"mc21-server/internal/util"
	"mc21-server/pkg/store"
)

func TestCreatePlayer(t *testing.T) {
	a := assert.New(t)
	s := store.NewMemory()
	ctx := context.Background()

	const email = "player@example.domain"
	player, err := CreatePlayer(ctx, s, email, "Test User", "my-password")
	a.NoError(err)
	a.NotEmpty(player.ID)
	a.Equal(email, player.Email)
	a.Equal("Test User", player.DisplayName)
	a.False(player.Created.IsZero())

	loaded, err := GetPlayerByID(ctx, s, player.ID)
	a.NoError(err)
	a.Equal(player.ID, loaded.ID)
	a.Equal(email, loaded.Email)

	_, err = CreatePlayer(ctx, s, email, "Someone Else", "my-password")
	a.Equal(ErrEmailInUse, err)

	// uniqueness check is case-insensitive
	_, err = CreatePlayer(ctx, s, "Player@Example.Domain", "Someone Else", "my-password")
	a.Equal(ErrEmailInUse, err)
}

func TestCreatePlayer_validation(t *testing.T) {
	a := assert.New(t)
	s := store.NewMemory()
	ctx := context.Background()

	_, err := CreatePlayer(ctx, s, "not-an-email", "Test User", "my-password")
	var userErr UserError
	a.ErrorAs(err, &userErr)
	a.Contains(err.Error(), "invalid email address")

	_, err = CreatePlayer(ctx, s, util.RandomEmail(), "Test User", "short")
	a.Equal(ErrPasswordTooShort, err)
}

func TestAuthenticatePlayer(t *testing.T) {
	a := assert.New(t)
	s := store.NewMemory()
	ctx := context.Background()

	email := util.RandomEmail()
	created, err := CreatePlayer(ctx, s, email, "Test User", "my-password")
	a.NoError(err)

	player, err := AuthenticatePlayer(ctx, s, email, "my-password")
	a.NoError(err)
	a.Equal(created.ID, player.ID)

	_, err = AuthenticatePlayer(ctx, s, email, "wrong-password")
	a.Equal(ErrInvalidEmailOrPassword, err)

	_, err = AuthenticatePlayer(ctx, s, util.RandomEmail(), "my-password")
	a.Equal(ErrInvalidEmailOrPassword, err)
}

func TestPlayer_passwordHashNotSerialized(t *testing.T) {
	a := assert.New(t)
	s := store.NewMemory()
	ctx := context.Background()

	player, err := CreatePlayer(ctx, s, util.RandomEmail(), "Test User", "my-password")
	a.NoError(err)

	doc, err := s.Get(ctx, PlayerKey(player.ID))
	a.NoError(err)
	a.Contains(string(doc.Value), "passwordHash")
}
