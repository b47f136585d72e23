package blackjack

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"mc21-server/pkg/deck"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name  string
		cards string
		want  int
	}{
		{"simple", "2c,3d", 5},
		{"face cards are ten", "11c,12d,13h", 30},
		{"soft ace", "14c,5d", 16},
		{"natural", "14s,13h", 21},
		{"ace downgrades on bust", "14c,9d,5h", 15},
		{"two aces one soft", "14c,14d", 12},
		{"two aces both hard", "14c,14d,13h,9s", 21},
		{"four aces", "14c,14d,14h,14s", 14},
		{"five card bust", "10s,10h,14d,2c,3s", 26},
		{"empty", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Score(deck.CardsFromString(tt.cards)))
		})
	}
}

func TestScore_orderInvariant(t *testing.T) {
	hands := []string{
		"14c,9d,5h",
		"14c,14d,13h,9s",
		"10s,10h,14d,2c,3s",
		"14c,14d,14h,14s,13c",
	}

	r := rand.New(rand.NewSource(1))
	for _, hand := range hands {
		cards := deck.CardsFromString(hand)
		want := Score(cards)

		for i := 0; i < 20; i++ {
			r.Shuffle(len(cards), func(i, j int) {
				cards[i], cards[j] = cards[j], cards[i]
			})
			assert.Equal(t, want, Score(cards), "hand %s", hand)
		}
	}
}

func TestScore_aceLowerBound(t *testing.T) {
	// with k aces, the downgrade never applies more than k times: the total
	// never drops below the all-aces-as-one minimum
	hand := deck.CardsFromString("14c,14d,14h,14s,13c")
	assert.Equal(t, 14, Score(hand))
	assert.GreaterOrEqual(t, Score(hand), len(hand))
}

func TestIsBust(t *testing.T) {
	assert.False(t, IsBust(deck.CardsFromString("10s,11h")))
	assert.False(t, IsBust(deck.CardsFromString("14s,13h")))
	assert.True(t, IsBust(deck.CardsFromString("10s,11h,2c")))
}

func TestIsFiveCardCharlie(t *testing.T) {
	assert.False(t, IsFiveCardCharlie(deck.CardsFromString("2c,3c,4c,5c")))
	assert.True(t, IsFiveCardCharlie(deck.CardsFromString("2c,3c,4c,5c,6c")))
	assert.True(t, IsFiveCardCharlie(deck.CardsFromString("2c,3c,4c,5c,6c,7c")))
}

func TestIsBlackjack(t *testing.T) {
	tests := []struct {
		name  string
		cards string
		want  bool
	}{
		{"ace king", "14s,13h", true},
		{"ten ace", "10d,14c", true},
		{"ace queen", "14h,12s", true},
		{"two card twenty", "13s,12h", false},
		{"double ace is not blackjack", "14s,14h", false},
		{"three card twenty-one is not blackjack", "14s,5h,5d", false},
		{"five card twenty-one is not blackjack", "14s,10h,2d,3c,9s", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsBlackjack(deck.CardsFromString(tt.cards)))
		})
	}
}

func TestIsDoubleAce(t *testing.T) {
	assert.True(t, IsDoubleAce(deck.CardsFromString("14s,14h")))
	assert.False(t, IsDoubleAce(deck.CardsFromString("14s,13h")))
	assert.False(t, IsDoubleAce(deck.CardsFromString("14s,14h,14d")))
}

func TestCanStand(t *testing.T) {
	// two cards under 16 must hit
	assert.False(t, CanStand(deck.CardsFromString("10s,5h")))
	assert.False(t, CanStand(deck.CardsFromString("2s,2h")))

	assert.True(t, CanStand(deck.CardsFromString("10s,6h")))
	assert.True(t, CanStand(deck.CardsFromString("14s,13h")))

	// a third card always unlocks standing
	assert.True(t, CanStand(deck.CardsFromString("2s,2h,2d")))
}

func TestDealerShouldHit(t *testing.T) {
	tests := []struct {
		name  string
		cards string
		want  bool
	}{
		{"fifteen hits", "10s,5h", true},
		{"sixteen stands", "10s,6h", false},
		{"nineteen stands", "10s,9h", false},
		{"soft thirteen hits", "14s,2h", true},
		{"bust stands", "10s,9h,8d", false},
		{"five cards stand even under sixteen", "2s,2h,2d,2c,3s", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DealerShouldHit(deck.CardsFromString(tt.cards)))
		})
	}
}
