package blackjack

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"mc21-server/pkg/deck"
)

func TestSettle(t *testing.T) {
	tests := []struct {
		name       string
		player     string
		dealer     string
		code       OutcomeCode
		multiplier int
	}{
		{"five card win", "2s,3h,4d,5c,6s", "10d,9c", OutcomeFiveCardWin, 2},
		{"five card bust", "10s,10h,14d,2c,3s", "10d,9c", OutcomeFiveCardBust, -2},
		{"double ace", "14s,14h", "10d,9c", OutcomeDoubleAce, 3},
		{"blackjack", "14s,13h", "9d,9c", OutcomeBlackjack, 2},
		{"both bust dealer wins", "10s,9h,4d", "10d,8c,6h", OutcomeBothBust, -1},
		{"player bust", "10s,9h,4d", "10d,9c", OutcomePlayerBust, -1},
		{"dealer bust", "10s,8h", "10d,8c,6h", OutcomeDealerBust, 1},
		{"push", "10s,8h", "9d,9c", OutcomePush, 0},
		{"normal win", "10s,9h", "10d,8c", OutcomeNormalWin, 1},
		{"normal lose", "8s,9h", "10d,9c", OutcomeNormalLose, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Settle(deck.CardsFromString(tt.player), deck.CardsFromString(tt.dealer))
			assert.Equal(t, tt.code, got.Code)
			assert.Equal(t, tt.multiplier, got.Multiplier)
		})
	}
}

func TestSettle_priority(t *testing.T) {
	a := assert.New(t)

	// a five-card hand holding an ace and a ten settles as a five-card win,
	// never P_BJ
	got := Settle(deck.CardsFromString("14s,10h,2d,3c,14d"), deck.CardsFromString("10d,9c"))
	a.Equal(OutcomeFiveCardWin, got.Code)
	a.Equal(2, got.Multiplier)

	// a five-card bust outranks the plain bust rules even against a busted dealer
	got = Settle(deck.CardsFromString("10s,10h,5d,3c,4s"), deck.CardsFromString("10d,8c,9h"))
	a.Equal(OutcomeFiveCardBust, got.Code)

	// double ace outranks blackjack-adjacent comparisons
	got = Settle(deck.CardsFromString("14s,14h"), deck.CardsFromString("14d,13c"))
	a.Equal(OutcomeDoubleAce, got.Code)
	a.Equal(3, got.Multiplier)

	// dealer blackjack is not special: an equal total is just a push
	got = Settle(deck.CardsFromString("13s,5h,6d"), deck.CardsFromString("14d,13c"))
	a.Equal(OutcomePush, got.Code)

	// dealer five-card charlie is not special either
	got = Settle(deck.CardsFromString("10s,10h"), deck.CardsFromString("2d,3c,4h,5s,2h"))
	a.Equal(OutcomeNormalWin, got.Code)
}

// Scenario A from the house rule book: natural vs dealer 18
func TestSettle_scenarioBlackjack(t *testing.T) {
	player := deck.CardsFromString("14s,13h")
	dealer := deck.CardsFromString("9d,9c")

	assert.Equal(t, 21, Score(player))
	assert.True(t, IsBlackjack(player))
	assert.Equal(t, 18, Score(dealer))

	got := Settle(player, dealer)
	assert.Equal(t, OutcomeBlackjack, got.Code)
	assert.Equal(t, 2, got.Multiplier)
}

func TestSettle_scenarioFiveCardBust(t *testing.T) {
	player := deck.CardsFromString("10s,10h,14d,2c,3s")
	assert.Equal(t, 26, Score(player))

	for _, dealer := range []string{"10d,9c", "10d,8c,6h", "14d,13c"} {
		got := Settle(player, deck.CardsFromString(dealer))
		assert.Equal(t, OutcomeFiveCardBust, got.Code, "dealer %s", dealer)
		assert.Equal(t, -2, got.Multiplier)
	}
}

func TestSettle_scenarioSeventeenLoses(t *testing.T) {
	got := Settle(deck.CardsFromString("8s,9h"), deck.CardsFromString("10d,9c"))
	assert.Equal(t, OutcomeNormalLose, got.Code)
	assert.Equal(t, -1, got.Multiplier)
}

func TestSettle_scenarioMutualBust(t *testing.T) {
	player := deck.CardsFromString("10s,9h,4d")  // 23
	dealer := deck.CardsFromString("10d,8c,6h") // 24

	got := Settle(player, dealer)
	assert.Equal(t, OutcomeBothBust, got.Code)
	assert.Equal(t, -1, got.Multiplier)
}
