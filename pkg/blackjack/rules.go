// Package blackjack implements the hand rules and settlement for M.C. 21,
// a house-ruled blackjack variant.
package blackjack

import (
	"mc21-server/pkg/deck"
)

// Target is the score a hand wants to reach without going over
const Target = 21

// FiveCardLimit is the hard cap on hand size. A hand that reaches it may not
// draw again, regardless of score.
const FiveCardLimit = 5

// TwoCardStandMinimum is the lowest two-card total a player may stand on.
// Below it, exactly one more card must be drawn. Applies to player seats only.
const TwoCardStandMinimum = 16

// DealerStandMinimum is the fixed dealer policy: hit while strictly below it
const DealerStandMinimum = 16

// Score totals a hand. Aces count 11 first and are downgraded to 1 one at a
// time while the total is over Target.
func Score(hand []*deck.Card) int {
	total := 0
	aces := 0
	for _, c := range hand {
		switch {
		case c.Rank == deck.Ace:
			aces++
			total += 11
		case c.Rank >= deck.Jack:
			total += 10
		default:
			total += c.Rank
		}
	}

	for total > Target && aces > 0 {
		total -= 10
		aces--
	}

	return total
}

// IsBust returns true if the hand scored over Target
func IsBust(hand []*deck.Card) bool {
	return Score(hand) > Target
}

// IsFiveCardCharlie returns true once the hand reached the five-card cap
func IsFiveCardCharlie(hand []*deck.Card) bool {
	return len(hand) >= FiveCardLimit
}

// IsBlackjack returns true for a natural: exactly two cards, an Ace plus a
// ten-valued card. It never re-triggers after a hit.
func IsBlackjack(hand []*deck.Card) bool {
	if len(hand) != 2 {
		return false
	}

	hasAce := false
	hasTen := false
	for _, c := range hand {
		if c.Rank == deck.Ace {
			hasAce = true
		} else if c.Rank >= 10 && c.Rank <= deck.King {
			hasTen = true
		}
	}

	return hasAce && hasTen && Score(hand) == Target
}

// IsDoubleAce returns true if the first two cards are both Aces
func IsDoubleAce(hand []*deck.Card) bool {
	return len(hand) == 2 && hand[0].Rank == deck.Ace && hand[1].Rank == deck.Ace
}

// CanStand returns false while the two-card minimum forces another draw.
// A hand of exactly two cards under TwoCardStandMinimum must hit once before
// standing becomes legal.
func CanStand(hand []*deck.Card) bool {
	return !(len(hand) == 2 && Score(hand) < TwoCardStandMinimum)
}

// DealerShouldHit is the automated dealer policy: draw while not bust, under
// the five-card cap, and strictly below DealerStandMinimum.
func DealerShouldHit(hand []*deck.Card) bool {
	return !IsBust(hand) && !IsFiveCardCharlie(hand) && Score(hand) < DealerStandMinimum
}
