package deck

import (
	"crypto/sha1" // nolint:gosec
	"encoding/hex"
	"errors"
	"fmt"

	"mc21-server/internal/rng"
)

// ErrInsufficientCards is an error when a draw wants more cards than the shoe holds.
// The shoe is left untouched; callers must rebuild before drawing again.
var ErrInsufficientCards = errors.New("insufficient cards left in the shoe")

// cardsPerDeck is the size of a single standard deck
const cardsPerDeck = 52

// Shoe is a multi-deck pool of shuffled cards shared by every seat at a table.
// The top of the shoe is the end of the Cards slice.
type Shoe struct {
	Cards []*Card `json:"cards"`
	// CutIndex is the remaining-card count at or below which the shoe must be
	// rebuilt rather than continue depleting
	CutIndex int `json:"cutIndex"`
	Decks    int `json:"decks"`
}

// NewShoe builds a shoe from decks standard decks and shuffles it with an
// unbiased Fisher-Yates using the supplied generator.
// The cut card sits at 75% of the full shoe.
func NewShoe(decks int, g rng.Generator) *Shoe {
	if decks < 1 {
		panic(fmt.Sprintf("decks must be >= 1, got %d", decks))
	}

	cards := make([]*Card, 0, decks*cardsPerDeck)
	for i := 0; i < decks; i++ {
		for _, suit := range []Suit{Clubs, Diamonds, Hearts, Spades} {
			for rank := 2; rank <= Ace; rank++ {
				cards = append(cards, &Card{
					Rank: rank,
					Suit: suit,
				})
			}
		}
	}

	for j := len(cards) - 1; j > 0; j-- {
		i := g.Intn(j + 1)
		cards[i], cards[j] = cards[j], cards[i]
	}

	return &Shoe{
		Cards:    cards,
		CutIndex: len(cards) * 3 / 4,
		Decks:    decks,
	}
}

// Draw removes n cards from the top of the shoe and returns them.
// On ErrInsufficientCards the shoe is not modified; a partial draw never happens.
func (s *Shoe) Draw(n int) ([]*Card, error) {
	if n < 1 {
		panic(fmt.Sprintf("must draw at least one card, got %d", n))
	}

	if n > len(s.Cards) {
		return nil, ErrInsufficientCards
	}

	cut := len(s.Cards) - n
	drawn := make([]*Card, n)
	copy(drawn, s.Cards[cut:])
	s.Cards = s.Cards[:cut]

	return drawn, nil
}

// NeedsReshuffle returns true if the shoe passed the cut card, or if there is
// no shoe yet. Callers must rebuild the shoe with NewShoe(), discarding the
// unseen cards, rather than topping it off.
func (s *Shoe) NeedsReshuffle() bool {
	return s == nil || len(s.Cards) <= s.CutIndex
}

// CardsLeft returns the number of cards left in the shoe
func (s *Shoe) CardsLeft() int {
	if s == nil {
		return 0
	}

	return len(s.Cards)
}

// HashCode returns a SHA1 hash code of the remaining cards, for audit logs
func (s *Shoe) HashCode() string {
	hash := sha1.New() // nolint:gosec
	for _, card := range s.Cards {
		_, _ = hash.Write([]byte(card.String()))
	}

	return hex.EncodeToString(hash.Sum(nil))
}
