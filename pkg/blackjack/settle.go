package blackjack

import (
	"mc21-server/pkg/deck"
)

// OutcomeCode identifies how a seat settled against the dealer
type OutcomeCode string

// outcome codes
const (
	OutcomeFiveCardWin  OutcomeCode = "P_5CARD_WIN"
	OutcomeFiveCardBust OutcomeCode = "P_5CARD_BUST"
	OutcomeDoubleAce    OutcomeCode = "P_AA"
	OutcomeBlackjack    OutcomeCode = "P_BJ"
	OutcomeBothBust     OutcomeCode = "BOTH_BUST_D_WINS"
	OutcomePlayerBust   OutcomeCode = "P_BUST"
	OutcomeDealerBust   OutcomeCode = "D_BUST"
	OutcomePush         OutcomeCode = "PUSH"
	OutcomeNormalWin    OutcomeCode = "P_NORMAL_WIN"
	OutcomeNormalLose   OutcomeCode = "P_NORMAL_LOSE"
)

// Outcome is the settlement of a single seat. Multiplier is applied to the
// seat's bet to produce the signed delta.
type Outcome struct {
	Code       OutcomeCode `json:"code"`
	Multiplier int         `json:"multiplier"`
}

type settleFacts struct {
	playerScore int
	dealerScore int
	playerFive  bool
	playerBJ    bool
	playerAA    bool
	playerBust  bool
	dealerBust  bool
}

// settleRules is evaluated top to bottom, first match wins. The order is the
// rule priority and must not change. Dealer-side specials (five-card,
// blackjack, double-ace) are deliberately never evaluated; only the player's
// hand shape triggers the special payouts. House rule, not an omission.
var settleRules = []struct {
	matches func(f settleFacts) bool
	outcome Outcome
}{
	{
		func(f settleFacts) bool { return f.playerFive && f.playerScore <= Target },
		Outcome{OutcomeFiveCardWin, 2},
	},
	{
		func(f settleFacts) bool { return f.playerFive && f.playerScore > Target },
		Outcome{OutcomeFiveCardBust, -2},
	},
	{
		func(f settleFacts) bool { return f.playerAA },
		Outcome{OutcomeDoubleAce, 3},
	},
	{
		func(f settleFacts) bool { return f.playerBJ },
		Outcome{OutcomeBlackjack, 2},
	},
	{
		// the house wins a mutual bust, it is not a push
		func(f settleFacts) bool { return f.playerBust && f.dealerBust },
		Outcome{OutcomeBothBust, -1},
	},
	{
		func(f settleFacts) bool { return f.playerBust },
		Outcome{OutcomePlayerBust, -1},
	},
	{
		func(f settleFacts) bool { return f.dealerBust },
		Outcome{OutcomeDealerBust, 1},
	},
	{
		func(f settleFacts) bool { return f.playerScore == f.dealerScore },
		Outcome{OutcomePush, 0},
	},
	{
		func(f settleFacts) bool { return (Target - f.playerScore) < (Target - f.dealerScore) },
		Outcome{OutcomeNormalWin, 1},
	},
	{
		func(f settleFacts) bool { return true },
		Outcome{OutcomeNormalLose, -1},
	},
}

// Settle maps a finished player hand and the final dealer hand to an outcome
func Settle(player, dealer []*deck.Card) Outcome {
	f := settleFacts{
		playerScore: Score(player),
		dealerScore: Score(dealer),
		playerFive:  IsFiveCardCharlie(player),
		playerBJ:    IsBlackjack(player),
		playerAA:    IsDoubleAce(player),
		playerBust:  IsBust(player),
		dealerBust:  IsBust(dealer),
	}

	for _, rule := range settleRules {
		if rule.matches(f) {
			return rule.outcome
		}
	}

	// the final rule always matches
	panic("no settlement rule matched")
}
