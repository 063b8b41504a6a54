package game

import (
	"fmt"
	"math"
)

// JoinCredits is awarded on join and taken back on leave in scripted sessions.
const JoinCredits = 10

func (g *Game) creditsAllowed(amount int64) bool {
	if amount <= 0 || g.deps.Room.IsPrivate() {
		return false
	}
	if g.parent != nil && !g.parent.allowChildCredits {
		return false
	}
	return true
}

func (g *Game) category() string {
	if g.parent != nil {
		return g.parent.id
	}
	return g.id
}

// AddCredits awards amount to recipient on the credits leaderboard, doubled
// for a shiny mascot. It reports whether anything was awarded.
func (g *Game) AddCredits(recipient Identity, amount int64, suppressNotice bool) bool {
	if !g.creditsAllowed(amount) {
		return false
	}
	if g.shiny {
		amount *= 2
	}
	g.deps.Ledger.CreditAward(g.deps.Room.ID(), LeaderboardCredits, recipient, amount, g.category())
	if !suppressNotice {
		g.SayTo(recipient, fmt.Sprintf("You were awarded %d credits! To see your total amount, use /bits.", amount))
	}
	g.awardedCredits = true
	return true
}

// RemoveCredits deducts amount from recipient on the credits leaderboard.
func (g *Game) RemoveCredits(recipient Identity, amount int64, suppressNotice bool) bool {
	if !g.creditsAllowed(amount) {
		return false
	}
	if g.shiny {
		amount *= 2
	}
	g.deps.Ledger.CreditDeduct(g.deps.Room.ID(), LeaderboardCredits, recipient, amount, g.category())
	if !suppressNotice {
		g.SayTo(recipient, fmt.Sprintf("You lost %d credits!", amount))
	}
	return true
}

// AwardedCredits reports whether the session awarded credits to anyone.
func (g *Game) AwardedCredits() bool {
	return g.awardedCredits
}

// SettleScoreToCredits converts every player's points into credits at
// winnerRate for winners and loserRate otherwise, capped per player. Zero
// rates fall back to the format's rates. It panics when the session keeps no
// points.
func (g *Game) SettleScoreToCredits(winnerRate, loserRate float64) {
	if g.points == nil {
		panic(ErrNoPointsMap)
	}
	if g.parent != nil && !g.parent.allowChildCredits {
		return
	}
	if winnerRate == 0 {
		winnerRate = g.winnerRate
	}
	if loserRate == 0 {
		loserRate = g.loserRate
	}
	g.points.Each(func(p *Player, points int) {
		if points <= 0 {
			return
		}
		rate := loserRate
		if g.winners.Has(p) {
			rate = winnerRate
		}
		credits := int64(math.Floor(rate * float64(points)))
		if credits > g.maxCredits {
			credits = g.maxCredits
		}
		g.AddCredits(p.Identity(), credits, false)
	})
}
