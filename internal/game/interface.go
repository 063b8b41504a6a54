// Package game implements the room game session engine: participant registry,
// command listeners, the credit economy and the session lifecycle.
package game

// Rules is the game-specific logic bound to a session. The engine calls the
// optional hook interfaces below on whichever Rules implement them.
type Rules interface {
	// Commands returns the commands the session accepts.
	Commands() []Command
}

// SignupsHook runs when signups open.
type SignupsHook interface {
	OnSignups()
}

// StartHook runs after the session started.
type StartHook interface {
	OnStart()
}

// NextRoundHook runs on every round that is within the round limit. It is
// responsible for scheduling any per-round timer it needs.
type NextRoundHook interface {
	OnNextRound()
}

// MaxRoundHook runs once the round limit is exceeded, right before End.
type MaxRoundHook interface {
	OnMaxRound()
}

// EndHook runs at the start of End.
type EndHook interface {
	OnEnd()
}

// AddPlayerHook can refuse a join by returning false.
type AddPlayerHook interface {
	OnAddPlayer(p *Player, lateJoin bool) bool
}

// RemovePlayerHook runs after a player left.
type RemovePlayerHook interface {
	OnRemovePlayer(p *Player)
}

// ChildEndHook receives the winners of a child session when it deallocates.
type ChildEndHook interface {
	OnChildEnd(winners *Scoreboard)
}

// DeallocateHook runs during deallocation, after timers were cleared.
type DeallocateHook interface {
	OnDeallocate(forceEnd bool)
}

// AfterDeallocateHook runs last, after the parent session was restored.
type AfterDeallocateHook interface {
	OnAfterDeallocate(forceEnd bool)
}

// ForceEndHook runs when the session is forcibly ended.
type ForceEndHook interface {
	OnForceEnd(initiator Identity)
}

// SummaryHook describes a single player's state on request.
type SummaryHook interface {
	PlayerSummary(p *Player) string
}

type noRules struct{}

func (noRules) Commands() []Command { return nil }
