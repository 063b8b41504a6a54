package game

import "time"

// Identity is a resolved chat user.
type Identity struct {
	ID   int64
	Name string
}

// ViewKind selects the rich message variant used by Room.SayFormatted.
type ViewKind string

// Rich message kinds.
const (
	ViewSignups ViewKind = "signups"
	ViewRound   ViewKind = "round"
	ViewHostBox ViewKind = "hostbox"
	ViewWinners ViewKind = "winners"
)

// Kind distinguishes the two session slots a room can hold.
type Kind string

// Session kinds.
const (
	KindScripted   Kind = "scripted"
	KindUserHosted Kind = "userhosted"
)

// Room is the hosting context a session reports through.
type Room interface {
	ID() int64
	Title() string
	// IsPrivate reports an ephemeral context with no persistent economy.
	IsPrivate() bool
	Say(text string)
	SayFormatted(kind ViewKind, payload string)
	// PublishView publishes a named view, or updates it when it already exists.
	PublishView(name, payload string)
	NotifyEligible(scope, title, message, highlight string)
	ClearNotification(scope string)
	// SayTo sends a direct notice to a single user.
	SayTo(userID int64, text string)
	Modnote(text string)
}

// IdentityResolver resolves a display name to a live identity.
type IdentityResolver interface {
	Resolve(name string) (Identity, bool)
}

// Leaderboard names a credit ledger within a room.
type Leaderboard string

// Leaderboards.
const (
	LeaderboardCredits Leaderboard = "credits"
	LeaderboardHosting Leaderboard = "hosting"
)

// HistoryEntry is one finished session in the room history.
type HistoryEntry struct {
	Kind        Kind
	FormatID    string
	Name        string
	InputTarget string
	StartedAt   time.Time
	EndedAt     time.Time
	Players     []string
	Winners     []string
}

// HostStat is recorded for every game a primary host finishes.
type HostStat struct {
	HostID              int64
	Format              string
	InputTarget         string
	StartingPlayerCount int
	EndingPlayerCount   int
	StartTime           time.Time
	EndTime             time.Time
	Winners             []int64
}

// HistoryLimit is the number of most recent entries kept per room and kind.
const HistoryLimit = 8

// Ledger persists credits and history. Writes are fire-and-forget: failures are
// logged by the implementation and never reported back to the session.
type Ledger interface {
	CreditAward(chatID int64, board Leaderboard, recipient Identity, amount int64, category string)
	CreditDeduct(chatID int64, board Leaderboard, recipient Identity, amount int64, category string)
	HistoryAppend(chatID int64, entry HistoryEntry, maxEntries int)
	HostStatAppend(chatID int64, stat HostStat)
}

// Difficulty tiers user-hosted formats are ranked by.
type Difficulty string

// Difficulties.
const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// RoomSettings is the read-only per-room configuration. Zero durations disable
// the corresponding timer.
type RoomSettings struct {
	AutoStartDelay  time.Duration
	Cooldown        time.Duration
	AutoCreateDelay time.Duration
	Ranked          bool
}

// Settings exposes configuration read by the engine.
type Settings interface {
	RoomSettings(chatID int64) RoomSettings
	HostDifficulty(formatID string) Difficulty
}

// Session is what a room slot holds.
type Session interface {
	ID() string
	Name() string
	Kind() Kind
	Ended() bool
	AddPlayer(user Identity) *Player
	RemovePlayer(user Identity, silent bool)
	TryCommand(target string, isPM bool, caller Identity, command string) bool
	ForceEnd(initiator Identity, reason string)
	Deallocate(forceEnd bool)
}

// Slots owns the room's "current session" slots.
type Slots interface {
	Activate(chatID int64, s Session)
	// Release empties the slot only when s is its current occupant.
	Release(chatID int64, s Session)
	ScheduleAutoCreate(chatID int64, kind Kind, after time.Duration)
}

// PanelCloser closes any host control panel open for a host.
type PanelCloser interface {
	ClosePanel(chatID, hostID int64)
}

// Stopper cancels a scheduled callback.
type Stopper interface {
	Stop() bool
}

// Clock schedules callbacks. Callbacks must run serialized with every other
// mutation of the same session.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Stopper
}

// Deps bundles the collaborators a session is constructed with.
type Deps struct {
	Room     Room
	Ledger   Ledger
	Users    IdentityResolver
	Settings Settings
	Slots    Slots
	Clock    Clock
	Panels   PanelCloser
}
