// Package gametest provides in-memory collaborators for exercising sessions
// without a chat transport or a database.
package gametest

import (
	"sort"
	"strings"
	"sync"
	"time"

	"room-game-bot/internal/game"
)

// Clock is a manual clock. Callbacks run synchronously from Advance.
type Clock struct {
	mu      sync.Mutex
	now     time.Time
	seq     int
	pending []*fakeTimer
}

type fakeTimer struct {
	clock   *Clock
	due     time.Time
	seq     int
	fn      func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// NewClock creates a clock starting at start.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// AfterFunc schedules f to run once the clock advanced by d.
func (c *Clock) AfterFunc(d time.Duration, f func()) game.Stopper {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	t := &fakeTimer{clock: c, due: c.now.Add(d), seq: c.seq, fn: f}
	c.pending = append(c.pending, t)
	return t
}

// Advance moves the clock forward by d, running every callback that becomes
// due in due-time order. Callbacks scheduled while advancing run too when they
// fall within the window.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		next := c.nextDue(target)
		if next == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		next.stopped = true
		c.now = next.due
		c.mu.Unlock()
		next.fn()
	}
}

// Pending returns the number of callbacks not yet run or stopped.
func (c *Clock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.pending {
		if !t.stopped {
			n++
		}
	}
	return n
}

func (c *Clock) nextDue(target time.Time) *fakeTimer {
	live := c.pending[:0]
	for _, t := range c.pending {
		if !t.stopped {
			live = append(live, t)
		}
	}
	c.pending = live
	sort.SliceStable(c.pending, func(i, j int) bool {
		if c.pending[i].due.Equal(c.pending[j].due) {
			return c.pending[i].seq < c.pending[j].seq
		}
		return c.pending[i].due.Before(c.pending[j].due)
	})
	if len(c.pending) == 0 || c.pending[0].due.After(target) {
		return nil
	}
	return c.pending[0]
}

// Notification is a recorded NotifyEligible call.
type Notification struct {
	Scope     string
	Title     string
	Message   string
	Highlight string
}

// Room records everything a session says.
type Room struct {
	ChatID  int64
	Private bool
	Label   string

	Said          []string
	Formatted     []string
	Views         map[string]string
	ViewUpdates   map[string]int
	Notifications []Notification
	Cleared       []string
	Direct        map[int64][]string
	Modnotes      []string
}

// NewRoom creates a public room.
func NewRoom(chatID int64) *Room {
	return &Room{
		ChatID:      chatID,
		Label:       "Lobby",
		Views:       make(map[string]string),
		ViewUpdates: make(map[string]int),
		Direct:      make(map[int64][]string),
	}
}

func (r *Room) ID() int64       { return r.ChatID }
func (r *Room) Title() string   { return r.Label }
func (r *Room) IsPrivate() bool { return r.Private }
func (r *Room) Say(text string) { r.Said = append(r.Said, text) }

func (r *Room) SayFormatted(kind game.ViewKind, payload string) {
	r.Formatted = append(r.Formatted, string(kind)+": "+payload)
}

func (r *Room) PublishView(name, payload string) {
	r.Views[name] = payload
	r.ViewUpdates[name]++
}

func (r *Room) NotifyEligible(scope, title, message, highlight string) {
	r.Notifications = append(r.Notifications, Notification{scope, title, message, highlight})
}

func (r *Room) ClearNotification(scope string) { r.Cleared = append(r.Cleared, scope) }

func (r *Room) SayTo(userID int64, text string) {
	r.Direct[userID] = append(r.Direct[userID], text)
}

func (r *Room) Modnote(text string) { r.Modnotes = append(r.Modnotes, text) }

// Saw reports whether any room message contains substr.
func (r *Room) Saw(substr string) bool {
	for _, s := range r.Said {
		if strings.Contains(s, substr) {
			return true
		}
	}
	return false
}

// Credit is a recorded ledger movement.
type Credit struct {
	ChatID    int64
	Board     game.Leaderboard
	Recipient game.Identity
	Amount    int64
	Category  string
}

// Ledger keeps balances in memory.
type Ledger struct {
	Awards     []Credit
	Deductions []Credit
	History    map[int64][]game.HistoryEntry
	HostStats  []game.HostStat
	balances   map[game.Leaderboard]map[int64]int64
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		History:  make(map[int64][]game.HistoryEntry),
		balances: make(map[game.Leaderboard]map[int64]int64),
	}
}

func (l *Ledger) CreditAward(chatID int64, board game.Leaderboard, recipient game.Identity, amount int64, category string) {
	l.Awards = append(l.Awards, Credit{chatID, board, recipient, amount, category})
	l.board(board)[recipient.ID] += amount
}

func (l *Ledger) CreditDeduct(chatID int64, board game.Leaderboard, recipient game.Identity, amount int64, category string) {
	l.Deductions = append(l.Deductions, Credit{chatID, board, recipient, amount, category})
	l.board(board)[recipient.ID] -= amount
}

func (l *Ledger) HistoryAppend(chatID int64, entry game.HistoryEntry, maxEntries int) {
	h := append(l.History[chatID], entry)
	if len(h) > maxEntries {
		h = h[len(h)-maxEntries:]
	}
	l.History[chatID] = h
}

func (l *Ledger) HostStatAppend(_ int64, stat game.HostStat) {
	l.HostStats = append(l.HostStats, stat)
}

// Balance returns the balance of userID on board.
func (l *Ledger) Balance(board game.Leaderboard, userID int64) int64 {
	return l.board(board)[userID]
}

func (l *Ledger) board(board game.Leaderboard) map[int64]int64 {
	b, ok := l.balances[board]
	if !ok {
		b = make(map[int64]int64)
		l.balances[board] = b
	}
	return b
}

// Slots tracks the current session per kind and records auto-create requests.
type Slots struct {
	Current    map[game.Kind]game.Session
	AutoCreate []AutoCreate
}

// AutoCreate is a recorded ScheduleAutoCreate call.
type AutoCreate struct {
	ChatID int64
	Kind   game.Kind
	After  time.Duration
}

// NewSlots creates empty slots.
func NewSlots() *Slots {
	return &Slots{Current: make(map[game.Kind]game.Session)}
}

func (s *Slots) Activate(_ int64, session game.Session) {
	s.Current[session.Kind()] = session
}

func (s *Slots) Release(_ int64, session game.Session) {
	if s.Current[session.Kind()] == session {
		delete(s.Current, session.Kind())
	}
}

func (s *Slots) ScheduleAutoCreate(chatID int64, kind game.Kind, after time.Duration) {
	s.AutoCreate = append(s.AutoCreate, AutoCreate{chatID, kind, after})
}

// Users resolves names from a fixed table.
type Users map[string]game.Identity

func (u Users) Resolve(name string) (game.Identity, bool) {
	id, ok := u[game.ToID(name)]
	return id, ok
}

// Add registers identity under its name.
func (u Users) Add(id game.Identity) {
	u[game.ToID(id.Name)] = id
}

// Settings returns fixed room settings and difficulties.
type Settings struct {
	Room         game.RoomSettings
	Difficulties map[string]game.Difficulty
}

func (s *Settings) RoomSettings(int64) game.RoomSettings { return s.Room }

func (s *Settings) HostDifficulty(formatID string) game.Difficulty {
	return s.Difficulties[game.ToID(formatID)]
}

// Panels records closed host panels.
type Panels struct {
	Closed []int64
}

func (p *Panels) ClosePanel(_ int64, hostID int64) {
	p.Closed = append(p.Closed, hostID)
}

// Env bundles a full set of fakes.
type Env struct {
	Clock    *Clock
	Room     *Room
	Ledger   *Ledger
	Slots    *Slots
	Users    Users
	Settings *Settings
	Panels   *Panels
}

// NewEnv creates fakes for a public room with chat id 1.
func NewEnv() *Env {
	return &Env{
		Clock:    NewClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)),
		Room:     NewRoom(1),
		Ledger:   NewLedger(),
		Slots:    NewSlots(),
		Users:    make(Users),
		Settings: &Settings{Difficulties: make(map[string]game.Difficulty)},
		Panels:   &Panels{},
	}
}

// Deps returns the engine collaborators backed by the fakes.
func (e *Env) Deps() game.Deps {
	return game.Deps{
		Room:     e.Room,
		Ledger:   e.Ledger,
		Users:    e.Users,
		Settings: e.Settings,
		Slots:    e.Slots,
		Clock:    e.Clock,
		Panels:   e.Panels,
	}
}

// User returns an identity registered with the resolver.
func (e *Env) User(id int64, name string) game.Identity {
	u := game.Identity{ID: id, Name: name}
	e.Users.Add(u)
	return u
}
