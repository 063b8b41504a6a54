package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"room-game-bot/internal/game"
	"room-game-bot/internal/game/userhosted"
	"room-game-bot/internal/pkg/lock"
)

// Session manager errors.
var (
	ErrGameInProgress = errors.New("a game is already in progress")
	ErrNoGame         = errors.New("there is no game in progress")
	ErrNotHost        = errors.New("only the host can do that")
	ErrNoMinigame     = errors.New("that game has no minigame")
	ErrGameCooldown   = errors.New("minigames are on cooldown")
)

// DefaultLockTimeout bounds how long a command waits for its chat.
const DefaultLockTimeout = 5 * time.Second

// RoomProvider supplies the room a chat's sessions report through.
type RoomProvider interface {
	Room(chatID int64) game.Room
}

// SessionDeps holds the collaborators shared by every session.
type SessionDeps struct {
	Rooms    RoomProvider
	Ledger   game.Ledger
	Users    game.IdentityResolver
	Settings game.Settings
	Panels   game.PanelCloser
}

// SessionConfig holds the catalogues and timing sessions are built from.
type SessionConfig struct {
	Scripted            *game.Registry
	Hosted              *game.Registry
	Timing              userhosted.Timing
	SignupsRefreshDelay time.Duration
}

type slotKey struct {
	chatID int64
	kind   game.Kind
}

// SessionManager owns the scripted and user-hosted slot of every chat.
// Every mutation of a chat's sessions runs under that chat's lock: handlers
// enter through Do, timer callbacks through the clock.
type SessionManager struct {
	deps  SessionDeps
	cfg   SessionConfig
	locks *lock.KeyedLock
	clock func(chatID int64) game.Clock

	mu         sync.Mutex
	slots      map[slotKey]game.Session
	autoCreate map[slotKey]game.Stopper
	lastEnded  map[int64]time.Time
	rng        *rand.Rand
	closed     bool
}

var _ game.Slots = (*SessionManager)(nil)

// NewSessionManager creates a new SessionManager instance.
func NewSessionManager(deps SessionDeps, cfg SessionConfig) *SessionManager {
	if cfg.SignupsRefreshDelay == 0 {
		cfg.SignupsRefreshDelay = game.DefaultSignupsRefreshDelay
	}
	m := &SessionManager{
		deps:       deps,
		cfg:        cfg,
		locks:      lock.NewKeyedLock(),
		slots:      make(map[slotKey]game.Session),
		autoCreate: make(map[slotKey]game.Stopper),
		lastEnded:  make(map[int64]time.Time),
		rng:        game.NewRand(time.Now().UnixNano()),
	}
	m.clock = func(chatID int64) game.Clock {
		return game.NewSystemClock(func(fn func()) { m.run(chatID, fn) })
	}
	return m
}

// SetClock replaces the clock new sessions and auto-create timers use.
func (m *SessionManager) SetClock(clock func(chatID int64) game.Clock) {
	m.clock = clock
}

// run executes a timer callback under the chat lock.
func (m *SessionManager) run(chatID int64, fn func()) {
	m.locks.Do(chatID, func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Int64("chat_id", chatID).Msg("Recovered from panic in game timer")
			}
		}()
		fn()
	})
}

// Do runs fn while holding the lock of chatID. Every other method that reads
// or mutates a chat's sessions must be called from within fn.
func (m *SessionManager) Do(ctx context.Context, chatID int64, fn func() error) error {
	return m.locks.WithLockContext(ctx, chatID, DefaultLockTimeout, fn)
}

// Deps returns the collaborators of a session in chatID.
func (m *SessionManager) Deps(chatID int64) game.Deps {
	return game.Deps{
		Room:     m.deps.Rooms.Room(chatID),
		Ledger:   m.deps.Ledger,
		Users:    m.deps.Users,
		Settings: m.deps.Settings,
		Slots:    m,
		Clock:    m.clock(chatID),
		Panels:   m.deps.Panels,
	}
}

// Activate puts s in its kind's slot of chatID.
func (m *SessionManager) Activate(chatID int64, s game.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := slotKey{chatID, s.Kind()}
	m.slots[key] = s
	if t, ok := m.autoCreate[key]; ok {
		t.Stop()
		delete(m.autoCreate, key)
	}
}

// historyRecorder is implemented by sessions that count towards the room
// cooldown.
type historyRecorder interface {
	RecordsHistory() bool
}

// Release empties the slot of s when s is its current occupant. Releasing a
// full room game starts the minigame cooldown.
func (m *SessionManager) Release(chatID int64, s game.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := slotKey{chatID, s.Kind()}
	if m.slots[key] == s {
		delete(m.slots, key)
	}
	if r, ok := s.(historyRecorder); ok && r.RecordsHistory() {
		m.lastEnded[chatID] = m.clock(chatID).Now()
	}
}

// ScheduleAutoCreate creates a game of kind in chatID after the delay,
// replacing any pending auto-create for that slot.
func (m *SessionManager) ScheduleAutoCreate(chatID int64, kind game.Kind, after time.Duration) {
	key := slotKey{chatID, kind}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	timer := m.clock(chatID).AfterFunc(after, func() { m.fireAutoCreate(key) })
	if t, ok := m.autoCreate[key]; ok {
		t.Stop()
	}
	m.autoCreate[key] = timer
	log.Debug().Int64("chat_id", chatID).Str("kind", string(kind)).Dur("after", after).Msg("Auto-create scheduled")
}

// PendingAutoCreate reports whether an auto-create is armed for a slot.
func (m *SessionManager) PendingAutoCreate(chatID int64, kind game.Kind) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.autoCreate[slotKey{chatID, kind}]
	return ok
}

func (m *SessionManager) fireAutoCreate(key slotKey) {
	m.mu.Lock()
	delete(m.autoCreate, key)
	_, occupied := m.slots[key]
	m.mu.Unlock()
	if occupied {
		return
	}

	switch key.kind {
	case game.KindScripted:
		formats := lo.Filter(m.cfg.Scripted.List(), func(f *game.Format, _ int) bool { return f.NewRules != nil })
		if len(formats) == 0 {
			return
		}
		m.mu.Lock()
		format := game.SampleOne(m.rng, formats)
		m.mu.Unlock()
		if _, err := m.startScripted(key.chatID, format, nil); err != nil {
			log.Warn().Err(err).Int64("chat_id", key.chatID).Msg("Failed to auto-create scripted game")
		}
	case game.KindUserHosted:
		m.deps.Rooms.Room(key.chatID).Say("The hosted game slot is open! Use /host [game] to host one.")
	}
}

// Current returns the session in a slot of chatID.
func (m *SessionManager) Current(chatID int64, kind game.Kind) (game.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[slotKey{chatID, kind}]
	return s, ok
}

// Scripted returns the scripted session of chatID.
func (m *SessionManager) Scripted(chatID int64) (*game.Game, bool) {
	s, ok := m.Current(chatID, game.KindScripted)
	if !ok {
		return nil, false
	}
	g, ok := s.(*game.Game)
	return g, ok
}

// Hosted returns the user-hosted session of chatID.
func (m *SessionManager) Hosted(chatID int64) (*userhosted.Game, bool) {
	s, ok := m.Current(chatID, game.KindUserHosted)
	if !ok {
		return nil, false
	}
	g, ok := s.(*userhosted.Game)
	return g, ok
}

// CreateScripted parses input against the scripted catalogue and opens
// signups for the resulting game.
func (m *SessionManager) CreateScripted(chatID int64, input string) (*game.Game, error) {
	if _, ok := m.Current(chatID, game.KindScripted); ok {
		return nil, ErrGameInProgress
	}
	format, variant, err := m.cfg.Scripted.Parse(input)
	if err != nil {
		return nil, err
	}
	return m.startScripted(chatID, format, variant)
}

func (m *SessionManager) startScripted(chatID int64, format *game.Format, variant *game.Variant) (*game.Game, error) {
	if format.NewRules == nil {
		return nil, fmt.Errorf("%w: %s cannot be played as a scripted game", game.ErrUnknownFormat, format.Name)
	}
	g := game.New(m.Deps(chatID), game.WithSignupsRefreshDelay(m.cfg.SignupsRefreshDelay))
	g.Initialize(format, variant)
	m.Activate(chatID, g)
	g.Signups()
	log.Info().Int64("chat_id", chatID).Str("format", format.ID).Msg("Scripted game created")
	return g, nil
}

// StartMinigame starts the minigame behind command in the scripted slot of
// chatID. Minigames wait for half of the room cooldown after the last game.
func (m *SessionManager) StartMinigame(chatID int64, command string) (*game.Game, error) {
	format, ok := m.cfg.Scripted.Minigame(command)
	if !ok || format.NewRules == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoMinigame, command)
	}
	if _, ok := m.Current(chatID, game.KindScripted); ok {
		return nil, ErrGameInProgress
	}
	if left := m.minigameWait(chatID); left > 0 {
		return nil, fmt.Errorf("%w: try again in %s", ErrGameCooldown, left.Round(time.Second))
	}

	g := game.New(m.Deps(chatID), game.MiniGame())
	g.Initialize(format, nil)
	m.Activate(chatID, g)
	g.Signups()
	log.Info().Int64("chat_id", chatID).Str("format", format.ID).Msg("Minigame started")
	return g, nil
}

// minigameWait returns how long chatID must wait before a minigame.
func (m *SessionManager) minigameWait(chatID int64) time.Duration {
	cooldown := time.Duration(0)
	if m.deps.Settings != nil {
		cooldown = m.deps.Settings.RoomSettings(chatID).Cooldown
	}
	m.mu.Lock()
	last, ok := m.lastEnded[chatID]
	m.mu.Unlock()
	if !ok || cooldown <= 0 {
		return 0
	}
	return last.Add(cooldown / 2).Sub(m.clock(chatID).Now())
}

// CreateHosted parses input against the hosted catalogue and opens signups
// for a game run by host.
func (m *SessionManager) CreateHosted(chatID int64, input string, host game.Identity, noControlPanel bool) (*userhosted.Game, error) {
	if _, ok := m.Current(chatID, game.KindUserHosted); ok {
		return nil, ErrGameInProgress
	}
	format, variant, err := m.cfg.Hosted.Parse(input)
	if err != nil {
		return nil, err
	}
	g := userhosted.New(m.Deps(chatID), m.cfg.Timing, game.WithSignupsRefreshDelay(m.cfg.SignupsRefreshDelay))
	g.Initialize(format, variant)
	g.SetHost(host, noControlPanel)
	m.Activate(chatID, g)
	g.Signups()
	log.Info().Int64("chat_id", chatID).Int64("host_id", host.ID).Str("format", format.ID).Msg("Hosted game created")
	return g, nil
}

// RestartHosted reopens signups of the hosted game under a new format.
func (m *SessionManager) RestartHosted(chatID int64, input string, requester game.Identity) (*userhosted.Game, error) {
	g, ok := m.Hosted(chatID)
	if !ok {
		return nil, ErrNoGame
	}
	if !g.IsHost(requester) {
		return nil, ErrNotHost
	}
	format, variant, err := m.cfg.Hosted.Parse(input)
	if err != nil {
		return nil, err
	}
	g.Restart(format, variant)
	return g, nil
}

// Dispatch offers a command to the sessions of chatID, scripted first.
// Returns whether a session accepted it.
func (m *SessionManager) Dispatch(chatID int64, caller game.Identity, isPM bool, command, target string) bool {
	for _, kind := range []game.Kind{game.KindScripted, game.KindUserHosted} {
		s, ok := m.Current(chatID, kind)
		if !ok || s.Ended() {
			continue
		}
		if s.TryCommand(target, isPM, caller, command) {
			return true
		}
	}
	return false
}

// Join adds caller to the session of kind in chatID.
func (m *SessionManager) Join(chatID int64, kind game.Kind, caller game.Identity) error {
	s, ok := m.Current(chatID, kind)
	if !ok || s.Ended() {
		return ErrNoGame
	}
	s.AddPlayer(caller)
	return nil
}

// Leave removes caller from the session of kind in chatID.
func (m *SessionManager) Leave(chatID int64, kind game.Kind, caller game.Identity) error {
	s, ok := m.Current(chatID, kind)
	if !ok || s.Ended() {
		return ErrNoGame
	}
	s.RemovePlayer(caller, false)
	return nil
}

// EndGame force-ends the session of kind in chatID.
func (m *SessionManager) EndGame(chatID int64, kind game.Kind, initiator game.Identity, reason string) error {
	s, ok := m.Current(chatID, kind)
	if !ok {
		return ErrNoGame
	}
	s.ForceEnd(initiator, reason)
	return nil
}

// Shutdown force-ends every session and cancels pending auto-creates.
func (m *SessionManager) Shutdown() {
	m.mu.Lock()
	m.closed = true
	for key, t := range m.autoCreate {
		t.Stop()
		delete(m.autoCreate, key)
	}
	keys := lo.Keys(m.slots)
	m.mu.Unlock()

	initiator := game.Identity{Name: "the bot"}
	for _, key := range keys {
		m.locks.Do(key.chatID, func() {
			if s, ok := m.Current(key.chatID, key.kind); ok {
				s.ForceEnd(initiator, "")
			}
		})
	}
	log.Info().Int("sessions", len(keys)).Msg("All game sessions ended")
}
