package game

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Programmer errors. The engine panics with these; they are never returned.
var (
	ErrAlreadyInitialized = errors.New("game already initialized")
	ErrNotInitialized     = errors.New("game not initialized")
	ErrAlreadyEnded       = errors.New("game already ended")
	ErrSignupsOpened      = errors.New("signups already opened")
	ErrNoPointsMap        = errors.New("game has no points map")
)

// State is the lifecycle state of a session.
type State int

// Lifecycle states.
const (
	StateCreated State = iota
	StateSignups
	StateStarted
	StateEnded
	StateDeallocated
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateSignups:
		return "signups"
	case StateStarted:
		return "started"
	case StateEnded:
		return "ended"
	case StateDeallocated:
		return "deallocated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// DefaultSignupsRefreshDelay coalesces signups view refreshes.
const DefaultSignupsRefreshDelay = 2 * time.Second

// SignupsViewHook lets rules render the roster view refreshed during signups.
type SignupsViewHook interface {
	SignupsView() string
}

// Option configures a Game at construction.
type Option func(*Game)

// WithSeed seeds the session generator.
func WithSeed(seed int64) Option {
	return func(g *Game) { g.seed = seed }
}

// WithKind sets the slot kind the session occupies.
func WithKind(k Kind) Option {
	return func(g *Game) { g.kind = k }
}

// Internal marks a session that never announces itself or records history.
func Internal() Option {
	return func(g *Game) { g.internal = true }
}

// MiniGame marks a session that skips signups and starts rounds immediately.
func MiniGame() Option {
	return func(g *Game) { g.mini = true }
}

// WithSignupsRefreshDelay overrides the signups view debounce delay.
func WithSignupsRefreshDelay(d time.Duration) Option {
	return func(g *Game) { g.signupsRefreshDelay = d }
}

// Game is one running session in a room.
type Game struct {
	deps  Deps
	log   zerolog.Logger
	kind  Kind
	outer Session

	id          string
	name        string
	description string
	cfg         *Config
	rules       Rules
	fixedRules  Rules

	commands  *CommandTable
	listeners *Listeners
	timers    *Timers
	roster    *Roster
	points    *Scoreboard
	winners   *Scoreboard

	seed int64
	rng  *rand.Rand

	round       int
	maxRound    int
	minPlayers  int
	playerCap   int
	canLateJoin bool
	internal    bool
	mini        bool

	state       State
	initialized bool
	started     bool
	ended       bool
	deallocated bool
	startTime   time.Time
	signupsTime time.Time

	parent            *Game
	allowChildCredits bool
	subGameNumber     int

	mascot         string
	shiny          bool
	awardedCredits bool

	winnerRate float64
	loserRate  float64
	maxCredits int64

	showSignupsView     bool
	notifyRankSignups   bool
	signupsRefreshDelay time.Duration
	viewBaseName        string
	joinNotices         map[int64]bool
	leaveNotices        map[int64]bool
}

// New creates an uninitialized session bound to deps.
func New(deps Deps, opts ...Option) *Game {
	g := &Game{
		deps:                deps,
		kind:                KindScripted,
		log:                 log.Logger,
		roster:              NewRoster(),
		winners:             NewScoreboard(),
		signupsRefreshDelay: DefaultSignupsRefreshDelay,
		joinNotices:         make(map[int64]bool),
		leaveNotices:        make(map[int64]bool),
		seed:                deps.Clock.Now().UnixNano(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.outer = g
	g.rng = NewRand(g.seed)
	g.timers = NewTimers(deps.Clock)
	g.commands = NewCommandTable(nil)
	g.listeners = NewListeners(g.commands)
	return g
}

// SetOuter registers the value that embeds this Game, so slot bookkeeping
// refers to the embedding session.
func (g *Game) SetOuter(s Session) {
	g.outer = s
}

// SetRules fixes the rules used by Initialize instead of the format's NewRules.
func (g *Game) SetRules(r Rules) {
	g.fixedRules = r
}

// Initialize binds the session to format and optional variant. It may only be
// called once.
func (g *Game) Initialize(format *Format, variant *Variant) {
	if g.initialized {
		panic(ErrAlreadyInitialized)
	}
	g.initialized = true
	g.bind(Resolve(format, variant))
}

// Rebind resets the session to a fresh pre-signups state under a new format.
// Timers, listeners, roster and scores are discarded.
func (g *Game) Rebind(format *Format, variant *Variant) {
	if !g.initialized {
		panic(ErrNotInitialized)
	}
	g.timers.ClearAll()
	g.listeners.Clear()
	g.roster.Reset()
	g.winners.Clear()
	g.joinNotices = make(map[int64]bool)
	g.leaveNotices = make(map[int64]bool)
	g.round = 0
	g.started = false
	g.startTime = time.Time{}
	g.signupsTime = time.Time{}
	g.showSignupsView = false
	g.state = StateCreated
	g.bind(Resolve(format, variant))
}

func (g *Game) bind(cfg *Config) {
	format := cfg.Format
	g.cfg = cfg
	g.id = format.ID
	g.name = cfg.Name
	g.description = format.Description
	g.maxRound = cfg.MaxRound
	g.playerCap = format.MaxPlayers
	g.canLateJoin = format.CanLateJoin
	g.viewBaseName = string(g.kind) + "-" + format.ID

	g.minPlayers = format.MinPlayers
	if g.minPlayers == 0 {
		g.minPlayers = DefaultMinPlayers
	}
	if cfg.FreeJoin {
		g.minPlayers = 0
	}

	g.winnerRate = format.WinnerPointsToCredits
	if g.winnerRate == 0 {
		g.winnerRate = DefaultWinnerPointsToCredits
	}
	g.loserRate = format.LoserPointsToCredits
	if g.loserRate == 0 {
		g.loserRate = DefaultLoserPointsToCredits
	}
	g.maxCredits = format.MaxCredits
	if g.maxCredits == 0 {
		g.maxCredits = DefaultMaxCredits
	}

	g.points = nil
	if format.UsesPoints {
		g.points = NewScoreboard()
	}

	g.mascot = format.Mascot
	if g.mascot == "" && len(format.Mascots) > 0 {
		g.mascot = SampleOne(g.rng, format.Mascots)
	}
	g.shiny = g.mascot != "" && RollShiny(g.rng, 0)

	g.log = log.With().
		Int64("chat_id", g.deps.Room.ID()).
		Str("game", g.id).
		Str("kind", string(g.kind)).
		Logger()

	switch {
	case g.fixedRules != nil:
		g.rules = g.fixedRules
	case format.NewRules != nil:
		g.rules = format.NewRules(g)
	default:
		g.rules = noRules{}
	}
	g.commands = NewCommandTable(g.rules.Commands())
	g.listeners = NewListeners(g.commands)
}

// Signups opens signups.
func (g *Game) Signups() {
	if !g.initialized {
		panic(ErrNotInitialized)
	}
	if g.state != StateCreated {
		panic(ErrSignupsOpened)
	}
	g.state = StateSignups

	if !g.mini && !g.internal {
		g.showSignupsView = true
		g.deps.Room.PublishView(g.ViewName("signups"), g.signupsView())
		if g.kind == KindScripted {
			g.notifyRankSignups = true
			g.deps.Room.NotifyEligible("all", g.deps.Room.Title()+" scripted game", g.name, "scripted "+g.name)
		}
	}
	g.signupsTime = g.deps.Clock.Now()
	if g.shiny {
		g.Say(g.mascot + " is shiny so credits will be doubled!")
	}
	if h, ok := g.rules.(SignupsHook); ok {
		h.OnSignups()
	}

	if g.cfg.FreeJoin {
		g.MarkStarted()
	} else if !g.internal && !g.mini && g.kind == KindScripted {
		if delay := g.RoomSettings().AutoStartDelay; delay > 0 {
			g.timers.Set(TimerAutoStart, delay, func() {
				if g.Start(false) {
					return
				}
				g.timers.Set(TimerAutoStart, delay, func() {
					if !g.Start(false) {
						g.Say("Ending the game due to a lack of players.")
						g.Deallocate(false)
					}
				})
			})
		}
	}

	if g.mini {
		if desc := g.cfg.Format.MinigameDescription; desc != "" {
			g.Say(desc)
		}
		g.NextRound()
	}
}

// Start begins the session. It returns false when the roster is below the
// minimum and override is not set.
func (g *Game) Start(override bool) bool {
	if g.started || g.ended {
		return false
	}
	if g.minPlayers > 0 && !override && g.roster.Count() < g.minPlayers {
		return false
	}
	g.timers.Cancel(TimerAutoStart)
	if g.notifyRankSignups {
		g.deps.Room.ClearNotification("all")
	}
	g.MarkStarted()
	if g.showSignupsView {
		g.timers.Cancel(TimerSignupsRefresh)
		g.deps.Room.PublishView(g.ViewName("signups"), g.signupsView())
	}
	g.log.Info().Int("players", g.roster.Count()).Msg("Game started")
	if h, ok := g.rules.(StartHook); ok {
		h.OnStart()
	}
	return true
}

// MarkStarted flags the session as started now.
func (g *Game) MarkStarted() {
	g.started = true
	g.startTime = g.deps.Clock.Now()
	g.state = StateStarted
}

// NextRound advances the round counter. The counter is incremented before it
// is checked, so once the round limit is exceeded Round reports maxRound+1.
func (g *Game) NextRound() {
	g.timers.Cancel(TimerRound)
	g.round++
	if g.maxRound > 0 && g.round > g.maxRound {
		if h, ok := g.rules.(MaxRoundHook); ok {
			h.OnMaxRound()
		}
		if !g.ended {
			g.End()
		}
		return
	}
	if h, ok := g.rules.(NextRoundHook); ok {
		h.OnNextRound()
	}
}

// SetRoundTimer schedules fn as the round timer, replacing the previous one.
func (g *Game) SetRoundTimer(d time.Duration, fn func()) {
	g.timers.Set(TimerRound, d, fn)
}

// End finishes the session normally. Calling End twice is a programming error.
func (g *Game) End() {
	if g.ended {
		panic(ErrAlreadyEnded)
	}
	g.MarkEnded()
	if h, ok := g.rules.(EndHook); ok {
		h.OnEnd()
	}
	if g.RecordsHistory() {
		g.RecordHistory()
		g.ScheduleCooldown()
	}
	g.log.Info().Int("round", g.round).Int("winners", g.winners.Len()).Msg("Game ended")
	g.Deallocate(false)
}

// MarkEnded flags the session as ended.
func (g *Game) MarkEnded() {
	g.ended = true
	g.state = StateEnded
}

// RecordsHistory reports whether the outcome is persisted to the room history.
func (g *Game) RecordsHistory() bool {
	return !g.deps.Room.IsPrivate() && !g.mini && g.parent == nil && !g.internal
}

// RecordHistory appends the outcome to the room history.
func (g *Game) RecordHistory() {
	started := g.startTime
	if started.IsZero() {
		started = g.signupsTime
	}
	entry := HistoryEntry{
		Kind:        g.kind,
		FormatID:    g.id,
		Name:        g.name,
		InputTarget: g.cfg.Format.InputTarget,
		StartedAt:   started,
		EndedAt:     g.deps.Clock.Now(),
		Players:     playerNames(g.roster.Players()),
		Winners:     playerNames(g.winners.Players()),
	}
	g.deps.Ledger.HistoryAppend(g.deps.Room.ID(), entry, HistoryLimit)
}

// ScheduleCooldown announces the room cooldown and arms the auto-create timer
// for the other session kind.
func (g *Game) ScheduleCooldown() {
	rs := g.RoomSettings()
	if rs.Cooldown > 0 {
		minutes := rs.Cooldown.Minutes()
		g.Say(fmt.Sprintf("Game cooldown of %s minutes has started! Minigames can be played in %s minutes.",
			formatMinutes(minutes), formatMinutes(minutes/2)))
	}
	if rs.AutoCreateDelay > 0 && g.deps.Slots != nil {
		next := KindUserHosted
		if g.kind == KindUserHosted {
			next = KindScripted
		}
		g.deps.Slots.ScheduleAutoCreate(g.deps.Room.ID(), next, rs.AutoCreateDelay+rs.Cooldown)
	}
}

// Deallocate releases every resource the session owns. It is safe to call more
// than once; only the first call has effects.
func (g *Game) Deallocate(forceEnd bool) {
	if g.deallocated {
		return
	}
	g.deallocated = true

	cleared := g.timers.ClearAll()
	if (!g.started || g.FreeJoin()) && g.notifyRankSignups {
		g.deps.Room.ClearNotification("all")
	}
	g.ended = true
	g.listeners.Clear()
	if h, ok := g.rules.(DeallocateHook); ok {
		h.OnDeallocate(forceEnd)
	}

	chatID := g.deps.Room.ID()
	if g.deps.Slots != nil {
		g.deps.Slots.Release(chatID, g.outer)
	}
	if g.parent != nil {
		if g.deps.Slots != nil {
			g.deps.Slots.Activate(chatID, g.parent.outer)
		}
		if h, ok := g.parent.rules.(ChildEndHook); ok {
			h.OnChildEnd(g.winners)
		}
	}
	g.state = StateDeallocated
	g.log.Debug().Bool("force_end", forceEnd).Int("timers_cleared", cleared).Msg("Game deallocated")

	if h, ok := g.rules.(AfterDeallocateHook); ok {
		h.OnAfterDeallocate(forceEnd)
	}
}

// ForceEnd terminates the session outside its normal completion path.
func (g *Game) ForceEnd(initiator Identity, reason string) {
	if g.deallocated {
		return
	}
	g.Say("The " + g.name + " game was forcibly ended.")
	if reason != "" {
		g.deps.Room.Modnote(g.name + " was forcibly ended by " + initiator.Name + " (" + reason + ")")
	}
	if h, ok := g.rules.(ForceEndHook); ok {
		h.OnForceEnd(initiator)
	}
	g.log.Info().Int64("initiator", initiator.ID).Str("reason", reason).Msg("Game forcibly ended")
	g.MarkEnded()
	g.Deallocate(true)
}

// LaunchChild starts a child session that takes over the room slot until it
// deallocates, at which point this session is restored and notified.
func (g *Game) LaunchChild(format *Format, variant *Variant, opts ...Option) *Game {
	opts = append([]Option{WithSeed(g.rng.Int63()), WithKind(g.kind), WithSignupsRefreshDelay(g.signupsRefreshDelay)}, opts...)
	child := New(g.deps, opts...)
	child.parent = g
	g.subGameNumber++
	child.subGameNumber = g.subGameNumber
	child.Initialize(format, variant)
	if g.deps.Slots != nil {
		g.deps.Slots.Activate(g.deps.Room.ID(), child)
	}
	return child
}

// SetAllowChildCredits controls whether child sessions may award credits.
func (g *Game) SetAllowChildCredits(allow bool) {
	g.allowChildCredits = allow
}

// AddPlayer adds user to the roster and returns the new record, or nil when
// the join was not accepted.
func (g *Game) AddPlayer(user Identity) *Player {
	if g.FreeJoin() || g.mini {
		g.NoticeOnce(g.joinNotices, user, "This game does not require you to join.")
		return nil
	}
	if g.ended {
		return nil
	}
	p := g.roster.Create(user)
	if p == nil {
		return nil
	}
	overCap := g.playerCap > 0 && g.roster.Count() > g.playerCap
	rejected := overCap || (g.started && !g.canLateJoin)
	if !rejected {
		if h, ok := g.rules.(AddPlayerHook); ok && !h.OnAddPlayer(p, g.started) {
			rejected = true
		}
	}
	if rejected {
		g.roster.Destroy(user.ID)
		return nil
	}

	msg := "Thanks for joining the " + g.name + " game!"
	if g.kind == KindScripted && g.AddCredits(user, JoinCredits, true) {
		msg += " Have some free credits!"
	}
	g.NoticeOnce(g.joinNotices, user, msg)

	if g.showSignupsView && !g.started {
		g.ScheduleSignupsRefresh()
	}
	if g.started {
		g.listeners.AdjustRosterTracking(1)
	} else if g.playerCap > 0 && g.roster.Count() >= g.playerCap {
		g.Start(false)
	}
	return p
}

// RemovePlayer destroys the record for user.
func (g *Game) RemovePlayer(user Identity, silent bool) {
	if g.mini {
		return
	}
	p := g.roster.Destroy(user.ID)
	if g.FreeJoin() || p == nil {
		return
	}
	g.listeners.AdjustRosterTracking(-1)
	if h, ok := g.rules.(RemovePlayerHook); ok {
		h.OnRemovePlayer(p)
	}
	if g.kind == KindScripted {
		g.RemoveCredits(user, JoinCredits, true)
	}
	if !silent {
		g.NoticeOnce(g.leaveNotices, user, "You have left the "+g.name+" game.")
	}
	if g.showSignupsView && !g.started {
		g.ScheduleSignupsRefresh()
	}
}

// EliminatePlayer marks p as eliminated and tells them why.
func (g *Game) EliminatePlayer(p *Player, cause string) {
	p.Eliminated = true
	msg := "You have been eliminated from the game."
	if cause != "" {
		msg = cause + " " + msg
	}
	g.SayTo(p.Identity(), msg)
}

// NoticeOnce sends msg to user unless seen already holds them.
func (g *Game) NoticeOnce(seen map[int64]bool, user Identity, msg string) {
	if seen[user.ID] {
		return
	}
	seen[user.ID] = true
	g.SayTo(user, msg)
}

// JoinNotices returns the set of identities already greeted on join.
func (g *Game) JoinNotices() map[int64]bool {
	return g.joinNotices
}

// LeaveNotices returns the set of identities already notified on leave.
func (g *Game) LeaveNotices() map[int64]bool {
	return g.leaveNotices
}

// ScheduleSignupsRefresh coalesces roster changes into one delayed refresh of
// the signups view.
func (g *Game) ScheduleSignupsRefresh() {
	if g.timers.Pending(TimerSignupsRefresh) {
		return
	}
	g.timers.Set(TimerSignupsRefresh, g.signupsRefreshDelay, func() {
		g.deps.Room.PublishView(g.ViewName("signups"), g.signupsView())
	})
}

// TryCommand runs command for caller and counts it towards matching listeners.
// It reports whether the command was accepted.
func (g *Game) TryCommand(target string, isPM bool, caller Identity, command string) bool {
	if g.deallocated {
		return false
	}
	cmd, ok := g.commands.Lookup(command)
	if !ok {
		return false
	}
	if isPM {
		if !cmd.PMAllowed && !cmd.PMOnly {
			return false
		}
	} else if cmd.PMOnly {
		return false
	}
	if cmd.Handler != nil && !cmd.Handler(CommandContext{Target: target, IsPM: isPM, Caller: caller, Command: command}) {
		return false
	}
	g.listeners.Record(command, caller)
	return true
}

// OnCommands installs a threshold listener on names.
func (g *Game) OnCommands(names []string, opts CommandCountOptions, fn CommandListener) *CommandCounter {
	return g.listeners.On(names, opts, fn)
}

// OffCommands removes the listener on names.
func (g *Game) OffCommands(names []string) bool {
	return g.listeners.Off(names)
}

// RecordInvocation counts command by caller against the listeners.
func (g *Game) RecordInvocation(command string, caller Identity) int {
	return g.listeners.Record(command, caller)
}

// IncreaseOnCommandsMax raises the maximum of the listener on names.
func (g *Game) IncreaseOnCommandsMax(names []string, delta int) {
	g.listeners.IncreaseMax(g.listeners.Find(names), delta)
}

// DecreaseOnCommandsMax lowers the maximum of the listener on names, firing it
// when its count is reached.
func (g *Game) DecreaseOnCommandsMax(names []string, delta int) bool {
	return g.listeners.DecreaseMax(g.listeners.Find(names), delta)
}

// AnnounceWinners says who won.
func (g *Game) AnnounceWinners() {
	n := g.winners.Len()
	if n == 0 {
		g.Say("No winners this game!")
		return
	}
	label := "Winner"
	if n > 1 {
		label += "s"
	}
	g.deps.Room.SayFormatted(ViewWinners, label+": "+Names(g.winners.Players()))
}

// RoundText renders the round board. An empty roundText defaults to "Round N".
func (g *Game) RoundText(roundText string) string {
	var b strings.Builder
	b.WriteString(g.name)
	if g.subGameNumber > 0 {
		fmt.Fprintf(&b, " - Game %d", g.subGameNumber)
	}
	if roundText == "" {
		roundText = fmt.Sprintf("Round %d", g.round)
	}
	b.WriteString(" - " + roundText)
	remaining := g.roster.Remaining()
	if len(remaining) > 0 {
		label := "Remaining players"
		if g.FreeJoin() {
			label = "Players"
		}
		fmt.Fprintf(&b, "\n%s (%d): %s", label, len(remaining), g.PlayerPoints(remaining))
	}
	return b.String()
}

// PlayerPoints lists players with their points, when the session keeps any.
func (g *Game) PlayerPoints(players []*Player) string {
	parts := make([]string, 0, len(players))
	for _, p := range players {
		s := p.Name
		if g.points != nil {
			pts := g.points.Get(p)
			if pts == 0 && g.cfg != nil {
				pts = g.cfg.Format.StartingPoints
			}
			if pts != 0 {
				s += fmt.Sprintf(" (%d)", pts)
			}
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, ", ")
}

// PlayerSummary describes p through the rules' SummaryHook.
func (g *Game) PlayerSummary(p *Player) (string, bool) {
	h, ok := g.rules.(SummaryHook)
	if !ok {
		return "", false
	}
	return h.PlayerSummary(p), true
}

func (g *Game) signupsView() string {
	if h, ok := g.rules.(SignupsViewHook); ok {
		return h.SignupsView()
	}
	var b strings.Builder
	if g.mascot != "" {
		b.WriteString("[" + g.mascot + "] ")
	}
	b.WriteString(g.name + "\n" + g.description)
	if len(g.cfg.Format.CommandDescriptions) > 0 {
		b.WriteString("\nCommands: " + strings.Join(g.cfg.Format.CommandDescriptions, ", "))
	}
	if g.FreeJoin() {
		b.WriteString("\n\nThis game is free-join!")
		return b.String()
	}
	fmt.Fprintf(&b, "\n\nPlayers (%d): %s", g.roster.Count(), Names(g.roster.Players()))
	if g.started {
		b.WriteString("\n\nThe game has started!")
	} else {
		b.WriteString("\n\nUse /joingame to join.")
	}
	return b.String()
}

// Say posts text to the room.
func (g *Game) Say(text string) {
	g.deps.Room.Say(text)
}

// SayTo sends a direct notice to user.
func (g *Game) SayTo(user Identity, text string) {
	g.deps.Room.SayTo(user.ID, text)
}

// RoomSettings returns the settings of the hosting room.
func (g *Game) RoomSettings() RoomSettings {
	if g.deps.Settings == nil {
		return RoomSettings{}
	}
	return g.deps.Settings.RoomSettings(g.deps.Room.ID())
}

// ViewName returns the name of a view owned by this session.
func (g *Game) ViewName(suffix string) string {
	return g.viewBaseName + "-" + suffix
}

// SetViewBaseName overrides the prefix of the views this session publishes.
func (g *Game) SetViewBaseName(name string) {
	g.viewBaseName = name
}

// ShowSignupsView enables refreshing of the signups view.
func (g *Game) ShowSignupsView() {
	g.showSignupsView = true
}

// SetNotifyRankSignups records that a signups notification was sent.
func (g *Game) SetNotifyRankSignups(v bool) {
	g.notifyRankSignups = v
}

// SetSignupsTime records when signups opened.
func (g *Game) SetSignupsTime(t time.Time) {
	g.signupsTime = t
	if g.state == StateCreated {
		g.state = StateSignups
	}
}

// ID returns the format id of the session.
func (g *Game) ID() string { return g.id }

// Name returns the display name.
func (g *Game) Name() string { return g.name }

// SetName overrides the display name.
func (g *Game) SetName(name string) { g.name = name }

// Description returns the format description.
func (g *Game) Description() string { return g.description }

// SetDescription overrides the description.
func (g *Game) SetDescription(d string) { g.description = d }

// Kind returns the slot kind.
func (g *Game) Kind() Kind { return g.kind }

// State returns the lifecycle state.
func (g *Game) State() State { return g.state }

// Started reports whether the session started.
func (g *Game) Started() bool { return g.started }

// Ended reports whether the session ended.
func (g *Game) Ended() bool { return g.ended }

// Deallocated reports whether the session released its resources.
func (g *Game) Deallocated() bool { return g.deallocated }

// Round returns the current round.
func (g *Game) Round() int { return g.round }

// MaxRound returns the round limit, 0 when unbounded.
func (g *Game) MaxRound() int { return g.maxRound }

// MinPlayers returns the roster size required to start.
func (g *Game) MinPlayers() int { return g.minPlayers }

// SetMinPlayers overrides the roster size required to start.
func (g *Game) SetMinPlayers(n int) { g.minPlayers = n }

// PlayerCap returns the roster cap, 0 when uncapped.
func (g *Game) PlayerCap() int { return g.playerCap }

// SetPlayerCap overrides the roster cap.
func (g *Game) SetPlayerCap(n int) { g.playerCap = n }

// FreeJoin reports whether players take part without joining.
func (g *Game) FreeJoin() bool { return g.cfg != nil && g.cfg.FreeJoin }

// IsMiniGame reports whether the session is a single-round minigame.
func (g *Game) IsMiniGame() bool { return g.mini }

// Config returns the resolved format configuration.
func (g *Game) Config() *Config { return g.cfg }

// Rules returns the bound rules.
func (g *Game) Rules() Rules { return g.rules }

// Roster returns the participant registry.
func (g *Game) Roster() *Roster { return g.roster }

// PlayerCount returns the roster size.
func (g *Game) PlayerCount() int { return g.roster.Count() }

// Points returns the points map, nil when the format keeps none.
func (g *Game) Points() *Scoreboard { return g.points }

// EnsurePoints creates the points map when missing and returns it.
func (g *Game) EnsurePoints() *Scoreboard {
	if g.points == nil {
		g.points = NewScoreboard()
	}
	return g.points
}

// Winners returns the winners map.
func (g *Game) Winners() *Scoreboard { return g.winners }

// Rand returns the session generator.
func (g *Game) Rand() *rand.Rand { return g.rng }

// Seed returns the seed of the session generator.
func (g *Game) Seed() int64 { return g.seed }

// Timers returns the timer table.
func (g *Game) Timers() *Timers { return g.timers }

// Listeners returns the command listeners.
func (g *Game) Listeners() *Listeners { return g.listeners }

// Deps returns the collaborators.
func (g *Game) Deps() Deps { return g.deps }

// Log returns the session logger.
func (g *Game) Log() *zerolog.Logger { return &g.log }

// Parent returns the parent session of a child.
func (g *Game) Parent() *Game { return g.parent }

// Mascot returns the mascot name, empty when the format has none.
func (g *Game) Mascot() string { return g.mascot }

// Shiny reports whether the mascot is shiny.
func (g *Game) Shiny() bool { return g.shiny }

// SetShiny overrides the shiny roll.
func (g *Game) SetShiny(v bool) { g.shiny = v }

// StartTime returns when the session started.
func (g *Game) StartTime() time.Time { return g.startTime }

// SignupsTime returns when signups opened.
func (g *Game) SignupsTime() time.Time { return g.signupsTime }

// Now returns the session clock time.
func (g *Game) Now() time.Time { return g.deps.Clock.Now() }

func playerNames(players []*Player) []string {
	names := make([]string, 0, len(players))
	for _, p := range players {
		names = append(names, p.Name)
	}
	return names
}

func formatMinutes(m float64) string {
	if m == float64(int64(m)) {
		return fmt.Sprintf("%d", int64(m))
	}
	return fmt.Sprintf("%.1f", m)
}
