// Package userhosted implements sessions paced by a human host instead of
// automated round logic.
package userhosted

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"room-game-bot/internal/game"
)

// Host errors. They carry user-facing text and leave the session unchanged.
var (
	ErrAlreadyExtended  = errors.New("the game cannot be extended more than once")
	ErrExtendTooEarly   = errors.New("too early to extend the game")
	ErrInvalidExtension = errors.New("invalid extension time")
	ErrInvalidTeams     = errors.New("invalid team count")
	ErrNotPlayer        = errors.New("user is not a player in this game")
	ErrNoWinners        = errors.New("no winners were given")
	ErrNoPoints         = errors.New("no player has any points")
	ErrGameEnded        = errors.New("the game has already ended")
)

// Ranked bonus per host difficulty tier.
var hostBonus = map[game.Difficulty]int64{
	game.DifficultyEasy:   300,
	game.DifficultyMedium: 400,
	game.DifficultyHard:   500,
}

// DefaultMinPlayers is the roster required before a host can start a game
// that is not free-join.
const DefaultMinPlayers = 4

// Timing holds the deadline and extension settings of hosted games.
type Timing struct {
	TimeLimit           time.Duration
	FirstWarning        time.Duration
	SecondWarning       time.Duration
	MinExtension        time.Duration
	MaxExtension        time.Duration
	ForceEndCreateDelay time.Duration
}

// DefaultTiming returns the standard hosted game timing.
func DefaultTiming() Timing {
	return Timing{
		TimeLimit:           25 * time.Minute,
		FirstWarning:        5 * time.Minute,
		SecondWarning:       30 * time.Second,
		MinExtension:        time.Minute,
		MaxExtension:        2 * time.Minute,
		ForceEndCreateDelay: time.Minute,
	}
}

var timeLimitInitiator = game.Identity{Name: "the time limit"}

// Game is a host-driven session. It embeds the engine and acts as its own rules.
type Game struct {
	*game.Game

	timing   Timing
	endTime  time.Time
	extended bool

	host           game.Identity
	subHost        *game.Identity
	noControlPanel bool

	savedWinners   []game.Identity
	scoreCap       int
	storedMessages map[string]string
	twist          string
	teams          []*game.Team
}

// New creates an uninitialized hosted session.
func New(deps game.Deps, timing Timing, opts ...game.Option) *Game {
	g := &Game{timing: timing}
	opts = append(opts, game.WithKind(game.KindUserHosted))
	g.Game = game.New(deps, opts...)
	g.SetOuter(g)
	g.SetRules(g)
	return g
}

// Create builds a hosted session for format hosted by host and opens signups.
func Create(deps game.Deps, timing Timing, format *game.Format, variant *game.Variant, host game.Identity, noControlPanel bool) *Game {
	g := New(deps, timing)
	g.Initialize(format, variant)
	g.SetHost(host, noControlPanel)
	return g
}

// Initialize binds format and starts the hard deadline.
func (g *Game) Initialize(format *game.Format, variant *game.Variant) {
	g.Game.Initialize(format, variant)
	g.onInitialize()
}

func (g *Game) onInitialize() {
	g.endTime = g.Now().Add(g.timing.TimeLimit)
	g.EnsurePoints()
	if !g.FreeJoin() && g.Config().Format.MinPlayers == 0 {
		g.SetMinPlayers(DefaultMinPlayers)
	}
	g.SetViewBaseName("userhosted-" + g.Config().Format.ID + "-" + uuid.NewString()[:8])
}

// Commands implements game.Rules. Host actions are driven through methods.
func (g *Game) Commands() []game.Command {
	return nil
}

// Restart resets the session and reopens signups under format, keeping the
// host and any saved winners.
func (g *Game) Restart(format *game.Format, variant *game.Variant) {
	if !g.Started() || g.FreeJoin() {
		g.Deps().Room.ClearNotification("all")
	}
	g.Rebind(format, variant)
	g.scoreCap = 0
	g.storedMessages = nil
	g.twist = ""
	g.subHost = nil
	g.teams = nil
	g.onInitialize()
	g.SetHost(g.host, g.noControlPanel)
	g.Signups()
}

// SetHost sets the primary host and names the game after them.
func (g *Game) SetHost(host game.Identity, noControlPanel bool) {
	g.host = host
	g.SetName(host.Name + "'s " + g.Config().Name)
	g.noControlPanel = noControlPanel
	g.sendControlPanelButton()
}

// SetSubHost delegates hosting to user.
func (g *Game) SetSubHost(user game.Identity) {
	g.subHost = &user
	g.sendControlPanelButton()
}

// Host returns the primary host.
func (g *Game) Host() game.Identity { return g.host }

// SubHost returns the delegated host, if any.
func (g *Game) SubHost() (game.Identity, bool) {
	if g.subHost == nil {
		return game.Identity{}, false
	}
	return *g.subHost, true
}

// ActiveHost returns the sub-host when one is set, the primary host otherwise.
func (g *Game) ActiveHost() game.Identity {
	if g.subHost != nil {
		return *g.subHost
	}
	return g.host
}

// IsHost reports whether user may run privileged host actions.
func (g *Game) IsHost(user game.Identity) bool {
	return user.ID == g.host.ID || (g.subHost != nil && user.ID == g.subHost.ID)
}

func (g *Game) sendControlPanelButton() {
	if g.noControlPanel {
		return
	}
	g.SayTo(g.ActiveHost(), "To assist with your game, try using the Host Control Panel! "+
		"It lets you manage your game and generate hints. Use /panel in "+g.Deps().Room.Title()+" to open it.")
}

// EndTime returns the hard deadline.
func (g *Game) EndTime() time.Time { return g.endTime }

// Extended reports whether the one-time extension was used.
func (g *Game) Extended() bool { return g.extended }

// Extend pushes the deadline back by minutes. It can be used once, only within
// the final warning window.
func (g *Game) Extend(minutes float64, requester game.Identity) error {
	if g.Ended() {
		return ErrGameEnded
	}
	if g.extended {
		return ErrAlreadyExtended
	}
	if g.endTime.Sub(g.Now()) > g.timing.FirstWarning {
		return fmt.Errorf("%w: you cannot extend the game if there are more than %s remaining",
			ErrExtendTooEarly, durationText(g.timing.FirstWarning))
	}
	d := time.Duration(minutes * float64(time.Minute))
	if math.IsNaN(minutes) || d < g.timing.MinExtension || d > g.timing.MaxExtension {
		return fmt.Errorf("%w: you must specify an extension time between %s and %s",
			ErrInvalidExtension, durationText(g.timing.MinExtension), durationText(g.timing.MaxExtension))
	}

	g.endTime = g.endTime.Add(d)
	g.extended = true
	g.armSecondStage()

	extension := durationText(d)
	g.Say(g.ActiveHost().Name + " your game has been extended by " + extension + ".")
	if g.subHost == nil {
		g.Deps().Room.Modnote(requester.Name + " extended " + g.host.Name + "'s game by " + extension + ".")
	}
	return nil
}

func (g *Game) armSecondStage() {
	timers := g.Timers()
	timers.Cancel(game.TimerHostFirstWarning)
	timers.Cancel(game.TimerHostGame)
	timers.Set(game.TimerHostSecondWarning, g.endTime.Sub(g.Now())-g.timing.SecondWarning, func() {
		g.Say(g.ActiveHost().Name + " you have " + durationText(g.timing.SecondWarning) +
			" to declare the winner(s) with /win [winner] or /autowin [places]!")
		timers.Set(game.TimerHostGame, g.timing.SecondWarning, func() {
			g.Say(g.ActiveHost().Name + " your time is up!")
			g.ForceEnd(timeLimitInitiator, "time limit reached")
		})
	})
}

// Signups announces the game and arms the deadline warnings.
func (g *Game) Signups() {
	room := g.Deps().Room
	g.SetSignupsTime(g.Now())

	room.SayFormatted(game.ViewHostBox, g.hostBox())
	if !g.FreeJoin() {
		g.ShowSignupsView()
		room.PublishView(g.ViewName("signups"), g.SignupsView())
	}
	room.PublishView(g.ViewName("join-leave"), g.joinLeaveText())

	room.NotifyEligible("all", room.Title()+" user-hosted game", g.Name(), g.host.Name+" "+g.ID())
	g.SetNotifyRankSignups(true)

	g.Timers().Set(game.TimerHostFirstWarning, g.endTime.Sub(g.Now())-g.timing.FirstWarning, func() {
		g.Say(g.ActiveHost().Name + " there are " + durationText(g.timing.FirstWarning) + " remaining in the game!")
		g.armSecondStage()
	})

	if g.FreeJoin() {
		g.MarkStarted()
	}
}

// Start begins the game. Hosts override the minimum roster with override.
func (g *Game) Start(override bool) bool {
	if g.Started() || g.Ended() {
		return false
	}
	if g.MinPlayers() > 0 && !override && g.PlayerCount() < g.MinPlayers() {
		return false
	}
	g.Timers().Cancel(game.TimerAutoStart)
	g.Timers().Cancel(game.TimerSignupsRefresh)
	g.MarkStarted()

	room := g.Deps().Room
	room.ClearNotification("all")
	room.PublishView(g.ViewName("join-leave"), "The game has started! Signups are closed.")
	g.Say(fmt.Sprintf("%s is starting! Players (%d): %s", g.Name(), g.PlayerCount(), game.Names(g.Roster().Players())))
	return true
}

// SetStartTimer starts the game after d unless it started already.
func (g *Game) SetStartTimer(d time.Duration) {
	g.Timers().Set(game.TimerAutoStart, d, func() {
		if !g.Start(false) {
			g.Say("There are not enough players to start " + g.Name() + ".")
		}
	})
}

// SetGameTimer reminds the host after d.
func (g *Game) SetGameTimer(d time.Duration) {
	g.SetRoundTimer(d, func() {
		g.Say(g.ActiveHost().Name + ": time is up!")
	})
}

// GameTimerRemaining returns the time left on the host timer.
func (g *Game) GameTimerRemaining() time.Duration {
	return g.Timers().Remaining(game.TimerRound)
}

// AddPlayer adds user during signups.
func (g *Game) AddPlayer(user game.Identity) *game.Player {
	if g.FreeJoin() {
		g.NoticeOnce(g.JoinNotices(), user, "This game does not require you to join.")
		return nil
	}
	if g.Started() || g.Ended() {
		return nil
	}
	p := g.Roster().Create(user)
	if p == nil {
		return nil
	}
	if limit := g.PlayerCap(); limit > 0 && g.PlayerCount() > limit {
		g.Roster().Destroy(user.ID)
		return nil
	}
	g.NoticeOnce(g.JoinNotices(), user, "Thanks for joining "+g.Name()+"!")
	g.ScheduleSignupsRefresh()
	if limit := g.PlayerCap(); limit > 0 && g.PlayerCount() >= limit {
		g.Start(false)
	}
	return p
}

// RemovePlayer removes user from the roster.
func (g *Game) RemovePlayer(user game.Identity, silent bool) {
	p := g.Roster().Destroy(user.ID)
	if p == nil {
		return
	}
	if !silent {
		g.NoticeOnce(g.LeaveNotices(), user, "You have left "+g.Name()+". You will not receive any further signups messages.")
	}
	if g.FreeJoin() {
		return
	}
	if !g.Started() {
		g.ScheduleSignupsRefresh()
	}
}

// SignupsView implements game.SignupsViewHook.
func (g *Game) SignupsView() string {
	return fmt.Sprintf("Players (%d): %s", g.PlayerCount(), game.Names(g.Roster().Players()))
}

func (g *Game) hostBox() string {
	var b strings.Builder
	if m := g.Mascot(); m != "" {
		b.WriteString("[" + m + "] ")
	}
	b.WriteString(g.Name() + "\n" + g.Description())
	if g.twist != "" {
		b.WriteString("\nTwist: " + g.twist)
	}
	return b.String()
}

func (g *Game) joinLeaveText() string {
	if g.FreeJoin() {
		return "This game is free-join! Just take part in the chat."
	}
	return "Use /joingame to join or /leavegame to leave."
}

// SplitPlayers partitions the roster into n teams. Accumulated player points
// carry over into their team's total.
func (g *Game) SplitPlayers(n int, names []string) error {
	players := g.Roster().Remaining()
	if n < 2 || n > len(players) {
		return fmt.Errorf("%w: must be between 2 and %d", ErrInvalidTeams, len(players))
	}
	g.UnsplitPlayers()

	teams := make([]*game.Team, n)
	for i := range teams {
		name := fmt.Sprintf("Team %d", i+1)
		if i < len(names) && strings.TrimSpace(names[i]) != "" {
			name = strings.TrimSpace(names[i])
		}
		teams[i] = &game.Team{Name: name}
	}
	for i, p := range game.Shuffle(g.Rand(), players) {
		t := teams[i%n]
		t.Players = append(t.Players, p)
		t.Points += g.Points().Get(p)
		p.Team = t
	}
	g.teams = teams
	return nil
}

// UnsplitPlayers dissolves every team.
func (g *Game) UnsplitPlayers() {
	for _, t := range g.teams {
		for _, p := range t.Players {
			p.Team = nil
		}
	}
	g.teams = nil
}

// Teams returns the current teams.
func (g *Game) Teams() []*game.Team { return g.teams }

// AddPoints adds amount to user's score and returns the new total. In free-join
// games unknown users are added to the roster first.
func (g *Game) AddPoints(user game.Identity, amount int) (int, error) {
	p, err := g.player(user)
	if err != nil {
		return 0, err
	}
	total := g.Points().Add(p, amount)
	if p.Team != nil {
		p.Team.Points += amount
	}
	if g.scoreCap > 0 && total >= g.scoreCap {
		g.Say(p.Name + " has reached the score cap of " + fmt.Sprint(g.scoreCap) + "!")
	}
	return total, nil
}

func (g *Game) player(user game.Identity) (*game.Player, error) {
	if p, ok := g.Roster().Get(user.ID); ok {
		return p, nil
	}
	if !g.FreeJoin() {
		return nil, fmt.Errorf("%w: %s", ErrNotPlayer, user.Name)
	}
	return g.Roster().Create(user), nil
}

// SaveWinners remembers winners across restarts of the session.
func (g *Game) SaveWinners(users ...game.Identity) {
	for _, u := range users {
		if !lo.ContainsBy(g.savedWinners, func(w game.Identity) bool { return w.ID == u.ID }) {
			g.savedWinners = append(g.savedWinners, u)
		}
	}
}

// SavedWinners returns the saved winners.
func (g *Game) SavedWinners() []game.Identity {
	return append([]game.Identity(nil), g.savedWinners...)
}

// DeclareWinners records users and any saved winners as the winners and ends
// the game.
func (g *Game) DeclareWinners(users ...game.Identity) error {
	if g.Ended() {
		return ErrGameEnded
	}
	all := lo.UniqBy(append(append([]game.Identity(nil), g.savedWinners...), users...),
		func(u game.Identity) int64 { return u.ID })
	if len(all) == 0 {
		return ErrNoWinners
	}
	winners := make([]*game.Player, 0, len(all))
	for _, u := range all {
		p, ok := g.Roster().Get(u.ID)
		if !ok {
			p = g.Roster().Create(u)
		}
		winners = append(winners, p)
	}
	for _, p := range winners {
		g.Winners().Set(p, g.Points().Get(p))
	}
	g.AnnounceWinners()
	g.End()
	return nil
}

// AutoWin declares the top places players by points the winners and ends the game.
func (g *Game) AutoWin(places int) error {
	if g.Ended() {
		return ErrGameEnded
	}
	scored := lo.Filter(g.Points().Players(), func(p *game.Player, _ int) bool { return g.Points().Get(p) > 0 })
	if len(scored) == 0 {
		return ErrNoPoints
	}
	sort.SliceStable(scored, func(i, j int) bool { return g.Points().Get(scored[i]) > g.Points().Get(scored[j]) })
	if places < 1 {
		places = 1
	}
	cutoff := g.Points().Get(scored[min(places, len(scored))-1])
	ids := lo.Map(lo.Filter(scored, func(p *game.Player, _ int) bool { return g.Points().Get(p) >= cutoff }),
		func(p *game.Player, _ int) game.Identity { return p.Identity() })
	return g.DeclareWinners(ids...)
}

// StoreMessage keeps a host message under key.
func (g *Game) StoreMessage(key, message string) {
	if g.storedMessages == nil {
		g.storedMessages = make(map[string]string)
	}
	g.storedMessages[game.ToID(key)] = message
}

// StoredMessage returns the host message stored under key.
func (g *Game) StoredMessage(key string) (string, bool) {
	m, ok := g.storedMessages[game.ToID(key)]
	return m, ok
}

// SetTwist sets the twist shown in the host box.
func (g *Game) SetTwist(twist string) { g.twist = twist }

// Twist returns the twist.
func (g *Game) Twist() string { return g.twist }

// SetScoreCap announces players reaching limit points. Zero disables it.
func (g *Game) SetScoreCap(limit int) { g.scoreCap = limit }

// ScoreCap returns the score cap.
func (g *Game) ScoreCap() int { return g.scoreCap }

// End finishes the game, records host statistics and pays the host.
func (g *Game) End() {
	if g.Ended() {
		panic(game.ErrAlreadyEnded)
	}
	g.MarkEnded()

	deps := g.Deps()
	chatID := deps.Room.ID()
	now := g.Now()
	format := g.Config().Format

	if g.subHost == nil {
		deps.Ledger.HostStatAppend(chatID, game.HostStat{
			HostID:              g.host.ID,
			Format:              format.Name,
			InputTarget:         format.InputTarget,
			StartingPlayerCount: g.PlayerCount(),
			EndingPlayerCount:   len(g.Roster().Remaining()),
			StartTime:           g.SignupsTime(),
			EndTime:             now,
			Winners:             lo.Map(g.Winners().Players(), func(p *game.Player, _ int) int64 { return p.ID }),
		})
	}
	if g.RecordsHistory() {
		g.RecordHistory()
	}

	if !deps.Room.IsPrivate() {
		recipient := g.ActiveHost()
		deps.Ledger.CreditAward(chatID, game.LeaderboardHosting, recipient, 1, format.ID)
		if g.RoomSettings().Ranked {
			bonus := g.HostBonus()
			deps.Ledger.CreditAward(chatID, game.LeaderboardCredits, recipient, bonus, string(game.KindUserHosted))
			g.notifyHost(recipient, fmt.Sprintf("You were awarded %d credits! To see your total amount, use /bits. "+
				"Thanks for your efforts, we hope you host again soon!", bonus))
		}
	}

	g.Log().Info().Int64("host_id", g.host.ID).Int("winners", g.Winners().Len()).Msg("Hosted game ended")
	g.ScheduleCooldown()
	g.Deallocate(false)
}

// HostBonus returns the ranked bonus for the format's difficulty tier, halved
// when a sub-host ran the game.
func (g *Game) HostBonus() int64 {
	difficulty := game.DifficultyMedium
	if s := g.Deps().Settings; s != nil {
		if d := s.HostDifficulty(g.ID()); d != "" {
			difficulty = d
		}
	}
	bonus, ok := hostBonus[difficulty]
	if !ok {
		bonus = hostBonus[game.DifficultyMedium]
	}
	if g.subHost != nil {
		bonus /= 2
	}
	return bonus
}

func (g *Game) notifyHost(host game.Identity, text string) {
	users := g.Deps().Users
	if users == nil {
		return
	}
	u, ok := users.Resolve(host.Name)
	if !ok {
		return
	}
	g.SayTo(u, text)
}

// ForceEnd terminates the game without paying the host.
func (g *Game) ForceEnd(initiator game.Identity, reason string) {
	if g.Deallocated() {
		return
	}
	g.Say(g.Name() + " was forcibly ended!")
	note := g.Name() + " was forcibly ended by " + initiator.Name
	if reason != "" {
		note += " (" + reason + ")"
	}
	g.Deps().Room.Modnote(note)
	g.Log().Info().Int64("initiator", initiator.ID).Str("reason", reason).Msg("Hosted game forcibly ended")
	g.MarkEnded()
	g.Deallocate(true)
}

// OnDeallocate implements game.DeallocateHook.
func (g *Game) OnDeallocate(forceEnd bool) {
	deps := g.Deps()
	if !g.noControlPanel && deps.Panels != nil {
		deps.Panels.ClosePanel(deps.Room.ID(), g.ActiveHost().ID)
	}
	if forceEnd && g.RoomSettings().AutoCreateDelay > 0 && deps.Slots != nil {
		deps.Slots.ScheduleAutoCreate(deps.Room.ID(), game.KindUserHosted, g.timing.ForceEndCreateDelay)
	}
}

func durationText(d time.Duration) string {
	if d%time.Minute == 0 {
		m := int(d / time.Minute)
		if m == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", m)
	}
	if d < time.Minute {
		return fmt.Sprintf("%d seconds", int(d/time.Second))
	}
	return fmt.Sprintf("%.1f minutes", d.Minutes())
}
