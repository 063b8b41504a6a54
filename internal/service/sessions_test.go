package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"room-game-bot/internal/game"
	"room-game-bot/internal/game/gametest"
	"room-game-bot/internal/game/mathquiz"
	"room-game-bot/internal/game/userhosted"
)

// buzzer is a one-command game: the first player to /buzz after the start wins.
type buzzer struct {
	g *game.Game
}

var buzzerFormat = &game.Format{
	ID:         "buzzer",
	Name:       "Buzzer",
	Aliases:    []string{"bz"},
	MinPlayers: 2,
	NewRules:   func(g *game.Game) game.Rules { return &buzzer{g: g} },
}

func (b *buzzer) Commands() []game.Command {
	return []game.Command{{Name: "buzz", Handler: b.buzz}}
}

func (b *buzzer) buzz(ctx game.CommandContext) bool {
	if !b.g.Started() {
		return false
	}
	p, ok := b.g.Roster().Get(ctx.Caller.ID)
	if !ok {
		return false
	}
	b.g.Winners().Set(p, 1)
	b.g.End()
	return true
}

type testRooms struct {
	mu    sync.Mutex
	rooms map[int64]*gametest.Room
}

func (r *testRooms) Room(chatID int64) game.Room {
	return r.get(chatID)
}

func (r *testRooms) get(chatID int64) *gametest.Room {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[chatID]
	if !ok {
		room = gametest.NewRoom(chatID)
		r.rooms[chatID] = room
	}
	return room
}

type sessionEnv struct {
	m        *SessionManager
	clock    *gametest.Clock
	rooms    *testRooms
	ledger   *gametest.Ledger
	settings *gametest.Settings
	panels   *gametest.Panels
}

func newSessionEnv(t *testing.T) *sessionEnv {
	t.Helper()
	scripted := game.NewRegistry()
	require.NoError(t, scripted.Register(buzzerFormat))

	e := &sessionEnv{
		clock:    gametest.NewClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)),
		rooms:    &testRooms{rooms: make(map[int64]*gametest.Room)},
		ledger:   gametest.NewLedger(),
		settings: &gametest.Settings{Difficulties: make(map[string]game.Difficulty)},
		panels:   &gametest.Panels{},
	}
	e.m = NewSessionManager(
		SessionDeps{
			Rooms:    e.rooms,
			Ledger:   e.ledger,
			Users:    gametest.Users{},
			Settings: e.settings,
			Panels:   e.panels,
		},
		SessionConfig{
			Scripted: scripted,
			Hosted:   userhosted.NewRegistry(),
			Timing:   userhosted.DefaultTiming(),
		},
	)
	e.m.SetClock(func(int64) game.Clock { return e.clock })
	return e
}

var (
	alice = game.Identity{ID: 1, Name: "alice"}
	bob   = game.Identity{ID: 2, Name: "bob"}
	carol = game.Identity{ID: 3, Name: "carol"}
)

func TestScriptedGameLifecycle(t *testing.T) {
	e := newSessionEnv(t)

	g, err := e.m.CreateScripted(1, "bz")
	require.NoError(t, err)
	assert.Equal(t, "buzzer", g.ID())

	_, err = e.m.CreateScripted(1, "buzzer")
	assert.ErrorIs(t, err, ErrGameInProgress)

	require.NoError(t, e.m.Join(1, game.KindScripted, alice))
	require.NoError(t, e.m.Join(1, game.KindScripted, bob))
	assert.Equal(t, 2, g.PlayerCount())

	assert.False(t, e.m.Dispatch(1, alice, false, "buzz", ""), "commands before the start are rejected")
	require.True(t, g.Start(false))

	assert.False(t, e.m.Dispatch(1, carol, false, "buzz", ""), "non-players cannot buzz")
	assert.False(t, e.m.Dispatch(1, alice, false, "unknown", ""))
	assert.True(t, e.m.Dispatch(1, alice, false, "buzz", ""))

	_, ok := e.m.Scripted(1)
	assert.False(t, ok, "the slot is released when the game ends")
	require.Len(t, e.ledger.History[1], 1)
	assert.Equal(t, []string{"alice"}, e.ledger.History[1][0].Winners)

	_, err = e.m.CreateScripted(1, "buzzer")
	assert.NoError(t, err, "a new game can be created once the slot is free")
}

func TestCreateScriptedUnknownFormat(t *testing.T) {
	e := newSessionEnv(t)

	_, err := e.m.CreateScripted(1, "chess")
	assert.ErrorIs(t, err, game.ErrUnknownFormat)

	_, err = e.m.CreateScripted(1, "buzzer, nosuchvariant")
	assert.ErrorIs(t, err, game.ErrUnknownVariant)
}

func TestJoinLeaveWithoutGame(t *testing.T) {
	e := newSessionEnv(t)

	assert.ErrorIs(t, e.m.Join(1, game.KindScripted, alice), ErrNoGame)
	assert.ErrorIs(t, e.m.Leave(1, game.KindUserHosted, alice), ErrNoGame)
	assert.ErrorIs(t, e.m.EndGame(1, game.KindScripted, alice, ""), ErrNoGame)
}

func TestLeaveRemovesPlayer(t *testing.T) {
	e := newSessionEnv(t)
	g, err := e.m.CreateScripted(1, "buzzer")
	require.NoError(t, err)

	require.NoError(t, e.m.Join(1, game.KindScripted, alice))
	require.NoError(t, e.m.Leave(1, game.KindScripted, alice))
	assert.Zero(t, g.PlayerCount())
}

func TestSlotsAreIndependentPerChatAndKind(t *testing.T) {
	e := newSessionEnv(t)

	_, err := e.m.CreateScripted(1, "buzzer")
	require.NoError(t, err)
	_, err = e.m.CreateScripted(2, "buzzer")
	require.NoError(t, err)
	_, err = e.m.CreateHosted(1, "ghost", carol, false)
	require.NoError(t, err)

	_, ok := e.m.Scripted(1)
	assert.True(t, ok)
	_, ok = e.m.Scripted(2)
	assert.True(t, ok)
	h, ok := e.m.Hosted(1)
	require.True(t, ok)
	assert.Equal(t, carol, h.Host())
	_, ok = e.m.Hosted(2)
	assert.False(t, ok)
}

func TestHostedGameRestartAndEnd(t *testing.T) {
	e := newSessionEnv(t)

	g, err := e.m.CreateHosted(1, "ghost", carol, false)
	require.NoError(t, err)
	assert.Equal(t, "carol's Ghost", g.Name())

	_, err = e.m.CreateHosted(1, "hungergames", alice, false)
	assert.ErrorIs(t, err, ErrGameInProgress)

	_, err = e.m.RestartHosted(1, "hungergames", alice)
	assert.ErrorIs(t, err, ErrNotHost)

	g, err = e.m.RestartHosted(1, "hg", carol)
	require.NoError(t, err)
	assert.Equal(t, "hungergames", g.ID())
	assert.Equal(t, "carol's Hunger Games", g.Name())

	require.NoError(t, e.m.EndGame(1, game.KindUserHosted, alice, "test"))
	_, ok := e.m.Hosted(1)
	assert.False(t, ok)
	assert.Equal(t, []int64{carol.ID}, e.panels.Closed)
	assert.Contains(t, e.rooms.get(1).Modnotes[0], "test")
}

func TestRestartWithoutHostedGame(t *testing.T) {
	e := newSessionEnv(t)
	_, err := e.m.RestartHosted(1, "ghost", carol)
	assert.ErrorIs(t, err, ErrNoGame)
}

func TestAutoCreateAfterScriptedGame(t *testing.T) {
	e := newSessionEnv(t)
	e.settings.Room = game.RoomSettings{AutoCreateDelay: time.Minute}

	g, err := e.m.CreateScripted(1, "buzzer")
	require.NoError(t, err)
	require.NoError(t, e.m.Join(1, game.KindScripted, alice))
	require.NoError(t, e.m.Join(1, game.KindScripted, bob))
	require.True(t, g.Start(false))
	require.True(t, e.m.Dispatch(1, bob, false, "buzz", ""))

	assert.True(t, e.m.PendingAutoCreate(1, game.KindUserHosted))

	e.clock.Advance(time.Minute)
	assert.False(t, e.m.PendingAutoCreate(1, game.KindUserHosted))
	assert.True(t, e.rooms.get(1).Saw("hosted game slot is open"))
}

func TestAutoCreateScripted(t *testing.T) {
	e := newSessionEnv(t)

	e.m.ScheduleAutoCreate(1, game.KindScripted, time.Minute)
	e.clock.Advance(30 * time.Second)
	_, ok := e.m.Scripted(1)
	assert.False(t, ok)

	e.clock.Advance(30 * time.Second)
	g, ok := e.m.Scripted(1)
	require.True(t, ok)
	assert.Equal(t, "buzzer", g.ID())
}

// solve answers the last math problem shown in room.
func solve(t *testing.T, room *gametest.Room) string {
	t.Helper()
	require.NotEmpty(t, room.Formatted)
	lines := strings.Split(room.Formatted[len(room.Formatted)-1], "\n")
	expr, ok := strings.CutSuffix(lines[len(lines)-1], " = ?")
	require.True(t, ok, "no question on the board")

	for op, symbol := range map[mathquiz.Operation]string{
		mathquiz.OpAdd: " + ", mathquiz.OpSubtract: " - ", mathquiz.OpMultiply: " * ", mathquiz.OpDivide: " / ",
	} {
		parts := strings.Split(expr, symbol)
		if len(parts) < 2 {
			continue
		}
		values := make([]int, len(parts))
		for i, part := range parts {
			v, err := strconv.Atoi(part)
			require.NoError(t, err)
			values[i] = v
		}
		return strconv.Itoa(mathquiz.Calculate(op, values))
	}
	t.Fatalf("cannot solve %q", expr)
	return ""
}

func newMinigameEnv(t *testing.T) *sessionEnv {
	t.Helper()
	e := newSessionEnv(t)
	require.NoError(t, e.m.cfg.Scripted.Register(mathquiz.Format))
	return e
}

func TestMinigameSkipsSignupsAndRecordsNothing(t *testing.T) {
	e := newMinigameEnv(t)
	room := e.rooms.get(1)

	g, err := e.m.StartMinigame(1, "/QuickMath")
	require.NoError(t, err)
	assert.True(t, g.IsMiniGame())
	assert.Equal(t, 1, g.Round(), "the first round starts at once")
	assert.Empty(t, room.Views, "no signups view")
	assert.Empty(t, room.Notifications)
	assert.True(t, room.Saw("Use /g to answer the math problem!"))

	_, err = e.m.StartMinigame(1, "quickmath")
	assert.ErrorIs(t, err, ErrGameInProgress)

	assert.NoError(t, e.m.Join(1, game.KindScripted, alice))
	assert.Zero(t, g.PlayerCount(), "minigames take no signups")

	assert.False(t, e.m.Dispatch(1, alice, false, "g", "-1"))
	require.True(t, e.m.Dispatch(1, alice, false, "g", solve(t, room)))
	assert.True(t, room.Saw("Correct! alice solved it."))
	assert.True(t, g.Deallocated())

	_, ok := e.m.Scripted(1)
	assert.False(t, ok, "the slot is released")
	assert.Empty(t, e.ledger.History[1], "minigames record no history")
	assert.Empty(t, e.ledger.Awards, "minigames award no credits")

	_, err = e.m.StartMinigame(1, "quickmath")
	assert.NoError(t, err, "a minigame does not start the cooldown")
}

func TestMinigameTimesOutAfterOneRound(t *testing.T) {
	e := newMinigameEnv(t)
	room := e.rooms.get(1)

	g, err := e.m.StartMinigame(1, "quickmath")
	require.NoError(t, err)

	e.clock.Advance(time.Minute)
	assert.True(t, room.Saw("Time is up! The answer was"))
	assert.True(t, room.Saw("No winners this game!"))
	assert.True(t, g.Deallocated())
	assert.Equal(t, 1, g.Round())
	assert.Empty(t, e.ledger.History[1])
}

func TestMinigameWaitsForHalfTheCooldown(t *testing.T) {
	e := newMinigameEnv(t)
	e.settings.Room = game.RoomSettings{Cooldown: 4 * time.Minute}

	g, err := e.m.CreateScripted(1, "buzzer")
	require.NoError(t, err)
	require.NoError(t, e.m.Join(1, game.KindScripted, alice))
	require.NoError(t, e.m.Join(1, game.KindScripted, bob))
	require.True(t, g.Start(false))
	require.True(t, e.m.Dispatch(1, bob, false, "buzz", ""))
	assert.True(t, e.rooms.get(1).Saw("Minigames can be played in 2 minutes."))

	_, err = e.m.StartMinigame(1, "quickmath")
	assert.ErrorIs(t, err, ErrGameCooldown)
	e.clock.Advance(90 * time.Second)
	_, err = e.m.StartMinigame(1, "quickmath")
	assert.ErrorIs(t, err, ErrGameCooldown)

	e.clock.Advance(30 * time.Second)
	_, err = e.m.StartMinigame(1, "quickmath")
	assert.NoError(t, err)

	_, err = e.m.StartMinigame(2, "quickmath")
	assert.NoError(t, err, "the cooldown is per chat")
}

func TestStartMinigameUnknownCommand(t *testing.T) {
	e := newMinigameEnv(t)

	_, err := e.m.StartMinigame(1, "chess")
	assert.ErrorIs(t, err, ErrNoMinigame)
	_, err = e.m.StartMinigame(1, "buzzer")
	assert.ErrorIs(t, err, ErrNoMinigame, "formats without a minigame command")
	_, ok := e.m.Scripted(1)
	assert.False(t, ok)
}

func TestActivateCancelsPendingAutoCreate(t *testing.T) {
	e := newSessionEnv(t)

	e.m.ScheduleAutoCreate(1, game.KindScripted, time.Minute)
	g, err := e.m.CreateScripted(1, "buzzer")
	require.NoError(t, err)
	assert.False(t, e.m.PendingAutoCreate(1, game.KindScripted))

	e.clock.Advance(2 * time.Minute)
	current, ok := e.m.Scripted(1)
	require.True(t, ok)
	assert.Same(t, g, current)
}

func TestScheduleAutoCreateReplacesPending(t *testing.T) {
	e := newSessionEnv(t)

	e.m.ScheduleAutoCreate(1, game.KindScripted, time.Minute)
	e.m.ScheduleAutoCreate(1, game.KindScripted, 3*time.Minute)

	e.clock.Advance(2 * time.Minute)
	_, ok := e.m.Scripted(1)
	assert.False(t, ok)
	assert.True(t, e.m.PendingAutoCreate(1, game.KindScripted))

	e.clock.Advance(time.Minute)
	_, ok = e.m.Scripted(1)
	assert.True(t, ok)
}

func TestShutdownEndsEverything(t *testing.T) {
	e := newSessionEnv(t)

	_, err := e.m.CreateScripted(1, "buzzer")
	require.NoError(t, err)
	_, err = e.m.CreateHosted(2, "ghost", carol, false)
	require.NoError(t, err)
	e.m.ScheduleAutoCreate(3, game.KindScripted, time.Minute)

	e.m.Shutdown()

	_, ok := e.m.Scripted(1)
	assert.False(t, ok)
	_, ok = e.m.Hosted(2)
	assert.False(t, ok)
	assert.False(t, e.m.PendingAutoCreate(3, game.KindScripted))

	e.m.ScheduleAutoCreate(3, game.KindScripted, time.Minute)
	assert.False(t, e.m.PendingAutoCreate(3, game.KindScripted))
	e.clock.Advance(time.Hour)
	_, ok = e.m.Scripted(3)
	assert.False(t, ok)
}

func TestDoSerializesJoins(t *testing.T) {
	e := newSessionEnv(t)
	ctx := context.Background()

	var g *game.Game
	require.NoError(t, e.m.Do(ctx, 1, func() error {
		var err error
		g, err = e.m.CreateScripted(1, "buzzer")
		return err
	}))

	var wg sync.WaitGroup
	for i := int64(1); i <= 20; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			user := game.Identity{ID: id, Name: fmt.Sprintf("user%d", id)}
			assert.NoError(t, e.m.Do(ctx, 1, func() error {
				return e.m.Join(1, game.KindScripted, user)
			}))
		}(i)
	}
	wg.Wait()

	require.NoError(t, e.m.Do(ctx, 1, func() error {
		assert.Equal(t, 20, g.PlayerCount())
		return nil
	}))
}

func TestDoReturnsCallbackError(t *testing.T) {
	e := newSessionEnv(t)
	err := e.m.Do(context.Background(), 1, func() error {
		return e.m.Join(1, game.KindScripted, alice)
	})
	assert.ErrorIs(t, err, ErrNoGame)
}
