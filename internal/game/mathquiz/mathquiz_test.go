package mathquiz

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"room-game-bot/internal/game"
	"room-game-bot/internal/game/gametest"
)

func newQuizGame(t *testing.T, env *gametest.Env, input string) (*game.Game, *quiz) {
	t.Helper()
	reg := game.NewRegistry()
	require.NoError(t, reg.Register(Format))
	format, variant, err := reg.Parse(input)
	require.NoError(t, err)

	g := game.New(env.Deps(), game.WithSeed(42))
	g.Initialize(format, variant)
	g.SetShiny(false)
	env.Slots.Activate(env.Room.ID(), g)
	g.Signups()

	q, ok := g.Rules().(*quiz)
	require.True(t, ok)
	return g, q
}

func TestQuizToPointGoal(t *testing.T) {
	env := gametest.NewEnv()
	alice, bob := env.User(1, "alice"), env.User(2, "bob")
	g, q := newQuizGame(t, env, "mq, points=3")
	assert.Equal(t, "Math Quiz (first to 3)", g.Name())

	require.NotNil(t, g.AddPlayer(alice))
	require.NotNil(t, g.AddPlayer(bob))
	require.True(t, g.Start(false))
	require.NotEmpty(t, q.answer)
	assert.Equal(t, 1, g.Round())

	assert.False(t, g.TryCommand("wrong", false, alice, "g"))
	for i := 1; i <= 2; i++ {
		require.True(t, g.TryCommand(q.answer, false, alice, "guess"))
		assert.Empty(t, q.answer, "the answer is cleared once guessed")
		assert.False(t, g.TryCommand("1", false, bob, "g"), "no question between rounds")
		env.Clock.Advance(answeredDelay)
		assert.Equal(t, i+1, g.Round())
	}
	assert.True(t, env.Room.Saw("Correct! alice advances to 2 points."))

	require.True(t, g.TryCommand(" "+q.answer+" ", false, alice, "g"))
	assert.True(t, env.Room.Saw("Correct! alice wins the game!"))
	assert.True(t, g.Deallocated())

	assert.Equal(t, int64(game.JoinCredits+3*game.DefaultWinnerPointsToCredits), env.Ledger.Balance(game.LeaderboardCredits, alice.ID))
	assert.Equal(t, int64(game.JoinCredits), env.Ledger.Balance(game.LeaderboardCredits, bob.ID))
	require.Len(t, env.Ledger.History[1], 1)
	assert.Equal(t, []string{"alice"}, env.Ledger.History[1][0].Winners)
	assert.Equal(t, "mq, points=3", env.Ledger.History[1][0].InputTarget)
}

func TestQuizSkipNeedsEveryone(t *testing.T) {
	env := gametest.NewEnv()
	alice, bob, carol := env.User(1, "alice"), env.User(2, "bob"), env.User(3, "carol")
	g, q := newQuizGame(t, env, "mathquiz")
	g.AddPlayer(alice)
	g.AddPlayer(bob)
	require.True(t, g.Start(false))
	answer := q.answer

	assert.True(t, g.TryCommand("", false, alice, "skip"))
	assert.False(t, g.TryCommand("", false, alice, "skip"), "one vote per player")
	assert.False(t, g.TryCommand("", false, carol, "skip"), "spectators cannot vote")
	assert.Equal(t, 1, g.Round())

	assert.True(t, g.TryCommand("", false, bob, "skip"))
	assert.True(t, env.Room.Saw("Everyone voted to skip! The answer was "+answer+"."))
	assert.Equal(t, 2, g.Round())
}

func TestQuizSkipFollowsLeaves(t *testing.T) {
	env := gametest.NewEnv()
	alice, bob, carol := env.User(1, "alice"), env.User(2, "bob"), env.User(3, "carol")
	g, _ := newQuizGame(t, env, "mathquiz")
	for _, u := range []game.Identity{alice, bob, carol} {
		g.AddPlayer(u)
	}
	require.True(t, g.Start(false))

	require.True(t, g.TryCommand("", false, alice, "skip"))
	require.True(t, g.TryCommand("", false, bob, "skip"))
	g.RemovePlayer(carol, true)
	assert.True(t, env.Room.Saw("Everyone voted to skip!"))
	assert.Equal(t, 2, g.Round())
}

func TestQuizTimeUpAndMaxRound(t *testing.T) {
	env := gametest.NewEnv()
	g, _ := newQuizGame(t, env, "mathquiz, sprint")
	g.AddPlayer(env.User(1, "alice"))
	g.AddPlayer(env.User(2, "bob"))
	require.True(t, g.Start(false))

	env.Clock.Advance(roundTime)
	assert.True(t, env.Room.Saw("Time is up! The answer was"))
	assert.Equal(t, 2, g.Round())

	env.Clock.Advance(4 * roundTime)
	assert.True(t, g.Deallocated())
	assert.True(t, env.Room.Saw("No winners this game!"))
	require.Len(t, env.Ledger.History[1], 1)
	assert.Empty(t, env.Ledger.History[1][0].Winners)
}

func TestQuizMaxRoundPicksLeaders(t *testing.T) {
	env := gametest.NewEnv()
	alice, bob := env.User(1, "alice"), env.User(2, "bob")
	g, q := newQuizGame(t, env, "mathquiz, sprint")
	g.AddPlayer(alice)
	g.AddPlayer(bob)
	require.True(t, g.Start(false))

	require.True(t, g.TryCommand(q.answer, false, bob, "g"))
	env.Clock.Advance(time.Hour)

	assert.True(t, g.Deallocated())
	assert.Equal(t, []string{"bob"}, env.Ledger.History[1][0].Winners)
}

func TestOpenQuizIsFreeJoin(t *testing.T) {
	env := gametest.NewEnv()
	alice := env.User(1, "alice")
	g, q := newQuizGame(t, env, "mathquiz, open")

	assert.True(t, g.Started())
	assert.Nil(t, g.AddPlayer(alice))
	env.Clock.Advance(answeredDelay)
	require.NotEmpty(t, q.answer)

	require.True(t, g.TryCommand(q.answer, false, alice, "g"))
	p, ok := g.Roster().Get(alice.ID)
	require.True(t, ok, "free-join players are added when they score")
	assert.Equal(t, 1, g.Points().Get(p))
	summary, ok := g.PlayerSummary(p)
	require.True(t, ok)
	assert.Equal(t, "alice: 1 point", summary)
}

func TestCalculate(t *testing.T) {
	assert.Equal(t, 9, Calculate(OpAdd, []int{2, 3, 4}))
	assert.Equal(t, 3, Calculate(OpSubtract, []int{10, 4, 3}))
	assert.Equal(t, 24, Calculate(OpMultiply, []int{2, 3, 4}))
	assert.Equal(t, 4, Calculate(OpDivide, []int{48, 12}))
}

// TestQuestionProperty tests that the printed problem evaluates to the answer,
// that subtraction never goes negative and that division is exact.
func TestQuestionProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		rng := game.NewRand(rapid.Int64().Draw(t, "seed"))
		op := rapid.SampledFrom(operations).Draw(t, "op")
		operands := rapid.IntRange(0, 6).Draw(t, "operands")

		text, answer := Question(rng, op, operands)
		expr, ok := strings.CutSuffix(text, " = ?")
		if !ok {
			t.Fatalf("Malformed question %q", text)
		}
		var values []int
		for _, s := range strings.Split(expr, " "+operationSymbols[op]+" ") {
			v, err := strconv.Atoi(s)
			if err != nil {
				t.Fatalf("Malformed operand %q in %q", s, text)
			}
			values = append(values, v)
		}
		if len(values) < 2 {
			t.Fatalf("Expected at least two operands in %q", text)
		}
		if got := Calculate(op, values); got != answer {
			t.Fatalf("%q evaluates to %d, answer was %d", text, got, answer)
		}
		if op == OpSubtract && answer < 0 {
			t.Fatalf("Negative answer for %q", text)
		}
		if op == OpDivide && values[0]%values[1] != 0 {
			t.Fatalf("Inexact division %q", text)
		}
	})
}

func TestSampleOperationAvoidsLast(t *testing.T) {
	rng := game.NewRand(7)
	for i := 0; i < 50; i++ {
		assert.NotEqual(t, OpDivide, SampleOperation(rng, OpDivide))
	}
}

func TestGenerateHint(t *testing.T) {
	hint, answers := Format.GenerateHint(game.NewRand(3))
	require.Len(t, answers, 1)
	assert.True(t, strings.HasSuffix(hint, " = ?"))
	_, err := strconv.Atoi(answers[0])
	assert.NoError(t, err)
}
