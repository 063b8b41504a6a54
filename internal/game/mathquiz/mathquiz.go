// Package mathquiz is a scripted question and answer game: each round players
// race to solve an arithmetic problem.
package mathquiz

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"room-game-bot/internal/game"
)

// Option names specific to the quiz.
const (
	OptionOperands = "operands"
)

const (
	baseOperands  = 2
	roundTime     = 30 * time.Second
	answeredDelay = 5 * time.Second
	freeJoinSkips = 3
)

// Operation is an arithmetic operation.
type Operation int

// Operations.
const (
	OpAdd Operation = iota
	OpSubtract
	OpMultiply
	OpDivide
)

var operationSymbols = map[Operation]string{
	OpAdd:      "+",
	OpSubtract: "-",
	OpMultiply: "*",
	OpDivide:   "/",
}

var operations = []Operation{OpAdd, OpSubtract, OpMultiply, OpDivide}

// Format is the quiz format.
var Format = &game.Format{
	ID:          "mathquiz",
	Name:        "Math Quiz",
	Description: "Players race to answer the given math problems! The first to reach the point goal wins.",
	Aliases:     []string{"mq", "math"},
	CanLateJoin: true,
	MinPlayers:  2,
	MaxRound:    20,
	Mascots:     []string{"Grumpig", "Alakazam", "Porygon"},
	UsesPoints:  true,
	CustomizableOptions: map[string]game.OptionBounds{
		game.OptionPoints: {Min: 3, Base: 5, Max: 20},
		OptionOperands:    {Min: 2, Base: baseOperands, Max: 4},
	},
	Variants: []game.Variant{
		{ID: "sprint", Name: "Math Quiz Sprint", MaxRound: 5},
		{ID: "open", Name: "Open Math Quiz", FreeJoin: true},
	},
	CommandDescriptions: []string{"/g [answer]", "/skip"},
	MinigameCommand:     "quickmath",
	MinigameDescription: "Use /g to answer the math problem!",
	NewRules:            newQuiz,
	GenerateHint: func(rng *rand.Rand) (string, []string) {
		q, answer := Question(rng, SampleOperation(rng, -1), baseOperands)
		return q, []string{strconv.Itoa(answer)}
	},
}

// Question builds a problem for op with the given number of operands and
// returns its text and answer. Division always has an integer answer.
func Question(rng *rand.Rand, op Operation, operands int) (string, int) {
	if operands < 2 {
		operands = 2
	}
	if op == OpMultiply || op == OpDivide {
		operands = 2
	}
	values := make([]int, operands)
	switch op {
	case OpAdd, OpSubtract:
		for i := range values {
			values[i] = rng.Intn(20) + 1
		}
		if op == OpSubtract {
			// keep the answer non-negative
			sum := 0
			for _, v := range values[1:] {
				sum += v
			}
			values[0] += sum
		}
	case OpMultiply:
		values[0] = rng.Intn(11) + 2
		values[1] = rng.Intn(11) + 2
	case OpDivide:
		divisor := rng.Intn(11) + 2
		values[0] = divisor * (rng.Intn(11) + 2)
		values[1] = divisor
	}

	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, " "+operationSymbols[op]+" ") + " = ?", Calculate(op, values)
}

// Calculate applies op left to right over operands.
func Calculate(op Operation, operands []int) int {
	result := operands[0]
	for _, x := range operands[1:] {
		switch op {
		case OpAdd:
			result += x
		case OpSubtract:
			result -= x
		case OpMultiply:
			result *= x
		case OpDivide:
			result /= x
		}
	}
	return result
}

// SampleOperation picks a random operation other than last. Pass -1 to allow any.
func SampleOperation(rng *rand.Rand, last Operation) Operation {
	op := game.SampleOne(rng, operations)
	for op == last {
		op = game.SampleOne(rng, operations)
	}
	return op
}

type quiz struct {
	g *game.Game

	lastOp   Operation
	question string
	answer   string
	skipped  map[int64]bool
}

func newQuiz(g *game.Game) game.Rules {
	return &quiz{g: g, lastOp: -1}
}

func (q *quiz) Commands() []game.Command {
	return []game.Command{
		{Name: "guess", Aliases: []string{"g"}, Handler: q.guess},
		{Name: "skip", Handler: q.skip},
	}
}

func (q *quiz) OnSignups() {
	if q.g.FreeJoin() {
		q.g.SetRoundTimer(answeredDelay, q.g.NextRound)
	}
}

func (q *quiz) OnStart() {
	q.g.NextRound()
}

func (q *quiz) OnNextRound() {
	op := SampleOperation(q.g.Rand(), q.lastOp)
	q.lastOp = op
	operands := q.g.Config().Option(OptionOperands)
	if operands == 0 {
		operands = baseOperands
	}
	question, answer := Question(q.g.Rand(), op, operands)
	q.question = question
	q.answer = strconv.Itoa(answer)
	q.skipped = make(map[int64]bool)

	q.g.Deps().Room.SayFormatted(game.ViewRound, q.g.RoundText("")+"\n"+question)

	skips := freeJoinSkips
	if !q.open() {
		skips = len(q.g.Roster().Remaining())
	}
	q.g.OnCommands([]string{"skip"}, game.CommandCountOptions{Max: skips, TrackRoster: !q.open()}, func(game.Identity) {
		q.reveal("Everyone voted to skip!")
	})
	q.g.SetRoundTimer(roundTime, func() {
		q.reveal("Time is up!")
	})
}

func (q *quiz) reveal(prefix string) {
	if q.g.Ended() {
		return
	}
	q.g.Say(prefix + " The answer was " + q.answer + ".")
	q.answer = ""
	q.g.OffCommands([]string{"skip"})
	if q.g.IsMiniGame() {
		q.g.End()
		return
	}
	q.g.NextRound()
}

// open reports whether anyone may answer without joining.
func (q *quiz) open() bool {
	return q.g.FreeJoin() || q.g.IsMiniGame()
}

func (q *quiz) player(caller game.Identity) (*game.Player, bool) {
	p, ok := q.g.Roster().Get(caller.ID)
	if ok {
		return p, !p.Eliminated
	}
	if !q.open() {
		return nil, false
	}
	return q.g.Roster().Create(caller), true
}

func (q *quiz) guess(ctx game.CommandContext) bool {
	if q.answer == "" || (!q.g.Started() && !q.g.IsMiniGame()) {
		return false
	}
	if strings.TrimSpace(ctx.Target) != q.answer {
		return false
	}
	p, ok := q.player(ctx.Caller)
	if !ok {
		return false
	}

	answer := q.answer
	q.answer = ""
	q.g.OffCommands([]string{"skip"})
	if q.g.IsMiniGame() {
		q.g.Say(fmt.Sprintf("Correct! %s solved it. The answer was %s.", p.Name, answer))
		q.g.Winners().Set(p, 1)
		q.g.End()
		return true
	}
	points := q.g.Points().Add(p, 1)
	goal := q.g.Config().Option(game.OptionPoints)
	if goal > 0 && points >= goal {
		q.g.Say(fmt.Sprintf("Correct! %s wins the game! The answer was %s.", p.Name, answer))
		q.g.Winners().Set(p, points)
		q.g.End()
		return true
	}
	q.g.Say(fmt.Sprintf("Correct! %s advances to %d point%s. The answer was %s.", p.Name, points, plural(points), answer))
	q.g.SetRoundTimer(answeredDelay, q.g.NextRound)
	return true
}

func (q *quiz) skip(ctx game.CommandContext) bool {
	if q.answer == "" || q.skipped[ctx.Caller.ID] {
		return false
	}
	if !q.open() {
		if p, ok := q.g.Roster().Get(ctx.Caller.ID); !ok || p.Eliminated {
			return false
		}
	}
	q.skipped[ctx.Caller.ID] = true
	return true
}

func (q *quiz) OnMaxRound() {
	best := 0
	q.g.Points().Each(func(_ *game.Player, points int) {
		if points > best {
			best = points
		}
	})
	if best == 0 {
		return
	}
	q.g.Points().Each(func(p *game.Player, points int) {
		if points == best {
			q.g.Winners().Set(p, points)
		}
	})
}

func (q *quiz) OnEnd() {
	q.g.AnnounceWinners()
	if q.g.Points().Len() > 0 {
		q.g.SettleScoreToCredits(0, 0)
	}
}

func (q *quiz) PlayerSummary(p *game.Player) string {
	points := q.g.Points().Get(p)
	return fmt.Sprintf("%s: %d point%s", p.Name, points, plural(points))
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
