package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"room-game-bot/internal/game"
	"room-game-bot/internal/model"
)

type ledgerEnv struct {
	users   *fakeUsers
	credits *fakeCredits
	history *fakeHistory
	hosts   *fakeHosts
	ledger  *LedgerService
}

func newLedgerEnv() *ledgerEnv {
	users := newFakeUsers()
	e := &ledgerEnv{
		users:   users,
		credits: newFakeCredits(users),
		history: &fakeHistory{},
		hosts:   &fakeHosts{},
	}
	e.ledger = NewLedgerService(e.users, e.credits, e.history, e.hosts)
	return e
}

func TestLedgerCreditAwardRegistersRecipient(t *testing.T) {
	e := newLedgerEnv()
	alice := game.Identity{ID: 5, Name: "alice"}

	e.ledger.CreditAward(-100, game.LeaderboardCredits, alice, 40, "mathquiz")

	require.Contains(t, e.users.users, int64(5))
	assert.Equal(t, "alice", e.users.users[5].Username)
	assert.Equal(t, int64(40), e.credits.balances[creditKey{-100, 5, "credits"}])
	require.Len(t, e.credits.adds, 1)
	assert.Equal(t, "mathquiz", e.credits.adds[0].category)
}

func TestLedgerCreditDeductNeverGoesNegative(t *testing.T) {
	e := newLedgerEnv()
	bob := game.Identity{ID: 6, Name: "bob"}

	e.ledger.CreditAward(-100, game.LeaderboardCredits, bob, 10, "mathquiz")
	e.ledger.CreditDeduct(-100, game.LeaderboardCredits, bob, 30, "penalty")

	assert.Equal(t, int64(0), e.credits.balances[creditKey{-100, 6, "credits"}])
	assert.Equal(t, int64(-30), e.credits.adds[1].amount)
}

func TestLedgerBoardsAreSeparate(t *testing.T) {
	e := newLedgerEnv()
	host := game.Identity{ID: 7, Name: "host"}

	e.ledger.CreditAward(-100, game.LeaderboardHosting, host, 1, "trivia")
	e.ledger.CreditAward(-100, game.LeaderboardCredits, host, 400, "userhosted")
	e.ledger.CreditAward(-200, game.LeaderboardCredits, host, 5, "userhosted")

	assert.Equal(t, int64(1), e.credits.balances[creditKey{-100, 7, "hosting"}])
	assert.Equal(t, int64(400), e.credits.balances[creditKey{-100, 7, "credits"}])
	assert.Equal(t, int64(5), e.credits.balances[creditKey{-200, 7, "credits"}])
}

func TestLedgerStoreErrorsAreDropped(t *testing.T) {
	e := newLedgerEnv()
	e.credits.err = errors.New("connection refused")
	e.history.err = errors.New("connection refused")

	assert.NotPanics(t, func() {
		e.ledger.CreditAward(-100, game.LeaderboardCredits, game.Identity{ID: 5, Name: "alice"}, 10, "mathquiz")
		e.ledger.HistoryAppend(-100, game.HistoryEntry{Kind: game.KindScripted}, 4)
	})
	assert.Empty(t, e.credits.adds)
	assert.Empty(t, e.history.records)

	e.users.err = errors.New("connection refused")
	e.credits.err = nil
	e.ledger.CreditAward(-100, game.LeaderboardCredits, game.Identity{ID: 5, Name: "alice"}, 10, "mathquiz")
	assert.Empty(t, e.credits.adds)
}

func TestLedgerHistoryAppend(t *testing.T) {
	e := newLedgerEnv()
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	e.ledger.HistoryAppend(-100, game.HistoryEntry{
		Kind:        game.KindScripted,
		FormatID:    "mathquiz",
		Name:        "Math Quiz",
		InputTarget: "mathquiz, sprint",
		StartedAt:   start,
		EndedAt:     start.Add(5 * time.Minute),
		Players:     []string{"alice", "bob"},
		Winners:     []string{"alice"},
	}, game.HistoryLimit)

	require.Len(t, e.history.records, 1)
	rec := e.history.records[0]
	assert.Equal(t, &model.GameRecord{
		ChatID:      -100,
		Kind:        "scripted",
		FormatID:    "mathquiz",
		Name:        "Math Quiz",
		InputTarget: "mathquiz, sprint",
		StartedAt:   start,
		EndedAt:     start.Add(5 * time.Minute),
		Players:     []string{"alice", "bob"},
		Winners:     []string{"alice"},
	}, rec)
	assert.Equal(t, game.HistoryLimit, e.history.max)
}

func TestLedgerHostStatAppend(t *testing.T) {
	e := newLedgerEnv()
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	e.ledger.HostStatAppend(-100, game.HostStat{
		HostID:              7,
		Format:              "Trivia",
		InputTarget:         "trivia",
		StartingPlayerCount: 6,
		EndingPlayerCount:   2,
		StartTime:           start,
		EndTime:             start.Add(20 * time.Minute),
		Winners:             []int64{5},
	})

	require.Len(t, e.hosts.stats, 1)
	stat := e.hosts.stats[0]
	assert.Equal(t, int64(-100), stat.ChatID)
	assert.Equal(t, int64(7), stat.HostID)
	assert.Equal(t, 6, stat.StartingPlayerCount)
	assert.Equal(t, 2, stat.EndingPlayerCount)
	assert.Equal(t, []int64{5}, stat.Winners)
}

func TestUserResolver(t *testing.T) {
	users := newFakeUsers()
	users.users[5] = &model.User{TelegramID: 5, Username: "Alice"}
	r := NewUserResolver(users)

	id, ok := r.Resolve("@alice")
	require.True(t, ok)
	assert.Equal(t, game.Identity{ID: 5, Name: "Alice"}, id)

	_, ok = r.Resolve("nobody")
	assert.False(t, ok)

	users.err = errors.New("connection refused")
	_, ok = r.Resolve("alice")
	assert.False(t, ok)
}
