// Package repository provides data access layer implementations.
// Tests use testcontainers-go to spin up a PostgreSQL container.
package repository

import (
	"context"
	"fmt"
	"os/exec"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"room-game-bot/internal/model"
	"room-game-bot/internal/pkg/db"
)

// checkDockerAvailable checks if Docker is available and running
func checkDockerAvailable() bool {
	cmd := exec.Command("docker", "info")
	err := cmd.Run()
	return err == nil
}

// setupTestDB creates a PostgreSQL container and returns a migrated connection pool.
// Skips the test if Docker is not available
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	if !checkDockerAvailable() {
		t.Skip("Docker is not available, skipping integration test")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	require.NoError(t, db.Migrate(ctx, pool))
	// migrations are idempotent
	require.NoError(t, db.Migrate(ctx, pool))

	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}

	return pool, cleanup
}

// ============================================================================
// UserRepository Tests
// ============================================================================

func TestUserRepository_Create(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewUserRepository(pool)
	ctx := context.Background()

	user, err := repo.Create(ctx, 12345, "testuser")
	require.NoError(t, err)
	assert.Equal(t, int64(12345), user.TelegramID)
	assert.Equal(t, "testuser", user.Username)
	assert.False(t, user.CreatedAt.IsZero())
}

func TestUserRepository_GetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewUserRepository(pool)
	ctx := context.Background()

	_, err := repo.Create(ctx, 12345, "testuser")
	require.NoError(t, err)

	user, err := repo.GetByID(ctx, 12345)
	require.NoError(t, err)
	assert.Equal(t, "testuser", user.Username)

	_, err = repo.GetByID(ctx, 99999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserRepository_GetByUsername(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewUserRepository(pool)
	ctx := context.Background()

	_, err := repo.Create(ctx, 12345, "TestUser")
	require.NoError(t, err)

	user, err := repo.GetByUsername(ctx, "@testuser")
	require.NoError(t, err)
	assert.Equal(t, int64(12345), user.TelegramID)

	_, err = repo.GetByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserRepository_GetOrCreate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewUserRepository(pool)
	ctx := context.Background()

	user, created, err := repo.GetOrCreate(ctx, 12345, "testuser")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(12345), user.TelegramID)

	// a changed username is refreshed
	user, created, err = repo.GetOrCreate(ctx, 12345, "renamed")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "renamed", user.Username)

	stored, err := repo.GetByID(ctx, 12345)
	require.NoError(t, err)
	assert.Equal(t, "renamed", stored.Username)
}

func TestUserRepository_UpdateUsername(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewUserRepository(pool)
	ctx := context.Background()

	_, err := repo.Create(ctx, 12345, "oldname")
	require.NoError(t, err)

	require.NoError(t, repo.UpdateUsername(ctx, 12345, "newname"))

	user, err := repo.GetByID(ctx, 12345)
	require.NoError(t, err)
	assert.Equal(t, "newname", user.Username)

	err = repo.UpdateUsername(ctx, 99999, "name")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserRepository_Exists(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewUserRepository(pool)
	ctx := context.Background()

	exists, err := repo.Exists(ctx, 12345)
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = repo.Create(ctx, 12345, "testuser")
	require.NoError(t, err)

	exists, err = repo.Exists(ctx, 12345)
	require.NoError(t, err)
	assert.True(t, exists)
}

// ============================================================================
// CreditRepository Tests
// ============================================================================

func TestCreditRepository_AddAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	users := NewUserRepository(pool)
	credits := NewCreditRepository(pool)
	ctx := context.Background()

	_, err := users.Create(ctx, 1, "alice")
	require.NoError(t, err)

	balance, err := credits.Get(ctx, 100, 1, "scriptedgame")
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)

	balance, err = credits.Add(ctx, 100, 1, "scriptedgame", 30, "mathquiz")
	require.NoError(t, err)
	assert.Equal(t, int64(30), balance)

	balance, err = credits.Add(ctx, 100, 1, "scriptedgame", -10, "mathquiz")
	require.NoError(t, err)
	assert.Equal(t, int64(20), balance)

	// deductions clamp at zero
	balance, err = credits.Add(ctx, 100, 1, "scriptedgame", -50, "mathquiz")
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)

	// boards and chats are independent
	_, err = credits.Add(ctx, 100, 1, "userhosted", 400, "userhosted")
	require.NoError(t, err)
	other, err := credits.Get(ctx, 200, 1, "userhosted")
	require.NoError(t, err)
	assert.Equal(t, int64(0), other)

	txs, err := NewTransactionRepository(pool).GetByUser(ctx, 100, 1, 10)
	require.NoError(t, err)
	assert.Len(t, txs, 4)
	assert.Equal(t, "userhosted", txs[0].Leaderboard)
}

func TestCreditRepository_Set(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	users := NewUserRepository(pool)
	credits := NewCreditRepository(pool)
	ctx := context.Background()

	_, err := users.Create(ctx, 1, "alice")
	require.NoError(t, err)
	_, err = credits.Add(ctx, 100, 1, "scriptedgame", 70, "mathquiz")
	require.NoError(t, err)

	require.NoError(t, credits.Set(ctx, 100, 1, "scriptedgame", 25))
	balance, err := credits.Get(ctx, 100, 1, "scriptedgame")
	require.NoError(t, err)
	assert.Equal(t, int64(25), balance)

	assert.ErrorIs(t, credits.Set(ctx, 100, 1, "scriptedgame", -1), ErrInsufficientCredits)

	txs, err := NewTransactionRepository(pool).GetByUser(ctx, 100, 1, 10)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, model.CategoryAdminSet, txs[0].Category)
	assert.Equal(t, int64(-45), txs[0].Amount)
}

func TestCreditRepository_Top(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	users := NewUserRepository(pool)
	credits := NewCreditRepository(pool)
	ctx := context.Background()

	for i, name := range []string{"user1", "user2", "user3"} {
		_, err := users.Create(ctx, int64(i+1), name)
		require.NoError(t, err)
	}
	_, _ = credits.Add(ctx, 100, 1, "scriptedgame", 3000, "mathquiz")
	_, _ = credits.Add(ctx, 100, 2, "scriptedgame", 1000, "mathquiz")
	_, _ = credits.Add(ctx, 100, 3, "scriptedgame", 5000, "mathquiz")
	_, _ = credits.Add(ctx, 200, 2, "scriptedgame", 9000, "mathquiz")

	ranks, err := credits.Top(ctx, 100, "scriptedgame", 10)
	require.NoError(t, err)
	require.Len(t, ranks, 3)
	assert.Equal(t, int64(3), ranks[0].UserID)
	assert.Equal(t, int64(1), ranks[1].UserID)
	assert.Equal(t, int64(2), ranks[2].UserID)
	assert.Equal(t, "user3", ranks[0].Username)
}

// ============================================================================
// TransactionRepository Tests
// ============================================================================

func TestTransactionRepository_Create(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	userRepo := NewUserRepository(pool)
	txRepo := NewTransactionRepository(pool)
	ctx := context.Background()

	_, err := userRepo.Create(ctx, 12345, "testuser")
	require.NoError(t, err)

	desc := "test transaction"
	tx, err := txRepo.Create(ctx, &model.Transaction{
		ChatID:      100,
		UserID:      12345,
		Leaderboard: "scriptedgame",
		Amount:      500,
		Category:    "mathquiz",
		Description: &desc,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(12345), tx.UserID)
	assert.Equal(t, int64(500), tx.Amount)
	assert.Equal(t, "mathquiz", tx.Category)
	require.NotNil(t, tx.Description)
	assert.Equal(t, "test transaction", *tx.Description)
	assert.False(t, tx.CreatedAt.IsZero())
}

func TestTransactionRepository_GetDailyEarners(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	userRepo := NewUserRepository(pool)
	txRepo := NewTransactionRepository(pool)
	ctx := context.Background()

	_, _ = userRepo.Create(ctx, 1, "earner1")
	_, _ = userRepo.Create(ctx, 2, "earner2")
	_, _ = userRepo.Create(ctx, 3, "admin")

	now := time.Now()
	create := func(userID, amount int64, category string, at time.Time) {
		_, err := txRepo.Create(ctx, &model.Transaction{
			ChatID: 100, UserID: userID, Leaderboard: "scriptedgame",
			Amount: amount, Category: category, CreatedAt: at,
		})
		require.NoError(t, err)
	}
	create(1, 40, "mathquiz", now)
	create(1, -10, "mathquiz", now)
	create(2, 50, "userhosted", now)
	create(3, 1000, model.CategoryAdminAdd, now)
	create(2, 500, "mathquiz", now.Add(-48*time.Hour))

	earners, err := txRepo.GetDailyEarners(ctx, 100, now, 10)
	require.NoError(t, err)
	require.Len(t, earners, 2)
	assert.Equal(t, int64(2), earners[0].UserID)
	assert.Equal(t, int64(50), earners[0].Earned)
	assert.Equal(t, int64(1), earners[1].UserID)
	assert.Equal(t, int64(30), earners[1].Earned)
}

// ============================================================================
// HistoryRepository Tests
// ============================================================================

func TestHistoryRepository_AppendEvictsOldest(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewHistoryRepository(pool)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		err := repo.Append(ctx, &model.GameRecord{
			ChatID:    100,
			Kind:      "scripted",
			FormatID:  "mathquiz",
			Name:      fmt.Sprintf("Math Quiz %d", i),
			StartedAt: base.Add(time.Duration(i) * time.Hour),
			EndedAt:   base.Add(time.Duration(i)*time.Hour + 10*time.Minute),
			Players:   []string{"alice", "bob"},
			Winners:   []string{"alice"},
		}, 3)
		require.NoError(t, err)
	}
	err := repo.Append(ctx, &model.GameRecord{
		ChatID: 100, Kind: "userhosted", FormatID: "ghost", Name: "Bob's Ghost",
		StartedAt: base, EndedAt: base,
	}, 3)
	require.NoError(t, err)

	records, err := repo.List(ctx, 100, "scripted")
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "Math Quiz 4", records[0].Name)
	assert.Equal(t, "Math Quiz 2", records[2].Name)
	assert.Equal(t, []string{"alice"}, records[0].Winners)

	all, err := repo.List(ctx, 100, "")
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

// ============================================================================
// HostStatRepository Tests
// ============================================================================

func TestHostStatRepository_AppendAndList(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewHostStatRepository(pool)
	ctx := context.Background()
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	stat := &model.HostStat{
		ChatID:              100,
		HostID:              7,
		Format:              "Ghost",
		StartingPlayerCount: 6,
		EndingPlayerCount:   2,
		StartTime:           start,
		EndTime:             start.Add(20 * time.Minute),
		Winners:             []int64{1, 2},
	}
	require.NoError(t, repo.Append(ctx, stat))
	assert.NotZero(t, stat.ID)
	require.NoError(t, repo.Append(ctx, &model.HostStat{
		ChatID: 100, HostID: 7, Format: "Spyfall",
		StartTime: start.Add(time.Hour), EndTime: start.Add(2 * time.Hour),
	}))

	stats, err := repo.ListByHost(ctx, 100, 7, 10)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, "Spyfall", stats[0].Format)
	assert.Equal(t, []int64{1, 2}, stats[1].Winners)

	count, err := repo.CountByHost(ctx, 100, 7)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = repo.CountByHost(ctx, 100, 8)
	require.NoError(t, err)
	assert.Zero(t, count)
}
