package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"room-game-bot/internal/model"
	"room-game-bot/internal/repository"
)

type fakeUsers struct {
	mu    sync.Mutex
	users map[int64]*model.User
	err   error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: make(map[int64]*model.User)}
}

func (f *fakeUsers) GetByID(_ context.Context, telegramID int64) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[telegramID]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUsers) GetByUsername(_ context.Context, username string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	name := strings.TrimPrefix(username, "@")
	for _, u := range f.users {
		if strings.EqualFold(u.Username, name) {
			return u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (f *fakeUsers) GetOrCreate(_ context.Context, telegramID int64, username string) (*model.User, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, false, f.err
	}
	if u, ok := f.users[telegramID]; ok {
		u.Username = username
		return u, false, nil
	}
	u := &model.User{TelegramID: telegramID, Username: username}
	f.users[telegramID] = u
	return u, true, nil
}

type creditKey struct {
	chatID int64
	userID int64
	board  string
}

type creditAdd struct {
	key      creditKey
	amount   int64
	category string
}

type fakeCredits struct {
	mu       sync.Mutex
	balances map[creditKey]int64
	adds     []creditAdd
	users    *fakeUsers
	err      error
}

func newFakeCredits(users *fakeUsers) *fakeCredits {
	return &fakeCredits{balances: make(map[creditKey]int64), users: users}
}

func (f *fakeCredits) Add(_ context.Context, chatID, userID int64, board string, amount int64, category string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	key := creditKey{chatID, userID, board}
	f.balances[key] = max(f.balances[key]+amount, 0)
	f.adds = append(f.adds, creditAdd{key, amount, category})
	return f.balances[key], nil
}

func (f *fakeCredits) Get(_ context.Context, chatID, userID int64, board string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	return f.balances[creditKey{chatID, userID, board}], nil
}

func (f *fakeCredits) Set(ctx context.Context, chatID, userID int64, board string, balance int64) error {
	current, err := f.Get(ctx, chatID, userID, board)
	if err != nil {
		return err
	}
	_, err = f.Add(ctx, chatID, userID, board, balance-current, model.CategoryAdminSet)
	return err
}

func (f *fakeCredits) Top(_ context.Context, chatID int64, board string, limit int) ([]*model.CreditRank, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var ranks []*model.CreditRank
	for key, balance := range f.balances {
		if key.chatID != chatID || key.board != board || balance <= 0 {
			continue
		}
		r := &model.CreditRank{UserID: key.userID, Balance: balance}
		if f.users != nil {
			if u, ok := f.users.users[key.userID]; ok {
				r.Username = u.Username
			}
		}
		ranks = append(ranks, r)
	}
	sort.Slice(ranks, func(i, j int) bool {
		if ranks[i].Balance == ranks[j].Balance {
			return ranks[i].UserID < ranks[j].UserID
		}
		return ranks[i].Balance > ranks[j].Balance
	})
	if len(ranks) > limit {
		ranks = ranks[:limit]
	}
	return ranks, nil
}

type fakeEarnings struct {
	chatID int64
	date   time.Time
	limit  int
	ranks  []*model.DailyRank
}

func (f *fakeEarnings) GetDailyEarners(_ context.Context, chatID int64, date time.Time, limit int) ([]*model.DailyRank, error) {
	f.chatID, f.date, f.limit = chatID, date, limit
	return f.ranks, nil
}

type fakeHistory struct {
	mu      sync.Mutex
	records []*model.GameRecord
	max     int
	err     error
}

func (f *fakeHistory) Append(_ context.Context, rec *model.GameRecord, max int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, rec)
	f.max = max
	return nil
}

func (f *fakeHistory) List(_ context.Context, chatID int64, kind string) ([]*model.GameRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.GameRecord
	for i := len(f.records) - 1; i >= 0; i-- {
		r := f.records[i]
		if r.ChatID == chatID && (kind == "" || r.Kind == kind) {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeHosts struct {
	mu    sync.Mutex
	stats []*model.HostStat
}

func (f *fakeHosts) Append(_ context.Context, stat *model.HostStat) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stat.ID = int64(len(f.stats) + 1)
	f.stats = append(f.stats, stat)
	return nil
}

func (f *fakeHosts) CountByHost(_ context.Context, chatID, hostID int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, s := range f.stats {
		if s.ChatID == chatID && s.HostID == hostID {
			n++
		}
	}
	return n, nil
}
