// Package hostpanel keeps the host control panel pages opened by game hosts.
package hostpanel

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"room-game-bot/internal/game"
)

// Panel errors.
var (
	ErrInvalidAutoSend = errors.New("invalid auto-send option")
	ErrUnknownHintGame = errors.New("not a valid game for generating hints")
)

// Auto-send options.
const (
	AutoSendYes = "yes"
	AutoSendNo  = "no"
)

// View is the section a page currently shows.
type View string

// Views.
const (
	ViewHostInformation View = "hostinformation"
	ViewGenerateHints   View = "generatehints"
)

// Sender delivers a rendered page to its owner.
type Sender interface {
	SendPanel(userID int64, text string)
	RemovePanel(userID int64)
}

// Page is one host's control panel for one room.
type Page struct {
	ChatID    int64
	UserID    int64
	RoomTitle string
	View      View
	AutoSend  bool
	HintGame  string
	Hint      string
	Answers   []string
}

type pageKey struct {
	chatID int64
	userID int64
}

// Manager owns every open page.
type Manager struct {
	mu     sync.Mutex
	pages  map[pageKey]*Page
	hints  *game.Registry
	sender Sender
	rng    *rand.Rand
}

// NewManager creates a manager drawing hint games from formats.
func NewManager(formats *game.Registry, sender Sender) *Manager {
	return &Manager{
		pages:  make(map[pageKey]*Page),
		hints:  formats,
		sender: sender,
		rng:    game.NewRand(time.Now().UnixNano()),
	}
}

// Open opens or refreshes the page of userID for chatID.
func (m *Manager) Open(chatID, userID int64, roomTitle string) *Page {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.page(chatID, userID, roomTitle)
	m.send(p)
	return p
}

// Get returns the open page of userID for chatID.
func (m *Manager) Get(chatID, userID int64) (*Page, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pages[pageKey{chatID, userID}]
	return p, ok
}

// ChooseView switches the page to view.
func (m *Manager) ChooseView(chatID, userID int64, roomTitle string, view View) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.page(chatID, userID, roomTitle)
	if p.View == view {
		return
	}
	p.View = view
	m.send(p)
}

// SetAutoSend sets whether host displays are sent to the room automatically.
// Only "yes" and "no" are accepted.
func (m *Manager) SetAutoSend(chatID, userID int64, roomTitle, option string) error {
	option = strings.ToLower(strings.TrimSpace(option))
	if option != AutoSendYes && option != AutoSendNo {
		return fmt.Errorf("%w: '%s' is not a valid auto-send option", ErrInvalidAutoSend, option)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.page(chatID, userID, roomTitle)
	autoSend := option == AutoSendYes
	if p.AutoSend == autoSend {
		return nil
	}
	p.AutoSend = autoSend
	m.send(p)
	return nil
}

// GenerateHint generates a random question and answer from the named game.
func (m *Manager) GenerateHint(chatID, userID int64, roomTitle, name string) (*Page, error) {
	f, ok := m.hints.Get(name)
	if !ok || f.GenerateHint == nil {
		return nil, fmt.Errorf("%w: '%s'", ErrUnknownHintGame, strings.TrimSpace(name))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.page(chatID, userID, roomTitle)
	p.View = ViewGenerateHints
	p.HintGame = f.Name
	p.Hint, p.Answers = f.GenerateHint(m.rng)
	m.send(p)
	return p, nil
}

// HintGames returns the names of the games hints can be generated for.
func (m *Manager) HintGames() []string {
	formats := lo.Filter(m.hints.List(), func(f *game.Format, _ int) bool { return f.GenerateHint != nil })
	return lo.Map(formats, func(f *game.Format, _ int) string { return f.Name })
}

// ClosePanel closes the page of hostID for chatID, if open.
func (m *Manager) ClosePanel(chatID, hostID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := pageKey{chatID, hostID}
	if _, ok := m.pages[key]; !ok {
		return
	}
	delete(m.pages, key)
	if m.sender != nil {
		m.sender.RemovePanel(hostID)
	}
	log.Debug().Int64("chat_id", chatID).Int64("user_id", hostID).Msg("Host panel closed")
}

// Len returns the number of open pages.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pages)
}

// Render renders p as text.
func (m *Manager) Render(p *Page) string {
	var b strings.Builder
	b.WriteString(p.RoomTitle + ": Hosting Control Panel\n\n")
	switch p.View {
	case ViewGenerateHints:
		if p.HintGame != "" {
			fmt.Fprintf(&b, "%s\nHint: %s\nAnswer: %s\n\n", p.HintGame, p.Hint, strings.Join(p.Answers, ", "))
		}
		b.WriteString("Games: " + strings.Join(m.HintGames(), ", ") + "\n")
		b.WriteString("Use /panel hint [game] to generate a hint and see the answer.")
	default:
		autoSend := AutoSendNo
		if p.AutoSend {
			autoSend = AutoSendYes
		}
		b.WriteString("Auto-send display: " + autoSend + "\n")
		b.WriteString("Use /addpoints, /twist and /storemsg to manage your game.")
	}
	return b.String()
}

func (m *Manager) page(chatID, userID int64, roomTitle string) *Page {
	key := pageKey{chatID, userID}
	p, ok := m.pages[key]
	if !ok {
		p = &Page{ChatID: chatID, UserID: userID, RoomTitle: roomTitle, View: ViewHostInformation}
		m.pages[key] = p
	}
	return p
}

func (m *Manager) send(p *Page) {
	if m.sender != nil {
		m.sender.SendPanel(p.UserID, m.Render(p))
	}
}
