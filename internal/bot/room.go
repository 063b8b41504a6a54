package bot

import (
	"fmt"
	"html"
	"sync"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"room-game-bot/internal/game"
)

// Sender is the part of the Telegram API rooms talk through.
type Sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
	Edit(msg tele.Editable, what interface{}, opts ...interface{}) (*tele.Message, error)
	Delete(msg tele.Editable) error
	Pin(msg tele.Editable, opts ...interface{}) error
	Unpin(chat tele.Recipient, messageID ...int) error
}

var viewHeaders = map[game.ViewKind]string{
	game.ViewSignups: "📋 Signups",
	game.ViewRound:   "🎲 Round",
	game.ViewHostBox: "🎤 Host",
	game.ViewWinners: "🏆 Winners",
}

// ChatRoom is a Telegram chat seen as a game room.
type ChatRoom struct {
	sender Sender
	chat   *tele.Chat
	admins []int64

	mu            sync.Mutex
	title         string
	private       bool
	views         map[string]*tele.Message
	notifications map[string]*tele.Message
}

var _ game.Room = (*ChatRoom)(nil)

// NewChatRoom creates a room for chat. Moderator notes go to admins.
func NewChatRoom(sender Sender, chat *tele.Chat, admins []int64) *ChatRoom {
	r := &ChatRoom{
		sender:        sender,
		chat:          &tele.Chat{ID: chat.ID, Type: chat.Type},
		admins:        admins,
		views:         make(map[string]*tele.Message),
		notifications: make(map[string]*tele.Message),
	}
	r.update(chat)
	return r
}

func (r *ChatRoom) update(chat *tele.Chat) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.private = chat.Type == tele.ChatPrivate
	switch {
	case chat.Title != "":
		r.title = chat.Title
	case chat.Username != "":
		r.title = chat.Username
	case r.title == "":
		r.title = fmt.Sprintf("chat %d", chat.ID)
	}
}

// ID returns the chat ID.
func (r *ChatRoom) ID() int64 { return r.chat.ID }

// Title returns the chat title.
func (r *ChatRoom) Title() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.title
}

// IsPrivate reports whether the room is a private chat.
func (r *ChatRoom) IsPrivate() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.private
}

// Say sends a plain message.
func (r *ChatRoom) Say(text string) {
	r.send(r.chat, text)
}

// SayFormatted sends payload under the header of kind.
func (r *ChatRoom) SayFormatted(kind game.ViewKind, payload string) {
	r.send(r.chat, formatView(kind, payload), tele.ModeHTML)
}

// PublishView sends a named view, or edits it in place when already sent.
func (r *ChatRoom) PublishView(name, payload string) {
	text := formatView(game.ViewSignups, payload)

	r.mu.Lock()
	msg, ok := r.views[name]
	r.mu.Unlock()
	if ok {
		if _, err := r.sender.Edit(msg, text, tele.ModeHTML); err == nil {
			return
		}
	}

	sent := r.send(r.chat, text, tele.ModeHTML)
	if sent == nil {
		return
	}
	r.mu.Lock()
	r.views[name] = sent
	r.mu.Unlock()
}

// NotifyEligible pins a notification for scope until it is cleared.
func (r *ChatRoom) NotifyEligible(scope, title, message, highlight string) {
	text := fmt.Sprintf("🔔 <b>%s</b>\n%s", html.EscapeString(title), html.EscapeString(message))
	sent := r.send(r.chat, text, tele.ModeHTML)
	if sent == nil {
		return
	}
	if err := r.sender.Pin(sent, tele.Silent); err != nil {
		log.Debug().Err(err).Int64("chat_id", r.chat.ID).Msg("Failed to pin notification")
	}
	r.mu.Lock()
	r.notifications[scope] = sent
	r.mu.Unlock()
	log.Debug().Int64("chat_id", r.chat.ID).Str("scope", scope).Str("highlight", highlight).Msg("Notification published")
}

// ClearNotification unpins the notification of scope.
func (r *ChatRoom) ClearNotification(scope string) {
	r.mu.Lock()
	msg, ok := r.notifications[scope]
	delete(r.notifications, scope)
	r.mu.Unlock()
	if !ok {
		return
	}
	if err := r.sender.Unpin(r.chat, msg.ID); err != nil {
		log.Debug().Err(err).Int64("chat_id", r.chat.ID).Msg("Failed to unpin notification")
	}
}

// SayTo sends a direct message to a user.
func (r *ChatRoom) SayTo(userID int64, text string) {
	r.send(&tele.User{ID: userID}, fmt.Sprintf("[%s] %s", r.Title(), text))
}

// Modnote sends a moderator note to every admin.
func (r *ChatRoom) Modnote(text string) {
	log.Info().Int64("chat_id", r.chat.ID).Str("note", text).Msg("Modnote")
	for _, id := range r.admins {
		r.send(&tele.User{ID: id}, fmt.Sprintf("📝 [%s] %s", r.Title(), text))
	}
}

func (r *ChatRoom) send(to tele.Recipient, what string, opts ...interface{}) *tele.Message {
	msg, err := r.sender.Send(to, what, opts...)
	if err != nil {
		log.Warn().Err(err).Int64("chat_id", r.chat.ID).Str("recipient", to.Recipient()).Msg("Failed to send message")
		return nil
	}
	return msg
}

func formatView(kind game.ViewKind, payload string) string {
	header, ok := viewHeaders[kind]
	if !ok {
		return html.EscapeString(payload)
	}
	return "<b>" + header + "</b>\n" + html.EscapeString(payload)
}

// Rooms owns the ChatRoom of every chat the bot has seen.
type Rooms struct {
	sender Sender
	admins []int64

	mu    sync.Mutex
	rooms map[int64]*ChatRoom
}

// NewRooms creates an empty room set.
func NewRooms(sender Sender, admins []int64) *Rooms {
	return &Rooms{
		sender: sender,
		admins: admins,
		rooms:  make(map[int64]*ChatRoom),
	}
}

// Remember records or refreshes the details of chat.
func (rs *Rooms) Remember(chat *tele.Chat) *ChatRoom {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if r, ok := rs.rooms[chat.ID]; ok {
		r.update(chat)
		return r
	}
	r := NewChatRoom(rs.sender, chat, rs.admins)
	rs.rooms[chat.ID] = r
	return r
}

// Room returns the room of chatID.
func (rs *Rooms) Room(chatID int64) game.Room {
	rs.mu.Lock()
	r, ok := rs.rooms[chatID]
	rs.mu.Unlock()
	if ok {
		return r
	}
	return rs.Remember(&tele.Chat{ID: chatID, Type: tele.ChatGroup})
}

// PanelSender shows host control panels in private chats, editing the
// previous panel message when there is one.
type PanelSender struct {
	sender Sender

	mu     sync.Mutex
	panels map[int64]*tele.Message
}

// NewPanelSender creates a new PanelSender instance.
func NewPanelSender(sender Sender) *PanelSender {
	return &PanelSender{sender: sender, panels: make(map[int64]*tele.Message)}
}

// SendPanel shows text as the user's panel.
func (p *PanelSender) SendPanel(userID int64, text string) {
	p.mu.Lock()
	msg, ok := p.panels[userID]
	p.mu.Unlock()
	if ok {
		if _, err := p.sender.Edit(msg, text); err == nil {
			return
		}
	}

	sent, err := p.sender.Send(&tele.User{ID: userID}, text)
	if err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Msg("Failed to send host panel")
		return
	}
	p.mu.Lock()
	p.panels[userID] = sent
	p.mu.Unlock()
}

// RemovePanel deletes the user's panel.
func (p *PanelSender) RemovePanel(userID int64) {
	p.mu.Lock()
	msg, ok := p.panels[userID]
	delete(p.panels, userID)
	p.mu.Unlock()
	if !ok {
		return
	}
	if err := p.sender.Delete(msg); err != nil {
		log.Debug().Err(err).Int64("user_id", userID).Msg("Failed to delete host panel")
	}
}
