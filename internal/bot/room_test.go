package bot

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v3"

	"room-game-bot/internal/game"
)

type sent struct {
	to   string
	text string
}

type fakeSender struct {
	nextID   int
	sent     []sent
	edits    []string
	deleted  []int
	pinned   []int
	unpins   []int
	failTo   string
	failEdit bool
}

func (f *fakeSender) Send(to tele.Recipient, what interface{}, _ ...interface{}) (*tele.Message, error) {
	if to.Recipient() == f.failTo {
		return nil, errors.New("blocked")
	}
	f.nextID++
	f.sent = append(f.sent, sent{to: to.Recipient(), text: what.(string)})
	return &tele.Message{ID: f.nextID, Chat: &tele.Chat{}}, nil
}

func (f *fakeSender) Edit(msg tele.Editable, what interface{}, _ ...interface{}) (*tele.Message, error) {
	if f.failEdit {
		return nil, errors.New("message to edit not found")
	}
	f.edits = append(f.edits, what.(string))
	return msg.(*tele.Message), nil
}

func (f *fakeSender) Delete(msg tele.Editable) error {
	f.deleted = append(f.deleted, msg.(*tele.Message).ID)
	return nil
}

func (f *fakeSender) Pin(msg tele.Editable, _ ...interface{}) error {
	f.pinned = append(f.pinned, msg.(*tele.Message).ID)
	return nil
}

func (f *fakeSender) Unpin(_ tele.Recipient, ids ...int) error {
	f.unpins = append(f.unpins, ids...)
	return nil
}

func TestChatRoomBasics(t *testing.T) {
	s := &fakeSender{}
	room := NewChatRoom(s, &tele.Chat{ID: -100, Type: tele.ChatSuperGroup, Title: "Lobby"}, []int64{9})

	assert.Equal(t, int64(-100), room.ID())
	assert.Equal(t, "Lobby", room.Title())
	assert.False(t, room.IsPrivate())

	room.Say("hello")
	room.SayFormatted(game.ViewWinners, "Alice <3")
	room.SayTo(5, "psst")
	room.Modnote("Ghost was ended")

	require.Len(t, s.sent, 4)
	assert.Equal(t, "-100", s.sent[0].to)
	assert.Equal(t, "hello", s.sent[0].text)
	assert.Equal(t, "<b>🏆 Winners</b>\nAlice &lt;3", s.sent[1].text)
	assert.Equal(t, sent{to: "5", text: "[Lobby] psst"}, s.sent[2])
	assert.Equal(t, "9", s.sent[3].to)
	assert.Contains(t, s.sent[3].text, "Ghost was ended")
}

func TestChatRoomPublishViewEditsInPlace(t *testing.T) {
	s := &fakeSender{}
	room := NewChatRoom(s, &tele.Chat{ID: -100, Type: tele.ChatGroup}, nil)

	room.PublishView("signups", "Players: none")
	room.PublishView("signups", "Players: Alice")
	room.PublishView("other", "x")

	assert.Len(t, s.sent, 2)
	require.Len(t, s.edits, 1)
	assert.Contains(t, s.edits[0], "Players: Alice")

	// a view that can no longer be edited is sent again
	s.failEdit = true
	room.PublishView("signups", "Players: Alice, Bob")
	assert.Len(t, s.sent, 3)
}

func TestChatRoomNotifications(t *testing.T) {
	s := &fakeSender{}
	room := NewChatRoom(s, &tele.Chat{ID: -100, Type: tele.ChatGroup, Title: "Lobby"}, nil)

	room.ClearNotification("all")
	assert.Empty(t, s.unpins)

	room.NotifyEligible("all", "Lobby scripted game", "Math Quiz", "scripted Math Quiz")
	require.Len(t, s.pinned, 1)

	room.ClearNotification("all")
	assert.Equal(t, s.pinned, s.unpins)

	room.ClearNotification("all")
	assert.Len(t, s.unpins, 1)
}

func TestChatRoomSendFailureIsDropped(t *testing.T) {
	s := &fakeSender{failTo: "-100"}
	room := NewChatRoom(s, &tele.Chat{ID: -100, Type: tele.ChatGroup}, nil)

	room.Say("lost")
	room.PublishView("signups", "lost")
	room.NotifyEligible("all", "t", "m", "h")

	assert.Empty(t, s.sent)
	assert.Empty(t, s.pinned)
}

func TestRoomsRemember(t *testing.T) {
	rooms := NewRooms(&fakeSender{}, nil)

	r := rooms.Room(-5)
	assert.Equal(t, "chat -5", r.Title())

	rooms.Remember(&tele.Chat{ID: -5, Type: tele.ChatSuperGroup, Title: "Renamed"})
	assert.Equal(t, "Renamed", rooms.Room(-5).Title())
	assert.Same(t, r, rooms.Room(-5))

	private := rooms.Remember(&tele.Chat{ID: 7, Type: tele.ChatPrivate, Username: "alice"})
	assert.True(t, private.IsPrivate())
	assert.Equal(t, "alice", private.Title())
}

func TestPanelSender(t *testing.T) {
	s := &fakeSender{}
	panels := NewPanelSender(s)

	panels.SendPanel(7, "panel v1")
	panels.SendPanel(7, "panel v2")
	require.Len(t, s.sent, 1)
	assert.Equal(t, []string{"panel v2"}, s.edits)

	panels.RemovePanel(7)
	assert.Equal(t, []int{1}, s.deleted)

	panels.RemovePanel(7)
	assert.Len(t, s.deleted, 1)
}
