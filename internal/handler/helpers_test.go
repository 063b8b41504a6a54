package handler

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"room-game-bot/internal/game"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		text    string
		command string
		target  string
		ok      bool
	}{
		{"/g 42", "g", "42", true},
		{"/Guess@RoomGameBot  12 ", "guess", "12", true},
		{"/skip", "skip", "", true},
		{"  /buzz@bot", "buzz", "", true},
		{"/", "", "", false},
		{"/@bot hi", "", "", false},
		{"hello", "", "", false},
	}
	for _, tt := range tests {
		command, target, ok := parseCommand(tt.text)
		assert.Equal(t, tt.ok, ok, tt.text)
		assert.Equal(t, tt.command, command, tt.text)
		assert.Equal(t, tt.target, target, tt.text)
	}
}

func TestSlotKind(t *testing.T) {
	assert.Equal(t, game.KindUserHosted, slotKind("hosted"))
	assert.Equal(t, game.KindUserHosted, slotKind("User-Hosted"))
	assert.Equal(t, game.KindScripted, slotKind(""))
	assert.Equal(t, game.KindScripted, slotKind("mathquiz"))

	kind, rest := slotKindAndRest("host spam in chat")
	assert.Equal(t, game.KindUserHosted, kind)
	assert.Equal(t, "spam in chat", rest)

	kind, rest = slotKindAndRest("spam in chat")
	assert.Equal(t, game.KindScripted, kind)
	assert.Equal(t, "spam in chat", rest)
}

func TestSplitAmount(t *testing.T) {
	names, n := splitAmount([]string{"@alice", "@bob", "3"})
	assert.Equal(t, []string{"@alice", "@bob"}, names)
	assert.Equal(t, 3, n)

	names, n = splitAmount([]string{"@alice"})
	assert.Equal(t, []string{"@alice"}, names)
	assert.Equal(t, 1, n)

	names, n = splitAmount([]string{"@alice", "-2"})
	assert.Equal(t, []string{"@alice", "-2"}, names)
	assert.Equal(t, 1, n)

	names, n = splitAmount(nil)
	assert.Empty(t, names)
	assert.Equal(t, 1, n)
}

func TestParseMinutes(t *testing.T) {
	m, err := parseMinutes(" 1.5 ")
	assert.NoError(t, err)
	assert.Equal(t, 90*time.Second, minutesDuration(m))

	_, err = parseMinutes("0")
	assert.Error(t, err)
	_, err = parseMinutes("soon")
	assert.Error(t, err)
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "alice", displayName("alice", 5))
	assert.Equal(t, "User5", displayName("", 5))
}

func TestRenderTable(t *testing.T) {
	out := renderTable([]string{"#", "Name", "Credits"}, [][]string{
		{"1", "alice", "300"},
		{"2", "bob", "120"},
	})

	var lines []string
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	assert.Len(t, lines, 3)
	assert.Contains(t, lines[0], "Credits")
	assert.Contains(t, lines[1], "alice")
	assert.Contains(t, lines[2], "120")
	assert.NotContains(t, out, "|")
}

func TestFormatLine(t *testing.T) {
	line := formatLine(&game.Format{
		Name:            "Math Quiz",
		Aliases:         []string{"mq"},
		Variants:        []game.Variant{{ID: "sprint"}},
		MinigameCommand: "quickmath",
	})
	assert.Equal(t, "• Math Quiz (mq) [sprint] minigame: /quickmath\n", line)
	assert.Equal(t, "• Plain\n", formatLine(&game.Format{Name: "Plain"}))
}
