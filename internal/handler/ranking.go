package handler

import (
	"context"
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	tele "gopkg.in/telebot.v3"

	"room-game-bot/internal/game"
	"room-game-bot/internal/service"
)

// leaderboardSize is the number of rows shown by ranking commands.
const leaderboardSize = 10

// RankingHandler handles leaderboard and history commands.
type RankingHandler struct {
	rankingService *service.RankingService
	accountService *service.AccountService
}

// NewRankingHandler creates a new RankingHandler.
func NewRankingHandler(rankingService *service.RankingService, accountService *service.AccountService) *RankingHandler {
	return &RankingHandler{
		rankingService: rankingService,
		accountService: accountService,
	}
}

// HandleTop handles the /top command.
// Format: /top [credits|hosting]
func (h *RankingHandler) HandleTop(c tele.Context) error {
	if !inGroup(c) {
		return c.Reply("❌ Leaderboards belong to a group, use /top there")
	}
	board := game.LeaderboardCredits
	if strings.EqualFold(payload(c), string(game.LeaderboardHosting)) {
		board = game.LeaderboardHosting
	}

	ranks, err := h.rankingService.GetTop(context.Background(), c.Chat().ID, board, leaderboardSize)
	if err != nil {
		return c.Reply("❌ Failed to get the leaderboard, please try again later")
	}
	if len(ranks) == 0 {
		return c.Reply("📊 Nobody is on the leaderboard yet")
	}

	rows := make([][]string, 0, len(ranks))
	for i, r := range ranks {
		rows = append(rows, []string{strconv.Itoa(i + 1), displayName(r.Username, r.UserID), strconv.FormatInt(r.Balance, 10)})
	}
	return replyTable(c, fmt.Sprintf("🏆 Top %s", board), []string{"#", "User", string(board)}, rows)
}

// HandleDailyTop handles the /daily_top command.
// Displays today's top credit earners.
func (h *RankingHandler) HandleDailyTop(c tele.Context) error {
	if !inGroup(c) {
		return c.Reply("❌ Leaderboards belong to a group, use /daily_top there")
	}
	earners, err := h.rankingService.GetDailyEarners(context.Background(), c.Chat().ID, leaderboardSize)
	if err != nil {
		return c.Reply("❌ Failed to get the leaderboard, please try again later")
	}
	if len(earners) == 0 {
		return c.Reply("📊 Nobody has earned credits today")
	}

	rows := make([][]string, 0, len(earners))
	for i, e := range earners {
		rows = append(rows, []string{strconv.Itoa(i + 1), displayName(e.Username, e.UserID), "+" + strconv.FormatInt(e.Earned, 10)})
	}
	return replyTable(c, "📊 Today's earners", []string{"#", "User", "Earned"}, rows)
}

// HandlePastGames handles the /pastgames command.
// Format: /pastgames [scripted|hosted]
func (h *RankingHandler) HandlePastGames(c tele.Context) error {
	if !inGroup(c) {
		return nil
	}
	var kind game.Kind
	if arg := payload(c); arg != "" {
		kind = slotKind(arg)
	}

	records, err := h.rankingService.GetPastGames(context.Background(), c.Chat().ID, kind)
	if err != nil {
		return c.Reply("❌ Failed to get past games, please try again later")
	}
	if len(records) == 0 {
		return c.Reply("📜 No games have been played here yet")
	}

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		winners := strings.Join(r.Winners, ", ")
		if winners == "" {
			winners = "-"
		}
		rows = append(rows, []string{r.EndedAt.Format("01-02 15:04"), r.Name, strconv.Itoa(len(r.Players)), winners})
	}
	return replyTable(c, "📜 Past games", []string{"Ended", "Game", "Players", "Winners"}, rows)
}

// HandleHosted handles the /hosted command.
// Format: /hosted [@user]
func (h *RankingHandler) HandleHosted(c tele.Context) error {
	if !inGroup(c) {
		return nil
	}
	ctx := context.Background()
	hostID, name := c.Sender().ID, identity(c.Sender()).Name
	if arg := payload(c); arg != "" {
		user, err := h.accountService.FindUser(ctx, arg)
		if err != nil {
			return c.Reply(fmt.Sprintf("❌ Unknown user: %s", strings.TrimPrefix(arg, "@")))
		}
		hostID, name = user.TelegramID, user.Username
	}

	count, err := h.rankingService.GetHostedCount(ctx, c.Chat().ID, hostID)
	if err != nil {
		return c.Reply("❌ Failed to count hosted games, please try again later")
	}
	return c.Reply(fmt.Sprintf("🎤 %s has hosted %d game(s) here", name, count))
}

func displayName(username string, userID int64) string {
	if username == "" {
		return fmt.Sprintf("User%d", userID)
	}
	return username
}

// renderTable lays rows out as a plain text table.
func renderTable(header []string, rows [][]string) string {
	var b strings.Builder
	table := tablewriter.NewWriter(&b)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding(" ")
	table.SetNoWhiteSpace(true)
	table.AppendBulk(rows)
	table.Render()
	return b.String()
}

func replyTable(c tele.Context, title string, header []string, rows [][]string) error {
	text := "<b>" + html.EscapeString(title) + "</b>\n<pre>" + html.EscapeString(renderTable(header, rows)) + "</pre>"
	return c.Reply(text, tele.ModeHTML)
}
