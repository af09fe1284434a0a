/*
   SOSEDI - Neighborhood community platform companion service
   Copyright (C) 2025  Unbewohnte (Kasyanov Nikolay Alexeevich)

   This program is free software: you can redistribute it and/or modify
   it under the terms of the GNU General Public License as published by
   the Free Software Foundation, either version 3 of the License, or
   (at your option) any later version.

   This program is distributed in the hope that it will be useful,
   but WITHOUT ANY WARRANTY; without even the implied warranty of
   MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
   GNU General Public License for more details.

   You should have received a copy of the GNU General Public License
   along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package bot

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/mymmrac/telego"
)

// Левенштейн
func minDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	m, n := len(ra), len(rb)
	dp := make([][]int, m+1)
	for i := range dp {
		dp[i] = make([]int, n+1)
		dp[i][0] = i
	}
	for j := range dp[0] {
		dp[0][j] = j
	}

	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			if ra[i-1] == rb[j-1] {
				dp[i][j] = dp[i-1][j-1]
			} else {
				dp[i][j] = 1 + min(dp[i-1][j], dp[i][j-1], dp[i-1][j-1])
			}
		}
	}
	return dp[m][n]
}

func (bot *Bot) findSimilarCommands(input string) []string {
	type cmdDistance struct {
		name     string
		distance int
	}

	var distances []cmdDistance
	for _, cmd := range bot.commands {
		dist := minDistance(input, cmd.Name)
		distances = append(distances, cmdDistance{cmd.Name, dist})
	}

	sort.SliceStable(distances, func(i, j int) bool {
		return distances[i].distance < distances[j].distance
	})

	var suggestions []string
	for i := 0; i < 3 && i < len(distances); i++ {
		suggestions = append(suggestions, distances[i].name)
	}

	return suggestions
}

// parseCommand разбирает "/cmd@botname arg1 arg2" на имя команды и аргументы
func parseCommand(text string) (string, []string) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", nil
	}

	name := strings.TrimPrefix(fields[0], "/")
	if at := strings.Index(name, "@"); at >= 0 {
		name = name[:at]
	}

	return strings.ToLower(name), fields[1:]
}

// parseTargetArgs возвращает чат и топик из аргументов команды.
// Без аргументов используется чат (и топик), в котором написана команда.
func parseTargetArgs(message *telego.Message, args []string) (int64, int, error) {
	if len(args) == 0 {
		return message.Chat.ID, message.MessageThreadID, nil
	}

	chatID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || chatID == 0 {
		return 0, 0, fmt.Errorf("неверный ID чата: %s", args[0])
	}

	threadID := 0
	if len(args) >= 2 {
		threadID, err = strconv.Atoi(args[1])
		if err != nil || threadID < 0 {
			return 0, 0, fmt.Errorf("неверный ID топика: %s", args[1])
		}
	}

	return chatID, threadID, nil
}

func parseAnnouncementID(args []string) (int64, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("ID объявления не указан")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("неверный ID объявления: %s", args[0])
	}
	return id, nil
}

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

func (bot *Bot) answerBack(ctx context.Context, message *telego.Message, text string, reply bool) {
	params := &telego.SendMessageParams{
		ChatID: telego.ChatID{
			ID: message.Chat.ID,
		},
		Text:      text,
		ParseMode: "Markdown",
	}

	if message.MessageThreadID != 0 {
		params.MessageThreadID = message.MessageThreadID
	}

	if reply {
		params.ReplyParameters = &telego.ReplyParameters{
			MessageID: message.MessageID,
		}
	}

	if _, err := bot.api.SendMessage(ctx, params); err != nil {
		bot.log.Error("Не удалось отправить ответ", "chat_id", message.Chat.ID, "error", err)
	}
}

func (bot *Bot) sendError(ctx context.Context, message *telego.Message, text string) {
	bot.answerBack(ctx, message, "❌ "+text, true)
}

func (bot *Bot) sendSuccess(ctx context.Context, message *telego.Message, text string) {
	bot.answerBack(ctx, message, "✅ "+text, true)
}

func (bot *Bot) sendCommandSuggestions(ctx context.Context, msg *telego.Message, input string) {
	suggestions := bot.findSimilarCommands(input)
	if len(suggestions) == 0 {
		return
	}

	message := "Неизвестная команда. Возможно, имеется в виду одна из этих команд:\n"
	for _, cmd := range suggestions {
		command := bot.CommandByName(cmd)
		if command != nil {
			message += fmt.Sprintf("`/%s` - %s\n", command.Name, command.Description)
		}
	}
	message += "\nДля справки используйте `/help [команда](опционально)`"

	bot.answerBack(ctx, msg, message, true)
}

// Форматирует имя пользователя Telegram
func formatUserName(user *telego.User) string {
	if user == nil {
		return "Неизвестный пользователь"
	}
	name := user.FirstName
	if user.LastName != "" {
		name += " " + user.LastName
	}
	if user.Username != "" {
		name += " (@" + user.Username + ")"
	}
	return name
}

// Ссылка на сообщение в чате
func messageLink(chatID int64, messageID int) string {
	// У супергрупп ID начинается с -100, в ссылке он не пишется
	id := strings.TrimPrefix(strconv.FormatInt(chatID, 10), "-100")
	id = strings.TrimPrefix(id, "-")
	return fmt.Sprintf("https://t.me/c/%s/%d", id, messageID)
}
