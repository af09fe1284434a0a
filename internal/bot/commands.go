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
	"slices"
	"sort"
	"strconv"
	"strings"

	"Unbewohnte/SOSEDI/internal/domain"

	"github.com/mymmrac/telego"
)

type Command struct {
	Name        string
	Description string
	Example     string
	Group       string
	Call        func(ctx context.Context, message *telego.Message)
}

func (bot *Bot) NewCommand(cmd Command) {
	bot.commands = append(bot.commands, cmd)
}

func (bot *Bot) CommandByName(name string) *Command {
	for i := range bot.commands {
		if bot.commands[i].Name == name {
			return &bot.commands[i]
		}
	}

	return nil
}

func constructCommandHelpMessage(command Command) string {
	commandHelp := ""
	commandHelp += fmt.Sprintf("\n*Команда:* \"/%s\"\n*Описание:* %s\n", command.Name, command.Description)
	if command.Example != "" {
		commandHelp += fmt.Sprintf("*Пример:* `%s`\n", command.Example)
	}

	return commandHelp
}

func (bot *Bot) Help(ctx context.Context, message *telego.Message) {
	_, args := parseCommand(message.Text)
	if len(args) >= 1 {
		// Ответить лишь по конкретной команде
		command := bot.CommandByName(strings.TrimPrefix(args[0], "/"))
		if command != nil {
			bot.answerBack(ctx, message, constructCommandHelpMessage(*command), false)
			return
		}
	}

	var helpMessage string

	commandsByGroup := make(map[string][]Command)
	for _, command := range bot.commands {
		commandsByGroup[command.Group] = append(commandsByGroup[command.Group], command)
	}

	groups := []string{}
	for g := range commandsByGroup {
		groups = append(groups, g)
	}
	sort.Strings(groups)

	for _, group := range groups {
		helpMessage += fmt.Sprintf("\n\n*[%s]*\n", group)
		for _, command := range commandsByGroup[group] {
			helpMessage += constructCommandHelpMessage(command)
		}
	}

	bot.answerBack(ctx, message, helpMessage, false)
}

func (bot *Bot) About(ctx context.Context, message *telego.Message) {
	bot.answerBack(ctx, message,
		`SOSEDI bot - служебный бот соседской платформы. Дублирует объявления жильцов в чаты дома и следит за тем, чтобы сообщения в чатах совпадали с объявлениями на сайте.

Лицензия: GPLv3`,
		false,
	)
}

func (bot *Bot) ChatID(ctx context.Context, message *telego.Message) {
	text := fmt.Sprintf("ID Чата: `%d`", message.Chat.ID)
	if message.MessageThreadID != 0 {
		text += fmt.Sprintf("\nID Топика: `%d`", message.MessageThreadID)
	}
	bot.answerBack(ctx, message, text, false)
}

func (bot *Bot) parseUserID(ctx context.Context, message *telego.Message) (int64, bool) {
	_, args := parseCommand(message.Text)
	if len(args) < 1 {
		bot.sendError(ctx, message, "ID пользователя не указан")
		return 0, false
	}

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		bot.sendError(ctx, message, "Неверный ID пользователя")
		return 0, false
	}

	return id, true
}

// saveConfig обновляет файл конфигурации; вызывается под confMu
func (bot *Bot) saveConfig() {
	if err := bot.conf.Update(); err != nil {
		bot.log.Error("Не удалось сохранить конфигурацию", "error", err)
	}
}

func (bot *Bot) AddUser(ctx context.Context, message *telego.Message) {
	id, ok := bot.parseUserID(ctx, message)
	if !ok {
		return
	}

	bot.confMu.Lock()
	if slices.Contains(bot.conf.Telegram.AllowedUserIDs, id) {
		bot.confMu.Unlock()
		bot.sendError(ctx, message, "Этот пользователь уже есть в списке разрешенных.")
		return
	}

	bot.conf.Telegram.AllowedUserIDs = append(bot.conf.Telegram.AllowedUserIDs, id)
	// Сохраним в файл
	bot.saveConfig()
	bot.confMu.Unlock()

	bot.sendSuccess(ctx, message, "Пользователь успешно добавлен!")
}

func (bot *Bot) RemoveUser(ctx context.Context, message *telego.Message) {
	id, ok := bot.parseUserID(ctx, message)
	if !ok {
		return
	}

	bot.confMu.Lock()
	bot.conf.Telegram.AllowedUserIDs = slices.DeleteFunc(bot.conf.Telegram.AllowedUserIDs, func(allowedID int64) bool {
		return allowedID == id
	})
	// Сохраним в файл
	bot.saveConfig()
	bot.confMu.Unlock()

	bot.sendSuccess(ctx, message, "Пользователь успешно удален!")
}

func (bot *Bot) TogglePublicity(ctx context.Context, message *telego.Message) {
	bot.confMu.Lock()
	bot.conf.Telegram.Public = !bot.conf.Telegram.Public
	public := bot.conf.Telegram.Public
	// Обновляем конфигурационный файл
	bot.saveConfig()
	bot.confMu.Unlock()

	if public {
		bot.answerBack(ctx, message, "Доступ к боту теперь у всех.", false)
	} else {
		bot.answerBack(ctx, message, "Доступ к боту теперь только у избранных.", false)
	}
}

func (bot *Bot) PrintConfig(ctx context.Context, message *telego.Message) {
	bot.confMu.Lock()
	conf := *bot.conf
	allowed := slices.Clone(bot.conf.Telegram.AllowedUserIDs)
	bot.confMu.Unlock()

	var response string = ""

	response += "*Нынешняя конфигурация*: \n"
	response += "\n*[ОБЩЕЕ]*:\n"
	response += fmt.Sprintf("*Общедоступный?*: `%v`\n", conf.Telegram.Public)
	response += fmt.Sprintf("*Разрешенные пользователи*: `%+v`\n", allowed)
	response += fmt.Sprintf("*Отладка*: `%v`\n", conf.Debug)

	response += "\n*[ОБЪЯВЛЕНИЯ]*:\n"
	response += fmt.Sprintf("*Сайт*: `%s`\n", conf.Mirror.SiteURL)
	response += fmt.Sprintf("*Срок публикации (дней)*: `%d`\n", conf.Mirror.LifetimeDays)
	response += fmt.Sprintf("*Чатов в конфигурации*: `%d`\n", len(conf.Telegram.MirrorTargets))
	response += fmt.Sprintf(
		"*Повторы*: `%d попытки, %d мс, x%.1f, 429 -> %d с`\n",
		conf.Mirror.Retry.MaxAttempts,
		conf.Mirror.Retry.BaseDelayMillis,
		conf.Mirror.Retry.Multiplier,
		conf.Mirror.Retry.RateLimitDelaySeconds,
	)

	response += "\n*[БЭКЕНД]*:\n"
	response += fmt.Sprintf("*Адрес*: `%s`\n", conf.Backend.BaseURL)
	if conf.Backend.Salt != "" {
		response += "*Соль*: имеется\n"
	} else {
		response += "*Соль*: отсутствует\n"
	}

	if count, err := bot.store.CountMirrors(ctx); err == nil {
		response += fmt.Sprintf("\n*Сообщений-зеркал в базе*: `%d`\n", count)
	}

	bot.answerBack(ctx, message, response, true)
}

func (bot *Bot) AddTarget(ctx context.Context, message *telego.Message) {
	_, args := parseCommand(message.Text)
	chatID, threadID, err := parseTargetArgs(message, args)
	if err != nil {
		bot.sendError(ctx, message, err.Error())
		return
	}

	// Сначала проверяем, не добавлен ли уже этот чат
	existing, err := bot.store.GetTarget(ctx, chatID, threadID)
	if err != nil {
		bot.sendError(ctx, message, "Ошибка проверки чата: "+err.Error())
		return
	}
	if existing != nil {
		bot.sendError(ctx, message, fmt.Sprintf(
			"Этот чат уже добавлен:\nНазвание: %s\nДобавлен: %s",
			escapeMarkdown(existing.Title),
			existing.CreatedAt.Local().Format("2006-01-02 15:04"),
		))
		return
	}

	title := ""
	if chatID == message.Chat.ID {
		title = message.Chat.Title
	}
	if title == "" {
		title = strconv.FormatInt(chatID, 10)
	}

	target := &domain.Target{ChatID: chatID, ThreadID: threadID, Title: title}
	id, err := bot.store.AddTarget(ctx, target)
	if err != nil {
		bot.sendError(ctx, message, "Ошибка добавления чата: "+err.Error())
		return
	}

	bot.log.Info("Добавлен чат для объявлений", "chat_id", chatID, "thread_id", threadID)
	bot.sendSuccess(ctx, message, fmt.Sprintf(
		"Чат добавлен:\nНазвание: %s\nID: `%d`\nТопик: `%d`\nID в базе: %d",
		escapeMarkdown(title), chatID, threadID, id,
	))
}

func (bot *Bot) RemoveTarget(ctx context.Context, message *telego.Message) {
	_, args := parseCommand(message.Text)
	chatID, threadID, err := parseTargetArgs(message, args)
	if err != nil {
		bot.sendError(ctx, message, err.Error())
		return
	}

	removed, err := bot.store.RemoveTarget(ctx, chatID, threadID)
	if err != nil {
		bot.sendError(ctx, message, "Ошибка удаления чата: "+err.Error())
		return
	}
	if !removed {
		bot.sendError(ctx, message, fmt.Sprintf("Чат `%d` (топик `%d`) не найден", chatID, threadID))
		return
	}

	bot.log.Info("Удален чат для объявлений", "chat_id", chatID, "thread_id", threadID)
	bot.sendSuccess(ctx, message, "Чат успешно удален")
}

func (bot *Bot) ListTargets(ctx context.Context, message *telego.Message) {
	targets, err := bot.store.ListTargets(ctx)
	if err != nil {
		bot.sendError(ctx, message, "Ошибка получения чатов: "+err.Error())
		return
	}

	bot.confMu.Lock()
	static := slices.Clone(bot.conf.Telegram.MirrorTargets)
	bot.confMu.Unlock()

	if len(targets) == 0 && len(static) == 0 {
		bot.answerBack(ctx, message, "Объявления никуда не дублируются", false)
		return
	}

	var response strings.Builder
	response.WriteString("📋 Чаты для объявлений:\n\n")

	for _, target := range static {
		response.WriteString(fmt.Sprintf(
			"🔸 *%s* (из конфигурации)\nID: `%d`, топик: `%d`\n\n",
			escapeMarkdown(target.Title), target.ChatID, target.ThreadID,
		))
	}

	for _, target := range targets {
		response.WriteString(fmt.Sprintf(
			"🔹 *%s*\nID: `%d`, топик: `%d`\nДобавлен: %s\n\n",
			escapeMarkdown(target.Title), target.ChatID, target.ThreadID,
			target.CreatedAt.Local().Format("2006-01-02 15:04"),
		))
	}

	bot.answerBack(ctx, message, response.String(), false)
}

func (bot *Bot) ListMirrors(ctx context.Context, message *telego.Message) {
	_, args := parseCommand(message.Text)
	id, err := parseAnnouncementID(args)
	if err != nil {
		bot.sendError(ctx, message, err.Error())
		return
	}

	mirrors, err := bot.mirrors.Mirrors(ctx, id)
	if err != nil {
		bot.sendError(ctx, message, "Ошибка получения сообщений: "+err.Error())
		return
	}

	if len(mirrors) == 0 {
		bot.answerBack(ctx, message, fmt.Sprintf("У объявления %d нет сообщений в чатах", id), false)
		return
	}

	var response strings.Builder
	response.WriteString(fmt.Sprintf("📨 Сообщения объявления %d:\n\n", id))
	for _, m := range mirrors {
		response.WriteString(fmt.Sprintf(
			"• чат `%d`, топик `%d`: [сообщение %d](%s)\n",
			m.ChatID, m.ThreadID, m.MessageID, messageLink(m.ChatID, m.MessageID),
		))
	}

	bot.answerBack(ctx, message, response.String(), false)
}

func (bot *Bot) Resync(ctx context.Context, message *telego.Message) {
	_, args := parseCommand(message.Text)
	id, err := parseAnnouncementID(args)
	if err != nil {
		bot.sendError(ctx, message, err.Error())
		return
	}

	report, err := bot.resyncer.Resync(ctx, id)
	if err != nil {
		bot.sendError(ctx, message, fmt.Sprintf("Не удалось синхронизировать объявление %d: %v", id, err))
		return
	}

	if !report.OK() {
		bot.sendError(ctx, message, fmt.Sprintf(
			"Синхронизация завершена с ошибками: успешно %d, с ошибкой %d",
			report.Succeeded, report.Failed,
		))
		return
	}

	bot.sendSuccess(ctx, message, fmt.Sprintf("Синхронизировано сообщений: %d", report.Succeeded))
}
