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

// Package bot - служебный Telegram-бот: управление чатами, в которые
// дублируются объявления, и диагностика сообщений-зеркал.
package bot

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"Unbewohnte/SOSEDI/internal/config"
	"Unbewohnte/SOSEDI/internal/domain"
	"Unbewohnte/SOSEDI/internal/mirror"

	"github.com/mymmrac/telego"
)

type API interface {
	GetMe(ctx context.Context) (*telego.User, error)
	SendMessage(ctx context.Context, params *telego.SendMessageParams) (*telego.Message, error)
	UpdatesViaLongPolling(ctx context.Context, params *telego.GetUpdatesParams, options ...telego.LongPollingOption) (<-chan telego.Update, error)
}

var _ API = (*telego.Bot)(nil)

type Store interface {
	AddTarget(ctx context.Context, target *domain.Target) (int64, error)
	RemoveTarget(ctx context.Context, chatID int64, threadID int) (bool, error)
	ListTargets(ctx context.Context) ([]domain.Target, error)
	GetTarget(ctx context.Context, chatID int64, threadID int) (*domain.Target, error)
	CountMirrors(ctx context.Context) (int64, error)
}

type Mirrors interface {
	Mirrors(ctx context.Context, announcementID int64) ([]domain.MirrorMessage, error)
}

type Resyncer interface {
	Resync(ctx context.Context, announcementID int64) (mirror.Report, error)
}

type Bot struct {
	api      API
	conf     *config.Config
	confMu   sync.Mutex
	store    Store
	mirrors  Mirrors
	resyncer Resyncer
	commands []Command
	log      *slog.Logger
}

func NewBot(api API, conf *config.Config, store Store, mirrors Mirrors, resyncer Resyncer, log *slog.Logger) *Bot {
	return &Bot{
		api:      api,
		conf:     conf,
		store:    store,
		mirrors:  mirrors,
		resyncer: resyncer,
		log:      log.With("component", "bot"),
	}
}

func (bot *Bot) Init() {
	bot.commands = nil

	bot.NewCommand(Command{
		Name:        "help",
		Description: "Напечатать вспомогательное сообщение",
		Group:       "Общее",
		Call:        bot.Help,
	})

	bot.NewCommand(Command{
		Name:        "about",
		Description: "Напечатать информацию о боте",
		Group:       "Общее",
		Call:        bot.About,
	})

	bot.NewCommand(Command{
		Name:        "chatid",
		Description: "Показать ID чата и топика",
		Group:       "Общее",
		Call:        bot.ChatID,
	})

	bot.NewCommand(Command{
		Name:        "conf",
		Description: "Написать текущую конфигурацию",
		Group:       "Общее",
		Call:        bot.PrintConfig,
	})

	bot.NewCommand(Command{
		Name:        "togglepublic",
		Description: "Включить или выключить публичный/приватный доступ к боту",
		Group:       "Телеграм",
		Call:        bot.TogglePublicity,
	})

	bot.NewCommand(Command{
		Name:        "adduser",
		Description: "Добавить доступ к боту определенному пользователю по ID (напишите боту @userinfobot для получения своего ID)",
		Example:     "/adduser 5293210034",
		Group:       "Телеграм",
		Call:        bot.AddUser,
	})

	bot.NewCommand(Command{
		Name:        "rmuser",
		Description: "Убрать доступ к боту определенному пользователю по ID",
		Example:     "/rmuser 5293210034",
		Group:       "Телеграм",
		Call:        bot.RemoveUser,
	})

	bot.NewCommand(Command{
		Name:        "addtarget",
		Description: "Дублировать объявления в этот чат (или в указанный чат и топик)",
		Example:     "/addtarget -1001234567890 15",
		Group:       "Объявления",
		Call:        bot.AddTarget,
	})

	bot.NewCommand(Command{
		Name:        "rmtarget",
		Description: "Перестать дублировать объявления в этот чат (или в указанный)",
		Example:     "/rmtarget -1001234567890 15",
		Group:       "Объявления",
		Call:        bot.RemoveTarget,
	})

	bot.NewCommand(Command{
		Name:        "targets",
		Description: "Показать все чаты, в которые дублируются объявления",
		Group:       "Объявления",
		Call:        bot.ListTargets,
	})

	bot.NewCommand(Command{
		Name:        "mirrors",
		Description: "Показать сообщения-зеркала объявления",
		Example:     "/mirrors 128",
		Group:       "Объявления",
		Call:        bot.ListMirrors,
	})

	bot.NewCommand(Command{
		Name:        "resync",
		Description: "Заново отрисовать сообщения объявления во всех чатах",
		Example:     "/resync 128",
		Group:       "Объявления",
		Call:        bot.Resync,
	})
}

// Start принимает обновления, пока не будет отменен ctx.
// При потере соединения переподключается с нарастающей задержкой.
func (bot *Bot) Start(ctx context.Context) error {
	bot.Init()

	if me, err := bot.api.GetMe(ctx); err == nil {
		bot.log.Info("Бот авторизован", "username", me.Username)
	} else {
		bot.log.Warn("Не удалось получить данные бота", "error", err)
	}

	startTime := time.Now()
	retryDelay := 5 * time.Second
	for {
		updates, err := bot.api.UpdatesViaLongPolling(ctx, &telego.GetUpdatesParams{Timeout: 60})
		if err != nil {
			bot.log.Error("Не удалось начать получение обновлений", "error", err)
		} else {
			for update := range updates {
				if update.Message == nil {
					continue
				}

				// Пропускаем сообщения, пришедшие до старта бота
				if time.Unix(update.Message.Date, 0).Before(startTime) {
					continue
				}

				go bot.handleMessage(ctx, update.Message)
			}
		}

		if ctx.Err() != nil {
			return nil
		}

		bot.log.Warn("Соединение с Telegram потеряно. Переподключение...", "retry_in", retryDelay)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(retryDelay):
		}
		if retryDelay < 300*time.Second {
			retryDelay *= 2
		}
	}
}

func (bot *Bot) isAllowed(message *telego.Message) bool {
	if message.From == nil {
		return false
	}

	bot.confMu.Lock()
	defer bot.confMu.Unlock()
	return bot.conf.IsAllowedUser(message.From.ID)
}

func (bot *Bot) handleMessage(ctx context.Context, message *telego.Message) {
	text := strings.TrimSpace(message.Text)
	private := message.Chat.Type == telego.ChatTypePrivate

	// В группах бот реагирует только на команды
	if !strings.HasPrefix(text, "/") && !private {
		return
	}

	if !bot.isAllowed(message) {
		// Не пропускаем дальше
		bot.answerBack(ctx, message, "Вам не разрешено пользоваться этим ботом!", false)
		if message.From != nil {
			bot.log.Debug("Не допустили к общению пользователя", "user_id", message.From.ID)
		}
		return
	}

	bot.log.Info("Получено сообщение", "from", formatUserName(message.From), "chat_id", message.Chat.ID, "text", text)

	name, _ := parseCommand(text)
	if command := bot.CommandByName(name); command != nil {
		command.Call(ctx, message)
		return
	}

	// Неверно введенная команда
	bot.sendCommandSuggestions(ctx, message, name)
}
