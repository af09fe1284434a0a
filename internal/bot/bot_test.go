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
	"errors"
	"sync"
	"testing"
	"time"

	"Unbewohnte/SOSEDI/internal/config"
	"Unbewohnte/SOSEDI/internal/domain"
	"Unbewohnte/SOSEDI/internal/logger"
	"Unbewohnte/SOSEDI/internal/mirror"

	"github.com/mymmrac/telego"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	mu   sync.Mutex
	sent []*telego.SendMessageParams
}

func (f *fakeAPI) GetMe(context.Context) (*telego.User, error) {
	return &telego.User{Username: "sosedi_bot"}, nil
}

func (f *fakeAPI) SendMessage(_ context.Context, params *telego.SendMessageParams) (*telego.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, params)
	return &telego.Message{MessageID: len(f.sent)}, nil
}

func (f *fakeAPI) UpdatesViaLongPolling(context.Context, *telego.GetUpdatesParams, ...telego.LongPollingOption) (<-chan telego.Update, error) {
	return nil, errors.New("not used")
}

func (f *fakeAPI) last() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return ""
	}
	return f.sent[len(f.sent)-1].Text
}

type fakeStore struct {
	targets map[[2]int64]domain.Target
}

func newFakeStore() *fakeStore {
	return &fakeStore{targets: make(map[[2]int64]domain.Target)}
}

func (s *fakeStore) AddTarget(_ context.Context, target *domain.Target) (int64, error) {
	target.ID = int64(len(s.targets) + 1)
	target.CreatedAt = time.Now()
	s.targets[[2]int64{target.ChatID, int64(target.ThreadID)}] = *target
	return target.ID, nil
}

func (s *fakeStore) RemoveTarget(_ context.Context, chatID int64, threadID int) (bool, error) {
	key := [2]int64{chatID, int64(threadID)}
	_, ok := s.targets[key]
	delete(s.targets, key)
	return ok, nil
}

func (s *fakeStore) ListTargets(context.Context) ([]domain.Target, error) {
	var targets []domain.Target
	for _, target := range s.targets {
		targets = append(targets, target)
	}
	return targets, nil
}

func (s *fakeStore) GetTarget(_ context.Context, chatID int64, threadID int) (*domain.Target, error) {
	target, ok := s.targets[[2]int64{chatID, int64(threadID)}]
	if !ok {
		return nil, nil
	}
	return &target, nil
}

func (s *fakeStore) CountMirrors(context.Context) (int64, error) {
	return 0, nil
}

type fakeMirrors struct {
	mirrors []domain.MirrorMessage
	report  mirror.Report
}

func (f *fakeMirrors) Mirrors(context.Context, int64) ([]domain.MirrorMessage, error) {
	return f.mirrors, nil
}

func (f *fakeMirrors) Resync(context.Context, int64) (mirror.Report, error) {
	return f.report, nil
}

func newTestBot() (*Bot, *fakeAPI, *fakeStore, *fakeMirrors) {
	api := &fakeAPI{}
	store := newFakeStore()
	mirrors := &fakeMirrors{}

	conf := config.DefaultConfig()
	conf.Telegram.AllowedUserIDs = []int64{1}

	bot := NewBot(api, conf, store, mirrors, mirrors, logger.Discard())
	bot.Init()
	return bot, api, store, mirrors
}

func message(chatType string, fromID int64, text string) *telego.Message {
	return &telego.Message{
		MessageID: 10,
		Chat:      telego.Chat{ID: -1001234, Type: chatType, Title: "Дом 5"},
		From:      &telego.User{ID: fromID, FirstName: "Иван"},
		Text:      text,
	}
}

func TestMinDistance(t *testing.T) {
	assert.Equal(t, 0, minDistance("help", "help"))
	assert.Equal(t, 2, minDistance("hepl", "help"))
	assert.Equal(t, 3, minDistance("", "abc"))
	assert.Equal(t, 1, minDistance("кот", "кит"))
}

func TestFindSimilarCommands(t *testing.T) {
	bot, _, _, _ := newTestBot()

	suggestions := bot.findSimilarCommands("targes")
	require.Len(t, suggestions, 3)
	assert.Equal(t, "targets", suggestions[0])
}

func TestParseCommand(t *testing.T) {
	name, args := parseCommand("/AddTarget@sosedi_bot  -100123   7")
	assert.Equal(t, "addtarget", name)
	assert.Equal(t, []string{"-100123", "7"}, args)

	name, args = parseCommand("")
	assert.Empty(t, name)
	assert.Empty(t, args)
}

func TestParseTargetArgs(t *testing.T) {
	msg := message(telego.ChatTypeSupergroup, 1, "/addtarget")
	msg.MessageThreadID = 4

	chatID, threadID, err := parseTargetArgs(msg, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(-1001234), chatID)
	assert.Equal(t, 4, threadID)

	chatID, threadID, err = parseTargetArgs(msg, []string{"-100999"})
	require.NoError(t, err)
	assert.Equal(t, int64(-100999), chatID)
	assert.Equal(t, 0, threadID)

	_, _, err = parseTargetArgs(msg, []string{"abc"})
	assert.Error(t, err)
	_, _, err = parseTargetArgs(msg, []string{"-1", "-5"})
	assert.Error(t, err)
}

func TestUnknownUserRefused(t *testing.T) {
	bot, api, _, _ := newTestBot()

	bot.handleMessage(context.Background(), message(telego.ChatTypePrivate, 2, "/targets"))
	assert.Equal(t, "Вам не разрешено пользоваться этим ботом!", api.last())
}

func TestGroupChatterIgnored(t *testing.T) {
	bot, api, _, _ := newTestBot()

	bot.handleMessage(context.Background(), message(telego.ChatTypeSupergroup, 2, "продам шкаф"))
	assert.Empty(t, api.sent)
}

func TestUnknownCommandSuggestions(t *testing.T) {
	bot, api, _, _ := newTestBot()

	bot.handleMessage(context.Background(), message(telego.ChatTypePrivate, 1, "/hepl"))
	assert.Contains(t, api.last(), "Неизвестная команда")
	assert.Contains(t, api.last(), "/help")
}

func TestAddAndRemoveTarget(t *testing.T) {
	bot, api, store, _ := newTestBot()
	ctx := context.Background()

	bot.handleMessage(ctx, message(telego.ChatTypeSupergroup, 1, "/addtarget"))
	assert.Contains(t, api.last(), "Чат добавлен")
	require.Len(t, store.targets, 1)

	bot.handleMessage(ctx, message(telego.ChatTypeSupergroup, 1, "/addtarget"))
	assert.Contains(t, api.last(), "уже добавлен")

	bot.handleMessage(ctx, message(telego.ChatTypeSupergroup, 1, "/rmtarget -1001234"))
	assert.Contains(t, api.last(), "Чат успешно удален")
	assert.Empty(t, store.targets)

	bot.handleMessage(ctx, message(telego.ChatTypeSupergroup, 1, "/rmtarget"))
	assert.Contains(t, api.last(), "не найден")
}

func TestResyncReport(t *testing.T) {
	bot, api, _, mirrors := newTestBot()
	ctx := context.Background()

	mirrors.report = mirror.Report{Succeeded: 2}
	bot.handleMessage(ctx, message(telego.ChatTypePrivate, 1, "/resync 5"))
	assert.Contains(t, api.last(), "Синхронизировано сообщений: 2")

	mirrors.report = mirror.Report{Succeeded: 1, Failed: 1}
	bot.handleMessage(ctx, message(telego.ChatTypePrivate, 1, "/resync 5"))
	assert.Contains(t, api.last(), "с ошибкой 1")

	bot.handleMessage(ctx, message(telego.ChatTypePrivate, 1, "/resync"))
	assert.Contains(t, api.last(), "ID объявления не указан")
}

func TestListMirrors(t *testing.T) {
	bot, api, _, mirrors := newTestBot()

	mirrors.mirrors = []domain.MirrorMessage{{AnnouncementID: 5, ChatID: -1001234, MessageID: 77}}
	bot.handleMessage(context.Background(), message(telego.ChatTypePrivate, 1, "/mirrors 5"))
	assert.Contains(t, api.last(), "https://t.me/c/1234/77")
}

func TestAddUserKeepsListUnique(t *testing.T) {
	bot, api, _, _ := newTestBot()
	ctx := context.Background()

	// Путь к файлу не задан, поэтому сохранение только логирует ошибку
	config.CONFIG_PATH = ""

	bot.handleMessage(ctx, message(telego.ChatTypePrivate, 1, "/adduser 55"))
	assert.Contains(t, api.last(), "успешно добавлен")
	bot.handleMessage(ctx, message(telego.ChatTypePrivate, 1, "/adduser 55"))
	assert.Contains(t, api.last(), "уже есть")
	assert.Equal(t, []int64{1, 55}, bot.conf.Telegram.AllowedUserIDs)

	bot.handleMessage(ctx, message(telego.ChatTypePrivate, 1, "/rmuser 55"))
	assert.Equal(t, []int64{1}, bot.conf.Telegram.AllowedUserIDs)
}
