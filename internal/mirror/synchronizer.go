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

// Package mirror поддерживает копии объявлений в чатах Telegram
// в соответствии с записью на бэкенде.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"Unbewohnte/SOSEDI/internal/domain"

	"github.com/mymmrac/telego"
	"golang.org/x/sync/errgroup"
)

// Сколько запросов к Bot API выполняется одновременно
const fanOutLimit = 4

type Store interface {
	SaveMirror(ctx context.Context, mirror *domain.MirrorMessage) error
	MirrorsFor(ctx context.Context, announcementID int64) ([]domain.MirrorMessage, error)
	DeleteMirror(ctx context.Context, id int64) error
}

type TargetSource interface {
	ListTargets(ctx context.Context) ([]domain.Target, error)
}

// Report - итог рассылки: сколько чатов/сообщений обработано успешно и сколько нет
type Report struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

func (r Report) OK() bool {
	return r.Failed == 0
}

func (r *Report) add(other Report) {
	r.Succeeded += other.Succeeded
	r.Failed += other.Failed
}

type Synchronizer struct {
	messenger  Messenger
	store      Store
	targets    TargetSource
	static     []domain.Target
	renderer   Renderer
	retry      RetryPolicy
	strategies []EditStrategy
	log        *slog.Logger
}

type Options struct {
	// Чаты из конфигурации, в дополнение к сохраненным в базе
	StaticTargets []domain.Target
	Renderer      Renderer
	Retry         RetryPolicy
	Strategies    []EditStrategy
}

func NewSynchronizer(messenger Messenger, store Store, targets TargetSource, opts Options, log *slog.Logger) *Synchronizer {
	if opts.Strategies == nil {
		opts.Strategies = DefaultEditStrategies()
	}

	return &Synchronizer{
		messenger:  messenger,
		store:      store,
		targets:    targets,
		static:     opts.StaticTargets,
		renderer:   opts.Renderer,
		retry:      opts.Retry,
		strategies: opts.Strategies,
		log:        log.With("component", "mirror"),
	}
}

// Targets возвращает все чаты для рассылки без повторов (чат, топик)
func (s *Synchronizer) Targets(ctx context.Context) ([]domain.Target, error) {
	type key struct {
		chatID   int64
		threadID int
	}
	seen := make(map[key]bool)

	var all []domain.Target
	appendUnique := func(targets []domain.Target) {
		for _, target := range targets {
			k := key{target.ChatID, target.ThreadID}
			if target.ChatID == 0 || seen[k] {
				continue
			}
			seen[k] = true
			all = append(all, target)
		}
	}

	appendUnique(s.static)
	if s.targets != nil {
		stored, err := s.targets.ListTargets(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list mirror targets: %w", err)
		}
		appendUnique(stored)
	}

	return all, nil
}

func (s *Synchronizer) Mirrors(ctx context.Context, announcementID int64) ([]domain.MirrorMessage, error) {
	return s.store.MirrorsFor(ctx, announcementID)
}

// Create публикует объявление в каждый чат независимо: ошибка в одном чате
// не мешает остальным. На каждую успешную отправку сохраняется запись.
func (s *Synchronizer) Create(ctx context.Context, a *domain.Announcement, author *domain.User) (Report, error) {
	targets, err := s.Targets(ctx)
	if err != nil {
		return Report{}, err
	}

	content := s.renderer.Content(a, author)
	log := s.log.With("announcement_id", a.ID)

	var mu sync.Mutex
	var report Report
	var g errgroup.Group
	g.SetLimit(fanOutLimit)

	for _, target := range targets {
		g.Go(func() error {
			outcome := s.publish(ctx, log, a.ID, target, content)
			mu.Lock()
			report.add(outcome)
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	log.Info("Объявление опубликовано в чатах", "succeeded", report.Succeeded, "failed", report.Failed)
	return report, nil
}

func (s *Synchronizer) publish(ctx context.Context, log *slog.Logger, announcementID int64, target domain.Target, content Content) Report {
	log = log.With("chat_id", target.ChatID, "thread_id", target.ThreadID)

	var sent *telego.Message
	err := s.retry.Do(ctx, func(ctx context.Context) error {
		var err error
		sent, err = s.send(ctx, target, content)
		return err
	})
	if err != nil {
		log.Error("Не удалось отправить объявление в чат", "error", err)
		return Report{Failed: 1}
	}

	mirror := &domain.MirrorMessage{
		AnnouncementID: announcementID,
		ChatID:         target.ChatID,
		ThreadID:       target.ThreadID,
		MessageID:      sent.MessageID,
	}
	if err := s.store.SaveMirror(ctx, mirror); err != nil {
		// Сообщение в чате есть, но без записи его не получится обновить
		log.Error("Не удалось сохранить сообщение-зеркало", "message_id", sent.MessageID, "error", err)
		return Report{Failed: 1}
	}

	log.Debug("Объявление отправлено", "message_id", sent.MessageID)
	return Report{Succeeded: 1}
}

// Одно изображение (главное) отправляется вместе с подписью
func (s *Synchronizer) send(ctx context.Context, target domain.Target, content Content) (*telego.Message, error) {
	chatID := telego.ChatID{ID: target.ChatID}

	if content.ImageURL != "" {
		return s.messenger.SendPhoto(ctx, &telego.SendPhotoParams{
			ChatID:          chatID,
			MessageThreadID: target.ThreadID,
			Photo:           telego.InputFile{URL: content.ImageURL},
			Caption:         content.Caption,
			ParseMode:       parseModeHTML,
		})
	}

	return s.messenger.SendMessage(ctx, &telego.SendMessageParams{
		ChatID:          chatID,
		MessageThreadID: target.ThreadID,
		Text:            content.Text,
		ParseMode:       parseModeHTML,
	})
}

// Edit перерисовывает все известные сообщения-зеркала объявления
func (s *Synchronizer) Edit(ctx context.Context, a *domain.Announcement, author *domain.User) (Report, error) {
	mirrors, err := s.store.MirrorsFor(ctx, a.ID)
	if err != nil {
		return Report{}, fmt.Errorf("failed to load mirrors of %d: %w", a.ID, err)
	}

	content := s.renderer.Content(a, author)
	log := s.log.With("announcement_id", a.ID)

	report := s.forEach(mirrors, func(mirror domain.MirrorMessage) Report {
		strategy, err := s.edit(ctx, mirror, content)
		if err != nil {
			log.Error("Не удалось обновить сообщение-зеркало",
				"chat_id", mirror.ChatID, "message_id", mirror.MessageID, "error", err)
			return Report{Failed: 1}
		}
		log.Debug("Сообщение-зеркало обновлено", "chat_id", mirror.ChatID, "message_id", mirror.MessageID, "strategy", strategy)
		return Report{Succeeded: 1}
	})

	log.Info("Сообщения-зеркала обновлены", "succeeded", report.Succeeded, "failed", report.Failed)
	return report, nil
}

// edit пробует стратегии по порядку и останавливается на первой успешной
func (s *Synchronizer) edit(ctx context.Context, mirror domain.MirrorMessage, content Content) (string, error) {
	var errs []error
	for _, strategy := range s.strategies {
		err := s.retry.Do(ctx, func(ctx context.Context) error {
			return strategy.Apply(ctx, s.messenger, mirror, content)
		})
		if err == nil || isNotModified(err) {
			return strategy.Name, nil
		}
		if errors.Is(err, errNotApplicable) {
			continue
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		errs = append(errs, fmt.Errorf("%s: %w", strategy.Name, err))
	}

	if len(errs) == 0 {
		return "", errors.New("ни одна стратегия не применима")
	}
	return "", errors.Join(errs...)
}

// Delete удаляет все сообщения-зеркала объявления. Каждое удаление независимо.
func (s *Synchronizer) Delete(ctx context.Context, announcementID int64) (Report, error) {
	mirrors, err := s.store.MirrorsFor(ctx, announcementID)
	if err != nil {
		return Report{}, fmt.Errorf("failed to load mirrors of %d: %w", announcementID, err)
	}

	log := s.log.With("announcement_id", announcementID)

	report := s.forEach(mirrors, func(mirror domain.MirrorMessage) Report {
		err := s.retry.Do(ctx, func(ctx context.Context) error {
			return s.messenger.DeleteMessage(ctx, &telego.DeleteMessageParams{
				ChatID:    telego.ChatID{ID: mirror.ChatID},
				MessageID: mirror.MessageID,
			})
		})
		if err != nil && !isMessageGone(err) {
			log.Error("Не удалось удалить сообщение-зеркало",
				"chat_id", mirror.ChatID, "message_id", mirror.MessageID, "error", err)
			return Report{Failed: 1}
		}

		if err := s.store.DeleteMirror(ctx, mirror.ID); err != nil {
			log.Error("Не удалось удалить запись о сообщении-зеркале", "mirror_id", mirror.ID, "error", err)
			return Report{Failed: 1}
		}

		return Report{Succeeded: 1}
	})

	log.Info("Сообщения-зеркала удалены", "succeeded", report.Succeeded, "failed", report.Failed)
	return report, nil
}

// forEach обрабатывает сообщения параллельно и дожидается всех
func (s *Synchronizer) forEach(mirrors []domain.MirrorMessage, fn func(domain.MirrorMessage) Report) Report {
	var mu sync.Mutex
	var report Report
	var g errgroup.Group
	g.SetLimit(fanOutLimit)

	for _, mirror := range mirrors {
		g.Go(func() error {
			outcome := fn(mirror)
			mu.Lock()
			report.add(outcome)
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	return report
}
