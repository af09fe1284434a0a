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

package mirror

import (
	"context"
	"errors"
	"testing"

	"Unbewohnte/SOSEDI/internal/domain"
	"Unbewohnte/SOSEDI/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSynchronizer(messenger Messenger, store Store, targets TargetSource, static ...domain.Target) *Synchronizer {
	retry := DefaultRetryPolicy()
	retry.Sleep = noSleep

	return NewSynchronizer(messenger, store, targets, Options{
		StaticTargets: static,
		Renderer:      Renderer{SiteURL: "https://sosedi.example"},
		Retry:         retry,
	}, logger.Discard())
}

func testAnnouncement(images ...string) *domain.Announcement {
	return &domain.Announcement{
		ID:          7,
		Title:       "Продам велосипед",
		Description: "Почти новый",
		Price:       domain.NewPrice(15000),
		Status:      domain.StatusActive,
		Images:      domain.NormalizeImages(images, 0),
	}
}

func TestTargetsDeduplicated(t *testing.T) {
	sync := newTestSynchronizer(&fakeMessenger{}, newMemoryStore(),
		staticTargets{{ChatID: -1}, {ChatID: -2, ThreadID: 5}},
		domain.Target{ChatID: -1}, domain.Target{ChatID: -2},
	)

	targets, err := sync.Targets(context.Background())
	require.NoError(t, err)
	require.Len(t, targets, 3)
	assert.Equal(t, int64(-1), targets[0].ChatID)
	assert.Equal(t, int64(-2), targets[1].ChatID)
	assert.Equal(t, 0, targets[1].ThreadID)
	assert.Equal(t, 5, targets[2].ThreadID)
}

func TestCreateRecordsEverySuccess(t *testing.T) {
	messenger := &fakeMessenger{}
	store := newMemoryStore()
	sync := newTestSynchronizer(messenger, store, staticTargets{{ChatID: -1}, {ChatID: -2}})

	report, err := sync.Create(context.Background(), testAnnouncement(), nil)
	require.NoError(t, err)
	assert.Equal(t, Report{Succeeded: 2}, report)
	assert.True(t, report.OK())

	mirrors, err := store.MirrorsFor(context.Background(), 7)
	require.NoError(t, err)
	assert.Len(t, mirrors, 2)
	assert.ElementsMatch(t, []string{"sendMessage", "sendMessage"}, messenger.methods())
}

func TestCreateSendsPhotoWhenImagePresent(t *testing.T) {
	messenger := &fakeMessenger{}
	sync := newTestSynchronizer(messenger, newMemoryStore(), staticTargets{{ChatID: -1, ThreadID: 3}})

	_, err := sync.Create(context.Background(), testAnnouncement("https://img/1.jpg"), nil)
	require.NoError(t, err)

	calls := messenger.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "sendPhoto", calls[0].Method)
	assert.Equal(t, 3, calls[0].ThreadID)
}

func TestCreatePartialFailure(t *testing.T) {
	messenger := &fakeMessenger{fail: func(c call) error {
		if c.ChatID == -2 {
			return tgError(403, "Forbidden: bot was kicked from the group chat")
		}
		return nil
	}}
	store := newMemoryStore()
	sync := newTestSynchronizer(messenger, store, staticTargets{{ChatID: -1}, {ChatID: -2}})

	report, err := sync.Create(context.Background(), testAnnouncement(), nil)
	require.NoError(t, err)
	assert.Equal(t, Report{Succeeded: 1, Failed: 1}, report)
	assert.False(t, report.OK())

	mirrors, err := store.MirrorsFor(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, mirrors, 1)
	assert.Equal(t, int64(-1), mirrors[0].ChatID)
}

func TestEditFallsBackToText(t *testing.T) {
	messenger := &fakeMessenger{fail: func(c call) error {
		switch c.Method {
		case "editMessageMedia", "editMessageCaption":
			return tgError(400, "Bad Request: there is no caption in the message to edit")
		}
		return nil
	}}
	store := newMemoryStore(domain.MirrorMessage{AnnouncementID: 7, ChatID: -1, MessageID: 42})
	sync := newTestSynchronizer(messenger, store, nil)

	report, err := sync.Edit(context.Background(), testAnnouncement("https://img/1.jpg"), nil)
	require.NoError(t, err)
	assert.Equal(t, Report{Succeeded: 1}, report)
	assert.Equal(t, []string{"editMessageMedia", "editMessageCaption", "editMessageText"}, messenger.methods())
}

func TestEditSkipsMediaWithoutImage(t *testing.T) {
	messenger := &fakeMessenger{}
	store := newMemoryStore(domain.MirrorMessage{AnnouncementID: 7, ChatID: -1, MessageID: 42})
	sync := newTestSynchronizer(messenger, store, nil)

	_, err := sync.Edit(context.Background(), testAnnouncement(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"editMessageCaption"}, messenger.methods())
}

func TestEditNotModifiedIsSuccess(t *testing.T) {
	messenger := &fakeMessenger{fail: func(c call) error {
		return tgError(400, "Bad Request: message is not modified: specified new message content and reply markup are exactly the same")
	}}
	store := newMemoryStore(domain.MirrorMessage{AnnouncementID: 7, ChatID: -1, MessageID: 42})
	sync := newTestSynchronizer(messenger, store, nil)

	report, err := sync.Edit(context.Background(), testAnnouncement("https://img/1.jpg"), nil)
	require.NoError(t, err)
	assert.Equal(t, Report{Succeeded: 1}, report)
	assert.Equal(t, []string{"editMessageMedia"}, messenger.methods())
}

func TestEditAllStrategiesFail(t *testing.T) {
	messenger := &fakeMessenger{fail: func(c call) error {
		return tgError(400, "Bad Request: chat not found")
	}}
	store := newMemoryStore(
		domain.MirrorMessage{AnnouncementID: 7, ChatID: -1, MessageID: 42},
		domain.MirrorMessage{AnnouncementID: 7, ChatID: -2, MessageID: 43},
	)
	sync := newTestSynchronizer(messenger, store, nil)

	report, err := sync.Edit(context.Background(), testAnnouncement(), nil)
	require.NoError(t, err)
	assert.Equal(t, Report{Failed: 2}, report)

	// Записи остаются: правку можно повторить позже
	mirrors, err := store.MirrorsFor(context.Background(), 7)
	require.NoError(t, err)
	assert.Len(t, mirrors, 2)
}

func TestDeleteIsIndependentPerMessage(t *testing.T) {
	messenger := &fakeMessenger{fail: func(c call) error {
		if c.MessageID == 43 {
			return tgError(400, "Bad Request: message can't be deleted")
		}
		return nil
	}}
	store := newMemoryStore(
		domain.MirrorMessage{AnnouncementID: 7, ChatID: -1, MessageID: 42},
		domain.MirrorMessage{AnnouncementID: 7, ChatID: -2, MessageID: 43},
		domain.MirrorMessage{AnnouncementID: 7, ChatID: -3, MessageID: 44},
	)
	sync := newTestSynchronizer(messenger, store, nil)

	report, err := sync.Delete(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, Report{Succeeded: 2, Failed: 1}, report)

	var deleted []int
	for _, c := range messenger.Calls() {
		deleted = append(deleted, c.MessageID)
	}
	assert.ElementsMatch(t, []int{42, 43, 44}, deleted)

	mirrors, err := store.MirrorsFor(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, mirrors, 1)
	assert.Equal(t, 43, mirrors[0].MessageID)
}

func TestDeleteAlreadyGoneDropsRecord(t *testing.T) {
	messenger := &fakeMessenger{fail: func(c call) error {
		return tgError(400, "Bad Request: message to delete not found")
	}}
	store := newMemoryStore(domain.MirrorMessage{AnnouncementID: 7, ChatID: -1, MessageID: 42})
	sync := newTestSynchronizer(messenger, store, nil)

	report, err := sync.Delete(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, Report{Succeeded: 1}, report)

	mirrors, err := store.MirrorsFor(context.Background(), 7)
	require.NoError(t, err)
	assert.Empty(t, mirrors)
}

func TestDeleteRetriesServerErrors(t *testing.T) {
	attempts := 0
	messenger := &fakeMessenger{fail: func(c call) error {
		attempts++
		if attempts < 3 {
			return tgError(502, "Bad Gateway")
		}
		return nil
	}}
	store := newMemoryStore(domain.MirrorMessage{AnnouncementID: 7, ChatID: -1, MessageID: 42})
	sync := newTestSynchronizer(messenger, store, nil)

	report, err := sync.Delete(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, Report{Succeeded: 1}, report)
	assert.Equal(t, 3, attempts)
}

type failingTargets struct{}

func (failingTargets) ListTargets(context.Context) ([]domain.Target, error) {
	return nil, errors.New("database is locked")
}

func TestCreateTargetsError(t *testing.T) {
	sync := newTestSynchronizer(&fakeMessenger{}, newMemoryStore(), failingTargets{})

	_, err := sync.Create(context.Background(), testAnnouncement(), nil)
	assert.Error(t, err)
}
