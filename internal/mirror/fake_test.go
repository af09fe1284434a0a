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
	"sync"
	"time"

	"Unbewohnte/SOSEDI/internal/domain"

	"github.com/mymmrac/telego"
	"github.com/mymmrac/telego/telegoapi"
)

type call struct {
	Method    string
	ChatID    int64
	ThreadID  int
	MessageID int
}

// fakeMessenger записывает вызовы; ответы определяются функцией fail
type fakeMessenger struct {
	mu     sync.Mutex
	calls  []call
	nextID int

	// fail возвращает ошибку для вызова или nil
	fail func(c call) error
}

func (f *fakeMessenger) record(c call) error {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	fail := f.fail
	f.mu.Unlock()

	if fail != nil {
		return fail(c)
	}
	return nil
}

func (f *fakeMessenger) message() *telego.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	return &telego.Message{MessageID: 100 + f.nextID}
}

func (f *fakeMessenger) Calls() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

func (f *fakeMessenger) methods() []string {
	var methods []string
	for _, c := range f.Calls() {
		methods = append(methods, c.Method)
	}
	return methods
}

func (f *fakeMessenger) SendMessage(_ context.Context, p *telego.SendMessageParams) (*telego.Message, error) {
	if err := f.record(call{Method: "sendMessage", ChatID: p.ChatID.ID, ThreadID: p.MessageThreadID}); err != nil {
		return nil, err
	}
	return f.message(), nil
}

func (f *fakeMessenger) SendPhoto(_ context.Context, p *telego.SendPhotoParams) (*telego.Message, error) {
	if err := f.record(call{Method: "sendPhoto", ChatID: p.ChatID.ID, ThreadID: p.MessageThreadID}); err != nil {
		return nil, err
	}
	return f.message(), nil
}

func (f *fakeMessenger) EditMessageMedia(_ context.Context, p *telego.EditMessageMediaParams) (*telego.Message, error) {
	return nil, f.record(call{Method: "editMessageMedia", ChatID: p.ChatID.ID, MessageID: p.MessageID})
}

func (f *fakeMessenger) EditMessageCaption(_ context.Context, p *telego.EditMessageCaptionParams) (*telego.Message, error) {
	return nil, f.record(call{Method: "editMessageCaption", ChatID: p.ChatID.ID, MessageID: p.MessageID})
}

func (f *fakeMessenger) EditMessageText(_ context.Context, p *telego.EditMessageTextParams) (*telego.Message, error) {
	return nil, f.record(call{Method: "editMessageText", ChatID: p.ChatID.ID, MessageID: p.MessageID})
}

func (f *fakeMessenger) DeleteMessage(_ context.Context, p *telego.DeleteMessageParams) error {
	return f.record(call{Method: "deleteMessage", ChatID: p.ChatID.ID, MessageID: p.MessageID})
}

type memoryStore struct {
	mu      sync.Mutex
	mirrors map[int64]domain.MirrorMessage
	nextID  int64
}

func newMemoryStore(initial ...domain.MirrorMessage) *memoryStore {
	store := &memoryStore{mirrors: make(map[int64]domain.MirrorMessage)}
	for _, m := range initial {
		store.nextID++
		if m.ID == 0 {
			m.ID = store.nextID
		}
		store.mirrors[m.ID] = m
	}
	return store
}

func (s *memoryStore) SaveMirror(_ context.Context, m *domain.MirrorMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	m.ID = s.nextID
	s.mirrors[m.ID] = *m
	return nil
}

func (s *memoryStore) MirrorsFor(_ context.Context, announcementID int64) ([]domain.MirrorMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []domain.MirrorMessage
	for _, m := range s.mirrors {
		if m.AnnouncementID == announcementID {
			result = append(result, m)
		}
	}
	return result, nil
}

func (s *memoryStore) DeleteMirror(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.mirrors, id)
	return nil
}

type staticTargets []domain.Target

func (t staticTargets) ListTargets(context.Context) ([]domain.Target, error) {
	return t, nil
}

func tgError(code int, description string) error {
	return &telegoapi.Error{ErrorCode: code, Description: description}
}

func noSleep(context.Context, time.Duration) error {
	return nil
}
