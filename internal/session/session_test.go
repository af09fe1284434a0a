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

package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"Unbewohnte/SOSEDI/internal/domain"
	"Unbewohnte/SOSEDI/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const botToken = "123456:TEST-token"

type fakeBackend struct {
	mu       sync.Mutex
	users    map[int64]*domain.User
	getCalls int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{users: map[int64]*domain.User{
		1: {ID: 1, TelegramID: 777, FirstName: "Анна"},
	}}
}

func (b *fakeBackend) AuthTelegram(_ context.Context, identity domain.TelegramIdentity) (*domain.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, user := range b.users {
		if user.TelegramID == identity.ID {
			copied := *user
			return &copied, nil
		}
	}
	return nil, errors.New("unknown user")
}

func (b *fakeBackend) GetUser(_ context.Context, id int64) (*domain.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.getCalls++
	user, ok := b.users[id]
	if !ok {
		return nil, errors.New("not found")
	}
	copied := *user
	return &copied, nil
}

func (b *fakeBackend) Subcategories(context.Context, int64) ([]domain.Subcategory, error) {
	return nil, nil
}

func signedIdentity(authDate time.Time) domain.TelegramIdentity {
	identity := domain.TelegramIdentity{
		ID:        777,
		Username:  "anna",
		FirstName: "Анна",
		AuthDate:  authDate.Unix(),
	}
	identity.Hash = Sign(identity, botToken)
	return identity
}

func newTestManager(t *testing.T, backend Backend, now time.Time) *Manager {
	t.Helper()
	m, err := NewManager(backend, Options{
		BotToken:   botToken,
		Secret:     "test-secret",
		TTL:        time.Hour,
		MaxAuthAge: 24 * time.Hour,
	}, logger.Discard())
	require.NoError(t, err)
	m.now = func() time.Time { return now }
	return m
}

func TestVerifyTelegramLogin(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	identity := signedIdentity(now.Add(-time.Minute))

	assert.NoError(t, VerifyTelegramLogin(identity, botToken, time.Hour, now))

	tampered := identity
	tampered.FirstName = "Мария"
	assert.ErrorIs(t, VerifyTelegramLogin(tampered, botToken, time.Hour, now), ErrInvalidSignature)

	assert.ErrorIs(t, VerifyTelegramLogin(identity, "other:token", time.Hour, now), ErrInvalidSignature)

	old := signedIdentity(now.Add(-48 * time.Hour))
	assert.ErrorIs(t, VerifyTelegramLogin(old, botToken, 24*time.Hour, now), ErrExpired)
	assert.NoError(t, VerifyTelegramLogin(old, botToken, 0, now))
}

func TestDataCheckStringSkipsEmptyFields(t *testing.T) {
	identity := domain.TelegramIdentity{ID: 5, FirstName: "Ян", AuthDate: 100}
	assert.Equal(t, "auth_date=100\nfirst_name=Ян\nid=5", dataCheckString(identity))
}

func TestLoginAndRestore(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	backend := newFakeBackend()
	m := newTestManager(t, backend, now)

	s, token, err := m.Login(context.Background(), signedIdentity(now))
	require.NoError(t, err)
	assert.Equal(t, int64(1), s.User().ID)
	assert.NotEmpty(t, token)

	restored, err := m.Restore(context.Background(), token)
	require.NoError(t, err)
	assert.Same(t, s, restored)
	assert.Equal(t, 0, backend.getCalls)
}

func TestRestoreAfterRestart(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	backend := newFakeBackend()

	_, token, err := newTestManager(t, backend, now).Login(context.Background(), signedIdentity(now))
	require.NoError(t, err)

	// Новый менеджер с тем же секретом: сессий в памяти нет
	fresh := newTestManager(t, backend, now.Add(time.Minute))
	s, err := fresh.Restore(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "Анна", s.User().FirstName)
	assert.Equal(t, 1, backend.getCalls)
	assert.Equal(t, 1, fresh.Count())
}

func TestRestoreRejectsBadTokens(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	backend := newFakeBackend()
	m := newTestManager(t, backend, now)

	_, err := m.Restore(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoSession)

	_, err = m.Restore(context.Background(), "not.a.token")
	assert.ErrorIs(t, err, ErrInvalidSignature)

	_, token, err := m.Login(context.Background(), signedIdentity(now))
	require.NoError(t, err)

	m.now = func() time.Time { return now.Add(2 * time.Hour) }
	_, err = m.Restore(context.Background(), token)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestLogout(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	backend := newFakeBackend()
	m := newTestManager(t, backend, now)

	_, token, err := m.Login(context.Background(), signedIdentity(now))
	require.NoError(t, err)
	require.Equal(t, 1, m.Count())

	m.Logout(token)
	assert.Equal(t, 0, m.Count())

	_, err = m.Restore(context.Background(), token)
	assert.ErrorIs(t, err, ErrRevoked)
	assert.Equal(t, 0, m.Count())
	assert.Equal(t, 0, backend.getCalls)
}

func TestLogoutForgetsRevokedAfterExpiry(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	backend := newFakeBackend()
	m := newTestManager(t, backend, now)

	_, first, err := m.Login(context.Background(), signedIdentity(now))
	require.NoError(t, err)
	m.Logout(first)
	require.Len(t, m.revoked, 1)

	// Токен первой сессии уже истек, его отзыв больше не нужен
	later := now.Add(2 * time.Hour)
	m.now = func() time.Time { return later }
	_, second, err := m.Login(context.Background(), signedIdentity(later))
	require.NoError(t, err)
	m.Logout(second)
	assert.Len(t, m.revoked, 1)

	_, err = m.Restore(context.Background(), second)
	assert.ErrorIs(t, err, ErrRevoked)
}

func TestRefresh(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	backend := newFakeBackend()
	m := newTestManager(t, backend, now)

	s, _, err := m.Login(context.Background(), signedIdentity(now))
	require.NoError(t, err)

	backend.mu.Lock()
	backend.users[1].CustomFirstName = "Аня"
	backend.users[1].UseCustomName = true
	backend.mu.Unlock()

	require.NoError(t, m.Refresh(context.Background(), s))
	assert.Equal(t, "Аня", s.User().DisplayName())
}

func TestNewManagerRequiresSecret(t *testing.T) {
	_, err := NewManager(newFakeBackend(), Options{}, logger.Discard())
	assert.Error(t, err)
}
