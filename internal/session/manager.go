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

// Package session хранит явные сессии пользователей сайта.
//
// При входе данные виджета Telegram проверяются и обмениваются на пользователя
// платформы. Клиент получает cookie с подписанным JWT, в котором записаны
// идентификатор сессии и пользователя. После перезапуска сервиса сессия
// восстанавливается по этому токену с повторным запросом пользователя у бэкенда.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"Unbewohnte/SOSEDI/internal/catalog"
	"Unbewohnte/SOSEDI/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const CookieName = "sosedi_session"

var (
	ErrNoSession = errors.New("сессия не найдена")
	ErrRevoked   = errors.New("сессия завершена")
)

type Backend interface {
	catalog.SubcategoryFetcher
	AuthTelegram(ctx context.Context, identity domain.TelegramIdentity) (*domain.User, error)
	GetUser(ctx context.Context, id int64) (*domain.User, error)
}

type Session struct {
	ID        string
	ExpiresAt time.Time
	Selection *catalog.Selection

	mu   sync.RWMutex
	user domain.User
}

// User возвращает копию текущего пользователя сессии
func (s *Session) User() *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user := s.user
	return &user
}

func (s *Session) setUser(user *domain.User) {
	s.mu.Lock()
	s.user = *user
	s.mu.Unlock()
}

type claims struct {
	SessionID string `json:"sid"`
	UserID    int64  `json:"uid"`
	jwt.RegisteredClaims
}

type Options struct {
	BotToken     string
	Secret       string
	TTL          time.Duration
	MaxAuthAge   time.Duration
	SecureCookie bool
}

type Manager struct {
	backend Backend
	opts    Options
	secret  []byte
	log     *slog.Logger

	// Подменяется в тестах
	now func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
	// Завершенные сессии и срок действия их токенов
	revoked map[string]time.Time
}

func NewManager(backend Backend, opts Options, log *slog.Logger) (*Manager, error) {
	if opts.Secret == "" {
		return nil, fmt.Errorf("session secret cannot be empty")
	}
	if opts.TTL <= 0 {
		opts.TTL = 30 * 24 * time.Hour
	}

	return &Manager{
		backend:  backend,
		opts:     opts,
		secret:   []byte(opts.Secret),
		log:      log.With("component", "session"),
		now:      time.Now,
		sessions: make(map[string]*Session),
		revoked:  make(map[string]time.Time),
	}, nil
}

func (m *Manager) newSession(id string, user *domain.User, expiresAt time.Time) *Session {
	s := &Session{
		ID:        id,
		ExpiresAt: expiresAt,
		Selection: catalog.NewSelection(m.backend),
	}
	s.setUser(user)

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	return s
}

// Login проверяет данные виджета, получает пользователя от бэкенда
// и открывает новую сессию. Возвращается сессия и токен для cookie.
func (m *Manager) Login(ctx context.Context, identity domain.TelegramIdentity) (*Session, string, error) {
	if err := VerifyTelegramLogin(identity, m.opts.BotToken, m.opts.MaxAuthAge, m.now()); err != nil {
		m.log.Warn("Отклонены данные входа Telegram", "telegram_id", identity.ID, "error", err)
		return nil, "", err
	}

	user, err := m.backend.AuthTelegram(ctx, identity)
	if err != nil {
		return nil, "", fmt.Errorf("failed to exchange telegram identity: %w", err)
	}

	expiresAt := m.now().Add(m.opts.TTL)
	s := m.newSession(uuid.NewString(), user, expiresAt)

	token, err := m.sign(s.ID, user.ID, expiresAt)
	if err != nil {
		m.drop(s.ID)
		return nil, "", err
	}

	m.log.Info("Пользователь вошел", "user_id", user.ID, "session_id", s.ID)
	return s, token, nil
}

func (m *Manager) sign(sessionID string, userID int64, expiresAt time.Time) (string, error) {
	now := m.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims{
		SessionID: sessionID,
		UserID:    userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

func (m *Manager) parse(token string) (*claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrInvalidSignature
	}

	c, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid || c.SessionID == "" || c.UserID == 0 {
		return nil, ErrInvalidSignature
	}
	return c, nil
}

// Restore находит сессию по токену из cookie. Если сервис был перезапущен
// и сессии в памяти нет, она заново собирается из данных бэкенда.
func (m *Manager) Restore(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrNoSession
	}

	c, err := m.parse(token)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	s, ok := m.sessions[c.SessionID]
	_, revoked := m.revoked[c.SessionID]
	m.mu.Unlock()
	if revoked {
		return nil, ErrRevoked
	}
	if ok {
		if m.now().After(s.ExpiresAt) {
			m.drop(s.ID)
			return nil, ErrExpired
		}
		return s, nil
	}

	user, err := m.backend.GetUser(ctx, c.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to reconcile session %s: %w", c.SessionID, err)
	}

	m.log.Debug("Сессия восстановлена", "user_id", user.ID, "session_id", c.SessionID)
	return m.newSession(c.SessionID, user, c.ExpiresAt.Time), nil
}

// Refresh перечитывает пользователя у бэкенда, например после правки профиля
func (m *Manager) Refresh(ctx context.Context, s *Session) error {
	user, err := m.backend.GetUser(ctx, s.User().ID)
	if err != nil {
		return err
	}
	s.setUser(user)
	return nil
}

// Logout закрывает сессию. Токен отзывается до истечения своего срока,
// иначе Restore собрал бы сессию заново. Отсутствие сессии ошибкой не считается.
func (m *Manager) Logout(token string) {
	c, err := m.parse(token)
	if err != nil {
		return
	}

	now := m.now()
	m.mu.Lock()
	delete(m.sessions, c.SessionID)
	for id, expiresAt := range m.revoked {
		if now.After(expiresAt) {
			delete(m.revoked, id)
		}
	}
	m.revoked[c.SessionID] = c.ExpiresAt.Time
	m.mu.Unlock()
}

func (m *Manager) drop(sessionID string) {
	m.mu.Lock()
	delete(m.sessions, sessionID)
	m.mu.Unlock()
}

func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) Cookie(token string, expiresAt time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   m.opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	}
}

func (m *Manager) ClearCookie() *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	}
}
