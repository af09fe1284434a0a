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

package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"Unbewohnte/SOSEDI/internal/contextkeys"
	"Unbewohnte/SOSEDI/internal/session"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

type sessionKeyType struct{}

var sessionKey = sessionKeyType{}

// LoggerMiddleware создает контекстный логгер и trace_id для каждого запроса
func LoggerMiddleware(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			traceID := r.Header.Get("X-Trace-ID")
			if _, err := uuid.Parse(traceID); err != nil {
				traceID = uuid.New().String()
			}

			requestLogger := logger.With("trace_id", traceID)
			httpLogger := requestLogger.With(
				"http_method", r.Method,
				"http_path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
			)

			ctx := r.Context()
			ctx = contextkeys.ContextWithLogger(ctx, requestLogger)
			ctx = contextkeys.ContextWithTraceID(ctx, traceID)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			ww.Header().Set("X-Trace-ID", traceID)
			startTime := time.Now()

			httpLogger.Debug("Request started")

			next.ServeHTTP(ww, r.WithContext(ctx))

			httpLogger.Info("Request finished",
				"status_code", ww.Status(),
				"bytes_written", ww.BytesWritten(),
				"duration_ms", time.Since(startTime).Milliseconds(),
			)
		})
	}
}

// SessionMiddleware восстанавливает сессию из cookie, если она есть.
// Запрос без сессии проходит дальше; доступ проверяет requireSession.
func (s *Server) SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(session.CookieName)
		if err != nil || cookie.Value == "" {
			next.ServeHTTP(w, r)
			return
		}

		sess, err := s.sessions.Restore(r.Context(), cookie.Value)
		if err != nil {
			logger := contextkeys.LoggerFromContext(r.Context(), s.log)
			logger.Debug("Сессия не восстановлена", "error", err)
			if errors.Is(err, session.ErrExpired) || errors.Is(err, session.ErrInvalidSignature) || errors.Is(err, session.ErrRevoked) {
				http.SetCookie(w, s.sessions.ClearCookie())
			}
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), sessionKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionFrom(ctx context.Context) (*session.Session, bool) {
	sess, ok := ctx.Value(sessionKey).(*session.Session)
	return sess, ok && sess != nil
}

func requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := sessionFrom(r.Context()); !ok {
			WriteJSONError(w, http.StatusUnauthorized, "требуется вход")
			return
		}
		next.ServeHTTP(w, r)
	})
}
