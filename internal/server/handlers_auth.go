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
	"net/http"

	"Unbewohnte/SOSEDI/internal/domain"
	"Unbewohnte/SOSEDI/internal/session"
)

// handleLogin обрабатывает POST /api/v1/auth/telegram с данными виджета входа
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var identity domain.TelegramIdentity
	if err := decodeJSON(r, &identity); err != nil {
		WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess, token, err := s.sessions.Login(r.Context(), identity)
	if err != nil {
		s.fail(w, r, err, "Login failed")
		return
	}

	http.SetCookie(w, s.sessions.Cookie(token, sess.ExpiresAt))
	RespondWithJSON(w, http.StatusOK, sess.User())
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(session.CookieName); err == nil {
		s.sessions.Logout(cookie.Value)
	}

	http.SetCookie(w, s.sessions.ClearCookie())
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	sess, _ := sessionFrom(r.Context())
	RespondWithJSON(w, http.StatusOK, sess.User())
}
