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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"Unbewohnte/SOSEDI/internal/announce"
	"Unbewohnte/SOSEDI/internal/backend"
	"Unbewohnte/SOSEDI/internal/session"
	"Unbewohnte/SOSEDI/internal/validation"

	"github.com/go-chi/chi/v5"
)

// Ограничение на размер тела JSON-запроса
const maxBodySize = 1 << 20

// WriteJSONError отправляет ошибку в виде {"error": "..."}
func WriteJSONError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)

	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}

// RespondWithJSON отправляет JSON-ответ
func RespondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "Failed to marshal JSON response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	w.Write(response)
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("некорректное тело запроса: %w", err)
	}
	return nil
}

func idParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("некорректный идентификатор %q", chi.URLParam(r, name))
	}
	return id, nil
}

func queryInt64(r *http.Request, key string) (int64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("параметр %s должен быть числом", key)
	}
	return value, nil
}

// errorStatus сопоставляет ошибку с HTTP-кодом и сообщением для клиента
func errorStatus(err error) (int, string) {
	var invalid *announce.InvalidError
	var statusErr *backend.StatusError

	switch {
	case errors.Is(err, session.ErrNoSession),
		errors.Is(err, session.ErrRevoked),
		errors.Is(err, session.ErrExpired),
		errors.Is(err, session.ErrInvalidSignature):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, announce.ErrForbidden):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, announce.ErrNoChanges):
		return http.StatusConflict, err.Error()
	case errors.Is(err, backend.ErrNotFound):
		return http.StatusNotFound, "не найдено"
	case errors.As(err, &invalid),
		errors.Is(err, validation.ErrInvalidPlate),
		errors.Is(err, validation.ErrInvalidApartment):
		return http.StatusBadRequest, err.Error()
	case errors.As(err, &statusErr):
		return http.StatusBadGateway, "ошибка сервера данных"
	default:
		return http.StatusInternalServerError, "внутренняя ошибка"
	}
}
