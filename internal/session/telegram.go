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
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"

	"Unbewohnte/SOSEDI/internal/domain"
)

var (
	ErrInvalidSignature = errors.New("неверная подпись данных Telegram")
	ErrExpired          = errors.New("данные входа устарели")
)

// dataCheckString собирает строку проверки: все непустые поля, кроме hash,
// в виде key=value, отсортированные по ключу и разделенные переводом строки.
func dataCheckString(identity domain.TelegramIdentity) string {
	fields := map[string]string{
		"id":         strconv.FormatInt(identity.ID, 10),
		"auth_date":  strconv.FormatInt(identity.AuthDate, 10),
		"first_name": identity.FirstName,
		"last_name":  identity.LastName,
		"username":   identity.Username,
		"photo_url":  identity.PhotoURL,
	}

	keys := make([]string, 0, len(fields))
	for key, value := range fields {
		if value == "" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, key := range keys {
		lines = append(lines, key+"="+fields[key])
	}

	return strings.Join(lines, "\n")
}

// Sign вычисляет hash так же, как это делает Telegram
func Sign(identity domain.TelegramIdentity, botToken string) string {
	secret := sha256.Sum256([]byte(botToken))
	mac := hmac.New(sha256.New, secret[:])
	mac.Write([]byte(dataCheckString(identity)))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyTelegramLogin проверяет данные от виджета входа Telegram.
// maxAge <= 0 отключает проверку давности.
func VerifyTelegramLogin(identity domain.TelegramIdentity, botToken string, maxAge time.Duration, now time.Time) error {
	if identity.ID == 0 || identity.Hash == "" {
		return ErrInvalidSignature
	}

	expected := Sign(identity, botToken)
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(identity.Hash))) {
		return ErrInvalidSignature
	}

	if maxAge > 0 {
		authTime := time.Unix(identity.AuthDate, 0)
		if now.Sub(authTime) > maxAge {
			return ErrExpired
		}
	}

	return nil
}
