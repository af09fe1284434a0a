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
	"net/http"
	"strings"
	"time"

	"github.com/mymmrac/telego"
	"github.com/mymmrac/telego/telegoapi"
)

// Messenger - часть Bot API, которая нужна для зеркалирования.
// *telego.Bot реализует этот интерфейс.
type Messenger interface {
	SendMessage(ctx context.Context, params *telego.SendMessageParams) (*telego.Message, error)
	SendPhoto(ctx context.Context, params *telego.SendPhotoParams) (*telego.Message, error)
	EditMessageMedia(ctx context.Context, params *telego.EditMessageMediaParams) (*telego.Message, error)
	EditMessageCaption(ctx context.Context, params *telego.EditMessageCaptionParams) (*telego.Message, error)
	EditMessageText(ctx context.Context, params *telego.EditMessageTextParams) (*telego.Message, error)
	DeleteMessage(ctx context.Context, params *telego.DeleteMessageParams) error
}

var _ Messenger = (*telego.Bot)(nil)

func apiError(err error) *telegoapi.Error {
	var apiErr *telegoapi.Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return nil
}

// rateLimitDelay возвращает паузу, которую Telegram попросил выдержать после 429.
// Если retry_after не пришел, используется fallback.
func rateLimitDelay(err error, fallback time.Duration) (time.Duration, bool) {
	apiErr := apiError(err)
	if apiErr == nil || apiErr.ErrorCode != http.StatusTooManyRequests {
		return 0, false
	}

	if apiErr.Parameters != nil && apiErr.Parameters.RetryAfter > 0 {
		return time.Duration(apiErr.Parameters.RetryAfter) * time.Second, true
	}

	return fallback, true
}

// Повторять имеет смысл сетевые ошибки, 429 и 5xx.
// 4xx означает, что запрос в таком виде не пройдет никогда.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	apiErr := apiError(err)
	if apiErr == nil {
		return true
	}

	return apiErr.ErrorCode == http.StatusTooManyRequests || apiErr.ErrorCode >= 500
}

func descriptionContains(err error, fragments ...string) bool {
	apiErr := apiError(err)
	if apiErr == nil {
		return false
	}

	description := strings.ToLower(apiErr.Description)
	for _, fragment := range fragments {
		if strings.Contains(description, fragment) {
			return true
		}
	}
	return false
}

// Telegram отвечает 400, если новое содержимое совпадает со старым
func isNotModified(err error) bool {
	return descriptionContains(err, "message is not modified")
}

// Сообщение уже удалено вручную
func isMessageGone(err error) bool {
	return descriptionContains(err, "message to delete not found", "message to edit not found", "message_id_invalid")
}
