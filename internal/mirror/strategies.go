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

	"Unbewohnte/SOSEDI/internal/domain"

	"github.com/mymmrac/telego"
)

const parseModeHTML = "HTML"

// Стратегия неприменима к этому содержимому (например, нет изображения)
var errNotApplicable = errors.New("стратегия неприменима")

// EditStrategy - один из способов обновить уже отправленное сообщение.
// Сообщение могло быть отправлено как фото или как текст, и Bot API
// отклоняет правку "не того" типа, поэтому стратегии пробуются по порядку.
type EditStrategy struct {
	Name  string
	Apply func(ctx context.Context, messenger Messenger, mirror domain.MirrorMessage, content Content) error
}

func DefaultEditStrategies() []EditStrategy {
	return []EditStrategy{
		{Name: "media", Apply: editMedia},
		{Name: "caption", Apply: editCaption},
		{Name: "text", Apply: editText},
	}
}

func editMedia(ctx context.Context, messenger Messenger, mirror domain.MirrorMessage, content Content) error {
	if content.ImageURL == "" {
		return errNotApplicable
	}

	_, err := messenger.EditMessageMedia(ctx, &telego.EditMessageMediaParams{
		ChatID:    telego.ChatID{ID: mirror.ChatID},
		MessageID: mirror.MessageID,
		Media: &telego.InputMediaPhoto{
			Type:      "photo",
			Media:     telego.InputFile{URL: content.ImageURL},
			Caption:   content.Caption,
			ParseMode: parseModeHTML,
		},
	})
	return err
}

func editCaption(ctx context.Context, messenger Messenger, mirror domain.MirrorMessage, content Content) error {
	_, err := messenger.EditMessageCaption(ctx, &telego.EditMessageCaptionParams{
		ChatID:    telego.ChatID{ID: mirror.ChatID},
		MessageID: mirror.MessageID,
		Caption:   content.Caption,
		ParseMode: parseModeHTML,
	})
	return err
}

func editText(ctx context.Context, messenger Messenger, mirror domain.MirrorMessage, content Content) error {
	_, err := messenger.EditMessageText(ctx, &telego.EditMessageTextParams{
		ChatID:    telego.ChatID{ID: mirror.ChatID},
		MessageID: mirror.MessageID,
		Text:      content.Text,
		ParseMode: parseModeHTML,
	})
	return err
}
