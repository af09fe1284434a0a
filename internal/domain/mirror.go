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

package domain

import "time"

// Чат (и, возможно, топик), в который дублируются объявления
type Target struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	ChatID    int64     `json:"chat_id"`
	ThreadID  int       `json:"thread_id"`
	Title     string    `json:"title"`
}

// Сообщение-зеркало объявления в чате Telegram.
// Для пары (объявление, чат, топик) хранится не более одной записи.
type MirrorMessage struct {
	ID             int64     `json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	AnnouncementID int64     `json:"announcement_id"`
	ChatID         int64     `json:"chat_id"`
	ThreadID       int       `json:"thread_id"`
	MessageID      int       `json:"message_id"`
}
