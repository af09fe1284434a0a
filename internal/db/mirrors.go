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

package db

import (
	"context"

	"Unbewohnte/SOSEDI/internal/domain"
)

// SaveMirror запоминает сообщение-зеркало. Для пары (объявление, чат, топик)
// хранится одна запись: повторное сохранение заменяет ID сообщения.
func (db *DB) SaveMirror(ctx context.Context, mirror *domain.MirrorMessage) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO mirror_messages (announcement_id, chat_id, thread_id, message_id)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(announcement_id, chat_id, thread_id) DO UPDATE SET message_id = excluded.message_id
	`, mirror.AnnouncementID, mirror.ChatID, mirror.ThreadID, mirror.MessageID)
	return err
}

func (db *DB) MirrorsFor(ctx context.Context, announcementID int64) ([]domain.MirrorMessage, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, created_at, announcement_id, chat_id, thread_id, message_id
		FROM mirror_messages
		WHERE announcement_id = ?
		ORDER BY id
	`, announcementID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var mirrors []domain.MirrorMessage
	for rows.Next() {
		var mirror domain.MirrorMessage
		var createdAt string
		err := rows.Scan(
			&mirror.ID,
			&createdAt,
			&mirror.AnnouncementID,
			&mirror.ChatID,
			&mirror.ThreadID,
			&mirror.MessageID,
		)
		if err != nil {
			return nil, err
		}
		mirror.CreatedAt = parseTimestamp(createdAt)

		mirrors = append(mirrors, mirror)
	}

	return mirrors, rows.Err()
}

func (db *DB) DeleteMirror(ctx context.Context, id int64) error {
	_, err := db.ExecContext(ctx, `
		DELETE FROM mirror_messages
		WHERE id = ?
	`, id)
	return err
}

// CountMirrors возвращает общее число сообщений-зеркал (для /conf)
func (db *DB) CountMirrors(ctx context.Context) (int64, error) {
	var count int64
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM mirror_messages`).Scan(&count)
	return count, err
}
