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
	"database/sql"
	"errors"

	"Unbewohnte/SOSEDI/internal/domain"
)

// AddTarget добавляет чат для дублирования объявлений.
// Повторное добавление той же пары (чат, топик) только обновляет название.
func (db *DB) AddTarget(ctx context.Context, target *domain.Target) (int64, error) {
	_, err := db.ExecContext(ctx, `
		INSERT INTO mirror_targets (chat_id, thread_id, title)
		VALUES (?, ?, ?)
		ON CONFLICT(chat_id, thread_id) DO UPDATE SET title = excluded.title
	`, target.ChatID, target.ThreadID, target.Title)
	if err != nil {
		return 0, err
	}

	var id int64
	err = db.QueryRowContext(ctx, `
		SELECT id FROM mirror_targets WHERE chat_id = ? AND thread_id = ?
	`, target.ChatID, target.ThreadID).Scan(&id)
	return id, err
}

// RemoveTarget возвращает false, если такого чата не было
func (db *DB) RemoveTarget(ctx context.Context, chatID int64, threadID int) (bool, error) {
	result, err := db.ExecContext(ctx, `
		DELETE FROM mirror_targets
		WHERE chat_id = ? AND thread_id = ?
	`, chatID, threadID)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

func (db *DB) ListTargets(ctx context.Context) ([]domain.Target, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, created_at, chat_id, thread_id, title
		FROM mirror_targets
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var targets []domain.Target
	for rows.Next() {
		var target domain.Target
		var createdAt string
		err := rows.Scan(
			&target.ID,
			&createdAt,
			&target.ChatID,
			&target.ThreadID,
			&target.Title,
		)
		if err != nil {
			return nil, err
		}
		target.CreatedAt = parseTimestamp(createdAt)

		targets = append(targets, target)
	}

	return targets, rows.Err()
}

func (db *DB) GetTarget(ctx context.Context, chatID int64, threadID int) (*domain.Target, error) {
	var target domain.Target
	var createdAt string

	err := db.QueryRowContext(ctx, `
		SELECT id, created_at, chat_id, thread_id, title
		FROM mirror_targets
		WHERE chat_id = ? AND thread_id = ?
	`, chatID, threadID).Scan(
		&target.ID,
		&createdAt,
		&target.ChatID,
		&target.ThreadID,
		&target.Title,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	target.CreatedAt = parseTimestamp(createdAt)

	return &target, nil
}
