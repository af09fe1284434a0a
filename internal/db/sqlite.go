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
	"database/sql"
	"time"

	_ "modernc.org/sqlite"
)

// sqlite хранит CURRENT_TIMESTAMP в таком виде
const timestampLayout = "2006-01-02 15:04:05"

type DB struct {
	*sql.DB
}

func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, err
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		return nil, err
	}

	_, err = db.Exec(`
	CREATE TABLE IF NOT EXISTS mirror_targets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		chat_id INTEGER NOT NULL,
		thread_id INTEGER NOT NULL DEFAULT 0,
		title TEXT NOT NULL DEFAULT '',
		UNIQUE(chat_id, thread_id)
	);

	CREATE TABLE IF NOT EXISTS mirror_messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		announcement_id INTEGER NOT NULL,
		chat_id INTEGER NOT NULL,
		thread_id INTEGER NOT NULL DEFAULT 0,
		message_id INTEGER NOT NULL,
		UNIQUE(announcement_id, chat_id, thread_id)
	);

	CREATE INDEX IF NOT EXISTS idx_mirror_messages_announcement ON mirror_messages(announcement_id);
`)
	if err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

func parseTimestamp(raw string) time.Time {
	for _, layout := range []string{timestampLayout, time.RFC3339, time.RFC3339Nano} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}
