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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	conf := DefaultConfig()
	conf.Telegram.AllowedUserIDs = []int64{42}
	conf.Telegram.MirrorTargets = []TargetConf{{ChatID: -100, ThreadID: 3}}
	require.NoError(t, conf.Save(path))
	assert.Equal(t, path, CONFIG_PATH)

	loaded, err := ConfigFrom(path)
	require.NoError(t, err)
	assert.Equal(t, conf, loaded)

	loaded.Debug = true
	require.NoError(t, loaded.Update())

	reloaded, err := ConfigFrom(path)
	require.NoError(t, err)
	assert.True(t, reloaded.Debug)
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"backend": {"base_url": "https://api.example"}}`), 0o600))

	conf, err := ConfigFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "https://api.example", conf.Backend.BaseURL)
	assert.Equal(t, 3, conf.Mirror.Retry.MaxAttempts)
}

func TestApplyEnv(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("SOSEDI_API_SALT=from-dotenv\n"), 0o600))

	t.Setenv("SOSEDI_API_URL", "https://backend.local")
	t.Setenv("SOSEDI_DEBUG", "true")

	conf := DefaultConfig()
	require.NoError(t, conf.ApplyEnv(envFile))
	t.Cleanup(func() { os.Unsetenv("SOSEDI_API_SALT") })

	assert.Equal(t, "https://backend.local", conf.Backend.BaseURL)
	assert.Equal(t, "from-dotenv", conf.Backend.Salt)
	assert.True(t, conf.Debug)
}

func TestApplyEnvMissingFile(t *testing.T) {
	conf := DefaultConfig()
	assert.NoError(t, conf.ApplyEnv(filepath.Join(t.TempDir(), "missing.env")))
}

func TestDurationsAndAccess(t *testing.T) {
	conf := DefaultConfig()
	assert.Equal(t, 30*24*time.Hour, conf.AnnouncementLifetime())
	assert.Equal(t, 15*time.Second, conf.BackendTimeout())

	conf.Telegram.AllowedUserIDs = []int64{1}
	assert.True(t, conf.IsAllowedUser(1))
	assert.False(t, conf.IsAllowedUser(2))

	conf.Telegram.Public = true
	assert.True(t, conf.IsAllowedUser(2))
}
