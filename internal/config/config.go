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
	"encoding/json"
	"errors"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

var CONFIG_PATH string = ""

type TelegramConf struct {
	ApiToken       string  `json:"api_token"`
	BotName        string  `json:"bot_name"`
	Public         bool    `json:"is_public"`
	AllowedUserIDs []int64 `json:"allowed_user_ids"`
	// Чаты, в которые объявления дублируются всегда (в дополнение к добавленным через /addtarget)
	MirrorTargets []TargetConf `json:"mirror_targets"`
}

type TargetConf struct {
	ChatID   int64  `json:"chat_id"`
	ThreadID int    `json:"thread_id"`
	Title    string `json:"title"`
}

type BackendConf struct {
	BaseURL        string `json:"base_url"`
	Salt           string `json:"salt"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

type RetryConf struct {
	MaxAttempts           int     `json:"max_attempts"`
	BaseDelayMillis       int     `json:"base_delay_ms"`
	Multiplier            float64 `json:"multiplier"`
	RateLimitDelaySeconds int     `json:"rate_limit_delay_seconds"`
}

type MirrorConf struct {
	SiteURL      string    `json:"site_url"`
	LifetimeDays int       `json:"lifetime_days"`
	Retry        RetryConf `json:"retry"`
}

type HTTPConf struct {
	Addr           string   `json:"addr"`
	AllowedOrigins []string `json:"allowed_origins"`
}

type SessionConf struct {
	Secret            string `json:"secret"`
	TTLHours          int    `json:"ttl_hours"`
	MaxAuthAgeSeconds int    `json:"max_auth_age_seconds"`
	SecureCookie      bool   `json:"secure_cookie"`
}

type DBConf struct {
	File string `json:"file"`
}

type LoggingConf struct {
	Level string `json:"level"`
	JSON  bool   `json:"json"`
	File  string `json:"file"`
}

type Config struct {
	Telegram TelegramConf `json:"telegram"`
	Backend  BackendConf  `json:"backend"`
	Mirror   MirrorConf   `json:"mirror"`
	HTTP     HTTPConf     `json:"http"`
	Session  SessionConf  `json:"session"`
	DB       DBConf       `json:"database"`
	Logging  LoggingConf  `json:"logging"`
	Debug    bool         `json:"debug"`
}

func DefaultConfig() *Config {
	return &Config{
		Telegram: TelegramConf{
			ApiToken: "tg_token",
			BotName:  "sosedi_bot",
			Public:   false,
		},
		Backend: BackendConf{
			BaseURL:        "http://localhost:8000/api",
			Salt:           "salt",
			TimeoutSeconds: 15,
		},
		Mirror: MirrorConf{
			SiteURL:      "http://localhost:3000",
			LifetimeDays: 30,
			Retry: RetryConf{
				MaxAttempts:           3,
				BaseDelayMillis:       1000,
				Multiplier:            2,
				RateLimitDelaySeconds: 5,
			},
		},
		HTTP: HTTPConf{
			Addr:           ":8080",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Session: SessionConf{
			Secret:            "change_me",
			TTLHours:          24 * 30,
			MaxAuthAgeSeconds: 24 * 60 * 60,
		},
		DB: DBConf{
			File: "DB.sqlite3",
		},
		Logging: LoggingConf{
			Level: "info",
			File:  "logs.txt",
		},
		Debug: false,
	}
}

func (conf *Config) Save(filepath string) error {
	file, err := os.OpenFile(filepath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer file.Close()

	jsonBytes, err := json.MarshalIndent(&conf, "", "\t")
	if err != nil {
		return err
	}

	_, err = file.Write(jsonBytes)

	// Запоминаем, куда сохранили
	CONFIG_PATH = filepath

	return err
}

func ConfigFrom(filepath string) (*Config, error) {
	file, err := os.Open(filepath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	contents, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}

	conf := DefaultConfig()
	err = json.Unmarshal(contents, conf)
	if err != nil {
		return nil, err
	}

	// Запоминаем, откуда взяли
	CONFIG_PATH = filepath

	return conf, nil
}

// Обновляет конфигурационный файл
func (conf *Config) Update() error {
	if CONFIG_PATH == "" {
		return errors.New("неизвестен путь к конфигурационному файлу")
	}

	return conf.Save(CONFIG_PATH)
}

// ApplyEnv подгружает .env (если есть) и переопределяет значения из окружения.
// Секреты удобнее держать в окружении, а не в config.json.
func (conf *Config) ApplyEnv(envFiles ...string) error {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	setString := func(key string, dst *string) {
		if value, ok := os.LookupEnv(key); ok && value != "" {
			*dst = value
		}
	}

	setString("SOSEDI_API_URL", &conf.Backend.BaseURL)
	setString("SOSEDI_API_SALT", &conf.Backend.Salt)
	setString("SOSEDI_BOT_TOKEN", &conf.Telegram.ApiToken)
	setString("SOSEDI_BOT_NAME", &conf.Telegram.BotName)
	setString("SOSEDI_SITE_URL", &conf.Mirror.SiteURL)
	setString("SOSEDI_SESSION_SECRET", &conf.Session.Secret)
	setString("SOSEDI_HTTP_ADDR", &conf.HTTP.Addr)
	setString("SOSEDI_LOG_LEVEL", &conf.Logging.Level)

	if value, ok := os.LookupEnv("SOSEDI_DEBUG"); ok {
		debug, err := strconv.ParseBool(value)
		if err != nil {
			return errors.New("SOSEDI_DEBUG: ожидается true/false")
		}
		conf.Debug = debug
	}

	return nil
}

func (conf *Config) BackendTimeout() time.Duration {
	if conf.Backend.TimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(conf.Backend.TimeoutSeconds) * time.Second
}

func (conf *Config) SessionTTL() time.Duration {
	if conf.Session.TTLHours <= 0 {
		return 30 * 24 * time.Hour
	}
	return time.Duration(conf.Session.TTLHours) * time.Hour
}

func (conf *Config) MaxAuthAge() time.Duration {
	if conf.Session.MaxAuthAgeSeconds <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(conf.Session.MaxAuthAgeSeconds) * time.Second
}

func (conf *Config) AnnouncementLifetime() time.Duration {
	if conf.Mirror.LifetimeDays <= 0 {
		return 30 * 24 * time.Hour
	}
	return time.Duration(conf.Mirror.LifetimeDays) * 24 * time.Hour
}

// IsAllowedUser - может ли пользователь Telegram управлять ботом
func (conf *Config) IsAllowedUser(userID int64) bool {
	if conf.Telegram.Public {
		return true
	}
	for _, allowedID := range conf.Telegram.AllowedUserIDs {
		if allowedID == userID {
			return true
		}
	}
	return false
}
