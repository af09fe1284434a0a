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

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"Unbewohnte/SOSEDI/internal/announce"
	"Unbewohnte/SOSEDI/internal/backend"
	"Unbewohnte/SOSEDI/internal/bot"
	"Unbewohnte/SOSEDI/internal/config"
	"Unbewohnte/SOSEDI/internal/db"
	"Unbewohnte/SOSEDI/internal/domain"
	"Unbewohnte/SOSEDI/internal/logger"
	"Unbewohnte/SOSEDI/internal/mirror"
	"Unbewohnte/SOSEDI/internal/server"
	"Unbewohnte/SOSEDI/internal/session"
	"Unbewohnte/SOSEDI/internal/validation"

	"github.com/mymmrac/telego"
	"golang.org/x/sync/errgroup"
)

const CONFIG_NAME string = "config.json"

var (
	CONFIG *config.Config
	log    *slog.Logger
)

func init() {
	configPath := flag.String("config", CONFIG_NAME, "Путь к конфигурационному файлу")
	envFile := flag.String("env", ".env", "Путь к файлу с переменными окружения")
	flag.Parse()

	var err error
	CONFIG, err = config.ConfigFrom(*configPath)
	if err != nil {
		fmt.Println("Не удалось открыть конфигурационный файл: " + err.Error() + ". Создаем новый...")
		CONFIG = config.DefaultConfig()
		err = CONFIG.Save(*configPath)
		if err != nil {
			panic("Не получилось создать новый конфигурационный файл: " + err.Error())
		}
		os.Exit(0)
	}

	if err := CONFIG.ApplyEnv(*envFile); err != nil {
		panic("Не удалось применить переменные окружения: " + err.Error())
	}

	opts := logger.Options{
		Level: CONFIG.Logging.Level,
		JSON:  CONFIG.Logging.JSON,
		Debug: CONFIG.Debug,
	}
	if CONFIG.Logging.File != "" {
		writer, _, err := logger.WithFile(CONFIG.Logging.File)
		if err != nil {
			panic("Failed to create logs file: " + err.Error())
		}
		opts.Writer = writer
		opts.NoColor = true
	}
	log = logger.New(opts)
	slog.SetDefault(log)
}

func staticTargets(conf *config.Config) []domain.Target {
	targets := make([]domain.Target, 0, len(conf.Telegram.MirrorTargets))
	for _, target := range conf.Telegram.MirrorTargets {
		targets = append(targets, domain.Target{
			ChatID:   target.ChatID,
			ThreadID: target.ThreadID,
			Title:    target.Title,
		})
	}
	return targets
}

func run(ctx context.Context) error {
	database, err := db.NewDB(CONFIG.DB.File)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	var tgOpts []telego.BotOption
	if CONFIG.Debug {
		tgOpts = append(tgOpts, telego.WithDefaultDebugLogger())
	} else {
		tgOpts = append(tgOpts, telego.WithDiscardLogger())
	}
	tg, err := telego.NewBot(CONFIG.Telegram.ApiToken, tgOpts...)
	if err != nil {
		return fmt.Errorf("failed to create telegram bot: %w", err)
	}

	api := backend.NewClient(CONFIG.Backend.BaseURL, CONFIG.Backend.Salt, CONFIG.BackendTimeout(), log)

	synchronizer := mirror.NewSynchronizer(tg, database, database, mirror.Options{
		StaticTargets: staticTargets(CONFIG),
		Renderer:      mirror.Renderer{SiteURL: CONFIG.Mirror.SiteURL},
		Retry:         mirror.RetryPolicyFrom(CONFIG.Mirror.Retry),
	}, log)

	validator := validation.New()
	announcements := announce.NewService(api, synchronizer, validator, CONFIG.AnnouncementLifetime(), log)

	sessions, err := session.NewManager(api, session.Options{
		BotToken:     CONFIG.Telegram.ApiToken,
		Secret:       CONFIG.Session.Secret,
		TTL:          CONFIG.SessionTTL(),
		MaxAuthAge:   CONFIG.MaxAuthAge(),
		SecureCookie: CONFIG.Session.SecureCookie,
	}, log)
	if err != nil {
		return err
	}

	router := server.New(api, announcements, sessions, validator, log).Router(CONFIG.HTTP.AllowedOrigins)
	httpServer := server.NewHTTPServer(CONFIG.HTTP.Addr, router)

	telegramBot := bot.NewBot(tg, CONFIG, database, synchronizer, announcements, log)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("HTTP сервер запущен", "addr", CONFIG.HTTP.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return telegramBot.Start(ctx)
	})

	return g.Wait()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Error("Завершение с ошибкой", "error", err)
		os.Exit(1)
	}

	log.Info("Остановлено")
}
