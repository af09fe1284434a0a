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

// Package server - HTTP API, с которым работает фронтенд сайта
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"Unbewohnte/SOSEDI/internal/announce"
	"Unbewohnte/SOSEDI/internal/backend"
	"Unbewohnte/SOSEDI/internal/contextkeys"
	"Unbewohnte/SOSEDI/internal/domain"
	"Unbewohnte/SOSEDI/internal/editform"
	"Unbewohnte/SOSEDI/internal/mirror"
	"Unbewohnte/SOSEDI/internal/session"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

const apiPrefix = "/api/v1"

type Backend interface {
	ListPosts(ctx context.Context) ([]domain.Post, error)
	GetPost(ctx context.Context, id int64) (*domain.Post, error)
	Categories(ctx context.Context) ([]domain.Category, error)
	Subcategories(ctx context.Context, categoryID int64) ([]domain.Subcategory, error)
	ListAnnouncements(ctx context.Context, filter domain.AnnouncementFilter) ([]domain.Announcement, error)
	GetAnnouncement(ctx context.Context, id int64) (*domain.Announcement, error)
	UpdateUser(ctx context.Context, user *domain.User) (*domain.User, error)
	AddApartment(ctx context.Context, userID int64, apartment domain.Apartment) (*domain.Apartment, error)
	DeleteApartment(ctx context.Context, userID, apartmentID int64) error
	AddCar(ctx context.Context, userID int64, car domain.Car) (*domain.Car, error)
	DeleteCar(ctx context.Context, userID, carID int64) error
	FindNeighbors(ctx context.Context, house string, entrance, number int) ([]domain.Neighbor, error)
	FindCarOwners(ctx context.Context, plate string) ([]domain.CarOwner, error)
}

type Announcements interface {
	UploadImages(ctx context.Context, uploads []backend.Upload) announce.UploadResult
	Create(ctx context.Context, actor *domain.User, draft announce.Draft) (*announce.Result, error)
	Update(ctx context.Context, actor *domain.User, id int64, state editform.State) (*announce.Result, error)
	Archive(ctx context.Context, actor *domain.User, id int64) (*announce.Result, error)
	Unarchive(ctx context.Context, actor *domain.User, id int64) (*announce.Result, error)
	Extend(ctx context.Context, actor *domain.User, id int64) (*announce.Result, error)
	Delete(ctx context.Context, actor *domain.User, id int64) (mirror.Report, error)
	View(ctx context.Context, id int64) (*domain.Announcement, error)
}

type Sessions interface {
	Login(ctx context.Context, identity domain.TelegramIdentity) (*session.Session, string, error)
	Restore(ctx context.Context, token string) (*session.Session, error)
	Refresh(ctx context.Context, s *session.Session) error
	Logout(token string)
	Cookie(token string, expiresAt time.Time) *http.Cookie
	ClearCookie() *http.Cookie
}

type Validator interface {
	Struct(s any) error
}

type Server struct {
	backend       Backend
	announcements Announcements
	sessions      Sessions
	validator     Validator
	log           *slog.Logger
}

func New(backend Backend, announcements Announcements, sessions Sessions, validator Validator, log *slog.Logger) *Server {
	return &Server{
		backend:       backend,
		announcements: announcements,
		sessions:      sessions,
		validator:     validator,
		log:           log.With("component", "http"),
	}
}

// Router собирает все маршруты API
func (s *Server) Router(allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP, LoggerMiddleware(s.log), middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Trace-ID"},
		ExposedHeaders:   []string{"X-Trace-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route(apiPrefix, func(r chi.Router) {
		r.Use(s.SessionMiddleware)

		// Публичные маршруты
		r.Group(func(r chi.Router) {
			r.Post("/auth/telegram", s.handleLogin)
			r.Post("/auth/logout", s.handleLogout)

			r.Get("/posts", s.handleListPosts)
			r.Get("/posts/{id}", s.handleGetPost)
			r.Get("/categories", s.handleCategories)
			r.Get("/categories/{id}/subcategories", s.handleSubcategories)

			r.Get("/announcements", s.handleListAnnouncements)
			r.Get("/announcements/{id}", s.handleViewAnnouncement)

			r.Get("/utils/price", s.handleFormatPrice)
		})

		// Только для вошедших пользователей
		r.Group(func(r chi.Router) {
			r.Use(requireSession)

			r.Get("/auth/me", s.handleMe)

			r.Get("/filter", s.handleFilter)
			r.Post("/filter/category", s.handleSelectCategory)
			r.Post("/filter/subcategory", s.handleSelectSubcategory)
			r.Delete("/filter", s.handleResetFilter)

			r.Post("/images", s.handleUploadImages)

			r.Post("/announcements", s.handleCreateAnnouncement)
			r.Put("/announcements/{id}", s.handleUpdateAnnouncement)
			r.Delete("/announcements/{id}", s.handleDeleteAnnouncement)
			r.Post("/announcements/{id}/archive", s.lifecycle("archive", s.announcements.Archive))
			r.Post("/announcements/{id}/unarchive", s.lifecycle("unarchive", s.announcements.Unarchive))
			r.Post("/announcements/{id}/extend", s.lifecycle("extend", s.announcements.Extend))
			r.Post("/announcements/{id}/changes", s.handleChanges)

			r.Get("/neighbors", s.handleFindNeighbors)
			r.Get("/cars", s.handleFindCars)

			r.Get("/profile", s.handleProfile)
			r.Put("/profile", s.handleUpdateProfile)
			r.Post("/profile/apartments", s.handleAddApartment)
			r.Delete("/profile/apartments/{id}", s.handleDeleteApartment)
			r.Post("/profile/cars", s.handleAddCar)
			r.Delete("/profile/cars/{id}", s.handleDeleteCar)
		})
	})

	return r
}

// NewHTTPServer оборачивает роутер в http.Server с таймаутами
func NewHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// fail записывает ошибку в лог и отправляет ее клиенту
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, msg string) {
	code, message := errorStatus(err)
	logger := contextkeys.LoggerFromContext(r.Context(), s.log)
	if code >= http.StatusInternalServerError {
		logger.Error(msg, "error", err)
	} else {
		logger.Warn(msg, "error", err, "status_code", code)
	}
	WriteJSONError(w, code, message)
}
