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

// Package announce управляет жизненным циклом объявления: запись на бэкенде,
// галерея изображений и сообщения-зеркала в чатах Telegram.
package announce

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"Unbewohnte/SOSEDI/internal/backend"
	"Unbewohnte/SOSEDI/internal/domain"
	"Unbewohnte/SOSEDI/internal/editform"
	"Unbewohnte/SOSEDI/internal/mirror"

	"golang.org/x/sync/errgroup"
)

var (
	ErrForbidden = errors.New("недостаточно прав для изменения объявления")
	ErrNoChanges = errors.New("изменений нет")
)

// Ошибка в данных формы
type InvalidError struct {
	Err error
}

func (e *InvalidError) Error() string {
	return e.Err.Error()
}

func (e *InvalidError) Unwrap() error {
	return e.Err
}

// Сколько изображений загружается одновременно
const uploadLimit = 4

type Backend interface {
	GetAnnouncement(ctx context.Context, id int64) (*domain.Announcement, error)
	CreateAnnouncement(ctx context.Context, a *domain.Announcement) (*domain.Announcement, error)
	UpdateAnnouncement(ctx context.Context, a *domain.Announcement) error
	ReplaceImages(ctx context.Context, id int64, images []domain.Image) error
	SetExpiry(ctx context.Context, id int64, expiresAt time.Time) error
	ArchiveAnnouncement(ctx context.Context, id int64) error
	UnarchiveAnnouncement(ctx context.Context, id int64) error
	DeleteAnnouncement(ctx context.Context, id int64) error
	IncrementViews(ctx context.Context, id int64) error
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	UploadImage(ctx context.Context, upload backend.Upload) (string, error)
	DeleteImage(ctx context.Context, imageURL string) error
}

type Mirror interface {
	Create(ctx context.Context, a *domain.Announcement, author *domain.User) (mirror.Report, error)
	Edit(ctx context.Context, a *domain.Announcement, author *domain.User) (mirror.Report, error)
	Delete(ctx context.Context, announcementID int64) (mirror.Report, error)
	Mirrors(ctx context.Context, announcementID int64) ([]domain.MirrorMessage, error)
}

type Validator interface {
	Struct(s any) error
}

// Result - объявление после операции и итог синхронизации зеркал
type Result struct {
	Announcement *domain.Announcement `json:"announcement"`
	Mirrors      mirror.Report        `json:"mirrors"`
}

// UploadResult - загруженные URL в исходном порядке (без неудачных) и число неудач
type UploadResult struct {
	URLs   []string `json:"urls"`
	Failed int      `json:"failed"`
}

type Service struct {
	backend   Backend
	mirror    Mirror
	validator Validator
	lifetime  time.Duration
	log       *slog.Logger

	now func() time.Time
}

func NewService(backend Backend, mirror Mirror, validator Validator, lifetime time.Duration, log *slog.Logger) *Service {
	return &Service{
		backend:   backend,
		mirror:    mirror,
		validator: validator,
		lifetime:  lifetime,
		log:       log.With("component", "announce"),
		now:       time.Now,
	}
}

func canModify(actor *domain.User, a *domain.Announcement) bool {
	return actor.IsAdmin() || a.IsOwnedBy(actor)
}

func (s *Service) validate(draft Draft) (domain.Price, error) {
	if err := s.validator.Struct(draft); err != nil {
		return domain.Price{}, &InvalidError{Err: err}
	}
	if draft.MainImage > 0 && draft.MainImage >= len(draft.Images) {
		return domain.Price{}, &InvalidError{Err: fmt.Errorf("главное изображение %d вне списка", draft.MainImage)}
	}

	price, err := domain.ParsePrice(draft.Price)
	if err != nil {
		return domain.Price{}, &InvalidError{Err: err}
	}
	return price, nil
}

// author возвращает владельца объявления для подписи в чатах
func (s *Service) author(ctx context.Context, actor *domain.User, a *domain.Announcement) *domain.User {
	if a.IsOwnedBy(actor) {
		return actor
	}

	owner, err := s.backend.GetUser(ctx, a.OwnerID)
	if err != nil {
		s.log.Warn("Не удалось получить автора объявления", "announcement_id", a.ID, "owner_id", a.OwnerID, "error", err)
		return nil
	}
	return owner
}

func (s *Service) load(ctx context.Context, actor *domain.User, id int64) (*domain.Announcement, error) {
	a, err := s.backend.GetAnnouncement(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canModify(actor, a) {
		return nil, ErrForbidden
	}
	return a, nil
}

// UploadImages загружает файлы параллельно. Неудачная загрузка не отменяет
// остальные; порядок успешных URL совпадает с порядком файлов.
func (s *Service) UploadImages(ctx context.Context, uploads []backend.Upload) UploadResult {
	urls := make([]string, len(uploads))

	var mu sync.Mutex
	var failed int
	var g errgroup.Group
	g.SetLimit(uploadLimit)

	for i, upload := range uploads {
		g.Go(func() error {
			url, err := s.backend.UploadImage(ctx, upload)
			if err != nil {
				s.log.Error("Не удалось загрузить изображение", "filename", upload.Filename, "error", err)
				mu.Lock()
				failed++
				mu.Unlock()
				return nil
			}
			urls[i] = url
			return nil
		})
	}
	g.Wait()

	result := UploadResult{Failed: failed}
	for _, url := range urls {
		if url != "" {
			result.URLs = append(result.URLs, url)
		}
	}
	return result
}

// Create сохраняет новое объявление и публикует его в чатах, если оно активно
func (s *Service) Create(ctx context.Context, actor *domain.User, draft Draft) (*Result, error) {
	if actor == nil {
		return nil, ErrForbidden
	}

	price, err := s.validate(draft)
	if err != nil {
		return nil, err
	}

	a := &domain.Announcement{
		OwnerID:   actor.ID,
		Status:    domain.StatusActive,
		ExpiresAt: s.now().Add(s.lifetime),
	}
	draft.apply(a, price)

	created, err := s.backend.CreateAnnouncement(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("failed to create announcement: %w", err)
	}

	log := s.log.With("announcement_id", created.ID, "user_id", actor.ID)
	log.Info("Создано объявление")

	result := &Result{Announcement: created}
	if created.Status != domain.StatusActive {
		return result, nil
	}

	report, err := s.mirror.Create(ctx, created, actor)
	if err != nil {
		log.Error("Не удалось опубликовать объявление в чатах", "error", err)
	}
	result.Mirrors = report

	return result, nil
}

// Update сохраняет изменения формы. Набор изображений заменяется целиком,
// если изменились сами изображения, их порядок или главное изображение.
func (s *Service) Update(ctx context.Context, actor *domain.User, id int64, state editform.State) (*Result, error) {
	a, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	original := editform.FromAnnouncement(a)
	changed := editform.Diff(original, state)
	if len(changed) == 0 {
		return nil, ErrNoChanges
	}

	draft := draftFromState(state)
	price, err := s.validate(draft)
	if err != nil {
		return nil, err
	}

	updated := *a
	draft.apply(&updated, price)

	if err := s.backend.UpdateAnnouncement(ctx, &updated); err != nil {
		return nil, fmt.Errorf("failed to update announcement %d: %w", id, err)
	}

	if editform.ImagesChanged(original, state) {
		if err := s.backend.ReplaceImages(ctx, id, updated.Images); err != nil {
			return nil, fmt.Errorf("failed to replace images of %d: %w", id, err)
		}
	}

	s.log.Info("Объявление изменено", "announcement_id", id, "user_id", actor.ID, "fields", changed)

	return s.sync(ctx, actor, &updated), nil
}

// sync обновляет зеркала и собирает результат операции
func (s *Service) sync(ctx context.Context, actor *domain.User, a *domain.Announcement) *Result {
	report, err := s.reconcile(ctx, a, s.author(ctx, actor, a))
	if err != nil {
		s.log.Error("Не удалось обновить сообщения в чатах", "announcement_id", a.ID, "error", err)
	}

	return &Result{Announcement: a, Mirrors: report}
}

// reconcile приводит сообщения в чатах к состоянию объявления.
// Активное объявление без сообщений (черновик, который опубликовали,
// или объявление, созданное до появления чатов) публикуется заново.
func (s *Service) reconcile(ctx context.Context, a *domain.Announcement, author *domain.User) (mirror.Report, error) {
	mirrors, err := s.mirror.Mirrors(ctx, a.ID)
	if err != nil {
		return mirror.Report{}, err
	}

	if len(mirrors) == 0 && a.Status == domain.StatusActive {
		return s.mirror.Create(ctx, a, author)
	}
	return s.mirror.Edit(ctx, a, author)
}

func (s *Service) Archive(ctx context.Context, actor *domain.User, id int64) (*Result, error) {
	a, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if err := s.backend.ArchiveAnnouncement(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to archive announcement %d: %w", id, err)
	}
	a.Status = domain.StatusArchived

	s.log.Info("Объявление снято с публикации", "announcement_id", id, "user_id", actor.ID)
	return s.sync(ctx, actor, a), nil
}

func (s *Service) Unarchive(ctx context.Context, actor *domain.User, id int64) (*Result, error) {
	a, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if err := s.backend.UnarchiveAnnouncement(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to unarchive announcement %d: %w", id, err)
	}
	a.Status = domain.StatusActive

	s.log.Info("Объявление возвращено в публикацию", "announcement_id", id, "user_id", actor.ID)
	return s.sync(ctx, actor, a), nil
}

// Extend продлевает объявление на стандартный срок, считая от текущего момента
func (s *Service) Extend(ctx context.Context, actor *domain.User, id int64) (*Result, error) {
	a, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	expiresAt := s.now().Add(s.lifetime)
	if err := s.backend.SetExpiry(ctx, id, expiresAt); err != nil {
		return nil, fmt.Errorf("failed to extend announcement %d: %w", id, err)
	}
	a.ExpiresAt = expiresAt

	s.log.Info("Объявление продлено", "announcement_id", id, "expires_at", expiresAt)
	return s.sync(ctx, actor, a), nil
}

// Delete удаляет сообщения в чатах, запись на бэкенде и файлы изображений.
// Сообщения удаляются первыми. Если затем откажет бэкенд, объявление
// останется без сообщений в чатах; повторный Delete завершит удаление.
// Файлы удаляются по возможности.
func (s *Service) Delete(ctx context.Context, actor *domain.User, id int64) (mirror.Report, error) {
	a, err := s.load(ctx, actor, id)
	if err != nil {
		return mirror.Report{}, err
	}

	report, err := s.mirror.Delete(ctx, id)
	if err != nil {
		s.log.Error("Не удалось удалить сообщения в чатах", "announcement_id", id, "error", err)
	}

	if err := s.backend.DeleteAnnouncement(ctx, id); err != nil {
		return report, fmt.Errorf("failed to delete announcement %d: %w", id, err)
	}

	var g errgroup.Group
	g.SetLimit(uploadLimit)
	for _, img := range a.Images {
		g.Go(func() error {
			if err := s.backend.DeleteImage(ctx, img.URL); err != nil {
				s.log.Warn("Не удалось удалить файл изображения", "url", img.URL, "error", err)
			}
			return nil
		})
	}
	g.Wait()

	s.log.Info("Объявление удалено", "announcement_id", id, "user_id", actor.ID)
	return report, nil
}

// View возвращает объявление и увеличивает счетчик просмотров
func (s *Service) View(ctx context.Context, id int64) (*domain.Announcement, error) {
	a, err := s.backend.GetAnnouncement(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.backend.IncrementViews(ctx, id); err != nil {
		s.log.Warn("Не удалось увеличить счетчик просмотров", "announcement_id", id, "error", err)
		return a, nil
	}
	a.Views++

	return a, nil
}

// Resync приводит сообщения в чатах к текущему состоянию объявления
func (s *Service) Resync(ctx context.Context, id int64) (mirror.Report, error) {
	a, err := s.backend.GetAnnouncement(ctx, id)
	if err != nil {
		return mirror.Report{}, err
	}

	author, err := s.backend.GetUser(ctx, a.OwnerID)
	if err != nil {
		s.log.Warn("Не удалось получить автора объявления", "announcement_id", id, "error", err)
		author = nil
	}

	return s.reconcile(ctx, a, author)
}
