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

package server

import (
	"context"
	"fmt"
	"net/http"

	"Unbewohnte/SOSEDI/internal/announce"
	"Unbewohnte/SOSEDI/internal/backend"
	"Unbewohnte/SOSEDI/internal/domain"
	"Unbewohnte/SOSEDI/internal/editform"
)

const (
	maxUploadSize  = 32 << 20
	maxUploadFiles = 10
)

// handleListAnnouncements: фильтр берется из параметров запроса,
// а при filter=session - из выбора категории в сессии.
func (s *Server) handleListAnnouncements(w http.ResponseWriter, r *http.Request) {
	var filter domain.AnnouncementFilter

	if sess, ok := sessionFrom(r.Context()); ok && r.URL.Query().Get("filter") == "session" {
		filter = sess.Selection.Filter()
	} else {
		var err error
		if filter.CategoryID, err = queryInt64(r, "category_id"); err != nil {
			WriteJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		if filter.SubcategoryID, err = queryInt64(r, "subcategory_id"); err != nil {
			WriteJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		if filter.OwnerID, err = queryInt64(r, "owner_id"); err != nil {
			WriteJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		if raw := r.URL.Query().Get("status"); raw != "" {
			if filter.Status, err = domain.ParseStatus(raw); err != nil {
				WriteJSONError(w, http.StatusBadRequest, err.Error())
				return
			}
		}
	}

	announcements, err := s.backend.ListAnnouncements(r.Context(), filter)
	if err != nil {
		s.fail(w, r, err, "Failed to list announcements")
		return
	}
	if announcements == nil {
		announcements = []domain.Announcement{}
	}
	RespondWithJSON(w, http.StatusOK, announcements)
}

func (s *Server) handleViewAnnouncement(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	a, err := s.announcements.View(r.Context(), id)
	if err != nil {
		s.fail(w, r, err, "Failed to view announcement")
		return
	}
	RespondWithJSON(w, http.StatusOK, a)
}

func (s *Server) handleCreateAnnouncement(w http.ResponseWriter, r *http.Request) {
	var draft announce.Draft
	if err := decodeJSON(r, &draft); err != nil {
		WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess, _ := sessionFrom(r.Context())
	result, err := s.announcements.Create(r.Context(), sess.User(), draft)
	if err != nil {
		s.fail(w, r, err, "Failed to create announcement")
		return
	}
	RespondWithJSON(w, http.StatusCreated, result)
}

func (s *Server) handleUpdateAnnouncement(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	var state editform.State
	if err := decodeJSON(r, &state); err != nil {
		WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess, _ := sessionFrom(r.Context())
	result, err := s.announcements.Update(r.Context(), sess.User(), id, state)
	if err != nil {
		s.fail(w, r, err, "Failed to update announcement")
		return
	}
	RespondWithJSON(w, http.StatusOK, result)
}

func (s *Server) handleDeleteAnnouncement(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess, _ := sessionFrom(r.Context())
	report, err := s.announcements.Delete(r.Context(), sess.User(), id)
	if err != nil {
		s.fail(w, r, err, "Failed to delete announcement")
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]any{"mirrors": report})
}

type lifecycleFunc func(ctx context.Context, actor *domain.User, id int64) (*announce.Result, error)

// lifecycle - общий обработчик archive/unarchive/extend
func (s *Server) lifecycle(action string, op lifecycleFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			WriteJSONError(w, http.StatusBadRequest, err.Error())
			return
		}

		sess, _ := sessionFrom(r.Context())
		result, err := op(r.Context(), sess.User(), id)
		if err != nil {
			s.fail(w, r, err, fmt.Sprintf("Failed to %s announcement", action))
			return
		}
		RespondWithJSON(w, http.StatusOK, result)
	}
}

// handleChanges сравнивает форму редактирования с сохраненным объявлением.
// Фронтенд включает кнопку "Сохранить" только при has_changes == true.
func (s *Server) handleChanges(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	var state editform.State
	if err := decodeJSON(r, &state); err != nil {
		WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	a, err := s.backend.GetAnnouncement(r.Context(), id)
	if err != nil {
		s.fail(w, r, err, "Failed to load announcement for comparison")
		return
	}

	fields := editform.Diff(editform.FromAnnouncement(a), state)
	if fields == nil {
		fields = []string{}
	}
	RespondWithJSON(w, http.StatusOK, map[string]any{
		"has_changes": len(fields) > 0,
		"fields":      fields,
	})
}

// handleUploadImages принимает multipart-форму с полем images
func (s *Server) handleUploadImages(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		WriteJSONError(w, http.StatusBadRequest, "некорректная форма загрузки")
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["images"]
	if len(headers) == 0 {
		WriteJSONError(w, http.StatusBadRequest, "не выбрано ни одного файла")
		return
	}
	if len(headers) > maxUploadFiles {
		WriteJSONError(w, http.StatusBadRequest, fmt.Sprintf("можно загрузить не более %d файлов", maxUploadFiles))
		return
	}

	uploads := make([]backend.Upload, 0, len(headers))
	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			s.fail(w, r, err, "Failed to open uploaded file")
			return
		}
		defer file.Close()
		uploads = append(uploads, backend.Upload{Filename: header.Filename, Content: file})
	}

	result := s.announcements.UploadImages(r.Context(), uploads)
	if result.URLs == nil {
		result.URLs = []string{}
	}

	status := http.StatusOK
	if len(result.URLs) == 0 {
		status = http.StatusBadGateway
	}
	RespondWithJSON(w, status, result)
}
