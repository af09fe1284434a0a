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
	"net/http"

	"Unbewohnte/SOSEDI/internal/domain"
	"Unbewohnte/SOSEDI/internal/validation"
)

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := s.backend.ListPosts(r.Context())
	if err != nil {
		s.fail(w, r, err, "Failed to list posts")
		return
	}
	if posts == nil {
		posts = []domain.Post{}
	}
	RespondWithJSON(w, http.StatusOK, posts)
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	post, err := s.backend.GetPost(r.Context(), id)
	if err != nil {
		s.fail(w, r, err, "Failed to get post")
		return
	}
	RespondWithJSON(w, http.StatusOK, post)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.backend.Categories(r.Context())
	if err != nil {
		s.fail(w, r, err, "Failed to list categories")
		return
	}
	if categories == nil {
		categories = []domain.Category{}
	}
	RespondWithJSON(w, http.StatusOK, categories)
}

func (s *Server) handleSubcategories(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	subcategories, err := s.backend.Subcategories(r.Context(), id)
	if err != nil {
		s.fail(w, r, err, "Failed to list subcategories")
		return
	}
	if subcategories == nil {
		subcategories = []domain.Subcategory{}
	}
	RespondWithJSON(w, http.StatusOK, subcategories)
}

func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	sess, _ := sessionFrom(r.Context())
	RespondWithJSON(w, http.StatusOK, sess.Selection.View())
}

// handleSelectCategory: повторный выбор той же категории сбрасывает фильтр
func (s *Server) handleSelectCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CategoryID int64 `json:"category_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess, _ := sessionFrom(r.Context())
	view, err := sess.Selection.Select(r.Context(), req.CategoryID)
	if err != nil {
		s.fail(w, r, err, "Failed to select category")
		return
	}
	RespondWithJSON(w, http.StatusOK, view)
}

func (s *Server) handleSelectSubcategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SubcategoryID int64 `json:"subcategory_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess, _ := sessionFrom(r.Context())
	view, err := sess.Selection.SelectSubcategory(req.SubcategoryID)
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	RespondWithJSON(w, http.StatusOK, view)
}

func (s *Server) handleResetFilter(w http.ResponseWriter, r *http.Request) {
	sess, _ := sessionFrom(r.Context())
	sess.Selection.Reset()
	RespondWithJSON(w, http.StatusOK, sess.Selection.View())
}

// handleFormatPrice: GET /api/v1/utils/price?value=12000 -> {"formatted": "12 000"}
func (s *Server) handleFormatPrice(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, map[string]string{
		"formatted": validation.FormatPrice(r.URL.Query().Get("value")),
	})
}
