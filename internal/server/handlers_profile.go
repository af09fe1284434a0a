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
	"strconv"
	"strings"

	"Unbewohnte/SOSEDI/internal/domain"
	"Unbewohnte/SOSEDI/internal/validation"
)

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	sess, _ := sessionFrom(r.Context())
	if err := s.sessions.Refresh(r.Context(), sess); err != nil {
		s.fail(w, r, err, "Failed to refresh profile")
		return
	}
	RespondWithJSON(w, http.StatusOK, sess.User())
}

// handleUpdateProfile меняет имя, отредактированное вручную, и флаг его использования
func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CustomFirstName string `json:"custom_first_name" validate:"max=64"`
		CustomLastName  string `json:"custom_last_name" validate:"max=64"`
		UseCustomName   bool   `json:"use_custom_name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.validator.Struct(req); err != nil {
		WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess, _ := sessionFrom(r.Context())
	user := sess.User()
	user.CustomFirstName = strings.TrimSpace(req.CustomFirstName)
	user.CustomLastName = strings.TrimSpace(req.CustomLastName)
	user.UseCustomName = req.UseCustomName

	if _, err := s.backend.UpdateUser(r.Context(), user); err != nil {
		s.fail(w, r, err, "Failed to update profile")
		return
	}

	s.respondRefreshed(w, r, http.StatusOK)
}

// respondRefreshed перечитывает пользователя после изменения и отправляет его
func (s *Server) respondRefreshed(w http.ResponseWriter, r *http.Request, code int) {
	sess, _ := sessionFrom(r.Context())
	if err := s.sessions.Refresh(r.Context(), sess); err != nil {
		s.fail(w, r, err, "Failed to refresh profile")
		return
	}
	RespondWithJSON(w, code, sess.User())
}

func (s *Server) handleAddApartment(w http.ResponseWriter, r *http.Request) {
	var apartment domain.Apartment
	if err := decodeJSON(r, &apartment); err != nil {
		WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	apartment.House = strings.TrimSpace(apartment.House)

	if err := s.validator.Struct(apartment); err != nil {
		WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess, _ := sessionFrom(r.Context())
	if _, err := s.backend.AddApartment(r.Context(), sess.User().ID, apartment); err != nil {
		s.fail(w, r, err, "Failed to add apartment")
		return
	}

	s.respondRefreshed(w, r, http.StatusCreated)
}

func (s *Server) handleDeleteApartment(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess, _ := sessionFrom(r.Context())
	if err := s.backend.DeleteApartment(r.Context(), sess.User().ID, id); err != nil {
		s.fail(w, r, err, "Failed to delete apartment")
		return
	}

	s.respondRefreshed(w, r, http.StatusOK)
}

func (s *Server) handleAddCar(w http.ResponseWriter, r *http.Request) {
	var car domain.Car
	if err := decodeJSON(r, &car); err != nil {
		WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	car.Plate = validation.NormalizePlate(car.Plate)

	if err := s.validator.Struct(car); err != nil {
		WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess, _ := sessionFrom(r.Context())
	if _, err := s.backend.AddCar(r.Context(), sess.User().ID, car); err != nil {
		s.fail(w, r, err, "Failed to add car")
		return
	}

	s.respondRefreshed(w, r, http.StatusCreated)
}

func (s *Server) handleDeleteCar(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess, _ := sessionFrom(r.Context())
	if err := s.backend.DeleteCar(r.Context(), sess.User().ID, id); err != nil {
		s.fail(w, r, err, "Failed to delete car")
		return
	}

	s.respondRefreshed(w, r, http.StatusOK)
}

// handleFindNeighbors: GET /api/v1/neighbors?house=1&entrance=2&number=45
func (s *Server) handleFindNeighbors(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	number, err := validation.ParseApartmentNumber(query.Get("number"))
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	entrance := 0
	if raw := query.Get("entrance"); raw != "" {
		entrance, err = strconv.Atoi(raw)
		if err != nil || entrance < 0 {
			WriteJSONError(w, http.StatusBadRequest, "номер подъезда должен быть числом")
			return
		}
	}

	neighbors, err := s.backend.FindNeighbors(r.Context(), strings.TrimSpace(query.Get("house")), entrance, number)
	if err != nil {
		s.fail(w, r, err, "Failed to find neighbors")
		return
	}
	if neighbors == nil {
		neighbors = []domain.Neighbor{}
	}
	RespondWithJSON(w, http.StatusOK, neighbors)
}

// handleFindCars: GET /api/v1/cars?plate=А123АА12 - "чья машина"
func (s *Server) handleFindCars(w http.ResponseWriter, r *http.Request) {
	plate := r.URL.Query().Get("plate")
	if err := validation.ValidatePlate(plate); err != nil {
		WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	owners, err := s.backend.FindCarOwners(r.Context(), validation.NormalizePlate(plate))
	if err != nil {
		s.fail(w, r, err, "Failed to find car owners")
		return
	}
	if owners == nil {
		owners = []domain.CarOwner{}
	}
	RespondWithJSON(w, http.StatusOK, owners)
}
