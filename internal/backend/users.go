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

package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"Unbewohnte/SOSEDI/internal/domain"
)

func (c *Client) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	var user domain.User
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/users/%d", id), nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUser сохраняет редактируемые поля профиля и возвращает актуального пользователя
func (c *Client) UpdateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	payload := struct {
		CustomFirstName string `json:"custom_first_name"`
		CustomLastName  string `json:"custom_last_name"`
		UseCustomName   bool   `json:"use_custom_name"`
	}{
		CustomFirstName: user.CustomFirstName,
		CustomLastName:  user.CustomLastName,
		UseCustomName:   user.UseCustomName,
	}

	var updated domain.User
	if err := c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/users/%d", user.ID), nil, payload, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// AuthTelegram обменивает проверенные данные виджета входа на пользователя платформы
func (c *Client) AuthTelegram(ctx context.Context, identity domain.TelegramIdentity) (*domain.User, error) {
	payload := struct {
		domain.TelegramIdentity
		Salt string `json:"salt"`
	}{
		TelegramIdentity: identity,
		Salt:             c.salt,
	}

	var user domain.User
	if err := c.doJSON(ctx, http.MethodPost, "/auth/telegram", nil, payload, &user); err != nil {
		return nil, err
	}
	if user.ID == 0 {
		return nil, fmt.Errorf("backend did not return user id")
	}
	return &user, nil
}

func (c *Client) AddApartment(ctx context.Context, userID int64, apartment domain.Apartment) (*domain.Apartment, error) {
	var created domain.Apartment
	path := fmt.Sprintf("/users/%d/apartments", userID)
	if err := c.doJSON(ctx, http.MethodPost, path, nil, apartment, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) DeleteApartment(ctx context.Context, userID, apartmentID int64) error {
	path := fmt.Sprintf("/users/%d/apartments/%d", userID, apartmentID)
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil, nil)
}

func (c *Client) AddCar(ctx context.Context, userID int64, car domain.Car) (*domain.Car, error) {
	var created domain.Car
	path := fmt.Sprintf("/users/%d/cars", userID)
	if err := c.doJSON(ctx, http.MethodPost, path, nil, car, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) DeleteCar(ctx context.Context, userID, carID int64) error {
	path := fmt.Sprintf("/users/%d/cars/%d", userID, carID)
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil, nil)
}

// FindNeighbors - "найди соседа" по дому, подъезду и номеру квартиры.
// Нулевые entrance/number не участвуют в поиске.
func (c *Client) FindNeighbors(ctx context.Context, house string, entrance, number int) ([]domain.Neighbor, error) {
	query := url.Values{}
	query.Set("house", house)
	if entrance > 0 {
		query.Set("entrance", strconv.Itoa(entrance))
	}
	if number > 0 {
		query.Set("number", strconv.Itoa(number))
	}

	var neighbors []domain.Neighbor
	if err := c.doJSON(ctx, http.MethodGet, "/apartments/search", query, nil, &neighbors); err != nil {
		return nil, err
	}
	return neighbors, nil
}

// FindCarOwners - "чья машина" по номеру
func (c *Client) FindCarOwners(ctx context.Context, plate string) ([]domain.CarOwner, error) {
	query := url.Values{}
	query.Set("plate", plate)

	var owners []domain.CarOwner
	if err := c.doJSON(ctx, http.MethodGet, "/cars/search", query, nil, &owners); err != nil {
		return nil, err
	}
	return owners, nil
}
