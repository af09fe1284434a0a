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

package domain

import (
	"strings"
	"time"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Квартира жильца
type Apartment struct {
	ID       int64  `json:"id"`
	House    string `json:"house" validate:"required,max=16"`
	Entrance int    `json:"entrance" validate:"min=0,max=20"`
	Floor    int    `json:"floor" validate:"min=0,max=40"`
	Number   int    `json:"number" validate:"required,min=1,max=515"`
}

// Автомобиль жильца
type Car struct {
	ID    int64  `json:"id"`
	Brand string `json:"brand" validate:"required,max=64"`
	Model string `json:"model" validate:"max=64"`
	Plate string `json:"plate" validate:"required,ru_plate"`
	Color string `json:"color" validate:"max=32"`
}

type User struct {
	ID         int64  `json:"id"`
	TelegramID int64  `json:"telegram_id"`
	Username   string `json:"username"`

	// Имя из Telegram
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`

	// Имя, отредактированное вручную
	CustomFirstName string `json:"custom_first_name"`
	CustomLastName  string `json:"custom_last_name"`
	UseCustomName   bool   `json:"use_custom_name"`

	PhotoURL   string      `json:"photo_url"`
	Role       Role        `json:"role"`
	Apartments []Apartment `json:"apartments"`
	Cars       []Car       `json:"cars"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// DisplayName возвращает имя, которое считается основным для пользователя
func (u *User) DisplayName() string {
	if u == nil {
		return "Неизвестный пользователь"
	}

	first, last := u.FirstName, u.LastName
	if u.UseCustomName && strings.TrimSpace(u.CustomFirstName+u.CustomLastName) != "" {
		first, last = u.CustomFirstName, u.CustomLastName
	}

	name := strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
	if name == "" && u.Username != "" {
		return "@" + u.Username
	}
	if name == "" {
		return "Неизвестный пользователь"
	}
	return name
}

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Subcategory struct {
	ID         int64  `json:"id"`
	CategoryID int64  `json:"category_id"`
	Name       string `json:"name"`
}

// Новость из ленты
type Post struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	ImageURL  string    `json:"image_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Результат поиска соседа по квартире
type Neighbor struct {
	User      User      `json:"user"`
	Apartment Apartment `json:"apartment"`
}

// Результат поиска владельца автомобиля
type CarOwner struct {
	User User `json:"user"`
	Car  Car  `json:"car"`
}

// Данные, которые виджет входа Telegram передает в callback
type TelegramIdentity struct {
	ID        int64  `json:"id"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	PhotoURL  string `json:"photo_url,omitempty"`
	AuthDate  int64  `json:"auth_date"`
	Hash      string `json:"hash"`
}
