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

package announce

import (
	"strings"

	"Unbewohnte/SOSEDI/internal/domain"
	"Unbewohnte/SOSEDI/internal/editform"
)

// Draft - данные формы подачи или редактирования объявления
type Draft struct {
	Title         string        `json:"title" validate:"required,max=200"`
	Description   string        `json:"description" validate:"max=4000"`
	Price         string        `json:"price" validate:"max=32"`
	Status        domain.Status `json:"status" validate:"omitempty,oneof=active draft archived"`
	CategoryID    int64         `json:"category_id" validate:"required,gt=0"`
	SubcategoryID int64         `json:"subcategory_id" validate:"gte=0"`
	Location      string        `json:"location" validate:"max=200"`
	Contact       string        `json:"contact" validate:"max=200"`
	Images        []string      `json:"images" validate:"max=10,dive,required"`
	MainImage     int           `json:"main_image" validate:"gte=0"`
}

func draftFromState(state editform.State) Draft {
	return Draft{
		Title:         state.Title,
		Description:   state.Description,
		Price:         state.Price,
		Status:        state.Status,
		CategoryID:    state.CategoryID,
		SubcategoryID: state.SubcategoryID,
		Location:      state.Location,
		Contact:       state.Contact,
		Images:        state.Images,
		MainImage:     state.MainImage,
	}
}

// apply переносит поля формы в объявление. Цена уже должна быть проверена.
func (d Draft) apply(a *domain.Announcement, price domain.Price) {
	a.Title = strings.TrimSpace(d.Title)
	a.Description = strings.TrimSpace(d.Description)
	a.Price = price
	if d.Status != "" {
		a.Status = d.Status
	}
	a.CategoryID = d.CategoryID
	a.SubcategoryID = d.SubcategoryID
	a.Location = strings.TrimSpace(d.Location)
	a.Contact = strings.TrimSpace(d.Contact)
	a.Images = domain.NormalizeImages(d.Images, d.MainImage)
}
