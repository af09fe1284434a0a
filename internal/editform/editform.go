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

// Package editform определяет, отличается ли редактируемое объявление от исходного.
// Кнопка "Сохранить" доступна только при наличии изменений.
package editform

import (
	"strconv"
	"strings"
	"unicode"

	"Unbewohnte/SOSEDI/internal/domain"
)

// State - состояние формы редактирования объявления
type State struct {
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	Price         string        `json:"price"`
	Status        domain.Status `json:"status"`
	CategoryID    int64         `json:"category_id"`
	SubcategoryID int64         `json:"subcategory_id"`
	Location      string        `json:"location"`
	Contact       string        `json:"contact"`
	Images        []string      `json:"images"`
	MainImage     int           `json:"main_image"`
}

// FromAnnouncement заполняет форму значениями сохраненного объявления
func FromAnnouncement(a *domain.Announcement) State {
	mainImage := a.MainIndex()
	if mainImage < 0 {
		mainImage = 0
	}

	return State{
		Title:         a.Title,
		Description:   a.Description,
		Price:         a.Price.Raw(),
		Status:        a.Status,
		CategoryID:    a.CategoryID,
		SubcategoryID: a.SubcategoryID,
		Location:      a.Location,
		Contact:       a.Contact,
		Images:        a.ImageURLs(),
		MainImage:     mainImage,
	}
}

// NormalizePrice приводит заглушку "Цена не указана" к пустой строке
// и убирает пробелы из числовых значений ("12 000" -> "12000").
func NormalizePrice(price string) string {
	price = strings.TrimSpace(price)
	if strings.EqualFold(price, domain.PriceUnspecified) {
		return ""
	}

	stripped := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, price)

	if _, err := strconv.ParseFloat(stripped, 64); err == nil {
		return stripped
	}

	return price
}

// Diff возвращает имена полей, которые отличаются
func Diff(original, current State) []string {
	var changed []string

	if original.Title != current.Title {
		changed = append(changed, "title")
	}
	if original.Description != current.Description {
		changed = append(changed, "description")
	}
	if NormalizePrice(original.Price) != NormalizePrice(current.Price) {
		changed = append(changed, "price")
	}
	// Форма без статуса статус не меняет
	if current.Status != "" && original.Status != current.Status {
		changed = append(changed, "status")
	}
	if original.CategoryID != current.CategoryID {
		changed = append(changed, "category")
	}
	if original.SubcategoryID != current.SubcategoryID {
		changed = append(changed, "subcategory")
	}
	if original.Location != current.Location {
		changed = append(changed, "location")
	}
	if original.Contact != current.Contact {
		changed = append(changed, "contact")
	}
	if !sameImages(original.Images, current.Images) {
		changed = append(changed, "images")
	}
	if original.MainImage != current.MainImage {
		changed = append(changed, "main_image")
	}

	return changed
}

func HasChanges(original, current State) bool {
	return len(Diff(original, current)) > 0
}

// ImagesChanged - изменился ли набор изображений или выбор главного
func ImagesChanged(original, current State) bool {
	return !sameImages(original.Images, current.Images) || original.MainImage != current.MainImage
}

// Порядок важен
func sameImages(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
