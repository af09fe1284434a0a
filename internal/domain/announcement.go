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
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/dustin/go-humanize"
)

// Текст-заглушка, которым фронтенд помечает отсутствие цены
const PriceUnspecified string = "Цена не указана"

type Status string

const (
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
	StatusDraft    Status = "draft"
	StatusDeleted  Status = "deleted"
)

func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusActive:
		return StatusActive, nil
	case StatusArchived:
		return StatusArchived, nil
	case StatusDraft:
		return StatusDraft, nil
	case StatusDeleted:
		return StatusDeleted, nil
	default:
		return "", fmt.Errorf("unknown announcement status %q", s)
	}
}

// Price - цена объявления. Specified == false означает "цена не указана".
type Price struct {
	Amount    int64
	Specified bool
}

func NewPrice(amount int64) Price {
	return Price{Amount: amount, Specified: true}
}

// ParsePrice принимает то, что пользователь ввел в поле цены:
// "12 000", "12000", пустую строку или заглушку.
func ParsePrice(s string) (Price, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, PriceUnspecified) {
		return Price{}, nil
	}

	digits := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)

	amount, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return Price{}, fmt.Errorf("invalid price %q: %w", s, err)
	}
	if amount < 0 {
		return Price{}, fmt.Errorf("negative price %q", s)
	}

	return NewPrice(amount), nil
}

// String возвращает цену с разделителем разрядов, например "12 000 ₽"
func (p Price) String() string {
	if !p.Specified {
		return PriceUnspecified
	}
	return humanize.FormatInteger("# ###.", int(p.Amount)) + " ₽"
}

// Raw возвращает цену в том виде, в котором ее хранит форма редактирования
func (p Price) Raw() string {
	if !p.Specified {
		return ""
	}
	return strconv.FormatInt(p.Amount, 10)
}

func (p Price) MarshalJSON() ([]byte, error) {
	if !p.Specified {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(p.Amount, 10)), nil
}

func (p *Price) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*p = Price{}
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := ParsePrice(s)
		if err != nil {
			// Бэкенд иногда присылает произвольный текст ("Договорная")
			*p = Price{}
			return nil
		}
		*p = parsed
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*p = NewPrice(int64(f))
	return nil
}

type Image struct {
	URL    string `json:"url"`
	IsMain bool   `json:"is_main"`
}

// NormalizeImages строит упорядоченный набор изображений, в котором главным
// отмечено ровно одно. Некорректный mainIndex сводится к первому изображению.
func NormalizeImages(urls []string, mainIndex int) []Image {
	var images []Image
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		images = append(images, Image{URL: u})
	}

	if len(images) == 0 {
		return nil
	}

	if mainIndex < 0 || mainIndex >= len(images) {
		mainIndex = 0
	}
	images[mainIndex].IsMain = true

	return images
}

type Announcement struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Price         Price     `json:"price"`
	Status        Status    `json:"status"`
	CategoryID    int64     `json:"category_id"`
	SubcategoryID int64     `json:"subcategory_id,omitempty"`
	OwnerID       int64     `json:"owner_id"`
	Location      string    `json:"location,omitempty"`
	Contact       string    `json:"contact,omitempty"`
	Views         int64     `json:"views"`
	CreatedAt     time.Time `json:"created_at"`
	ExpiresAt     time.Time `json:"expires_at"`
	Images        []Image   `json:"images"`
}

// MainIndex возвращает индекс главного изображения или -1, если изображений нет
func (a *Announcement) MainIndex() int {
	for i, img := range a.Images {
		if img.IsMain {
			return i
		}
	}
	if len(a.Images) > 0 {
		return 0
	}
	return -1
}

func (a *Announcement) MainImage() (Image, bool) {
	idx := a.MainIndex()
	if idx < 0 {
		return Image{}, false
	}
	return a.Images[idx], true
}

func (a *Announcement) ImageURLs() []string {
	urls := make([]string, 0, len(a.Images))
	for _, img := range a.Images {
		urls = append(urls, img.URL)
	}
	return urls
}

func (a *Announcement) IsOwnedBy(user *User) bool {
	return user != nil && a.OwnerID == user.ID
}

func (a *Announcement) Expired(now time.Time) bool {
	return !a.ExpiresAt.IsZero() && now.After(a.ExpiresAt)
}

// AnnouncementFilter - параметры выборки ленты объявлений
type AnnouncementFilter struct {
	CategoryID    int64
	SubcategoryID int64
	Status        Status
	OwnerID       int64
}
