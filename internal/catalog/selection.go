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

package catalog

import (
	"context"
	"fmt"
	"sync"

	"Unbewohnte/SOSEDI/internal/domain"
)

type SubcategoryFetcher interface {
	Subcategories(ctx context.Context, categoryID int64) ([]domain.Subcategory, error)
}

// Selection - выбор категории с раскрытием подкатегорий.
// Повторный выбор той же категории сбрасывает фильтр целиком.
type Selection struct {
	mu            sync.Mutex
	fetcher       SubcategoryFetcher
	categoryID    int64
	subcategoryID int64
	subcategories []domain.Subcategory
}

// Снимок состояния выбора для ответа клиенту
type View struct {
	CategoryID    int64                `json:"category_id,omitempty"`
	SubcategoryID int64                `json:"subcategory_id,omitempty"`
	Subcategories []domain.Subcategory `json:"subcategories"`
}

func NewSelection(fetcher SubcategoryFetcher) *Selection {
	return &Selection{fetcher: fetcher}
}

func (s *Selection) Select(ctx context.Context, categoryID int64) (View, error) {
	s.mu.Lock()
	if categoryID == 0 || categoryID == s.categoryID {
		s.reset()
		view := s.view()
		s.mu.Unlock()
		return view, nil
	}

	s.categoryID = categoryID
	s.subcategoryID = 0
	s.subcategories = nil
	s.mu.Unlock()

	// Запрос идет без блокировки; если за это время выбрали другую
	// категорию, результат устаревшего запроса отбрасывается.
	subcategories, err := s.fetcher.Subcategories(ctx, categoryID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		return s.view(), fmt.Errorf("failed to fetch subcategories of %d: %w", categoryID, err)
	}

	if s.categoryID == categoryID {
		s.subcategories = subcategories
	}

	return s.view(), nil
}

// SelectSubcategory выбирает подкатегорию внутри текущей категории.
// Повторный выбор снимает отметку.
func (s *Selection) SelectSubcategory(subcategoryID int64) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.categoryID == 0 {
		return s.view(), fmt.Errorf("категория не выбрана")
	}

	if subcategoryID == s.subcategoryID {
		s.subcategoryID = 0
		return s.view(), nil
	}

	for _, sub := range s.subcategories {
		if sub.ID == subcategoryID {
			s.subcategoryID = subcategoryID
			return s.view(), nil
		}
	}

	return s.view(), fmt.Errorf("подкатегория %d не относится к категории %d", subcategoryID, s.categoryID)
}

func (s *Selection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

func (s *Selection) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view()
}

// Filter возвращает фильтр ленты по текущему выбору (только активные объявления)
func (s *Selection) Filter() domain.AnnouncementFilter {
	s.mu.Lock()
	defer s.mu.Unlock()

	return domain.AnnouncementFilter{
		CategoryID:    s.categoryID,
		SubcategoryID: s.subcategoryID,
		Status:        domain.StatusActive,
	}
}

func (s *Selection) reset() {
	s.categoryID = 0
	s.subcategoryID = 0
	s.subcategories = nil
}

func (s *Selection) view() View {
	subs := make([]domain.Subcategory, len(s.subcategories))
	copy(subs, s.subcategories)

	return View{
		CategoryID:    s.categoryID,
		SubcategoryID: s.subcategoryID,
		Subcategories: subs,
	}
}
