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
	"strings"
	"time"

	"Unbewohnte/SOSEDI/internal/domain"
)

type adImageDTO struct {
	ImageURL string `json:"image_url"`
	IsMain   bool   `json:"is_main"`
}

// announcementDTO принимает обе формы, в которых бэкенд отдает объявления:
// с вложенным списком ad_images или с плоским списком images и индексом главного.
type announcementDTO struct {
	ID             int64        `json:"id"`
	Title          string       `json:"title"`
	Description    string       `json:"description"`
	Content        string       `json:"content"`
	Price          domain.Price `json:"price"`
	Status         string       `json:"status"`
	CategoryID     int64        `json:"category_id"`
	SubcategoryID  int64        `json:"subcategory_id"`
	UserID         int64        `json:"user_id"`
	Location       string       `json:"location"`
	Contact        string       `json:"contact"`
	Views          int64        `json:"views_count"`
	CreatedAt      *time.Time   `json:"created_at"`
	ExpiresAt      *time.Time   `json:"expires_at"`
	AdImages       []adImageDTO `json:"ad_images"`
	Images         []string     `json:"images"`
	MainImageIndex *int         `json:"main_image_index"`
}

func (dto *announcementDTO) toDomain() domain.Announcement {
	announcement := domain.Announcement{
		ID:            dto.ID,
		Title:         dto.Title,
		Description:   dto.Description,
		Price:         dto.Price,
		CategoryID:    dto.CategoryID,
		SubcategoryID: dto.SubcategoryID,
		OwnerID:       dto.UserID,
		Location:      dto.Location,
		Contact:       dto.Contact,
		Views:         dto.Views,
	}

	if announcement.Description == "" {
		announcement.Description = dto.Content
	}

	status, err := domain.ParseStatus(dto.Status)
	if err != nil {
		status = domain.StatusActive
	}
	announcement.Status = status

	if dto.CreatedAt != nil {
		announcement.CreatedAt = *dto.CreatedAt
	}
	if dto.ExpiresAt != nil {
		announcement.ExpiresAt = *dto.ExpiresAt
	}

	switch {
	case len(dto.AdImages) > 0:
		urls := make([]string, 0, len(dto.AdImages))
		mainIndex := 0
		for i, img := range dto.AdImages {
			urls = append(urls, img.ImageURL)
			if img.IsMain {
				mainIndex = i
			}
		}
		announcement.Images = domain.NormalizeImages(urls, mainIndex)
	case len(dto.Images) > 0:
		mainIndex := 0
		if dto.MainImageIndex != nil {
			mainIndex = *dto.MainImageIndex
		}
		announcement.Images = domain.NormalizeImages(dto.Images, mainIndex)
	}

	return announcement
}

type announcementPayload struct {
	Title         string       `json:"title"`
	Description   string       `json:"description"`
	Price         *int64       `json:"price"`
	Status        string       `json:"status"`
	CategoryID    int64        `json:"category_id"`
	SubcategoryID int64        `json:"subcategory_id,omitempty"`
	UserID        int64        `json:"user_id"`
	Location      string       `json:"location"`
	Contact       string       `json:"contact"`
	ExpiresAt     *time.Time   `json:"expires_at,omitempty"`
	AdImages      []adImageDTO `json:"ad_images,omitempty"`
}

func payloadFrom(a *domain.Announcement) announcementPayload {
	payload := announcementPayload{
		Title:         a.Title,
		Description:   a.Description,
		Status:        string(a.Status),
		CategoryID:    a.CategoryID,
		SubcategoryID: a.SubcategoryID,
		UserID:        a.OwnerID,
		Location:      a.Location,
		Contact:       a.Contact,
		AdImages:      imagesPayload(a.Images),
	}
	if a.Price.Specified {
		amount := a.Price.Amount
		payload.Price = &amount
	}
	if !a.ExpiresAt.IsZero() {
		expiresAt := a.ExpiresAt
		payload.ExpiresAt = &expiresAt
	}

	return payload
}

func imagesPayload(images []domain.Image) []adImageDTO {
	var out []adImageDTO
	for _, img := range images {
		out = append(out, adImageDTO{ImageURL: img.URL, IsMain: img.IsMain})
	}
	return out
}

func announcementPath(id int64, suffix ...string) string {
	path := "/announcements/" + strconv.FormatInt(id, 10)
	if len(suffix) > 0 {
		path += "/" + strings.Join(suffix, "/")
	}
	return path
}

func (c *Client) ListAnnouncements(ctx context.Context, filter domain.AnnouncementFilter) ([]domain.Announcement, error) {
	query := url.Values{}
	if filter.CategoryID != 0 {
		query.Set("category_id", strconv.FormatInt(filter.CategoryID, 10))
	}
	if filter.SubcategoryID != 0 {
		query.Set("subcategory_id", strconv.FormatInt(filter.SubcategoryID, 10))
	}
	if filter.Status != "" {
		query.Set("status", string(filter.Status))
	}
	if filter.OwnerID != 0 {
		query.Set("user_id", strconv.FormatInt(filter.OwnerID, 10))
	}

	var dtos []announcementDTO
	if err := c.doJSON(ctx, http.MethodGet, "/announcements", query, nil, &dtos); err != nil {
		return nil, err
	}

	announcements := make([]domain.Announcement, 0, len(dtos))
	for i := range dtos {
		announcements = append(announcements, dtos[i].toDomain())
	}

	return announcements, nil
}

func (c *Client) GetAnnouncement(ctx context.Context, id int64) (*domain.Announcement, error) {
	var dto announcementDTO
	if err := c.doJSON(ctx, http.MethodGet, announcementPath(id), nil, nil, &dto); err != nil {
		return nil, err
	}

	announcement := dto.toDomain()
	return &announcement, nil
}

// CreateAnnouncement возвращает объявление в том виде, в котором его сохранил бэкенд
func (c *Client) CreateAnnouncement(ctx context.Context, a *domain.Announcement) (*domain.Announcement, error) {
	var dto announcementDTO
	if err := c.doJSON(ctx, http.MethodPost, "/announcements", nil, payloadFrom(a), &dto); err != nil {
		return nil, err
	}

	created := dto.toDomain()
	if created.ID == 0 {
		return nil, fmt.Errorf("backend did not return announcement id")
	}
	// Бэкенд может не вернуть изображения в ответе на создание
	if len(created.Images) == 0 {
		created.Images = a.Images
	}

	return &created, nil
}

func (c *Client) UpdateAnnouncement(ctx context.Context, a *domain.Announcement) error {
	payload := payloadFrom(a)
	payload.AdImages = nil
	return c.doJSON(ctx, http.MethodPut, announcementPath(a.ID), nil, payload, nil)
}

// ReplaceImages заменяет набор изображений объявления целиком
func (c *Client) ReplaceImages(ctx context.Context, id int64, images []domain.Image) error {
	payload := struct {
		AdImages []adImageDTO `json:"ad_images"`
	}{AdImages: imagesPayload(images)}
	if payload.AdImages == nil {
		payload.AdImages = []adImageDTO{}
	}

	return c.doJSON(ctx, http.MethodPut, announcementPath(id, "images"), nil, payload, nil)
}

func (c *Client) SetExpiry(ctx context.Context, id int64, expiresAt time.Time) error {
	payload := struct {
		ExpiresAt time.Time `json:"expires_at"`
	}{ExpiresAt: expiresAt}

	return c.doJSON(ctx, http.MethodPut, announcementPath(id, "extend"), nil, payload, nil)
}

func (c *Client) ArchiveAnnouncement(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodPost, announcementPath(id, "archive"), nil, nil, nil)
}

func (c *Client) UnarchiveAnnouncement(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodPost, announcementPath(id, "unarchive"), nil, nil, nil)
}

func (c *Client) DeleteAnnouncement(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, announcementPath(id), nil, nil, nil)
}

func (c *Client) IncrementViews(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodPost, announcementPath(id, "views"), nil, nil, nil)
}

func (c *Client) Categories(ctx context.Context) ([]domain.Category, error) {
	var categories []domain.Category
	if err := c.doJSON(ctx, http.MethodGet, "/categories", nil, nil, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

func (c *Client) Subcategories(ctx context.Context, categoryID int64) ([]domain.Subcategory, error) {
	var subcategories []domain.Subcategory
	path := fmt.Sprintf("/categories/%d/subcategories", categoryID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, nil, &subcategories); err != nil {
		return nil, err
	}

	for i := range subcategories {
		if subcategories[i].CategoryID == 0 {
			subcategories[i].CategoryID = categoryID
		}
	}

	return subcategories, nil
}

func (c *Client) ListPosts(ctx context.Context) ([]domain.Post, error) {
	var posts []domain.Post
	if err := c.doJSON(ctx, http.MethodGet, "/posts", nil, nil, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (c *Client) GetPost(ctx context.Context, id int64) (*domain.Post, error) {
	var post domain.Post
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/posts/%d", id), nil, nil, &post); err != nil {
		return nil, err
	}
	return &post, nil
}
