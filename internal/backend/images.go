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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
)

// Файл для загрузки на бэкенд
type Upload struct {
	Filename string
	Content  io.Reader
}

func (c *Client) UploadImage(ctx context.Context, upload Upload) (string, error) {
	body, contentType, err := multipartBody("image", []Upload{upload})
	if err != nil {
		return "", err
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/images/upload", nil, body, contentType)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var result struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode upload response: %w", err)
	}
	if result.URL == "" {
		return "", fmt.Errorf("backend returned empty image url for %q", upload.Filename)
	}

	return result.URL, nil
}

// UploadImages загружает несколько файлов одним запросом
func (c *Client) UploadImages(ctx context.Context, uploads []Upload) ([]string, error) {
	body, contentType, err := multipartBody("images", uploads)
	if err != nil {
		return nil, err
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/images/upload-multiple", nil, body, contentType)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result struct {
		URLs []string `json:"urls"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode upload response: %w", err)
	}

	return result.URLs, nil
}

func (c *Client) DeleteImage(ctx context.Context, imageURL string) error {
	query := url.Values{}
	query.Set("url", imageURL)
	return c.doJSON(ctx, http.MethodDelete, "/images", query, nil, nil)
}

func multipartBody(field string, uploads []Upload) (io.Reader, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for _, upload := range uploads {
		part, err := writer.CreateFormFile(field, upload.Filename)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create form file: %w", err)
		}
		if _, err := io.Copy(part, upload.Content); err != nil {
			return nil, "", fmt.Errorf("failed to read %q: %w", upload.Filename, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", err
	}

	return &buf, writer.FormDataContentType(), nil
}
