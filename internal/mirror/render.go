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

package mirror

import (
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"Unbewohnte/SOSEDI/internal/domain"
)

const (
	// Ограничения Bot API
	MaxTextLength    = 4096
	MaxCaptionLength = 1024

	separator = "➖➖➖➖➖➖➖➖"
)

// Renderer строит HTML-текст сообщения-зеркала
type Renderer struct {
	SiteURL string
}

// Content - то, чем заполняется сообщение в чате
type Content struct {
	Text     string
	Caption  string
	ImageURL string
}

func (r Renderer) Content(a *domain.Announcement, author *domain.User) Content {
	content := Content{
		Text:    r.Render(a, author, MaxTextLength),
		Caption: r.Render(a, author, MaxCaptionLength),
	}
	if img, ok := a.MainImage(); ok {
		content.ImageURL = img.URL
	}

	return content
}

func (r Renderer) DetailURL(id int64) string {
	return fmt.Sprintf("%s/announcements/%d", strings.TrimRight(r.SiteURL, "/"), id)
}

// Render собирает сообщение и при необходимости укорачивает описание так,
// чтобы весь текст уложился в limit символов.
func (r Renderer) Render(a *domain.Announcement, author *domain.User, limit int) string {
	var head strings.Builder
	if a.Status == domain.StatusArchived {
		head.WriteString("🗄 <b>Объявление снято с публикации</b>\n\n")
	}
	head.WriteString("<b>" + html.EscapeString(a.Title) + "</b>\n")
	head.WriteString(separator + "\n")

	var tail strings.Builder
	tail.WriteString("\n\n")
	if a.Price.Specified {
		tail.WriteString("💰 <b>Цена:</b> " + html.EscapeString(a.Price.String()) + "\n")
	}
	tail.WriteString("👤 <b>Автор:</b> " + authorLink(author) + "\n")
	tail.WriteString(fmt.Sprintf("🔗 <a href=\"%s\">Подробнее на сайте</a>", html.EscapeString(r.DetailURL(a.ID))))

	budget := limit - utf8.RuneCountInString(head.String()) - utf8.RuneCountInString(tail.String())
	body := truncateEscaped(strings.TrimSpace(a.Description), budget)

	return head.String() + body + tail.String()
}

func authorLink(author *domain.User) string {
	name := html.EscapeString(author.DisplayName())
	if author != nil && author.Username != "" {
		return fmt.Sprintf("<a href=\"https://t.me/%s\">%s</a>", html.EscapeString(author.Username), name)
	}
	return name
}

// truncateEscaped экранирует текст и обрезает его по границе символа,
// не разрывая HTML-сущности.
func truncateEscaped(text string, budget int) string {
	escaped := html.EscapeString(text)
	if utf8.RuneCountInString(escaped) <= budget {
		return escaped
	}
	if budget <= 1 {
		return ""
	}

	var sb strings.Builder
	used := 0
	for _, r := range text {
		piece := html.EscapeString(string(r))
		size := utf8.RuneCountInString(piece)
		if used+size > budget-1 {
			break
		}
		sb.WriteString(piece)
		used += size
	}

	return strings.TrimRight(sb.String(), " \n") + "…"
}
