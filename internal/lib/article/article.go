// Package article готовит текст статьи к суммаризации и отправке.
package article

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/magabrotheeeer/whatsapp-news-bot/internal/models"
)

// UnknownSource подставляется, когда у статьи нет источника.
const UnknownSource = "Unknown"

// Text возвращает текст статьи без HTML-разметки: content, иначе description, иначе title.
func Text(a models.Article) string {
	for _, candidate := range []string{a.Content, a.Description, a.Title} {
		if text := StripHTML(candidate); text != "" {
			return text
		}
	}
	return ""
}

// StripHTML убирает разметку и схлопывает пробелы.
func StripHTML(s string) string {
	if s == "" {
		return ""
	}
	text := s
	if strings.ContainsAny(s, "<&") {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
		if err == nil {
			text = doc.Text()
		}
	}
	return strings.Join(strings.Fields(text), " ")
}

// Excerpt обрезает text до limit символов и добавляет "..." если текст длиннее.
func Excerpt(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return string(runes[:limit]) + "..."
}

// Source возвращает идентификатор источника или UnknownSource.
func Source(a models.Article) string {
	if s := strings.TrimSpace(a.SourceID); s != "" {
		return s
	}
	return UnknownSource
}
