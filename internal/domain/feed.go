package domain

import (
	"encoding/json"
	"net/url"

	"github.com/google/uuid"
)

// FeedItem представляет отдельную запись удаленной ленты.
// Значение неизменяемо после создания; отсутствующие необязательные поля равны nil.
type FeedItem struct {
	ID          uuid.UUID
	Description *string
	Location    *string
	ImageURL    *url.URL
}

// Equal сравнивает две записи по значениям полей.
func (i FeedItem) Equal(other FeedItem) bool {
	return i.ID == other.ID &&
		equalOptional(i.Description, other.Description) &&
		equalOptional(i.Location, other.Location) &&
		equalURL(i.ImageURL, other.ImageURL)
}

// MarshalJSON кодирует запись в формате удаленного API.
// Отсутствующие необязательные поля опускаются.
func (i FeedItem) MarshalJSON() ([]byte, error) {
	image := ""
	if i.ImageURL != nil {
		image = i.ImageURL.String()
	}
	return json.Marshal(struct {
		ID          string  `json:"id"`
		Description *string `json:"description,omitempty"`
		Location    *string `json:"location,omitempty"`
		Image       string  `json:"image"`
	}{
		ID:          i.ID.String(),
		Description: i.Description,
		Location:    i.Location,
		Image:       image,
	})
}

func equalOptional(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalURL(a, b *url.URL) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.String() == b.String()
}

// LoadFeedResult представляет итог одной загрузки ленты.
// Err равен nil при успехе; иначе Items пуст.
type LoadFeedResult struct {
	Items []FeedItem
	Err   error
}

// FeedLoader определяет контракт загрузки ленты с доставкой результата в completion.
// completion вызывается не более одного раза на каждый вызов Load.
type FeedLoader interface {
	Load(completion func(LoadFeedResult))
}
