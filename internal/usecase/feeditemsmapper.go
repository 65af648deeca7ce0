package usecase

import (
	"encoding/json"
	"net/http"
	"net/url"

	"feedloader/internal/domain"

	"github.com/google/uuid"
)

// rawObject хранит поля JSON-объекта без разбора значений.
// Ключи сравниваются точно, с учетом регистра.
type rawObject map[string]json.RawMessage

// requiredString возвращает строковое значение обязательного поля.
// Отсутствие поля, null и значение другого типа считаются ошибкой.
func (o rawObject) requiredString(key string) (string, bool) {
	value, ok := o.optionalString(key)
	if !ok || value == nil {
		return "", false
	}
	return *value, true
}

// optionalString возвращает nil, если поле отсутствует или равно null.
func (o rawObject) optionalString(key string) (*string, bool) {
	raw, ok := o[key]
	if !ok || string(raw) == "null" {
		return nil, true
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, false
	}
	return &value, true
}

// parseItem переводит запись ленты в доменную модель. ok равен false, если
// обязательное поле отсутствует или имеет неверный формат.
func parseItem(raw json.RawMessage) (domain.FeedItem, bool) {
	var obj rawObject
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return domain.FeedItem{}, false
	}
	rawID, ok := obj.requiredString("id")
	if !ok {
		return domain.FeedItem{}, false
	}
	// uuid.Parse допускает urn- и {}-формы, API отдает только каноническую.
	if len(rawID) != 36 {
		return domain.FeedItem{}, false
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return domain.FeedItem{}, false
	}
	rawImage, ok := obj.requiredString("image")
	if !ok {
		return domain.FeedItem{}, false
	}
	image, ok := parseImageURL(rawImage)
	if !ok {
		return domain.FeedItem{}, false
	}
	description, ok := obj.optionalString("description")
	if !ok {
		return domain.FeedItem{}, false
	}
	location, ok := obj.optionalString("location")
	if !ok {
		return domain.FeedItem{}, false
	}
	return domain.FeedItem{
		ID:          id,
		Description: description,
		Location:    location,
		ImageURL:    image,
	}, true
}

// parseImageURL принимает только абсолютный URL, который выводится обратно
// в тот же текст.
func parseImageURL(raw string) (*url.URL, bool) {
	if raw == "" {
		return nil, false
	}
	image, err := url.Parse(raw)
	if err != nil || image.Scheme == "" {
		return nil, false
	}
	if image.String() != raw {
		return nil, false
	}
	return image, true
}

// MapFeedItems переводит HTTP-ответ в список записей ленты.
// Ответ со статусом, отличным от 200, отклоняется без разбора тела.
// Любая структурная ошибка тела возвращается как ErrInvalidData.
// Функция не имеет состояния и безопасна для конкурентного вызова.
func MapFeedItems(data []byte, resp HTTPResponse) ([]domain.FeedItem, error) {
	if resp.StatusCode != http.StatusOK {
		return nil, ErrInvalidData
	}
	var root rawObject
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, ErrInvalidData
	}
	rawItems, ok := root["items"]
	if !ok || string(rawItems) == "null" {
		return nil, ErrInvalidData
	}
	var records []json.RawMessage
	if err := json.Unmarshal(rawItems, &records); err != nil {
		return nil, ErrInvalidData
	}
	items := make([]domain.FeedItem, 0, len(records))
	for _, record := range records {
		item, ok := parseItem(record)
		if !ok {
			return nil, ErrInvalidData
		}
		items = append(items, item)
	}
	return items, nil
}
