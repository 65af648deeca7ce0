package usecase

import "net/url"

// HTTPResponse содержит метаданные HTTP-ответа, необходимые для маппинга.
type HTTPResponse struct {
	StatusCode int
	URL        *url.URL
}

// HTTPClientResult представляет результат транспортного уровня.
// Err != nil означает сбой транспорта; иначе Data и Response заполнены.
type HTTPClientResult struct {
	Data     []byte
	Response *HTTPResponse
	Err      error
}

// HTTPClient определяет интерфейс выполнения одного GET-запроса.
// completion вызывается ровно один раз, в любой горутине. u может быть nil.
type HTTPClient interface {
	Get(u *url.URL, completion func(HTTPClientResult))
}
