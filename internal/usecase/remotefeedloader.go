package usecase

import (
	"errors"
	"net/url"
	"sync/atomic"

	"feedloader/internal/domain"
)

var (
	// ErrConnectivity сообщает о сбое транспорта: сеть недоступна или ответ не получен.
	ErrConnectivity = errors.New("connectivity")
	// ErrInvalidData сообщает о неверном статусе ответа или неразборчивом теле.
	ErrInvalidData = errors.New("invalid data")
)

// RemoteFeedLoader реализует domain.FeedLoader поверх HTTPClient.
// Координирует одну загрузку: запрос, маппинг и классификацию результата.
// URL и клиент задаются при создании и не меняются, поэтому блокировки не нужны.
type RemoteFeedLoader struct {
	url      *url.URL
	client   HTTPClient
	released atomic.Bool
}

var _ domain.FeedLoader = (*RemoteFeedLoader)(nil)

// NewRemoteFeedLoader создает загрузчик для указанного URL.
// Конструктор не выполняет запросов.
func NewRemoteFeedLoader(u *url.URL, client HTTPClient) *RemoteFeedLoader {
	return &RemoteFeedLoader{
		url:    u,
		client: client,
	}
}

// Load выполняет один GET-запрос и доставляет результат в completion.
// completion вызывается в горутине клиента ровно один раз, если загрузчик
// не был освобожден до ответа. Повторов и кеширования нет.
func (l *RemoteFeedLoader) Load(completion func(domain.LoadFeedResult)) {
	l.client.Get(l.url, func(result HTTPClientResult) {
		if l.released.Load() {
			return
		}
		completion(l.classify(result))
	})
}

// Release помечает загрузчик как освобожденный. Ответы, пришедшие после
// вызова, отбрасываются без доставки.
func (l *RemoteFeedLoader) Release() {
	l.released.Store(true)
}

func (l *RemoteFeedLoader) classify(result HTTPClientResult) domain.LoadFeedResult {
	if result.Err != nil || result.Response == nil {
		return domain.LoadFeedResult{Err: ErrConnectivity}
	}
	items, err := MapFeedItems(result.Data, *result.Response)
	if err != nil {
		return domain.LoadFeedResult{Err: ErrInvalidData}
	}
	return domain.LoadFeedResult{Items: items}
}
