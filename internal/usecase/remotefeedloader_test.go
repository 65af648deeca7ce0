package usecase

import (
	"encoding/json"
	"errors"
	"net/url"
	"strconv"
	"sync"
	"testing"

	"feedloader/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type httpClientSpy struct {
	mu          sync.Mutex
	urls        []*url.URL
	completions []func(HTTPClientResult)
}

func (s *httpClientSpy) Get(u *url.URL, completion func(HTTPClientResult)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.urls = append(s.urls, u)
	s.completions = append(s.completions, completion)
}

func (s *httpClientSpy) requestedURLs() []*url.URL {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*url.URL(nil), s.urls...)
}

func (s *httpClientSpy) completeWithError(err error, index int) {
	s.completions[index](HTTPClientResult{Err: err})
}

func (s *httpClientSpy) completeWithStatus(code int, data []byte, index int) {
	s.completions[index](HTTPClientResult{
		Data: data,
		Response: &HTTPResponse{
			StatusCode: code,
			URL:        s.urls[index],
		},
	})
}

func makeSUT(t *testing.T, rawURL string) (*RemoteFeedLoader, *httpClientSpy) {
	t.Helper()
	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	client := &httpClientSpy{}
	return NewRemoteFeedLoader(u, client), client
}

// expectResult вызывает Load, выполняет action и проверяет единственную доставку.
func expectResult(t *testing.T, sut *RemoteFeedLoader, action func()) domain.LoadFeedResult {
	t.Helper()
	var results []domain.LoadFeedResult
	sut.Load(func(r domain.LoadFeedResult) {
		results = append(results, r)
	})
	action()
	require.Len(t, results, 1)
	return results[0]
}

func makeItem(t *testing.T, description, location *string, imageURL string) (domain.FeedItem, map[string]any) {
	t.Helper()
	image, err := url.Parse(imageURL)
	require.NoError(t, err)
	item := domain.FeedItem{
		ID:          uuid.New(),
		Description: description,
		Location:    location,
		ImageURL:    image,
	}
	record := map[string]any{
		"id":    item.ID.String(),
		"image": imageURL,
	}
	if description != nil {
		record["description"] = *description
	}
	if location != nil {
		record["location"] = *location
	}
	return item, record
}

func makeItemsJSON(t *testing.T, records ...map[string]any) []byte {
	t.Helper()
	if records == nil {
		records = []map[string]any{}
	}
	data, err := json.Marshal(map[string]any{"items": records})
	require.NoError(t, err)
	return data
}

func ptr(s string) *string { return &s }

func TestRemoteFeedLoader_New_DoesNotRequestData(t *testing.T) {
	_, client := makeSUT(t, "https://a-url.com")

	assert.Empty(t, client.requestedURLs())
}

func TestRemoteFeedLoader_Load_RequestsDataFromURL(t *testing.T) {
	sut, client := makeSUT(t, "https://a-given-url.com")

	sut.Load(func(domain.LoadFeedResult) {})

	urls := client.requestedURLs()
	require.Len(t, urls, 1)
	assert.Equal(t, "https://a-given-url.com", urls[0].String())
}

func TestRemoteFeedLoader_LoadTwice_RequestsDataFromURLTwice(t *testing.T) {
	sut, client := makeSUT(t, "https://a-given-url.com")

	sut.Load(func(domain.LoadFeedResult) {})
	sut.Load(func(domain.LoadFeedResult) {})

	urls := client.requestedURLs()
	require.Len(t, urls, 2)
	assert.Equal(t, "https://a-given-url.com", urls[0].String())
	assert.Equal(t, "https://a-given-url.com", urls[1].String())
}

func TestRemoteFeedLoader_Load_NilURLIsPassedThrough(t *testing.T) {
	client := &httpClientSpy{}
	sut := NewRemoteFeedLoader(nil, client)

	result := expectResult(t, sut, func() {
		client.completeWithError(errors.New("unsupported URL"), 0)
	})

	require.Len(t, client.requestedURLs(), 1)
	assert.Nil(t, client.requestedURLs()[0])
	assert.ErrorIs(t, result.Err, ErrConnectivity)
}

func TestRemoteFeedLoader_Load_DeliversConnectivityErrorOnClientError(t *testing.T) {
	sut, client := makeSUT(t, "https://a-url.com")

	result := expectResult(t, sut, func() {
		client.completeWithError(errors.New("dial tcp: connection refused"), 0)
	})

	assert.ErrorIs(t, result.Err, ErrConnectivity)
	assert.NotErrorIs(t, result.Err, ErrInvalidData)
	assert.Empty(t, result.Items)
}

func TestRemoteFeedLoader_Load_DeliversConnectivityErrorWithoutResponse(t *testing.T) {
	sut, client := makeSUT(t, "https://a-url.com")

	result := expectResult(t, sut, func() {
		client.completions[0](HTTPClientResult{})
	})

	assert.ErrorIs(t, result.Err, ErrConnectivity)
}

func TestRemoteFeedLoader_Load_DeliversInvalidDataOnNon200Response(t *testing.T) {
	for _, code := range []int{199, 201, 300, 400, 500} {
		t.Run(strconv.Itoa(code), func(t *testing.T) {
			sut, client := makeSUT(t, "https://a-url.com")

			result := expectResult(t, sut, func() {
				client.completeWithStatus(code, makeItemsJSON(t), 0)
			})

			assert.ErrorIs(t, result.Err, ErrInvalidData)
			assert.Empty(t, result.Items)
		})
	}
}

func TestRemoteFeedLoader_Load_DeliversInvalidDataOn200WithInvalidJSON(t *testing.T) {
	sut, client := makeSUT(t, "https://a-url.com")

	result := expectResult(t, sut, func() {
		client.completeWithStatus(200, []byte("invalidJSON"), 0)
	})

	assert.ErrorIs(t, result.Err, ErrInvalidData)
}

func TestRemoteFeedLoader_Load_DeliversNoItemsOn200WithEmptyList(t *testing.T) {
	sut, client := makeSUT(t, "https://a-url.com")

	result := expectResult(t, sut, func() {
		client.completeWithStatus(200, []byte(`{"items": []}`), 0)
	})

	require.NoError(t, result.Err)
	assert.NotNil(t, result.Items)
	assert.Empty(t, result.Items)
}

func TestRemoteFeedLoader_Load_DeliversItemsOn200WithItems(t *testing.T) {
	sut, client := makeSUT(t, "https://a-url.com")
	item1, json1 := makeItem(t, nil, nil, "http://a-url.com")
	item2, json2 := makeItem(t, ptr("a description"), ptr("a location"), "http://another-url.com")

	result := expectResult(t, sut, func() {
		client.completeWithStatus(200, makeItemsJSON(t, json1, json2), 0)
	})

	require.NoError(t, result.Err)
	assert.Equal(t, []domain.FeedItem{item1, item2}, result.Items)
	require.Len(t, result.Items, 2)
	assert.True(t, item1.Equal(result.Items[0]))
	assert.True(t, item2.Equal(result.Items[1]))
}

func TestRemoteFeedLoader_Load_DoesNotDeliverAfterRelease(t *testing.T) {
	sut, client := makeSUT(t, "https://a-url.com")
	var results []domain.LoadFeedResult
	sut.Load(func(r domain.LoadFeedResult) {
		results = append(results, r)
	})

	sut.Release()

	assert.NotPanics(t, func() {
		client.completeWithStatus(200, makeItemsJSON(t), 0)
	})
	assert.Empty(t, results)
}

func TestRemoteFeedLoader_Load_CallsAreIndependent(t *testing.T) {
	sut, client := makeSUT(t, "https://a-url.com")
	var first, second []domain.LoadFeedResult
	sut.Load(func(r domain.LoadFeedResult) { first = append(first, r) })
	sut.Load(func(r domain.LoadFeedResult) { second = append(second, r) })

	client.completeWithStatus(200, makeItemsJSON(t), 1)
	client.completeWithError(errors.New("timeout"), 0)

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.ErrorIs(t, first[0].Err, ErrConnectivity)
	assert.NoError(t, second[0].Err)
}
