package fetcher

import (
	"net/http"

	"golang.org/x/time/rate"
)

// RateLimitedTransport ограничивает частоту исходящих запросов.
type RateLimitedTransport struct {
	transport http.RoundTripper
	limiter   *rate.Limiter
}

// NewRateLimitedTransport оборачивает transport ограничителем requestsPerSecond с запасом burst.
func NewRateLimitedTransport(transport http.RoundTripper, requestsPerSecond float64, burst int) *RateLimitedTransport {
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &RateLimitedTransport{
		transport: transport,
		limiter:   rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

// RoundTrip ждет разрешения ограничителя и выполняет запрос.
func (t *RateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.transport.RoundTrip(req)
}
