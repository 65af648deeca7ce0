package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"feedloader/internal/domain"
	"feedloader/internal/usecase"
)

// LoadRecorder принимает итог каждой загрузки для метрик.
type LoadRecorder interface {
	RecordLoad(source string, result domain.LoadFeedResult, duration time.Duration)
}

type Handler struct {
	log      *slog.Logger
	loader   domain.FeedLoader
	recorder LoadRecorder
}

// NewHandler создает обработчики API. recorder может быть nil.
func NewHandler(log *slog.Logger, loader domain.FeedLoader, recorder LoadRecorder) *Handler {
	return &Handler{
		log:      log,
		loader:   loader,
		recorder: recorder,
	}
}

type feedResponse struct {
	Items []domain.FeedItem `json:"items"`
}

// getFeed - хендлер для эндпоинта GET /api/feed.
// Каждый запрос выполняет отдельную загрузку, результаты не кешируются.
func (h *Handler) getFeed(w http.ResponseWriter, r *http.Request) {
	const op = "transport.http/getFeed"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", getRequestID(r.Context())),
	)
	if r.Method != http.MethodGet {
		log.Warn("method not allowed")
		respondWithError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}

	start := time.Now()
	delivered := make(chan domain.LoadFeedResult, 1)
	h.loader.Load(func(result domain.LoadFeedResult) {
		delivered <- result
	})

	var result domain.LoadFeedResult
	select {
	case result = <-delivered:
	case <-r.Context().Done():
		log.Warn("request finished before feed was loaded", slog.Any("error", r.Context().Err()))
		respondWithError(w, http.StatusGatewayTimeout, "Gateway Timeout")
		return
	}
	if h.recorder != nil {
		h.recorder.RecordLoad("api", result, time.Since(start))
	}

	switch {
	case result.Err == nil:
		respondWithJSON(w, http.StatusOK, feedResponse{Items: result.Items})
	case errors.Is(result.Err, usecase.ErrInvalidData):
		log.Error("Feed returned invalid data", slog.Any("error", result.Err))
		respondWithError(w, http.StatusBadGateway, usecase.ErrInvalidData.Error())
	default:
		log.Error("Feed is unreachable", slog.Any("error", result.Err))
		respondWithError(w, http.StatusBadGateway, usecase.ErrConnectivity.Error())
	}
}

// healthCheck - хендлер для проверки состояния сервиса
func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
