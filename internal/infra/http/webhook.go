package http

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"nukem-bot/internal/domain"
	"nukem-bot/internal/infra/metrics"
)

// SecretTokenHeader — заголовок, которым Telegram подписывает запросы вебхука.
const SecretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

const maxUpdateSize = 1 << 20

// WebhookSecretMiddleware отклоняет запросы без верного секрета. Пустой secret отключает проверку.
func WebhookSecretMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret != "" {
				got := r.Header.Get(SecretTokenHeader)
				if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
					WriteError(w, http.StatusUnauthorized, errors.New("invalid secret token"))
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WebhookHandler принимает апдейт и кладёт его в очередь без разбора.
func WebhookHandler(queue domain.UpdateQueue, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxUpdateSize))
		if err != nil {
			WriteError(w, http.StatusBadRequest, err)
			return
		}
		var head struct {
			UpdateID int `json:"update_id"`
		}
		if err := json.Unmarshal(body, &head); err != nil {
			WriteError(w, http.StatusBadRequest, fmt.Errorf("decode update: %w", err))
			return
		}
		job := domain.UpdateJob{
			ID:         uuid.NewString(),
			UpdateID:   head.UpdateID,
			ReceivedAt: time.Now().UTC(),
			Payload:    body,
		}
		if err := queue.Enqueue(r.Context(), job); err != nil {
			logger.Error().Err(err).Str("request_id", RequestID(r)).Int("update_id", head.UpdateID).Msg("gateway: не удалось поставить апдейт в очередь")
			WriteError(w, http.StatusServiceUnavailable, errors.New("queue unavailable"))
			return
		}
		metrics.UpdatesTotal.WithLabelValues("webhook").Inc()
		w.WriteHeader(http.StatusOK)
	}
}

// RequestID возвращает request ID из контекста chi.
func RequestID(r *http.Request) string {
	return middleware.GetReqID(r.Context())
}

// ErrorResponse описывает ошибку.
type ErrorResponse struct {
	Error string `json:"error"`
}

// WriteError отправляет JSON с ошибкой.
func WriteError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: err.Error()})
}
