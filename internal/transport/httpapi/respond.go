package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/restful-oms/internal/domain"
)

// Тексты ошибок, которые видит клиент.
const (
	msgInvalidBody      = "invalid request body"
	msgBodyTooLarge     = "request body too large"
	msgInvalidID        = "invalid id"
	msgInvalidOrderDate = "invalid orderDate"
	msgOrderDateMissing = "orderDate query parameter is required"
	msgInternal         = "internal error"
)

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message, RequestID: middleware.GetReqID(r.Context())})
}

// writeList отдаёт 204 для пустого списка и 200 со списком иначе.
func writeList[T any](w http.ResponseWriter, items []T) {
	if len(items) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// writeServiceError переводит ошибку сервиса в HTTP-ответ.
// Конфликт email отдаётся как 500 с отдельным текстом.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *log.Entry, err error) {
	if reason, ok := domain.IsValidation(err); ok {
		writeError(w, r, http.StatusBadRequest, reason)
		return
	}
	if domain.IsNotFound(err) {
		writeError(w, r, http.StatusNotFound, err.Error())
		return
	}
	if errors.Is(err, domain.ErrEmailConflict) {
		writeError(w, r, http.StatusInternalServerError, domain.ErrEmailConflict.Error())
		return
	}

	logger.WithError(err).WithFields(log.Fields{
		"method":     r.Method,
		"path":       r.URL.Path,
		"request_id": middleware.GetReqID(r.Context()),
	}).Error("request failed")
	writeError(w, r, http.StatusInternalServerError, msgInternal)
}

// writeDecodeError отвечает 413 на превышение лимита тела и 400 на прочие ошибки чтения.
func writeDecodeError(w http.ResponseWriter, r *http.Request, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, r, http.StatusRequestEntityTooLarge, msgBodyTooLarge)
		return
	}
	writeError(w, r, http.StatusBadRequest, msgInvalidBody)
}

// decodeJSON читает тело запроса; неизвестные поля допускаются, чтобы
// клиент мог прислать сущность целиком вместе с uid/oid.
func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	return json.NewDecoder(r.Body).Decode(v)
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// parseOrderDate принимает RFC 3339 (с долями секунды) или unix-время в миллисекундах.
func parseOrderDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, nil
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, errors.New(msgInvalidOrderDate)
	}
	return time.UnixMilli(ms), nil
}
