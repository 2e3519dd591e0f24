package httpapi

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/restful-oms/internal/metrics"
	"github.com/vladislavdragonenkov/restful-oms/internal/service/idempotency"
)

const (
	// HeaderIdempotencyKey — заголовок клиента для безопасного повтора POST.
	HeaderIdempotencyKey = "Idempotency-Key"
	// HeaderIdempotentReplay выставляется на ответ, взятый из сохранённых.
	HeaderIdempotentReplay = "Idempotent-Replayed"

	// maxRequestBody ограничивает тело любого запроса к API.
	maxRequestBody = 1 << 20
)

// limitBody отдаёт обработчикам тело не длиннее limit байт; чтение сверх
// лимита возвращает *http.MaxBytesError.
func limitBody(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requestLogger пишет одну запись на запрос.
func requestLogger(logger *log.Entry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			entry := logger.WithFields(log.Fields{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      status,
				"bytes":       ww.BytesWritten(),
				"duration_ms": time.Since(start).Milliseconds(),
				"request_id":  middleware.GetReqID(r.Context()),
				"remote_addr": r.RemoteAddr,
			})
			if status >= http.StatusInternalServerError {
				entry.Warn("http request")
				return
			}
			entry.Info("http request")
		})
	}
}

// instrument считает запросы по шаблону маршрута chi.
func instrument(m *metrics.HTTPMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			m.RequestStarted()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				route := ""
				if rctx := chi.RouteContext(r.Context()); rctx != nil {
					route = rctx.RoutePattern()
				}
				m.RequestFinished(r.Method, route, status, time.Since(start))
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

// idempotent обрабатывает Idempotency-Key: первый запрос выполняется и его ответ
// сохраняется, повтор с тем же телом получает сохранённый ответ.
// Без заголовка запрос проходит как обычно.
func idempotent(guard *idempotency.Guard, logger *log.Entry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if guard == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := strings.TrimSpace(r.Header.Get(HeaderIdempotencyKey))
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			// слишком большое тело отклоняется до захвата ключа, как и без ключа
			body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody+1))
			if err == nil && len(body) > maxRequestBody {
				err = &http.MaxBytesError{Limit: maxRequestBody}
			}
			if err != nil {
				writeDecodeError(w, r, err)
				return
			}
			_ = r.Body.Close()

			outcome, err := guard.Begin(r.Context(), key, idempotency.HashRequest(r.Method, r.URL.Path, body))
			switch {
			case errors.Is(err, idempotency.ErrKeyReused), errors.Is(err, idempotency.ErrInProgress):
				writeError(w, r, http.StatusConflict, err.Error())
				return
			case err != nil:
				logger.WithError(err).WithField("idempotency_key", key).Error("idempotency check failed")
				writeError(w, r, http.StatusInternalServerError, msgInternal)
				return
			case outcome.Replay:
				w.Header().Set(HeaderIdempotentReplay, "true")
				if len(outcome.Body) > 0 {
					w.Header().Set("Content-Type", "application/json")
				}
				w.WriteHeader(outcome.Status)
				_, _ = w.Write(outcome.Body)
				return
			}

			r.Body = io.NopCloser(bytes.NewReader(body))
			var captured bytes.Buffer
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			ww.Tee(&captured)

			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusInternalServerError
				}
				// ответ уже ушёл клиенту, отмена запроса не должна помешать его сохранить
				guard.Complete(context.WithoutCancel(r.Context()), key, status, captured.Bytes())
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
