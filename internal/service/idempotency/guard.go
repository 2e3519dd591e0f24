package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/restful-oms/internal/domain"
)

// DefaultTTL — срок жизни ключа, если он не задан в конфигурации.
const DefaultTTL = 24 * time.Hour

var (
	// ErrKeyReused — ключ уже использован с другим телом запроса.
	ErrKeyReused = errors.New("idempotency key is already used with a different request")
	// ErrInProgress — запрос с тем же ключом ещё обрабатывается.
	ErrInProgress = errors.New("request with the same idempotency key is already processing")
)

// Outcome описывает решение Guard по входящему запросу.
type Outcome struct {
	// Replay — ответ уже сохранён и должен быть отдан как есть.
	Replay bool
	Status int
	Body   []byte
}

// Guard реализует протокол Idempotency-Key поверх IdempotencyRepository.
type Guard struct {
	repo   domain.IdempotencyRepository
	ttl    time.Duration
	logger *log.Entry
	now    func() time.Time
}

// NewGuard создаёт Guard. ttl <= 0 заменяется на DefaultTTL.
func NewGuard(repo domain.IdempotencyRepository, ttl time.Duration, logger *log.Entry) *Guard {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = log.WithField("component", "idempotency-guard")
	}
	return &Guard{repo: repo, ttl: ttl, logger: logger, now: time.Now}
}

// Begin занимает ключ либо возвращает сохранённый ответ для повтора.
func (g *Guard) Begin(ctx context.Context, key, requestHash string) (Outcome, error) {
	record, err := g.repo.CreateProcessing(ctx, key, requestHash, g.now().UTC().Add(g.ttl))
	switch {
	case err == nil:
		return Outcome{}, nil
	case errors.Is(err, domain.ErrIdempotencyHashMismatch):
		return Outcome{}, ErrKeyReused
	case errors.Is(err, domain.ErrIdempotencyKeyAlreadyExists):
		return replay(record)
	default:
		return Outcome{}, fmt.Errorf("claim idempotency key: %w", err)
	}
}

func replay(record domain.IdempotencyRecord) (Outcome, error) {
	switch record.Status {
	case domain.IdempotencyStatusProcessing:
		return Outcome{}, ErrInProgress
	case domain.IdempotencyStatusDone, domain.IdempotencyStatusFailed:
		status := record.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		return Outcome{Replay: true, Status: status, Body: record.ResponseBody}, nil
	default:
		return Outcome{}, fmt.Errorf("unknown idempotency record status %q", record.Status)
	}
}

// Complete сохраняет ответ: 2xx/3xx как done, остальные как failed.
// Ошибка сохранения только логируется, ответ клиенту уже сформирован.
func (g *Guard) Complete(ctx context.Context, key string, status int, body []byte) {
	var err error
	if status < http.StatusBadRequest {
		err = g.repo.MarkDone(ctx, key, body, status)
	} else {
		err = g.repo.MarkFailed(ctx, key, body, status)
	}
	if err != nil {
		g.logger.WithError(err).WithField("idempotency_key", key).Warn("failed to store idempotent response")
	}
}

// HashRequest строит отпечаток запроса: метод, путь и тело.
func HashRequest(method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte{0})
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}
