package outbox

import (
	"context"
	"encoding/json"
	"strconv"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/restful-oms/internal/domain"
)

// Типы событий, которые сервисы кладут в outbox.
const (
	EventUserCreated  = "user.created"
	EventUserUpdated  = "user.updated"
	EventUserDeleted  = "user.deleted"
	EventUsersPurged  = "users.purged"
	EventOrderCreated = "order.created"
	EventOrderUpdated = "order.updated"
	EventOrderDeleted = "order.deleted"
	EventOrdersPurged = "orders.purged"
)

// Recorder сериализует изменения сущностей в сообщения outbox.
// Ошибка записи только логируется: изменение уже сохранено и не откатывается.
type Recorder struct {
	repo   domain.OutboxRepository
	logger *log.Entry
}

// NewRecorder создаёт Recorder. С nil repo все вызовы Record ничего не делают.
func NewRecorder(repo domain.OutboxRepository, logger *log.Entry) *Recorder {
	if logger == nil {
		logger = log.WithField("component", "outbox-recorder")
	}
	return &Recorder{repo: repo, logger: logger}
}

// Record ставит событие eventType для агрегата в очередь публикации.
func (r *Recorder) Record(ctx context.Context, aggregateType string, aggregateID int64, eventType string, payload any) {
	if r == nil || r.repo == nil {
		return
	}

	logger := r.logger.WithFields(log.Fields{
		"aggregate_type": aggregateType,
		"aggregate_id":   aggregateID,
		"event_type":     eventType,
	})

	body, err := json.Marshal(payload)
	if err != nil {
		logger.WithError(err).Error("failed to marshal outbox payload")
		return
	}

	msg := domain.OutboxMessage{
		AggregateType: aggregateType,
		EventType:     eventType,
		Payload:       body,
	}
	if aggregateID > 0 {
		msg.AggregateID = strconv.FormatInt(aggregateID, 10)
	}

	if _, err := r.repo.Enqueue(ctx, msg); err != nil {
		logger.WithError(err).Error("failed to enqueue outbox message")
	}
}
