package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vladislavdragonenkov/restful-oms/internal/domain"
)

// Результаты операций сервисного слоя.
const (
	ResultOK       = "ok"
	ResultNotFound = "not_found"
	ResultInvalid  = "invalid"
	ResultConflict = "conflict"
	ResultError    = "error"
)

// EntityMetrics считает операции над пользователями, заказами и товарами.
type EntityMetrics struct {
	operations *prometheus.CounterVec
}

// NewEntityMetrics регистрирует счётчик операций в registerer (nil означает DefaultRegisterer).
func NewEntityMetrics(registerer prometheus.Registerer) *EntityMetrics {
	return &EntityMetrics{
		operations: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "oms_entity_operations_total",
			Help: "Total number of entity operations grouped by entity, operation and result.",
		}, []string{"entity", "operation", "result"}),
	}
}

// Record учитывает операцию; результат выводится из err.
// Безопасен для nil-получателя, чтобы сервисы работали без метрик.
func (m *EntityMetrics) Record(entity, operation string, err error) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(entity, operation, Classify(err)).Inc()
}

// Classify сводит ошибку сервисного слоя к метке result.
func Classify(err error) string {
	switch {
	case err == nil:
		return ResultOK
	case domain.IsNotFound(err):
		return ResultNotFound
	case errors.Is(err, domain.ErrEmailConflict):
		return ResultConflict
	}
	if _, ok := domain.IsValidation(err); ok {
		return ResultInvalid
	}
	return ResultError
}
