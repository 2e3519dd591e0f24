// Package order реализует сценарии работы с заказами OMS.
package order

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/restful-oms/internal/domain"
	"github.com/vladislavdragonenkov/restful-oms/internal/metrics"
	"github.com/vladislavdragonenkov/restful-oms/internal/service/outbox"
)

const entity = "order"

// Option настраивает Service.
type Option func(*Service)

// WithLogger задаёт logger сервиса.
func WithLogger(logger *log.Entry) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithOutbox включает запись событий order.* в outbox.
func WithOutbox(recorder *outbox.Recorder) Option {
	return func(s *Service) {
		s.events = recorder
	}
}

// WithMetrics включает учёт операций.
func WithMetrics(m *metrics.EntityMetrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithClock подменяет источник текущего времени (для тестов).
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// Service управляет заказами поверх OrderStore.
type Service struct {
	store   domain.OrderStore
	logger  *log.Entry
	events  *outbox.Recorder
	metrics *metrics.EntityMetrics
	now     func() time.Time
}

// NewService создаёт сервис заказов.
func NewService(store domain.OrderStore, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: log.WithFields(log.Fields{"component": "order-service", "layer": "service"}),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type orderPayload struct {
	OID        int64     `json:"oid"`
	UserID     int64     `json:"userId"`
	ProductIDs []int64   `json:"productId"`
	OrderDate  time.Time `json:"orderDate"`
}

func payloadOf(o domain.Order) orderPayload {
	ids := o.ProductIDs
	if ids == nil {
		ids = []int64{}
	}
	return orderPayload{OID: o.ID, UserID: o.UserID, ProductIDs: ids, OrderDate: o.OrderDate}
}

// CreateOrder сохраняет новый заказ с датой, равной текущему моменту.
func (s *Service) CreateOrder(ctx context.Context, in domain.OrderInput) (order domain.Order, err error) {
	defer func() { s.metrics.Record(entity, "create", err) }()

	saved, err := s.store.Save(ctx, domain.Order{
		UserID:     in.UserID,
		ProductIDs: append([]int64(nil), in.ProductIDs...),
		OrderDate:  s.stamp(),
	})
	if err != nil {
		return domain.Order{}, s.storeError("create", err)
	}

	s.logger.WithFields(log.Fields{"oid": saved.ID, "user_id": saved.UserID}).Info("order created")
	s.events.Record(ctx, domain.AggregateOrder, saved.ID, outbox.EventOrderCreated, payloadOf(saved))
	return saved, nil
}

// ListOrders возвращает все заказы.
func (s *Service) ListOrders(ctx context.Context) (orders []domain.Order, err error) {
	defer func() { s.metrics.Record(entity, "list", err) }()

	orders, err = s.store.FindAll(ctx)
	if err != nil {
		return nil, s.storeError("list", err)
	}
	return orders, nil
}

// GetOrderByID возвращает заказ или domain.ErrOrderNotFound.
func (s *Service) GetOrderByID(ctx context.Context, id int64) (order domain.Order, err error) {
	defer func() { s.metrics.Record(entity, "get", err) }()

	order, err = s.store.FindByID(ctx, id)
	if err != nil {
		return domain.Order{}, s.storeError("get", err)
	}
	return order, nil
}

// GetOrdersByDate возвращает заказы, дата которых совпадает с date
// с точностью до domain.OrderDatePrecision.
func (s *Service) GetOrdersByDate(ctx context.Context, date time.Time) (orders []domain.Order, err error) {
	defer func() { s.metrics.Record(entity, "find_by_date", err) }()

	orders, err = s.store.FindByDate(ctx, domain.NormalizeOrderDate(date))
	if err != nil {
		return nil, s.storeError("find_by_date", err)
	}
	return orders, nil
}

// UpdateOrder заменяет пользователя и товары заказа и обновляет дату.
func (s *Service) UpdateOrder(ctx context.Context, id int64, in domain.OrderInput) (order domain.Order, err error) {
	defer func() { s.metrics.Record(entity, "update", err) }()

	current, err := s.store.FindByID(ctx, id)
	if err != nil {
		return domain.Order{}, s.storeError("update", err)
	}

	current.UserID = in.UserID
	current.ProductIDs = append([]int64(nil), in.ProductIDs...)
	current.OrderDate = s.stamp()

	saved, err := s.store.Save(ctx, current)
	if err != nil {
		return domain.Order{}, s.storeError("update", err)
	}

	s.logger.WithField("oid", saved.ID).Info("order updated")
	s.events.Record(ctx, domain.AggregateOrder, saved.ID, outbox.EventOrderUpdated, payloadOf(saved))
	return saved, nil
}

// RemoveOrder удаляет заказ; удаление отсутствующего не ошибка.
func (s *Service) RemoveOrder(ctx context.Context, id int64) (err error) {
	defer func() { s.metrics.Record(entity, "delete", err) }()

	if err := s.store.DeleteByID(ctx, id); err != nil {
		return s.storeError("delete", err)
	}

	s.logger.WithField("oid", id).Info("order deleted")
	s.events.Record(ctx, domain.AggregateOrder, id, outbox.EventOrderDeleted, map[string]int64{"oid": id})
	return nil
}

// RemoveAllOrders удаляет все заказы.
func (s *Service) RemoveAllOrders(ctx context.Context) (err error) {
	defer func() { s.metrics.Record(entity, "delete_all", err) }()

	if err := s.store.DeleteAll(ctx); err != nil {
		return s.storeError("delete_all", err)
	}

	s.logger.Info("all orders deleted")
	s.events.Record(ctx, domain.AggregateOrder, 0, outbox.EventOrdersPurged, struct{}{})
	return nil
}

func (s *Service) stamp() time.Time {
	return domain.NormalizeOrderDate(s.now())
}

func (s *Service) storeError(op string, err error) error {
	if errors.Is(err, domain.ErrOrderNotFound) {
		return err
	}
	s.logger.WithError(err).WithField("op", op).Error("order store failure")
	return &domain.StoreError{Op: entity + "." + op, Err: err}
}
