package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/restful-oms/internal/domain"
)

// orderStoreInMemory — простая in-memory реализация OrderStore.
type orderStoreInMemory struct {
	mu    sync.RWMutex
	seq   int64
	items map[int64]domain.Order
}

// NewOrderStore возвращает in-memory хранилище заказов для локальной разработки и тестов.
func NewOrderStore() domain.OrderStore {
	return &orderStoreInMemory{
		items: make(map[int64]domain.Order),
	}
}

// Save создаёт заказ при ID == 0, иначе перезаписывает существующий.
func (s *orderStoreInMemory) Save(_ context.Context, order domain.Order) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order = order.Clone()
	order.OrderDate = domain.NormalizeOrderDate(order.OrderDate)

	if order.ID == 0 {
		s.seq++
		order.ID = s.seq
	} else if _, ok := s.items[order.ID]; !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}

	// Храним копию, чтобы вызывающий код не мутировал срез ProductIDs.
	s.items[order.ID] = order
	return order.Clone(), nil
}

func (s *orderStoreInMemory) FindByID(_ context.Context, id int64) (domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.items[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return order.Clone(), nil
}

func (s *orderStoreInMemory) FindAll(_ context.Context) ([]domain.Order, error) {
	return s.collect(func(domain.Order) bool { return true }), nil
}

// FindByDate сравнивает даты после нормализации к OrderDatePrecision.
func (s *orderStoreInMemory) FindByDate(_ context.Context, date time.Time) ([]domain.Order, error) {
	date = domain.NormalizeOrderDate(date)
	return s.collect(func(o domain.Order) bool { return o.OrderDate.Equal(date) }), nil
}

func (s *orderStoreInMemory) DeleteByID(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, id)
	return nil
}

func (s *orderStoreInMemory) DeleteAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = make(map[int64]domain.Order)
	return nil
}

func (s *orderStoreInMemory) collect(match func(domain.Order) bool) []domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Order, 0, len(s.items))
	for _, order := range s.items {
		if match(order) {
			result = append(result, order.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

var _ domain.OrderStore = (*orderStoreInMemory)(nil)
