// Package product отдаёт каталог товаров на чтение.
package product

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/restful-oms/internal/domain"
	"github.com/vladislavdragonenkov/restful-oms/internal/metrics"
)

// Service читает товары из ProductStore.
type Service struct {
	store   domain.ProductStore
	logger  *log.Entry
	metrics *metrics.EntityMetrics
}

// NewService создаёт сервис каталога. logger и m могут быть nil.
func NewService(store domain.ProductStore, logger *log.Entry, m *metrics.EntityMetrics) *Service {
	if logger == nil {
		logger = log.WithFields(log.Fields{"component": "product-service", "layer": "service"})
	}
	return &Service{store: store, logger: logger, metrics: m}
}

// ListProducts возвращает все товары каталога.
func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	products, err := s.store.FindAll(ctx)
	if err != nil {
		s.logger.WithError(err).Error("product store failure")
		err = &domain.StoreError{Op: "product.list", Err: err}
		s.metrics.Record("product", "list", err)
		return nil, err
	}
	s.metrics.Record("product", "list", nil)
	return products, nil
}
