package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/vladislavdragonenkov/restful-oms/internal/domain"
)

// CatalogStore хранит категории и товары в памяти.
// Реализует ProductStore для чтения и CatalogWriter для сидирования.
type CatalogStore struct {
	mu          sync.RWMutex
	categorySeq int64
	productSeq  int64
	categories  map[int64]domain.Category
	products    map[int64]domain.Product
}

// NewCatalogStore создаёт каталог, предварительно заполненный products.
// Товары без ID получают ID из последовательности.
func NewCatalogStore(products ...domain.Product) *CatalogStore {
	s := &CatalogStore{
		categories: make(map[int64]domain.Category),
		products:   make(map[int64]domain.Product),
	}
	for _, p := range products {
		_, _ = s.SaveProduct(context.Background(), p)
	}
	return s
}

func (s *CatalogStore) SaveCategory(_ context.Context, category domain.Category) (domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if category.ID == 0 {
		s.categorySeq++
		category.ID = s.categorySeq
	} else if category.ID > s.categorySeq {
		s.categorySeq = category.ID
	}
	s.categories[category.ID] = category
	return category, nil
}

func (s *CatalogStore) SaveProduct(_ context.Context, product domain.Product) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if product.ID == 0 {
		s.productSeq++
		product.ID = s.productSeq
	} else if product.ID > s.productSeq {
		s.productSeq = product.ID
	}
	s.products[product.ID] = product
	return product, nil
}

// FindAll возвращает все товары по возрастанию ID.
func (s *CatalogStore) FindAll(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// Categories возвращает категории по возрастанию ID.
func (s *CatalogStore) Categories() []domain.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Category, 0, len(s.categories))
	for _, c := range s.categories {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

var (
	_ domain.ProductStore  = (*CatalogStore)(nil)
	_ domain.CatalogWriter = (*CatalogStore)(nil)
)
