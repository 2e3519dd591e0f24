package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vladislavdragonenkov/restful-oms/internal/domain"
)

// CatalogStore читает товары и наполняет каталог при сидировании.
type CatalogStore struct {
	db *sql.DB
}

// NewCatalogStore создаёт PostgreSQL-реализацию ProductStore и CatalogWriter.
func NewCatalogStore(store *Store) *CatalogStore {
	return &CatalogStore{db: store.DB()}
}

// SaveCategory создаёт категорию или обновляет её имя.
// Без ID категория ищется по уникальному имени, так что повторный сид не плодит дубликаты.
func (s *CatalogStore) SaveCategory(ctx context.Context, category domain.Category) (domain.Category, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var err error
	if category.ID == 0 {
		err = s.db.QueryRowContext(ctx, `
			INSERT INTO categories (name)
			VALUES ($1)
			ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			RETURNING id
		`, category.Name).Scan(&category.ID)
	} else {
		err = s.db.QueryRowContext(ctx, `
			INSERT INTO categories (id, name)
			VALUES ($1, $2)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name
			RETURNING id
		`, category.ID, category.Name).Scan(&category.ID)
	}
	if err != nil {
		return domain.Category{}, fmt.Errorf("save category %q: %w", category.Name, err)
	}

	if err := s.syncSequence(ctx, "categories"); err != nil {
		return domain.Category{}, err
	}
	return category, nil
}

// SaveProduct создаёт товар или перезаписывает товар с тем же ID.
func (s *CatalogStore) SaveProduct(ctx context.Context, product domain.Product) (domain.Product, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	categoryID := sql.NullInt64{Int64: product.CategoryID, Valid: product.CategoryID != 0}

	var err error
	if product.ID == 0 {
		err = s.db.QueryRowContext(ctx, `
			INSERT INTO products (name, qty, price, category_id)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, product.Name, product.Qty, product.Price, categoryID).Scan(&product.ID)
	} else {
		err = s.db.QueryRowContext(ctx, `
			INSERT INTO products (id, name, qty, price, category_id)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE
			SET name = EXCLUDED.name,
			    qty = EXCLUDED.qty,
			    price = EXCLUDED.price,
			    category_id = EXCLUDED.category_id
			RETURNING id
		`, product.ID, product.Name, product.Qty, product.Price, categoryID).Scan(&product.ID)
	}
	if err != nil {
		return domain.Product{}, fmt.Errorf("save product %q: %w", product.Name, err)
	}

	if err := s.syncSequence(ctx, "products"); err != nil {
		return domain.Product{}, err
	}
	return product, nil
}

// FindAll возвращает все товары по возрастанию ID.
func (s *CatalogStore) FindAll(ctx context.Context) ([]domain.Product, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, qty, price, category_id
		FROM products
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		var (
			product    domain.Product
			categoryID sql.NullInt64
		)
		if err := rows.Scan(&product.ID, &product.Name, &product.Qty, &product.Price, &categoryID); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		product.CategoryID = categoryID.Int64
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}

// syncSequence подтягивает BIGSERIAL-последовательность после вставки с явным ID.
func (s *CatalogStore) syncSequence(ctx context.Context, table string) error {
	query := fmt.Sprintf(
		`SELECT setval(pg_get_serial_sequence('%[1]s', 'id'), GREATEST((SELECT MAX(id) FROM %[1]s), 1))`,
		table,
	)
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("sync %s sequence: %w", table, err)
	}
	return nil
}

var (
	_ domain.ProductStore  = (*CatalogStore)(nil)
	_ domain.CatalogWriter = (*CatalogStore)(nil)
)
