package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/restful-oms/internal/domain"
)

type orderStore struct {
	db *sql.DB
}

// NewOrderStore создаёт PostgreSQL-реализацию OrderStore.
// Список товаров заказа хранится в order_products с сохранением порядка.
func NewOrderStore(store *Store) domain.OrderStore {
	return &orderStore{db: store.DB()}
}

func (s *orderStore) Save(ctx context.Context, order domain.Order) (domain.Order, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	order = order.Clone()
	order.OrderDate = domain.NormalizeOrderDate(order.OrderDate)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Order{}, fmt.Errorf("begin order tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if order.ID == 0 {
		if err := tx.QueryRowContext(ctx, `
			INSERT INTO orders (user_id, order_date)
			VALUES ($1, $2)
			RETURNING oid
		`, order.UserID, order.OrderDate).Scan(&order.ID); err != nil {
			return domain.Order{}, fmt.Errorf("insert order: %w", err)
		}
	} else {
		res, err := tx.ExecContext(ctx, `
			UPDATE orders
			SET user_id = $2, order_date = $3
			WHERE oid = $1
		`, order.ID, order.UserID, order.OrderDate)
		if err != nil {
			return domain.Order{}, fmt.Errorf("update order %d: %w", order.ID, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return domain.Order{}, fmt.Errorf("rows affected for order %d: %w", order.ID, err)
		}
		if affected == 0 {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM order_products WHERE order_id = $1`, order.ID); err != nil {
			return domain.Order{}, fmt.Errorf("clear order %d products: %w", order.ID, err)
		}
	}

	for position, productID := range order.ProductIDs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO order_products (order_id, position, product_id)
			VALUES ($1, $2, $3)
		`, order.ID, position, productID); err != nil {
			return domain.Order{}, fmt.Errorf("insert order %d product: %w", order.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.Order{}, fmt.Errorf("commit order %d: %w", order.ID, err)
	}
	return order, nil
}

func (s *orderStore) FindByID(ctx context.Context, id int64) (domain.Order, error) {
	orders, err := s.query(ctx, `WHERE o.oid = $1`, id)
	if err != nil {
		return domain.Order{}, fmt.Errorf("get order %d: %w", id, err)
	}
	if len(orders) == 0 {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return orders[0], nil
}

func (s *orderStore) FindAll(ctx context.Context) ([]domain.Order, error) {
	orders, err := s.query(ctx, ``)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (s *orderStore) FindByDate(ctx context.Context, date time.Time) ([]domain.Order, error) {
	orders, err := s.query(ctx, `WHERE o.order_date = $1`, domain.NormalizeOrderDate(date))
	if err != nil {
		return nil, fmt.Errorf("list orders by date: %w", err)
	}
	return orders, nil
}

func (s *orderStore) DeleteByID(ctx context.Context, id int64) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM orders WHERE oid = $1`, id); err != nil {
		return fmt.Errorf("delete order %d: %w", id, err)
	}
	return nil
}

func (s *orderStore) DeleteAll(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM orders`); err != nil {
		return fmt.Errorf("delete all orders: %w", err)
	}
	return nil
}

// query читает заказы вместе с товарами одним LEFT JOIN и собирает их по oid.
func (s *orderStore) query(ctx context.Context, where string, args ...any) ([]domain.Order, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT o.oid, o.user_id, o.order_date, op.product_id
		FROM orders o
		LEFT JOIN order_products op ON op.order_id = o.oid
		`+where+`
		ORDER BY o.oid, op.position
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		var (
			id        int64
			userID    int64
			orderDate time.Time
			productID sql.NullInt64
		)
		if err := rows.Scan(&id, &userID, &orderDate, &productID); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}

		if n := len(orders); n == 0 || orders[n-1].ID != id {
			orders = append(orders, domain.Order{
				ID:         id,
				UserID:     userID,
				ProductIDs: make([]int64, 0),
				OrderDate:  domain.NormalizeOrderDate(orderDate),
			})
		}
		if productID.Valid {
			last := &orders[len(orders)-1]
			last.ProductIDs = append(last.ProductIDs, productID.Int64)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}
	return orders, nil
}

var _ domain.OrderStore = (*orderStore)(nil)
