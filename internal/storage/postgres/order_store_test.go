package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/restful-oms/internal/domain"
)

var orderColumns = []string{"oid", "user_id", "order_date", "product_id"}

func TestOrderStore_InsertWritesProductsInOrder(t *testing.T) {
	store, mock := newMockStore(t)
	orders := NewOrderStore(store)

	at := time.Date(2024, 5, 1, 12, 0, 0, 123456789, time.UTC)
	normalized := domain.NormalizeOrderDate(at)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO orders`).
		WithArgs(int64(7), normalized).
		WillReturnRows(sqlmock.NewRows([]string{"oid"}).AddRow(int64(3)))
	mock.ExpectExec(`INSERT INTO order_products`).WithArgs(int64(3), int64(0), int64(20)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO order_products`).WithArgs(int64(3), int64(1), int64(10)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	saved, err := orders.Save(context.Background(), domain.Order{UserID: 7, ProductIDs: []int64{20, 10}, OrderDate: at})
	require.NoError(t, err)
	require.Equal(t, int64(3), saved.ID)
	require.Equal(t, []int64{20, 10}, saved.ProductIDs)
	require.True(t, saved.OrderDate.Equal(normalized))
}

func TestOrderStore_UpdateMissingRollsBack(t *testing.T) {
	store, mock := newMockStore(t)
	orders := NewOrderStore(store)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE orders`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := orders.Save(context.Background(), domain.Order{ID: 11, UserID: 1, OrderDate: time.Now()})
	require.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestOrderStore_UpdateReplacesProducts(t *testing.T) {
	store, mock := newMockStore(t)
	orders := NewOrderStore(store)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE orders`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM order_products WHERE order_id = \$1`).WithArgs(int64(4)).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`INSERT INTO order_products`).WithArgs(int64(4), int64(0), int64(99)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	saved, err := orders.Save(context.Background(), domain.Order{ID: 4, UserID: 2, ProductIDs: []int64{99}, OrderDate: time.Now()})
	require.NoError(t, err)
	require.Equal(t, []int64{99}, saved.ProductIDs)
}

func TestOrderStore_FindAllGroupsProducts(t *testing.T) {
	store, mock := newMockStore(t)
	orders := NewOrderStore(store)

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`FROM orders o\s+LEFT JOIN order_products`).
		WillReturnRows(sqlmock.NewRows(orderColumns).
			AddRow(int64(1), int64(7), at, int64(10)).
			AddRow(int64(1), int64(7), at, int64(11)).
			AddRow(int64(2), int64(8), at, nil))

	got, err := orders.FindAll(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, []int64{10, 11}, got[0].ProductIDs)
	require.Equal(t, int64(8), got[1].UserID)
	require.NotNil(t, got[1].ProductIDs)
	require.Empty(t, got[1].ProductIDs)
}

func TestOrderStore_FindByIDAndDate(t *testing.T) {
	store, mock := newMockStore(t)
	orders := NewOrderStore(store)

	at := time.Date(2024, 5, 1, 12, 0, 0, 555, time.UTC)

	mock.ExpectQuery(`WHERE o.oid = \$1`).WithArgs(int64(5)).WillReturnRows(sqlmock.NewRows(orderColumns))
	mock.ExpectQuery(`WHERE o.order_date = \$1`).
		WithArgs(domain.NormalizeOrderDate(at)).
		WillReturnRows(sqlmock.NewRows(orderColumns).AddRow(int64(6), int64(1), domain.NormalizeOrderDate(at), int64(3)))

	_, err := orders.FindByID(context.Background(), 5)
	require.ErrorIs(t, err, domain.ErrOrderNotFound)

	byDate, err := orders.FindByDate(context.Background(), at)
	require.NoError(t, err)
	require.Len(t, byDate, 1)
	require.Equal(t, int64(6), byDate[0].ID)
}

func TestOrderStore_Delete(t *testing.T) {
	store, mock := newMockStore(t)
	orders := NewOrderStore(store)

	mock.ExpectExec(`DELETE FROM orders WHERE oid = \$1`).WithArgs(int64(1)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM orders`).WillReturnResult(sqlmock.NewResult(0, 3))

	require.NoError(t, orders.DeleteByID(context.Background(), 1))
	require.NoError(t, orders.DeleteAll(context.Background()))
}
