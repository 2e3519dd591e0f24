package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/restful-oms/internal/domain"
)

func TestCatalogStore_SaveCategoryByName(t *testing.T) {
	store, mock := newMockStore(t)
	catalog := NewCatalogStore(store)

	mock.ExpectQuery(`INSERT INTO categories \(name\)`).
		WithArgs("Books").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(2)))
	mock.ExpectExec(`SELECT setval\(pg_get_serial_sequence\('categories'`).WillReturnResult(sqlmock.NewResult(0, 1))

	saved, err := catalog.SaveCategory(context.Background(), domain.Category{Name: "Books"})
	require.NoError(t, err)
	require.Equal(t, int64(2), saved.ID)
}

func TestCatalogStore_SaveProductWithExplicitID(t *testing.T) {
	store, mock := newMockStore(t)
	catalog := NewCatalogStore(store)

	mock.ExpectQuery(`INSERT INTO products \(id, name, qty, price, category_id\)`).
		WithArgs(int64(10), "Pen", int64(5), int64(150), nil).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(10)))
	mock.ExpectExec(`SELECT setval\(pg_get_serial_sequence\('products'`).WillReturnResult(sqlmock.NewResult(0, 1))

	saved, err := catalog.SaveProduct(context.Background(), domain.Product{ID: 10, Name: "Pen", Qty: 5, Price: 150})
	require.NoError(t, err)
	require.Equal(t, int64(10), saved.ID)
}

func TestCatalogStore_FindAll(t *testing.T) {
	store, mock := newMockStore(t)
	catalog := NewCatalogStore(store)

	mock.ExpectQuery(`FROM products\s+ORDER BY id`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "qty", "price", "category_id"}).
			AddRow(int64(1), "Pen", int64(5), int64(150), int64(1)).
			AddRow(int64(2), "Loose", int64(0), int64(10), nil))

	products, err := catalog.FindAll(context.Background())
	require.NoError(t, err)
	require.Equal(t, []domain.Product{
		{ID: 1, Name: "Pen", Qty: 5, Price: 150, CategoryID: 1},
		{ID: 2, Name: "Loose", Qty: 0, Price: 10},
	}, products)
}
