package catalog_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/restful-oms/internal/catalog"
	"github.com/vladislavdragonenkov/restful-oms/internal/domain"
	"github.com/vladislavdragonenkov/restful-oms/internal/storage/memory"
)

func TestSeedDemo(t *testing.T) {
	store := memory.NewCatalogStore()

	res, err := catalog.Seed(context.Background(), store, catalog.Demo, nil)
	require.NoError(t, err)
	require.Equal(t, catalog.Result{Categories: 3, Products: len(catalog.Demo)}, res)

	categories := store.Categories()
	require.Len(t, categories, 3)
	require.Equal(t, "Electronics", categories[0].Name)

	products, err := store.FindAll(context.Background())
	require.NoError(t, err)
	require.Len(t, products, len(catalog.Demo))
	for _, p := range products {
		require.Positive(t, p.ID)
		require.Positive(t, p.CategoryID)
	}
	require.Equal(t, categories[0].ID, products[0].CategoryID)
}

type failingWriter struct {
	domain.CatalogWriter
	err error
}

func (w failingWriter) SaveCategory(context.Context, domain.Category) (domain.Category, error) {
	return domain.Category{}, w.err
}

func TestSeedPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")

	_, err := catalog.Seed(context.Background(), failingWriter{err: boom}, catalog.Demo, nil)
	require.ErrorIs(t, err, boom)
}

func TestSeedStopsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := catalog.Seed(ctx, memory.NewCatalogStore(), catalog.Demo, nil)
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, res.Products)
}
