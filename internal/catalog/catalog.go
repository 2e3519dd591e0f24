// Package catalog наполняет каталог демонстрационными категориями и товарами.
// Через HTTP каталог доступен только на чтение, поэтому товары появляются
// в хранилище только отсюда.
package catalog

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/restful-oms/internal/domain"
)

// Item — товар в наборе для сидирования, категория задана именем.
type Item struct {
	Category string
	Name     string
	Qty      int32
	Price    int64
}

// Demo — набор по умолчанию. Цены в копейках.
var Demo = []Item{
	{Category: "Electronics", Name: "Keyboard", Qty: 40, Price: 4990},
	{Category: "Electronics", Name: "Mouse", Qty: 120, Price: 1990},
	{Category: "Electronics", Name: "Monitor", Qty: 15, Price: 189900},
	{Category: "Books", Name: "The Go Programming Language", Qty: 30, Price: 3500},
	{Category: "Books", Name: "Designing Data-Intensive Applications", Qty: 25, Price: 4200},
	{Category: "Home", Name: "Desk Lamp", Qty: 60, Price: 2450},
	{Category: "Home", Name: "Coffee Mug", Qty: 200, Price: 790},
}

// Result считает записи, созданные при сидировании.
type Result struct {
	Categories int
	Products   int
}

// Seed сохраняет items через writer. Категории создаются по одному разу на имя,
// в порядке первого появления.
func Seed(ctx context.Context, writer domain.CatalogWriter, items []Item, logger *log.Entry) (Result, error) {
	if logger == nil {
		logger = log.WithField("component", "catalog-seed")
	}

	var res Result
	categoryIDs := make(map[string]int64)
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		categoryID, ok := categoryIDs[item.Category]
		if !ok {
			category, err := writer.SaveCategory(ctx, domain.Category{Name: item.Category})
			if err != nil {
				return res, fmt.Errorf("save category %q: %w", item.Category, err)
			}
			categoryID = category.ID
			categoryIDs[item.Category] = categoryID
			res.Categories++
		}

		if _, err := writer.SaveProduct(ctx, domain.Product{
			Name:       item.Name,
			Qty:        item.Qty,
			Price:      item.Price,
			CategoryID: categoryID,
		}); err != nil {
			return res, fmt.Errorf("save product %q: %w", item.Name, err)
		}
		res.Products++
	}

	logger.WithFields(log.Fields{
		"categories": res.Categories,
		"products":   res.Products,
	}).Info("catalog seeded")
	return res, nil
}
