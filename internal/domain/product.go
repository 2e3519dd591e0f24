package domain

// Category — категория товаров. В API только упоминается через Product.CategoryID.
type Category struct {
	ID   int64
	Name string
}

// Product — товар каталога. Через HTTP доступен только на чтение.
type Product struct {
	ID         int64
	Name       string
	Qty        int32
	Price      int64
	CategoryID int64
}
