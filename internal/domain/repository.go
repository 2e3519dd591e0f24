package domain

import (
	"context"
	"time"
)

// UserStore описывает хранилище пользователей.
type UserStore interface {
	// Save создаёт пользователя при ID == 0 (ID назначает хранилище) или
	// перезаписывает существующего. Возвращает ErrEmailConflict при занятом email
	// и ErrUserNotFound, если обновляемой записи нет.
	Save(ctx context.Context, user User) (User, error)
	// FindByID возвращает пользователя или ErrUserNotFound.
	FindByID(ctx context.Context, id int64) (User, error)
	// FindAll возвращает всех пользователей по возрастанию ID.
	FindAll(ctx context.Context) ([]User, error)
	// DeleteByID удаляет пользователя; отсутствие записи не считается ошибкой.
	DeleteByID(ctx context.Context, id int64) error
	DeleteAll(ctx context.Context) error
}

// ProductStore описывает чтение каталога товаров.
type ProductStore interface {
	FindAll(ctx context.Context) ([]Product, error)
}

// CatalogWriter наполняет каталог. Используется только сидированием.
type CatalogWriter interface {
	SaveCategory(ctx context.Context, category Category) (Category, error)
	SaveProduct(ctx context.Context, product Product) (Product, error)
}

// OrderStore описывает хранилище заказов.
type OrderStore interface {
	// Save создаёт заказ при ID == 0 или перезаписывает существующий
	// (ErrOrderNotFound, если его нет).
	Save(ctx context.Context, order Order) (Order, error)
	// FindByID возвращает заказ или ErrOrderNotFound.
	FindByID(ctx context.Context, id int64) (Order, error)
	FindAll(ctx context.Context) ([]Order, error)
	// FindByDate возвращает заказы, дата которых точно равна date
	// после NormalizeOrderDate.
	FindByDate(ctx context.Context, date time.Time) ([]Order, error)
	DeleteByID(ctx context.Context, id int64) error
	DeleteAll(ctx context.Context) error
}
