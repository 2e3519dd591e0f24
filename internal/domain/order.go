package domain

import "time"

// OrderDatePrecision — точность, с которой хранится и сравнивается дата заказа.
// Совпадает с точностью timestamptz в PostgreSQL.
const OrderDatePrecision = time.Microsecond

// Order — заказ пользователя на набор товаров.
type Order struct {
	ID     int64
	UserID int64
	// ProductIDs хранит ссылки на товары в порядке, заданном клиентом.
	ProductIDs []int64
	// OrderDate проставляет сервер при создании и при каждом обновлении.
	OrderDate time.Time
}

// OrderInput — данные заказа, которые разрешено задавать клиенту.
type OrderInput struct {
	UserID     int64
	ProductIDs []int64
}

// NormalizeOrderDate приводит время к UTC и OrderDatePrecision.
func NormalizeOrderDate(t time.Time) time.Time {
	return t.UTC().Truncate(OrderDatePrecision)
}

// Clone возвращает копию заказа с собственным срезом ProductIDs.
func (o Order) Clone() Order {
	o.ProductIDs = append([]int64(nil), o.ProductIDs...)
	return o
}
