package httpapi

import (
	"time"

	"github.com/vladislavdragonenkov/restful-oms/internal/domain"
)

// userRequest — тело POST/PUT пользователя. uid в запросе игнорируется.
type userRequest struct {
	Name    *string `json:"name"`
	Address *string `json:"address"`
	Phone   *int64  `json:"phone"`
	Email   *string `json:"email"`
}

func (r userRequest) input() domain.UserInput {
	return domain.UserInput{Name: r.Name, Address: r.Address, Phone: r.Phone, Email: r.Email}
}

type userResponse struct {
	UID     int64  `json:"uid"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   int64  `json:"phone"`
	Email   string `json:"email"`
}

func newUserResponse(u domain.User) userResponse {
	return userResponse{UID: u.ID, Name: u.Name, Address: u.Address, Phone: u.Phone, Email: u.Email}
}

func newUserList(users []domain.User) []userResponse {
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, newUserResponse(u))
	}
	return out
}

// orderRequest — тело POST/PUT заказа. oid и orderDate назначает сервер.
type orderRequest struct {
	UserID     int64   `json:"userId"`
	ProductIDs []int64 `json:"productId"`
}

func (r orderRequest) input() domain.OrderInput {
	return domain.OrderInput{UserID: r.UserID, ProductIDs: r.ProductIDs}
}

type orderResponse struct {
	OID        int64     `json:"oid"`
	UserID     int64     `json:"userId"`
	ProductIDs []int64   `json:"productId"`
	OrderDate  time.Time `json:"orderDate"`
}

func newOrderResponse(o domain.Order) orderResponse {
	ids := o.ProductIDs
	if ids == nil {
		ids = []int64{}
	}
	return orderResponse{OID: o.ID, UserID: o.UserID, ProductIDs: ids, OrderDate: o.OrderDate.UTC()}
}

func newOrderList(orders []domain.Order) []orderResponse {
	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, newOrderResponse(o))
	}
	return out
}

type productResponse struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Qty        int32  `json:"qty"`
	Price      int64  `json:"price"`
	CategoryID int64  `json:"categoryId"`
}

func newProductList(products []domain.Product) []productResponse {
	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, productResponse{
			ID:         p.ID,
			Name:       p.Name,
			Qty:        p.Qty,
			Price:      p.Price,
			CategoryID: p.CategoryID,
		})
	}
	return out
}
