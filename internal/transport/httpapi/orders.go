package httpapi

import (
	"context"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/restful-oms/internal/domain"
)

// OrderService — сценарии над заказами, которые нужны HTTP-слою.
type OrderService interface {
	CreateOrder(ctx context.Context, in domain.OrderInput) (domain.Order, error)
	ListOrders(ctx context.Context) ([]domain.Order, error)
	GetOrderByID(ctx context.Context, id int64) (domain.Order, error)
	GetOrdersByDate(ctx context.Context, date time.Time) ([]domain.Order, error)
	UpdateOrder(ctx context.Context, id int64, in domain.OrderInput) (domain.Order, error)
	RemoveOrder(ctx context.Context, id int64) error
	RemoveAllOrders(ctx context.Context) error
}

// ProductService отдаёт каталог.
type ProductService interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
}

type orderHandler struct {
	orders   OrderService
	products ProductService
	logger   *log.Entry
}

func (h *orderHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.ListProducts(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeList(w, newProductList(products))
}

func (h *orderHandler) create(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	order, err := h.orders.CreateOrder(r.Context(), req.input())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, newOrderResponse(order))
}

func (h *orderHandler) list(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListOrders(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeList(w, newOrderList(orders))
}

// listByDate обслуживает GET /oms/order?orderDate=...
func (h *orderHandler) listByDate(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("orderDate")
	if raw == "" {
		writeError(w, r, http.StatusBadRequest, msgOrderDateMissing)
		return
	}
	date, err := parseOrderDate(raw)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, msgInvalidOrderDate)
		return
	}
	orders, err := h.orders.GetOrdersByDate(r.Context(), date)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeList(w, newOrderList(orders))
}

func (h *orderHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, r, http.StatusBadRequest, msgInvalidID)
		return
	}
	order, err := h.orders.GetOrderByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newOrderResponse(order))
}

func (h *orderHandler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, r, http.StatusBadRequest, msgInvalidID)
		return
	}
	var req orderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	order, err := h.orders.UpdateOrder(r.Context(), id, req.input())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newOrderResponse(order))
}

func (h *orderHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, r, http.StatusBadRequest, msgInvalidID)
		return
	}
	if err := h.orders.RemoveOrder(r.Context(), id); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *orderHandler) deleteAll(w http.ResponseWriter, r *http.Request) {
	if err := h.orders.RemoveAllOrders(r.Context()); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
