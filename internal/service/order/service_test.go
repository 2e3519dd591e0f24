package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/restful-oms/internal/domain"
	"github.com/vladislavdragonenkov/restful-oms/internal/service/outbox"
	"github.com/vladislavdragonenkov/restful-oms/internal/storage/memory"
)

// stepClock возвращает фиксированные моменты, сдвигаясь на step при каждом вызове.
type stepClock struct {
	current time.Time
	step    time.Duration
}

func (c *stepClock) now() time.Time {
	t := c.current
	c.current = c.current.Add(c.step)
	return t
}

func newTestService(clock *stepClock) (*Service, *memory.OutboxRepository) {
	events := memory.NewOutboxRepository()
	return NewService(
		memory.NewOrderStore(),
		WithClock(clock.now),
		WithOutbox(outbox.NewRecorder(events, nil)),
	), events
}

func TestService_CreateOrderStampsDate(t *testing.T) {
	clock := &stepClock{current: time.Date(2024, 3, 1, 10, 0, 0, 123456789, time.UTC), step: time.Second}
	svc, events := newTestService(clock)

	created, err := svc.CreateOrder(context.Background(), domain.OrderInput{UserID: 7, ProductIDs: []int64{1, 2}})
	require.NoError(t, err)
	assert.Positive(t, created.ID)
	assert.Equal(t, []int64{1, 2}, created.ProductIDs)
	assert.True(t, created.OrderDate.Equal(time.Date(2024, 3, 1, 10, 0, 0, 123456000, time.UTC)))

	pending := events.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, outbox.EventOrderCreated, pending[0].EventType)
	assert.Equal(t, "1", pending[0].AggregateID)
}

func TestService_GetOrdersByDate(t *testing.T) {
	clock := &stepClock{current: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), step: time.Minute}
	svc, _ := newTestService(clock)
	ctx := context.Background()

	first, err := svc.CreateOrder(ctx, domain.OrderInput{UserID: 1})
	require.NoError(t, err)
	_, err = svc.CreateOrder(ctx, domain.OrderInput{UserID: 2})
	require.NoError(t, err)

	found, err := svc.GetOrdersByDate(ctx, first.OrderDate.In(time.FixedZone("MSK", 3*3600)))
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, first.ID, found[0].ID)

	none, err := svc.GetOrdersByDate(ctx, first.OrderDate.Add(time.Second))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestService_UpdateOrderRefreshesDate(t *testing.T) {
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	clock := &stepClock{current: base, step: time.Hour}
	svc, _ := newTestService(clock)
	ctx := context.Background()

	created, err := svc.CreateOrder(ctx, domain.OrderInput{UserID: 1, ProductIDs: []int64{1}})
	require.NoError(t, err)
	require.True(t, created.OrderDate.Equal(base))

	// второй вызов часов приходится на обновление
	updated, err := svc.UpdateOrder(ctx, created.ID, domain.OrderInput{UserID: 9, ProductIDs: []int64{4, 5}})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, int64(9), updated.UserID)
	assert.Equal(t, []int64{4, 5}, updated.ProductIDs)
	assert.True(t, updated.OrderDate.Equal(base.Add(time.Hour)), "got %s", updated.OrderDate)

	stored, err := svc.GetOrderByID(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, stored.OrderDate.Equal(base.Add(time.Hour)))
}

func TestService_UpdateMissingOrderChangesNothing(t *testing.T) {
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	clock := &stepClock{current: base, step: time.Hour}
	svc, events := newTestService(clock)
	ctx := context.Background()

	created, err := svc.CreateOrder(ctx, domain.OrderInput{UserID: 1, ProductIDs: []int64{1, 2}})
	require.NoError(t, err)

	_, err = svc.UpdateOrder(ctx, 999, domain.OrderInput{UserID: 5, ProductIDs: []int64{7}})
	require.ErrorIs(t, err, domain.ErrOrderNotFound)

	orders, err := svc.ListOrders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, created.ID, orders[0].ID)
	assert.Equal(t, int64(1), orders[0].UserID)
	assert.Equal(t, []int64{1, 2}, orders[0].ProductIDs)
	assert.True(t, orders[0].OrderDate.Equal(base))

	for _, msg := range events.Pending() {
		assert.NotEqual(t, outbox.EventOrderUpdated, msg.EventType)
	}
	assert.Len(t, events.Pending(), 1, "only order.created is recorded")
}

func TestService_RemoveOrders(t *testing.T) {
	clock := &stepClock{current: time.Now(), step: time.Millisecond}
	svc, events := newTestService(clock)
	ctx := context.Background()

	created, err := svc.CreateOrder(ctx, domain.OrderInput{UserID: 1})
	require.NoError(t, err)
	_, err = svc.CreateOrder(ctx, domain.OrderInput{UserID: 2})
	require.NoError(t, err)

	require.NoError(t, svc.RemoveOrder(ctx, created.ID))
	require.NoError(t, svc.RemoveOrder(ctx, created.ID))

	_, err = svc.GetOrderByID(ctx, created.ID)
	require.ErrorIs(t, err, domain.ErrOrderNotFound)

	require.NoError(t, svc.RemoveAllOrders(ctx))
	orders, err := svc.ListOrders(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)

	pending := events.Pending()
	assert.Equal(t, outbox.EventOrdersPurged, pending[len(pending)-1].EventType)
}

func TestService_InputSliceIsCopied(t *testing.T) {
	clock := &stepClock{current: time.Now(), step: time.Millisecond}
	svc, _ := newTestService(clock)
	ctx := context.Background()

	ids := []int64{1, 2}
	created, err := svc.CreateOrder(ctx, domain.OrderInput{UserID: 1, ProductIDs: ids})
	require.NoError(t, err)
	ids[0] = 100

	got, err := svc.GetOrderByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, got.ProductIDs)
}

func TestService_StoreFailureIsWrapped(t *testing.T) {
	svc := NewService(failingStore{err: errors.New("timeout")})

	_, err := svc.GetOrdersByDate(context.Background(), time.Now())

	var storeErr *domain.StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "order.find_by_date", storeErr.Op)
	assert.False(t, domain.IsNotFound(err))
}

type failingStore struct {
	domain.OrderStore
	err error
}

func (f failingStore) FindByDate(context.Context, time.Time) ([]domain.Order, error) {
	return nil, f.err
}
