package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/vladislavdragonenkov/restful-oms/internal/domain"
	"github.com/vladislavdragonenkov/restful-oms/internal/storage/memory"
)

func TestRecorder_Record(t *testing.T) {
	repo := memory.NewOutboxRepository()
	recorder := NewRecorder(repo, nil)

	recorder.Record(context.Background(), domain.AggregateUser, 7, EventUserCreated, map[string]any{"uid": 7})
	recorder.Record(context.Background(), domain.AggregateUser, 0, EventUsersPurged, struct{}{})

	pending := repo.Pending()
	if len(pending) != 2 {
		t.Fatalf("expected 2 recorded events, got %d", len(pending))
	}
	if pending[0].AggregateID != "7" || pending[0].EventType != EventUserCreated {
		t.Fatalf("unexpected first event: %+v", pending[0])
	}

	var payload map[string]int
	if err := json.Unmarshal(pending[0].Payload, &payload); err != nil || payload["uid"] != 7 {
		t.Fatalf("unexpected payload %s (err=%v)", pending[0].Payload, err)
	}
	if pending[1].AggregateID != "" {
		t.Fatalf("bulk event must not carry aggregate id, got %q", pending[1].AggregateID)
	}
}

func TestRecorder_NilRepositoryIsNoop(t *testing.T) {
	var recorder *Recorder
	recorder.Record(context.Background(), domain.AggregateOrder, 1, EventOrderCreated, nil)

	NewRecorder(nil, nil).Record(context.Background(), domain.AggregateOrder, 1, EventOrderCreated, nil)
}

func TestRecorder_EnqueueErrorIsSwallowed(t *testing.T) {
	recorder := NewRecorder(failingRepo{}, nil)
	recorder.Record(context.Background(), domain.AggregateOrder, 1, EventOrderCreated, map[string]int{"oid": 1})
}

func TestRecorder_UnmarshalablePayload(t *testing.T) {
	repo := memory.NewOutboxRepository()
	NewRecorder(repo, nil).Record(context.Background(), domain.AggregateOrder, 1, EventOrderCreated, make(chan int))

	if got := len(repo.Pending()); got != 0 {
		t.Fatalf("expected nothing enqueued for invalid payload, got %d", got)
	}
}

type failingRepo struct {
	domain.OutboxRepository
}

func (failingRepo) Enqueue(context.Context, domain.OutboxMessage) (domain.OutboxMessage, error) {
	return domain.OutboxMessage{}, errors.New("disk full")
}
