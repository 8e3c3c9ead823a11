package relay

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mmynk/wageledger/internal/notify"
)

type published struct {
	key  string
	body []byte
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []published
	err  error
	seen chan struct{}
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{seen: make(chan struct{}, 16)}
}

func (f *fakePublisher) Publish(ctx context.Context, key string, body []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	defer func() { f.seen <- struct{}{} }()
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("publish without deadline")
	}
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, published{key: key, body: body})
	return nil
}

func TestRoutingKey(t *testing.T) {
	tests := []struct {
		kind notify.EventKind
		want string
	}{
		{notify.EmployeeCreated, "ledger.employee.created"},
		{notify.AttendanceMarked, "ledger.attendance.marked"},
		{notify.PaymentApplied, "ledger.payment.applied"},
	}
	for _, tt := range tests {
		if got := RoutingKey(notify.Event{Kind: tt.kind}); got != tt.want {
			t.Errorf("RoutingKey(%s) = %s, want %s", tt.kind, got, tt.want)
		}
	}
}

func TestHandle_PublishesJSON(t *testing.T) {
	pub := newFakePublisher()
	r := New(pub, time.Second, nil)

	r.Handle(notify.Event{
		Seq:           7,
		Kind:          notify.PaymentApplied,
		EmployeeID:    "emp-1",
		PaymentID:     "pay-1",
		AttendanceIDs: []string{"att-1", "att-2"},
	})

	if len(pub.msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(pub.msgs))
	}
	msg := pub.msgs[0]
	if msg.key != "ledger.payment.applied" {
		t.Errorf("routing key = %s", msg.key)
	}

	var ev notify.Event
	if err := json.Unmarshal(msg.body, &ev); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if ev.Seq != 7 || ev.PaymentID != "pay-1" || len(ev.AttendanceIDs) != 2 {
		t.Errorf("unexpected event %+v", ev)
	}
}

func TestHandle_FailureIsSwallowed(t *testing.T) {
	pub := newFakePublisher()
	pub.err = errors.New("channel closed")
	r := New(pub, 0, nil)

	r.Handle(notify.Event{Kind: notify.AttendanceMarked, EmployeeID: "emp-1"})

	if len(pub.msgs) != 0 {
		t.Errorf("expected nothing recorded, got %d", len(pub.msgs))
	}
	if r.timeout != defaultTimeout {
		t.Errorf("timeout = %v, want default", r.timeout)
	}
}

func TestStart_ForwardsInOrder(t *testing.T) {
	broker := notify.NewBroker()
	defer broker.Close()

	pub := newFakePublisher()
	sub := New(pub, time.Second, nil).Start(broker)
	defer sub.Close()

	broker.Publish(notify.Event{Kind: notify.EmployeeCreated, EmployeeID: "a"})
	broker.Publish(notify.Event{Kind: notify.AttendanceMarked, EmployeeID: "b"})

	for i := 0; i < 2; i++ {
		select {
		case <-pub.seen:
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for publish")
		}
	}

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if len(pub.msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(pub.msgs))
	}
	if pub.msgs[0].key != "ledger.employee.created" || pub.msgs[1].key != "ledger.attendance.marked" {
		t.Errorf("unexpected order: %s, %s", pub.msgs[0].key, pub.msgs[1].key)
	}
}
