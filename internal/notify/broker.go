// Package notify delivers committed ledger changes to subscribers.
//
// Publish never blocks. Every subscriber owns a FIFO queue drained by its own
// goroutine, so a slow callback delays only that subscriber and events reach
// each callback in the order they were published.
package notify

import (
	"sync"
	"time"
)

// EventKind names a committed ledger mutation.
type EventKind string

const (
	EmployeeCreated  EventKind = "employee.created"
	EmployeeRemoved  EventKind = "employee.removed"
	AttendanceMarked EventKind = "attendance.marked"
	PaymentApplied   EventKind = "payment.applied"
)

// Event describes one committed mutation.
type Event struct {
	// Seq increases by one for every published event.
	Seq uint64 `json:"seq"`

	Kind       EventKind `json:"kind"`
	EmployeeID string    `json:"employeeId"`

	// AttendanceID is set for attendance.marked.
	AttendanceID string `json:"attendanceId,omitempty"`

	// PaymentID is set for payment.applied, together with the settled records.
	PaymentID     string   `json:"paymentId,omitempty"`
	AttendanceIDs []string `json:"attendanceIds,omitempty"`

	At time.Time `json:"at"`
}

// Broker fans events out to subscribers.
type Broker struct {
	mu     sync.Mutex
	seq    uint64
	nextID uint64
	subs   map[uint64]*Subscription
	closed bool
}

// NewBroker creates an empty broker.
func NewBroker() *Broker {
	return &Broker{subs: make(map[uint64]*Subscription)}
}

// Subscribe registers fn for events of employeeID, or of every employee when
// employeeID is empty. fn runs on the subscription's own goroutine.
func (b *Broker) Subscribe(employeeID string, fn func(Event)) *Subscription {
	s := &Subscription{
		broker:     b,
		employeeID: employeeID,
		fn:         fn,
		wake:       make(chan struct{}, 1),
		done:       make(chan struct{}),
		stopped:    make(chan struct{}),
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		s.stop()
		close(s.stopped)
		return s
	}
	b.nextID++
	s.id = b.nextID
	b.subs[s.id] = s
	b.mu.Unlock()

	go s.run()
	return s
}

// Publish stamps ev with the next sequence number and enqueues it for every
// matching subscriber. It returns the stamped event.
func (b *Broker) Publish(ev Event) Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.seq++
	ev.Seq = b.seq
	if b.closed {
		return ev
	}
	for _, s := range b.subs {
		if s.employeeID == "" || s.employeeID == ev.EmployeeID {
			s.enqueue(ev)
		}
	}
	return ev
}

// Close stops every subscription. Events already queued are dropped.
func (b *Broker) Close() {
	b.mu.Lock()
	subs := b.subs
	b.subs = make(map[uint64]*Subscription)
	b.closed = true
	b.mu.Unlock()

	for _, s := range subs {
		s.stop()
	}
}

func (b *Broker) remove(id uint64) {
	b.mu.Lock()
	delete(b.subs, id)
	b.mu.Unlock()
}

// Subscription is one registered callback.
type Subscription struct {
	broker     *Broker
	id         uint64
	employeeID string
	fn         func(Event)

	mu      sync.Mutex
	queue   []Event
	wake    chan struct{}
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

// Close unsubscribes and waits for an in-flight callback to return.
// It must not be called from inside the subscription's own callback.
func (s *Subscription) Close() {
	s.broker.remove(s.id)
	s.stop()
	<-s.stopped
}

func (s *Subscription) stop() {
	s.once.Do(func() { close(s.done) })
}

func (s *Subscription) enqueue(ev Event) {
	s.mu.Lock()
	s.queue = append(s.queue, ev)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Subscription) run() {
	defer close(s.stopped)
	for {
		select {
		case <-s.done:
			return
		case <-s.wake:
		}

		for {
			s.mu.Lock()
			if len(s.queue) == 0 {
				s.mu.Unlock()
				break
			}
			ev := s.queue[0]
			s.queue = s.queue[1:]
			s.mu.Unlock()

			select {
			case <-s.done:
				return
			default:
			}
			s.fn(ev)
		}
	}
}
