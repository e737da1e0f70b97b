package effects

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

type captureSink struct {
	mu     sync.Mutex
	events []Event
	prints []PrintJob
	failOn string
}

func (c *captureSink) PublishEvent(_ context.Context, e Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e.Name == c.failOn {
		return errors.New("broker down")
	}
	c.events = append(c.events, e)
	return nil
}

func (c *captureSink) SubmitPrint(_ context.Context, job PrintJob) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prints = append(c.prints, job)
	return nil
}

func TestDispatcherContinuesPastFailures(t *testing.T) {
	sink := &captureSink{failOn: EventKOTCancelled}
	d := NewDispatcher(Sinks{Events: sink, Prints: sink}, time.Second, zap.NewNop())

	var b Batch
	b.Emit(EventKOTCancelled, nil, KitchenRoom(1))
	b.Emit(EventOrderCancelled, nil, CaptainRoom(1))
	b.Print(PrintJob{Kind: PrintCancelSlip, OrderID: 4})

	d.Dispatch(b)
	d.Wait()

	if len(sink.events) != 1 || sink.events[0].Name != EventOrderCancelled {
		t.Fatalf("expected only order:cancelled delivered, got %+v", sink.events)
	}
	if len(sink.prints) != 1 || sink.prints[0].ID == "" {
		t.Fatalf("expected print job with id, got %+v", sink.prints)
	}
}

func TestRooms(t *testing.T) {
	cases := [][2]string{
		{KitchenRoom(3), "kitchen:3"},
		{StationRoom(3, "bar"), "station:3:bar"},
		{CaptainRoom(3), "captain:3"},
		{FloorRoom(3, 2), "floor:3:2"},
	}
	for _, c := range cases {
		if c[0] != c[1] {
			t.Fatalf("expected %s, got %s", c[1], c[0])
		}
	}
}

func TestBatchCount(t *testing.T) {
	var b Batch
	if !b.Empty() {
		t.Fatal("expected empty batch")
	}
	b.Emit(EventKOTCancelled, nil)
	b.Emit(EventKOTCancelled, nil)
	b.Emit(EventTableUpdated, nil)
	if b.Count(EventKOTCancelled) != 2 {
		t.Fatalf("expected 2 kot:cancelled, got %d", b.Count(EventKOTCancelled))
	}
}

func TestRecorderLastCount(t *testing.T) {
	rec := &Recorder{}
	if !rec.Last().Empty() {
		t.Fatal("expected empty batch before any dispatch")
	}
	var b Batch
	b.Emit(EventKOTCancelled, nil)
	b.Emit(EventOrderCancelled, nil)
	rec.Dispatch(b)
	if rec.Last().Count(EventKOTCancelled) != 1 || rec.Last().Count(EventOrderCancelled) != 1 {
		t.Fatalf("unexpected counts in %+v", rec.Last().Events)
	}
}

func TestEventFanoutReachesEveryPublisher(t *testing.T) {
	broker := &captureSink{failOn: EventKOTCreated}
	local := &captureSink{}
	fan := EventFanout{broker, local}

	err := fan.PublishEvent(context.Background(), Event{Name: EventKOTCreated})
	if err == nil {
		t.Fatal("expected the broker failure to be reported")
	}
	if len(local.events) != 1 {
		t.Fatalf("expected local publisher to receive the event, got %d", len(local.events))
	}
}
