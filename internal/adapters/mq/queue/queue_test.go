package queue

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/dojo/internal/domain/model"
)

func frameMsg(session, frameID string) Message {
	return Message{Op: OpFrame, SessionID: session, Frame: model.Frame{ID: frameID}}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2), WithShard("3"))
	ctx := context.Background()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
	if q.Shard() != "3" {
		t.Errorf("expected shard 3, got %s", q.Shard())
	}

	if !q.Enqueue(ctx, frameMsg("s1", "f1")) {
		t.Error("expected enqueue to succeed")
	}
	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	m := <-q.Dequeue(ctx)
	if m.Frame.ID != "f1" || m.SessionID != "s1" || m.Op != OpFrame {
		t.Errorf("unexpected message %+v", m)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if !q.Enqueue(ctx, frameMsg("s", "1")) || !q.Enqueue(ctx, frameMsg("s", "2")) {
		t.Fatal("expected enqueue to succeed")
	}
	if q.Enqueue(ctx, frameMsg("s", "3")) {
		t.Error("expected enqueue to fail when full")
	}
	if l := q.Len(ctx); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
}

func TestInMemoryQueue_CancelledContext(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if q.Enqueue(ctx, frameMsg("s", "1")) {
		t.Error("expected enqueue to fail with a cancelled context")
	}
}

func TestInMemoryQueue_PreservesOrder(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(100))
	ctx := context.Background()

	for i := range 50 {
		if !q.Enqueue(ctx, frameMsg("s", fmt.Sprintf("f%02d", i))) {
			t.Fatalf("enqueue %d failed", i)
		}
	}
	_ = q.Close()

	var i int
	for m := range q.Dequeue(ctx) {
		if want := fmt.Sprintf("f%02d", i); m.Frame.ID != want {
			t.Fatalf("position %d: got %s want %s", i, m.Frame.ID, want)
		}
		i++
	}
	if i != 50 {
		t.Errorf("expected 50 drained messages, got %d", i)
	}
}

func TestInMemoryQueue_ConcurrentProducers(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(100))
	ctx := context.Background()
	producers, perProducer := 10, 100

	var wg sync.WaitGroup
	for p := range producers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range perProducer {
				m := frameMsg(fmt.Sprintf("s%d", p), fmt.Sprintf("f%d", j))
				for !q.Enqueue(ctx, m) {
					time.Sleep(time.Millisecond)
				}
			}
		}()
	}

	consumed := make(chan int)
	go func() {
		var n int
		for range q.Dequeue(ctx) {
			n++
		}
		consumed <- n
	}()

	wg.Wait()
	_ = q.Close()

	select {
	case n := <-consumed:
		if n != producers*perProducer {
			t.Errorf("expected %d messages, got %d", producers*perProducer, n)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not finish")
	}
}

func TestInMemoryQueue_GracefulShutdown(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(10))
	ctx := context.Background()

	if !q.Enqueue(ctx, frameMsg("s", "1")) {
		t.Fatal("expected enqueue to succeed")
	}
	if q.IsClosed() {
		t.Error("expected queue to be open initially")
	}
	if err := q.Close(); err != nil {
		t.Errorf("expected close to succeed, got error: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to be closed after Close()")
	}
	if q.Enqueue(ctx, frameMsg("s", "2")) {
		t.Error("expected enqueue to fail after closing")
	}

	ch := q.Dequeue(ctx)
	if m, ok := <-ch; !ok || m.Frame.ID != "1" {
		t.Errorf("expected queued message to drain after close, got %+v ok=%v", m, ok)
	}
	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected dequeue channel to be closed")
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("expected dequeue channel to be closed within timeout")
	}

	if err := q.Close(); err != nil {
		t.Errorf("expected second close to succeed, got error: %v", err)
	}
}

func TestOpString(t *testing.T) {
	cases := map[Op]string{
		OpFrame: "frame", OpSetDefender: "set_defender", OpSetAttacker: "set_attacker",
		OpReset: "reset", OpEnd: "end", Op(0): "unknown",
	}
	for op, want := range cases {
		if got := op.String(); got != want {
			t.Errorf("Op(%d).String() = %q, want %q", op, got, want)
		}
	}
}
