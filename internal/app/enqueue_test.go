package service

import (
	"context"
	"testing"

	"github.com/okian/dojo/internal/adapters/mq/queue"
	. "github.com/smartystreets/goconvey/convey"
)

func TestEnqueueError(t *testing.T) {
	Convey("Given a service and a shard queue that refuses a message", t, func() {
		s := New()
		ctx := context.Background()

		Convey("When the queue is full", func() {
			q := queue.NewInMemoryQueue(queue.WithCapacity(1))
			So(q.Enqueue(ctx, queue.Message{Op: queue.OpReset}), ShouldBeTrue)
			So(q.Enqueue(ctx, queue.Message{Op: queue.OpReset}), ShouldBeFalse)

			Convey("Then the caller is told to back off", func() {
				So(s.enqueueError(q), ShouldEqual, ErrBackpressure)
			})
		})

		Convey("When Stop already closed the queue", func() {
			q := queue.NewInMemoryQueue(queue.WithCapacity(1))
			So(q.Close(), ShouldBeNil)
			So(q.Enqueue(ctx, queue.Message{Op: queue.OpReset}), ShouldBeFalse)

			Convey("Then the service reports it is not running", func() {
				So(s.enqueueError(q), ShouldEqual, ErrNotStarted)
			})
		})
	})
}
