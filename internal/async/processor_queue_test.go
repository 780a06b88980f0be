package async

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/joseph-ayodele/invoice-tracker/constants"
)

var _ = Describe("ProcessorQueue", func() {
	var (
		ctx  context.Context
		proc *mockProcessor
	)

	BeforeEach(func() {
		ctx = context.Background()
		proc = newMockProcessor()
	})

	It("processes every queued job before shutdown returns", func() {
		q := NewProcessorQueue(proc, nil, WithWorkers(2), WithQueueSize(8))
		for _, p := range []string{"a.pdf", "b.pdf", "c.pdf"} {
			Expect(q.Enqueue(ctx, Job{InvoiceID: uuid.New(), Path: p})).To(Succeed())
		}
		q.Shutdown(ctx)

		Expect(proc.processed()).To(ConsistOf("a.pdf", "b.pdf", "c.pdf"))
	})

	It("keeps working after a job fails", func() {
		proc.err = errors.New("mock processing")
		q := NewProcessorQueue(proc, nil, WithWorkers(1))
		Expect(q.Enqueue(ctx, Job{InvoiceID: uuid.New(), Path: "a.pdf"})).To(Succeed())
		Expect(q.Enqueue(ctx, Job{InvoiceID: uuid.New(), Path: "b.pdf"})).To(Succeed())
		q.Shutdown(ctx)

		Expect(proc.processed()).To(Equal([]string{"a.pdf", "b.pdf"}))
		Expect(q.Stats().Failed).To(BeEquivalentTo(2))
	})

	It("counts completed and failed jobs", func() {
		q := NewProcessorQueue(proc, nil, WithWorkers(3))
		Expect(q.Enqueue(ctx, Job{InvoiceID: uuid.New(), Path: "a.pdf"})).To(Succeed())
		Expect(q.Enqueue(ctx, Job{InvoiceID: uuid.New(), Path: "b.pdf"})).To(Succeed())
		q.Shutdown(ctx)

		stats := q.Stats()
		Expect(stats.Workers).To(Equal(3))
		Expect(stats.Completed).To(BeEquivalentTo(2))
		Expect(stats.Failed).To(BeZero())
		Expect(stats.InFlight).To(BeZero())
		Expect(stats.Pending).To(BeZero())
	})

	It("counts a failed invoice status as a failure", func() {
		proc.status = constants.StatusFailed
		q := NewProcessorQueue(proc, nil, WithWorkers(1))
		Expect(q.Enqueue(ctx, Job{InvoiceID: uuid.New(), Path: "a.pdf"})).To(Succeed())
		q.Shutdown(ctx)

		Expect(q.Stats().Failed).To(BeEquivalentTo(1))
		Expect(q.Stats().Completed).To(BeZero())
	})

	It("reports a running job as in flight", func() {
		proc.release = make(chan struct{})
		q := NewProcessorQueue(proc, nil, WithWorkers(1))
		Expect(q.Enqueue(ctx, Job{InvoiceID: uuid.New(), Path: "a.pdf"})).To(Succeed())
		Eventually(proc.started).Should(Receive())
		Eventually(func() int64 { return q.Stats().InFlight }).Should(BeEquivalentTo(1))

		close(proc.release)
		q.Shutdown(ctx)
		Expect(q.Stats().InFlight).To(BeZero())
		Expect(q.Stats().Completed).To(BeEquivalentTo(1))
	})

	It("rejects jobs after shutdown", func() {
		q := NewProcessorQueue(proc, nil)
		q.Shutdown(ctx)
		q.Shutdown(ctx)

		err := q.Enqueue(ctx, Job{InvoiceID: uuid.New(), Path: "late.pdf"})
		Expect(err).To(MatchError(ErrQueueClosed))
	})

	It("applies backpressure until the context ends", func() {
		proc.release = make(chan struct{})
		q := NewProcessorQueue(proc, nil, WithWorkers(1), WithQueueSize(1))

		first := uuid.New()
		Expect(q.Enqueue(ctx, Job{InvoiceID: first, Path: "a.pdf"})).To(Succeed())
		Eventually(proc.started).Should(Receive(Equal(first)))
		Expect(q.Enqueue(ctx, Job{InvoiceID: uuid.New(), Path: "b.pdf"})).To(Succeed())

		waitCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()
		err := q.Enqueue(waitCtx, Job{InvoiceID: uuid.New(), Path: "c.pdf"})
		Expect(err).To(MatchError(context.DeadlineExceeded))

		close(proc.release)
		q.Shutdown(ctx)
		Expect(proc.processed()).To(Equal([]string{"a.pdf", "b.pdf"}))
	})

	It("bounds each job by the process timeout", func() {
		proc.release = make(chan struct{})
		q := NewProcessorQueue(proc, nil, WithWorkers(1), WithProcessTimeout(20*time.Millisecond))
		Expect(q.Enqueue(ctx, Job{InvoiceID: uuid.New(), Path: "slow.pdf"})).To(Succeed())

		q.Shutdown(ctx)
		Expect(proc.processed()).To(BeEmpty())
	})

	It("stops waiting when the shutdown context ends", func() {
		proc.release = make(chan struct{})
		defer close(proc.release)
		q := NewProcessorQueue(proc, nil, WithWorkers(1))
		Expect(q.Enqueue(ctx, Job{InvoiceID: uuid.New(), Path: "a.pdf"})).To(Succeed())
		Eventually(proc.started).Should(Receive())

		shutdownCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()
		start := time.Now()
		q.Shutdown(shutdownCtx)
		Expect(time.Since(start)).To(BeNumerically("<", time.Second))
	})
})
