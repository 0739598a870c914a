package engine

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"shopstream.app/sync/internal/model"
	"shopstream.app/sync/internal/segment"
)

var _ = Describe("Dispatcher", func() {
	var (
		ctx    context.Context
		sender *mockSender
		slept  []time.Duration
	)

	newDispatcher := func(cfg DispatcherConfig) *Dispatcher {
		d := NewDispatcher(sender, cfg)
		d.sleep = func(_ context.Context, delay time.Duration) error {
			slept = append(slept, delay)
			return nil
		}
		return d
	}

	events := func(n int) []segment.Event {
		out := make([]segment.Event, n)
		for i := range out {
			out[i] = segment.Event{
				Type:      segment.EventTypeTrack,
				UserID:    "user",
				MessageID: sid(i + 1),
			}
		}
		return out
	}

	BeforeEach(func() {
		ctx = context.Background()
		sender = &mockSender{}
		slept = nil
	})

	Describe("batching", func() {
		It("slices events into fixed-size batches preserving order", func() {
			d := newDispatcher(DispatcherConfig{BatchSize: 2})

			var reconciled [][]Outcome
			err := d.Dispatch(ctx, events(5), func(_ context.Context, outcomes []Outcome) error {
				reconciled = append(reconciled, outcomes)
				return nil
			})
			Expect(err).NotTo(HaveOccurred())

			Expect(sender.batches).To(HaveLen(3))
			Expect(sender.batches[0]).To(HaveLen(2))
			Expect(sender.batches[2]).To(HaveLen(1))
			Expect(sender.batches[0][0].MessageID).To(Equal(sid(1)))
			Expect(sender.batches[2][0].MessageID).To(Equal(sid(5)))

			Expect(reconciled).To(HaveLen(3))
			for _, outcomes := range reconciled {
				for _, outcome := range outcomes {
					Expect(outcome.Delivered).To(BeTrue())
					Expect(outcome.Attempts).To(Equal(1))
				}
			}
		})

		It("reconciles each batch before transmitting the next", func() {
			d := newDispatcher(DispatcherConfig{BatchSize: 1})

			var sendsAtReconcile []int
			err := d.Dispatch(ctx, events(3), func(_ context.Context, _ []Outcome) error {
				sendsAtReconcile = append(sendsAtReconcile, len(sender.batches))
				return nil
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(sendsAtReconcile).To(Equal([]int{1, 2, 3}))
		})

		It("aborts when reconcile fails, leaving later batches unsent", func() {
			d := newDispatcher(DispatcherConfig{BatchSize: 1})
			boom := errors.New("flag update failed")

			err := d.Dispatch(ctx, events(3), func(_ context.Context, _ []Outcome) error {
				return boom
			})
			Expect(err).To(MatchError(boom))
			Expect(sender.batches).To(HaveLen(1))
		})

		It("does nothing for an empty event slice", func() {
			d := newDispatcher(DispatcherConfig{BatchSize: 10})
			err := d.Dispatch(ctx, nil, func(_ context.Context, _ []Outcome) error {
				Fail("reconcile must not run")
				return nil
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(sender.batches).To(BeEmpty())
		})
	})

	Describe("retry and backoff", func() {
		It("retries transient errors and succeeds", func() {
			attempts := 0
			sender.sendFn = func(_ context.Context, _ []segment.Event) error {
				attempts++
				if attempts < 3 {
					return &segment.APIError{StatusCode: 503}
				}
				return nil
			}
			d := newDispatcher(DispatcherConfig{
				BatchSize:    10,
				MaxRetries:   3,
				InitialDelay: time.Second,
				MaxDelay:     30 * time.Second,
			})

			var outcomes []Outcome
			err := d.Dispatch(ctx, events(2), func(_ context.Context, o []Outcome) error {
				outcomes = o
				return nil
			})
			Expect(err).NotTo(HaveOccurred())

			Expect(slept).To(Equal([]time.Duration{time.Second, 2 * time.Second}))
			for _, outcome := range outcomes {
				Expect(outcome.Delivered).To(BeTrue())
				Expect(outcome.Attempts).To(Equal(3))
			}
		})

		It("doubles the delay up to the cap", func() {
			sender.sendFn = func(_ context.Context, _ []segment.Event) error {
				return &segment.APIError{StatusCode: 500}
			}
			d := newDispatcher(DispatcherConfig{
				BatchSize:    10,
				MaxRetries:   4,
				InitialDelay: time.Second,
				MaxDelay:     5 * time.Second,
			})

			var outcomes []Outcome
			err := d.Dispatch(ctx, events(1), func(_ context.Context, o []Outcome) error {
				outcomes = o
				return nil
			})
			Expect(err).NotTo(HaveOccurred())

			Expect(slept).To(Equal([]time.Duration{
				time.Second, 2 * time.Second, 4 * time.Second, 5 * time.Second,
			}))
			Expect(outcomes[0].Delivered).To(BeFalse())
			Expect(outcomes[0].Category).To(Equal(model.ErrorCategoryTransient))
			Expect(outcomes[0].Attempts).To(Equal(5))
			Expect(outcomes[0].Err).To(HaveOccurred())
		})

		It("reports exhausted retries as transient failures and keeps going", func() {
			sender.sendFn = func(_ context.Context, batch []segment.Event) error {
				if batch[0].MessageID == sid(1) {
					return errors.New("connection reset")
				}
				return nil
			}
			d := newDispatcher(DispatcherConfig{BatchSize: 1, MaxRetries: 1})

			var reconciled [][]Outcome
			err := d.Dispatch(ctx, events(2), func(_ context.Context, o []Outcome) error {
				reconciled = append(reconciled, o)
				return nil
			})
			Expect(err).NotTo(HaveOccurred())

			Expect(reconciled).To(HaveLen(2))
			Expect(reconciled[0][0].Delivered).To(BeFalse())
			Expect(reconciled[0][0].Category).To(Equal(model.ErrorCategoryTransient))
			Expect(reconciled[1][0].Delivered).To(BeTrue())
		})

		It("never retries permanent errors", func() {
			sender.sendFn = func(_ context.Context, _ []segment.Event) error {
				return &segment.APIError{StatusCode: 400, Message: "missing writeKey"}
			}
			d := newDispatcher(DispatcherConfig{BatchSize: 10, MaxRetries: 3})

			var outcomes []Outcome
			err := d.Dispatch(ctx, events(2), func(_ context.Context, o []Outcome) error {
				outcomes = o
				return nil
			})
			Expect(err).NotTo(HaveOccurred())

			Expect(sender.batches).To(HaveLen(1))
			Expect(slept).To(BeEmpty())
			for _, outcome := range outcomes {
				Expect(outcome.Delivered).To(BeFalse())
				Expect(outcome.Category).To(Equal(model.ErrorCategoryPermanent))
				Expect(outcome.Attempts).To(Equal(1))
			}
		})

		It("fails the batch when backoff is interrupted", func() {
			sender.sendFn = func(_ context.Context, _ []segment.Event) error {
				return &segment.APIError{StatusCode: 503}
			}
			d := NewDispatcher(sender, DispatcherConfig{BatchSize: 10, MaxRetries: 3})
			d.sleep = func(ctx context.Context, _ time.Duration) error {
				return context.Canceled
			}

			var outcomes []Outcome
			err := d.Dispatch(ctx, events(1), func(_ context.Context, o []Outcome) error {
				outcomes = o
				return nil
			})
			Expect(err).NotTo(HaveOccurred())

			Expect(sender.batches).To(HaveLen(1))
			Expect(outcomes[0].Delivered).To(BeFalse())
			Expect(outcomes[0].Category).To(Equal(model.ErrorCategoryTransient))
		})
	})
})
