package service_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"shopstream.app/sync/internal/engine"
	"shopstream.app/sync/internal/model"
	"shopstream.app/sync/internal/service"
)

var _ = Describe("SyncService", func() {
	var (
		ctx       context.Context
		customers *mockRunner
		orders    *mockRunner
		locks     *mockLocker
		svc       service.SyncService
	)

	BeforeEach(func() {
		ctx = context.Background()
		customers = &mockRunner{entityType: model.EntityTypeCustomer}
		orders = &mockRunner{entityType: model.EntityTypeOrder}
		locks = &mockLocker{}
		svc = service.NewSyncService([]engine.Runner{customers, orders}, locks)
	})

	Describe("RunSync", func() {
		It("runs the requested entity type under the lock", func() {
			run, err := svc.RunSync(ctx, model.EntityTypeOrder)
			Expect(err).NotTo(HaveOccurred())
			Expect(run.EntityType).To(Equal(model.EntityTypeOrder))
			Expect(orders.runs).To(Equal(1))
			Expect(customers.runs).To(BeZero())
			Expect(locks.acquired).To(Equal([]model.EntityType{model.EntityTypeOrder}))
			Expect(locks.released).To(Equal([]model.EntityType{model.EntityTypeOrder}))
		})

		It("rejects unknown entity types", func() {
			_, err := svc.RunSync(ctx, model.EntityType("products"))
			Expect(err).To(MatchError(service.ErrUnknownEntityType))
			Expect(locks.acquired).To(BeEmpty())
		})

		It("reports a held cross-process lock as a run in progress", func() {
			locks.acquireFn = func(context.Context, model.EntityType) (bool, error) {
				return false, nil
			}
			_, err := svc.RunSync(ctx, model.EntityTypeCustomer)
			Expect(err).To(MatchError(service.ErrRunInProgress))
			Expect(customers.runs).To(BeZero())
			Expect(locks.released).To(BeEmpty())
		})

		It("maps the engine's in-process guard to the same error", func() {
			customers.runFn = func(context.Context) (model.SyncRun, error) {
				return model.SyncRun{}, engine.ErrRunInProgress
			}
			_, err := svc.RunSync(ctx, model.EntityTypeCustomer)
			Expect(err).To(MatchError(service.ErrRunInProgress))
		})

		It("releases the lock even when the run fails", func() {
			boom := errors.New("store down")
			customers.runFn = func(context.Context) (model.SyncRun, error) {
				return model.SyncRun{}, boom
			}
			_, err := svc.RunSync(ctx, model.EntityTypeCustomer)
			Expect(err).To(MatchError(boom))
			Expect(locks.released).To(Equal([]model.EntityType{model.EntityTypeCustomer}))
		})

		It("works without a locker", func() {
			svc = service.NewSyncService([]engine.Runner{customers, orders}, nil)
			_, err := svc.RunSync(ctx, model.EntityTypeCustomer)
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("RunAll", func() {
		It("syncs customers before orders", func() {
			var order []model.EntityType
			customers.runFn = func(context.Context) (model.SyncRun, error) {
				order = append(order, model.EntityTypeCustomer)
				return model.SyncRun{EntityType: model.EntityTypeCustomer}, nil
			}
			orders.runFn = func(context.Context) (model.SyncRun, error) {
				order = append(order, model.EntityTypeOrder)
				return model.SyncRun{EntityType: model.EntityTypeOrder}, nil
			}

			runs, err := svc.RunAll(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(runs).To(HaveLen(2))
			Expect(order).To(Equal([]model.EntityType{model.EntityTypeCustomer, model.EntityTypeOrder}))
		})

		It("stops at the first failure and returns completed runs", func() {
			orders.runFn = func(context.Context) (model.SyncRun, error) {
				return model.SyncRun{}, errors.New("store down")
			}

			runs, err := svc.RunAll(ctx)
			Expect(err).To(HaveOccurred())
			Expect(runs).To(HaveLen(1))
			Expect(runs[0].EntityType).To(Equal(model.EntityTypeCustomer))
		})

		It("does not start orders when the customer run fails", func() {
			customers.runFn = func(context.Context) (model.SyncRun, error) {
				return model.SyncRun{}, errors.New("store down")
			}

			runs, err := svc.RunAll(ctx)
			Expect(err).To(HaveOccurred())
			Expect(runs).To(BeEmpty())
			Expect(orders.runs).To(BeZero())
		})
	})
})
