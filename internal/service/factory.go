package service

import (
	"shopstream.app/sync/core/config"
	"shopstream.app/sync/internal/engine"
	"shopstream.app/sync/internal/model"
	"shopstream.app/sync/internal/store"
)

type Services struct {
	sync     SyncService
	failures FailureService
}

type ServicesConfig struct {
	Stores *store.Stores
	Sender engine.Sender
	Locks  RunLocker
	Sync   config.SyncConfig
}

// NewServices wires the sync engine: one dispatcher and recorder shared by
// one orchestrator per entity type.
func NewServices(cfg ServicesConfig) *Services {
	dispatcher := engine.NewDispatcher(cfg.Sender, engine.DispatcherConfig{
		BatchSize:    cfg.Sync.BatchSize,
		MaxRetries:   cfg.Sync.MaxRetries,
		InitialDelay: cfg.Sync.InitialRetryDelay,
		MaxDelay:     cfg.Sync.MaxRetryDelay,
	})
	recorder := engine.NewRecorder(cfg.Stores.Failures())
	orchCfg := engine.OrchestratorConfig{ChunkSize: cfg.Sync.ChunkSize}

	customers := engine.NewOrchestrator(
		model.EntityTypeCustomer,
		cfg.Stores.Customers(),
		func(c model.Customer) string { return c.SID },
		engine.TransformCustomer,
		dispatcher,
		recorder,
		orchCfg,
	)
	orders := engine.NewOrchestrator(
		model.EntityTypeOrder,
		cfg.Stores.Orders(),
		func(o model.Order) string { return o.SID },
		engine.TransformOrder,
		dispatcher,
		recorder,
		orchCfg,
	)

	return &Services{
		sync:     NewSyncService([]engine.Runner{customers, orders}, cfg.Locks),
		failures: NewFailureService(cfg.Stores.Failures()),
	}
}

func (s *Services) Sync() SyncService {
	return s.sync
}

func (s *Services) Failures() FailureService {
	return s.failures
}
