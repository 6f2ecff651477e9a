package providers

import (
	"context"

	"github.com/jonboulle/clockwork"
	"github.com/samber/do/v2"

	"github.com/easycomment/easycomment-server/internal/config"
	"github.com/easycomment/easycomment-server/internal/logger"
	"github.com/easycomment/easycomment-server/internal/metrics"
	"github.com/easycomment/easycomment-server/internal/room"
	"github.com/easycomment/easycomment-server/internal/store"
)

// ProvideClock provides the wall clock shared by every time-dependent component.
func ProvideClock(i do.Injector) (clockwork.Clock, error) {
	return clockwork.NewRealClock(), nil
}

// ProvideMetrics provides the Prometheus collectors on a dedicated registry.
func ProvideMetrics(i do.Injector) (*metrics.Metrics, error) {
	return metrics.New(metrics.NewRegistry()), nil
}

// RoomsHandle wraps the room manager with its heartbeat context for lifecycle management.
type RoomsHandle struct {
	*room.Manager
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *RoomsHandle) Shutdown() error {
	h.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Manager.Shutdown(ctx)
}

// ProvideRooms provides the realtime room manager.
func ProvideRooms(i do.Injector) (*RoomsHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	clock := do.MustInvoke[clockwork.Clock](i)
	m := do.MustInvoke[*metrics.Metrics](i)

	manager := room.NewManager(log.Logger, room.Options{
		Clock:             clock,
		Recorder:          m,
		HeartbeatInterval: cfg.Realtime.HeartbeatInterval,
		ClientBuffer:      cfg.Realtime.ClientBuffer,
	})

	// Start in background
	ctx, cancel := context.WithCancel(context.Background())
	go manager.Start(ctx)

	log.Info("Room manager started",
		"heartbeat_interval", cfg.Realtime.HeartbeatInterval,
		"client_buffer", cfg.Realtime.ClientBuffer,
	)

	return &RoomsHandle{
		Manager: manager,
		cancel:  cancel,
	}, nil
}

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the database store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	clock := do.MustInvoke[clockwork.Clock](i)
	m := do.MustInvoke[*metrics.Metrics](i)

	path := cfg.Storage.DataPath
	if cfg.InMemory() {
		path = ""
	}

	db, err := store.New(path, log.Logger,
		store.WithClock(clock),
		store.WithLocation(cfg.Location()),
	)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "path", cfg.Storage.DataPath)

	if cfg.Storage.LegacyDataDir != "" {
		result, err := db.ImportLegacy(context.Background(), cfg.Storage.LegacyDataDir)
		if err != nil {
			log.WithError(err).WithField("dir", cfg.Storage.LegacyDataDir).Error("Legacy import failed")
			_ = db.Close()
			return nil, err
		}
		if result.Instances > 0 {
			log.Info("Imported legacy data",
				"dir", cfg.Storage.LegacyDataDir,
				"instances", result.Instances,
				"comments", result.Comments,
				"skipped", result.Skipped,
			)
		}
	}

	m.RegisterStoreStats(db.Stats)

	return &StoreHandle{Store: db}, nil
}
