// Package di provides dependency injection configuration for the EasyComment server.
package di

import (
	"github.com/jonboulle/clockwork"
	"github.com/samber/do/v2"

	"github.com/easycomment/easycomment-server/internal/config"
	"github.com/easycomment/easycomment-server/internal/di/providers"
	"github.com/easycomment/easycomment-server/internal/keylock"
	"github.com/easycomment/easycomment-server/internal/logger"
	"github.com/easycomment/easycomment-server/internal/metrics"
	"github.com/easycomment/easycomment-server/internal/service"
	"github.com/easycomment/easycomment-server/internal/validation"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideClock)
	do.Provide(injector, providers.ProvideMetrics)

	// Storage and realtime
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideRooms)

	// Shared primitives
	do.Provide(injector, providers.ProvideInstanceLocks)
	do.Provide(injector, providers.ProvideValidator)
	do.Provide(injector, providers.ProvideCommentLimiter)

	// Business services
	do.Provide(injector, providers.ProvideInstanceService)
	do.Provide(injector, providers.ProvideCommentService)
	do.Provide(injector, providers.ProvideSettingsService)
	do.Provide(injector, providers.ProvideWebhookService)
	do.Provide(injector, providers.ProvideLiveService)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services.
// This triggers lazy initialization, so configuration and storage errors surface before the server listens.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[clockwork.Clock](injector)
	_ = do.MustInvoke[*metrics.Metrics](injector)

	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*providers.RoomsHandle](injector)

	_ = do.MustInvoke[*keylock.Sharded](injector)
	_ = do.MustInvoke[*validation.Validator](injector)
	_ = do.MustInvoke[*providers.CommentLimiterHandle](injector)

	// Business services
	_ = do.MustInvoke[*service.InstanceService](injector)
	_ = do.MustInvoke[*service.CommentService](injector)
	_ = do.MustInvoke[*service.SettingsService](injector)
	_ = do.MustInvoke[*service.WebhookService](injector)
	_ = do.MustInvoke[*service.LiveService](injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
