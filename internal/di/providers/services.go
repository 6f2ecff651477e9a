package providers

import (
	"github.com/jonboulle/clockwork"
	"github.com/samber/do/v2"

	"github.com/easycomment/easycomment-server/internal/config"
	"github.com/easycomment/easycomment-server/internal/keylock"
	"github.com/easycomment/easycomment-server/internal/logger"
	"github.com/easycomment/easycomment-server/internal/metrics"
	"github.com/easycomment/easycomment-server/internal/ratelimit"
	"github.com/easycomment/easycomment-server/internal/service"
	"github.com/easycomment/easycomment-server/internal/validation"
)

// instanceLockShards is the number of per-instance lock stripes.
const instanceLockShards = 64

// ProvideInstanceLocks provides the striped per-instance locks shared by all services.
func ProvideInstanceLocks(i do.Injector) (*keylock.Sharded, error) {
	return keylock.New(instanceLockShards), nil
}

// ProvideValidator provides the settings validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// CommentLimiterHandle wraps the comment rate limiter with shutdown capability.
// Limiter is nil when rate limiting is disabled.
type CommentLimiterHandle struct {
	Limiter *ratelimit.KeyedRateLimiter
}

// Shutdown implements do.Shutdownable.
func (h *CommentLimiterHandle) Shutdown() error {
	if h.Limiter != nil {
		h.Limiter.Stop()
	}
	return nil
}

// ProvideCommentLimiter provides the per-client limiter for comment and webhook posts.
func ProvideCommentLimiter(i do.Injector) (*CommentLimiterHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	clock := do.MustInvoke[clockwork.Clock](i)

	if cfg.Limits.CommentsPerMinute == 0 {
		return &CommentLimiterHandle{}, nil
	}
	return &CommentLimiterHandle{
		Limiter: ratelimit.New(cfg.Limits.CommentsPerMinute, cfg.Limits.CommentBurst, clock),
	}, nil
}

// ProvideInstanceService provides the instance service.
func ProvideInstanceService(i do.Injector) (*service.InstanceService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	rooms := do.MustInvoke[*RoomsHandle](i)
	locks := do.MustInvoke[*keylock.Sharded](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewInstanceService(storeHandle.Store, rooms.Manager, locks, m, log.Logger), nil
}

// ProvideCommentService provides the comment service.
func ProvideCommentService(i do.Injector) (*service.CommentService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	rooms := do.MustInvoke[*RoomsHandle](i)
	locks := do.MustInvoke[*keylock.Sharded](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewCommentService(storeHandle.Store, rooms.Manager, locks, m, log.Logger), nil
}

// ProvideSettingsService provides the settings service.
func ProvideSettingsService(i do.Injector) (*service.SettingsService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	rooms := do.MustInvoke[*RoomsHandle](i)
	locks := do.MustInvoke[*keylock.Sharded](i)
	v := do.MustInvoke[*validation.Validator](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSettingsService(storeHandle.Store, rooms.Manager, locks, v, m, log.Logger), nil
}

// ProvideWebhookService provides the webhook relay service.
func ProvideWebhookService(i do.Injector) (*service.WebhookService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	rooms := do.MustInvoke[*RoomsHandle](i)
	locks := do.MustInvoke[*keylock.Sharded](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewWebhookService(storeHandle.Store, rooms.Manager, locks, m, log.Logger), nil
}

// ProvideLiveService provides the service that joins realtime clients to rooms.
func ProvideLiveService(i do.Injector) (*service.LiveService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	rooms := do.MustInvoke[*RoomsHandle](i)
	locks := do.MustInvoke[*keylock.Sharded](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewLiveService(storeHandle.Store, rooms.Manager, locks, m, log.Logger), nil
}
