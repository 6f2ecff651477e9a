package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/jonboulle/clockwork"
	"github.com/samber/do/v2"

	"github.com/easycomment/easycomment-server/internal/api"
	"github.com/easycomment/easycomment-server/internal/config"
	"github.com/easycomment/easycomment-server/internal/logger"
	"github.com/easycomment/easycomment-server/internal/metrics"
	"github.com/easycomment/easycomment-server/internal/service"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	rooms := do.MustInvoke[*RoomsHandle](i)
	limiter := do.MustInvoke[*CommentLimiterHandle](i)
	clock := do.MustInvoke[clockwork.Clock](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	log := do.MustInvoke[*logger.Logger](i)

	services := &api.Services{
		Instance: do.MustInvoke[*service.InstanceService](i),
		Comment:  do.MustInvoke[*service.CommentService](i),
		Settings: do.MustInvoke[*service.SettingsService](i),
		Webhook:  do.MustInvoke[*service.WebhookService](i),
		Live:     do.MustInvoke[*service.LiveService](i),
	}

	apiServer := api.NewServer(storeHandle.Store, services, rooms.Manager, api.Options{
		Clock:          clock,
		Location:       cfg.Location(),
		Metrics:        m,
		CommentLimiter: limiter.Limiter,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}, log.Logger)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      apiServer,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("HTTP server failed", "addr", httpServer.Addr)
		}
	}()

	return &HTTPServerHandle{Server: httpServer}, nil
}

