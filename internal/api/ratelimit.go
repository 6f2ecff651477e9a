package api

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// rateLimited returns the per-client write limit for an operation, or nil
// when limiting is disabled. Client addresses come from RemoteAddr, which
// the RealIP middleware has already resolved from proxy headers.
func (s *Server) rateLimited() huma.Middlewares {
	if s.commentLimiter == nil {
		return nil
	}

	return huma.Middlewares{
		func(ctx huma.Context, next func(huma.Context)) {
			key := clientHost(ctx.RemoteAddr())
			if !s.commentLimiter.Allow(key) {
				s.logger.Warn("rate limit exceeded",
					"ip", key,
					"path", ctx.URL().Path)
				_ = huma.WriteErr(s.api, ctx, http.StatusTooManyRequests, "Too many requests. Please try again later.")
				return
			}
			next(ctx)
		},
	}
}
