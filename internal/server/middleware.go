package server

import (
	"net/http"
	"time"

	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-Id"

// requestIDHandler reuses a well-formed incoming request ID or mints a new one,
// stores it in the request context and echoes it back.
func requestIDHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := xid.FromString(r.Header.Get(RequestIDHeader))
		if err != nil {
			id = xid.New()
		}
		ctx := hlog.CtxWithID(r.Context(), id)
		r = r.WithContext(ctx)

		log := zerolog.Ctx(ctx)
		log.UpdateContext(func(c zerolog.Context) zerolog.Context {
			return c.Str("req_id", id.String())
		})

		w.Header().Set(RequestIDHeader, id.String())
		next.ServeHTTP(w, r)
	})
}

// middlewareChain wraps h with logging middleware, outermost first.
func middlewareChain(logger zerolog.Logger, h http.Handler) http.Handler {
	h = hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		event := hlog.FromRequest(r).Info()
		if status >= http.StatusInternalServerError {
			event = hlog.FromRequest(r).Warn()
		}
		event.
			Str("method", r.Method).
			Stringer("url", r.URL).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("Request handled")
	})(h)
	h = requestIDHandler(h)
	h = hlog.RemoteAddrHandler("remote_addr")(h)
	h = hlog.UserAgentHandler("user_agent")(h)
	return hlog.NewHandler(logger)(h)
}
