package api

import (
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// loggingMiddleware logs each API request at a level picked from the
// response status.
func loggingMiddleware(ctx huma.Context, next func(huma.Context)) {
	start := time.Now()
	next(ctx)

	status := ctx.Status()
	var ev *zerolog.Event
	switch {
	case status >= 500:
		ev = log.Error()
	case status >= 400:
		ev = log.Warn()
	default:
		ev = log.Debug()
	}
	ev.Str("method", ctx.Method()).
		Str("path", ctx.URL().Path).
		Str("remote_addr", ctx.RemoteAddr()).
		Int("status", status).
		Dur("duration", time.Since(start)).
		Msg("HTTP request completed")
}
