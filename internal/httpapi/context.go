package httpapi

import (
	"context"
	"net/http"
)

// requestContext returns a context canceled when either the request or the
// server base context is done. The cancel func must be called when the
// handler returns.
func requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	return joinContexts(serverBaseCtx, r.Context())
}

// joinContexts returns a context canceled when either a or b is done. Values
// are taken from b.
func joinContexts(a, b context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(b)
	stop := context.AfterFunc(a, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}
