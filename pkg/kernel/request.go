package kernel

import (
	"context"
	"time"
)

// RequestInfo is the ambient, read-only snapshot of the in-flight HTTP
// request. The request-context filter injects it into the request's
// context.Context so deep call chains (services, repositories) can reach
// request metadata without threading it as a parameter.
type RequestInfo struct {
	TraceID   string
	Method    string
	Path      string
	IP        string
	UserAgent string
	StartedAt time.Time

	// Auth is nil until the authentication filter has run.
	Auth *AuthContext
}

// WithRequest returns a context carrying the given request snapshot.
func WithRequest(ctx context.Context, info *RequestInfo) context.Context {
	return context.WithValue(ctx, RequestInfoKey, info)
}

// CurrentRequest returns the in-flight request snapshot, or ok=false when
// called outside of request scope (background jobs, cron flushers, tests).
func CurrentRequest(ctx context.Context) (*RequestInfo, bool) {
	if ctx == nil {
		return nil, false
	}
	info, ok := ctx.Value(RequestInfoKey).(*RequestInfo)
	return info, ok && info != nil
}
