package reqctx

import "context"

type ctxKey int

const (
	keyRequestMeta ctxKey = iota
	keySubject
)

// RequestMeta describes the HTTP request a context belongs to. It is attached
// once by the request id middleware and read by the logger.
type RequestMeta struct {
	RequestID string
	ClientIP  string
	UserAgent string
}

func WithRequestMeta(ctx context.Context, meta *RequestMeta) context.Context {
	return context.WithValue(ctx, keyRequestMeta, meta)
}

// RequestMetaFromContext returns nil, false outside an HTTP request.
func RequestMetaFromContext(ctx context.Context) (*RequestMeta, bool) {
	meta, ok := ctx.Value(keyRequestMeta).(*RequestMeta)
	return meta, ok && meta != nil
}
