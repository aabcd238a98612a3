package core

import "context"

type contextKey string

const ctxKeyRequestMeta contextKey = "request_meta"

// RequestMeta identifies the client behind an upload for the upload log.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

// WithRequestMeta attaches client details to ctx.
func WithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, ctxKeyRequestMeta, meta)
}

// RequestMetaFrom returns the client details stored in ctx, if any.
func RequestMetaFrom(ctx context.Context) RequestMeta {
	meta, _ := ctx.Value(ctxKeyRequestMeta).(RequestMeta)
	return meta
}
