// Package correlation carries the request correlation id from the HTTP
// edge to outbound calls and published events.
package correlation

import "context"

const Header = "X-Correlation-Id"

type ctxKey struct{}

func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func FromContext(ctx context.Context) string {
	if v := ctx.Value(ctxKey{}); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
