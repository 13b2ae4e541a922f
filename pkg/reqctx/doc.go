// Package reqctx carries request-scoped values through context.Context:
// the request metadata set for every HTTP request and, on routes that
// require one, the subject the request acts for.
//
// Keys are unexported; use the With*/From* pairs.
package reqctx
