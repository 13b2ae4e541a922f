package reqctx

import "context"

// WithSubject stores the caller's subject identifier in the context.
func WithSubject(ctx context.Context, subjectID string) context.Context {
	return context.WithValue(ctx, keySubject, subjectID)
}

// SubjectFromContext returns the subject identifier set by the HTTP
// middleware. Returns "", false for anonymous requests.
func SubjectFromContext(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(keySubject).(string)
	return s, ok && s != ""
}
