package middleware

import "context"

type contextKey string

const ctxOperatorID contextKey = "operator_id"

func OperatorIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxOperatorID).(string); ok {
		return v
	}
	return ""
}

// WithOperatorID injects the operator identifier into the context.
func WithOperatorID(ctx context.Context, operatorID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxOperatorID, operatorID)
}
