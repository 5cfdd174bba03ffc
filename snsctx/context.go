package snsctx

import "context"

type ctxIndex int

const (
	ctxIndexVerbose ctxIndex = iota
	ctxIndexOperation
)

func IsVerbose(ctx context.Context) bool {
	val := ctx.Value(ctxIndexVerbose)
	if val == nil {
		return false
	}
	return val.(bool)
}

func SetVerbose(ctx context.Context, value bool) context.Context {
	return context.WithValue(ctx, ctxIndexVerbose, value)
}

// Operation returns the label attached with WithOperation, used to tag bus
// transfer dumps with the sensor operation that issued them.
func Operation(ctx context.Context) string {
	val := ctx.Value(ctxIndexOperation)
	if val == nil {
		return ""
	}
	return val.(string)
}

func WithOperation(ctx context.Context, op string) context.Context {
	return context.WithValue(ctx, ctxIndexOperation, op)
}
