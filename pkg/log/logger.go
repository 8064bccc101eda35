// Package log scopes service loggers to the request being handled.
package log

import (
	"context"

	"github.com/smallbiznis/adpricing/pkg/log/ctxlogger"
	"go.uber.org/zap"
)

// With returns base carrying the correlation and trace ids found in ctx.
// Named service loggers keep their name.
func With(ctx context.Context, base *zap.Logger) *zap.Logger {
	if base == nil {
		return ctxlogger.FromContext(ctx)
	}
	return ctxlogger.WithContext(ctx, base)
}
