package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/sessionshard/pkg/domain"
)

// LoggingHooks returns hooks that log every event at debug level, and
// failed operations at warn level.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRoute: func(ctx context.Context, e *domain.RouteEvent) {
			logger.DebugContext(ctx, "route",
				"shard", e.Shard,
				"position", e.Position,
				"needs_auth", e.NeedsAuth,
			)
		},
		OnOperation: func(ctx context.Context, e *domain.OperationEvent) {
			if e.Err != nil {
				logger.WarnContext(ctx, "operation failed",
					"op", e.Op,
					"shard", e.Shard,
					"failover", e.Failover,
					"duration", e.Duration,
					"err", e.Err,
				)
				return
			}
			logger.DebugContext(ctx, "operation",
				"op", e.Op,
				"shard", e.Shard,
				"failover", e.Failover,
				"duration", e.Duration,
			)
		},
		OnFailover: func(ctx context.Context, e *domain.FailoverEvent) {
			logger.DebugContext(ctx, "failover",
				"op", e.Op,
				"from", e.From,
				"to", e.To,
				"err", e.Reason,
			)
		},
	}
}
