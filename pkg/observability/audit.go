package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/tendril/pkg/domain"
)

// AuditLog returns hooks that log every registration and dispatch.
// Failed dispatches are logged at warn level, the rest at info.
// Suggestions are logged at debug level.
func AuditLog(logger *slog.Logger) domain.LifecycleHooks {
	registration := func(ctx context.Context, e *domain.RegistrationEvent) {
		level := slog.LevelInfo
		if e.Err != nil {
			level = slog.LevelWarn
		}
		logger.Log(ctx, level, string(e.Type),
			"route", e.Route,
			"skipped", e.Skipped,
			"error", e.Err,
		)
	}

	return domain.LifecycleHooks{
		OnRegister:   registration,
		OnUnregister: registration,
		OnDispatch: func(ctx context.Context, e *domain.DispatchEvent) {
			level := slog.LevelInfo
			if e.Err != nil {
				level = slog.LevelWarn
			}
			logger.Log(ctx, level, "dispatch",
				"dispatch_id", e.DispatchID,
				"route", e.Route,
				"async", e.Async,
				"duration", e.Duration,
				"outcome", domain.Kind(e.Err),
				"error", e.Err,
			)
		},
		OnSuggest: func(ctx context.Context, e *domain.SuggestEvent) {
			logger.Debug("suggest", "line", e.Line, "count", e.Count, "duration", e.Duration)
		},
	}
}
