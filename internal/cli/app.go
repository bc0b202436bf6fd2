package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/aretw0/tendril"
	"github.com/aretw0/tendril/internal/config"
	"github.com/aretw0/tendril/internal/logging"
	httpAdapter "github.com/aretw0/tendril/pkg/adapters/http"
	"github.com/aretw0/tendril/pkg/adapters/memory"
	redisAdapter "github.com/aretw0/tendril/pkg/adapters/redis"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/manifest"
	"github.com/aretw0/tendril/pkg/mapper"
	"github.com/aretw0/tendril/pkg/observability"
	"github.com/aretw0/tendril/pkg/ports"
	"github.com/aretw0/tendril/pkg/registry"
)

// App wires a dispatcher with the adapters selected by the configuration.
type App struct {
	Config     *config.Config
	Logger     *slog.Logger
	Dispatcher *tendril.Dispatcher
	Handlers   *registry.Registry
	Mappers    *mapper.Registry
	Metrics    *prometheus.Registry
	Streams    *httpAdapter.StreamManager
	Reloader   *manifest.Reloader
}

// NewApp initializes a dispatcher with standard CLI conventions:
// an authorizer (Redis when configured, else the configured grants),
// Prometheus metrics, an SSE event stream, the built-in handlers
// and the built-in commands.
func NewApp(cfg *config.Config) (*App, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := logging.New(level, cfg.LogFormat)

	metricsReg := prometheus.NewRegistry()
	metricsReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := observability.NewMetrics(metricsReg)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	streams := httpAdapter.NewStreamManager(logger)
	mappers := mapper.NewDefaultRegistry()

	d := tendril.New(
		tendril.WithLogger(logger),
		tendril.WithMappers(mappers),
		tendril.WithAuthorizer(newAuthorizer(cfg, logger)),
		tendril.WithWorkerLimit(cfg.Workers),
		tendril.WithLifecycleHooks(domain.ComposeHooks(
			metrics.Hooks(),
			streams.Hooks(),
			observability.AuditLog(logger.With("component", "audit")),
		)),
	)

	app := &App{
		Config:     cfg,
		Logger:     logger,
		Dispatcher: d,
		Handlers:   registry.NewRegistry(),
		Mappers:    mappers,
		Metrics:    metricsReg,
		Streams:    streams,
	}
	RegisterHandlers(app.Handlers)
	if err := d.Register(builtinCommands(d)...); err != nil {
		return nil, err
	}
	return app, nil
}

func newAuthorizer(cfg *config.Config, logger *slog.Logger) ports.Authorizer {
	if cfg.Redis.Addr != "" {
		logger.Debug("using redis authorizer", "addr", cfg.Redis.Addr)
		return redisAdapter.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			redisAdapter.WithPrefix(cfg.Redis.Prefix),
			redisAdapter.WithLogger(logger),
		)
	}
	auth := memory.NewAuthorizer()
	for subject, perms := range cfg.Grants {
		auth.Grant(subject, perms...)
	}
	return auth
}

// LoadCommands registers the configured manifest, or the demo commands
// when there is none. With cfg.Watch the manifest is reloaded on change
// until ctx is done.
func (a *App) LoadCommands(ctx context.Context) error {
	if a.Config.Manifest == "" {
		return a.Dispatcher.Register(demoCommands()...)
	}

	src := manifest.NewFileSource(manifest.NewLoader(a.Handlers, a.Mappers), a.Config.Manifest)
	a.Reloader = manifest.NewReloader(src, a.Dispatcher, a.Logger)
	if !a.Config.Watch {
		return a.Reloader.Reload()
	}

	if err := a.Reloader.Reload(); err != nil && len(a.Reloader.Current()) == 0 {
		return err
	}
	changes, err := src.Watch(ctx)
	if err != nil {
		return err
	}
	go func() {
		for range changes {
			if err := a.Reloader.Reload(); err != nil {
				a.Logger.Warn("manifest reload incomplete", "error", err)
			}
		}
	}()
	return nil
}

// NewContext returns a dispatch context for the configured subject,
// writing handler output to out.
func (a *App) NewContext(ctx context.Context, out io.Writer) *domain.CommandContext {
	cc := domain.NewCommandContext(ctx)
	if a.Config.Subject != "" {
		domain.Replace(cc, domain.SubjectKey, a.Config.Subject)
	}
	if out != nil {
		domain.Replace(cc, domain.OutputKey, out)
	}
	return cc
}

// Close drains async handlers.
func (a *App) Close(ctx context.Context) error {
	return a.Dispatcher.Close(ctx)
}

// FormatError renders a dispatch error for terminal users, adding the usage
// line for syntax problems.
func FormatError(d *tendril.Dispatcher, line string, err error) string {
	msg := "error: " + err.Error()
	var synErr *domain.SyntaxError
	var mapErr *domain.MappingError
	if errors.As(err, &synErr) || errors.As(err, &mapErr) {
		if usage := d.Syntax(line); usage != "" {
			msg += "\nusage: " + usage
		}
	}
	return strings.TrimRight(msg, "\n")
}
