package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/ports"
)

// Authorizer implements ports.Authorizer using one Redis set per subject.
// Each member is a permission pattern as understood by ports.Grants.
type Authorizer struct {
	client  *backend.Client
	prefix  string
	timeout time.Duration
	logger  *slog.Logger
}

type Option func(*Authorizer)

// WithPrefix sets the key prefix for grant sets.
func WithPrefix(prefix string) Option {
	return func(a *Authorizer) {
		a.prefix = prefix
	}
}

// WithTimeout bounds each lookup. Zero means only the dispatch context applies.
func WithTimeout(d time.Duration) Option {
	return func(a *Authorizer) {
		a.timeout = d
	}
}

// WithLogger reports backend failures.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Authorizer) {
		a.logger = logger
	}
}

// New creates a new Redis authorizer with options.
func New(address, password string, db int, opts ...Option) *Authorizer {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis authorizer from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Authorizer {
	a := &Authorizer{
		client:  client,
		prefix:  "tendril:grants:",
		timeout: time.Second,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Authorizer) key(subject string) string {
	return a.prefix + subject
}

// Grant adds permission patterns to subject.
func (a *Authorizer) Grant(ctx context.Context, subject string, permissions ...string) error {
	if len(permissions) == 0 {
		return nil
	}
	members := make([]any, len(permissions))
	for i, p := range permissions {
		members[i] = p
	}
	if err := a.client.SAdd(ctx, a.key(subject), members...).Err(); err != nil {
		return fmt.Errorf("failed to grant permissions: %w", err)
	}
	return nil
}

// Revoke removes permission patterns from subject.
func (a *Authorizer) Revoke(ctx context.Context, subject string, permissions ...string) error {
	if len(permissions) == 0 {
		return nil
	}
	members := make([]any, len(permissions))
	for i, p := range permissions {
		members[i] = p
	}
	if err := a.client.SRem(ctx, a.key(subject), members...).Err(); err != nil {
		return fmt.Errorf("failed to revoke permissions: %w", err)
	}
	return nil
}

// Authorize implements ports.Authorizer. Backend errors deny access.
func (a *Authorizer) Authorize(permission string, cc *domain.CommandContext) bool {
	subject, ok := domain.Get(cc, domain.SubjectKey)
	if !ok || subject == "" {
		return false
	}

	ctx := cc.Context()
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	// Exact grants are the common case and need no transfer of the whole set.
	exact, err := a.client.SIsMember(ctx, a.key(subject), permission).Result()
	if err != nil {
		a.logger.Warn("permission lookup failed", "subject", subject, "permission", permission, "error", err)
		return false
	}
	if exact {
		return true
	}

	patterns, err := a.client.SMembers(ctx, a.key(subject)).Result()
	if err != nil {
		a.logger.Warn("permission lookup failed", "subject", subject, "permission", permission, "error", err)
		return false
	}
	for _, p := range patterns {
		if ports.Grants(p, permission) {
			return true
		}
	}
	return false
}
